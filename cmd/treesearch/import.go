package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/treesearch/internal/config"
	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/docstore"
	"github.com/standardbeagle/treesearch/internal/treebank"
)

// importCommand builds a document store from Alpino XML files, one
// document per file in argument order. Files that are not valid Alpino
// XML are rejected before anything is written.
func importCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("import: expected OUTPUT XMLFILES...")
	}
	out := c.Args().First()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	files, err := config.ExpandPatterns(cwd, c.Args().Tail())
	if err != nil {
		return err
	}

	docs := make([][]byte, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, _, err := treebank.FromAlpino(data, treebank.AlpinoOptions{}); err != nil {
			return fmt.Errorf("import: %s: %w", f, err)
		}
		docs = append(docs, data)
	}

	b, err := docstore.Create(out)
	if err != nil {
		return err
	}
	for i, data := range docs {
		if _, err := b.Add(data); err != nil {
			_ = b.Close()
			_ = os.Remove(out)
			return fmt.Errorf("import: %s: %w", files[i], err)
		}
	}
	if err := b.Close(); err != nil {
		return err
	}

	debug.Log("IMPORT", "wrote %d documents to %s", len(docs), out)
	fmt.Fprintf(c.App.Writer, "imported %d documents into %s\n", len(docs), out)
	return nil
}
