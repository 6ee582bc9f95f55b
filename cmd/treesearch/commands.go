package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/treesearch/internal/search"
)

func countsCommand(c *cli.Context) (err error) {
	query, files, err := queryArgs(c)
	if err != nil {
		return err
	}
	s, err := openSession(c, files)
	if err != nil {
		return err
	}
	defer s.closeWith(c, &err)

	counts, err := s.engine.Counts(c.Context, query, search.CountsOptions{
		Limit:   c.Int("limit"),
		Indices: c.Bool("indices"),
	})
	if err != nil {
		return err
	}
	return s.printCounts(c.App.Writer, counts)
}

func sentsCommand(c *cli.Context) (err error) {
	query, files, err := queryArgs(c)
	if err != nil {
		return err
	}
	s, err := openSession(c, files)
	if err != nil {
		return err
	}
	defer s.closeWith(c, &err)

	brackets := c.Bool("brackets")
	sents, err := s.engine.Sents(c.Context, query, search.SentsOptions{
		MaxResults: maxResults(c, s.cfg.Limits.Sents),
		Brackets:   brackets,
	})
	if err != nil {
		return err
	}
	return s.printSents(c.App.Writer, sents, outputMode{
		onlyMatching: c.Bool("only-matching"),
		lineNumbers:  c.Bool("line-number") || s.cfg.Output.LineNumbers,
		brackets:     brackets,
	})
}

func treesCommand(c *cli.Context) (err error) {
	query, files, err := queryArgs(c)
	if err != nil {
		return err
	}
	s, err := openSession(c, files)
	if err != nil {
		return err
	}
	defer s.closeWith(c, &err)

	trees, err := s.engine.Trees(c.Context, query, search.TreesOptions{
		MaxResults: maxResults(c, s.cfg.Limits.Trees),
		NoFunc:     c.Bool("nofunc"),
		NoMorph:    c.Bool("nomorph"),
	})
	if err != nil {
		return err
	}
	return s.printTrees(c.App.Writer, trees, outputMode{
		onlyMatching: c.Bool("only-matching"),
		lineNumbers:  c.Bool("line-number") || s.cfg.Output.LineNumbers,
	})
}

func extractCommand(c *cli.Context) (err error) {
	if c.NArg() != 3 {
		return fmt.Errorf("extract: expected FILE START END")
	}
	start, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("extract: invalid START: %w", err)
	}
	end, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		return fmt.Errorf("extract: invalid END: %w", err)
	}

	s, err := openSession(c, []string{c.Args().First()})
	if err != nil {
		return err
	}
	defer s.closeWith(c, &err)

	items, err := s.engine.Extract(c.Context, s.engine.Files()[0], start, end, search.ExtractOptions{
		NoFunc:  c.Bool("nofunc"),
		NoMorph: c.Bool("nomorph"),
		Sents:   c.Bool("sents"),
	})
	if err != nil {
		return err
	}
	return s.printExtracted(c.App.Writer, items)
}

func batchCommand(c *cli.Context) (err error) {
	if c.NArg() < 1 {
		return fmt.Errorf("batch: missing QUERYFILE argument")
	}
	queries, err := readQueries(c.Args().First())
	if err != nil {
		return err
	}
	s, err := openSession(c, c.Args().Tail())
	if err != nil {
		return err
	}
	defer s.closeWith(c, &err)

	rows, err := s.engine.BatchCountsOrdered(c.Context, queries, search.CountsOptions{Limit: c.Int("limit")})
	if err != nil {
		return err
	}
	return s.printBatch(c.App.Writer, queries, rows)
}

// readQueries reads one query per line; blank lines are skipped.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("batch: no queries in %s", filepath.Base(path))
	}
	return queries, nil
}

// maxResults maps --max to engine MaxResults: unset falls back to the
// configured limit, negative means all.
func maxResults(c *cli.Context, configured int) int {
	switch n := c.Int("max"); {
	case n < 0:
		return search.Unlimited
	case n > 0:
		return n
	}
	return configured
}
