package main

import (
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/mcp"
)

func mcpCommand(c *cli.Context) (err error) {
	// stdout carries the protocol
	debug.SetQuietMode(true)

	s, err := openSession(c, c.Args().Slice())
	if err != nil {
		return err
	}
	defer s.closeWith(c, &err)

	return mcp.NewServer(s.engine, s.cwd).Start(c.Context)
}
