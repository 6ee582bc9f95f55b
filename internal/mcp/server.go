// Package mcp exposes a search engine as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/search"
	"github.com/standardbeagle/treesearch/internal/version"
)

// Server serves one engine. Corpus names in requests and responses are
// relative to root when they lie below it.
type Server struct {
	engine *search.Engine
	root   string
	server *mcp.Server
}

// NewServer creates a server for engine and registers its tools.
func NewServer(engine *search.Engine, root string) *Server {
	s := &Server{
		engine: engine,
		root:   root,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "treesearch",
			Version: version.Version + "+" + version.BuildID(),
		}, nil),
	}
	s.registerTools()
	return s
}

var filesSchema = &jsonschema.Schema{
	Type:        "array",
	Items:       &jsonschema.Schema{Type: "string"},
	Description: "Restrict the query to these corpus files (names as listed by 'files'); all files when omitted",
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "files",
		Description: "List the corpus files and the query language of this server.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleFiles)

	s.server.AddTool(&mcp.Tool{
		Name:        "counts",
		Description: "Count matches of a query per corpus file, in file order.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Query in the engine's language"},
				"files": filesSchema,
				"limit": {
					Type:        "integer",
					Description: "Only consider the first N sentences of each file (0 = all)",
				},
				"indices": {
					Type:        "boolean",
					Description: "Also return matches per sentence number",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleCounts)

	s.server.AddTool(&mcp.Tool{
		Name:        "sents",
		Description: "Return matching sentences with the indices of matched tokens.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Query in the engine's language"},
				"files": filesSchema,
				"max": {
					Type:        "integer",
					Description: "Maximum matches per file (default 100, -1 = all)",
				},
				"brackets": {
					Type:        "boolean",
					Description: "Return raw trees and matched fragments instead of tokens",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleSents)

	s.server.AddTool(&mcp.Tool{
		Name:        "trees",
		Description: "Return matching trees in bracket notation with the matched fragment. Not available for plain-text corpora.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Query in the engine's language"},
				"files": filesSchema,
				"max": {
					Type:        "integer",
					Description: "Maximum matches per file (default 10, -1 = all)",
				},
				"nofunc":  {Type: "boolean", Description: "Strip function tags from labels"},
				"nomorph": {Type: "boolean", Description: "Strip morphological features from labels"},
			},
			Required: []string{"query"},
		},
	}, s.handleTrees)

	s.server.AddTool(&mcp.Tool{
		Name:        "extract",
		Description: "Return sentences or trees [start, end) of one corpus file, 0-based.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file":    {Type: "string", Description: "Corpus file"},
				"start":   {Type: "integer", Description: "First sentence, 0-based"},
				"end":     {Type: "integer", Description: "End of the range, exclusive"},
				"sents":   {Type: "boolean", Description: "Return sentences instead of trees"},
				"nofunc":  {Type: "boolean", Description: "Strip function tags from labels"},
				"nomorph": {Type: "boolean", Description: "Strip morphological features from labels"},
			},
			Required: []string{"file", "start", "end"},
		},
	}, s.handleExtract)
}

// Start serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	debug.LogMCP("starting MCP server with stdio transport (%s, %d files)", s.engine.Kind(), len(s.engine.Files()))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
