package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/treesearch/internal/search"
	"github.com/standardbeagle/treesearch/pkg/pathutil"
)

// CountsParams are the arguments of the counts tool.
type CountsParams struct {
	Query   string   `json:"query"`
	Files   []string `json:"files,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Indices bool     `json:"indices,omitempty"`
}

// SentsParams are the arguments of the sents tool.
type SentsParams struct {
	Query    string   `json:"query"`
	Files    []string `json:"files,omitempty"`
	Max      int      `json:"max,omitempty"`
	Brackets bool     `json:"brackets,omitempty"`
}

// TreesParams are the arguments of the trees tool.
type TreesParams struct {
	Query   string   `json:"query"`
	Files   []string `json:"files,omitempty"`
	Max     int      `json:"max,omitempty"`
	NoFunc  bool     `json:"nofunc,omitempty"`
	NoMorph bool     `json:"nomorph,omitempty"`
}

// ExtractParams are the arguments of the extract tool. Start and End
// select records [Start, End) of File.
type ExtractParams struct {
	File    string `json:"file"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Sents   bool   `json:"sents,omitempty"`
	NoFunc  bool   `json:"nofunc,omitempty"`
	NoMorph bool   `json:"nomorph,omitempty"`
}

// FilesResponse is the result of the files tool.
type FilesResponse struct {
	Engine string   `json:"engine"`
	Files  []string `json:"files"`
}

func (s *Server) handleFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files := s.engine.Files()
	for i, f := range files {
		files[i] = pathutil.ToRelative(f, s.root)
	}
	return createJSONResponse(FilesResponse{Engine: s.engine.Kind().String(), Files: files})
}

func (s *Server) handleCounts(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CountsParams
	if err := parseParams(req, &params); err != nil {
		return createErrorResponse("counts", err)
	}
	if params.Query == "" {
		return createErrorResponse("counts", errQueryRequired)
	}

	counts, err := s.engine.Counts(ctx, params.Query, search.CountsOptions{
		Subset:  s.absolute(params.Files),
		Limit:   params.Limit,
		Indices: params.Indices,
	})
	if err != nil {
		return createErrorResponse("counts", err)
	}
	return createJSONResponse(map[string]interface{}{
		"query":  params.Query,
		"counts": pathutil.ToRelativeCounts(counts, s.root),
	})
}

func (s *Server) handleSents(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SentsParams
	if err := parseParams(req, &params); err != nil {
		return createErrorResponse("sents", err)
	}
	if params.Query == "" {
		return createErrorResponse("sents", errQueryRequired)
	}

	sents, err := s.engine.Sents(ctx, params.Query, search.SentsOptions{
		Subset:     s.absolute(params.Files),
		MaxResults: params.Max,
		Brackets:   params.Brackets,
	})
	if err != nil {
		return createErrorResponse("sents", err)
	}
	return createJSONResponse(map[string]interface{}{
		"query":   params.Query,
		"total":   len(sents),
		"results": pathutil.ToRelativeSents(sents, s.root),
	})
}

func (s *Server) handleTrees(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params TreesParams
	if err := parseParams(req, &params); err != nil {
		return createErrorResponse("trees", err)
	}
	if params.Query == "" {
		return createErrorResponse("trees", errQueryRequired)
	}

	trees, err := s.engine.Trees(ctx, params.Query, search.TreesOptions{
		Subset:     s.absolute(params.Files),
		MaxResults: params.Max,
		NoFunc:     params.NoFunc,
		NoMorph:    params.NoMorph,
	})
	if err != nil {
		return createErrorResponse("trees", err)
	}
	return createJSONResponse(map[string]interface{}{
		"query":   params.Query,
		"total":   len(trees),
		"results": pathutil.ToRelativeTrees(trees, s.root),
	})
}

func (s *Server) handleExtract(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ExtractParams
	if err := parseParams(req, &params); err != nil {
		return createErrorResponse("extract", err)
	}
	if params.File == "" {
		return createErrorResponse("extract", fmt.Errorf("file is required"))
	}

	file := s.absolute([]string{params.File})[0]
	items, err := s.engine.Extract(ctx, file, params.Start, params.End, search.ExtractOptions{
		NoFunc:  params.NoFunc,
		NoMorph: params.NoMorph,
		Sents:   params.Sents,
	})
	if err != nil {
		return createErrorResponse("extract", err)
	}
	return createJSONResponse(map[string]interface{}{
		"file":    params.File,
		"start":   params.Start,
		"results": items,
	})
}

var errQueryRequired = fmt.Errorf("query is required")

func parseParams(req *mcp.CallToolRequest, v interface{}) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// absolute maps client file names back to the engine's names.
func (s *Server) absolute(files []string) []string {
	if len(files) == 0 || s.root == "" {
		return files
	}
	out := make([]string, len(files))
	for i, f := range files {
		if filepath.IsAbs(f) {
			out[i] = f
		} else {
			out[i] = filepath.Join(s.root, f)
		}
	}
	return out
}
