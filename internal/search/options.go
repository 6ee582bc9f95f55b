package search

import (
	"fmt"

	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/metrics"
)

// Options configure a new Engine.
type Options struct {
	Kind  Kind
	Files []string
	// Macros is a backend-specific macro file; empty for none.
	Macros string
	// NumThreads: 1 runs per-file jobs synchronously, <= 0 uses every CPU.
	NumThreads int
	// CacheSize bounds the query cache; <= 0 selects cache.DefaultCapacity.
	CacheSize int
	Tgrep     TgrepOptions
	Metrics   *metrics.Recorder
}

// TgrepOptions configure the tgrep2 backend.
type TgrepOptions struct {
	Binary     string
	CheckStale bool
}

// CountsOptions parameterise Engine.Counts.
type CountsOptions struct {
	// Subset restricts the query to these files; all files when empty.
	Subset []string
	// Limit only scans sentences 1..Limit of each file; 0 scans all.
	Limit int
	// Indices also returns the matching sentence numbers.
	Indices bool
}

// SentsOptions parameterise Engine.Sents.
type SentsOptions struct {
	Subset []string
	// MaxResults caps matches per file: 0 selects DefaultMaxSents,
	// Unlimited returns all.
	MaxResults int
	// Brackets returns raw trees and matched fragments instead of tokens.
	Brackets bool
}

// TreesOptions parameterise Engine.Trees.
type TreesOptions struct {
	Subset []string
	// MaxResults caps matches per file: 0 selects DefaultMaxTrees,
	// Unlimited returns all.
	MaxResults int
	NoFunc     bool
	NoMorph    bool
}

// ExtractOptions parameterise Engine.Extract.
type ExtractOptions struct {
	NoFunc  bool
	NoMorph bool
	// Sents returns sentences instead of trees.
	Sents bool
}

func validateLimit(name string, v int) error {
	if v < 0 {
		return errors.NewConfigError(name, fmt.Sprint(v), fmt.Errorf("must not be negative"))
	}
	return nil
}

// bound converts a MaxResults option to a per-file cap where 0 means
// unbounded.
func bound(maxResults, def int) (int, error) {
	switch {
	case maxResults == 0:
		return def, nil
	case maxResults == Unlimited:
		return 0, nil
	case maxResults < 0:
		return 0, errors.NewConfigError("max_results", fmt.Sprint(maxResults), fmt.Errorf("must be positive or Unlimited"))
	}
	return maxResults, nil
}
