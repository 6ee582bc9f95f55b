// Package interfaces defines the contract every query backend implements.
// A backend owns the per-file corpus handles and answers queries one file
// at a time; caching and fan-out across files live in the search engine.
package interfaces

import (
	"context"

	"github.com/standardbeagle/treesearch/internal/searchtypes"
)

// Backend queries individual corpus files with one query language.
// Methods may be called concurrently for different files.
type Backend interface {
	// Kind names the query language, e.g. "regex".
	Kind() string

	// Count returns the number of matches in file.
	Count(ctx context.Context, file, query string, p searchtypes.CountParams) (searchtypes.FileCount, error)

	// Sents returns matching sentences of file in corpus order.
	Sents(ctx context.Context, file, query string, p searchtypes.SentsParams) ([]searchtypes.SentMatch, error)

	// Trees returns matching trees of file in corpus order.
	Trees(ctx context.Context, file, query string, p searchtypes.TreesParams) ([]searchtypes.TreeMatch, error)

	// Extract returns records [start, end) of file (0-based).
	Extract(ctx context.Context, file string, start, end int, p searchtypes.ExtractParams) ([]searchtypes.Extracted, error)

	// Close releases every file handle.
	Close() error
}
