package search

import (
	"context"
	"fmt"

	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
)

// Counts returns the number of matches per file, in subset order.
func (e *Engine) Counts(ctx context.Context, query string, opts CountsOptions) ([]searchtypes.FileCount, error) {
	if err := validateLimit("limit", opts.Limit); err != nil {
		return nil, err
	}
	files, err := e.resolve(opts.Subset)
	if err != nil {
		return nil, err
	}
	params := searchtypes.CountParams{Limit: opts.Limit, Indices: opts.Indices}

	results, err := gather(ctx, e, opCounts, files,
		func(file string) cacheKey {
			return cacheKey{op: opCounts, query: query, file: file, limit: opts.Limit, indices: opts.Indices}
		},
		func(ce cacheEntry) (searchtypes.FileCount, bool) { return ce.count, true },
		func(ctx context.Context, file string) (searchtypes.FileCount, error) {
			return e.backend.Count(ctx, file, query, params)
		},
		func(c searchtypes.FileCount) cacheEntry { return cacheEntry{count: c} },
	)
	if err != nil {
		return nil, err
	}

	byFile := make(map[string]searchtypes.FileCount, len(results))
	for _, r := range results {
		byFile[r.file] = r.value
	}
	out := make([]searchtypes.FileCount, 0, len(files))
	for _, f := range files {
		c := byFile[f]
		c.File = f
		out = append(out, c)
	}
	return out, nil
}

// reusable reports whether a list computed with cachedBound can answer a
// request for want results (0 = all of them).
func reusable(cachedBound, want int) bool {
	if cachedBound == 0 {
		return true
	}
	return want != 0 && want <= cachedBound
}

func truncate[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// Sents returns matching sentences: cached files first in subset order,
// then the others as their jobs complete.
func (e *Engine) Sents(ctx context.Context, query string, opts SentsOptions) ([]searchtypes.SentMatch, error) {
	maxResults, err := bound(opts.MaxResults, DefaultMaxSents)
	if err != nil {
		return nil, err
	}
	files, err := e.resolve(opts.Subset)
	if err != nil {
		return nil, err
	}
	params := searchtypes.SentsParams{MaxResults: maxResults, Brackets: opts.Brackets}

	results, err := gather(ctx, e, opSents, files,
		func(file string) cacheKey {
			return cacheKey{op: opSents, query: query, file: file, brackets: opts.Brackets}
		},
		func(ce cacheEntry) ([]searchtypes.SentMatch, bool) {
			if !reusable(ce.bound, maxResults) {
				return nil, false
			}
			return truncate(ce.sents, maxResults), true
		},
		func(ctx context.Context, file string) ([]searchtypes.SentMatch, error) {
			return e.backend.Sents(ctx, file, query, params)
		},
		func(s []searchtypes.SentMatch) cacheEntry { return cacheEntry{sents: s, bound: maxResults} },
	)
	if err != nil {
		return nil, err
	}

	var out []searchtypes.SentMatch
	for _, r := range results {
		out = append(out, r.value...)
	}
	return out, nil
}

// Trees returns matching trees, ordered like Sents.
func (e *Engine) Trees(ctx context.Context, query string, opts TreesOptions) ([]searchtypes.TreeMatch, error) {
	maxResults, err := bound(opts.MaxResults, DefaultMaxTrees)
	if err != nil {
		return nil, err
	}
	files, err := e.resolve(opts.Subset)
	if err != nil {
		return nil, err
	}
	params := searchtypes.TreesParams{MaxResults: maxResults, NoFunc: opts.NoFunc, NoMorph: opts.NoMorph}

	results, err := gather(ctx, e, opTrees, files,
		func(file string) cacheKey {
			return cacheKey{op: opTrees, query: query, file: file, noFunc: opts.NoFunc, noMorph: opts.NoMorph}
		},
		func(ce cacheEntry) ([]searchtypes.TreeMatch, bool) {
			if !reusable(ce.bound, maxResults) {
				return nil, false
			}
			return truncate(ce.trees, maxResults), true
		},
		func(ctx context.Context, file string) ([]searchtypes.TreeMatch, error) {
			return e.backend.Trees(ctx, file, query, params)
		},
		func(t []searchtypes.TreeMatch) cacheEntry { return cacheEntry{trees: t, bound: maxResults} },
	)
	if err != nil {
		return nil, err
	}

	var out []searchtypes.TreeMatch
	for _, r := range results {
		out = append(out, r.value...)
	}
	return out, nil
}

// Extract returns records [start, end) (0-based, non-empty records only)
// of one file. Results are not cached.
func (e *Engine) Extract(ctx context.Context, file string, start, end int, opts ExtractOptions) ([]searchtypes.Extracted, error) {
	if _, err := e.resolve([]string{file}); err != nil {
		return nil, err
	}
	if start < 0 || end < start {
		return nil, errors.NewConfigError("range", fmt.Sprintf("%d:%d", start, end), fmt.Errorf("expected 0 <= start <= end"))
	}
	extract := timed(e, opExtract, func(ctx context.Context, file string) ([]searchtypes.Extracted, error) {
		return e.backend.Extract(ctx, file, start, end, searchtypes.ExtractParams{
			NoFunc:  opts.NoFunc,
			NoMorph: opts.NoMorph,
			Sents:   opts.Sents,
		})
	})
	return extract(ctx, file)
}

// BatchCounts runs Counts for every query and returns file -> query -> count.
func (e *Engine) BatchCounts(ctx context.Context, queries []string, opts CountsOptions) (map[string]map[string]int, error) {
	rows, err := e.BatchCountsOrdered(ctx, queries, opts)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]int, len(rows))
	for _, row := range rows {
		m := make(map[string]int, len(queries))
		for i, q := range queries {
			m[q] = row.Counts[i]
		}
		out[row.File] = m
	}
	return out, nil
}

// BatchRow holds one file's counts, one per query in query order.
type BatchRow struct {
	File   string `json:"file"`
	Counts []int  `json:"counts"`
}

// BatchCountsOrdered is BatchCounts with files in subset order and counts
// in query order.
func (e *Engine) BatchCountsOrdered(ctx context.Context, queries []string, opts CountsOptions) ([]BatchRow, error) {
	files, err := e.resolve(opts.Subset)
	if err != nil {
		return nil, err
	}
	rows := make([]BatchRow, len(files))
	index := make(map[string]int, len(files))
	for i, f := range files {
		rows[i] = BatchRow{File: f, Counts: make([]int, 0, len(queries))}
		index[f] = i
	}
	opts.Indices = false
	for _, q := range queries {
		counts, err := e.Counts(ctx, q, opts)
		if err != nil {
			return nil, err
		}
		for _, c := range counts {
			row := &rows[index[c.File]]
			row.Counts = append(row.Counts, c.Count)
		}
	}
	return rows, nil
}
