// Package search implements the query engine shared by every backend:
// subset resolution, per-file result caching and concurrent dispatch of
// per-file jobs.
package search

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/standardbeagle/treesearch/internal/backend/regex"
	"github.com/standardbeagle/treesearch/internal/backend/tgrep"
	"github.com/standardbeagle/treesearch/internal/backend/xpath"
	"github.com/standardbeagle/treesearch/internal/cache"
	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/dispatch"
	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/interfaces"
	"github.com/standardbeagle/treesearch/internal/metrics"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
)

// Engine answers queries over a fixed set of corpus files with one backend.
// Its methods are safe for concurrent use.
type Engine struct {
	kind       Kind
	files      []string
	fileSet    map[string]bool
	backend    interfaces.Backend
	cache      *cache.FIFO[cacheKey, cacheEntry]
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Recorder

	closeOnce sync.Once
	closeErr  error
}

// cacheKey identifies one per-file result: the operation, the query, the
// file and every modifier that changes the result.
type cacheKey struct {
	op       string
	query    string
	file     string
	limit    int
	indices  bool
	brackets bool
	noFunc   bool
	noMorph  bool
}

// cacheEntry holds a per-file result. bound is the MaxResults the list was
// computed with; 0 means it is complete.
type cacheEntry struct {
	count searchtypes.FileCount
	sents []searchtypes.SentMatch
	trees []searchtypes.TreeMatch
	bound int
}

// New validates opts, opens every file with the selected backend and
// returns a ready engine.
func New(ctx context.Context, opts Options) (*Engine, error) {
	files, err := uniqueFiles(opts.Files)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, errors.NewConfigError("corpus", f, err)
		}
	}
	if opts.Macros != "" {
		if _, err := os.Stat(opts.Macros); err != nil {
			return nil, errors.NewConfigError("macros", opts.Macros, err)
		}
	}

	d := dispatch.New(opts.NumThreads)
	var backend interfaces.Backend
	switch opts.Kind {
	case KindTgrep:
		backend, err = tgrep.New(ctx, files, tgrep.Options{
			Binary:     opts.Tgrep.Binary,
			Macros:     opts.Macros,
			CheckStale: opts.Tgrep.CheckStale,
			Dispatcher: d,
			Metrics:    opts.Metrics,
		})
	case KindXPath:
		backend, err = xpath.New(files, opts.Macros)
	case KindRegex:
		backend, err = regex.New(files, opts.Macros)
	default:
		err = errors.NewConfigError("engine", opts.Kind.String(), fmt.Errorf("unknown engine kind"))
	}
	if err != nil {
		d.Close()
		return nil, err
	}

	debug.LogSearch("engine ready: %s over %d files (%s, %d workers)", opts.Kind, len(files), d.Mode(), d.Workers())
	return newEngine(opts.Kind, files, backend, d, opts.CacheSize, opts.Metrics), nil
}

func newEngine(kind Kind, files []string, backend interfaces.Backend, d *dispatch.Dispatcher, cacheSize int, rec *metrics.Recorder) *Engine {
	fileSet := make(map[string]bool, len(files))
	for _, f := range files {
		fileSet[f] = true
	}
	return &Engine{
		kind:       kind,
		files:      files,
		fileSet:    fileSet,
		backend:    backend,
		cache:      cache.NewFIFO[cacheKey, cacheEntry](cacheSize),
		dispatcher: d,
		metrics:    rec,
	}
}

func uniqueFiles(files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, errors.NewConfigError("files", "", errors.ErrNoFiles)
	}
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Kind returns the backend kind.
func (e *Engine) Kind() Kind { return e.kind }

// Files returns the corpus files in registration order.
func (e *Engine) Files() []string {
	return append([]string(nil), e.files...)
}

// CacheStats returns the query cache statistics.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Close waits for running jobs and releases every backend resource.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var result *multierror.Error
		e.dispatcher.Close()
		if err := e.backend.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		e.closeErr = result.ErrorOrNil()
	})
	return e.closeErr
}

// resolve validates a subset against the engine's files; an empty subset
// selects every file.
func (e *Engine) resolve(subset []string) ([]string, error) {
	if len(subset) == 0 {
		return e.files, nil
	}
	out := make([]string, 0, len(subset))
	seen := make(map[string]bool, len(subset))
	for _, f := range subset {
		if !e.fileSet[f] {
			err := errors.NewConfigError("subset", f, fmt.Errorf("not a corpus file of this engine"))
			if s := closestMatch(f, e.files, len(f)/2+1); s != "" {
				err = err.WithSuggestion(s)
			}
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

type fileResult[T any] struct {
	file  string
	value T
}

// gather returns per-file results for files: cache hits in subset order
// first, then freshly computed results in completion order. Every
// dispatched job is awaited; successful ones are cached even when another
// failed, and the first failure is returned.
func gather[T any](
	ctx context.Context,
	e *Engine,
	op string,
	files []string,
	key func(file string) cacheKey,
	hit func(cacheEntry) (T, bool),
	compute func(ctx context.Context, file string) (T, error),
	entry func(T) cacheEntry,
) ([]fileResult[T], error) {
	var results []fileResult[T]
	var futures []dispatch.Future[T]
	for _, f := range files {
		if ce, ok := e.cache.Get(key(f)); ok {
			if v, ok := hit(ce); ok {
				e.metrics.CacheHit(op)
				results = append(results, fileResult[T]{file: f, value: v})
				continue
			}
		}
		e.metrics.CacheMiss(op)
		futures = append(futures, dispatch.Submit(ctx, e.dispatcher, f, timed(e, op, compute)))
	}
	if len(futures) > 0 {
		debug.LogSearch("%s: %d cached, %d dispatched", op, len(results), len(futures))
	}

	var firstErr error
	for fut := range dispatch.Collect(e.dispatcher, futures) {
		v, err := fut.Result()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if e.cache.Set(key(fut.Key()), entry(v)) {
			e.metrics.CacheEvicted()
			debug.LogCache("evicted oldest entry for %s", op)
		}
		results = append(results, fileResult[T]{file: fut.Key(), value: v})
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// timed wraps a per-file job with duration and outcome metrics.
func timed[T any](e *Engine, op string, job func(context.Context, string) (T, error)) func(context.Context, string) (T, error) {
	return func(ctx context.Context, file string) (T, error) {
		start := time.Now()
		v, err := job(ctx, file)
		e.metrics.ObserveJob(op, e.kind.String(), time.Since(start), err)
		if err != nil {
			debug.LogFields("SEARCH", map[string]interface{}{"op": op, "file": file, "error": err}, "job failed")
		}
		return v, err
	}
}
