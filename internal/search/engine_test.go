package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/treesearch/internal/dispatch"
	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/metrics"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend returns n synthetic matches per file (n = matches[file]) and
// counts calls per operation.
type fakeBackend struct {
	mu      sync.Mutex
	calls   map[string]int
	matches map[string]int
	fail    map[string]error
	closed  bool
}

func newFakeBackend(matches map[string]int) *fakeBackend {
	return &fakeBackend{calls: map[string]int{}, matches: matches, fail: map[string]error{}}
}

func (f *fakeBackend) record(op, file string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[file]
}

func (f *fakeBackend) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Kind() string { return "fake" }

func (f *fakeBackend) Count(ctx context.Context, file, query string, p searchtypes.CountParams) (searchtypes.FileCount, error) {
	if err := f.record("count", file); err != nil {
		return searchtypes.FileCount{}, err
	}
	n := f.matches[file]
	if p.Limit > 0 && n > p.Limit {
		n = p.Limit
	}
	return searchtypes.FileCount{File: file, Count: n}, nil
}

func (f *fakeBackend) Sents(ctx context.Context, file, query string, p searchtypes.SentsParams) ([]searchtypes.SentMatch, error) {
	if err := f.record("sents", file); err != nil {
		return nil, err
	}
	var out []searchtypes.SentMatch
	for i := 1; i <= f.matches[file]; i++ {
		if p.MaxResults > 0 && len(out) == p.MaxResults {
			break
		}
		out = append(out, searchtypes.SentMatch{File: file, SentNo: i, Sentence: fmt.Sprintf("s%d", i)})
	}
	return out, nil
}

func (f *fakeBackend) Trees(ctx context.Context, file, query string, p searchtypes.TreesParams) ([]searchtypes.TreeMatch, error) {
	if err := f.record("trees", file); err != nil {
		return nil, err
	}
	var out []searchtypes.TreeMatch
	for i := 1; i <= f.matches[file]; i++ {
		if p.MaxResults > 0 && len(out) == p.MaxResults {
			break
		}
		out = append(out, searchtypes.TreeMatch{File: file, SentNo: i})
	}
	return out, nil
}

func (f *fakeBackend) Extract(ctx context.Context, file string, start, end int, p searchtypes.ExtractParams) ([]searchtypes.Extracted, error) {
	if err := f.record("extract", file); err != nil {
		return nil, err
	}
	var out []searchtypes.Extracted
	for i := start; i < end && i < f.matches[file]; i++ {
		out = append(out, searchtypes.Extracted{Sentence: fmt.Sprintf("s%d", i+1)})
	}
	return out, nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func newFakeEngine(t *testing.T, threads int, matches map[string]int, files ...string) (*Engine, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend(matches)
	e := newEngine(KindRegex, files, fb, dispatch.New(threads), 0, metrics.NewRecorder())
	t.Cleanup(func() { _ = e.Close() })
	return e, fb
}

func TestSents_BoundReuse(t *testing.T) {
	ctx := context.Background()
	e, fb := newFakeEngine(t, 1, map[string]int{"a": 50}, "a")

	got, err := e.Sents(ctx, "q", SentsOptions{MaxResults: 10})
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, 1, fb.callCount("sents"))

	// a smaller bound is answered from the cached list
	got, err = e.Sents(ctx, "q", SentsOptions{MaxResults: 5})
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 1, fb.callCount("sents"))
	assert.Equal(t, 5, got[4].SentNo)

	// a larger bound recomputes
	got, err = e.Sents(ctx, "q", SentsOptions{MaxResults: 20})
	require.NoError(t, err)
	assert.Len(t, got, 20)
	assert.Equal(t, 2, fb.callCount("sents"))

	// unlimited recomputes, then answers every bound
	got, err = e.Sents(ctx, "q", SentsOptions{MaxResults: Unlimited})
	require.NoError(t, err)
	assert.Len(t, got, 50)
	assert.Equal(t, 3, fb.callCount("sents"))

	got, err = e.Sents(ctx, "q", SentsOptions{MaxResults: 30})
	require.NoError(t, err)
	assert.Len(t, got, 30)
	got, err = e.Sents(ctx, "q", SentsOptions{MaxResults: Unlimited})
	require.NoError(t, err)
	assert.Len(t, got, 50)
	assert.Equal(t, 3, fb.callCount("sents"))
}

func TestSents_ModifiersAreSeparateEntries(t *testing.T) {
	ctx := context.Background()
	e, fb := newFakeEngine(t, 1, map[string]int{"a": 3}, "a")

	_, err := e.Sents(ctx, "q", SentsOptions{})
	require.NoError(t, err)
	_, err = e.Sents(ctx, "q", SentsOptions{Brackets: true})
	require.NoError(t, err)
	_, err = e.Sents(ctx, "other", SentsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, fb.callCount("sents"))

	_, err = e.Trees(ctx, "q", TreesOptions{})
	require.NoError(t, err)
	_, err = e.Trees(ctx, "q", TreesOptions{NoFunc: true})
	require.NoError(t, err)
	_, err = e.Trees(ctx, "q", TreesOptions{NoFunc: true})
	require.NoError(t, err)
	assert.Equal(t, 2, fb.callCount("trees"))
}

func TestTrees_DefaultBound(t *testing.T) {
	e, _ := newFakeEngine(t, 1, map[string]int{"a": 25}, "a")
	got, err := e.Trees(context.Background(), "q", TreesOptions{})
	require.NoError(t, err)
	assert.Len(t, got, DefaultMaxTrees)
}

func TestCounts_SubsetOrder(t *testing.T) {
	for _, threads := range []int{1, 4} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			ctx := context.Background()
			e, fb := newFakeEngine(t, threads, map[string]int{"a": 1, "b": 2, "c": 3}, "a", "b", "c")

			got, err := e.Counts(ctx, "q", CountsOptions{Subset: []string{"c", "a"}})
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "c", got[0].File)
			assert.Equal(t, 3, got[0].Count)
			assert.Equal(t, "a", got[1].File)

			all, err := e.Counts(ctx, "q", CountsOptions{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].File, all[1].File, all[2].File})
			// only b was not cached yet
			assert.Equal(t, 3, fb.callCount("count"))

			limited, err := e.Counts(ctx, "q", CountsOptions{Limit: 1})
			require.NoError(t, err)
			assert.Equal(t, 1, limited[2].Count)
		})
	}
}

func TestCounts_Validation(t *testing.T) {
	e, _ := newFakeEngine(t, 1, nil, "corpus/one.txt", "corpus/two.txt")

	_, err := e.Counts(context.Background(), "q", CountsOptions{Limit: -1})
	var cfg *errors.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "limit", cfg.Field)

	_, err = e.Counts(context.Background(), "q", CountsOptions{Subset: []string{"corpus/tow.txt"}})
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "subset", cfg.Field)
	assert.Equal(t, "corpus/two.txt", cfg.Suggestion)

	_, err = e.Sents(context.Background(), "q", SentsOptions{MaxResults: -5})
	require.ErrorAs(t, err, &cfg)
}

func TestFailuresAreNotCached(t *testing.T) {
	ctx := context.Background()
	e, fb := newFakeEngine(t, 1, map[string]int{"a": 1, "b": 1}, "a", "b")
	boom := stderrors.New("boom")
	fb.fail["b"] = boom

	_, err := e.Counts(ctx, "q", CountsOptions{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, fb.callCount("count"))

	delete(fb.fail, "b")
	got, err := e.Counts(ctx, "q", CountsOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	// a was cached by the failed call, b was retried
	assert.Equal(t, 3, fb.callCount("count"))
}

func TestSents_CachedResultsFirst(t *testing.T) {
	ctx := context.Background()
	e, _ := newFakeEngine(t, 1, map[string]int{"a": 1, "b": 1}, "a", "b")

	_, err := e.Sents(ctx, "q", SentsOptions{Subset: []string{"b"}})
	require.NoError(t, err)
	got, err := e.Sents(ctx, "q", SentsOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].File)
	assert.Equal(t, "a", got[1].File)
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	e, fb := newFakeEngine(t, 1, map[string]int{"a": 5}, "a")

	got, err := e.Extract(ctx, "a", 1, 3, ExtractOptions{Sents: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[0].Sentence)

	_, err = e.Extract(ctx, "a", 3, 1, ExtractOptions{})
	var cfg *errors.ConfigError
	require.ErrorAs(t, err, &cfg)

	_, err = e.Extract(ctx, "zzz", 0, 1, ExtractOptions{})
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, 1, fb.callCount("extract"))
}

func TestBatchCounts(t *testing.T) {
	e, _ := newFakeEngine(t, 2, map[string]int{"a": 1, "b": 2}, "a", "b")

	rows, err := e.BatchCountsOrdered(context.Background(), []string{"x", "y"}, CountsOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, BatchRow{File: "a", Counts: []int{1, 1}}, rows[0])
	assert.Equal(t, BatchRow{File: "b", Counts: []int{2, 2}}, rows[1])

	m, err := e.BatchCounts(context.Background(), []string{"x"}, CountsOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]int{"a": {"x": 1}, "b": {"x": 2}}, m)
}

func TestCloseIsIdempotent(t *testing.T) {
	fb := newFakeBackend(nil)
	e := newEngine(KindRegex, []string{"a"}, fb, dispatch.New(2), 0, nil)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, fb.closed)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("tgrep2")
	require.NoError(t, err)
	assert.Equal(t, KindTgrep, k)
	k, err = ParseKind(" XPath ")
	require.NoError(t, err)
	assert.Equal(t, KindXPath, k)
	k, err = ParseKind("re")
	require.NoError(t, err)
	assert.Equal(t, KindRegex, k)

	_, err = ParseKind("regx")
	var cfg *errors.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "regex", cfg.Suggestion)
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, Options{Kind: KindRegex})
	assert.ErrorIs(t, err, errors.ErrNoFiles)

	_, err = New(ctx, Options{Kind: KindRegex, Files: []string{"testdata/missing.txt"}})
	var cfg *errors.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "corpus", cfg.Field)

	_, err = New(ctx, Options{Kind: KindRegex, Files: []string{"testdata/animals.txt"}, Macros: "testdata/nope.txt"})
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "macros", cfg.Field)
}

func TestRegexEngine(t *testing.T) {
	ctx := context.Background()
	animals := filepath.Join("testdata", "animals.txt")
	chomsky := filepath.Join("testdata", "chomsky.txt")

	for _, threads := range []int{1, 0} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			e, err := New(ctx, Options{Kind: KindRegex, Files: []string{animals, chomsky}, NumThreads: threads})
			require.NoError(t, err)
			defer e.Close()

			counts, err := e.Counts(ctx, "cat", CountsOptions{Indices: true})
			require.NoError(t, err)
			require.Len(t, counts, 2)
			assert.Equal(t, animals, counts[0].File)
			assert.Equal(t, 2, counts[0].Count)
			assert.Equal(t, map[int]int{1: 1, 3: 1}, counts[0].Indices)
			assert.Equal(t, 1, counts[1].Count)

			limited, err := e.Counts(ctx, "cat", CountsOptions{Subset: []string{animals}, Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, 1, limited[0].Count)

			sents, err := e.Sents(ctx, "dog", SentsOptions{Subset: []string{animals}})
			require.NoError(t, err)
			require.Len(t, sents, 2)
			assert.Equal(t, 2, sents[0].SentNo)
			assert.Equal(t, "the dog ran", sents[0].Sentence)
			assert.Equal(t, []int{1}, sents[0].Highlight)
			assert.Equal(t, 3, sents[1].SentNo)

			_, err = e.Trees(ctx, "dog", TreesOptions{})
			assert.True(t, errors.IsUnsupported(err))

			ext, err := e.Extract(ctx, chomsky, 0, 2, ExtractOptions{Sents: true})
			require.NoError(t, err)
			require.Len(t, ext, 2)
			assert.Equal(t, "the cat purrs", ext[1].Sentence)
		})
	}
}
