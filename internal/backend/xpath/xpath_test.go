package xpath

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/treesearch/internal/docstore"
	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
)

const doc1 = `<alpino_ds version="1.3"><node begin="0" cat="top" end="3" id="0" rel="top"><node begin="0" cat="smain" end="3" id="1" rel="--"><node begin="0" cat="np" end="2" id="2" rel="su"><node begin="0" end="1" id="3" pos="det" postag="LID(bep)" rel="det" word="De"/><node begin="1" end="2" id="4" pos="noun" postag="N(soort,ev)" rel="hd" word="kat"/></node><node begin="2" end="3" id="5" pos="verb" postag="WW(pv)" rel="hd" word="zat"/></node></node><sentence>De kat zat</sentence></alpino_ds>`

const doc2 = `<alpino_ds version="1.3"><node begin="0" cat="top" end="2" id="0" rel="top"><node begin="0" cat="smain" end="2" id="1" rel="--"><node begin="0" end="1" id="2" pos="pron" postag="VNW(pers)" rel="su" word="Hij"/><node begin="1" end="2" id="3" pos="verb" postag="WW(pv)" rel="hd" word="liep"/></node></node><sentence>Hij liep</sentence></alpino_ds>`

func buildCorpus(t *testing.T, docs ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.dact")
	b, err := docstore.Create(path)
	require.NoError(t, err)
	for _, d := range docs {
		_, err := b.Add([]byte(d))
		require.NoError(t, err)
	}
	require.NoError(t, b.Close())
	return path
}

func newBackend(t *testing.T, macros string) (*Backend, string) {
	t.Helper()
	file := buildCorpus(t, doc1, doc2)
	b, err := New([]string{file}, macros)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, file
}

func TestNew_MissingStore(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing.dact")}, "")
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCount(t *testing.T) {
	b, file := newBackend(t, "")
	ctx := context.Background()

	got, err := b.Count(ctx, file, `//node[@pos="verb"]`, searchtypes.CountParams{Indices: true})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, got.Indices)

	got, err = b.Count(ctx, file, `//node[@pos="verb"]`, searchtypes.CountParams{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestSents(t *testing.T) {
	b, file := newBackend(t, "")

	got, err := b.Sents(context.Background(), file, `//node[@cat="np"]`, searchtypes.SentsParams{})
	require.NoError(t, err)
	assert.Equal(t, []searchtypes.SentMatch{
		{File: file, SentNo: 1, Sentence: "De kat zat", Highlight: []int{0, 1}},
	}, got)
}

func TestSents_BracketsAndMaxResults(t *testing.T) {
	b, file := newBackend(t, "")

	got, err := b.Sents(context.Background(), file, `//node[@word]`, searchtypes.SentsParams{Brackets: true, MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, doc1, got[0].Sentence)
	assert.Contains(t, got[0].Match, `word="De"`)
	assert.Contains(t, got[1].Match, `word="kat"`)
}

func TestTrees(t *testing.T) {
	b, file := newBackend(t, "")

	got, err := b.Trees(context.Background(), file, `//node[@cat="np"]`, searchtypes.TreesParams{NoMorph: true})
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, []string{"De", "kat", "zat"}, m.Tokens)
	assert.Equal(t, "(TOP (SMAIN (NP-SU (DET-DET De) (NOUN-HD kat)) (VERB-HD zat)))", m.Tree.Bracket(m.Tokens))
	assert.Equal(t, []int{0, 1}, m.Highlight.Leaves)
	require.Len(t, m.Highlight.Nodes, 3)
	assert.Equal(t, "NP-SU", m.Highlight.LargestNode().Label)
}

func TestMacros(t *testing.T) {
	macros := filepath.Join(t.TempDir(), "macros.txt")
	require.NoError(t, os.WriteFile(macros, []byte(`verb = """@pos="verb" """`), 0o644))
	b, file := newBackend(t, macros)

	got, err := b.Count(context.Background(), file, `//node[%verb%]`, searchtypes.CountParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
}

func TestExtract(t *testing.T) {
	b, file := newBackend(t, "")
	ctx := context.Background()

	sents, err := b.Extract(ctx, file, 0, 5, searchtypes.ExtractParams{Sents: true})
	require.NoError(t, err)
	assert.Equal(t, []searchtypes.Extracted{{Sentence: "De kat zat"}, {Sentence: "Hij liep"}}, sents)

	trees, err := b.Extract(ctx, file, 1, 2, searchtypes.ExtractParams{NoFunc: true, NoMorph: true})
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "(TOP (SMAIN (PRON Hij) (VERB liep)))", trees[0].Tree.Bracket(trees[0].Tokens))
}

func TestInvalidQuery(t *testing.T) {
	b, file := newBackend(t, "")
	_, err := b.Count(context.Background(), file, `//node[`, searchtypes.CountParams{})
	var searchErr *errors.SearchError
	assert.ErrorAs(t, err, &searchErr)
}
