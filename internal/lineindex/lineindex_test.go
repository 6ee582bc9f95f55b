package lineindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_TwoLines(t *testing.T) {
	data := []byte("the cat sat\nthe dog ran\n")
	ix, err := Build(data)
	require.NoError(t, err)

	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, 2, ix.Sentences())

	off, ok := ix.Select(0)
	require.True(t, ok)
	assert.Equal(t, 12, off)

	off, ok = ix.Select(1)
	require.True(t, ok)
	assert.Equal(t, 24, off)

	_, ok = ix.Select(2)
	assert.False(t, ok)

	assert.Equal(t, 0, ix.Rank(0))
	assert.Equal(t, 0, ix.Rank(4))
	assert.Equal(t, 1, ix.Rank(12))
	assert.Equal(t, 1, ix.Rank(16))
}

func TestRankSelectRoundTrip(t *testing.T) {
	corpora := []string{
		"the cat sat\nthe dog ran\n",
		"a\n\n\nb c\n  \nd",
		"one\r\ntwo\r\n\r\nthree\r\n",
		"\n\nleading blank lines\nsecond\n",
		"no terminator",
	}

	for _, corpus := range corpora {
		data := []byte(corpus)
		ix, err := Build(data)
		require.NoError(t, err)

		var want []string
		for _, line := range strings.Split(strings.ReplaceAll(corpus, "\r", ""), "\n") {
			if strings.TrimSpace(line) != "" {
				want = append(want, strings.TrimSpace(line))
			}
		}
		require.Equal(t, len(want), ix.Sentences(), "corpus %q", corpus)

		for n := 0; n < ix.Len(); n++ {
			off, ok := ix.Select(n)
			require.True(t, ok)
			assert.Equal(t, n+1, ix.Rank(off), "rank(select(%d)) in %q", n, corpus)
		}

		for n := 0; n < ix.Sentences(); n++ {
			start, end := ix.Span(n)
			got := strings.TrimSpace(string(data[start:end]))
			assert.Equal(t, want[n], got, "line %d of %q", n, corpus)
			// every offset within the line maps back to it
			assert.Equal(t, n, ix.Rank(start))
			assert.Equal(t, n, ix.Rank(end-1))
		}
	}
}

func TestLineStartBeyondEnd(t *testing.T) {
	data := []byte("x\ny\n")
	ix, err := Build(data)
	require.NoError(t, err)

	assert.Equal(t, 0, ix.LineStart(0))
	assert.Equal(t, 2, ix.LineStart(1))
	assert.Equal(t, len(data), ix.LineStart(5))
	assert.Equal(t, len(data), ix.LineEnd(5))
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a, err := Build([]byte("the cat sat\n"))
	require.NoError(t, err)
	b, err := Build([]byte("the cat sat\n"))
	require.NoError(t, err)
	c, err := Build([]byte("the dog sat\n"))
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, Fingerprint([]byte("the dog sat\n")), c.Fingerprint())
}

func TestEmptyFile(t *testing.T) {
	ix, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.Sentences())
	assert.Equal(t, 0, ix.Rank(10))
}
