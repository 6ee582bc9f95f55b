package treebank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterLabels(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		noFunc  bool
		noMorph bool
		want    string
	}{
		{
			name:   "strip function tags",
			input:  "(S (NP-SBJ (DT the) (NN cat)) (VP-HD (VBD sat)))",
			noFunc: true,
			want:   "(S (NP (DT the) (NN cat)) (VP (VBD sat)))",
		},
		{
			name:   "keep -NONE- labels",
			input:  "(S (NP-SBJ (-NONE- *)) (VP (VB go)))",
			noFunc: true,
			want:   "(S (NP (-NONE- *)) (VP (VB go)))",
		},
		{
			name:    "strip morphology and abbreviate",
			input:   "(SMAIN (NOUN[soort,ev] kat) (VERB[pv,verl] zat))",
			noMorph: true,
			want:    "(SMAIN (NN kat) (VB zat))",
		},
		{
			name:  "no filters",
			input: "(NP-SU (NOUN[soort] kat))",
			want:  "(NP-SU (NOUN[soort] kat))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterLabels(tt.input, tt.noFunc, tt.noMorph))
		})
	}
}

func TestLeafTokens(t *testing.T) {
	assert.Equal(t, []string{"the", "cat", "sat"}, LeafTokens("(S (NP (DT the) (NN cat)) (VP (VBD sat)))"))
	assert.Empty(t, LeafTokens("(S (NP"))
	// a trailing word without a following bracket is not a terminal
	assert.Equal(t, []string{"the"}, LeafTokens("(S (DT the) (NN cat"))
}

func TestMatchTokens(t *testing.T) {
	sent := "(S (NP (DT the) (NN cat)) (VP (VBD sat)))"

	tokens, high := MatchTokens(sent, "(NN cat)")
	assert.Equal(t, []string{"the", "cat", "sat"}, tokens)
	assert.Equal(t, []int{1}, high)

	_, high = MatchTokens(sent, "(NP (DT the) (NN cat))")
	assert.Equal(t, []int{0, 1}, high)

	_, high = MatchTokens(sent, "sat")
	assert.Equal(t, []int{2}, high)

	_, high = MatchTokens(sent, "dog")
	assert.Empty(t, high)
}

func TestParseMatch(t *testing.T) {
	tree, tokens, high, err := ParseMatch(
		"(S (NP (DT the) (NN cat)) (VP (VBD sat)))",
		"(NP (DT the) (NN cat))")
	require.NoError(t, err)

	assert.Equal(t, []string{"the", "cat", "sat"}, tokens)
	require.Len(t, high.Nodes, 3)
	assert.Equal(t, "NP", high.Nodes[0].Label)
	assert.Equal(t, []int{0, 1}, high.Leaves)
	assert.Same(t, tree.Children[0], high.LargestNode())
	for _, n := range tree.Subtrees() {
		assert.NotContains(t, n.Label, "_HIGH")
	}
}

func TestParseMatch_TokenAndEmptyLeaves(t *testing.T) {
	tree, tokens, high, err := ParseMatch("(S (NP (-NONE- )) (VP (VB go)))", "go")
	require.NoError(t, err)

	assert.Equal(t, []string{"-NONE-", "go"}, tokens)
	require.Len(t, high.Nodes, 1)
	assert.Equal(t, "VB", high.Nodes[0].Label)
	assert.Equal(t, []int{1}, high.Leaves)
	assert.Equal(t, "(S (NP (-NONE- 0)) (VP (VB 1)))", tree.String())
}

func TestParseMatch_FirstOccurrenceOnly(t *testing.T) {
	_, _, high, err := ParseMatch("(S (NN a) (NN a))", "(NN a)")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, high.Leaves)
}
