package treebank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NumbersTerminals(t *testing.T) {
	tree, tokens, err := Parse("(S (NP (DT the) (NN cat)) (VP (VBD sat)))")
	require.NoError(t, err)

	assert.Equal(t, []string{"the", "cat", "sat"}, tokens)
	assert.Equal(t, "S", tree.Label)
	assert.Equal(t, []int{0, 1, 2}, tree.Leaves())
	assert.Equal(t, "(S (NP (DT 0) (NN 1)) (VP (VBD 2)))", tree.String())
	assert.Equal(t, "(S (NP (DT the) (NN cat)) (VP (VBD sat)))", tree.Bracket(tokens))
	assert.Len(t, tree.Subtrees(), 6)
}

func TestParse_IndexedTerminals(t *testing.T) {
	tree, tokens, err := Parse("(S (VP (VB 0=is) (JJ 2=rich)) (NP (NN 1=John)))")
	require.NoError(t, err)
	assert.Equal(t, []string{"is", "John", "rich"}, tokens)
	assert.Equal(t, []int{0, 2, 1}, tree.Leaves())
}

func TestParse_EmptyRootLabel(t *testing.T) {
	tree, tokens, err := Parse("( (S (NN hi)))")
	require.NoError(t, err)
	assert.Equal(t, "", tree.Label)
	assert.Equal(t, []string{"hi"}, tokens)
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"(S (NN a)",
		"(S (NN a)))",
		"(S a (NN b))",
		"(NN a b)",
		"(S)",
	} {
		_, _, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestMergeDiscNodes(t *testing.T) {
	tree, _, err := Parse("(S (VP*1 (VB 0=wake)) (NP (PRP 1=him)) (VP*2 (RP 2=up)))")
	require.NoError(t, err)

	MergeDiscNodes(tree)
	require.Len(t, tree.Children, 2)
	vp := tree.Children[0]
	assert.Equal(t, "VP", vp.Label)
	assert.Equal(t, []int{0, 2}, vp.Leaves())
	assert.Equal(t, "NP", tree.Children[1].Label)
}

func TestMergeDiscNodes_SplitPreterminals(t *testing.T) {
	tree, _, err := Parse("(S (VB*1 0=wake) (NP (PRP 1=him)) (VB*2 2=up))")
	require.NoError(t, err)

	MergeDiscNodes(tree)
	assert.Equal(t, "(S (VB (VB 0) (VB 2)) (NP (PRP 1)))", tree.String())
	vb := tree.Children[0]
	assert.False(t, vb.IsPreterminal())
	assert.Equal(t, []int{0, 2}, vb.Leaves())
}

func TestMergeDiscNodes_SinglePartRelabeled(t *testing.T) {
	tree, _, err := Parse("(S (NP*1 (NN 0=a)) (VB 1=b))")
	require.NoError(t, err)
	MergeDiscNodes(tree)
	assert.Equal(t, "(S (NP (NN 0)) (VB 1))", tree.String())
}
