package treebank

import "strings"

const highMarker = "_HIGH"

// ParseMatch parses a bracketed tree together with the bracketed fragment
// (or single token) a query matched in it, and returns the highlight of
// that fragment. Only the first occurrence of the fragment is marked.
func ParseMatch(treeStr, match string) (*Tree, []string, Highlight, error) {
	treeStr = fillEmptyLeaves(treeStr)
	match = fillEmptyLeaves(match)

	if strings.HasPrefix(match, "(") {
		if fields := strings.SplitN(match, " ", 2); len(fields) == 2 {
			treeStr = strings.Replace(treeStr, match, fields[0]+highMarker+" "+fields[1], 1)
		}
	} else if match != "" {
		token := " " + match + ")"
		treeStr = strings.Replace(treeStr, token, highMarker+token, 1)
	}

	tree, tokens, err := Parse(treeStr)
	if err != nil {
		return nil, nil, Highlight{}, err
	}
	tree = MergeDiscNodes(tree)

	var high *Tree
	for _, n := range tree.Subtrees() {
		if strings.HasSuffix(n.Label, highMarker) {
			n.Label = strings.TrimSuffix(n.Label, highMarker)
			if high == nil {
				high = n
			}
		}
	}
	return tree, tokens, HighlightSubtree(high), nil
}

// fillEmptyLeaves gives empty preterminals "(X )" the terminal -NONE-.
func fillEmptyLeaves(s string) string {
	return strings.ReplaceAll(s, " )", " -NONE-)")
}

// MatchTokens returns the terminals of a bracketed sentence and the
// indices of the terminals covered by match, which is either a bracketed
// fragment or a single token.
func MatchTokens(sent, match string) ([]string, []int) {
	tokens := LeafTokens(sent)

	needle := match
	if !strings.HasPrefix(match, "(") {
		needle = " " + match + ")"
	}
	idx := strings.Index(sent, needle)
	if idx < 0 || match == "" {
		return tokens, nil
	}

	prelen := len(LeafTokens(sent[:idx]))
	matched := 1
	if strings.Contains(match, "(") {
		matched = len(LeafTokens(match))
	}
	highlight := make([]int, 0, matched)
	for i := prelen; i < prelen+matched; i++ {
		highlight = append(highlight, i)
	}
	return tokens, highlight
}
