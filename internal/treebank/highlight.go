package treebank

// Highlight is the part of a tree a query matched: the matched nodes
// (internal and preterminal) and the matched token indices.
type Highlight struct {
	Nodes  []*Tree
	Leaves []int
}

// Empty reports whether nothing is highlighted.
func (h Highlight) Empty() bool {
	return len(h.Nodes) == 0 && len(h.Leaves) == 0
}

// HasLeaf reports whether token index i is highlighted.
func (h Highlight) HasLeaf(i int) bool {
	for _, l := range h.Leaves {
		if l == i {
			return true
		}
	}
	return false
}

// LargestNode returns the highlighted node dominating the most tokens, or
// nil when only tokens are highlighted.
func (h Highlight) LargestNode() *Tree {
	var best *Tree
	bestLen := -1
	for _, n := range h.Nodes {
		if l := len(n.Leaves()); l > bestLen {
			best, bestLen = n, l
		}
	}
	return best
}

// HighlightSubtree highlights n together with everything it dominates.
func HighlightSubtree(n *Tree) Highlight {
	if n == nil {
		return Highlight{}
	}
	return Highlight{Nodes: n.Subtrees(), Leaves: n.Leaves()}
}

// HighlightRefs highlights the nodes of t whose SourceID is in ids plus
// the given token indices.
func HighlightRefs(t *Tree, ids map[string]bool, leaves []int) Highlight {
	h := Highlight{Leaves: leaves}
	for _, n := range t.Subtrees() {
		if n.SourceID != "" && ids[n.SourceID] {
			h.Nodes = append(h.Nodes, n)
		}
	}
	return h
}
