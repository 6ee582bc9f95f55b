package treebank

import "regexp"

var splitLabel = regexp.MustCompile(`^(.+)\*[0-9]+$`)

// MergeDiscNodes joins the parts of discontinuous constituents. Sibling
// nodes labeled "X*1", "X*2", ... become a single node X at the position
// of the first part, with the parts' children ordered by token index.
// Split preterminals become children of a new node X.
func MergeDiscNodes(t *Tree) *Tree {
	if t == nil || t.IsPreterminal() {
		return t
	}
	for _, c := range t.Children {
		MergeDiscNodes(c)
	}

	// base label -> position of the first part in kept
	merged := make(map[string]int)
	kept := t.Children[:0]
	for _, c := range t.Children {
		m := splitLabel.FindStringSubmatch(c.Label)
		if m == nil {
			kept = append(kept, c)
			continue
		}
		base := m[1]
		c.Label = base
		i, ok := merged[base]
		if !ok {
			merged[base] = len(kept)
			kept = append(kept, c)
			continue
		}
		first := kept[i]
		if first.IsPreterminal() {
			first = NewNode(base, first)
			kept[i] = first
		}
		if c.IsPreterminal() {
			first.Children = append(first.Children, c)
		} else {
			first.Children = append(first.Children, c.Children...)
		}
	}
	t.Children = kept

	for _, i := range merged {
		if n := kept[i]; !n.IsPreterminal() {
			sortByFirstLeaf(n.Children)
		}
	}
	return t
}
