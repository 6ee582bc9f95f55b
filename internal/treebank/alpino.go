package treebank

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/standardbeagle/treesearch/internal/errors"
)

// AlpinoOptions controls how labels are built from Alpino attributes.
type AlpinoOptions struct {
	// Functions appends the dependency relation: "NP-SU".
	Functions bool
	// Morphology replaces preterminal labels with the full postag.
	Morphology bool
}

type alpinoDoc struct {
	XMLName  xml.Name    `xml:"alpino_ds"`
	Node     *alpinoNode `xml:"node"`
	Sentence string      `xml:"sentence"`
}

type alpinoNode struct {
	Attrs    []xml.Attr    `xml:",any,attr"`
	Children []*alpinoNode `xml:"node"`
}

func (n *alpinoNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// FromAlpino converts an Alpino XML document into a tree and its tokens.
// Nodes keep their "id" attribute as SourceID; words are indexed by their
// "begin" attribute.
func FromAlpino(data []byte, opts AlpinoOptions) (*Tree, []string, error) {
	var doc alpinoDoc
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, nil, errors.NewParseError("", 0, string(data), err)
	}
	if doc.Node == nil {
		return nil, nil, errors.NewParseError("", 0, string(data), fmt.Errorf("document has no root node"))
	}

	tokens := strings.Fields(doc.Sentence)
	tree, err := convertAlpino(doc.Node, opts, &tokens)
	if err != nil {
		return nil, nil, err
	}
	if tree == nil {
		return nil, nil, errors.NewParseError("", 0, string(data), fmt.Errorf("document has no words"))
	}
	return tree, tokens, nil
}

func convertAlpino(n *alpinoNode, opts AlpinoOptions, tokens *[]string) (*Tree, error) {
	var t *Tree
	switch {
	case len(n.Children) > 0:
		var children []*Tree
		for _, c := range n.Children {
			child, err := convertAlpino(c, opts, tokens)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			return nil, nil
		}
		sortByFirstLeaf(children)
		t = NewNode(strings.ToUpper(firstNonEmpty(n.attr("cat"), n.attr("pos"), "--")), children...)
	case n.attr("word") != "":
		begin, err := strconv.Atoi(n.attr("begin"))
		if err != nil || begin < 0 {
			return nil, errors.NewParseError("", 0, n.attr("word"), fmt.Errorf("invalid begin attribute %q", n.attr("begin")))
		}
		for len(*tokens) <= begin {
			*tokens = append(*tokens, "")
		}
		(*tokens)[begin] = n.attr("word")

		label := strings.ToUpper(firstNonEmpty(n.attr("pos"), n.attr("pt"), "--"))
		if opts.Morphology {
			label = firstNonEmpty(n.attr("postag"), n.attr("frame"), label)
		}
		t = NewPreterminal(label, begin)
	default:
		// co-indexed empty node
		return nil, nil
	}

	t.SourceID = n.attr("id")
	if rel := n.attr("rel"); opts.Functions && rel != "" && rel != "--" && rel != "top" {
		t.Label += "-" + strings.ToUpper(rel)
	}
	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AlpinoSentence returns the text of the <sentence> element.
func AlpinoSentence(data []byte) (string, error) {
	var doc alpinoDoc
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return "", errors.NewParseError("", 0, string(data), err)
	}
	return strings.TrimSpace(doc.Sentence), nil
}

// MatchRefs lists what an XML match fragment points at: the begin index of
// every word node and the id of every node.
func MatchRefs(fragment []byte) (leaves []int, ids map[string]bool, err error) {
	ids = make(map[string]bool)
	seen := make(map[int]bool)
	dec := xml.NewDecoder(bytes.NewReader(fragment))
	for {
		tok, tokErr := dec.Token()
		if tokErr != nil {
			if tokErr == io.EOF {
				break
			}
			return nil, nil, errors.NewParseError("", 0, string(fragment), tokErr)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var word, begin string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "id":
				ids[a.Value] = true
			case "word":
				word = a.Value
			case "begin":
				begin = a.Value
			}
		}
		if word == "" || begin == "" {
			continue
		}
		if b, convErr := strconv.Atoi(begin); convErr == nil && !seen[b] {
			seen[b] = true
			leaves = append(leaves, b)
		}
	}
	sort.Ints(leaves)
	return leaves, ids, nil
}
