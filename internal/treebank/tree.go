// Package treebank holds the constituency tree model shared by all query
// backends, the bracket and Alpino readers, and label filters.
package treebank

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/standardbeagle/treesearch/internal/errors"
)

// Tree is a constituency tree node. Preterminals carry the index of their
// token in the sentence; internal nodes have Index == -1 and children.
type Tree struct {
	Label    string
	Children []*Tree
	Index    int
	// SourceID is the node identifier in the source document, if any.
	SourceID string
}

// NewNode creates an internal node.
func NewNode(label string, children ...*Tree) *Tree {
	return &Tree{Label: label, Children: children, Index: -1}
}

// NewPreterminal creates a node dominating the token at index.
func NewPreterminal(label string, index int) *Tree {
	return &Tree{Label: label, Index: index}
}

// IsPreterminal reports whether t directly dominates a token.
func (t *Tree) IsPreterminal() bool {
	return t.Index >= 0
}

// Subtrees returns t and all its descendants in preorder.
func (t *Tree) Subtrees() []*Tree {
	var out []*Tree
	t.walk(func(n *Tree) { out = append(out, n) })
	return out
}

func (t *Tree) walk(fn func(*Tree)) {
	fn(t)
	for _, c := range t.Children {
		c.walk(fn)
	}
}

// Leaves returns the token indices dominated by t, in tree order.
func (t *Tree) Leaves() []int {
	var out []int
	t.walk(func(n *Tree) {
		if n.IsPreterminal() {
			out = append(out, n.Index)
		}
	})
	return out
}

// minLeaf returns the smallest token index under t, or -1 without tokens.
func (t *Tree) minLeaf() int {
	min := -1
	for _, i := range t.Leaves() {
		if min == -1 || i < min {
			min = i
		}
	}
	return min
}

// String renders t in bracket notation with token indices as terminals.
func (t *Tree) String() string {
	var sb strings.Builder
	t.write(&sb, nil)
	return sb.String()
}

// Bracket renders t in bracket notation with the given tokens as terminals.
func (t *Tree) Bracket(tokens []string) string {
	var sb strings.Builder
	t.write(&sb, tokens)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder, tokens []string) {
	sb.WriteByte('(')
	sb.WriteString(t.Label)
	if t.IsPreterminal() {
		sb.WriteByte(' ')
		if tokens != nil && t.Index < len(tokens) {
			sb.WriteString(tokens[t.Index])
		} else {
			sb.WriteString(strconv.Itoa(t.Index))
		}
	}
	for _, c := range t.Children {
		sb.WriteByte(' ')
		c.write(sb, tokens)
	}
	sb.WriteByte(')')
}

var indexedLeaf = regexp.MustCompile(`^([0-9]+)=(.*)$`)

// Parse reads a tree in bracket notation and numbers its terminals.
// Terminals are numbered in order of appearance unless written as
// "n=word", in which case n is the token index. It returns the tree and
// the tokens indexed by terminal number.
func Parse(s string) (*Tree, []string, error) {
	p := &bracketParser{src: s, tokens: tokenize(s)}
	t, err := p.node()
	if err != nil {
		return nil, nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, nil, p.errorf("unexpected %q after tree", p.tokens[p.pos])
	}

	size := 0
	for i := range p.words {
		if i+1 > size {
			size = i + 1
		}
	}
	tokens := make([]string, size)
	for i, w := range p.words {
		tokens[i] = w
	}
	return t, tokens, nil
}

type bracketParser struct {
	src    string
	tokens []string
	pos    int
	next   int
	words  map[int]string
}

func tokenize(s string) []string {
	var out []string
	start := -1
	flush := func(i int) {
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', ')':
			flush(i)
			out = append(out, string(c))
		case ' ', '\t', '\n', '\r':
			flush(i)
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(s))
	return out
}

func (p *bracketParser) errorf(format string, args ...interface{}) error {
	return errors.NewParseError("", 0, p.src, fmt.Errorf(format, args...))
}

func (p *bracketParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *bracketParser) node() (*Tree, error) {
	if p.peek() != "(" {
		return nil, p.errorf("expected '(' at token %d", p.pos)
	}
	p.pos++

	label := ""
	if tok := p.peek(); tok != "(" && tok != ")" && tok != "" {
		label = tok
		p.pos++
	}

	var children []*Tree
	var terminal string
	hasTerminal := false
	for {
		switch tok := p.peek(); tok {
		case "":
			return nil, p.errorf("unbalanced brackets")
		case ")":
			p.pos++
			if hasTerminal {
				if len(children) > 0 {
					return nil, p.errorf("node %q mixes a terminal with subtrees", label)
				}
				return NewPreterminal(label, p.leaf(terminal)), nil
			}
			if len(children) == 0 {
				return nil, p.errorf("node %q has no children", label)
			}
			return NewNode(label, children...), nil
		case "(":
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		default:
			if hasTerminal {
				return nil, p.errorf("node %q has more than one terminal", label)
			}
			terminal, hasTerminal = tok, true
			p.pos++
		}
	}
}

// leaf assigns a token index to a terminal and records its word.
func (p *bracketParser) leaf(terminal string) int {
	if p.words == nil {
		p.words = make(map[int]string)
	}
	if m := indexedLeaf.FindStringSubmatch(terminal); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.words[n] = m[2]
			if n >= p.next {
				p.next = n + 1
			}
			return n
		}
	}
	n := p.next
	p.next++
	p.words[n] = terminal
	return n
}

// sortByFirstLeaf orders nodes by their leftmost token.
func sortByFirstLeaf(nodes []*Tree) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].minLeaf() < nodes[j].minLeaf()
	})
}
