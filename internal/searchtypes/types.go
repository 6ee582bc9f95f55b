package searchtypes

import (
	"encoding/json"

	"github.com/standardbeagle/treesearch/internal/treebank"
)

// SentMatch is one matching sentence.
type SentMatch struct {
	File   string `json:"file"`
	SentNo int    `json:"sentno"` // 1-based
	// Sentence is the tokenized sentence, or the raw bracketed tree or
	// document in bracket mode.
	Sentence string `json:"sentence"`
	// Highlight holds matched token indices (token mode).
	Highlight []int `json:"highlight,omitempty"`
	// Match holds the literal matched text (bracket mode).
	Match string `json:"match,omitempty"`
}

// TreeMatch is one matching tree with its highlighted fragment.
type TreeMatch struct {
	File      string
	SentNo    int
	Tree      *treebank.Tree
	Tokens    []string
	Highlight treebank.Highlight
}

type treeMatchJSON struct {
	File      string   `json:"file"`
	SentNo    int      `json:"sentno"`
	Tree      string   `json:"tree"`
	Tokens    []string `json:"tokens"`
	Highlight []int    `json:"highlight,omitempty"`
	Match     string   `json:"match,omitempty"`
}

// MarshalJSON renders the tree in bracket notation with its words, and the
// largest highlighted node as "match".
func (m TreeMatch) MarshalJSON() ([]byte, error) {
	out := treeMatchJSON{
		File:      m.File,
		SentNo:    m.SentNo,
		Tokens:    m.Tokens,
		Highlight: m.Highlight.Leaves,
	}
	if m.Tree != nil {
		out.Tree = m.Tree.Bracket(m.Tokens)
	}
	if n := m.Highlight.LargestNode(); n != nil {
		out.Match = n.Bracket(m.Tokens)
	}
	return json.Marshal(out)
}

// FileCount is the number of matches in one file.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
	// Indices maps 1-based sentence numbers to their match count; only
	// filled when requested.
	Indices map[int]int `json:"indices,omitempty"`
}

// Extracted is one record read by position. Sentence is set instead of
// Tree and Tokens when plain sentences were requested.
type Extracted struct {
	Tree     *treebank.Tree `json:"-"`
	Tokens   []string       `json:"tokens,omitempty"`
	Sentence string         `json:"sentence,omitempty"`
}

// MarshalJSON includes the tree in bracket notation when present.
func (e Extracted) MarshalJSON() ([]byte, error) {
	type plain Extracted
	out := struct {
		plain
		Tree string `json:"tree,omitempty"`
	}{plain: plain(e)}
	if e.Tree != nil {
		out.Tree = e.Tree.Bracket(e.Tokens)
	}
	return json.Marshal(out)
}

// CountParams are the per-file parameters of a count query.
type CountParams struct {
	// Limit restricts the scan to sentences 1..Limit; 0 scans everything.
	Limit   int
	Indices bool
}

// SentsParams are the per-file parameters of a sentence query.
type SentsParams struct {
	// MaxResults caps matches; 0 returns all of them.
	MaxResults int
	Brackets   bool
}

// TreesParams are the per-file parameters of a tree query.
type TreesParams struct {
	MaxResults int
	NoFunc     bool
	NoMorph    bool
}

// ExtractParams select what Extract returns.
type ExtractParams struct {
	NoFunc  bool
	NoMorph bool
	Sents   bool
}
