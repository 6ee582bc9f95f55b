// Package xpath queries Alpino XML corpora kept in document stores with
// XPath expressions.
package xpath

import (
	"context"

	xpathlib "github.com/antchfx/xpath"
	"github.com/hashicorp/go-multierror"

	"github.com/standardbeagle/treesearch/internal/cache"
	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/docstore"
	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
	"github.com/standardbeagle/treesearch/internal/treebank"
)

// Kind is the backend name.
const Kind = "xpath"

const exprCacheSize = 64

// Backend implements interfaces.Backend over document stores.
type Backend struct {
	stores map[string]*docstore.Store
	macros docstore.Macros
	exprs  *cache.FIFO[string, *xpathlib.Expr]
}

// New opens a document store for every file. macrosPath may be empty.
func New(files []string, macrosPath string) (*Backend, error) {
	b := &Backend{
		stores: make(map[string]*docstore.Store, len(files)),
		exprs:  cache.NewFIFO[string, *xpathlib.Expr](exprCacheSize),
	}
	if macrosPath != "" {
		m, err := docstore.LoadMacros(macrosPath)
		if err != nil {
			return nil, errors.NewConfigError("macros", macrosPath, err)
		}
		b.macros = m
	}
	for _, f := range files {
		s, err := docstore.Open(f)
		if err != nil {
			b.Close()
			return nil, errors.NewConfigError("corpus", f, err)
		}
		b.stores[f] = s
	}
	return b, nil
}

func (b *Backend) Kind() string { return Kind }

// Close closes every store.
func (b *Backend) Close() error {
	var result *multierror.Error
	for f, s := range b.stores {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, errors.NewFileError("close", f, err))
		}
	}
	return result.ErrorOrNil()
}

func (b *Backend) store(file string) (*docstore.Store, error) {
	s, ok := b.stores[file]
	if !ok {
		return nil, errors.NewFileError("open", file, errNotOpen)
	}
	return s, nil
}

func (b *Backend) compile(query string) (*xpathlib.Expr, error) {
	if expr, ok := b.exprs.Get(query); ok {
		return expr, nil
	}
	expanded := query
	if b.macros != nil {
		var err error
		if expanded, err = b.macros.Expand(query); err != nil {
			return nil, err
		}
	}
	expr, err := docstore.CompileQuery(expanded)
	if err != nil {
		return nil, err
	}
	b.exprs.Set(query, expr)
	return expr, nil
}

// query evaluates query over file in corpus order. fn returning false
// ends the scan. A positive limit stops at the first entry beyond it.
func (b *Backend) query(ctx context.Context, file, query string, limit int, fn func(sentNo int, e docstore.Entry) (bool, error)) error {
	s, err := b.store(file)
	if err != nil {
		return err
	}
	expr, err := b.compile(query)
	if err != nil {
		return err
	}
	for e, err := range s.Query(ctx, expr) {
		if err != nil {
			return err
		}
		sentNo := e.SentNo()
		if limit > 0 && sentNo > limit {
			break
		}
		more, err := fn(sentNo, e)
		if err != nil {
			return err
		}
		if !more {
			debug.LogBackend("xpath: stopped %s after entry %s", file, e.Name)
			break
		}
	}
	return nil
}

// Count returns the number of matching nodes in file.
func (b *Backend) Count(ctx context.Context, file, query string, p searchtypes.CountParams) (searchtypes.FileCount, error) {
	result := searchtypes.FileCount{File: file}
	if p.Indices {
		result.Indices = make(map[int]int)
	}
	err := b.query(ctx, file, query, p.Limit, func(sentNo int, _ docstore.Entry) (bool, error) {
		result.Count++
		if p.Indices {
			result.Indices[sentNo]++
		}
		return true, nil
	})
	if err != nil {
		return searchtypes.FileCount{}, err
	}
	return result, nil
}

// Sents returns the sentence of each match with the matched word
// positions, or the raw document and match XML in bracket mode.
func (b *Backend) Sents(ctx context.Context, file, query string, p searchtypes.SentsParams) ([]searchtypes.SentMatch, error) {
	var results []searchtypes.SentMatch
	err := b.query(ctx, file, query, 0, func(sentNo int, e docstore.Entry) (bool, error) {
		m := searchtypes.SentMatch{File: file, SentNo: sentNo}
		if p.Brackets {
			m.Sentence, m.Match = string(e.Document), string(e.Contents)
		} else {
			sent, err := treebank.AlpinoSentence(e.Document)
			if err != nil {
				return false, withLocation(err, file, sentNo)
			}
			leaves, _, err := treebank.MatchRefs(e.Contents)
			if err != nil {
				return false, withLocation(err, file, sentNo)
			}
			m.Sentence, m.Highlight = sent, leaves
		}
		results = append(results, m)
		return p.MaxResults <= 0 || len(results) < p.MaxResults, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Trees converts each matching document to a tree and highlights the
// matched nodes and words.
func (b *Backend) Trees(ctx context.Context, file, query string, p searchtypes.TreesParams) ([]searchtypes.TreeMatch, error) {
	opts := treebank.AlpinoOptions{Functions: !p.NoFunc, Morphology: !p.NoMorph}
	var results []searchtypes.TreeMatch
	err := b.query(ctx, file, query, 0, func(sentNo int, e docstore.Entry) (bool, error) {
		tree, tokens, err := treebank.FromAlpino(e.Document, opts)
		if err != nil {
			return false, withLocation(err, file, sentNo)
		}
		leaves, ids, err := treebank.MatchRefs(e.Contents)
		if err != nil {
			return false, withLocation(err, file, sentNo)
		}
		results = append(results, searchtypes.TreeMatch{
			File:      file,
			SentNo:    sentNo,
			Tree:      tree,
			Tokens:    tokens,
			Highlight: treebank.HighlightRefs(tree, ids, leaves),
		})
		return p.MaxResults <= 0 || len(results) < p.MaxResults, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Extract reads documents [start, end) by position.
func (b *Backend) Extract(ctx context.Context, file string, start, end int, p searchtypes.ExtractParams) ([]searchtypes.Extracted, error) {
	s, err := b.store(file)
	if err != nil {
		return nil, err
	}
	n, err := s.Len(ctx)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}

	opts := treebank.AlpinoOptions{Functions: !p.NoFunc, Morphology: !p.NoMorph}
	var results []searchtypes.Extracted
	for i := start; i < end; i++ {
		doc, err := s.Read(ctx, docstore.EntryName(i+1))
		if err != nil {
			return nil, err
		}
		if p.Sents {
			sent, err := treebank.AlpinoSentence(doc)
			if err != nil {
				return nil, withLocation(err, file, i+1)
			}
			results = append(results, searchtypes.Extracted{Sentence: sent})
			continue
		}
		tree, tokens, err := treebank.FromAlpino(doc, opts)
		if err != nil {
			return nil, withLocation(err, file, i+1)
		}
		results = append(results, searchtypes.Extracted{Tree: tree, Tokens: tokens})
	}
	return results, nil
}
