// Package regex searches plain-text corpora, one sentence per non-empty
// line, with regular expressions.
package regex

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/standardbeagle/treesearch/internal/cache"
	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/lineindex"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
)

// Kind is the backend name.
const Kind = "regex"

const patternCacheSize = 64

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Backend implements interfaces.Backend for plain-text files.
type Backend struct {
	macros   map[string]string
	files    map[string]*fileState
	patterns *cache.FIFO[string, *regexp.Regexp]
}

// fileState holds the lazily built line index of one file.
type fileState struct {
	mu sync.Mutex
	ix *lineindex.Index
}

// New creates a backend over files. macrosPath may be empty.
func New(files []string, macrosPath string) (*Backend, error) {
	b := &Backend{
		macros:   map[string]string{},
		files:    make(map[string]*fileState, len(files)),
		patterns: cache.NewFIFO[string, *regexp.Regexp](patternCacheSize),
	}
	for _, f := range files {
		b.files[f] = &fileState{}
	}
	if macrosPath != "" {
		m, err := LoadMacros(macrosPath)
		if err != nil {
			return nil, err
		}
		b.macros = m
	}
	return b, nil
}

// LoadMacros reads name=pattern lines. Blank lines and lines without '='
// are skipped.
func LoadMacros(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError("read macros", path, err)
	}
	defer f.Close()

	macros := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name, pattern, ok := strings.Cut(scanner.Text(), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		macros[strings.TrimSpace(name)] = strings.TrimRight(pattern, "\r\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewFileError("read macros", path, err)
	}
	return macros, nil
}

func (b *Backend) Kind() string { return Kind }

// Close is a no-op; files are read per query.
func (b *Backend) Close() error { return nil }

// Expand substitutes {name} placeholders with their macro. Placeholders
// without a definition are left as they are.
func (b *Backend) Expand(query string) string {
	return placeholder.ReplaceAllStringFunc(query, func(ref string) string {
		if p, ok := b.macros[ref[1:len(ref)-1]]; ok {
			return p
		}
		return ref
	})
}

func (b *Backend) compile(query string) (*regexp.Regexp, error) {
	expanded := b.Expand(query)
	if re, ok := b.patterns.Get(expanded); ok {
		return re, nil
	}
	re, err := regexp.Compile(expanded)
	if err != nil {
		return nil, errors.NewSearchError(query, err)
	}
	b.patterns.Set(expanded, re)
	return re, nil
}

// load reads file and returns its contents with an up-to-date line index.
func (b *Backend) load(file string) ([]byte, *lineindex.Index, error) {
	st, ok := b.files[file]
	if !ok {
		return nil, nil, errors.NewFileError("open", file, os.ErrNotExist)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, errors.NewFileError("read", file, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ix == nil || st.ix.Fingerprint() != lineindex.Fingerprint(data) {
		ix, err := lineindex.Build(data)
		if err != nil {
			return nil, nil, errors.NewFileError("index", file, err)
		}
		debug.LogBackend("regex: indexed %s (%d sentences)", file, ix.Sentences())
		st.ix = ix
	}
	return data, st.ix, nil
}

// lineMatch is one regex match located within its line.
type lineMatch struct {
	sentNo     int // 1-based
	line       []byte
	start, end int // offsets within line
}

// query runs query over file, calling fn for each match in corpus order.
// maxResults caps matches; limit stops at the first match beyond sentence
// limit. Zero disables either bound.
func (b *Backend) query(ctx context.Context, file, query string, maxResults, limit int, fn func(lineMatch)) error {
	re, err := b.compile(query)
	if err != nil {
		return err
	}
	data, ix, err := b.load(file)
	if err != nil {
		return err
	}

	n := -1
	if maxResults > 0 {
		n = maxResults
	}
	for i, loc := range re.FindAllIndex(data, n) {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		lineno := ix.Rank(loc[0])
		if limit > 0 && lineno+1 > limit {
			break
		}
		offset, next := ix.Span(lineno)
		fn(lineMatch{
			sentNo: lineno + 1,
			line:   data[offset:next],
			start:  loc[0] - offset,
			end:    loc[1] - offset,
		})
	}
	return nil
}

// Count returns the number of matches in file.
func (b *Backend) Count(ctx context.Context, file, query string, p searchtypes.CountParams) (searchtypes.FileCount, error) {
	result := searchtypes.FileCount{File: file}
	if p.Indices {
		result.Indices = make(map[int]int)
	}
	err := b.query(ctx, file, query, 0, p.Limit, func(m lineMatch) {
		result.Count++
		if p.Indices {
			result.Indices[m.sentNo]++
		}
	})
	if err != nil {
		return searchtypes.FileCount{}, err
	}
	return result, nil
}

// Sents returns matching lines with the indices of the matched tokens.
func (b *Backend) Sents(ctx context.Context, file, query string, p searchtypes.SentsParams) ([]searchtypes.SentMatch, error) {
	if p.Brackets {
		return nil, errors.NewUnsupportedError(Kind, "sents with brackets")
	}
	var results []searchtypes.SentMatch
	err := b.query(ctx, file, query, p.MaxResults, 0, func(m lineMatch) {
		results = append(results, searchtypes.SentMatch{
			File:      file,
			SentNo:    m.sentNo,
			Sentence:  strings.TrimFunc(string(m.line), isSpace),
			Highlight: overlappingTokens(m.line, m.start, m.end),
		})
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Trees is not available for plain text.
func (b *Backend) Trees(ctx context.Context, file, query string, p searchtypes.TreesParams) ([]searchtypes.TreeMatch, error) {
	return nil, errors.NewUnsupportedError(Kind, "trees")
}

// Extract returns the non-empty lines of sentences [start, end).
func (b *Backend) Extract(ctx context.Context, file string, start, end int, p searchtypes.ExtractParams) ([]searchtypes.Extracted, error) {
	if !p.Sents {
		return nil, errors.NewUnsupportedError(Kind, "extract of trees")
	}
	data, ix, err := b.load(file)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	from, to := ix.LineStart(start), ix.LineStart(end)
	if from >= to {
		return nil, nil
	}

	var results []searchtypes.Extracted
	for _, line := range bytes.Split(data[from:to], []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		results = append(results, searchtypes.Extracted{Sentence: string(line)})
	}
	return results, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

// overlappingTokens returns the indices of the whitespace-delimited tokens
// of line that overlap [start, end). An empty match selects the token it
// falls in.
func overlappingTokens(line []byte, start, end int) []int {
	var out []int
	idx := 0
	for i := 0; i < len(line); {
		if isSpace(rune(line[i])) {
			i++
			continue
		}
		j := i
		for j < len(line) && !isSpace(rune(line[j])) {
			j++
		}
		overlaps := i < end && j > start
		if start == end {
			overlaps = i <= start && start < j
		}
		if overlaps {
			out = append(out, idx)
		}
		idx++
		i = j
	}
	return out
}
