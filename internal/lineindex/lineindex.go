// Package lineindex maps byte offsets in a plain-text corpus to sentence
// numbers and back. Sentences are the non-empty lines of the file.
//
// The index stores, for every non-empty line, the offset just past its line
// terminator(s) in a compressed bitmap. Rank and Select on that bitmap give
// offset→line and line→offset lookups.
package lineindex

import (
	"fmt"
	"math"
	"regexp"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
)

// boundaryPattern matches the end of a non-empty line together with any
// blank lines that follow it.
var boundaryPattern = regexp.MustCompile(`[^ \t\n\r][ \t]*[\r\n]+`)

// Index is an immutable line index over one file's contents.
type Index struct {
	bm          *roaring.Bitmap
	size        int
	fingerprint uint64
	trailing    bool // non-empty text after the last boundary
}

// Build scans data once and returns its line index.
func Build(data []byte) (*Index, error) {
	if len(data) > math.MaxUint32 {
		return nil, fmt.Errorf("lineindex: file of %d bytes exceeds the 4GiB offset limit", len(data))
	}

	bm := roaring.New()
	last := 0
	for _, loc := range boundaryPattern.FindAllIndex(data, -1) {
		bm.Add(uint32(loc[1]))
		last = loc[1]
	}
	bm.RunOptimize()

	trailing := false
	for _, b := range data[last:] {
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			trailing = true
			break
		}
	}

	return &Index{
		bm:          bm,
		size:        len(data),
		fingerprint: Fingerprint(data),
		trailing:    trailing,
	}, nil
}

// Fingerprint returns the content hash used to detect a changed file.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Fingerprint returns the hash of the contents the index was built from.
func (ix *Index) Fingerprint() uint64 {
	return ix.fingerprint
}

// Len returns the number of line boundaries.
func (ix *Index) Len() int {
	return int(ix.bm.GetCardinality())
}

// Sentences returns the number of non-empty lines, including a final line
// that lacks a terminator.
func (ix *Index) Sentences() int {
	n := ix.Len()
	if ix.trailing {
		n++
	}
	return n
}

// Size returns the length of the indexed contents in bytes.
func (ix *Index) Size() int {
	return ix.size
}

// Rank returns the number of boundaries <= offset, i.e. the 0-based line
// containing offset.
func (ix *Index) Rank(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > math.MaxUint32 {
		offset = math.MaxUint32
	}
	return int(ix.bm.Rank(uint32(offset)))
}

// Select returns the n-th boundary (0-based): the offset just past line n.
func (ix *Index) Select(n int) (int, bool) {
	if n < 0 || n >= ix.Len() {
		return 0, false
	}
	v, err := ix.bm.Select(uint32(n))
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// LineStart returns the offset at which 0-based line n begins. Lines past
// the last boundary start at the end of the contents.
func (ix *Index) LineStart(n int) int {
	if n <= 0 {
		return 0
	}
	if off, ok := ix.Select(n - 1); ok {
		return off
	}
	return ix.size
}

// LineEnd returns the offset just past 0-based line n, including its
// terminator.
func (ix *Index) LineEnd(n int) int {
	if off, ok := ix.Select(n); ok {
		return off
	}
	return ix.size
}

// Span returns [start, end) of 0-based line n.
func (ix *Index) Span(n int) (int, int) {
	return ix.LineStart(n), ix.LineEnd(n)
}
