// Package pathutil converts corpus paths between the absolute form the
// engine uses internally and the relative form shown to users.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/treesearch/internal/searchtypes"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Paths outside root, relative paths and failed conversions come back as given.
//
//   - ToRelative("/data/wsj/02.mrg", "/data") → "wsj/02.mrg"
//   - ToRelative("/other/x.mrg", "/data") → "/other/x.mrg"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" || !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}
	// outside the root the absolute path is clearer
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}
	return relPath
}

// ToRelativeCounts returns a copy of counts with relative file names.
func ToRelativeCounts(counts []searchtypes.FileCount, rootDir string) []searchtypes.FileCount {
	if len(counts) == 0 {
		return counts
	}
	converted := make([]searchtypes.FileCount, len(counts))
	copy(converted, counts)
	for i := range converted {
		converted[i].File = ToRelative(converted[i].File, rootDir)
	}
	return converted
}

// ToRelativeSents returns a copy of matches with relative file names.
func ToRelativeSents(matches []searchtypes.SentMatch, rootDir string) []searchtypes.SentMatch {
	if len(matches) == 0 {
		return matches
	}
	converted := make([]searchtypes.SentMatch, len(matches))
	copy(converted, matches)
	for i := range converted {
		converted[i].File = ToRelative(converted[i].File, rootDir)
	}
	return converted
}

// ToRelativeTrees returns a copy of matches with relative file names.
// Trees are shared with the input.
func ToRelativeTrees(matches []searchtypes.TreeMatch, rootDir string) []searchtypes.TreeMatch {
	if len(matches) == 0 {
		return matches
	}
	converted := make([]searchtypes.TreeMatch, len(matches))
	copy(converted, matches)
	for i := range converted {
		converted[i].File = ToRelative(converted[i].File, rootDir)
	}
	return converted
}
