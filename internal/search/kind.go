package search

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/treesearch/internal/backend/regex"
	"github.com/standardbeagle/treesearch/internal/backend/tgrep"
	"github.com/standardbeagle/treesearch/internal/backend/xpath"
	"github.com/standardbeagle/treesearch/internal/errors"
)

// Kind selects the backend an Engine queries with.
type Kind int

const (
	KindTgrep Kind = iota
	KindXPath
	KindRegex
)

var kindNames = map[Kind]string{
	KindTgrep: tgrep.Kind,
	KindXPath: xpath.Kind,
	KindRegex: regex.Kind,
}

// KindNames lists the accepted engine names.
func KindNames() []string {
	return []string{tgrep.Kind, xpath.Kind, regex.Kind}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps an engine name to its Kind. Unknown names produce a
// ConfigError with a suggestion when one is close enough.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case tgrep.Kind, "tgrep":
		return KindTgrep, nil
	case xpath.Kind, "dact":
		return KindXPath, nil
	case regex.Kind, "re":
		return KindRegex, nil
	}
	err := errors.NewConfigError("engine", name, fmt.Errorf("unknown engine; expected one of %s", strings.Join(KindNames(), ", ")))
	if s := closestMatch(normalized, KindNames(), 3); s != "" {
		err = err.WithSuggestion(s)
	}
	return 0, err
}

// closestMatch returns the candidate with the smallest Levenshtein distance
// to input, if that distance is at most maxDistance.
func closestMatch(input string, candidates []string, maxDistance int) string {
	best, bestDistance := "", maxDistance+1
	for _, c := range candidates {
		if d := edlib.LevenshteinDistance(input, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
