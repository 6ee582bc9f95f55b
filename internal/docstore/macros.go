package docstore

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/standardbeagle/treesearch/internal/errors"
)

var (
	macroDef = regexp.MustCompile(`(?s)([\p{L}\p{N}_.-]+)\s*=\s*"""(.*?)"""`)
	macroRef = regexp.MustCompile(`%([\p{L}\p{N}_.-]+)%`)
)

// Macros maps macro names to XPath fragments.
type Macros map[string]string

// LoadMacros reads definitions of the form name = """expr""" from path.
func LoadMacros(path string) (Macros, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError("read macros", path, err)
	}
	return ParseMacros(string(data)), nil
}

// ParseMacros parses macro definitions; text outside definitions is ignored.
func ParseMacros(text string) Macros {
	m := make(Macros)
	for _, def := range macroDef.FindAllStringSubmatch(text, -1) {
		m[def[1]] = strings.TrimSpace(def[2])
	}
	return m
}

// Expand replaces every %name% in query with its definition, recursively.
// Unknown names are left untouched; a macro that refers to itself is an
// error.
func (m Macros) Expand(query string) (string, error) {
	return m.expand(query, nil)
}

func (m Macros) expand(query string, stack []string) (string, error) {
	var firstErr error
	out := macroRef.ReplaceAllStringFunc(query, func(ref string) string {
		if firstErr != nil {
			return ref
		}
		name := ref[1 : len(ref)-1]
		def, ok := m[name]
		if !ok {
			return ref
		}
		for _, s := range stack {
			if s == name {
				firstErr = fmt.Errorf("macro %%%s%% is recursive (%s)", name, strings.Join(append(stack, name), " -> "))
				return ref
			}
		}
		expanded, err := m.expand(def, append(stack[:len(stack):len(stack)], name))
		if err != nil {
			firstErr = err
			return ref
		}
		return expanded
	})
	if firstErr != nil {
		return "", errors.NewSearchError(query, firstErr)
	}
	return out, nil
}
