package treebank

import (
	"regexp"
	"strings"
)

// AbbrPOS abbreviates Alpino part-of-speech tags when morphology is removed.
var AbbrPOS = map[string]string{
	"PUNCT":          "PUNCT",
	"COMPLEMENTIZER": "COMP",
	"PROPER_NAME":    "NAME",
	"PREPOSITION":    "PREP",
	"PRONOUN":        "PRON",
	"DETERMINER":     "DET",
	"ADJECTIVE":      "ADJ",
	"ADVERB":         "ADV",
	"HET_NOUN":       "HET",
	"NUMBER":         "NUM",
	"PARTICLE":       "PRT",
	"ARTICLE":        "ART",
	"NOUN":           "NN",
	"VERB":           "VB",
}

var (
	// a label directly after '(' followed by one or more -FUNC suffixes
	funcTags = regexp.MustCompile(`\(([^\s()-]+)(?:-[\p{L}\p{N}_]+)+`)
	// TAG[morph] optionally followed by -FUNC and *n, then a space
	morphTags = regexp.MustCompile(`([/*\p{L}\p{N}_]+)(?:\[[^ ]*\][0-9]?)?((?:-[\p{L}\p{N}_]+)?(?:\*[0-9]+)? )`)
)

// FilterLabels removes grammatical function tags and/or morphological
// features from the labels of bracketed trees.
func FilterLabels(line string, noFunc, noMorph bool) string {
	if noFunc {
		line = funcTags.ReplaceAllString(line, "($1")
	}
	if noMorph {
		line = replaceSubmatchFunc(morphTags, line, func(m []string) string {
			tag := m[1]
			if abbr, ok := AbbrPOS[tag]; ok {
				tag = abbr
			}
			return tag + m[2]
		})
	}
	return line
}

func replaceSubmatchFunc(re *regexp.Regexp, s string, fn func([]string) string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		sb.WriteString(s[last:loc[0]])
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		sb.WriteString(fn(groups))
		last = loc[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// LeafTokens returns the terminals of a bracketed tree fragment: words
// preceded by a space and followed by a space or a closing bracket.
func LeafTokens(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			continue
		}
		j := i + 1
		for j < len(s) && s[j] != ' ' && s[j] != '(' && s[j] != ')' {
			j++
		}
		if j == i+1 || j == len(s) {
			continue
		}
		if s[j] == ' ' || s[j] == ')' {
			out = append(out, s[i+1:j])
		}
		i = j - 1
	}
	return out
}
