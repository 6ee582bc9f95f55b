package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/standardbeagle/treesearch/internal/metrics"
	"github.com/standardbeagle/treesearch/internal/search"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
	"github.com/standardbeagle/treesearch/pkg/pathutil"
)

type outputMode struct {
	onlyMatching bool
	lineNumbers  bool
	brackets     bool
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *session) rel(file string) string {
	return pathutil.ToRelative(file, s.cwd)
}

func (s *session) printCounts(w io.Writer, counts []searchtypes.FileCount) error {
	counts = pathutil.ToRelativeCounts(counts, s.cwd)
	if s.cfg.Output.JSON {
		return writeJSON(w, counts)
	}

	total := 0
	for _, fc := range counts {
		total += fc.Count
		fmt.Fprintf(w, "%s:%d", fc.File, fc.Count)
		if len(fc.Indices) > 0 {
			sentNos := make([]int, 0, len(fc.Indices))
			for n := range fc.Indices {
				sentNos = append(sentNos, n)
			}
			sort.Ints(sentNos)
			parts := make([]string, len(sentNos))
			for i, n := range sentNos {
				parts[i] = fmt.Sprintf("%d", n)
				if k := fc.Indices[n]; k > 1 {
					parts[i] += fmt.Sprintf("x%d", k)
				}
			}
			fmt.Fprintf(w, "\t%s", strings.Join(parts, " "))
		}
		fmt.Fprintln(w)
	}
	if len(counts) > 1 {
		fmt.Fprintf(w, "total:%d\n", total)
	}
	return nil
}

func (s *session) printSents(w io.Writer, sents []searchtypes.SentMatch, mode outputMode) error {
	sents = pathutil.ToRelativeSents(sents, s.cwd)
	if s.cfg.Output.JSON {
		return writeJSON(w, sents)
	}

	for _, m := range sents {
		text := m.Sentence
		switch {
		case mode.onlyMatching && mode.brackets:
			text = m.Match
		case mode.onlyMatching:
			text = selectTokens(m.Sentence, m.Highlight)
		}
		if mode.lineNumbers {
			fmt.Fprintf(w, "%s:%d:", m.File, m.SentNo)
		}
		fmt.Fprintln(w, text)
	}
	return nil
}

// selectTokens returns the tokens of sentence at indices, space separated.
func selectTokens(sentence string, indices []int) string {
	tokens := strings.Fields(sentence)
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(tokens) {
			out = append(out, tokens[i])
		}
	}
	return strings.Join(out, " ")
}

func (s *session) printTrees(w io.Writer, trees []searchtypes.TreeMatch, mode outputMode) error {
	trees = pathutil.ToRelativeTrees(trees, s.cwd)
	if s.cfg.Output.JSON {
		return writeJSON(w, trees)
	}

	for _, m := range trees {
		if m.Tree == nil {
			continue
		}
		text := m.Tree.Bracket(m.Tokens)
		if mode.onlyMatching {
			if n := m.Highlight.LargestNode(); n != nil {
				text = n.Bracket(m.Tokens)
			}
		}
		if mode.lineNumbers {
			fmt.Fprintf(w, "%s:%d:", m.File, m.SentNo)
		}
		fmt.Fprintln(w, text)
	}
	return nil
}

func (s *session) printExtracted(w io.Writer, items []searchtypes.Extracted) error {
	if s.cfg.Output.JSON {
		return writeJSON(w, items)
	}
	for _, it := range items {
		if it.Tree != nil {
			fmt.Fprintln(w, it.Tree.Bracket(it.Tokens))
		} else {
			fmt.Fprintln(w, it.Sentence)
		}
	}
	return nil
}

func (s *session) printBatch(w io.Writer, queries []string, rows []search.BatchRow) error {
	for i := range rows {
		rows[i].File = s.rel(rows[i].File)
	}
	if s.cfg.Output.JSON {
		return writeJSON(w, map[string]interface{}{"queries": queries, "rows": rows})
	}

	fmt.Fprintf(w, "file\t%s\n", strings.Join(queries, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row.Counts))
		for i, n := range row.Counts {
			cells[i] = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(w, "%s\t%s\n", row.File, strings.Join(cells, "\t"))
	}
	return nil
}

func printStats(w io.Writer, rec *metrics.Recorder) {
	snapshot, err := rec.Snapshot()
	if err != nil {
		fmt.Fprintf(w, "stats unavailable: %v\n", err)
		return
	}
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s %g\n", name, snapshot[name])
	}
}
