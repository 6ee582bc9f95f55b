package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/treesearch/internal/debug"
)

// parseKDL reads a .treesearch.kdl document on top of the defaults:
//
//	engine "xpath"
//	corpora "wsj/*.mrg" "extra.mrg"
//	macros "macros.txt"
//	numthreads 4
//	cache_size 2048
//	tgrep { binary "/opt/tgrep2/tgrep2"; check_stale false }
//	limits { sents 50; trees 5 }
//	output { json true; line_numbers true }
func parseKDL(content string) (*Config, error) {
	cfg := Default("")

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch name := nodeName(n); name {
		case "engine":
			assignSimpleString(n, name, func(v string) { cfg.Engine = v })
		case "macros":
			assignSimpleString(n, name, func(v string) { cfg.Macros = v })
		case "root":
			assignSimpleString(n, name, func(v string) { cfg.Root = v })
		case "corpora", "corpus":
			cfg.Corpora = append(cfg.Corpora, collectStringArgs(n)...)
		case "numthreads":
			if v, ok := firstIntArg(n); ok {
				cfg.NumThreads = v
			}
		case "cache_size":
			if v, ok := firstIntArg(n); ok {
				cfg.CacheSize = v
			}
		case "tgrep":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "binary":
					assignSimpleString(cn, "binary", func(v string) { cfg.Tgrep.Binary = v })
				case "check_stale":
					if v, ok := firstBoolArg(cn); ok {
						cfg.Tgrep.CheckStale = v
					}
				}
			}
		case "limits":
			for _, cn := range n.Children {
				v, ok := firstIntArg(cn)
				if !ok {
					continue
				}
				switch nodeName(cn) {
				case "sents":
					cfg.Limits.Sents = v
				case "trees":
					cfg.Limits.Trees = v
				}
			}
		case "output":
			for _, cn := range n.Children {
				v, ok := firstBoolArg(cn)
				if !ok {
					continue
				}
				switch nodeName(cn) {
				case "json":
					cfg.Output.JSON = v
				case "line_numbers":
					cfg.Output.LineNumbers = v
				}
			}
		default:
			debug.Log("CONFIG", "ignoring unknown KDL node %q", name)
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs accepts both inline (corpora "a" "b") and block
// (corpora { "a"; "b" }) lists.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// in block form each string is a child node named by the value
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
