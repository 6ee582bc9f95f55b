package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/treesearch/internal/config"
	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/metrics"
	"github.com/standardbeagle/treesearch/internal/search"
	"github.com/standardbeagle/treesearch/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "treesearch: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "treesearch",
		Usage:                  "Query treebanks and text corpora with tgrep2, xpath or regular expressions",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "engine",
				Aliases: []string{"e"},
				Usage:   "Query engine: tgrep2, xpath or regex (overrides config)",
			},
			&cli.StringFlag{
				Name:    "macros",
				Aliases: []string{"m"},
				Usage:   "Macro file for the selected engine",
			},
			&cli.IntFlag{
				Name:  "numthreads",
				Usage: "Files searched in parallel (1 = sequential, 0 = all CPUs)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.kdl or .toml); default looks for .treesearch.kdl/.toml",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root for config lookup and relative corpus names",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print cache and job statistics to stderr when done",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug logs to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "counts",
				Usage:     "Count matches per file",
				ArgsUsage: "QUERY [FILES...]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Only search the first N sentences of each file"},
					&cli.BoolFlag{Name: "indices", Aliases: []string{"i"}, Usage: "Also report matching sentence numbers"},
				},
				Action: countsCommand,
			},
			{
				Name:      "sents",
				Usage:     "Print matching sentences",
				ArgsUsage: "QUERY [FILES...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "brackets", Aliases: []string{"b"}, Usage: "Print trees in bracket notation"},
					&cli.BoolFlag{Name: "only-matching", Aliases: []string{"o"}, Usage: "Only print the matching part"},
					&cli.BoolFlag{Name: "line-number", Aliases: []string{"n"}, Usage: "Prefix results with file and sentence number"},
					&cli.IntFlag{Name: "max", Usage: "Maximum results per file (-1 = all)"},
				},
				Action: sentsCommand,
			},
			{
				Name:      "trees",
				Usage:     "Print matching trees",
				ArgsUsage: "QUERY [FILES...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "nofunc", Usage: "Strip function tags"},
					&cli.BoolFlag{Name: "nomorph", Usage: "Strip morphological features"},
					&cli.BoolFlag{Name: "only-matching", Aliases: []string{"o"}, Usage: "Only print the matched subtree"},
					&cli.BoolFlag{Name: "line-number", Aliases: []string{"n"}, Usage: "Prefix results with file and sentence number"},
					&cli.IntFlag{Name: "max", Usage: "Maximum results per file (-1 = all)"},
				},
				Action: treesCommand,
			},
			{
				Name:      "extract",
				Usage:     "Print sentences or trees START..END-1 (0-based) of one file",
				ArgsUsage: "FILE START END",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "sents", Aliases: []string{"s"}, Usage: "Print sentences instead of trees"},
					&cli.BoolFlag{Name: "nofunc", Usage: "Strip function tags"},
					&cli.BoolFlag{Name: "nomorph", Usage: "Strip morphological features"},
				},
				Action: extractCommand,
			},
			{
				Name:      "batch",
				Usage:     "Count every query of a file (one per line) in every corpus file",
				ArgsUsage: "QUERYFILE [FILES...]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Only search the first N sentences of each file"},
				},
				Action: batchCommand,
			},
			{
				Name:      "import",
				Usage:     "Build a document store for the xpath engine from Alpino XML files",
				ArgsUsage: "OUTPUT XMLFILES...",
				Action:    importCommand,
			},
			{
				Name:      "mcp",
				Usage:     "Serve the corpora as MCP tools over stdio",
				ArgsUsage: "[FILES...]",
				Action:    mcpCommand,
			},
		},
	}
}

// session is an open engine plus what commands need to render results.
type session struct {
	engine  *search.Engine
	cfg     *config.Config
	cwd     string
	metrics *metrics.Recorder
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	rootDir := c.String("root")
	if rootDir != "" {
		abs, err := filepath.Abs(rootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootDir, err)
		}
		rootDir = abs
	}

	cfg, err := config.LoadWithRoot(c.String("config"), rootDir)
	if err != nil {
		return nil, err
	}
	if e := c.String("engine"); e != "" {
		cfg.Engine = e
	}
	if n := c.Int("numthreads"); n >= 0 {
		cfg.NumThreads = n
	}
	if c.Bool("json") {
		cfg.Output.JSON = true
	}
	return cfg, config.ValidateConfig(cfg)
}

// openSession builds the engine over fileArgs, or over the configured
// corpora when none are given.
func openSession(c *cli.Context, fileArgs []string) (*session, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}
	kind, err := search.ParseKind(cfg.Engine)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var files []string
	if len(fileArgs) > 0 {
		files, err = config.ExpandPatterns(cwd, fileArgs)
	} else {
		files, err = cfg.ExpandCorpora()
	}
	if err != nil {
		return nil, err
	}

	macros := cfg.MacrosPath()
	if m := c.String("macros"); m != "" {
		macros, _ = filepath.Abs(m)
	}

	var rec *metrics.Recorder
	if c.Bool("stats") {
		rec = metrics.NewRecorder()
	}

	engine, err := search.New(c.Context, search.Options{
		Kind:       kind,
		Files:      files,
		Macros:     macros,
		NumThreads: cfg.NumThreads,
		CacheSize:  cfg.CacheSize,
		Tgrep: search.TgrepOptions{
			Binary:     cfg.Tgrep.Binary,
			CheckStale: cfg.Tgrep.CheckStale,
		},
		Metrics: rec,
	})
	if err != nil {
		return nil, err
	}
	return &session{engine: engine, cfg: cfg, cwd: cwd, metrics: rec}, nil
}

// Close closes the engine and prints statistics when requested.
func (s *session) Close(c *cli.Context) error {
	err := s.engine.Close()
	if s.metrics != nil {
		printStats(c.App.ErrWriter, s.metrics)
	}
	return err
}

// closeWith closes the session from a deferred call, reporting the close
// error unless the command already failed.
func (s *session) closeWith(c *cli.Context, err *error) {
	keepFirst(err, s.Close(c))
}

func keepFirst(err *error, next error) {
	if *err == nil {
		*err = next
	}
}

// queryArgs splits QUERY [FILES...].
func queryArgs(c *cli.Context) (string, []string, error) {
	if c.NArg() < 1 {
		return "", nil, fmt.Errorf("%s: missing QUERY argument", c.Command.Name)
	}
	return c.Args().First(), c.Args().Tail(), nil
}
