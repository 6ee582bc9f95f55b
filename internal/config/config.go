// Package config loads treesearch settings from .treesearch.kdl or
// .treesearch.toml files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/treesearch/internal/errors"
)

// Config file names, looked up in this order.
const (
	KDLFileName  = ".treesearch.kdl"
	TOMLFileName = ".treesearch.toml"
)

// Defaults
const (
	DefaultEngine    = "tgrep2"
	DefaultCacheSize = 1024
	DefaultSents     = 100
	DefaultTrees     = 10
	DefaultTgrep     = "tgrep2"
)

type Config struct {
	Engine     string   `toml:"engine"`
	Corpora    []string `toml:"corpora"`
	Macros     string   `toml:"macros"`
	NumThreads int      `toml:"numthreads"`
	CacheSize  int      `toml:"cache_size"`
	Tgrep      Tgrep    `toml:"tgrep"`
	Limits     Limits   `toml:"limits"`
	Output     Output   `toml:"output"`

	// Root is the directory relative corpus and macro paths resolve against.
	Root string `toml:"root"`
}

type Tgrep struct {
	Binary     string `toml:"binary"`
	CheckStale bool   `toml:"check_stale"`
}

// Limits are the per-file result caps used when a command gives none.
type Limits struct {
	Sents int `toml:"sents"`
	Trees int `toml:"trees"`
}

type Output struct {
	JSON        bool `toml:"json"`
	LineNumbers bool `toml:"line_numbers"`
}

// Default returns the built-in configuration rooted at root.
func Default(root string) *Config {
	return &Config{
		Engine:    DefaultEngine,
		CacheSize: DefaultCacheSize,
		Tgrep: Tgrep{
			Binary:     DefaultTgrep,
			CheckStale: true,
		},
		Limits: Limits{
			Sents: DefaultSents,
			Trees: DefaultTrees,
		},
		Root: root,
	}
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot loads configuration. An explicit path is read on its own.
// Otherwise the home directory config is the base and the config in rootDir
// (or the working directory) overrides it.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}
	absDir, err := filepath.Abs(searchDir)
	if err != nil {
		absDir = searchDir
	}

	if path != "" {
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if rootDir != "" {
			cfg.Root = absDir
		}
		return cfg, ValidateConfig(cfg)
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != absDir {
		if globalCfg, err := loadDir(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	projectConfig, err := loadDir(absDir)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Root = absDir
		cfg = baseConfig
	default:
		cfg = Default(absDir)
	}
	return cfg, ValidateConfig(cfg)
}

// LoadFile reads one config file, choosing the format by extension.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError("read config", path, err)
	}
	dir := filepath.Dir(absPath(path))

	var cfg *Config
	switch filepath.Ext(path) {
	case ".toml":
		cfg, err = parseTOML(content)
	case ".kdl":
		cfg, err = parseKDL(string(content))
	default:
		return nil, errors.NewConfigError("config", path, fmt.Errorf("unknown config format; expected .kdl or .toml"))
	}
	if err != nil {
		return nil, errors.NewConfigError("config", path, err)
	}
	resolveRoot(cfg, dir)
	return cfg, nil
}

// loadDir loads the config file in dir, if any. KDL wins over TOML.
func loadDir(dir string) (*Config, error) {
	for _, name := range []string{KDLFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		return LoadFile(path)
	}
	return nil, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// resolveRoot makes cfg.Root absolute relative to the config file's directory.
func resolveRoot(cfg *Config, dir string) {
	switch {
	case cfg.Root == "":
		cfg.Root = dir
	case !filepath.IsAbs(cfg.Root):
		cfg.Root = filepath.Clean(filepath.Join(dir, cfg.Root))
	}
}

// mergeConfigs merges a base config with a project config. Project values
// win; corpora and macros fall back to the base when the project sets none.
func mergeConfigs(base, project *Config) *Config {
	merged := *project
	if len(project.Corpora) == 0 && len(base.Corpora) > 0 {
		// base corpora stay relative to the base root
		merged.Corpora = make([]string, len(base.Corpora))
		for i, c := range base.Corpora {
			merged.Corpora[i] = base.Resolve(c)
		}
	}
	if project.Macros == "" && base.Macros != "" {
		merged.Macros = base.MacrosPath()
	}
	return &merged
}

// Resolve returns p relative to the config root, unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// MacrosPath returns the resolved macros file, or "" when none is set.
func (c *Config) MacrosPath() string {
	return c.Resolve(c.Macros)
}

// ExpandCorpora resolves every corpus pattern against the config root and
// expands glob patterns. Literal names are kept as they are, even when
// missing; a glob that matches nothing is an error.
func (c *Config) ExpandCorpora() ([]string, error) {
	return ExpandPatterns(c.Root, c.Corpora)
}

// ExpandPatterns expands patterns relative to root. Results keep pattern
// order; the matches of one glob are sorted. Duplicates are dropped.
func ExpandPatterns(root string, patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		full := pattern
		if root != "" && !filepath.IsAbs(pattern) {
			full = filepath.Join(root, pattern)
		}
		if !hasMeta(pattern) {
			add(full)
			continue
		}
		if !doublestar.ValidatePathPattern(full) {
			return nil, errors.NewConfigError("corpora", pattern, doublestar.ErrBadPattern)
		}
		matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.NewConfigError("corpora", pattern, err)
		}
		if len(matches) == 0 {
			return nil, errors.NewConfigError("corpora", pattern, fmt.Errorf("pattern matches no files"))
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
