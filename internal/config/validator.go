package config

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/treesearch/internal/errors"
)

// EngineNames lists the engine names a config may select, aliases included.
var EngineNames = []string{"tgrep2", "tgrep", "xpath", "dact", "regex", "re"}

// Validator validates configuration and fills in defaults for zero values.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults returns a ConfigError naming the first bad field.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateEngine(cfg.Engine); err != nil {
		return err
	}
	if cfg.NumThreads < 0 {
		return errors.NewConfigError("numthreads", fmt.Sprint(cfg.NumThreads),
			fmt.Errorf("must be 0 (all CPUs) or positive"))
	}
	if cfg.CacheSize < 0 {
		return errors.NewConfigError("cache_size", fmt.Sprint(cfg.CacheSize),
			fmt.Errorf("must not be negative"))
	}
	if cfg.Limits.Sents < 0 || cfg.Limits.Trees < 0 {
		return errors.NewConfigError("limits", fmt.Sprintf("sents=%d trees=%d", cfg.Limits.Sents, cfg.Limits.Trees),
			fmt.Errorf("limits must not be negative"))
	}

	v.setDefaults(cfg)
	return nil
}

func (v *Validator) validateEngine(name string) error {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return nil
	}
	for _, n := range EngineNames {
		if n == normalized {
			return nil
		}
	}
	err := errors.NewConfigError("engine", name, fmt.Errorf("unknown engine"))
	best, bestDistance := "", 3
	for _, n := range EngineNames {
		if d := edlib.LevenshteinDistance(normalized, n); d < bestDistance {
			best, bestDistance = n, d
		}
	}
	if best != "" {
		err = err.WithSuggestion(best)
	}
	return err
}

func (v *Validator) setDefaults(cfg *Config) {
	if cfg.Engine == "" {
		cfg.Engine = DefaultEngine
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Tgrep.Binary == "" {
		cfg.Tgrep.Binary = DefaultTgrep
	}
	if cfg.Limits.Sents == 0 {
		cfg.Limits.Sents = DefaultSents
	}
	if cfg.Limits.Trees == 0 {
		cfg.Limits.Trees = DefaultTrees
	}
}

// ValidateConfig is a convenience wrapper around Validator.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
