package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/treesearch/internal/errors"
)

func TestValidator(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "alias engine", modify: func(c *Config) { c.Engine = "dact" }},
		{name: "engine is case insensitive", modify: func(c *Config) { c.Engine = "XPath" }},
		{name: "unknown engine", modify: func(c *Config) { c.Engine = "lucene" }, wantField: "engine"},
		{name: "negative threads", modify: func(c *Config) { c.NumThreads = -2 }, wantField: "numthreads"},
		{name: "negative cache", modify: func(c *Config) { c.CacheSize = -1 }, wantField: "cache_size"},
		{name: "negative limits", modify: func(c *Config) { c.Limits.Trees = -1 }, wantField: "limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/corpora")
			tt.modify(cfg)
			err := NewValidator().ValidateAndSetDefaults(cfg)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *errors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestValidator_EngineSuggestion(t *testing.T) {
	cfg := Default("")
	cfg.Engine = "xpth"
	err := ValidateConfig(cfg)

	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "xpath", cfgErr.Suggestion)
}

func TestValidator_SetsDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, DefaultEngine, cfg.Engine)
	assert.Equal(t, DefaultCacheSize, cfg.CacheSize)
	assert.Equal(t, DefaultTgrep, cfg.Tgrep.Binary)
	assert.Equal(t, DefaultSents, cfg.Limits.Sents)
	assert.Equal(t, DefaultTrees, cfg.Limits.Trees)
}
