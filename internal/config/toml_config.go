package config

import (
	"bytes"

	"github.com/pelletier/go-toml/v2"
)

// parseTOML reads a .treesearch.toml document on top of the defaults.
// Unknown keys are rejected.
func parseTOML(content []byte) (*Config, error) {
	cfg := Default("")

	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
