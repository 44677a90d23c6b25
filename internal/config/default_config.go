package config

import (
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigTOML is the file `vespera init` writes. It is kept as a plain
// annotated template rather than generated from Config defaults, since this
// tool has only a handful of knobs and a static file is easier for a caller
// to read top to bottom.
const DefaultConfigTOML = `# vespera configuration file.
# Uncomment and edit settings to customize how vespera lowers your sources.

[output]
# format: "text", "json", "yaml", or "dot".
format = "text"

# directory = ".vespera/reports"

verbose = false

[analysis]
include_patterns = ["*.py"]
exclude_patterns = ["*test*.py", "*_test.py", "test_*.py"]
recursive = true
follow_symlinks = false
`

// ParseTOMLConfig parses raw TOML bytes into a Config, merged over the
// defaults so an incomplete file still produces a valid configuration.
func ParseTOMLConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MarshalTOMLConfig renders cfg back to TOML, used by commands that persist
// an edited configuration.
func MarshalTOMLConfig(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
