package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultIncludePatterns matches every Python module by default.
var DefaultIncludePatterns = []string{"*.py"}

// DefaultExcludePatterns skips test files, since test bodies are rarely what
// a caller wants lowered alongside the module they test.
var DefaultExcludePatterns = []string{"*test*.py", "*_test.py", "test_*.py"}

// Config is the root configuration for the CLI and MCP front ends. It has no
// complexity/clone/dead-code sections: this tool has exactly one thing to
// configure per run, namely which files to lower and how to render the
// result.
type Config struct {
	// Output holds output formatting configuration.
	Output OutputConfig `mapstructure:"output" toml:"output" yaml:"output"`

	// Analysis holds file discovery configuration.
	Analysis AnalysisConfig `mapstructure:"analysis" toml:"analysis" yaml:"analysis"`
}

// OutputConfig holds configuration for output formatting.
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, dot.
	Format string `mapstructure:"format" toml:"format" yaml:"format"`

	// Directory is where reports are written when a command writes to a
	// file instead of stdout. Empty means the CWD's .vespera/reports.
	Directory string `mapstructure:"directory" toml:"directory" yaml:"directory"`

	// Verbose is merged into the request's Verbose flag when the request
	// leaves it unset; the rendered output does not change with it.
	Verbose bool `mapstructure:"verbose" toml:"verbose" yaml:"verbose"`
}

// AnalysisConfig holds general file discovery configuration.
type AnalysisConfig struct {
	// IncludePatterns specifies file patterns to include.
	IncludePatterns []string `mapstructure:"include_patterns" toml:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude.
	ExcludePatterns []string `mapstructure:"exclude_patterns" toml:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to analyze directories recursively.
	Recursive bool `mapstructure:"recursive" toml:"recursive" yaml:"recursive"`

	// FollowSymlinks controls whether to follow symbolic links.
	FollowSymlinks bool `mapstructure:"follow_symlinks" toml:"follow_symlinks" yaml:"follow_symlinks"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "text",
		},
		Analysis: AnalysisConfig{
			IncludePatterns: append([]string(nil), DefaultIncludePatterns...),
			ExcludePatterns: append([]string(nil), DefaultExcludePatterns...),
			Recursive:       true,
			FollowSymlinks:  false,
		},
	}
}

// LoadConfig loads configuration from file or returns the default config.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = findDefaultConfig(".")
	}
	if configPath == "" {
		return cfg, nil
	}

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithTarget loads configuration the same way as LoadConfig, but
// when configPath is empty it starts the search for .vespera.toml from
// targetPath's directory (walking up to the filesystem root) instead of the
// process's current directory, so a config file that lives alongside the
// analyzed sources is found even when vespera is invoked from elsewhere.
func LoadConfigWithTarget(configPath, targetPath string) (*Config, error) {
	if configPath != "" {
		return LoadConfig(configPath)
	}

	startDir := "."
	if targetPath != "" {
		if info, err := os.Stat(targetPath); err == nil {
			if info.IsDir() {
				startDir = targetPath
			} else {
				startDir = filepath.Dir(targetPath)
			}
		}
	}

	found := findDefaultConfig(startDir)
	if found == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(found)
}

// findDefaultConfig walks up from startDir looking for .vespera.toml.
func findDefaultConfig(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for {
		candidate := filepath.Join(dir, ".vespera.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	validFormats := map[string]bool{"text": true, "json": true, "yaml": true, "dot": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format %q, must be one of: text, json, yaml, dot", c.Output.Format)
	}
	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}
	return nil
}
