package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Output.Format != "text" {
		t.Errorf("expected default format 'text', got %s", cfg.Output.Format)
	}
	if !cfg.Analysis.Recursive {
		t.Error("expected recursive to default to true")
	}
	if cfg.Analysis.FollowSymlinks {
		t.Error("expected follow_symlinks to default to false")
	}
	if len(cfg.Analysis.IncludePatterns) == 0 {
		t.Error("expected non-empty default include patterns")
	}
	if len(cfg.Analysis.ExcludePatterns) == 0 {
		t.Error("expected non-empty default exclude patterns")
	}

	// Mutating the returned config must not corrupt the package defaults.
	cfg.Analysis.IncludePatterns[0] = "mutated"
	if DefaultIncludePatterns[0] == "mutated" {
		t.Error("DefaultConfig must return a copy of the shared default slices")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(*Config) {}, false},
		{"valid json", func(c *Config) { c.Output.Format = "json" }, false},
		{"valid yaml", func(c *Config) { c.Output.Format = "yaml" }, false},
		{"valid dot", func(c *Config) { c.Output.Format = "dot" }, false},
		{"invalid format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"empty include patterns", func(c *Config) { c.Analysis.IncludePatterns = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected a validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no validation error, got %v", err)
			}
		})
	}
}

func TestLoadConfigNoFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error loading absent config: %v", err)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected fallback to DefaultConfig, got format %s", cfg.Output.Format)
	}
}

func TestLoadConfigWithTargetFindsConfigAboveTarget(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	tomlContent := []byte(`
[output]
format = "json"
verbose = true

[analysis]
include_patterns = ["*.py"]
exclude_patterns = []
recursive = false
follow_symlinks = true
`)
	if err := os.WriteFile(filepath.Join(root, ".vespera.toml"), tomlContent, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	target := filepath.Join(sub, "module.py")
	if err := os.WriteFile(target, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfigWithTarget("", target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected format 'json' from the discovered .vespera.toml, got %s", cfg.Output.Format)
	}
	if !cfg.Output.Verbose {
		t.Error("expected verbose=true from the discovered config")
	}
	if cfg.Analysis.Recursive {
		t.Error("expected recursive=false from the discovered config")
	}
}

func TestLoadConfigWithTargetExplicitPathWins(t *testing.T) {
	root := t.TempDir()
	explicit := filepath.Join(root, "custom.toml")
	if err := os.WriteFile(explicit, []byte("[output]\nformat = \"yaml\"\n[analysis]\ninclude_patterns=[\"*.py\"]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfigWithTarget(explicit, filepath.Join(root, "anything.py"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.Format != "yaml" {
		t.Errorf("expected explicit configPath to win, got format %s", cfg.Output.Format)
	}
}

func TestParseAndMarshalTOMLConfig(t *testing.T) {
	cfg, err := ParseTOMLConfig([]byte(DefaultConfigTOML))
	if err != nil {
		t.Fatalf("ParseTOMLConfig failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("parsed default TOML config failed validation: %v", err)
	}

	data, err := MarshalTOMLConfig(cfg)
	if err != nil {
		t.Fatalf("MarshalTOMLConfig failed: %v", err)
	}
	roundTripped, err := ParseTOMLConfig(data)
	if err != nil {
		t.Fatalf("round-tripped TOML failed to parse: %v", err)
	}
	if roundTripped.Output.Format != cfg.Output.Format {
		t.Errorf("round-trip changed Output.Format: %s -> %s", cfg.Output.Format, roundTripped.Output.Format)
	}
}
