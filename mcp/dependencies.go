package mcp

import (
	"github.com/vespera-vm/vespera/domain"
	"github.com/vespera-vm/vespera/internal/config"
	"github.com/vespera-vm/vespera/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	fileReader domain.FileReader
	config     *config.Config
	configPath string
}

// NewDependencies constructs the dependency set with sane defaults.
func NewDependencies(cfg *config.Config, configPath string) *Dependencies {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Dependencies{
		fileReader: service.NewFileReader(),
		config:     cfg,
		configPath: configPath,
	}
}

// Config exposes the loaded configuration snapshot.
func (d *Dependencies) Config() *config.Config {
	return d.config
}

// ConfigPath returns the configured config file path (may be empty to
// trigger discovery relative to the analyzed path).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// FileReader exposes the shared file reader.
func (d *Dependencies) FileReader() domain.FileReader {
	return d.fileReader
}
