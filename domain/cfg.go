package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats for a CFG dump. The
// set is narrower than the teacher's analysis reports: this pass has no
// numeric summary to tabulate, so CSV and a browser-opened HTML report do
// not apply; DOT replaces them as the one rendering worth a dedicated
// formatter, since a control flow graph is exactly what Graphviz is for.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatDOT  OutputFormat = "dot"
)

// CFGRequest represents a request to lower one or more source files into
// their control flow graphs.
type CFGRequest struct {
	Paths []string

	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	Verbose      bool

	ConfigPath string

	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// BlockReport is the serialisable rendering of one CFGBlock: enough to
// reconstruct the canonical print listing in any output format without the
// formatter reaching back into the analyzer package's internal types.
type BlockReport struct {
	Index        int      `json:"index" yaml:"index"`
	Info         string   `json:"info" yaml:"info"`
	Predecessors []int    `json:"predecessors" yaml:"predecessors"`
	Successors   []int    `json:"successors" yaml:"successors"`
	Statements   []string `json:"statements" yaml:"statements"`
}

// UnitReport is one compilation unit's (module, function, lambda, or class
// body) lowered CFG.
type UnitReport struct {
	Name   string        `json:"name" yaml:"name"`
	Kind   string        `json:"kind" yaml:"kind"`
	File   string        `json:"file" yaml:"file"`
	Blocks []BlockReport `json:"blocks" yaml:"blocks"`
}

// CFGResponse represents the complete result of lowering the requested
// files.
type CFGResponse struct {
	Units []UnitReport `json:"units" yaml:"units"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Version     string `json:"version" yaml:"version"`
}

// CFGService defines the core business logic for building control flow
// graphs: parsing source, invoking build_cfg per compilation unit, and
// collecting the results into a response.
type CFGService interface {
	Build(ctx context.Context, req CFGRequest) (*CFGResponse, error)
	BuildFile(ctx context.Context, filePath string, req CFGRequest) (*CFGResponse, error)
}

// CFGFormatter defines the interface for rendering a CFGResponse in one of
// OutputFormat's shapes.
type CFGFormatter interface {
	Format(response *CFGResponse, format OutputFormat) (string, error)
	Write(response *CFGResponse, format OutputFormat, writer io.Writer) error
}

// FileReader defines the interface for reading and collecting source files.
type FileReader interface {
	// CollectPythonFiles recursively finds all source files in the given paths.
	CollectPythonFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file.
	ReadFile(path string) ([]byte, error)

	// IsValidPythonFile checks if a file is a valid source file.
	IsValidPythonFile(path string) bool

	// FileExists checks if a file exists and returns an error if not.
	FileExists(path string) (bool, error)
}
