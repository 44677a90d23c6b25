package app

import (
	"context"
	"fmt"

	"github.com/vespera-vm/vespera/domain"
	"github.com/vespera-vm/vespera/internal/config"
)

// CFGUseCase orchestrates the CFG-lowering workflow: collect files, load
// configuration, invoke the service, format and write the result. This
// mirrors the complexity use case's Execute pipeline, trimmed to the one
// service this tool has.
type CFGUseCase struct {
	service    domain.CFGService
	fileReader domain.FileReader
	formatter  domain.CFGFormatter
	progress   domain.ProgressManager
}

// NewCFGUseCase creates a new CFG use case.
func NewCFGUseCase(
	service domain.CFGService,
	fileReader domain.FileReader,
	formatter domain.CFGFormatter,
	progress domain.ProgressManager,
) *CFGUseCase {
	return &CFGUseCase{
		service:    service,
		fileReader: fileReader,
		formatter:  formatter,
		progress:   progress,
	}
}

// Execute performs the complete build-cfg workflow and writes the formatted
// response to req.OutputWriter.
func (uc *CFGUseCase) Execute(ctx context.Context, req domain.CFGRequest) error {
	if err := uc.validateRequest(req); err != nil {
		return domain.NewInvalidInputError("invalid request", err)
	}

	finalReq, err := uc.loadAndMergeConfig(req)
	if err != nil {
		return domain.NewConfigError("failed to load configuration", err)
	}

	files, err := uc.fileReader.CollectPythonFiles(
		finalReq.Paths,
		finalReq.Recursive,
		finalReq.IncludePatterns,
		finalReq.ExcludePatterns,
	)
	if err != nil {
		return domain.NewFileNotFoundError("failed to collect files", err)
	}
	if len(files) == 0 {
		return domain.NewInvalidInputError("no Python files found in the specified paths", nil)
	}
	finalReq.Paths = files

	if uc.progress != nil {
		uc.progress.Initialize(len(files))
		uc.progress.Start()
		defer uc.progress.Close()
	}

	response, err := uc.service.Build(ctx, finalReq)
	if err != nil {
		return domain.NewAnalysisError("cfg construction failed", err)
	}

	if uc.progress != nil {
		uc.progress.Complete(len(response.Errors) == 0)
	}

	if err := uc.formatter.Write(response, finalReq.OutputFormat, finalReq.OutputWriter); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}

	return nil
}

// ExecuteFile performs the workflow for a single file, skipping directory
// collection.
func (uc *CFGUseCase) ExecuteFile(ctx context.Context, filePath string, req domain.CFGRequest) error {
	if !uc.fileReader.IsValidPythonFile(filePath) {
		return domain.NewInvalidInputError(fmt.Sprintf("not a valid Python file: %s", filePath), nil)
	}
	if exists, err := uc.fileReader.FileExists(filePath); err != nil || !exists {
		return domain.NewFileNotFoundError(filePath, err)
	}

	finalReq, err := uc.loadAndMergeConfig(req)
	if err != nil {
		return domain.NewConfigError("failed to load configuration", err)
	}

	response, err := uc.service.BuildFile(ctx, filePath, finalReq)
	if err != nil {
		return domain.NewAnalysisError("cfg construction failed", err)
	}

	if err := uc.formatter.Write(response, finalReq.OutputFormat, finalReq.OutputWriter); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

func (uc *CFGUseCase) validateRequest(req domain.CFGRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if req.OutputWriter == nil {
		return fmt.Errorf("output writer is required")
	}
	switch req.OutputFormat {
	case domain.OutputFormatText, domain.OutputFormatJSON, domain.OutputFormatYAML, domain.OutputFormatDOT, "":
	default:
		return fmt.Errorf("unsupported output format: %s", req.OutputFormat)
	}
	return nil
}

// loadAndMergeConfig loads the .vespera.toml configuration (if any) and
// fills in request fields the caller left unset. A non-empty OutputFormat or
// pattern list in the request wins over the file; the Recursive and Verbose
// flags are true if either the request or the file sets them.
func (uc *CFGUseCase) loadAndMergeConfig(req domain.CFGRequest) (domain.CFGRequest, error) {
	cfg, err := config.LoadConfigWithTarget(req.ConfigPath, firstPath(req.Paths))
	if err != nil {
		return req, err
	}

	merged := req
	if merged.OutputFormat == "" {
		merged.OutputFormat = domain.OutputFormat(cfg.Output.Format)
	}
	if len(merged.IncludePatterns) == 0 {
		merged.IncludePatterns = cfg.Analysis.IncludePatterns
	}
	if len(merged.ExcludePatterns) == 0 {
		merged.ExcludePatterns = cfg.Analysis.ExcludePatterns
	}
	if !merged.Recursive {
		merged.Recursive = cfg.Analysis.Recursive
	}
	if !merged.Verbose {
		merged.Verbose = cfg.Output.Verbose
	}
	return merged, nil
}

func firstPath(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
