package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vespera-vm/vespera/domain"
	"github.com/vespera-vm/vespera/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies(nil, "")
	}
	return &HandlerSet{deps: deps}
}

// HandleBuildCFG handles the build_cfg tool.
func (h *HandlerSet) HandleBuildCFG(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	format := domain.OutputFormatJSON
	if raw, ok := args["format"].(string); ok && raw != "" {
		parsed, err := parseOutputFormat(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		format = parsed
	}

	recursive := true
	if r, ok := args["recursive"].(bool); ok {
		recursive = r
	}
	verbose := false
	if v, ok := args["verbose"].(bool); ok {
		verbose = v
	}

	cfg := h.deps.Config()
	include := cfg.Analysis.IncludePatterns
	exclude := cfg.Analysis.ExcludePatterns

	fileReader := h.deps.FileReader()
	files, err := fileReader.CollectPythonFiles([]string{path}, recursive, include, exclude)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to collect files: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no Python files found under: %s", path)), nil
	}

	req := domain.CFGRequest{
		Paths:           files,
		OutputFormat:    format,
		Verbose:         verbose,
		ConfigPath:      h.deps.ConfigPath(),
		Recursive:       recursive,
		IncludePatterns: include,
		ExcludePatterns: exclude,
	}

	cfgService := service.NewCFGService()
	response, err := cfgService.Build(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cfg construction failed: %v", err)), nil
	}

	formatter := service.NewCFGFormatter()
	rendered, err := formatter.Format(response, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render result: %v", err)), nil
	}

	return mcp.NewToolResultText(rendered), nil
}

func parseOutputFormat(format string) (domain.OutputFormat, error) {
	switch strings.ToLower(format) {
	case "text":
		return domain.OutputFormatText, nil
	case "json":
		return domain.OutputFormatJSON, nil
	case "yaml", "yml":
		return domain.OutputFormatYAML, nil
	case "dot":
		return domain.OutputFormatDOT, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (supported: text, json, yaml, dot)", format)
	}
}
