package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vespera-vm/vespera/app"
	"github.com/vespera-vm/vespera/domain"
	"github.com/vespera-vm/vespera/service"
	"github.com/spf13/cobra"
)

// CFGCommand represents the cfg command.
type CFGCommand struct {
	outputFormat string
	outputPath   string
	configFile   string
	verbose      bool
	recursive    bool
	include      []string
	exclude      []string
}

// NewCFGCommand creates a new cfg command.
func NewCFGCommand() *CFGCommand {
	return &CFGCommand{
		outputFormat: "text",
		recursive:    true,
	}
}

// CreateCobraCommand creates the cobra command for CFG construction.
func (c *CFGCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cfg [files...]",
		Short: "Lower Python source into control-flow graphs",
		Long: `Lower one or more Python modules into their control flow graphs.

Each module, and every function and class body nested inside it,
is lowered independently into a graph of basic blocks joined by jumps and
branches. Every statement that can raise while a handler is active is
rewritten into a two-successor invoke targeting the normal successor and
the active handler's landing pad.

Examples:
  vespera cfg myfile.py
  vespera cfg src/
  vespera cfg --format dot src/ --output cfg.dot`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().StringVarP(&c.outputFormat, "format", "f", "text", "Output format (text, json, yaml, dot)")
	cmd.Flags().StringVarP(&c.outputPath, "output", "o", "", "Write output to this file instead of stdout")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&c.recursive, "recursive", true, "Recurse into subdirectories")
	cmd.Flags().StringSliceVar(&c.include, "include", nil, "Glob patterns of files to include")
	cmd.Flags().StringSliceVar(&c.exclude, "exclude", nil, "Glob patterns of files to exclude")

	return cmd
}

func (c *CFGCommand) run(cmd *cobra.Command, args []string) error {
	if cmd.Parent() != nil {
		c.verbose, _ = cmd.Parent().Flags().GetBool("verbose")
	}

	format, err := c.parseOutputFormat(c.outputFormat)
	if err != nil {
		return fmt.Errorf("invalid command arguments: %w", err)
	}

	paths, err := c.expandAndValidatePaths(args)
	if err != nil {
		return fmt.Errorf("invalid command arguments: %w", err)
	}

	useCase := c.createCFGUseCase(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	writer := service.NewFileOutputWriter(cmd.ErrOrStderr())
	writeFunc := func(w io.Writer) error {
		req := domain.CFGRequest{
			Paths:           paths,
			OutputFormat:    format,
			OutputWriter:    w,
			Verbose:         c.verbose,
			ConfigPath:      c.configFile,
			Recursive:       c.recursive,
			IncludePatterns: c.include,
			ExcludePatterns: c.exclude,
		}
		return useCase.Execute(ctx, req)
	}

	if err := writer.Write(cmd.OutOrStdout(), c.outputPath, format, true, writeFunc); err != nil {
		return c.handleError(err)
	}
	return nil
}

func (c *CFGCommand) createCFGUseCase(cmd *cobra.Command) *app.CFGUseCase {
	fileReader := service.NewFileReader()
	formatter := service.NewCFGFormatter()
	progress := service.NewProgressManager()
	progress.SetWriter(cmd.ErrOrStderr())
	cfgService := service.NewCFGService()

	return app.NewCFGUseCase(cfgService, fileReader, formatter, progress)
}

func (c *CFGCommand) parseOutputFormat(format string) (domain.OutputFormat, error) {
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

func (c *CFGCommand) expandAndValidatePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		expanded, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", arg, err)
		}
		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path does not exist: %s", arg)
			}
			return nil, fmt.Errorf("cannot access path %s: %w", arg, err)
		}
		paths = append(paths, expanded)
	}
	return paths, nil
}

func (c *CFGCommand) handleError(err error) error {
	if domainErr, ok := err.(domain.DomainError); ok {
		switch domainErr.Code {
		case domain.ErrCodeFileNotFound:
			return fmt.Errorf("file not found: %s", domainErr.Message)
		case domain.ErrCodeInvalidInput:
			return fmt.Errorf("invalid input: %s", domainErr.Message)
		case domain.ErrCodeParseError:
			return fmt.Errorf("parsing failed: %s", domainErr.Message)
		case domain.ErrCodeAnalysisError:
			return fmt.Errorf("analysis failed: %s", domainErr.Message)
		case domain.ErrCodeConfigError:
			return fmt.Errorf("configuration error: %s", domainErr.Message)
		case domain.ErrCodeOutputError:
			return fmt.Errorf("output error: %s", domainErr.Message)
		case domain.ErrCodeUnsupportedFormat:
			return fmt.Errorf("unsupported format: %s", domainErr.Message)
		default:
			return fmt.Errorf("cfg construction error: %s", domainErr.Message)
		}
	}
	return err
}

// NewCFGCmd creates and returns the cfg cobra command.
func NewCFGCmd() *cobra.Command {
	return NewCFGCommand().CreateCobraCommand()
}
