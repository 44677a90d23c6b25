package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vespera-vm/vespera/domain"
	"github.com/vespera-vm/vespera/internal/analyzer"
	"github.com/vespera-vm/vespera/internal/parser"
	"github.com/vespera-vm/vespera/internal/version"
)

// CFGServiceImpl implements domain.CFGService: it parses each requested
// file, then invokes analyzer.BuildCFG once per compilation unit (the
// module itself, and every FunctionDef/AsyncFunctionDef/ClassDef nested
// inside it; lambdas are not lowered as separate units), matching the "orchestrated by the CFG service layer"
// comment on lowerFunctionDef/lowerClassDef — the pass itself never recurses
// into a definition's own body.
type CFGServiceImpl struct {
	parser   *parser.Parser
	executor domain.ParallelExecutor
}

// NewCFGService creates a new CFG service.
func NewCFGService() *CFGServiceImpl {
	return &CFGServiceImpl{parser: parser.New(), executor: NewParallelExecutor()}
}

// Build implements domain.CFGService. Each file is lowered independently, so
// multi-file requests are fanned out across the parallel executor and their
// per-file results merged back in request order.
func (s *CFGServiceImpl) Build(ctx context.Context, req domain.CFGRequest) (*domain.CFGResponse, error) {
	response := &domain.CFGResponse{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Version:     version.Version,
	}

	if len(req.Paths) == 0 {
		return response, nil
	}

	fileResponses := make([]*domain.CFGResponse, len(req.Paths))
	fileErrors := make([]error, len(req.Paths))
	var mu sync.Mutex

	tasks := make([]domain.ExecutableTask, len(req.Paths))
	for i, path := range req.Paths {
		i, path := i, path
		tasks[i] = NewSimpleTask(path, true, func(taskCtx context.Context) (interface{}, error) {
			fileResp, err := s.BuildFile(taskCtx, path, req)
			mu.Lock()
			fileResponses[i] = fileResp
			fileErrors[i] = err
			mu.Unlock()
			return nil, nil
		})
	}

	if err := s.executor.Execute(ctx, tasks); err != nil {
		response.Errors = append(response.Errors, err.Error())
	}

	for i, path := range req.Paths {
		if err := fileErrors[i]; err != nil {
			response.Errors = append(response.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		fileResp := fileResponses[i]
		if fileResp == nil {
			continue
		}
		response.Units = append(response.Units, fileResp.Units...)
		response.Warnings = append(response.Warnings, fileResp.Warnings...)
	}

	return response, nil
}

// BuildFile implements domain.CFGService for a single file.
func (s *CFGServiceImpl) BuildFile(ctx context.Context, filePath string, req domain.CFGRequest) (*domain.CFGResponse, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, domain.NewFileNotFoundError(filePath, err)
	}

	result, err := s.parser.Parse(ctx, source)
	if err != nil {
		return nil, domain.NewParseError(filePath, err)
	}

	builder := parser.NewASTBuilder(source)
	root, err := builder.Build(result.Tree)
	if err != nil {
		return nil, domain.NewParseError(filePath, err)
	}

	response := &domain.CFGResponse{GeneratedAt: time.Now().UTC().Format(time.RFC3339), Version: version.Version}

	units := collectUnits(root, filePath, analyzer.RootModule, "")
	for _, u := range units {
		cfg, err := analyzer.BuildCFG(u.source, u.name, u.node, u.body)
		if err != nil {
			response.Warnings = append(response.Warnings, fmt.Sprintf("%s: %s: %v", filePath, u.name, err))
			continue
		}
		response.Units = append(response.Units, toUnitReport(u.name, u.kind, filePath, cfg))
	}

	return response, nil
}

// unit is one compilation unit awaiting its own BuildCFG call.
type unit struct {
	name   string
	kind   string
	node   *parser.Node
	body   []*parser.Node
	source analyzer.CFGSource
}

// collectUnits walks root's body recursively, producing one unit per
// module/function/class scope, mirroring how a real scoping analysis
// would partition compilation units for this pass (§1, out of scope: the
// scoping analysis itself).
func collectUnits(root *parser.Node, filePath string, rootKind analyzer.RootKind, className string) []unit {
	if root == nil {
		return nil
	}
	name := root.Name
	if name == "" {
		name = filePath
	}
	src := analyzer.NewDefaultSource(rootKind, filePath, className, true)
	units := []unit{{name: name, kind: rootKind.String(), node: root, body: root.Body, source: src}}

	for _, stmt := range root.Body {
		units = append(units, collectNestedUnits(stmt, filePath)...)
	}
	return units
}

func collectNestedUnits(n *parser.Node, filePath string) []unit {
	var units []unit
	switch n.Type {
	case parser.NodeFunctionDef, parser.NodeAsyncFunctionDef:
		units = append(units, collectUnits(n, filePath, analyzer.RootFunctionDef, "")...)
	case parser.NodeClassDef:
		units = append(units, collectUnits(n, filePath, analyzer.RootClassDef, n.Name)...)
	default:
		for _, child := range n.Body {
			units = append(units, collectNestedUnits(child, filePath)...)
		}
	}
	return units
}

func toUnitReport(name, kind, file string, cfg *analyzer.CFG) domain.UnitReport {
	report := domain.UnitReport{Name: name, Kind: kind, File: file}
	for _, b := range cfg.Blocks {
		report.Blocks = append(report.Blocks, domain.BlockReport{
			Index:        b.Idx(),
			Info:         b.Info,
			Predecessors: blockIndices(b.Predecessors),
			Successors:   blockIndices(b.Successors),
			Statements:   stmtStrings(b.Body),
		})
	}
	return report
}

func blockIndices(blocks []*analyzer.CFGBlock) []int {
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.Idx()
	}
	return out
}

func stmtStrings(stmts []*analyzer.Stmt) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.String()
	}
	return out
}
