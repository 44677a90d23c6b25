package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vespera-vm/vespera/domain"
)

func writeTempPy(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestCFGServiceBuildFileSingleModule(t *testing.T) {
	dir := t.TempDir()
	path := writeTempPy(t, dir, "mod.py", "x = 1\ny = x + 1\n")

	svc := NewCFGService()
	resp, err := svc.BuildFile(context.Background(), path, domain.CFGRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Units) != 1 {
		t.Fatalf("expected exactly 1 unit (the module), got %d", len(resp.Units))
	}
	if resp.Units[0].Kind != "Module" {
		t.Errorf("expected unit kind Module, got %s", resp.Units[0].Kind)
	}
}

func TestCFGServiceBuildFileNestedFunctions(t *testing.T) {
	dir := t.TempDir()
	path := writeTempPy(t, dir, "mod.py", `
def outer():
    def inner():
        return 1
    return inner()
`)

	svc := NewCFGService()
	resp, err := svc.BuildFile(context.Background(), path, domain.CFGRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Module + outer + inner = 3 units.
	if len(resp.Units) != 3 {
		t.Fatalf("expected 3 units (module, outer, inner), got %d: %+v", len(resp.Units), resp.Units)
	}
}

func TestCFGServiceBuildFileMissingFile(t *testing.T) {
	svc := NewCFGService()
	_, err := svc.BuildFile(context.Background(), "/no/such/file.py", domain.CFGRequest{})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	de, ok := err.(domain.DomainError)
	if !ok {
		t.Fatalf("expected domain.DomainError, got %T", err)
	}
	if de.Code != domain.ErrCodeFileNotFound {
		t.Errorf("expected ErrCodeFileNotFound, got %v", de.Code)
	}
}

func TestCFGServiceBuildMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTempPy(t, dir, "a.py", "a = 1\n")
	b := writeTempPy(t, dir, "b.py", "b = 2\n")

	svc := NewCFGService()
	resp, err := svc.Build(context.Background(), domain.CFGRequest{Paths: []string{a, b}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Units) != 2 {
		t.Fatalf("expected 2 units across both files, got %d", len(resp.Units))
	}
	if len(resp.Errors) != 0 {
		t.Errorf("expected no errors, got %v", resp.Errors)
	}
}

func TestCFGServiceBuildPartialFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	good := writeTempPy(t, dir, "good.py", "x = 1\n")
	missing := filepath.Join(dir, "missing.py")

	svc := NewCFGService()
	resp, err := svc.Build(context.Background(), domain.CFGRequest{Paths: []string{good, missing}})
	if err != nil {
		t.Fatalf("Build itself should not error, only accumulate per-file errors: %v", err)
	}
	if len(resp.Units) != 1 {
		t.Errorf("expected the good file's unit to still be reported, got %d units", len(resp.Units))
	}
	if len(resp.Errors) != 1 {
		t.Errorf("expected exactly one accumulated error for the missing file, got %d", len(resp.Errors))
	}
}

func TestCFGServiceBuildEmptyPaths(t *testing.T) {
	svc := NewCFGService()
	resp, err := svc.Build(context.Background(), domain.CFGRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Units) != 0 {
		t.Errorf("expected no units for an empty path list, got %d", len(resp.Units))
	}
}
