package service

import (
	"strings"
	"testing"

	"github.com/vespera-vm/vespera/domain"
)

func sampleResponse() *domain.CFGResponse {
	return &domain.CFGResponse{
		GeneratedAt: "2026-01-01T00:00:00Z",
		Version:     "test",
		Units: []domain.UnitReport{
			{
				Name: "mod", Kind: "Module", File: "mod.py",
				Blocks: []domain.BlockReport{
					{Index: 0, Info: "entry", Successors: []int{1}, Statements: []string{"x = 1"}},
					{Index: 1, Info: "exit", Predecessors: []int{0}, Statements: []string{"return None"}},
				},
			},
		},
		Warnings: []string{"unreachable block dropped"},
	}
}

func TestCFGFormatterText(t *testing.T) {
	f := NewCFGFormatter()
	out, err := f.Format(sampleResponse(), domain.OutputFormatText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `Module "mod"`) {
		t.Errorf("expected unit header in output, got %q", out)
	}
	if !strings.Contains(out, "Block 0") || !strings.Contains(out, "Block 1") {
		t.Errorf("expected both blocks rendered, got %q", out)
	}
	if !strings.Contains(out, "warning: unreachable block dropped") {
		t.Errorf("expected warning rendered, got %q", out)
	}
}

func TestCFGFormatterJSON(t *testing.T) {
	f := NewCFGFormatter()
	out, err := f.Format(sampleResponse(), domain.OutputFormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"name": "mod"`) {
		t.Errorf("expected indented JSON with unit name, got %q", out)
	}
}

func TestCFGFormatterYAML(t *testing.T) {
	f := NewCFGFormatter()
	out, err := f.Format(sampleResponse(), domain.OutputFormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "name: mod") {
		t.Errorf("expected YAML with unit name, got %q", out)
	}
}

func TestCFGFormatterDOT(t *testing.T) {
	f := NewCFGFormatter()
	out, err := f.Format(sampleResponse(), domain.OutputFormatDOT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "digraph") {
		t.Errorf("expected a digraph declaration, got %q", out)
	}
	if !strings.Contains(out, "b0 -> b1") {
		t.Errorf("expected an edge from block 0 to block 1, got %q", out)
	}
}

func TestCFGFormatterUnsupportedFormat(t *testing.T) {
	f := NewCFGFormatter()
	_, err := f.Format(sampleResponse(), domain.OutputFormat("xml"))
	if err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestDotSafeName(t *testing.T) {
	tests := map[string]string{
		"Module_mod":  "Module_mod",
		"a.b-c":       "a_b_c",
		"":            "cfg",
		"---":         "___",
		"FunctionDef": "FunctionDef",
	}
	for in, want := range tests {
		if got := dotSafeName(in); got != want {
			t.Errorf("dotSafeName(%q) = %q, want %q", in, got, want)
		}
	}
}
