package service

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vespera-vm/vespera/domain"
)

// CFGFormatterImpl implements domain.CFGFormatter for the four supported
// output formats. JSON and YAML encode the response verbatim using the
// struct tags on domain.CFGResponse; text renders the same block listing
// analyzer.CFG.Print produces; dot renders one Graphviz digraph per unit.
type CFGFormatterImpl struct{}

// NewCFGFormatter creates a new CFG formatter.
func NewCFGFormatter() *CFGFormatterImpl {
	return &CFGFormatterImpl{}
}

// Format implements domain.CFGFormatter.
func (f *CFGFormatterImpl) Format(response *domain.CFGResponse, format domain.OutputFormat) (string, error) {
	var buf strings.Builder
	if err := f.Write(response, format, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write implements domain.CFGFormatter.
func (f *CFGFormatterImpl) Write(response *domain.CFGResponse, format domain.OutputFormat, w io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return f.writeJSON(response, w)
	case domain.OutputFormatYAML:
		return f.writeYAML(response, w)
	case domain.OutputFormatDOT:
		return f.writeDOT(response, w)
	case domain.OutputFormatText, "":
		return f.writeText(response, w)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *CFGFormatterImpl) writeJSON(response *domain.CFGResponse, w io.Writer) error {
	return WriteJSON(w, response)
}

func (f *CFGFormatterImpl) writeYAML(response *domain.CFGResponse, w io.Writer) error {
	return WriteYAML(w, response)
}

// writeText renders each unit using the same one-line-per-block layout as
// analyzer.CFG.Print, reconstructed from the already-rendered BlockReports
// rather than the live *analyzer.CFG (the formatter only ever sees the
// response DTO, never the analyzer types directly).
func (f *CFGFormatterImpl) writeText(response *domain.CFGResponse, w io.Writer) error {
	for i, unit := range response.Units {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %q (%s, %s):\n", unit.Kind, unit.Name, unit.File, unit.Kind)
		for _, b := range unit.Blocks {
			fmt.Fprintf(w, "Block %d %q; Predecessors: %s Successors: %s\n",
				b.Index, b.Info, intList(b.Predecessors), intList(b.Successors))
			for _, stmt := range b.Statements {
				fmt.Fprintf(w, "  %s\n", stmt)
			}
		}
	}
	for _, warn := range response.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	for _, errMsg := range response.Errors {
		fmt.Fprintf(w, "error: %s\n", errMsg)
	}
	return nil
}

func intList(vals []int) string {
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// writeDOT renders each unit as its own Graphviz digraph: one node per
// block, labelled with its statements, and one edge per successor.
func (f *CFGFormatterImpl) writeDOT(response *domain.CFGResponse, w io.Writer) error {
	for i, unit := range response.Units {
		graphName := dotSafeName(fmt.Sprintf("%s_%s", unit.Kind, unit.Name))
		fmt.Fprintf(w, "digraph %s {\n", graphName)
		fmt.Fprintf(w, "  label=%s;\n", dotQuote(fmt.Sprintf("%s %s (%s)", unit.Kind, unit.Name, unit.File)))
		fmt.Fprintf(w, "  node [shape=box, fontname=\"monospace\"];\n")

		for _, b := range unit.Blocks {
			label := fmt.Sprintf("Block %d: %s", b.Index, b.Info)
			if len(b.Statements) > 0 {
				label += "\\l" + strings.Join(b.Statements, "\\l") + "\\l"
			}
			fmt.Fprintf(w, "  b%d [label=%s];\n", b.Index, dotQuote(label))
		}
		for _, b := range unit.Blocks {
			for _, succ := range b.Successors {
				fmt.Fprintf(w, "  b%d -> b%d;\n", b.Index, succ)
			}
		}
		fmt.Fprintln(w, "}")
		if i != len(response.Units)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", "\\l")
	return `"` + s + `"`
}

func dotSafeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "cfg"
	}
	return b.String()
}
