package analyzer

import (
	"strings"
	"sync"

	"github.com/vespera-vm/vespera/internal/parser"
)

// defaultSource is the concrete CFGSource BuildCFG is driven with outside of
// tests: a minimal stand-in for the interning table, name mangler, and
// scoping-analysis handle the pass treats as external collaborators (§1,
// "Out of scope"). It owns just enough state to make InternString
// identity-stable within one process and to track the scope replacements a
// generator-expression outlining registers, without pulling in a real
// scoping analysis this pass was never meant to implement.
type defaultSource struct {
	mu       sync.Mutex
	interned map[string]string

	rootKind       RootKind
	absoluteImport bool
	className      string // non-empty while lowering inside a class body
	moduleName     string

	replacements map[*parser.Node]*parser.Node
}

// NewDefaultSource builds the CFGSource implementation the CLI and MCP
// layers hand to BuildCFG. className is the enclosing class's name for
// mangling purposes and may be empty outside a class body.
func NewDefaultSource(rootKind RootKind, moduleName, className string, absoluteImport bool) CFGSource {
	return &defaultSource{
		interned:       make(map[string]string),
		rootKind:       rootKind,
		absoluteImport: absoluteImport,
		className:      className,
		moduleName:     moduleName,
		replacements:   make(map[*parser.Node]*parser.Node),
	}
}

// InternString returns the canonical string for s. Go strings already
// compare by value, so the map's only job here is making repeated lookups
// of the same text return a shared backing value, matching the identity
// guarantee §3 documents for InternedString without needing a symbol table.
func (d *defaultSource) InternString(s string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.interned[s]; ok {
		return v
	}
	d.interned[s] = s
	return s
}

// MangleName applies the target language's private-name convention: an
// identifier textually inside a class body starting with two or more
// underscores and ending with at most one trailing underscore is rewritten
// to "_ClassName__name", stripping the class's own leading underscores.
func (d *defaultSource) MangleName(name string) string {
	if d.className == "" {
		return name
	}
	if !strings.HasPrefix(name, "__") || strings.HasSuffix(name, "__") {
		return name
	}
	cls := strings.TrimLeft(d.className, "_")
	if cls == "" {
		return name
	}
	return "_" + cls + name
}

func (d *defaultSource) RootKind() RootKind { return d.rootKind }

func (d *defaultSource) AbsoluteImport() bool { return d.absoluteImport }

func (d *defaultSource) RegisterScopeReplacement(original, replacement *parser.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replacements[original] = replacement
}

func (d *defaultSource) ModuleName() string { return d.moduleName }
