package analyzer

import (
	"fmt"
	"log"

	"github.com/vespera-vm/vespera/internal/parser"
)

// RootKind is the shape of the AST root BuildCFG was invoked on, one of the
// five kinds the legality of `return` (§4.3) and the final synthesised
// terminator (§4.7) both depend on.
type RootKind int

const (
	RootModule RootKind = iota
	RootFunctionDef
	RootLambda
	RootClassDef
	RootExpression
)

func (k RootKind) String() string {
	switch k {
	case RootModule:
		return "Module"
	case RootFunctionDef:
		return "FunctionDef"
	case RootLambda:
		return "Lambda"
	case RootClassDef:
		return "ClassDef"
	case RootExpression:
		return "Expression"
	default:
		return "Unknown"
	}
}

// CFGSource is the external interface BuildCFG consumes (§6): everything
// the scoping analysis, interning table, and name mangler would otherwise
// supply, kept behind an interface because those collaborators are
// explicitly out of this pass's scope (spec §1, "Out of scope").
type CFGSource interface {
	// InternString returns the canonical (identity-stable) token for s.
	InternString(s string) string

	// MangleName applies private-name mangling for an identifier referenced
	// inside a class body (e.g. leading double-underscore rewriting).
	MangleName(name string) string

	// RootKind reports which of Module/FunctionDef/Lambda/ClassDef/
	// Expression this compilation unit's root AST is.
	RootKind() RootKind

	// AbsoluteImport reports whether the compilation unit was compiled with
	// the ABSOLUTE_IMPORT future flag (only future flag this pass reads).
	AbsoluteImport() bool

	// RegisterScopeReplacement tells the scoping analysis that replacement
	// now stands in for original (used when a generator expression is
	// outlined into a synthesised nested function, §4.2).
	RegisterScopeReplacement(original *parser.Node, replacement *parser.Node)

	// ModuleName returns the enclosing module's __name__, read only when
	// lowering a class body (§4.7's `__module__` prologue assignment).
	ModuleName() string
}

// Lowerer holds all mutable state for one `build_cfg` invocation: the CFG
// under construction, the block cursor, both stacks, and the collaborator
// interface. It is instantiated once per compilation unit and discarded
// after BuildCFG returns (§3, "Lifecycle").
type Lowerer struct {
	cfg    *CFG
	bb     *BlockBuilder
	conts  *ContinuationStack
	excs   *ExcHandlerStack
	source CFGSource

	rootKind RootKind
	unitName string

	logger  *log.Logger
	verbose bool

	// tempCounters disambiguates multiple temporaries derived from the same
	// source node (§4.2, "#<ptr>_<suffix>_<i>").
	tempCounters map[*parser.Node]int

	// anonFuncCounter names synthesised generator-expression functions.
	anonFuncCounter int
}

// SetLogger installs an optional logger, matching the teacher's
// CFGBuilder.logError injection pattern; nil disables logging.
func (l *Lowerer) SetLogger(logger *log.Logger) { l.logger = logger }

// SetVerbose toggles whether cfg_print.go's DumpCFG writes the listing at
// all; with verbose off it writes nothing.
func (l *Lowerer) SetVerbose(v bool) { l.verbose = v }

func (l *Lowerer) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}

// newLowerer constructs a Lowerer for one compilation unit, named unitName,
// whose AST root has the given kind.
func newLowerer(source CFGSource, unitName string, rootKind RootKind) *Lowerer {
	cfg := NewCFG(unitName)
	return &Lowerer{
		cfg:          cfg,
		bb:           NewBlockBuilder(cfg),
		conts:        NewContinuationStack(),
		excs:         NewExcHandlerStack(),
		source:       source,
		rootKind:     rootKind,
		unitName:     unitName,
		tempCounters: make(map[*parser.Node]int),
	}
}

// BuildCFG lowers body (the statement list of a function, lambda, class, or
// module) into a CFG, per spec.md's `build_cfg(source, body)`. root is the
// defining AST node (FunctionDef/Lambda/ClassDef/Module/Expression), used to
// determine RootKind and, for class bodies, to prepend the `__module__`/
// `__doc__` prologue (§4.7).
func BuildCFG(source CFGSource, unitName string, root *parser.Node, body []*parser.Node) (cfg *CFG, err error) {
	rootKind := source.RootKind()
	l := newLowerer(source, unitName, rootKind)

	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()

	entry := l.bb.AddBlock("entry")
	l.bb.SetCur(entry)

	if rootKind == RootClassDef {
		l.emitClassPrologue(body)
		body = l.consumeClassDocstring(body)
	}

	for _, stmt := range body {
		l.lowerStmt(stmt)
	}

	l.emitFinalReturn()

	if err := RunPostPass(l.cfg); err != nil {
		return nil, err
	}

	return l.cfg, nil
}

// emitClassPrologue prepends `__module__ := <name>` (§4.7). The docstring's
// `__doc__ := <str>` is emitted separately by consumeClassDocstring.
func (l *Lowerer) emitClassPrologue(body []*parser.Node) {
	l.bb.Emit(&Stmt{
		Kind:   StmtAssign,
		Target: NewName(l.source.MangleName("__module__"), false),
		Value:  NewStr(l.source.ModuleName()),
	})
}

// consumeClassDocstring checks whether the first statement of body is a
// docstring expression statement; if so it emits `__doc__ := <str>` and
// returns the remaining statements to lower normally, otherwise it returns
// body unchanged.
func (l *Lowerer) consumeClassDocstring(body []*parser.Node) []*parser.Node {
	if len(body) == 0 {
		return body
	}
	first := body[0]
	if first.Type != parser.NodeExpr || first.Value == nil {
		return body
	}
	lit, ok := first.Value.(*parser.Node)
	if !ok || lit.Type != parser.NodeConstant {
		return body
	}
	s, ok := lit.Value.(string)
	if !ok {
		return body
	}
	l.bb.Emit(&Stmt{
		Kind:   StmtAssign,
		Target: NewName(l.source.MangleName("__doc__"), false),
		Value:  NewStr(s),
	})
	return body[1:]
}

// emitFinalReturn appends the pass's final synthesised terminator (§4.7):
// `Return(None)` for function/lambda units, `Return(LOCALS)` for class
// bodies, if the cursor is still live (i.e. control can fall off the end).
func (l *Lowerer) emitFinalReturn() {
	if l.bb.Cur() == nil {
		return
	}
	switch l.rootKind {
	case RootClassDef:
		l.emit(&Stmt{Kind: StmtReturn, Value: NewLangPrimitive(PrimLocals)})
	default:
		l.emit(&Stmt{Kind: StmtReturn, Value: NewLangPrimitive(PrimNone)})
	}
	l.bb.SetCur(nil)
}

// tempName renders a stable, unique temporary name derived from node's
// identity, an optional suffix, and an optional disambiguating index
// (§4.2, "Temporary naming"): "#<ptr>", "#<ptr>_<suffix>", or
// "#<ptr>_<suffix>_<i>".
func (l *Lowerer) tempName(node *parser.Node, suffix string) string {
	ptr := fmt.Sprintf("%p", node)
	if suffix == "" {
		return "#" + ptr
	}
	idx := l.tempCounters[node]
	l.tempCounters[node] = idx + 1
	if idx == 0 {
		return fmt.Sprintf("#%s_%s", ptr, suffix)
	}
	return fmt.Sprintf("#%s_%s_%d", ptr, suffix, idx)
}

// newTemp allocates a fresh temp Name expression.
func (l *Lowerer) newTemp(node *parser.Node, suffix string) *Expr {
	return NewName(l.tempName(node, suffix), true)
}
