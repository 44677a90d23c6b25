package analyzer

import (
	"fmt"
	"sync/atomic"
)

// StmtKind discriminates the closed sum of reduced-AST statement kinds that
// a CFGBlock body may contain. Every block's last statement is a terminator
// kind (Jump, Branch, Invoke, Return, Raise).
type StmtKind int

const (
	StmtAssign StmtKind = iota
	StmtExpr
	StmtJump
	StmtBranch
	StmtInvoke
	StmtReturn
	StmtRaise
	StmtDelete
	StmtPrint
	StmtFunctionDef
	StmtClassDef
	StmtGlobal
	StmtNonlocal
	StmtImport
	StmtImportFrom
	StmtAssert
)

func (k StmtKind) String() string {
	switch k {
	case StmtAssign:
		return "Assign"
	case StmtExpr:
		return "Expr"
	case StmtJump:
		return "Jump"
	case StmtBranch:
		return "Branch"
	case StmtInvoke:
		return "Invoke"
	case StmtReturn:
		return "Return"
	case StmtRaise:
		return "Raise"
	case StmtDelete:
		return "Delete"
	case StmtPrint:
		return "Print"
	case StmtFunctionDef:
		return "FunctionDef"
	case StmtClassDef:
		return "ClassDef"
	case StmtGlobal:
		return "Global"
	case StmtNonlocal:
		return "Nonlocal"
	case StmtImport:
		return "Import"
	case StmtImportFrom:
		return "ImportFrom"
	case StmtAssert:
		return "Assert"
	default:
		return "Unknown"
	}
}

// ImportAlias is one dotted-name/alias pair of an Import statement.
type ImportAlias struct {
	Name  string
	AsName string
}

// Stmt is a single reduced-AST statement. Only the fields relevant to Kind
// are populated; this mirrors the fat-node style the parser package already
// uses for the input AST rather than a family of small interfaces, since the
// per-kind field sets here are just as small and a single switch over Kind
// is how every consumer (invoke rewriter, printer, post-pass) already wants
// to traverse it.
type Stmt struct {
	Kind StmtKind

	// Assign: Target = Value. Target is Name/Subscript/Attribute/Tuple/List.
	// Return/Expr/Print: Value holds the sole operand (may be nil for `return`
	// with no value).
	Target *Expr
	Value  *Expr

	// Jump
	Dest *CFGBlock

	// Branch
	Test    *Expr
	IfTrue  *CFGBlock
	IfFalse *CFGBlock

	// Invoke
	Inner      *Stmt
	NormalDest *CFGBlock
	ExcDest    *CFGBlock

	// Raise: up to three operands (type, value, traceback / cause).
	Exc0, Exc1, Exc2 *Expr

	// Delete / Print(values)
	Targets []*Expr

	// FunctionDef / ClassDef: the (possibly in-place rewritten) definition
	// pushed as a single opaque statement, per spec.
	DefName string
	Def     interface{}

	// Global / Nonlocal
	Names []string

	// Import
	Module  string
	Level   int
	Aliases []ImportAlias

	// Assert: Test already covers the condition; Value (optional) is the
	// message operand.
}

// ExprKind discriminates the closed sum of reduced-AST expression kinds.
type ExprKind int

const (
	ExprName ExprKind = iota
	ExprNum
	ExprStr
	ExprAttribute
	ExprClsAttribute
	ExprSubscript
	ExprSlice
	ExprIndex
	ExprBinOp
	ExprAugBinOp
	ExprUnaryOp
	ExprCompare
	ExprCall
	ExprTuple
	ExprList
	ExprDict
	ExprSet
	ExprRepr
	ExprYield
	ExprLangPrimitive
)

func (k ExprKind) String() string {
	names := [...]string{
		"Name", "Num", "Str", "Attribute", "ClsAttribute", "Subscript",
		"Slice", "Index", "BinOp", "AugBinOp", "UnaryOp", "Compare", "Call",
		"Tuple", "List", "Dict", "Set", "Repr", "Yield", "LangPrimitive",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// LangPrimOpcode enumerates the LangPrimitive pseudo-ops the lowering
// synthesises. These never appear in source; they are operations the
// downstream IR generator must special-case.
type LangPrimOpcode int

const (
	PrimNonzero LangPrimOpcode = iota
	PrimGetIter
	PrimIsInstance
	PrimImportName
	PrimImportFrom
	PrimImportStar
	PrimLandingPad
	PrimSetExcInfo
	PrimUncacheExcInfo
	PrimLocals
	PrimNone
)

func (o LangPrimOpcode) String() string {
	names := [...]string{
		"NONZERO", "GET_ITER", "ISINSTANCE", "IMPORT_NAME", "IMPORT_FROM",
		"IMPORT_STAR", "LANDINGPAD", "SET_EXC_INFO", "UNCACHE_EXC_INFO",
		"LOCALS", "NONE",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return "UNKNOWN"
}

var exprIDSeq uint64

func nextExprID() uint64 {
	return atomic.AddUint64(&exprIDSeq, 1)
}

// Keyword is a single `name=value` call keyword argument.
type Keyword struct {
	Name  string // empty for **kwargs spread captured via KwArgs instead
	Value *Expr
}

// Expr is a single reduced-AST expression node. id is assigned once at
// construction and never changes; it is the node's identity for temporary
// naming (§4.2) and for the post-pass no-aliasing check (§4.7, §8.7) — two
// Expr values are the same node iff they share an id, never by deep
// structural comparison.
type Expr struct {
	id   uint64
	Kind ExprKind

	// Name
	Name   string
	IsTemp bool

	// Num / Str literal payload.
	NumValue interface{}
	StrValue string

	// Attribute / ClsAttribute / Subscript: Value is the object/base.
	Value *Expr
	Attr  string

	// Subscript: Slice is the reduced-AST index/slice expression.
	Slice *Expr

	// Slice
	Lower, Upper, Step *Expr

	// BinOp / AugBinOp / Compare: Left, Op, Right.
	Left, Right *Expr
	Op          string

	// UnaryOp
	Operand *Expr

	// Call
	Func     *Expr
	Args     []*Expr
	Keywords []*Keyword
	StarArgs *Expr
	KwArgs   *Expr

	// Tuple / List / Set
	Elts []*Expr

	// Dict
	Keys   []*Expr
	Values []*Expr

	// LangPrimitive
	Opcode   LangPrimOpcode
	PrimArgs []*Expr

	// source identity this node was derived from, used only to render a
	// debug-friendly temp name; never read for equality.
	srcTag string
}

func newExpr(kind ExprKind) *Expr {
	return &Expr{id: nextExprID(), Kind: kind}
}

// ID returns the node's stable identity, used by the no-aliasing post-pass
// check and by temp-name rendering.
func (e *Expr) ID() uint64 { return e.id }

// NewName builds a Name expression. isTemp marks a compiler-synthesised
// temporary, distinguished from user-visible names by a leading '#' in Name.
func NewName(name string, isTemp bool) *Expr {
	e := newExpr(ExprName)
	e.Name = name
	e.IsTemp = isTemp
	return e
}

// NewNum builds a literal numeric expression.
func NewNum(v interface{}) *Expr {
	e := newExpr(ExprNum)
	e.NumValue = v
	return e
}

// NewStr builds a literal string expression.
func NewStr(v string) *Expr {
	e := newExpr(ExprStr)
	e.StrValue = v
	return e
}

// NewIndex builds an Index-over-Num expression, one of the three shapes
// three-address form permits as an operand besides Name and literal.
func NewIndex(n interface{}) *Expr {
	e := newExpr(ExprIndex)
	e.NumValue = n
	return e
}

// NewLangPrimitive builds a LangPrimitive pseudo-expression.
func NewLangPrimitive(op LangPrimOpcode, args ...*Expr) *Expr {
	e := newExpr(ExprLangPrimitive)
	e.Opcode = op
	e.PrimArgs = args
	return e
}

// IsTempName reports whether e is a Name referring to a compiler temporary
// (Name starting with '#'), the distinction the invoke rewriter (§4.6) and
// the duplication routine (§4.2) key off of.
func (e *Expr) IsTempName() bool {
	return e != nil && e.Kind == ExprName && e.IsTemp
}

// IsLiteral reports whether e is a bare Num or Str literal.
func (e *Expr) IsLiteral() bool {
	return e != nil && (e.Kind == ExprNum || e.Kind == ExprStr)
}

// IsPrimitiveShape reports whether e is one of the four shapes the
// duplication routine (§4.2, "Duplication") is allowed to structurally copy:
// Name, Num, Str, or Index-over-Num.
func (e *Expr) IsPrimitiveShape() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ExprName, ExprNum, ExprStr, ExprIndex:
		return true
	default:
		return false
	}
}

func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ExprName:
		return e.Name
	case ExprNum:
		return fmt.Sprintf("%v", e.NumValue)
	case ExprStr:
		return fmt.Sprintf("%q", e.StrValue)
	case ExprIndex:
		return fmt.Sprintf("[%v]", e.NumValue)
	case ExprAttribute:
		return fmt.Sprintf("%s.%s", e.Value, e.Attr)
	case ExprClsAttribute:
		return fmt.Sprintf("%s.<cls>%s", e.Value, e.Attr)
	case ExprSubscript:
		return fmt.Sprintf("%s[%s]", e.Value, e.Slice)
	case ExprSlice:
		return fmt.Sprintf("%v:%v:%v", e.Lower, e.Upper, e.Step)
	case ExprBinOp:
		return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
	case ExprAugBinOp:
		return fmt.Sprintf("(%s %s= %s)", e.Left, e.Op, e.Right)
	case ExprUnaryOp:
		return fmt.Sprintf("(%s%s)", e.Op, e.Operand)
	case ExprCompare:
		return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
	case ExprCall:
		return fmt.Sprintf("%s(...)", e.Func)
	case ExprTuple:
		return fmt.Sprintf("tuple%v", e.Elts)
	case ExprList:
		return fmt.Sprintf("list%v", e.Elts)
	case ExprSet:
		return fmt.Sprintf("set%v", e.Elts)
	case ExprDict:
		return "dict{...}"
	case ExprRepr:
		return fmt.Sprintf("repr(%s)", e.Value)
	case ExprYield:
		return fmt.Sprintf("yield %s", e.Value)
	case ExprLangPrimitive:
		return fmt.Sprintf("%s%v", e.Opcode, e.PrimArgs)
	default:
		return "?"
	}
}
