package analyzer

import (
	"github.com/vespera-vm/vespera/internal/parser"
)

// RemapExpr lowers a parser-AST expression node into three-address reduced
// form (§4.2): it returns a Name referring to a temporary, a bare Num/Str
// literal, or a simple Index-over-Num, having emitted into the current
// block whatever auxiliary statements were needed to compute e. With
// wrap = true, any non-trivial result is assigned to a fresh temporary and
// a load of that temporary is returned, guaranteeing every operand position
// downstream sees three-address shape.
func (l *Lowerer) RemapExpr(n *parser.Node, wrap bool) *Expr {
	if n == nil {
		return NewLangPrimitive(PrimNone)
	}
	result := l.lowerExprInner(n)
	if !wrap {
		return result
	}
	return l.wrapResult(n, result)
}

// wrapResult assigns a non-trivial result to a fresh temporary unless it is
// already one of the three shapes three-address form accepts as-is: a
// literal Num/Str, a Name (temp or not), or an Index-over-Num.
func (l *Lowerer) wrapResult(srcNode *parser.Node, e *Expr) *Expr {
	switch e.Kind {
	case ExprName, ExprNum, ExprStr, ExprIndex:
		return e
	default:
		t := l.newTemp(srcNode, "")
		l.emit(&Stmt{Kind: StmtAssign, Target: t, Value: e})
		return dupPrimitive(t)
	}
}

// dupPrimitive produces a structural copy of a primitive-shaped node (Name,
// Num, Str, Index-over-Num) rather than reusing the same *Expr pointer in
// two output positions (§4.2, "Duplication"; §9 REDESIGN: reject non-
// primitive shapes instead of silently aliasing, the fix to the source's
// documented _dup limitation).
func dupPrimitive(e *Expr) *Expr {
	if !e.IsPrimitiveShape() {
		invariantViolation(nil, "dupPrimitive: non-primitive operand shape %s", e.Kind)
	}
	cp := newExpr(e.Kind)
	cp.Name = e.Name
	cp.IsTemp = e.IsTemp
	cp.NumValue = e.NumValue
	cp.StrValue = e.StrValue
	return cp
}

// lowerExprInner dispatches on the parser-AST node's kind and returns a
// (possibly non-trivial) reduced expression; callers decide whether to wrap
// the result in a temporary.
func (l *Lowerer) lowerExprInner(n *parser.Node) *Expr {
	switch n.Type {
	case parser.NodeConstant:
		return lowerConstant(n)
	case parser.NodeName:
		return NewName(l.source.MangleName(n.Name), false)
	case parser.NodeAttribute:
		return l.lowerAttribute(n, false)
	case parser.NodeSubscript:
		return l.lowerSubscript(n)
	case parser.NodeSlice:
		return l.lowerSlice(n)
	case parser.NodeBinOp:
		return &Expr{id: nextExprID(), Kind: ExprBinOp,
			Left: l.RemapExpr(n.Left, true), Op: n.Op, Right: l.RemapExpr(n.Right, true)}
	case parser.NodeUnaryOp:
		value, _ := n.Value.(*parser.Node)
		return &Expr{id: nextExprID(), Kind: ExprUnaryOp, Op: n.Op, Operand: l.RemapExpr(value, true)}
	case parser.NodeBoolOp:
		return l.lowerBoolOp(n)
	case parser.NodeCompare:
		return l.lowerCompare(n)
	case parser.NodeIfExp:
		return l.lowerIfExp(n)
	case parser.NodeCall:
		return l.lowerCall(n)
	case parser.NodeTuple:
		return l.lowerExprList(n, ExprTuple)
	case parser.NodeList:
		return l.lowerExprList(n, ExprList)
	case parser.NodeSet:
		return l.lowerExprList(n, ExprSet)
	case parser.NodeDict:
		return l.lowerDict(n)
	case parser.NodeListComp:
		return l.lowerComprehension(n, ExprList)
	case parser.NodeSetComp:
		return l.lowerComprehension(n, ExprSet)
	case parser.NodeDictComp:
		return l.lowerComprehension(n, ExprDict)
	case parser.NodeGeneratorExp:
		return l.lowerGeneratorExp(n)
	case parser.NodeYield:
		return l.lowerYield(n, false)
	case parser.NodeYieldFrom:
		return l.lowerYield(n, true)
	case parser.NodeAwait:
		value, _ := n.Value.(*parser.Node)
		return l.RemapExpr(value, false)
	case parser.NodeNamedExpr:
		return l.lowerNamedExpr(n)
	case parser.NodeLambda:
		return l.lowerLambda(n)
	case parser.NodeStarred:
		inner, _ := n.Value.(*parser.Node)
		return l.RemapExpr(inner, false)
	default:
		// Unknown/unsupported expression shape: treat as an opaque name so
		// lowering can proceed; this only happens for constructs genuinely
		// outside this pass's scope (match-statement patterns, f-string
		// interpolation internals).
		return NewName(l.source.InternString(n.String()), false)
	}
}

func lowerConstant(n *parser.Node) *Expr {
	if n.Value == nil {
		return NewLangPrimitive(PrimNone)
	}
	switch v := n.Value.(type) {
	case string:
		return NewStr(v)
	default:
		return NewNum(v)
	}
}

// lowerAttribute lowers Attribute access. clsSlot forces ClsAttribute, the
// protocol-method lookup shape (§4.2's comprehension/with machinery uses
// this to bypass instance shadowing).
func (l *Lowerer) lowerAttribute(n *parser.Node, clsSlot bool) *Expr {
	value, _ := n.Value.(*parser.Node)
	kind := ExprAttribute
	if clsSlot {
		kind = ExprClsAttribute
	}
	return &Expr{id: nextExprID(), Kind: kind, Value: l.RemapExpr(value, true), Attr: l.source.MangleName(n.Name)}
}

func (l *Lowerer) lowerSubscript(n *parser.Node) *Expr {
	value, _ := n.Value.(*parser.Node)
	var sub *parser.Node
	if len(n.Children) > 0 {
		sub = n.Children[0]
	}
	return &Expr{id: nextExprID(), Kind: ExprSubscript, Value: l.RemapExpr(value, true), Slice: l.RemapExpr(sub, true)}
}

func (l *Lowerer) lowerSlice(n *parser.Node) *Expr {
	e := &Expr{id: nextExprID(), Kind: ExprSlice}
	children := n.Children
	if len(children) > 0 {
		e.Lower = l.RemapExpr(children[0], true)
	}
	if len(children) > 1 {
		e.Upper = l.RemapExpr(children[1], true)
	}
	if len(children) > 2 {
		e.Step = l.RemapExpr(children[2], true)
	}
	return e
}

// lowerBoolOp lowers short-circuit `and`/`or` chains (§4.2). The parser
// represents a chain as nested two-operand BoolOps (a and b and c ==
// BoolOp(BoolOp(a, b), c)); flattenBoolOp recovers the flat N-ary operand
// list so evaluation order matches the spec's "sequentially evaluate each
// operand" algorithm regardless of how the parser nested it. Each
// short-circuit arm reaches the shared exit through its own jump-only block,
// so no branch targets the multi-predecessor exit directly.
func (l *Lowerer) lowerBoolOp(n *parser.Node) *Expr {
	op := n.Op
	operands := flattenBoolOp(n, op)

	t := l.newTemp(n, "boolop")
	exit := l.bb.AddDeferredBlock("boolop_exit")

	for i, operand := range operands {
		last := i == len(operands)-1
		val := l.RemapExpr(operand, true)
		l.emit(&Stmt{Kind: StmtAssign, Target: dupPrimitive(t), Value: val})
		if last {
			break
		}
		cont := l.bb.AddDeferredBlock("boolop_next")
		short := l.bb.AddDeferredBlock("boolop_short")
		truth := NewLangPrimitive(PrimNonzero, dupPrimitive(t))
		if op == "or" {
			l.bb.Branch(truth, short, cont)
		} else {
			l.bb.Branch(truth, cont, short)
		}
		l.bb.PlaceBlock(short)
		l.bb.SetCur(short)
		l.bb.Jump(exit, false)
		l.bb.PlaceBlock(cont)
		l.bb.SetCur(cont)
	}
	l.bb.Jump(exit, false)
	l.bb.PlaceBlock(exit)
	l.bb.SetCur(exit)
	return dupPrimitive(t)
}

func flattenBoolOp(n *parser.Node, op string) []*parser.Node {
	if len(n.Children) != 2 {
		return n.Children
	}
	left, right := n.Children[0], n.Children[1]
	var out []*parser.Node
	if left.Type == parser.NodeBoolOp && left.Op == op {
		out = append(out, flattenBoolOp(left, op)...)
	} else {
		out = append(out, left)
	}
	if right.Type == parser.NodeBoolOp && right.Op == op {
		out = append(out, flattenBoolOp(right, op)...)
	} else {
		out = append(out, right)
	}
	return out
}

// lowerCompare lowers a comparison chain (§4.2, "Chained comparisons"). The
// parser folds a chained comparison's Left + one Op + remaining operands in
// Children, collapsing heterogeneous operator chains (`a < b > c`) to a
// single repeated operator — a limitation of the out-of-scope parser, not
// of this pass; homogeneous chains (the overwhelmingly common case) lower
// correctly.
func (l *Lowerer) lowerCompare(n *parser.Node) *Expr {
	operands := append([]*parser.Node{n.Left}, n.Children...)
	if len(operands) < 2 {
		return NewLangPrimitive(PrimNone)
	}
	if len(operands) == 2 {
		left := l.RemapExpr(operands[0], true)
		right := l.RemapExpr(operands[1], true)
		return &Expr{id: nextExprID(), Kind: ExprCompare, Left: left, Op: n.Op, Right: right}
	}

	exit := l.bb.AddDeferredBlock("compare_exit")
	tmp := l.newTemp(n, "cmp")
	left := l.RemapExpr(operands[0], true)
	for i := 1; i < len(operands); i++ {
		right := l.RemapExpr(operands[i], true)
		cmp := &Expr{id: nextExprID(), Kind: ExprCompare, Left: left, Op: n.Op, Right: right}
		l.emit(&Stmt{Kind: StmtAssign, Target: dupPrimitive(tmp), Value: cmp})
		last := i == len(operands)-1
		if last {
			l.bb.Jump(exit, false)
			break
		}
		cont := l.bb.AddDeferredBlock("compare_next")
		short := l.bb.AddDeferredBlock("compare_short")
		l.bb.Branch(NewLangPrimitive(PrimNonzero, dupPrimitive(tmp)), cont, short)
		l.bb.PlaceBlock(short)
		l.bb.SetCur(short)
		l.bb.Jump(exit, false)
		l.bb.PlaceBlock(cont)
		l.bb.SetCur(cont)
		left = dupPrimitive(right)
	}
	l.bb.PlaceBlock(exit)
	l.bb.SetCur(exit)
	return dupPrimitive(tmp)
}

// lowerIfExp lowers `a if c else b` (§4.2, "Conditional expression").
func (l *Lowerer) lowerIfExp(n *parser.Node) *Expr {
	iftrue := l.bb.AddDeferredBlock("ifexp_true")
	iffalse := l.bb.AddDeferredBlock("ifexp_false")
	exit := l.bb.AddDeferredBlock("ifexp_exit")
	t := l.newTemp(n, "ifexp")

	test := l.RemapExpr(n.Test, true)
	l.bb.Branch(NewLangPrimitive(PrimNonzero, test), iftrue, iffalse)

	l.bb.PlaceBlock(iftrue)
	l.bb.SetCur(iftrue)
	for _, bodyNode := range n.Body {
		val := l.RemapExpr(bodyNode, true)
		l.emit(&Stmt{Kind: StmtAssign, Target: dupPrimitive(t), Value: val})
	}
	l.bb.Jump(exit, false)

	l.bb.PlaceBlock(iffalse)
	l.bb.SetCur(iffalse)
	for _, orNode := range n.Orelse {
		val := l.RemapExpr(orNode, true)
		l.emit(&Stmt{Kind: StmtAssign, Target: dupPrimitive(t), Value: val})
	}
	l.bb.Jump(exit, false)

	l.bb.PlaceBlock(exit)
	l.bb.SetCur(exit)
	return dupPrimitive(t)
}

// lowerCall lowers a call expression (§4.2, "Call"): arguments, keywords,
// starargs, and kwargs are independently remapped; when the callee is an
// attribute access, the Attribute node is preserved as the callee (rather
// than flattened through a temporary) so downstream IR generation can fuse
// it into a single call-attribute instruction.
func (l *Lowerer) lowerCall(n *parser.Node) *Expr {
	callee, _ := n.Value.(*parser.Node)
	var fn *Expr
	if callee != nil && callee.Type == parser.NodeAttribute {
		fn = l.lowerAttribute(callee, false)
	} else {
		fn = l.RemapExpr(callee, true)
	}

	e := &Expr{id: nextExprID(), Kind: ExprCall, Func: fn}
	for _, arg := range n.Args {
		if arg.Type == parser.NodeStarred {
			inner, _ := arg.Value.(*parser.Node)
			e.StarArgs = l.RemapExpr(inner, true)
			continue
		}
		e.Args = append(e.Args, l.RemapExpr(arg, true))
	}
	for _, kw := range n.Keywords {
		if kw.Name == "" {
			if val, ok := kw.Value.(*parser.Node); ok {
				e.KwArgs = l.RemapExpr(val, true)
			}
			continue
		}
		var valNode *parser.Node
		if v, ok := kw.Value.(*parser.Node); ok {
			valNode = v
		}
		e.Keywords = append(e.Keywords, &Keyword{Name: kw.Name, Value: l.RemapExpr(valNode, true)})
	}
	return e
}

func (l *Lowerer) lowerExprList(n *parser.Node, kind ExprKind) *Expr {
	e := &Expr{id: nextExprID(), Kind: kind}
	for _, c := range n.Children {
		e.Elts = append(e.Elts, l.RemapExpr(c, true))
	}
	return e
}

func (l *Lowerer) lowerDict(n *parser.Node) *Expr {
	e := &Expr{id: nextExprID(), Kind: ExprDict}
	for i := 0; i+1 < len(n.Children); i += 2 {
		e.Keys = append(e.Keys, l.RemapExpr(n.Children[i], true))
		e.Values = append(e.Values, l.RemapExpr(n.Children[i+1], true))
	}
	return e
}

// lowerYield lowers `yield value` / `yield from value` (§4.2, "Yield"):
// `t := Yield(value)` followed immediately by `Expr(UNCACHE_EXC_INFO)` so
// the exception-info cache never survives a suspension point.
func (l *Lowerer) lowerYield(n *parser.Node, from bool) *Expr {
	var value *Expr
	if valNode, ok := n.Value.(*parser.Node); ok {
		value = l.RemapExpr(valNode, true)
	} else {
		value = NewLangPrimitive(PrimNone)
	}
	yieldExpr := &Expr{id: nextExprID(), Kind: ExprYield, Value: value}
	t := l.newTemp(n, "yield")
	l.emit(&Stmt{Kind: StmtAssign, Target: t, Value: yieldExpr})
	l.emit(&Stmt{Kind: StmtExpr, Value: NewLangPrimitive(PrimUncacheExcInfo)})
	return dupPrimitive(t)
}

// lowerNamedExpr lowers the walrus operator `target := value`: evaluate
// value, assign to the target name, and yield the same value as the
// expression's result.
func (l *Lowerer) lowerNamedExpr(n *parser.Node) *Expr {
	var targetNode *parser.Node
	if len(n.Children) > 0 {
		targetNode = n.Children[0]
	}
	val := l.RemapExpr(n.Value.(*parser.Node), true)
	if targetNode != nil {
		l.pushAssign(targetNode, dupPrimitive(val))
	}
	return val
}

// lowerLambda performs the in-place rewrite §4.3 describes for function/
// class definitions: default-argument sub-expressions are remapped in the
// enclosing scope, then the lambda itself is pushed as a single opaque
// value (its body is lowered independently, as its own compilation unit, by
// a caller that recurses into BuildCFG for nested scopes — out of this
// expression lowerer's concern).
func (l *Lowerer) lowerLambda(n *parser.Node) *Expr {
	for _, arg := range n.Args {
		if defVal, ok := arg.Value.(*parser.Node); ok {
			arg.Value = l.RemapExpr(defVal, true)
		}
	}
	return NewName(l.source.InternString("<lambda>"), false)
}

// pushAssign implements §4.2's assignment-target lowering.
func (l *Lowerer) pushAssign(target *parser.Node, val *Expr) {
	switch target.Type {
	case parser.NodeName:
		l.emit(&Stmt{Kind: StmtAssign, Target: NewName(l.source.MangleName(target.Name), false), Value: val})
	case parser.NodeSubscript:
		sub := l.lowerSubscript(target)
		l.emit(&Stmt{Kind: StmtAssign, Target: sub, Value: val})
	case parser.NodeAttribute:
		attr := l.lowerAttribute(target, false)
		l.emit(&Stmt{Kind: StmtAssign, Target: attr, Value: val})
	case parser.NodeTuple, parser.NodeList:
		temps := make([]*Expr, len(target.Children))
		for i := range target.Children {
			temps[i] = l.newTemp(target.Children[i], "unpack")
		}
		tupleTarget := &Expr{id: nextExprID(), Kind: ExprTuple, Elts: temps}
		l.emit(&Stmt{Kind: StmtAssign, Target: tupleTarget, Value: val})
		for i, sub := range target.Children {
			l.pushAssign(sub, dupPrimitive(temps[i]))
		}
	case parser.NodeStarred:
		inner, _ := target.Value.(*parser.Node)
		l.pushAssign(inner, val)
	default:
		invariantViolation(nil, "pushAssign: unsupported target shape %s", target.Type)
	}
}
