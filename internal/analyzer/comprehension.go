package analyzer

import (
	"fmt"

	"github.com/vespera-vm/vespera/internal/parser"
)

// lowerComprehension lowers a list/set/dict comprehension (§4.2,
// "Comprehensions"). generators are visited outer to inner; each level
// acquires its own iterator and a self-contained test/body/exit loop, with
// inner levels nested inside the enclosing level's body so inner iterables
// are re-evaluated once per outer element.
func (l *Lowerer) lowerComprehension(n *parser.Node, kind ExprKind) *Expr {
	result := l.newTemp(n, "result")
	var ctor *Expr
	switch kind {
	case ExprList:
		ctor = &Expr{id: nextExprID(), Kind: ExprList}
	case ExprSet:
		ctor = &Expr{id: nextExprID(), Kind: ExprSet}
	case ExprDict:
		ctor = &Expr{id: nextExprID(), Kind: ExprDict}
	}
	l.emit(&Stmt{Kind: StmtAssign, Target: dupPrimitive(result), Value: ctor})

	generators := n.Children
	var elemNode, dictKey, dictVal *parser.Node
	if kind == ExprDict {
		if pair, ok := n.Value.(*parser.Node); ok && len(pair.Children) == 2 {
			dictKey, dictVal = pair.Children[0], pair.Children[1]
		}
	} else if v, ok := n.Value.(*parser.Node); ok {
		elemNode = v
	}

	exit := l.bb.AddDeferredBlock("comprehension_exit")
	if len(generators) > 0 {
		l.lowerGenLevel(0, generators, result, kind, elemNode, dictKey, dictVal, exit)
	} else {
		l.bb.Jump(exit, false)
	}
	l.bb.PlaceBlock(exit)
	l.bb.SetCur(exit)
	return dupPrimitive(result)
}

// lowerGenLevel lowers one `for` clause of a comprehension, recursing into
// inner clauses and, at the innermost level, emitting the element-append
// operation. afterExit is the block control jumps to once this level's
// iterator is exhausted (the enclosing level's test block, or the overall
// comprehension exit for the outermost level).
func (l *Lowerer) lowerGenLevel(level int, generators []*parser.Node, result *Expr, kind ExprKind, elemNode, dictKey, dictVal *parser.Node, afterExit *CFGBlock) {
	gen := generators[level]

	iterVal := l.RemapExpr(gen.Iter, true)
	iterTemp := l.newTemp(gen, "iter")
	l.emit(&Stmt{Kind: StmtAssign, Target: iterTemp, Value: NewLangPrimitive(PrimGetIter, iterVal)})

	testBlock := l.bb.AddDeferredBlock("comprehension_test")
	bodyBlock := l.bb.AddDeferredBlock("comprehension_body")
	exitBlock := l.bb.AddDeferredBlock("comprehension_level_exit")

	l.bb.Jump(testBlock, false)
	l.bb.PlaceBlock(testBlock)
	l.bb.SetCur(testBlock)

	hasNext := &Expr{id: nextExprID(), Kind: ExprCall,
		Func: &Expr{id: nextExprID(), Kind: ExprClsAttribute, Value: dupPrimitive(iterTemp), Attr: "__hasnext__"}}
	hasNextTemp := l.newTemp(gen, "hasnext")
	l.emit(&Stmt{Kind: StmtAssign, Target: hasNextTemp, Value: hasNext})
	l.bb.Branch(NewLangPrimitive(PrimNonzero, dupPrimitive(hasNextTemp)), bodyBlock, exitBlock)

	l.bb.PlaceBlock(bodyBlock)
	l.bb.SetCur(bodyBlock)

	next := &Expr{id: nextExprID(), Kind: ExprCall,
		Func: &Expr{id: nextExprID(), Kind: ExprClsAttribute, Value: dupPrimitive(iterTemp), Attr: "next"}}
	nextTemp := l.newTemp(gen, "next")
	l.emit(&Stmt{Kind: StmtAssign, Target: nextTemp, Value: next})
	if len(gen.Targets) > 0 {
		l.pushAssign(gen.Targets[0], dupPrimitive(nextTemp))
	}

	if gen.Test != nil {
		testVal := l.RemapExpr(gen.Test, true)
		filterTrue := l.bb.AddDeferredBlock("comprehension_filter")
		filterSkip := l.bb.AddDeferredBlock("comprehension_filter_skip")
		l.bb.Branch(NewLangPrimitive(PrimNonzero, testVal), filterTrue, filterSkip)
		l.bb.PlaceBlock(filterSkip)
		l.bb.SetCur(filterSkip)
		l.bb.Jump(testBlock, true)
		l.bb.PlaceBlock(filterTrue)
		l.bb.SetCur(filterTrue)
	}

	if level+1 < len(generators) {
		l.lowerGenLevel(level+1, generators, result, kind, elemNode, dictKey, dictVal, testBlock)
	} else {
		l.emitComprehensionElement(result, kind, elemNode, dictKey, dictVal)
		l.bb.Jump(testBlock, true)
	}

	l.bb.PlaceBlock(exitBlock)
	l.bb.SetCur(exitBlock)
	l.bb.Jump(afterExit, true)
}

func (l *Lowerer) emitComprehensionElement(result *Expr, kind ExprKind, elemNode, dictKey, dictVal *parser.Node) {
	switch kind {
	case ExprList:
		elemVal := l.RemapExpr(elemNode, true)
		call := &Expr{id: nextExprID(), Kind: ExprCall,
			Func: &Expr{id: nextExprID(), Kind: ExprClsAttribute, Value: dupPrimitive(result), Attr: "append"},
			Args: []*Expr{elemVal}}
		l.emit(&Stmt{Kind: StmtExpr, Value: call})
	case ExprSet:
		elemVal := l.RemapExpr(elemNode, true)
		call := &Expr{id: nextExprID(), Kind: ExprCall,
			Func: &Expr{id: nextExprID(), Kind: ExprClsAttribute, Value: dupPrimitive(result), Attr: "add"},
			Args: []*Expr{elemVal}}
		l.emit(&Stmt{Kind: StmtExpr, Value: call})
	case ExprDict:
		keyVal := l.RemapExpr(dictKey, true)
		val := l.RemapExpr(dictVal, true)
		sub := &Expr{id: nextExprID(), Kind: ExprSubscript, Value: dupPrimitive(result), Slice: keyVal}
		l.emit(&Stmt{Kind: StmtAssign, Target: sub, Value: val})
	}
}

// lowerGeneratorExp outlines a generator expression into a synthesised
// single-argument nested function (§4.2, "Generator expressions"): the
// outermost iterable is evaluated in the enclosing scope and passed as the
// function's sole argument; the function body is the same for/if ladder a
// comprehension would use, with a Yield of the element as its innermost
// action. The scoping analysis is told the synthesised function replaces
// the original generator-expression node.
func (l *Lowerer) lowerGeneratorExp(n *parser.Node) *Expr {
	outerIterable := l.RemapExpr(firstGenIter(n), true)

	l.anonFuncCounter++
	fnName := l.source.InternString(genexpFuncName(l.anonFuncCounter))

	replacement := parser.NewNode(parser.NodeFunctionDef)
	replacement.Name = fnName
	argNode := parser.NewNode(parser.NodeArg)
	argNode.Name = ".0"
	replacement.Args = []*parser.Node{argNode}
	replacement.Body = genexpBody(n)

	l.source.RegisterScopeReplacement(n, replacement)

	call := &Expr{id: nextExprID(), Kind: ExprCall, Func: NewName(fnName, false), Args: []*Expr{outerIterable}}
	return call
}

func firstGenIter(n *parser.Node) *parser.Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0].Iter
}

// genexpBody rewrites the first generator's iterable to the synthesised
// parameter name `.0` and returns the synthesised function's body: the
// for/if ladder buildForLadder rebuilds from the generators, whose innermost
// statement is an expression statement yielding the element. BuildCFG,
// invoked on the synthesised function by the caller orchestrating nested
// scopes, lowers that ladder like any other `for`/`if` statements.
func genexpBody(n *parser.Node) []*parser.Node {
	if len(n.Children) == 0 {
		return nil
	}
	rewritten := n.Children[0]
	paramRef := parser.NewNode(parser.NodeName)
	paramRef.Name = ".0"
	rewritten.Iter = paramRef

	yieldStmt := parser.NewNode(parser.NodeExpr)
	yieldNode := parser.NewNode(parser.NodeYield)
	if v, ok := n.Value.(*parser.Node); ok {
		yieldNode.Value = v
	}
	yieldStmt.Value = yieldNode

	return buildForLadder(n.Children, 0, yieldStmt)
}

// buildForLadder reconstructs a structured for/if ladder (the form
// StmtLowerer's normal `for` lowering expects) from the flattened
// Comprehension nodes buildComprehension produced, so the synthesised
// function's body goes through the exact same lowering path as any other
// `for` statement.
func buildForLadder(gens []*parser.Node, idx int, innermost *parser.Node) []*parser.Node {
	if idx >= len(gens) {
		return []*parser.Node{innermost}
	}
	gen := gens[idx]
	forNode := parser.NewNode(parser.NodeFor)
	forNode.Targets = gen.Targets
	forNode.Iter = gen.Iter
	inner := buildForLadder(gens, idx+1, innermost)
	if gen.Test != nil {
		ifNode := parser.NewNode(parser.NodeIf)
		ifNode.Test = gen.Test
		ifNode.Body = inner
		forNode.Body = []*parser.Node{ifNode}
	} else {
		forNode.Body = inner
	}
	return []*parser.Node{forNode}
}

func genexpFuncName(n int) string {
	return fmt.Sprintf("<genexpr_%d>", n)
}
