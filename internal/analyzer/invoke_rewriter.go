package analyzer

// canEmitDirectly implements the legality predicate of §4.6: a statement may
// be appended as-is, without an invoke wrapper, even while an exception
// handler is active, iff it provably cannot raise. Everything else is
// assumed capable of raising and gets wrapped.
func canEmitDirectly(stmt *Stmt) bool {
	switch stmt.Kind {
	case StmtJump:
		return true
	case StmtBranch:
		return stmt.Test != nil && (stmt.Test.Kind == ExprName || stmt.Test.Kind == ExprNum)
	case StmtReturn:
		return true
	case StmtAssign:
		return assignCannotRaise(stmt)
	default:
		return false
	}
}

// assignCannotRaise covers the three Assign shapes §4.6 lists as safe:
// (a) target is a user-visible name and RHS is a temp name / literal Num /
//     literal Str;
// (b) target is a temp name and RHS is a temp name / literal Num / Str;
// (c) target is a temp name assigned from a pure literal (subsumed by (b)).
func assignCannotRaise(stmt *Stmt) bool {
	target := stmt.Target
	rhs := stmt.Value
	if target == nil || target.Kind != ExprName || rhs == nil {
		return false
	}
	rhsSafe := rhs.IsTempName() || rhs.IsLiteral()
	if !rhsSafe {
		return false
	}
	// Both (a) user name target and (b) temp target qualify once the RHS is
	// safe; the predicate does not otherwise distinguish them.
	return true
}

// emit is the single entry point every statement lowering strategy in
// stmt_lowerer.go and expr_lowerer.go uses to append a statement to the
// cursor block. It consults the exception handler stack and, when a handler
// is active and the statement is not provably safe, rewrites the emission
// into a two-successor invoke (§4.6).
func (l *Lowerer) emit(stmt *Stmt) {
	if l.bb.Cur() == nil {
		return
	}
	handler := l.excs.Top()
	if handler == nil || canEmitDirectly(stmt) {
		l.bb.Emit(stmt)
		return
	}
	l.wrapInvoke(stmt, handler)
}

// wrapInvoke performs the rewrite of §4.6: the inner statement becomes the
// payload of an Invoke terminator; a fresh trampoline block captures the
// unwound exception triple and jumps to the active handler's landing pad,
// breaking the critical edge between this invoke site and a landing pad
// potentially shared by many invoke sites.
func (l *Lowerer) wrapInvoke(inner *Stmt, handler *ExcBlockInfo) {
	src := l.bb.Cur()
	normalDest := l.bb.AddDeferredBlock("invoke_normal")
	excDest := l.bb.AddDeferredBlock("invoke_landingpad")

	// A Raise has no normal successor; both edges target the same fresh
	// block so no successor ends up with the "normal" slot pointing
	// somewhere control never reaches (§4.6, "Special case").
	neverFallsThrough := inner.Kind == StmtRaise
	if neverFallsThrough {
		normalDest = excDest
	}

	invoke := &Stmt{Kind: StmtInvoke, Inner: inner, NormalDest: normalDest, ExcDest: excDest}
	l.bb.Emit(invoke)
	l.bb.Connect(src, normalDest, false)
	if normalDest != excDest {
		l.bb.Connect(src, excDest, false)
	}

	l.bb.PlaceBlock(excDest)
	l.bb.SetCur(excDest)
	l.bb.Emit(&Stmt{
		Kind:   StmtAssign,
		Target: tripleTarget(handler),
		Value:  NewLangPrimitive(PrimLandingPad),
	})
	l.bb.Jump(handler.ExcDest, false)

	if neverFallsThrough {
		l.bb.SetCur(nil)
		return
	}

	l.bb.PlaceBlock(normalDest)
	l.bb.SetCur(normalDest)
}

// tripleTarget builds the three-element tuple target that receives the
// unwound (type, value, traceback) triple from LANDINGPAD.
func tripleTarget(handler *ExcBlockInfo) *Expr {
	t := newExpr(ExprTuple)
	t.Elts = []*Expr{
		NewName(handler.ExcTypeName, true),
		NewName(handler.ExcValueName, true),
		NewName(handler.ExcTracebackName, true),
	}
	return t
}
