package analyzer

// RunPostPass validates the structural invariants §3/§4.7/§8 require of a
// finished CFG and then runs the idempotent trivial-block merge: a block
// ending in an unconditional Jump to a successor with exactly one
// predecessor is spliced into that successor, repeated until no more merges
// apply. The merge never changes observable behaviour (it only removes
// bookkeeping seams left by the lowering strategies, e.g. a loop's "end"
// block reached by a single Jump from its "orelse" block), so it runs after
// validation rather than before: a malformed graph should fail loudly
// instead of being silently smoothed over.
func RunPostPass(cfg *CFG) error {
	if err := validateCFG(cfg); err != nil {
		return err
	}
	mergeTrivialBlocks(cfg)
	return validateCFG(cfg)
}

// validateCFG checks every invariant §8's universal properties name: a
// unique entry with no predecessors, every other block reachable (≥1
// predecessor), every block terminates, arity stays within bounds, adjacency
// is mutual, block order is topological outside of explicit backedges, no
// critical edges survive, and no two blocks' bodies share an aliased Expr
// node.
func validateCFG(cfg *CFG) error {
	if len(cfg.Blocks) == 0 {
		return &CFGInvariantError{Message: "cfg has no blocks"}
	}
	for i, b := range cfg.Blocks {
		if b.idx != i {
			return &CFGInvariantError{Message: "block order does not match idx", Block: b}
		}
		if err := validateTerminator(b); err != nil {
			return err
		}
		if len(b.Successors) > 2 {
			return &CFGInvariantError{Message: "block has more than 2 successors", Block: b}
		}
		for _, succ := range b.Successors {
			if !hasPredecessor(succ, b) {
				return &CFGInvariantError{Message: "successor edge is not mirrored by a predecessor edge", Block: b}
			}
		}
		for _, pred := range b.Predecessors {
			if !hasSuccessor(pred, b) {
				return &CFGInvariantError{Message: "predecessor edge is not mirrored by a successor edge", Block: b}
			}
		}
		if err := checkPredecessorCount(i, b); err != nil {
			return err
		}
		if i > 0 {
			if err := checkTopologicalOrder(i, b); err != nil {
				return err
			}
		}
		if err := checkNoCriticalEdge(b); err != nil {
			return err
		}
	}
	if err := checkNoAliasedExprs(cfg); err != nil {
		return err
	}
	return nil
}

// checkPredecessorCount enforces §8.1: the entry block is the one block with
// no predecessors, and every other block has at least one, so lowering never
// leaves a landing pad or dispatch block that nothing can reach.
func checkPredecessorCount(i int, b *CFGBlock) error {
	if i == 0 {
		if len(b.Predecessors) != 0 {
			return &CFGInvariantError{Message: "entry block has predecessors", Block: b}
		}
		return nil
	}
	if len(b.Predecessors) == 0 {
		return &CFGInvariantError{Message: "non-entry block has no predecessors", Block: b}
	}
	return nil
}

// checkTopologicalOrder enforces §8.5: a block's first predecessor was
// placed strictly before it. The forward edge that first makes a block
// reachable always occupies Predecessors[0]; a later backedge only appends.
func checkTopologicalOrder(i int, b *CFGBlock) error {
	if b.Predecessors[0].idx >= i {
		return &CFGInvariantError{Message: "block order is not topological", Block: b}
	}
	return nil
}

// checkNoCriticalEdge enforces §8.6: a block with two successors (a Branch,
// or a two-destination Invoke) may never target a successor that has two or
// more predecessors, since nothing could be spliced onto that edge alone.
func checkNoCriticalEdge(b *CFGBlock) error {
	if len(b.Successors) < 2 {
		return nil
	}
	for _, succ := range b.Successors {
		if len(succ.Predecessors) >= 2 {
			return &CFGInvariantError{Message: "critical edge: multi-successor block targets a multi-predecessor block", Block: b}
		}
	}
	return nil
}

// validateTerminator requires a non-empty block whose last statement is one
// of the five terminator kinds and whose declared successors match that
// terminator's own destinations exactly.
func validateTerminator(b *CFGBlock) error {
	term := b.Terminator()
	if term == nil {
		return &CFGInvariantError{Message: "block has no statements", Block: b}
	}
	switch term.Kind {
	case StmtJump:
		return requireSuccessors(b, term.Dest)
	case StmtBranch:
		return requireSuccessors(b, term.IfTrue, term.IfFalse)
	case StmtInvoke:
		if term.NormalDest == term.ExcDest {
			return requireSuccessors(b, term.NormalDest)
		}
		return requireSuccessors(b, term.NormalDest, term.ExcDest)
	case StmtReturn, StmtRaise:
		return requireSuccessors(b)
	default:
		return &CFGInvariantError{Message: "block does not end in a terminator statement", Block: b}
	}
}

func requireSuccessors(b *CFGBlock, want ...*CFGBlock) error {
	if len(b.Successors) != len(want) {
		return &CFGInvariantError{Message: "successor count does not match terminator", Block: b}
	}
	for i, s := range want {
		if b.Successors[i] != s {
			return &CFGInvariantError{Message: "successor list does not match terminator operands", Block: b}
		}
	}
	return nil
}

func hasPredecessor(b, pred *CFGBlock) bool {
	for _, p := range b.Predecessors {
		if p == pred {
			return true
		}
	}
	return false
}

func hasSuccessor(b, succ *CFGBlock) bool {
	for _, s := range b.Successors {
		if s == succ {
			return true
		}
	}
	return false
}

// checkNoAliasedExprs walks every statement's operand tree across the whole
// CFG and fails if the same *Expr identity (§4.2's id field) is reachable
// from two distinct positions — the no-aliasing invariant dupPrimitive
// exists to uphold.
func checkNoAliasedExprs(cfg *CFG) error {
	seen := make(map[uint64]bool)
	for _, b := range cfg.Blocks {
		for _, stmt := range b.Body {
			if err := checkStmtAliasing(stmt, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkStmtAliasing(stmt *Stmt, seen map[uint64]bool) error {
	if stmt == nil {
		return nil
	}
	exprs := []*Expr{stmt.Target, stmt.Value, stmt.Test, stmt.Exc0, stmt.Exc1, stmt.Exc2}
	exprs = append(exprs, stmt.Targets...)
	for _, e := range exprs {
		if err := checkExprAliasing(e, seen); err != nil {
			return err
		}
	}
	if stmt.Inner != nil {
		return checkStmtAliasing(stmt.Inner, seen)
	}
	return nil
}

func checkExprAliasing(e *Expr, seen map[uint64]bool) error {
	if e == nil {
		return nil
	}
	if seen[e.id] {
		return &CFGInvariantError{Message: "Expr node reused in two operand positions without duplication"}
	}
	seen[e.id] = true
	children := []*Expr{e.Value, e.Slice, e.Lower, e.Upper, e.Step, e.Left, e.Right, e.Operand, e.Func, e.StarArgs, e.KwArgs}
	children = append(children, e.Args...)
	children = append(children, e.Elts...)
	children = append(children, e.Keys...)
	children = append(children, e.Values...)
	children = append(children, e.PrimArgs...)
	for _, kw := range e.Keywords {
		if kw != nil {
			children = append(children, kw.Value)
		}
	}
	for _, c := range children {
		if err := checkExprAliasing(c, seen); err != nil {
			return err
		}
	}
	return nil
}

// mergeTrivialBlocks repeatedly splices a block b that ends in an
// unconditional Jump into a successor with exactly one predecessor (b
// itself), until a full pass makes no further change (§4.7, "Cleanup"). b's
// own statements ahead of the Jump move with it, so this also coalesces a
// block that does real work before falling through, not only a bare
// trampoline. This never touches the entry block (index 0), since collapsing
// it would change which block callers observe as the unit's starting point.
func mergeTrivialBlocks(cfg *CFG) {
	for {
		changed := false
		for _, b := range cfg.Blocks {
			if b.idx == 0 {
				continue
			}
			if len(b.Body) == 0 {
				continue
			}
			last := b.Body[len(b.Body)-1]
			if last.Kind != StmtJump {
				continue
			}
			succ := last.Dest
			if succ == b {
				continue
			}
			if len(succ.Predecessors) != 1 || succ.Predecessors[0] != b {
				continue
			}
			spliceBlock(cfg, b, succ)
			changed = true
			break
		}
		if !changed {
			return
		}
	}
}

// spliceBlock removes block b, prepending its statements (minus the trailing
// Jump that reached succ) onto succ's own body, rewiring every predecessor
// that pointed at b to point at succ instead, then drops b from the block
// order.
func spliceBlock(cfg *CFG, b, succ *CFGBlock) {
	succ.Body = append(append([]*Stmt(nil), b.Body[:len(b.Body)-1]...), succ.Body...)
	for _, pred := range b.Predecessors {
		for i, s := range pred.Successors {
			if s == b {
				pred.Successors[i] = succ
			}
		}
		retargetTerminator(pred.Terminator(), b, succ)
	}
	succ.Predecessors = succ.Predecessors[:0]
	succ.Predecessors = append(succ.Predecessors, b.Predecessors...)
	cfg.removeBlock(b)
}

func retargetTerminator(term *Stmt, from, to *CFGBlock) {
	if term == nil {
		return
	}
	if term.Dest == from {
		term.Dest = to
	}
	if term.IfTrue == from {
		term.IfTrue = to
	}
	if term.IfFalse == from {
		term.IfFalse = to
	}
	if term.NormalDest == from {
		term.NormalDest = to
	}
	if term.ExcDest == from {
		term.ExcDest = to
	}
}
