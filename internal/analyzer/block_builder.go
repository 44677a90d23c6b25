package analyzer

// BlockBuilder owns the growing CFG during lowering: it creates, defers,
// places, connects, and disconnects blocks, and tracks the cursor (curblock)
// statements are currently emitted into (§4.1). A nil cursor means
// "unreachable": further Emit calls are silently discarded until something
// re-establishes a cursor (the behaviour a block ending in an unconditional
// jump, return, or raise naturally produces for any code textually after
// it).
type BlockBuilder struct {
	cfg      *CFG
	curblock *CFGBlock
}

// NewBlockBuilder wraps cfg with a fresh cursor positioned nowhere; the
// caller must SetCur an entry block before emitting.
func NewBlockBuilder(cfg *CFG) *BlockBuilder {
	return &BlockBuilder{cfg: cfg}
}

// CFG returns the block builder's underlying CFG.
func (bb *BlockBuilder) CFG() *CFG { return bb.cfg }

// AddBlock allocates and immediately places a block.
func (bb *BlockBuilder) AddBlock(info string) *CFGBlock {
	return bb.cfg.AddBlock(info)
}

// AddDeferredBlock allocates a block without placing it.
func (bb *BlockBuilder) AddDeferredBlock(info string) *CFGBlock {
	return bb.cfg.AddDeferredBlock(info)
}

// PlaceBlock places a previously deferred block at the current end of the
// block order.
func (bb *BlockBuilder) PlaceBlock(b *CFGBlock) {
	bb.cfg.PlaceBlock(b)
}

// Cur returns the current cursor block, or nil if the cursor is absent
// (unreachable code region).
func (bb *BlockBuilder) Cur() *CFGBlock { return bb.curblock }

// SetCur repositions the cursor. Passing nil marks the region from here on
// as unreachable until the next SetCur.
func (bb *BlockBuilder) SetCur(b *CFGBlock) { bb.curblock = b }

// Connect adds a successor edge a -> b. Unless allowBackedge is set, it
// asserts that b is either still deferred (idx == -1) or placed strictly
// after a, preserving the topological-order invariant (§3, §8.5) outside of
// deliberate loop backedges. a must have at most one successor already.
func (bb *BlockBuilder) Connect(a, b *CFGBlock, allowBackedge bool) {
	if a == nil || b == nil {
		invariantViolation(a, "connect with nil endpoint")
	}
	if len(a.Successors) >= 2 {
		invariantViolation(a, "connect: source already has 2 successors")
	}
	if !allowBackedge && b.Placed() && a.Placed() && b.idx <= a.idx {
		invariantViolation(a, "connect: non-backedge target %s is not strictly after source", b)
	}
	a.Successors = append(a.Successors, b)
	b.Predecessors = append(b.Predecessors, a)
}

// Disconnect removes the a -> b edge in both directions. Used by the
// post-pass block merge when splicing a trivially-joinable pair together.
func (bb *BlockBuilder) Disconnect(a, b *CFGBlock) {
	a.Successors = removeBlockPtr(a.Successors, b)
	b.Predecessors = removeBlockPtr(b.Predecessors, a)
}

func removeBlockPtr(list []*CFGBlock, target *CFGBlock) []*CFGBlock {
	out := list[:0]
	for _, b := range list {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

// Emit appends stmt to the cursor block's body. If the cursor is absent the
// statement is silently discarded, matching unreachable-code semantics
// rather than raising — the source author relies on this to let lowering
// continue walking dead code without special-casing it at every call site.
func (bb *BlockBuilder) Emit(stmt *Stmt) {
	if bb.curblock == nil {
		return
	}
	bb.curblock.Body = append(bb.curblock.Body, stmt)
}

// Jump emits an unconditional Jump(dest) into the cursor block, connects the
// edge, and clears the cursor (the caller must SetCur the destination or a
// new block next, matching how every statement lowering strategy in §4.3
// ends a block).
func (bb *BlockBuilder) Jump(dest *CFGBlock, allowBackedge bool) {
	if bb.curblock == nil {
		return
	}
	src := bb.curblock
	bb.Emit(&Stmt{Kind: StmtJump, Dest: dest})
	bb.Connect(src, dest, allowBackedge)
	bb.curblock = nil
}

// Branch emits Branch(test, ifTrue, ifFalse) into the cursor block and
// connects both edges as forward edges, then clears the cursor.
func (bb *BlockBuilder) Branch(test *Expr, ifTrue, ifFalse *CFGBlock) {
	bb.BranchEdges(test, ifTrue, false, ifFalse, false)
}

// BranchEdges is Branch with independent backedge permission per arm, for
// the loop/comprehension shapes (§4.3, §4.2) where one arm trampolines back
// to an already-placed test block while the other proceeds to a fresh one.
func (bb *BlockBuilder) BranchEdges(test *Expr, ifTrue *CFGBlock, allowTrueBackedge bool, ifFalse *CFGBlock, allowFalseBackedge bool) {
	if bb.curblock == nil {
		return
	}
	src := bb.curblock
	bb.Emit(&Stmt{Kind: StmtBranch, Test: test, IfTrue: ifTrue, IfFalse: ifFalse})
	bb.Connect(src, ifTrue, allowTrueBackedge)
	bb.Connect(src, ifFalse, allowFalseBackedge)
	bb.curblock = nil
}
