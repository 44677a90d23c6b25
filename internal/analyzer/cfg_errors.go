package analyzer

import "fmt"

// SyntaxError is a user-facing error raised during CFG construction for one
// of the handful of static conditions the lowering pass itself detects
// (§6, §7) — the parser has already accepted the token stream, but the
// construct is still illegal once control flow is resolved.
type SyntaxError struct {
	Message string
	Line    int
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("SyntaxError: %s (line %d)", e.Message, e.Line)
	}
	return fmt.Sprintf("SyntaxError: %s", e.Message)
}

func newSyntaxError(line int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Line: line}
}

func errContinueOutsideLoop(line int) *SyntaxError {
	return newSyntaxError(line, "'continue' not properly in loop")
}

func errBreakOutsideLoop(line int) *SyntaxError {
	return newSyntaxError(line, "'break' outside loop")
}

func errReturnOutsideFunction(line int) *SyntaxError {
	return newSyntaxError(line, "'return' outside function")
}

func errExecUnsupported(line int) *SyntaxError {
	return newSyntaxError(line, "'exec' currently not supported")
}

func errImportStarInFunction(line int) *SyntaxError {
	return newSyntaxError(line, "import * only allowed at module level")
}

// CFGInvariantError is the internal panic raised when a structural
// assumption the pass relies on (§3, §4.7) turns out false. This is never
// a user error: it always indicates a bug in the lowering pass, so it is
// never recovered inside the pass itself (§7) — only the CLI/MCP boundary
// may catch and report it.
type CFGInvariantError struct {
	Message string
	Block   *CFGBlock
}

func (e *CFGInvariantError) Error() string {
	if e.Block != nil {
		return fmt.Sprintf("cfg invariant violated at %s: %s", e.Block, e.Message)
	}
	return fmt.Sprintf("cfg invariant violated: %s", e.Message)
}

func invariantViolation(b *CFGBlock, format string, args ...interface{}) {
	panic(&CFGInvariantError{Message: fmt.Sprintf(format, args...), Block: b})
}
