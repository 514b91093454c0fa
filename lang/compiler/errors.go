package compiler

import (
	"fmt"

	"github.com/mna/cllc/lang/ast"
)

// Kind identifies one of the fatal error categories a compilation can halt
// on (spec §7). None of these are recovered locally: the lowerer stops at
// the first one and surfaces it to the caller.
type Kind string

const (
	InvalidOp       Kind = "invalid-op"
	ArityMismatch   Kind = "arity-mismatch"
	AssignToLiteral Kind = "assign-to-literal"
	UndefinedFunc   Kind = "undefined-function"
	UnresolvedLabel Kind = "unresolved-label"
	MalformedAccess Kind = "malformed-access"
)

// Error is the only error type this package returns. It carries the error
// Kind plus the textual form of the offending AST node, per spec §7's
// propagation policy ("surfaces the kind plus the offending AST node's
// textual form"). Kind can be recovered from a wrapping error with
// errors.As.
type Error struct {
	Kind Kind
	Node string // ast.Node.Sprint() of the offending node, empty for assembler errors
	msg  string
}

func (e *Error) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.msg, e.Node)
}

func errf(kind Kind, n ast.Node, format string, args ...interface{}) *Error {
	node := ""
	if n != nil {
		node = n.Sprint()
	}
	return &Error{Kind: kind, Node: node, msg: fmt.Sprintf(format, args...)}
}
