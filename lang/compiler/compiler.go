// Package compiler lowers a parsed high-level contract AST into a flat
// virtual-machine opcode stream and assembles that stream, resolving every
// label reference to an absolute byte offset from the start of the stream
// (spec §1-§4).
package compiler

import "github.com/mna/cllc/lang/ast"

// Compile lowers the root AST node (always a statement — typically a "seq"
// of top-level statements) to a finished, backpatched token stream — every
// LABEL_n/REF_n marker resolved to a concrete PUSH immediate, and the
// tx.data prelude prepended if referenced — using tables if non-nil or
// DefaultTables() otherwise (spec §6's Compile entry point).
func Compile(root ast.Node, tables *Tables) (Stream, error) {
	if tables == nil {
		tables = DefaultTables()
	}
	c := newCtx(tables)

	body, err := c.lowerStmt(root)
	if err != nil {
		return nil, err
	}

	return Assemble(body, c.usesTxData, c.numVars())
}

// Tokens lowers root to its pre-assembly token stream without backpatching,
// for callers that want to inspect or list the intermediate form (the
// "cllc tokens" subcommand, SPEC_FULL.md §6).
func Tokens(root ast.Node, tables *Tables) (Stream, error) {
	if tables == nil {
		tables = DefaultTables()
	}
	c := newCtx(tables)
	return c.lowerStmt(root)
}
