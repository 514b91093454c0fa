package compiler

import (
	"regexp"

	"github.com/mna/cllc/lang/ast"
)

var numericLiteral = regexp.MustCompile(`^-?[0-9]+$`)

func isNumericLiteral(s string) bool { return numericLiteral.MatchString(s) }

// leftClass classifies a left-expression per spec §4.2.
type leftClass int

const (
	leftVariable leftClass = iota
	leftStorage
	leftAccess
)

// classifyLeft determines the left-expression classification of n without
// lowering it, needed both by the statement lowerer (to pick SSTORE vs
// MSTORE) and by lowerLeft itself (to decide the SLOAD-vs-ADD branch for a
// nested access whose base is a storage root).
func classifyLeft(n ast.Node) (leftClass, error) {
	switch v := n.(type) {
	case *ast.Atom:
		return leftVariable, nil
	case *ast.Compound:
		if v.Head != "access" {
			return 0, errf(MalformedAccess, n, "unsupported left-expression head %q", v.Head)
		}
		if len(v.Children) != 2 {
			return 0, errf(MalformedAccess, n, "access node requires exactly 2 children, got %d", len(v.Children))
		}
		if base, ok := ast.IsAtom(v.Children[0]); ok && base.Text == storageRootName {
			return leftStorage, nil
		}
		return leftAccess, nil
	default:
		return 0, errf(MalformedAccess, n, "unsupported left-expression node")
	}
}

// lowerLeft lowers an assignable location to tokens that push its address
// (spec §4.2). Stack effect: +1 address (or, for the storage-indexed-memory
// case, +2 cells — see the comment below).
func (c *ctx) lowerLeft(n ast.Node) (Stream, error) {
	switch v := n.(type) {
	case *ast.Atom:
		if isNumericLiteral(v.Text) {
			return nil, errf(AssignToLiteral, n, "cannot assign to a numeric literal")
		}
		slot := c.slot(v.Text)
		return push(int64(slot)), nil

	case *ast.Compound:
		if v.Head != "access" {
			return nil, errf(MalformedAccess, n, "unsupported left-expression head %q", v.Head)
		}
		if len(v.Children) != 2 {
			return nil, errf(MalformedAccess, n, "access node requires exactly 2 children, got %d", len(v.Children))
		}
		base, idx := v.Children[0], v.Children[1]

		if baseAtom, ok := ast.IsAtom(base); ok && baseAtom.Text == storageRootName {
			// Storage root: the index expression's value is the storage key.
			return c.lowerRight(idx)
		}

		baseClass, err := classifyLeft(base)
		if err != nil {
			return nil, err
		}
		if baseClass == leftStorage {
			// Fetch the pointer stored at the base storage slot, then push the
			// index — the two values are left on the stack in the order the
			// STORE convention at the call site expects (spec §4.2/§4.4).
			baseStream, err := c.lowerLeft(base)
			if err != nil {
				return nil, err
			}
			idxStream, err := c.lowerRight(idx)
			if err != nil {
				return nil, err
			}
			return Append(baseStream, Ops(SLOAD), idxStream), nil
		}

		// Simple base-plus-offset addressing, word-scaled (SPEC_FULL §14: the
		// original always scales the index by 32 before adding).
		baseStream, err := c.lowerLeft(base)
		if err != nil {
			return nil, err
		}
		idxStream, err := c.lowerRight(idx)
		if err != nil {
			return nil, err
		}
		return Append(baseStream, idxStream, push(32), Ops(MUL, ADD)), nil

	default:
		return nil, errf(MalformedAccess, n, "unsupported left-expression node")
	}
}

// push is a small helper for the extremely common "PUSH <n>" pair.
func push(n int64) Stream { return Stream{Op(PUSH), Imm(n)} }
