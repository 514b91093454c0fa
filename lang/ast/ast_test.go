package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/cllc/lang/ast"
)

func TestSprint(t *testing.T) {
	n := ast.NewCompound("set", ast.NewAtom("x"), ast.NewCompound("+", ast.NewAtom("1"), ast.NewAtom("2")))
	assert.Equal(t, "(set x (+ 1 2))", n.Sprint())
}

func TestIsAtomIsCompound(t *testing.T) {
	a := ast.NewAtom("x")
	c := ast.NewCompound("set", a, ast.NewAtom("1"))

	_, ok := ast.IsAtom(c)
	assert.False(t, ok)
	got, ok := ast.IsAtom(a)
	assert.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = ast.IsCompound(a, "set")
	assert.False(t, ok)
	_, ok = ast.IsCompound(c, "get")
	assert.False(t, ok)
	gotC, ok := ast.IsCompound(c, "set")
	assert.True(t, ok)
	assert.Equal(t, c, gotC)
}

func TestWalkVisitsEveryNode(t *testing.T) {
	tree := ast.NewCompound("seq",
		ast.NewCompound("set", ast.NewAtom("x"), ast.NewAtom("1")),
		ast.NewCompound("set", ast.NewAtom("y"), ast.NewAtom("2")),
	)

	var seen []string
	var visit ast.VisitorFunc
	visit = func(n ast.Node) ast.Visitor {
		seen = append(seen, n.Sprint())
		return visit
	}
	ast.Walk(visit, tree)

	assert.Contains(t, seen, tree.Sprint())
	assert.Contains(t, seen, "x")
	assert.Contains(t, seen, "2")
}
