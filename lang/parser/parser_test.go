package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/cllc/lang/ast"
	"github.com/mna/cllc/lang/parser"
)

func TestParse(t *testing.T) {
	cases := []struct {
		desc string
		in   string
		want string // Sprint() form, empty if err is set
		err  string
	}{
		{desc: "bare atom", in: `stop`, want: `stop`},
		{desc: "numeric literal", in: `42`, want: `42`},
		{desc: "negative numeric literal", in: `-7`, want: `-7`},
		{desc: "dotted pseudo-name", in: `tx.sender`, want: `tx.sender`},
		{desc: "simple compound", in: `(+ 1 2)`, want: `(+ 1 2)`},
		{desc: "nested compound", in: `(set x (+ 1 2))`, want: `(set x (+ 1 2))`},
		{desc: "comment is skipped", in: "# a comment\n(set x 1) # trailing", want: `(set x 1)`},
		{desc: "operator symbol head", in: `(== a b)`, want: `(== a b)`},
		{desc: "unclosed paren", in: `(set x 1`, err: "missing closing"},
		{desc: "empty input", in: ``, err: "unexpected end of input"},
		{desc: "trailing garbage", in: `(set x 1) extra`, err: "unexpected trailing input"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := parser.Parse(tc.in)
			if tc.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Sprint())
		})
	}
}

func TestMustParsePanicsOnError(t *testing.T) {
	assert.Panics(t, func() { parser.MustParse(`(unclosed`) })
}

func TestParseProducesExpectedNodeShapes(t *testing.T) {
	got, err := parser.Parse(`(access contract.storage 5)`)
	require.NoError(t, err)

	comp, ok := ast.IsCompound(got, "access")
	require.True(t, ok)
	require.Len(t, comp.Children, 2)

	base, ok := ast.IsAtom(comp.Children[0])
	require.True(t, ok)
	assert.Equal(t, "contract.storage", base.Text)
}
