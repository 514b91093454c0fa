package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/cllc/lang/compiler"
)

func TestAssemble(t *testing.T) {
	cases := []struct {
		desc       string
		in         compiler.Stream
		usesTxData bool
		numVars    int
		want       string
		err        string
	}{
		{
			desc: "no labels or refs passes through unchanged",
			in:   compiler.Append(compiler.Ops(compiler.PUSH), compiler.Stream{compiler.Imm(1)}, compiler.Ops(compiler.STOP)),
			want: "PUSH 1 STOP",
		},
		{
			desc: "a forward reference resolves to the label's byte offset",
			in: compiler.Append(
				compiler.Stream{compiler.Ref(0)},
				compiler.Ops(compiler.JMP),
				compiler.Ops(compiler.STOP),
				compiler.Stream{compiler.Label(0)},
				compiler.Ops(compiler.ADD),
			),
			// Ref(0) is 2 bytes (offsets 0-1), JMP is 1 byte (offset 2), STOP is 1
			// byte (offset 3); LABEL_0 sits at offset 4.
			want: "PUSH 4 JMP STOP ADD",
		},
		{
			desc: "an unresolved label is an error",
			in:   compiler.Append(compiler.Stream{compiler.Ref(7)}, compiler.Ops(compiler.JMP)),
			err:  "unresolved-label",
		},
		{
			desc:       "tx.data prelude is sized by 32 * numVars",
			in:         compiler.Ops(compiler.STOP),
			usesTxData: true,
			numVars:    3,
			want:       "PUSH 96 DUP CALLDATA STOP",
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := compiler.Assemble(tc.in, tc.usesTxData, tc.numVars)
			if tc.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, streamString(got))
		})
	}
}
