package compiler

import "fmt"

// Size model for byte-offset computation (spec §4.1/§9, DESIGN.md):
// an opcode or an immediate each occupy one byte, a LABEL_n marker occupies
// zero bytes (it names a position, it is not an instruction), and a REF_n
// marker — which Assemble always resolves to "PUSH <offset>" — occupies two
// bytes (the PUSH opcode plus its one-byte immediate).
const (
	sizeOp    = 1
	sizeImm   = 1
	sizeLabel = 0
	sizeRef   = 2
)

// txDataLocName is the original source's name for the slot that the bare
// "tx.data" pseudo-name refers to (original_source/cllcompiler.py's
// "_TXDATALOC"). The lowerer does not allocate a slot under this name: it
// gives bare "tx.data" an ordinary slot named "tx.data" and sets
// ctx.usesTxData, and Assemble then prepends the CALLDATA bulk-load prelude.
const txDataLocName = "_TXDATALOC"

// Assemble runs the two-pass backpatching assembler (spec §4.1): pass one
// walks tokens computing each LABEL_n's byte offset under the size model
// above, pass two rewrites every REF_n into a concrete "PUSH <offset>" and
// drops the LABEL_n markers. If usesTxData is set, a CALLDATA bulk-load
// prelude is prepended first (SPEC_FULL.md §14), sized for numVars
// 32-byte-wide variable slots.
func Assemble(tokens Stream, usesTxData bool, numVars int) (Stream, error) {
	if usesTxData {
		prelude := Append(push(int64(32*numVars)), Ops(DUP), Ops(CALLDATA))
		tokens = Append(prelude, tokens)
	}

	offsets := make(map[int]int, 8)
	offset := 0
	for _, t := range tokens {
		if id, ok := t.IsLabel(); ok {
			offsets[id] = offset
			continue
		}
		offset += tokenSize(t)
	}

	out := make(Stream, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := t.IsLabel(); ok {
			continue
		}
		if id, ok := t.IsRef(); ok {
			target, ok := offsets[id]
			if !ok {
				return nil, &Error{Kind: UnresolvedLabel, msg: fmt.Sprintf("reference to undefined LABEL_%d", id)}
			}
			out = append(out, Op(PUSH), Imm(int64(target)))
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func tokenSize(t Token) int {
	switch {
	case t.kind == tokOp:
		return sizeOp
	case t.kind == tokImm:
		return sizeImm
	case t.kind == tokRef:
		return sizeRef
	default:
		return sizeLabel
	}
}
