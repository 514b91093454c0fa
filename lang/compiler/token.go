package compiler

import "fmt"

// tokKind distinguishes the four shapes a Token can take (spec §4.1).
type tokKind uint8

const (
	tokOp tokKind = iota
	tokImm
	tokLabel
	tokRef
)

// Token is one element of the flat lowering output: an opcode mnemonic, an
// immediate integer (only ever directly following a PUSH token), a label
// marker (LABEL_n), or a forward/backward reference (REF_n). Label and ref
// tokens are consumed by Assemble and never appear in the final stream.
type Token struct {
	kind tokKind
	op   Opcode
	imm  int64
	id   int
}

// Op returns an opcode token.
func Op(op Opcode) Token { return Token{kind: tokOp, op: op} }

// Imm returns an immediate-integer token.
func Imm(n int64) Token { return Token{kind: tokImm, imm: n} }

// Label returns a LABEL_n marker token.
func Label(id int) Token { return Token{kind: tokLabel, id: id} }

// Ref returns a REF_n reference token.
func Ref(id int) Token { return Token{kind: tokRef, id: id} }

// IsLabel reports whether t is a LABEL_n marker, returning its id.
func (t Token) IsLabel() (int, bool) {
	if t.kind == tokLabel {
		return t.id, true
	}
	return 0, false
}

// IsRef reports whether t is a REF_n reference, returning its id.
func (t Token) IsRef() (int, bool) {
	if t.kind == tokRef {
		return t.id, true
	}
	return 0, false
}

// IsOp reports whether t is an opcode token.
func (t Token) IsOp() (Opcode, bool) {
	if t.kind == tokOp {
		return t.op, true
	}
	return 0, false
}

// IsImm reports whether t is an immediate-integer token.
func (t Token) IsImm() (int64, bool) {
	if t.kind == tokImm {
		return t.imm, true
	}
	return 0, false
}

func (t Token) String() string {
	switch t.kind {
	case tokOp:
		return t.op.String()
	case tokImm:
		return fmt.Sprintf("%d", t.imm)
	case tokLabel:
		return fmt.Sprintf("LABEL_%d", t.id)
	case tokRef:
		return fmt.Sprintf("REF_%d", t.id)
	default:
		return "?"
	}
}

// Stream is a flat, ordered token sequence: the shared currency between the
// lowerer, the assembler, and the disassembly listing.
type Stream []Token

// Append is a small helper to concatenate streams in lowering order; it
// exists to keep the lowerer's code close to the spec's own
// "lower(a) ; lower(b) ; OP" notation.
func Append(streams ...Stream) Stream {
	var total int
	for _, s := range streams {
		total += len(s)
	}
	out := make(Stream, 0, total)
	for _, s := range streams {
		out = append(out, s...)
	}
	return out
}

// Ops builds a Stream from bare opcodes, for the many fixed instruction
// sequences in the builtin tables.
func Ops(ops ...Opcode) Stream {
	s := make(Stream, len(ops))
	for i, op := range ops {
		s[i] = Op(op)
	}
	return s
}
