package compiler

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders an already-assembled token stream (no LABEL_n/REF_n
// markers left — see Assemble) as a flat, human-readable listing: one
// mnemonic per line, a PUSH's immediate inline on the same line, and a
// trailing "# NNN" byte-offset comment per instruction (SPEC_FULL.md §13),
// in the spirit of the teacher's section-based Dasm but flattened to match
// this package's simpler token model.
func Disassemble(tokens Stream) []byte {
	var buf bytes.Buffer
	offset := 0
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		op, ok := t.IsOp()
		if !ok {
			// Assemble never leaves a Label/Ref token in its output; a caller
			// passing a pre-assembly stream gets a best-effort rendering instead
			// of a panic.
			fmt.Fprintf(&buf, "%s # %d\n", t.String(), offset)
			offset += tokenSize(t)
			continue
		}
		if op == PUSH && i+1 < len(tokens) {
			if imm, ok := tokens[i+1].IsImm(); ok {
				fmt.Fprintf(&buf, "PUSH %d # %d\n", imm, offset)
				offset += sizeOp + sizeImm
				i++
				continue
			}
		}
		fmt.Fprintf(&buf, "%s # %d\n", op.String(), offset)
		offset += sizeOp
	}
	return buf.Bytes()
}

// AssembleListing parses the listing format Disassemble produces back into
// a token stream, mirroring the teacher's Asm (bufio.Scanner-based, one
// "invalid opcode: ..." error per malformed line). Round-tripping
// AssembleListing(Disassemble(toks)) reproduces toks exactly.
func AssembleListing(b []byte) (Stream, error) {
	var out Stream
	sc := bufio.NewScanner(bytes.NewReader(b))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		mnemonic := fields[0]
		op, ok := LookupOpcode(mnemonic)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid opcode: %s", lineNo, mnemonic)
		}
		out = append(out, Op(op))
		if op == PUSH {
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: PUSH requires exactly one immediate", lineNo)
			}
			n, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid PUSH immediate %q: %w", lineNo, fields[1], err)
			}
			out = append(out, Imm(n))
		} else if len(fields) != 1 {
			return nil, fmt.Errorf("line %d: %s takes no operand", lineNo, mnemonic)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
