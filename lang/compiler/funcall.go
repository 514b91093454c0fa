package compiler

import "github.com/mna/cllc/lang/ast"

// lowerFunValue lowers a "fun" node's call and reports how many values it
// leaves on the stack (0 or 1), so the caller — lowerRightFun in expression
// position, lowerStmtFun in statement position — can apply its own
// position-specific rule (error on 0 for an expression, POP on 1 for a
// statement; spec §4.3/§4.4, generalized per SPEC_FULL.md §14).
func (c *ctx) lowerFunValue(comp *ast.Compound) (Stream, int, string, error) {
	if len(comp.Children) == 0 {
		return nil, 0, "", errf(MalformedAccess, comp, "fun node requires a function name")
	}
	nameAtom, ok := ast.IsAtom(comp.Children[0])
	if !ok {
		return nil, 0, "", errf(MalformedAccess, comp, "fun node's first child must be a name")
	}
	name := nameAtom.Text
	args := comp.Children[1:]

	switch name {
	case "array":
		s, err := c.lowerBumpAlloc(comp, args, true)
		return s, 1, name, err
	case "bytes":
		s, err := c.lowerBumpAlloc(comp, args, false)
		return s, 1, name, err
	case "mktx":
		s, err := c.lowerMktx(comp, args)
		return s, 0, name, err
	}

	if entry, ok := c.tables.Fun[name]; ok {
		if len(args) != entry.Arity {
			return nil, 0, name, errf(ArityMismatch, comp, "builtin %q expects %d arguments, got %d", name, entry.Arity, len(args))
		}
		var out Stream
		for _, a := range args {
			s, err := c.lowerRight(a)
			if err != nil {
				return nil, 0, name, err
			}
			out = append(out, s...)
		}
		return Append(out, Ops(entry.Opcode)), entry.Returns, name, nil
	}

	if info, ok := c.lookupFunc(name); ok {
		s, err := c.lowerCall(comp, name, info, args)
		return s, 1, name, err
	}

	return nil, 0, name, errf(UndefinedFunc, comp, "undefined function %q", name)
}

// lowerBumpAlloc implements the fixed "bump allocate array/bytes slot"
// sequences (spec §4.3, SPEC_FULL §14). scaleWords is true for "array"
// (each element is a 32-byte word) and false for "bytes" (byte-granular).
func (c *ctx) lowerBumpAlloc(comp *ast.Compound, args []ast.Node, scaleWords bool) (Stream, error) {
	if len(args) != 1 {
		return nil, errf(ArityMismatch, comp, "%q expects 1 argument, got %d", comp.Children[0].Sprint(), len(args))
	}
	lenStream, err := c.lowerRight(args[0])
	if err != nil {
		return nil, err
	}
	out := lenStream
	if scaleWords {
		out = Append(out, push(32), Ops(MUL))
	}
	return Append(out, Ops(MSIZE, SWAP, MSIZE, ADD), push(1), Ops(SUB), push(0), Ops(MSTORE8)), nil
}

// lowerMktx implements fun(mktx, to, value, datan, datastart) (SPEC_FULL.md
// §14, grounded on original_source/cllcompiler.py's mktx handling): the
// arguments are declared to,value,datan,datastart but lowered in the
// reverse order before the fixed-arity MKTX opcode.
func (c *ctx) lowerMktx(comp *ast.Compound, args []ast.Node) (Stream, error) {
	if len(args) != 4 {
		return nil, errf(ArityMismatch, comp, "mktx expects 4 arguments, got %d", len(args))
	}
	to, value, datan, datastart := args[0], args[1], args[2], args[3]
	var out Stream
	for _, a := range []ast.Node{datastart, datan, value, to} {
		s, err := c.lowerRight(a)
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return Append(out, Ops(MKTX)), nil
}

// storeSlot stores value (already a +1-effect stream) into the named
// variable's slot. Both the return-address slot and the parameter slots are
// ordinary variables, never storage or indexed locations, so this always
// resolves to lowerLeft-of-an-atom (a bare PUSH) followed by MSTORE — it
// does not need the full classifyLeft/lowerSet machinery the "set" statement
// uses for arbitrary left-expressions.
func (c *ctx) storeSlot(name string, value Stream) Stream {
	addr := push(int64(c.slot(name)))
	return Append(value, addr, Ops(MSTORE))
}

// lowerCall implements the user-procedure calling convention (spec §4.5): a
// fresh return label is reserved, the return address and each argument are
// stored into the callee's slots, then control transfers to the callee's
// entry point. Stack effect: +1 (the callee's single return value, left by
// its "return" statement and passed through by the epilogue in lowerDef).
func (c *ctx) lowerCall(comp *ast.Compound, name string, info *funcInfo, args []ast.Node) (Stream, error) {
	if len(args) != len(info.params) {
		return nil, errf(ArityMismatch, comp, "%q expects %d arguments, got %d", name, len(info.params), len(args))
	}

	ret := c.newLabel()
	out := c.storeSlot(info.returnSlot, Stream{Ref(ret)})

	for i, a := range args {
		argStream, err := c.lowerRight(a)
		if err != nil {
			return nil, err
		}
		out = Append(out, c.storeSlot(info.params[i], argStream))
	}

	out = Append(out, Stream{Ref(info.entryLabel)}, Ops(JMP), Stream{Label(ret)})
	return out, nil
}
