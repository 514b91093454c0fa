package compiler

import "github.com/mna/cllc/lang/ast"

// lowerStmt lowers a statement (spec §4.4). Stack effect: 0, except for a
// bare "return", which intentionally leaves +1 (see the case below).
func (c *ctx) lowerStmt(n ast.Node) (Stream, error) {
	switch v := n.(type) {
	case *ast.Atom:
		return c.lowerStmtAtom(v)
	case *ast.Compound:
		return c.lowerStmtCompound(v)
	default:
		return nil, errf(InvalidOp, n, "unsupported statement node")
	}
}

func (c *ctx) lowerStmtAtom(a *ast.Atom) (Stream, error) {
	switch a.Text {
	case "stop":
		return Ops(STOP), nil
	case "tx.datan":
		return Ops(DATAN), nil
	default:
		return nil, errf(InvalidOp, a, "bare atom %q is not a legal statement", a.Text)
	}
}

func (c *ctx) lowerStmtCompound(comp *ast.Compound) (Stream, error) {
	switch comp.Head {
	case "seq":
		return c.lowerSeq(comp)
	case "set":
		return c.lowerSetStmt(comp)
	case "mset":
		return c.lowerMset(comp)
	case "if":
		c.endifKnown = false
		return c.lowerIfChain(comp)
	case "elif", "else":
		return c.lowerIfChain(comp)
	case "while":
		return c.lowerWhile(comp)
	case "def":
		return c.lowerDef(comp)
	case "return":
		return c.lowerReturn(comp)
	case "fun":
		return c.lowerStmtFun(comp)
	default:
		return nil, errf(InvalidOp, comp, "unrecognized statement head %q", comp.Head)
	}
}

func (c *ctx) lowerSeq(comp *ast.Compound) (Stream, error) {
	var out Stream
	for _, ch := range comp.Children {
		s, err := c.lowerStmt(ch)
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return out, nil
}

// lowerSet implements the "set" statement (spec §4.4): lower(rexpr),
// lowerLeft(lexpr), then SSTORE or MSTORE depending on the left-expression's
// classification.
func (c *ctx) lowerSet(lexpr, rexpr ast.Node) (Stream, error) {
	class, err := classifyLeft(lexpr)
	if err != nil {
		return nil, err
	}
	rs, err := c.lowerRight(rexpr)
	if err != nil {
		return nil, err
	}
	ls, err := c.lowerLeft(lexpr)
	if err != nil {
		return nil, err
	}
	store := MSTORE
	if class == leftStorage {
		store = SSTORE
	}
	return Append(rs, ls, Ops(store)), nil
}

func (c *ctx) lowerSetStmt(comp *ast.Compound) (Stream, error) {
	if len(comp.Children) != 2 {
		return nil, errf(ArityMismatch, comp, "set expects 2 operands, got %d", len(comp.Children))
	}
	return c.lowerSet(comp.Children[0], comp.Children[1])
}

// lowerMset implements "mset(target..., rexpr)" (spec §4.4): the right-hand
// side is an independent expression re-lowered once per target, in order —
// the reference compiler never factors it into a temporary, so a target
// that reads the same storage/memory the rexpr touches observes whatever
// the previous target's store just wrote.
func (c *ctx) lowerMset(comp *ast.Compound) (Stream, error) {
	if len(comp.Children) < 2 {
		return nil, errf(ArityMismatch, comp, "mset expects at least 1 target and a value, got %d operands", len(comp.Children))
	}
	targets := comp.Children[:len(comp.Children)-1]
	rexpr := comp.Children[len(comp.Children)-1]

	var out Stream
	for _, target := range targets {
		s, err := c.lowerSet(target, rexpr)
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return out, nil
}

// lowerIfChain implements the if/elif/else chain (spec §4.4, §9). comp's
// Head is "if" or "elif" for a conditioned branch (Children: cond, body,
// [continuation]) or "else" for the terminal branch (Children: body).
//
// Each conditioned branch draws its own label n, used as the target its
// false path jumps to (the start of the rest of the chain). Separately, the
// first branch that needs to join past the rest of the chain (i.e. has a
// continuation) reserves a second, distinct label as the chain's shared
// endif marker; every later branch's join reuses that same marker rather
// than drawing its own, and the terminal branch (else, or a conditioned
// branch with no continuation) closes the chain by placing LABEL_<endif>
// right after its own body. A nested if inside a branch's body runs its own
// independent chain, so endifMarker/endifKnown are saved before lowering the
// body and restored after, regardless of which branch kind the body
// belongs to.
func (c *ctx) lowerIfChain(comp *ast.Compound) (Stream, error) {
	if comp.Head == "else" {
		if len(comp.Children) != 1 {
			return nil, errf(ArityMismatch, comp, "else expects 1 operand, got %d", len(comp.Children))
		}
		if !c.endifKnown {
			// Standalone else with no preceding conditioned branch in this chain:
			// still closes cleanly by minting its own join label.
			c.endifMarker = c.newLabel()
			c.endifKnown = true
		}
		savedMarker, savedKnown := c.endifMarker, c.endifKnown
		body, err := c.lowerStmt(comp.Children[0])
		c.endifMarker, c.endifKnown = savedMarker, savedKnown
		if err != nil {
			return nil, err
		}
		return Append(body, Stream{Label(c.endifMarker)}), nil
	}

	if len(comp.Children) != 2 && len(comp.Children) != 3 {
		return nil, errf(ArityMismatch, comp, "%s expects a condition and a body (and optional continuation), got %d operands", comp.Head, len(comp.Children))
	}
	cond, bodyNode := comp.Children[0], comp.Children[1]
	var cont ast.Node
	if len(comp.Children) == 3 {
		cont = comp.Children[2]
	}

	n := c.newLabel()
	condStream, err := c.lowerRight(cond)
	if err != nil {
		return nil, err
	}

	savedMarker, savedKnown := c.endifMarker, c.endifKnown
	body, err := c.lowerStmt(bodyNode)
	c.endifMarker, c.endifKnown = savedMarker, savedKnown
	if err != nil {
		return nil, err
	}

	prefix := Append(condStream, Ops(NOT), Stream{Ref(n)}, Ops(SWAP, JMPI))

	if cont == nil {
		// Boundary rule: no continuation means no tail join — this branch's own
		// label is the end of the whole construct. When it ends a chain whose
		// endif marker was already reserved (an elif with no else), the marker
		// is placed at the same position so the earlier branches' joins resolve.
		end := Stream{Label(n)}
		if c.endifKnown {
			end = Append(end, Stream{Label(c.endifMarker)})
		}
		return Append(prefix, body, end), nil
	}

	contComp, ok := cont.(*ast.Compound)
	if !ok {
		return nil, errf(MalformedAccess, comp, "%s's continuation must be an elif/else node", comp.Head)
	}
	if !c.endifKnown {
		c.endifMarker = c.newLabel()
		c.endifKnown = true
	}
	contStream, err := c.lowerIfChain(contComp)
	if err != nil {
		return nil, err
	}
	tail := Append(Stream{Ref(c.endifMarker)}, Ops(JMP), Stream{Label(n)}, contStream)
	return Append(prefix, body, tail), nil
}

// lowerWhile implements "while(cond, body)" (spec §4.4): exactly two labels,
// one for the loop test (the back-edge target) and one for the exit.
func (c *ctx) lowerWhile(comp *ast.Compound) (Stream, error) {
	if len(comp.Children) != 2 {
		return nil, errf(ArityMismatch, comp, "while expects 2 operands, got %d", len(comp.Children))
	}
	cond, bodyNode := comp.Children[0], comp.Children[1]

	top := c.newLabel()
	exit := c.newLabel()

	condStream, err := c.lowerRight(cond)
	if err != nil {
		return nil, err
	}
	body, err := c.lowerStmt(bodyNode)
	if err != nil {
		return nil, err
	}

	return Append(
		Stream{Label(top)},
		condStream,
		Ops(NOT),
		Stream{Ref(exit)},
		Ops(SWAP, JMPI),
		body,
		Stream{Ref(top)},
		Ops(JMP),
		Stream{Label(exit)},
	), nil
}

// lowerDef implements "def(signature, body)" (spec §4.4/§4.5): signature is
// fun(name, param...). Registers the function in the table before lowering
// the body so recursive calls resolve, then emits the skip-over-body jump,
// the entry label, the body, and the epilogue that loads the stashed return
// address and jumps back to the caller.
func (c *ctx) lowerDef(comp *ast.Compound) (Stream, error) {
	if len(comp.Children) != 2 {
		return nil, errf(ArityMismatch, comp, "def expects a signature and a body, got %d operands", len(comp.Children))
	}
	sig, ok := comp.Children[0].(*ast.Compound)
	if !ok || sig.Head != "fun" || len(sig.Children) == 0 {
		return nil, errf(MalformedAccess, comp, "def's first operand must be fun(name, params...)")
	}
	nameAtom, ok := ast.IsAtom(sig.Children[0])
	if !ok {
		return nil, errf(MalformedAccess, comp, "def's function name must be an atom")
	}
	name := nameAtom.Text

	params := make([]string, 0, len(sig.Children)-1)
	for _, p := range sig.Children[1:] {
		pAtom, ok := ast.IsAtom(p)
		if !ok {
			return nil, errf(MalformedAccess, comp, "def's parameters must be atoms")
		}
		params = append(params, pAtom.Text)
		c.slot(pAtom.Text)
	}

	skip := c.newLabel()
	entry := c.newLabel()
	returnSlot := name + "_returnpoint"
	rpAddr := c.slot(returnSlot)

	c.defineFunc(name, &funcInfo{params: params, entryLabel: entry, returnSlot: returnSlot})

	body, err := c.lowerStmt(comp.Children[1])
	if err != nil {
		return nil, err
	}

	return Append(
		Stream{Ref(skip)}, Ops(JMP),
		Stream{Label(entry)},
		body,
		push(int64(rpAddr)), Ops(MLOAD, JMP),
		Stream{Label(skip)},
	), nil
}

// lowerReturn lowers "return(expr)" (spec §4.4/§9). Unlike every other
// statement this leaves +1 value on the stack — the def epilogue relies on
// it. Whether a bare return outside any def is meaningful is left as an
// open question the same way the reference compiler leaves it: this emits
// the value with nothing to consume it, same as the source this was
// distilled from.
func (c *ctx) lowerReturn(comp *ast.Compound) (Stream, error) {
	if len(comp.Children) != 1 {
		return nil, errf(ArityMismatch, comp, "return expects 1 operand, got %d", len(comp.Children))
	}
	return c.lowerRight(comp.Children[0])
}

// lowerStmtFun lowers a "fun" call used in statement position: the call's
// value, if any, is popped so every statement stays stack-neutral
// (SPEC_FULL.md §14 generalizes this beyond the reference's mktx/suicide
// special cases to any builtin or user call used for its side effect only).
func (c *ctx) lowerStmtFun(comp *ast.Compound) (Stream, error) {
	s, returns, _, err := c.lowerFunValue(comp)
	if err != nil {
		return nil, err
	}
	if returns == 1 {
		s = Append(s, Ops(POP))
	}
	return s, nil
}
