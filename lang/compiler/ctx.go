package compiler

import "github.com/dolthub/swiss"

// funcInfo is the function table record of spec §3: an ordered parameter
// name list, the entry-point reference token id, and the name of the
// return-address slot.
type funcInfo struct {
	params     []string
	entryLabel int
	returnSlot string
}

// ctx is the explicit compilation context named in spec §9's design notes:
// it owns the variable map, the function table, the label counter, and the
// endif-chain state for exactly one compilation. No package-level mutable
// state survives past a single Compile call — a *ctx is created fresh by
// Compile and never shared across compilations, which is what makes
// concurrent compilations safe (spec §5).
//
// The variable and function tables are backed by *swiss.Map, the
// SwissTable-based hash map the teacher uses for its runtime Value map
// (lang/machine/map.go in the retrieved mna-nenuphar example); here it backs
// the compiler's two side-effect tables instead. Slot allocation order is
// tracked separately in varOrder, a plain encounter-order slice, since
// swiss.Map does not iterate in insertion order and spec §5's slot
// determinism invariant is defined in terms of encounter order, not map
// iteration order.
type ctx struct {
	tables *Tables

	vars     *swiss.Map[string, int]
	varOrder []string // slot index -> name, in allocation order

	funcs *swiss.Map[string, *funcInfo]

	labelCount int

	endifMarker int
	endifKnown  bool

	usesTxData bool // set when the bare "tx.data" pseudo-name is referenced
}

func newCtx(tables *Tables) *ctx {
	return &ctx{
		tables: tables,
		vars:   swiss.NewMap[string, int](8),
		funcs:  swiss.NewMap[string, *funcInfo](4),
	}
}

// slot returns the slot index for name, allocating a fresh one (dense,
// starting at 0, in encounter order) on first mention. Once assigned, a
// slot is permanent for the lifetime of this ctx (spec §3 invariants).
func (c *ctx) slot(name string) int {
	if i, ok := c.vars.Get(name); ok {
		return i
	}
	i := len(c.varOrder)
	c.vars.Put(name, i)
	c.varOrder = append(c.varOrder, name)
	return i
}

// hasSlot reports whether name has already been assigned a slot, without
// allocating one.
func (c *ctx) hasSlot(name string) (int, bool) {
	return c.vars.Get(name)
}

// newLabel draws a fresh label id by post-increment, shared across the
// whole compilation (spec §3).
func (c *ctx) newLabel() int {
	id := c.labelCount
	c.labelCount++
	return id
}

// defineFunc records a user procedure in the function table. Populated only
// by a def statement.
func (c *ctx) defineFunc(name string, info *funcInfo) {
	c.funcs.Put(name, info)
}

func (c *ctx) lookupFunc(name string) (*funcInfo, bool) {
	return c.funcs.Get(name)
}

// numVars returns the number of distinct variables seen so far, used by the
// assembler's tx.data prelude (spec §9 / SPEC_FULL §14: "_TXDATALOC"
// resolves to PUSH <32*nvars> DUP CALLDATA).
func (c *ctx) numVars() int {
	return len(c.varOrder)
}
