// Package mir implements the MIR/CFG/SSA stage (component G): it lowers an
// hir.Function into a true basic-block control flow graph in SSA form —
// structurally original relative to the teacher's own `mir`/`lower`
// packages, which represent control flow as a tree of nested If/Loop
// statement lists rather than basic blocks edges. Haira's join points use
// block parameters (the abstract φ-node spec §4.7 describes) instead of a
// separate phi instruction kind, following the same block-argument
// convention as a direct-style SSA IR.
package mir

import "github.com/mrzdevcore/haira/typing"

// Value is anything usable as an instruction/terminator operand: either a
// compile-time constant or a reference to an earlier instruction's result
// or a block parameter, both carried by name within the owning Func.
type Value interface {
	Type() typing.DataType
}

// Const is an inlined compile-time constant operand.
type Const struct {
	Val interface{}
	Typ typing.DataType
}

func (c Const) Type() typing.DataType { return c.Typ }

// Ref names an earlier instruction's result or a block parameter. Names are
// unique within a Func — MIR construction never reuses a name, the same
// guarantee plain SSA gives for free.
type Ref struct {
	Name string
	Typ  typing.DataType
}

func (r Ref) Type() typing.DataType { return r.Typ }

// Param is one block parameter: the incoming value a predecessor edge must
// supply, standing in for a φ-node at this join point.
type Param struct {
	Name string
	Typ  typing.DataType
}

// Block is one basic block: an ordered, terminator-free instruction list
// ending in exactly one Term. Every Block belongs to exactly one Func and
// is only ever entered through its Params.
type Block struct {
	ID     int
	Params []Param
	Instrs []Instr
	Term   Terminator
}

// Func is a fully built MIR function, ready for the fixed optimizer
// pipeline (spec §4.7) and then the Codegen Bridge (component H).
type Func struct {
	Name       string
	Params     []Param
	ReturnType typing.DataType
	Blocks     []*Block
	Entry      *Block
	Public     bool
}
