package mir

import "github.com/mrzdevcore/haira/typing"

// Instr is a non-terminating, SSA-bound operation within a Block.
type Instr interface {
	Result() string
	Type() typing.DataType
}

// OpCode enumerates the closed set of pure/side-effect-free operators an
// OperInstr applies, named OC-prefixed the way the teacher's own mir
// package names its op codes (`OCAdd`, `OCEq`, ...), extended here with
// Haira's comparison and logical operators.
type OpCode int

const (
	OCAdd OpCode = iota
	OCSub
	OCMul
	OCDiv
	OCMod

	OCEq
	OCNEq
	OCLt
	OCGt
	OCLtEq
	OCGtEq

	OCNot
	OCAnd
	OCOr
	OCNeg
)

// OperInstr applies OpCode to Operands, binding the result to Result.
type OperInstr struct {
	Res      string
	Op       OpCode
	Operands []Value
	Typ      typing.DataType
}

func (i *OperInstr) Result() string          { return i.Res }
func (i *OperInstr) Type() typing.DataType { return i.Typ }

// FieldInstr reads a record field (GetField).
type FieldInstr struct {
	Res    string
	Struct Value
	Field  string
	Typ    typing.DataType
}

func (i *FieldInstr) Result() string          { return i.Res }
func (i *FieldInstr) Type() typing.DataType { return i.Typ }

// IndexInstr reads a list/map element (GetIndex).
type IndexInstr struct {
	Res    string
	Recv   Value
	Key    Value
	Typ    typing.DataType
}

func (i *IndexInstr) Result() string          { return i.Res }
func (i *IndexInstr) Type() typing.DataType { return i.Typ }

// FieldAssign is the one instruction with a visible side effect short of a
// call: `SetField`. It has no meaningful SSA result of its own (spec §4.3's
// SetField is a mutation, not a value-producing op), so Res is only ever
// bound to a synthetic discard name.
type FieldAssign struct {
	Res    string
	Struct Value
	Field  string
	Val    Value
}

func (i *FieldAssign) Result() string          { return i.Res }
func (i *FieldAssign) Type() typing.DataType { return typing.Unit }

// ConstructInstr builds a record value (Construct).
type ConstructInstr struct {
	Res        string
	RecordName string
	FieldNames []string
	FieldVals  []Value
	Typ        typing.DataType
}

func (i *ConstructInstr) Result() string          { return i.Res }
func (i *ConstructInstr) Type() typing.DataType { return i.Typ }

// ListInstr builds a list value (CreateList).
type ListInstr struct {
	Res   string
	Elems []Value
	Typ   typing.DataType
}

func (i *ListInstr) Result() string          { return i.Res }
func (i *ListInstr) Type() typing.DataType { return i.Typ }

// MapInstr builds a map value (CreateMap).
type MapInstr struct {
	Res   string
	Keys  []Value
	Vals  []Value
	Typ   typing.DataType
}

func (i *MapInstr) Result() string          { return i.Res }
func (i *MapInstr) Type() typing.DataType { return i.Typ }

// CollectionOp mirrors hir.CollectionOpKind for the closed set of
// list/collection pipeline operations (spec §4.3): Map, Filter, Reduce,
// GroupBy, Sort, Take, Count, Sum, Min, Max, Avg.
type CollectionOp int

const (
	MCMap CollectionOp = iota
	MCFilter
	MCReduce
	MCGroupBy
	MCSort
	MCTake
	MCCount
	MCSum
	MCMin
	MCMax
	MCAvg
)

// CollectionInstr applies a CollectionOp to Source. Lambda is the nested
// MIR function built for the transform/predicate/combine/comparator
// argument (present for Map/Filter/Reduce/GroupBy/Sort); N is the element
// count for Take; Seed is Reduce's initial accumulator.
type CollectionInstr struct {
	Res    string
	Op     CollectionOp
	Source Value
	Lambda *Func
	Seed   Value
	N      Value
	Typ    typing.DataType
}

func (i *CollectionInstr) Result() string          { return i.Res }
func (i *CollectionInstr) Type() typing.DataType { return i.Typ }
