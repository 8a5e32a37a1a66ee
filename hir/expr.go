package hir

import "github.com/mrzdevcore/haira/typing"

// Literal is a resolved constant value.
type Literal struct {
	Val interface{}
	Typ typing.DataType
}

func (l *Literal) exprNode()            {}
func (l *Literal) Type() typing.DataType { return l.Typ }

// LocalRef names a parameter, let-binding, or lambda/match/loop binder
// already in scope. HIR has no notion of a "global" ref distinct from a
// local one; a bare top-level function name resolves through Call's Callee
// string instead, per CIR's own name-based Call convention (spec §4.3).
type LocalRef struct {
	Name string
	Typ  typing.DataType
}

func (r *LocalRef) exprNode()            {}
func (r *LocalRef) Type() typing.DataType { return r.Typ }

// FieldAccess is `record.Field` (GetField).
type FieldAccess struct {
	Receiver Expr
	Field    string
	Typ      typing.DataType
}

func (f *FieldAccess) exprNode()            {}
func (f *FieldAccess) Type() typing.DataType { return f.Typ }

// Index is `list[i]` / `map[k]` (GetIndex).
type Index struct {
	Receiver Expr
	Key      Expr
	Typ      typing.DataType
}

func (x *Index) exprNode()            {}
func (x *Index) Type() typing.DataType { return x.Typ }

// FieldValue is one resolved `name: value` pair of a Construct.
type FieldValue struct {
	Name  string
	Value Expr
}

// Construct builds a record value, field order fixed at the record's first
// construction site (spec §4.2 rule 2).
type Construct struct {
	RecordName string
	Fields     []FieldValue
	Typ        typing.DataType
}

func (c *Construct) exprNode()            {}
func (c *Construct) Type() typing.DataType { return c.Typ }

// CreateList builds a list value from its elements.
type CreateList struct {
	Elems []Expr
	Typ   typing.DataType
}

func (c *CreateList) exprNode()            {}
func (c *CreateList) Type() typing.DataType { return c.Typ }

// MapPair is one resolved `key: value` entry of a CreateMap.
type MapPair struct {
	Key   Expr
	Value Expr
}

// CreateMap builds a map value from its entries.
type CreateMap struct {
	Pairs []MapPair
	Typ   typing.DataType
}

func (c *CreateMap) exprNode()            {}
func (c *CreateMap) Type() typing.DataType { return c.Typ }

// BinaryOp is a resolved binary operator application.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
	Typ   typing.DataType
}

func (b *BinaryOp) exprNode()            {}
func (b *BinaryOp) Type() typing.DataType { return b.Typ }

// UnaryOp is a resolved unary operator application.
type UnaryOp struct {
	Op      string
	Operand Expr
	Typ     typing.DataType
}

func (u *UnaryOp) exprNode()            {}
func (u *UnaryOp) Type() typing.DataType { return u.Typ }

// Call is a direct call to a top-level function, named (never an indirect
// value call — Haira has no first-class function values outside of the
// lambdas CollectionOp carries, which MIR/codegen lower to closures rather
// than general call targets).
type Call struct {
	Callee string
	Args   []Expr
	Typ    typing.DataType
}

func (c *Call) exprNode()            {}
func (c *Call) Type() typing.DataType { return c.Typ }

// Lambda is an inline function value: the transform/predicate/combine/
// comparator argument of a CollectionOp, or a user-written lambda expression
// after desugaring. Lambda is never itself a standalone Call target.
type Lambda struct {
	Params []Param
	Body   *Block
	Typ    typing.DataType // FuncType
}

func (l *Lambda) exprNode()            {}
func (l *Lambda) Type() typing.DataType { return l.Typ }

// CollectionOpKind is the closed set of collection pipeline operations
// (spec §4.3): Map, Filter, Reduce, GroupBy, Sort each carry a lambda; Take
// carries a count; Count/Sum/Min/Max/Avg carry neither.
type CollectionOpKind int

const (
	OpMap CollectionOpKind = iota
	OpFilter
	OpReduce
	OpGroupBy
	OpSort
	OpTake
	OpCount
	OpSum
	OpMin
	OpMax
	OpAvg
)

// CollectionOp is a list/collection pipeline operation over Source. Lambda
// is non-nil for Map/Filter/Reduce/GroupBy/Sort; Seed is non-nil only for
// Reduce (its fold accumulator's initial value); N is non-nil only for Take.
type CollectionOp struct {
	Kind   CollectionOpKind
	Source Expr
	Lambda *Lambda
	Seed   Expr
	N      Expr
	Typ    typing.DataType
}

func (c *CollectionOp) exprNode()            {}
func (c *CollectionOp) Type() typing.DataType { return c.Typ }

// IfExpr is `if cond { then } else { els }` used as an expression; Else is
// nil for a statement-only if (its Type is then typing.PrimType{Kind: Unit}).
type IfExpr struct {
	Cond Expr
	Then *Block
	Else *Block
	Typ  typing.DataType
}

func (i *IfExpr) exprNode()            {}
func (i *IfExpr) Type() typing.DataType { return i.Typ }

// Pattern is the closed set of resolved match patterns (mirrors
// ast.Pattern, post type-checking).
type Pattern interface {
	patternNode()
}

type WildcardPattern struct{}

func (WildcardPattern) patternNode() {}

type BindPattern struct{ Name string }

func (BindPattern) patternNode() {}

type LiteralPattern struct{ Value interface{} }

func (LiteralPattern) patternNode() {}

// VariantPattern matches a tagged union's Variant and binds its fields in
// declaration order to Binds.
type VariantPattern struct {
	Variant string
	Binds   []string
}

func (VariantPattern) patternNode() {}

// MatchArm is one `pattern => body` arm, tried in source order — the
// "ordered decision tree via tag dispatch" spec §4.6 calls for; arms are a
// linear chain of tag tests rather than a balanced tree, since Haira match
// arms are evaluated in written order and an earlier arm can shadow a later
// one exactly as written.
type MatchArm struct {
	Pat   Pattern
	Guard Expr // optional; nil if absent
	Body  *Block
}

// MatchExpr is `match subject { arm... }`.
type MatchExpr struct {
	Subject Expr
	Arms    []MatchArm
	Typ     typing.DataType
}

func (m *MatchExpr) exprNode()            {}
func (m *MatchExpr) Type() typing.DataType { return m.Typ }

// LoopExpr is an unconditional loop, exited only via a Break inside Body.
// `for`/`while` surface syntax desugars to this (spec §4.6); Loop always
// evaluates to unit.
type LoopExpr struct {
	Body *Block
	Typ  typing.DataType
}

func (l *LoopExpr) exprNode()            {}
func (l *LoopExpr) Type() typing.DataType { return l.Typ }

// BlockExpr evaluates Block and takes the value of its final statement if
// that statement is an ExprStmt, else unit.
type BlockExpr struct {
	Block *Block
	Typ   typing.DataType
}

func (b *BlockExpr) exprNode()            {}
func (b *BlockExpr) Type() typing.DataType { return b.Typ }
