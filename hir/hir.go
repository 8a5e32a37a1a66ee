// Package hir implements the CIR→HIR Materializer (component E) and the HIR
// Desugaring pass (component F). HIR sits between the untyped/CIR front
// ends and the basic-block MIR (component G): it is fully typed, uses a
// closed statement/expression node set, and no longer contains any of the
// surface sugar spec §4.6 lists (string interpolation, pipe, range,
// for/while, method calls, the `?` operator) — every function reaching this
// package's output, whether hand-written or AI-synthesized, is expressed in
// exactly the same small vocabulary before MIR lowering ever sees it.
package hir

import "github.com/mrzdevcore/haira/typing"

// Node is the root interface implemented by every HIR node.
type Node interface {
	Type() typing.DataType
}

// Expr is a value-producing HIR node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a HIR statement, appearing in a Block's ordered list.
type Stmt interface {
	stmtNode()
}

// Block is an ordered sequence of statements opening a new local scope.
type Block struct {
	Stmts []Stmt
}

// FuncSource records whether a Function's body was written by hand or
// produced by the AI Intent Engine. The build driver's MIR cache key
// (hirDigest) includes it; MIR, codegen and `haira inspect` do not read it.
type FuncSource int

const (
	SourceUser FuncSource = iota
	SourceAI
)

// Param is a lowered function parameter: a name and its resolved type.
type Param struct {
	Name string
	Type typing.DataType
}

// Function is a fully lowered, typed function body ready for MIR
// construction (component G).
type Function struct {
	Name       string
	Params     []Param
	ReturnType typing.DataType
	Body       *Block
	Public     bool
	Source     FuncSource
	Confidence float64 // only meaningful when Source == SourceAI
}
