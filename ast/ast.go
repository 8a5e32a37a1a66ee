// Package ast defines the untyped syntax tree Haira's parser hands to the
// semantic middle-end. The lexer and parser that build these nodes are
// out of the core pipeline's scope (spec.md §1); ast is the contract
// between that collaborator and everything in this repository.
package ast

import "github.com/mrzdevcore/haira/report"

// Node is the root interface implemented by every AST node.
type Node interface {
	Span() report.Span
}

// Expr is an expression node: it produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node: it appears in a block's ordered statement list.
type Stmt interface {
	Node
	stmtNode()
}

// Def is a top-level (module-scope) definition.
type Def interface {
	Node
	defNode()
	DefName() string
}

// Base embeds a span in every concrete node so they don't each have to
// declare and thread one by hand.
type Base struct {
	Sp report.Span
}

// NewBase constructs a Base carrying the given span. Every constructor the
// parser calls threads its span through this.
func NewBase(sp report.Span) Base { return Base{Sp: sp} }

func (b Base) Span() report.Span { return b.Sp }

// TypeExpr is the syntactic spelling of a type annotation, as written by the
// user (distinct from typing.DataType, which is the resolved, post-inference
// type). "unknown" return types (spec §3) are represented by a nil TypeExpr.
type TypeExpr interface {
	Node
	typeExprNode()
}

// NamedTypeExpr is a bare or qualified name used as a type: `int`, `string`,
// `Point`, `dir.file.Name`.
type NamedTypeExpr struct {
	Base
	Name string
}

func (*NamedTypeExpr) typeExprNode() {}

// GenericTypeExpr is a parameterized type: `List(int)`, `Map(string, int)`,
// `Option(T)`.
type GenericTypeExpr struct {
	Base
	Name string
	Args []TypeExpr
}

func (*GenericTypeExpr) typeExprNode() {}

// FuncTypeExpr is a function type: `(int, string) -> bool`.
type FuncTypeExpr struct {
	Base
	Params []TypeExpr
	Return TypeExpr
}

func (*FuncTypeExpr) typeExprNode() {}

// File is a single parsed Haira source file.
type File struct {
	Path  string
	Defs  []Def
}
