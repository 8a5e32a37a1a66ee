package ast

// Param is a function or lambda parameter: a name and its declared type.
type Param struct {
	Name string
	Type TypeExpr // nil if elided (only legal for lambdas passed to CIR ops)
}

// Block is an ordered sequence of statements opening a new scope (spec §3
// Scope kinds: block). Haira blocks are expression-valued: the value of a
// block used as an expression is that of its final ExprStmt, if any.
type Block struct {
	Base
	Stmts []Stmt
}

// LetStmt is a local variable declaration: `let name = expr` or
// `let mut name = expr`.
type LetStmt struct {
	Base
	Name    string
	Mutable bool
	Type    TypeExpr // optional declared annotation
	Value   Expr
}

func (*LetStmt) stmtNode() {}

// AssignStmt is `lhs = rhs` or a compound form (`lhs += rhs`, etc). Compound
// assignment is desugared to `lhs = lhs op rhs` as pass 0 of F.
type AssignStmt struct {
	Base
	Op   string // "=" for plain assignment, else the compound operator ("+=", ...)
	LHS  Expr
	RHS  Expr
}

func (*AssignStmt) stmtNode() {}

// ExprStmt is a bare expression used as a statement (and, if last in its
// block, as that block's value).
type ExprStmt struct {
	Base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// ReturnStmt is `return expr` or a bare `return`.
type ReturnStmt struct {
	Base
	Value Expr // nil for a bare return
}

func (*ReturnStmt) stmtNode() {}

// BreakStmt is `break`, legal only inside a loop scope.
type BreakStmt struct{ Base }

func (*BreakStmt) stmtNode() {}

// ContinueStmt is `continue`, legal only inside a loop scope.
type ContinueStmt struct{ Base }

func (*ContinueStmt) stmtNode() {}

// ForStmt is `for pat in expr { body }`, desugared by F into a Loop with a
// Break on iterator exhaustion (spec §4.6).
type ForStmt struct {
	Base
	Binder string
	Iter   Expr
	Body   *Block
}

func (*ForStmt) stmtNode() {}

// WhileStmt is `while cond { body }`.
type WhileStmt struct {
	Base
	Cond Expr
	Body *Block
}

func (*WhileStmt) stmtNode() {}
