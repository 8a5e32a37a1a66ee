package build

import (
	"encoding/gob"

	"github.com/mrzdevcore/haira/ast"
)

// init registers every concrete ast node type that can appear behind one of
// ast's node interfaces (Expr, Stmt, Def, TypeExpr, Pattern) so gob can
// encode/decode an *ast.File's Defs slice. gob only needs this for
// interface-typed fields, but ast.File.Defs is exactly that ([]ast.Def),
// and every Expr/Stmt field nested beneath a function body is too.
func init() {
	gob.Register(&ast.FuncDef{})
	gob.Register(&ast.AIFuncDecl{})
	gob.Register(&ast.RecordDef{})
	gob.Register(&ast.UnionDef{})

	gob.Register(&ast.Literal{})
	gob.Register(&ast.Interpolation{})
	gob.Register(&ast.Ident{})
	gob.Register(&ast.QualifiedIdent{})
	gob.Register(&ast.BinaryOp{})
	gob.Register(&ast.UnaryOp{})
	gob.Register(&ast.Call{})
	gob.Register(&ast.FieldAccess{})
	gob.Register(&ast.MethodCall{})
	gob.Register(&ast.Index{})
	gob.Register(&ast.Pipe{})
	gob.Register(&ast.Range{})
	gob.Register(&ast.ListLit{})
	gob.Register(&ast.MapLit{})
	gob.Register(&ast.Construct{})
	gob.Register(&ast.IfExpr{})
	gob.Register(&ast.MatchExpr{})
	gob.Register(&ast.TryExpr{})
	gob.Register(&ast.OptionTest{})
	gob.Register(&ast.Lambda{})
	gob.Register(&ast.BlockExpr{})

	gob.Register(&ast.LetStmt{})
	gob.Register(&ast.AssignStmt{})
	gob.Register(&ast.ExprStmt{})
	gob.Register(&ast.ReturnStmt{})
	gob.Register(&ast.BreakStmt{})
	gob.Register(&ast.ContinueStmt{})
	gob.Register(&ast.WhileStmt{})
	gob.Register(&ast.ForStmt{})

	gob.Register(&ast.NamedTypeExpr{})
	gob.Register(&ast.GenericTypeExpr{})
	gob.Register(&ast.FuncTypeExpr{})

	gob.Register(&ast.WildcardPattern{})
	gob.Register(&ast.BindPattern{})
	gob.Register(&ast.LiteralPattern{})
	gob.Register(&ast.VariantPattern{})
}
