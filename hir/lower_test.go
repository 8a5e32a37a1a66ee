package hir

import (
	"testing"

	"github.com/mrzdevcore/haira/ast"
)

func id(name string) *ast.Ident { return &ast.Ident{Name: name} }

func intLit(n int64) *ast.Literal { return &ast.Literal{Kind: ast.LitInt, Int: n} }

func namedType(name string) *ast.NamedTypeExpr { return &ast.NamedTypeExpr{Name: name} }

func TestLowerFunc_SimpleReturn(t *testing.T) {
	def := &ast.FuncDef{
		Name: "double",
		Params: []ast.Param{
			{Name: "x", Type: namedType("int")},
		},
		ReturnType: namedType("int"),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryOp{Op: "*", Left: id("x"), Right: intLit(2)}},
		}},
	}
	l := NewLowerer(newFakeResolver(), nil)
	fn, err := l.LowerFunc(def)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected exactly one statement, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("expected a ReturnStmt, got %T", fn.Body.Stmts[0])
	}
	if _, ok := ret.Value.(*BinaryOp); !ok {
		t.Fatalf("expected a BinaryOp return value, got %T", ret.Value)
	}
}

func TestLowerFunc_WhileDesugarsToLoopWithBreakGuard(t *testing.T) {
	def := &ast.FuncDef{
		Name:       "countdown",
		ReturnType: namedType("unit"),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.WhileStmt{
				Cond: &ast.Literal{Kind: ast.LitBool, Bool: true},
				Body: &ast.Block{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
			},
		}},
	}
	l := NewLowerer(newFakeResolver(), nil)
	fn, err := l.LowerFunc(def)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	// The loop is the body's trailing statement, so finalizeAsReturn turns
	// its ExprStmt wrapper into a ReturnStmt.
	retStmt, ok := fn.Body.Stmts[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("expected a ReturnStmt wrapping the desugared loop, got %T", fn.Body.Stmts[0])
	}
	loop, ok := retStmt.Value.(*LoopExpr)
	if !ok {
		t.Fatalf("expected `while` to desugar to a LoopExpr, got %T", retStmt.Value)
	}
	guard, ok := loop.Body.Stmts[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected the loop body to open with the negated-condition guard, got %T", loop.Body.Stmts[0])
	}
	if _, ok := guard.X.(*IfExpr); !ok {
		t.Fatalf("expected the guard to be an IfExpr, got %T", guard.X)
	}
}

func TestLowerFunc_PipeDesugarsToDirectCall(t *testing.T) {
	def := &ast.FuncDef{
		Name:       "piped",
		ReturnType: namedType("int"),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.Pipe{
				Value: intLit(5),
				Call:  &ast.Call{Callee: id("double"), Args: nil},
			}},
		}},
	}
	resolver := newFakeResolver()
	l := NewLowerer(resolver, nil)
	fn, err := l.LowerFunc(def)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	call, ok := ret.Value.(*Call)
	if !ok {
		t.Fatalf("expected the pipe to desugar directly to a Call, got %T", ret.Value)
	}
	if call.Callee != "double" || len(call.Args) != 1 {
		t.Fatalf("expected `double(5)`, got callee=%q args=%v", call.Callee, call.Args)
	}
}

func TestLowerFunc_TryDesugarsToErrorSlotCheck(t *testing.T) {
	def := &ast.FuncDef{
		Name:       "chained",
		ReturnType: namedType("int"),
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.TryExpr{Inner: &ast.Call{Callee: id("risky"), Args: nil}}},
		}},
	}
	l := NewLowerer(newFakeResolver(), nil)
	fn, err := l.LowerFunc(def)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if len(fn.Body.Stmts) < 2 {
		t.Fatalf("expected the try-expression to expand into multiple statements, got %d", len(fn.Body.Stmts))
	}
	foundGuard := false
	for _, s := range fn.Body.Stmts {
		if es, ok := s.(*ExprStmt); ok {
			if ifE, ok := es.X.(*IfExpr); ok {
				if call, ok := ifE.Cond.(*Call); ok && call.Callee == "haira_has_error" {
					foundGuard = true
				}
			}
		}
	}
	if !foundGuard {
		t.Fatalf("expected a haira_has_error guard among the try-expression's desugared statements")
	}
}
