package codegen

import (
	"strings"
	"testing"

	"github.com/mrzdevcore/haira/hir"
	"github.com/mrzdevcore/haira/mir"
	"github.com/mrzdevcore/haira/typing"

	"github.com/llir/llvm/ir"
)

func localRef(name string, t typing.DataType) *hir.LocalRef { return &hir.LocalRef{Name: name, Typ: t} }

func buildOne(t *testing.T, fn *hir.Function) *mir.Func {
	t.Helper()
	mfn, err := mir.Build(fn)
	if err != nil {
		t.Fatalf("mir.Build: %v", err)
	}
	return mfn
}

func TestCompile_SimpleArithmeticReturn(t *testing.T) {
	fn := &hir.Function{
		Name:       "double",
		Params:     []hir.Param{{Name: "x", Type: typing.Int}},
		ReturnType: typing.Int,
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ReturnStmt{Value: &hir.BinaryOp{
				Op: "*", Left: localRef("x", typing.Int),
				Right: &hir.Literal{Val: int64(2), Typ: typing.Int},
				Typ:   typing.Int,
			}},
		}},
	}
	mfn := buildOne(t, fn)

	g := NewGenerator()
	mod, err := g.Compile([]*mir.Func{mfn})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	llFn, ok := g.funcs["double"]
	if !ok {
		t.Fatalf("expected a declared LLVM function named %q", "double")
	}
	if len(llFn.Blocks) != 1 {
		t.Fatalf("expected one LLVM block, got %d", len(llFn.Blocks))
	}
	if !strings.Contains(mod.String(), "define i64 @double") {
		t.Fatalf("expected i64 return type on double, got:\n%s", mod.String())
	}
}

func TestCompile_IfElseLowersToPhi(t *testing.T) {
	fn := &hir.Function{
		Name:       "abs",
		Params:     []hir.Param{{Name: "x", Type: typing.Int}},
		ReturnType: typing.Int,
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ReturnStmt{Value: &hir.IfExpr{
				Cond: &hir.BinaryOp{Op: "<", Left: localRef("x", typing.Int), Right: &hir.Literal{Val: int64(0), Typ: typing.Int}, Typ: typing.Bool},
				Then: &hir.Block{Stmts: []hir.Stmt{&hir.ExprStmt{X: &hir.UnaryOp{Op: "-", Operand: localRef("x", typing.Int), Typ: typing.Int}}}},
				Else: &hir.Block{Stmts: []hir.Stmt{&hir.ExprStmt{X: localRef("x", typing.Int)}}},
				Typ:  typing.Int,
			}},
		}},
	}
	mfn := buildOne(t, fn)

	g := NewGenerator()
	if _, err := g.Compile([]*mir.Func{mfn}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	llFn := g.funcs["abs"]
	// Every phi created for the join block must have received exactly two
	// incoming edges, one per branch.
	count := 0
	for _, blk := range llFn.Blocks {
		for _, inst := range blk.Insts {
			if p, ok := inst.(*ir.InstPhi); ok {
				count++
				if len(p.Incs) != 2 {
					t.Fatalf("expected 2 incoming edges on the join phi, got %d", len(p.Incs))
				}
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one phi (the if/else join), got %d", count)
	}
}

func TestCompile_LoopBackEdgeFeedsHeaderPhi(t *testing.T) {
	fn := &hir.Function{
		Name:       "countup",
		ReturnType: typing.Unit,
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.LetStmt{Name: "i", Value: &hir.Literal{Val: int64(0), Typ: typing.Int}},
			&hir.ExprStmt{X: &hir.LoopExpr{
				Typ: typing.Unit,
				Body: &hir.Block{Stmts: []hir.Stmt{
					&hir.ExprStmt{X: &hir.IfExpr{
						Cond: &hir.BinaryOp{Op: ">=", Left: localRef("i", typing.Int), Right: &hir.Literal{Val: int64(10), Typ: typing.Int}, Typ: typing.Bool},
						Then: &hir.Block{Stmts: []hir.Stmt{hir.BreakStmt{}}},
						Typ:  typing.Unit,
					}},
					&hir.AssignStmt{
						Target: localRef("i", typing.Int),
						Value:  &hir.BinaryOp{Op: "+", Left: localRef("i", typing.Int), Right: &hir.Literal{Val: int64(1), Typ: typing.Int}, Typ: typing.Int},
					},
				}},
			}},
			&hir.ReturnStmt{},
		}},
	}
	mfn := buildOne(t, fn)

	g := NewGenerator()
	if _, err := g.Compile([]*mir.Func{mfn}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	llFn := g.funcs["countup"]
	if len(llFn.Blocks) < 3 {
		t.Fatalf("expected at least entry+header+after blocks, got %d", len(llFn.Blocks))
	}
}

func TestCompile_CallSplitsIntoTwoBlocksWithResultPhi(t *testing.T) {
	double := &hir.Function{
		Name:       "double",
		Params:     []hir.Param{{Name: "x", Type: typing.Int}},
		ReturnType: typing.Int,
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ReturnStmt{Value: &hir.BinaryOp{Op: "*", Left: localRef("x", typing.Int), Right: &hir.Literal{Val: int64(2), Typ: typing.Int}, Typ: typing.Int}},
		}},
	}
	wrapper := &hir.Function{
		Name:       "wrapper",
		Params:     []hir.Param{{Name: "x", Type: typing.Int}},
		ReturnType: typing.Int,
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ReturnStmt{Value: &hir.Call{Callee: "double", Args: []hir.Expr{localRef("x", typing.Int)}, Typ: typing.Int}},
		}},
	}
	mDouble := buildOne(t, double)
	mWrapper := buildOne(t, wrapper)

	g := NewGenerator()
	if _, err := g.Compile([]*mir.Func{mDouble, mWrapper}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	llWrapper := g.funcs["wrapper"]
	if len(llWrapper.Blocks) != 2 {
		t.Fatalf("expected the call to split wrapper into 2 blocks, got %d", len(llWrapper.Blocks))
	}
	resultPhis := 0
	for _, inst := range llWrapper.Blocks[1].Insts {
		if p, ok := inst.(*ir.InstPhi); ok {
			resultPhis++
			if len(p.Incs) != 1 {
				t.Fatalf("expected the call-result phi to have exactly one incoming edge, got %d", len(p.Incs))
			}
		}
	}
	if resultPhis != 1 {
		t.Fatalf("expected exactly one phi receiving the call result, got %d", resultPhis)
	}
}
