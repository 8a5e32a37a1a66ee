package mir

import (
	"testing"

	"github.com/mrzdevcore/haira/hir"
	"github.com/mrzdevcore/haira/typing"
)

func localRef(name string, t typing.DataType) *hir.LocalRef { return &hir.LocalRef{Name: name, Typ: t} }

func TestBuild_SimpleArithmeticReturn(t *testing.T) {
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
	mfn, err := Build(fn)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if mfn.Entry == nil || len(mfn.Entry.Instrs) != 1 {
		t.Fatalf("expected one instruction in the entry block, got %+v", mfn.Entry)
	}
	ret, ok := mfn.Entry.Term.(*ReturnTerm)
	if !ok {
		t.Fatalf("expected a ReturnTerm, got %T", mfn.Entry.Term)
	}
	if ret.Value == nil {
		t.Fatalf("expected a non-nil return value")
	}
}

func TestBuild_IfElseJoinsThroughBlockParam(t *testing.T) {
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
	mfn, err := Build(fn)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(mfn.Blocks) != 4 {
		t.Fatalf("expected entry+then+else+join = 4 blocks, got %d", len(mfn.Blocks))
	}
	entryTerm, ok := mfn.Entry.Term.(*IfTerm)
	if !ok {
		t.Fatalf("expected the entry block to end in an IfTerm, got %T", mfn.Entry.Term)
	}
	thenGoto, ok := entryTerm.Then.Target.Term.(*GotoTerm)
	if !ok {
		t.Fatalf("expected the then-block to end in a GotoTerm, got %T", entryTerm.Then.Target.Term)
	}
	elseGoto, ok := entryTerm.Else.Target.Term.(*GotoTerm)
	if !ok {
		t.Fatalf("expected the else-block to end in a GotoTerm, got %T", entryTerm.Else.Target.Term)
	}
	if thenGoto.To.Target != elseGoto.To.Target {
		t.Fatalf("expected both branches to join at the same block")
	}
	join := thenGoto.To.Target
	if len(join.Params) != 1 {
		t.Fatalf("expected the join block to carry one parameter for the merged value, got %d", len(join.Params))
	}
}

func TestBuild_LoopCarriesAssignedVariableThroughHeaderParam(t *testing.T) {
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
	mfn, err := Build(fn)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var header *Block
	for _, blk := range mfn.Blocks {
		if len(blk.Params) == 1 && blk != mfn.Entry {
			header = blk
			break
		}
	}
	if header == nil {
		t.Fatalf("expected a loop header block carrying the assigned variable through a block parameter")
	}
	seen := map[string]bool{}
	for _, blk := range mfn.Blocks {
		for _, p := range blk.Params {
			if seen[p.Name] {
				t.Fatalf("block parameter name %q reused across blocks, violating SSA uniqueness", p.Name)
			}
			seen[p.Name] = true
		}
	}
}

func TestBuild_CallIsABlockTerminator(t *testing.T) {
	fn := &hir.Function{
		Name:       "wrapper",
		Params:     []hir.Param{{Name: "x", Type: typing.Int}},
		ReturnType: typing.Int,
		Body: &hir.Block{Stmts: []hir.Stmt{
			&hir.ReturnStmt{Value: &hir.Call{Callee: "double", Args: []hir.Expr{localRef("x", typing.Int)}, Typ: typing.Int}},
		}},
	}
	mfn, err := Build(fn)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	callTerm, ok := mfn.Entry.Term.(*CallTerm)
	if !ok {
		t.Fatalf("expected the entry block to end in a CallTerm, got %T", mfn.Entry.Term)
	}
	if callTerm.Callee != "double" {
		t.Fatalf("expected callee %q, got %q", "double", callTerm.Callee)
	}
	next := callTerm.Next.Target
	if _, ok := next.Term.(*ReturnTerm); !ok {
		t.Fatalf("expected the call's successor block to return, got %T", next.Term)
	}
}
