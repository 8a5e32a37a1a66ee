package mir

import (
	"fmt"
	"testing"

	"github.com/mrzdevcore/haira/typing"
)

// intFn builds a minimal single-block int-returning Func whose entry block
// runs instrs then returns ret, the shape most of these tests start from.
func intFn(name string, instrs []Instr, ret Value) *Func {
	entry := &Block{ID: 0, Instrs: instrs, Term: &ReturnTerm{Value: ret}}
	return &Func{Name: name, ReturnType: typing.Int, Blocks: []*Block{entry}, Entry: entry}
}

func TestOptimize_FoldsConstantArithmetic(t *testing.T) {
	fn := intFn("answer", []Instr{
		&OperInstr{Res: "$0", Op: OCAdd, Operands: []Value{Const{Val: int64(40), Typ: typing.Int}, Const{Val: int64(2), Typ: typing.Int}}, Typ: typing.Int},
	}, Ref{Name: "$0", Typ: typing.Int})

	Optimize([]*Func{fn})

	if len(fn.Entry.Instrs) != 0 {
		t.Fatalf("expected the folded addition to be removed, got %+v", fn.Entry.Instrs)
	}
	ret, ok := fn.Entry.Term.(*ReturnTerm)
	if !ok {
		t.Fatalf("expected a ReturnTerm, got %T", fn.Entry.Term)
	}
	c, ok := ret.Value.(Const)
	if !ok {
		t.Fatalf("expected the return value to be folded to a Const, got %T", ret.Value)
	}
	if c.Val.(int64) != 42 {
		t.Fatalf("expected 42, got %v", c.Val)
	}
}

func TestOptimize_PropagatesUniformBlockParamConstant(t *testing.T) {
	join := &Block{ID: 2, Params: []Param{{Name: "v", Typ: typing.Int}}}
	join.Term = &ReturnTerm{Value: Ref{Name: "v", Typ: typing.Int}}

	thenBlk := &Block{ID: 1, Term: &GotoTerm{To: Edge{Target: join, Args: []Value{Const{Val: int64(7), Typ: typing.Int}}}}}
	elseBlk := &Block{ID: 0, Term: &GotoTerm{To: Edge{Target: join, Args: []Value{Const{Val: int64(7), Typ: typing.Int}}}}}

	entry := &Block{ID: 3, Term: &IfTerm{
		Cond: Const{Val: true, Typ: typing.Bool},
		Then: Edge{Target: thenBlk},
		Else: Edge{Target: elseBlk},
	}}

	fn := &Func{Name: "both_seven", ReturnType: typing.Int, Entry: entry, Blocks: []*Block{entry, thenBlk, elseBlk, join}}

	Optimize([]*Func{fn})

	ret := join.Term.(*ReturnTerm)
	c, ok := ret.Value.(Const)
	if !ok {
		t.Fatalf("expected the join block's return to resolve to a Const after propagation, got %T", ret.Value)
	}
	if c.Val.(int64) != 7 {
		t.Fatalf("expected 7, got %v", c.Val)
	}
}

func TestOptimize_DeadCodeEliminationRemovesUnusedPureInstr(t *testing.T) {
	fn := intFn("ignore_unused", []Instr{
		&OperInstr{Res: "$0", Op: OCAdd, Operands: []Value{Ref{Name: "x", Typ: typing.Int}, Const{Val: int64(1), Typ: typing.Int}}, Typ: typing.Int},
	}, Const{Val: int64(5), Typ: typing.Int})
	fn.Params = []Param{{Name: "x", Typ: typing.Int}}
	fn.Entry.Params = fn.Params

	Optimize([]*Func{fn})

	if len(fn.Entry.Instrs) != 0 {
		t.Fatalf("expected the unused addition to be eliminated, got %+v", fn.Entry.Instrs)
	}
}

func TestOptimize_DeadCodeEliminationKeepsFieldAssign(t *testing.T) {
	fn := intFn("has_effect", []Instr{
		&FieldAssign{Res: "$discard", Struct: Ref{Name: "r", Typ: typing.Int}, Field: "count", Val: Const{Val: int64(1), Typ: typing.Int}},
	}, Const{Val: int64(0), Typ: typing.Int})

	Optimize([]*Func{fn})

	if len(fn.Entry.Instrs) != 1 {
		t.Fatalf("expected the side-effecting FieldAssign to survive DCE, got %+v", fn.Entry.Instrs)
	}
}

func TestOptimize_CommonSubexpressionEliminationDedupes(t *testing.T) {
	x := Ref{Name: "x", Typ: typing.Int}
	one := Const{Val: int64(1), Typ: typing.Int}
	fn := intFn("double_add", []Instr{
		&OperInstr{Res: "$0", Op: OCAdd, Operands: []Value{x, one}, Typ: typing.Int},
		&OperInstr{Res: "$1", Op: OCAdd, Operands: []Value{x, one}, Typ: typing.Int},
		&OperInstr{Res: "$2", Op: OCMul, Operands: []Value{Ref{Name: "$0", Typ: typing.Int}, Ref{Name: "$1", Typ: typing.Int}}, Typ: typing.Int},
	}, Ref{Name: "$2", Typ: typing.Int})
	fn.Params = []Param{{Name: "x", Typ: typing.Int}}
	fn.Entry.Params = fn.Params

	Optimize([]*Func{fn})

	// $0 and $1 compute the same expression; CSE should collapse them,
	// and constant folding can't touch x+1 since x isn't a constant, so
	// exactly the deduplicated add plus the square should remain.
	if len(fn.Entry.Instrs) != 2 {
		t.Fatalf("expected CSE to collapse the duplicate add, got %d instrs: %+v", len(fn.Entry.Instrs), fn.Entry.Instrs)
	}
	mul, ok := fn.Entry.Instrs[1].(*OperInstr)
	if !ok || mul.Op != OCMul {
		t.Fatalf("expected the surviving second instruction to be the multiply, got %+v", fn.Entry.Instrs[1])
	}
	if mul.Operands[0] != mul.Operands[1] {
		t.Fatalf("expected both multiply operands to reference the single deduplicated add, got %+v", mul.Operands)
	}
}

func TestOptimize_InlinesSmallCallee(t *testing.T) {
	calleeEntry := &Block{ID: 0, Params: []Param{{Name: "n", Typ: typing.Int}}}
	calleeEntry.Term = &ReturnTerm{Value: Ref{Name: "$body", Typ: typing.Int}}
	calleeEntry.Instrs = []Instr{
		&OperInstr{Res: "$body", Op: OCMul, Operands: []Value{Ref{Name: "n", Typ: typing.Int}, Const{Val: int64(2), Typ: typing.Int}}, Typ: typing.Int},
	}
	callee := &Func{Name: "double", ReturnType: typing.Int, Params: []Param{{Name: "n", Typ: typing.Int}}, Entry: calleeEntry, Blocks: []*Block{calleeEntry}}

	next := &Block{ID: 1, Params: []Param{{Name: "$r", Typ: typing.Int}}}
	next.Term = &ReturnTerm{Value: Ref{Name: "$r", Typ: typing.Int}}
	entry := &Block{ID: 0, Term: &CallTerm{Callee: "double", Args: []Value{Const{Val: int64(21), Typ: typing.Int}}, Next: Edge{Target: next}}}
	caller := &Func{Name: "wrapper", ReturnType: typing.Int, Blocks: []*Block{entry, next}, Entry: entry}

	Optimize([]*Func{caller, callee})

	if _, stillCalls := entry.Term.(*CallTerm); stillCalls {
		t.Fatalf("expected the call site to be inlined away, still a CallTerm")
	}
	goTo, ok := entry.Term.(*GotoTerm)
	if !ok {
		t.Fatalf("expected the call site to become a GotoTerm into the cloned callee, got %T", entry.Term)
	}
	if len(goTo.To.Args) != 1 {
		t.Fatalf("expected the cloned entry to receive the call's one argument, got %v", goTo.To.Args)
	}
	if len(caller.Blocks) <= 2 {
		t.Fatalf("expected the callee's block to be spliced into the caller, got %d blocks", len(caller.Blocks))
	}

	// The cloned body's own parameter folds to a Const once propagation
	// binds it to the call's literal argument; whether that Const also
	// reaches next's return depends on pass ordering, so only check it
	// when it does.
	ret, ok := next.Term.(*ReturnTerm)
	if !ok {
		t.Fatalf("expected next's terminator to remain a ReturnTerm, got %T", next.Term)
	}
	if c, ok := ret.Value.(Const); ok {
		if c.Val.(int64) != 42 {
			t.Fatalf("expected the inlined+folded result to be 42, got %v", c.Val)
		}
	}
}

func TestOptimize_DoesNotInlineOversizedCallee(t *testing.T) {
	// Every added instruction must be side-effecting (immune to DCE) so the
	// oversized callee still exceeds the budget by the time the inlining
	// pass runs, which executes after the per-function DCE/CSE passes.
	var instrs []Instr
	for i := 0; i < inlineSmallStatementBudget+1; i++ {
		instrs = append(instrs, &FieldAssign{
			Res: fmt.Sprintf("$discard%d", i), Struct: Ref{Name: "n", Typ: typing.Int},
			Field: "slot", Val: Const{Val: int64(i), Typ: typing.Int},
		})
	}
	calleeEntry := &Block{ID: 0, Params: []Param{{Name: "n", Typ: typing.Int}}, Instrs: instrs}
	calleeEntry.Term = &ReturnTerm{Value: Ref{Name: "n", Typ: typing.Int}}
	callee := &Func{Name: "big", ReturnType: typing.Int, Params: []Param{{Name: "n", Typ: typing.Int}}, Entry: calleeEntry, Blocks: []*Block{calleeEntry}}

	next := &Block{ID: 1, Params: []Param{{Name: "$r", Typ: typing.Int}}}
	next.Term = &ReturnTerm{Value: Ref{Name: "$r", Typ: typing.Int}}
	entry := &Block{ID: 0, Term: &CallTerm{Callee: "big", Args: []Value{Const{Val: int64(1), Typ: typing.Int}}, Next: Edge{Target: next}}}
	caller := &Func{Name: "wrapper", ReturnType: typing.Int, Blocks: []*Block{entry, next}, Entry: entry}

	Optimize([]*Func{caller, callee})

	if _, ok := entry.Term.(*CallTerm); !ok {
		t.Fatalf("expected an oversized callee to be left uninlined, got %T", entry.Term)
	}
}

func TestOptimize_UniqueBlockIDsAfterInlining(t *testing.T) {
	calleeEntry := &Block{ID: 0}
	calleeEntry.Term = &ReturnTerm{Value: Const{Val: int64(9), Typ: typing.Int}}
	callee := &Func{Name: "nine", ReturnType: typing.Int, Entry: calleeEntry, Blocks: []*Block{calleeEntry}}

	next := &Block{ID: 1, Params: []Param{{Name: "$r", Typ: typing.Int}}}
	next.Term = &ReturnTerm{Value: Ref{Name: "$r", Typ: typing.Int}}
	entry := &Block{ID: 0, Term: &CallTerm{Callee: "nine", Next: Edge{Target: next}}}
	caller := &Func{Name: "wrapper", ReturnType: typing.Int, Blocks: []*Block{entry, next}, Entry: entry}

	Optimize([]*Func{caller, callee})

	seen := map[int]bool{}
	for _, blk := range caller.Blocks {
		if seen[blk.ID] {
			t.Fatalf("duplicate block ID %d after inlining; codegen's blockByID map requires uniqueness", blk.ID)
		}
		seen[blk.ID] = true
	}
}
