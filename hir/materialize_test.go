package hir

import (
	"testing"

	"github.com/mrzdevcore/haira/cir"
	"github.com/mrzdevcore/haira/typing"
)

type fakeResolver struct {
	records map[string]*typing.RecordType
	unions  map[string]*typing.UnionType
	funcs   map[string]typing.FuncType
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		records: map[string]*typing.RecordType{},
		unions:  map[string]*typing.UnionType{},
		funcs:   map[string]typing.FuncType{},
	}
}

func (f *fakeResolver) LookupRecord(name string) (*typing.RecordType, bool) { r, ok := f.records[name]; return r, ok }
func (f *fakeResolver) LookupUnion(name string) (*typing.UnionType, bool)   { u, ok := f.unions[name]; return u, ok }
func (f *fakeResolver) LookupFunc(name string) (typing.FuncType, bool)      { fn, ok := f.funcs[name]; return fn, ok }
func (f *fakeResolver) AllFuncs() map[string]typing.FuncType                { return f.funcs }

func TestMaterialize_SimpleArithmetic(t *testing.T) {
	fn := &cir.Function{
		Name:       "double",
		ParamNames: []string{"x"},
		Params:     []cir.Type{{Kind: "int"}},
		Return:     cir.Type{Kind: "int"},
		Body: []cir.Op{
			{Result: "two", Kind: cir.OpLiteral, LitValue: int64(2), LitType: &cir.Type{Kind: "int"}},
			{Result: "return", Kind: cir.OpBinaryOp, Operator: "*", Inputs: []string{"x", "two"}},
		},
	}
	m := NewMaterializer(newFakeResolver())
	out, err := m.Materialize(fn)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if out.Name != "double" || len(out.Params) != 1 {
		t.Fatalf("unexpected function shape: %+v", out)
	}
	last := out.Body.Stmts[len(out.Body.Stmts)-1]
	ret, ok := last.(*ReturnStmt)
	if !ok {
		t.Fatalf("expected a trailing ReturnStmt, got %T", last)
	}
	if _, ok := ret.Value.(*BinaryOp); !ok {
		t.Fatalf("expected the returned value to be a BinaryOp, got %T", ret.Value)
	}
}

func TestMaterialize_MapOverListOpensFreshLambdaScope(t *testing.T) {
	fn := &cir.Function{
		Name:       "squares",
		ParamNames: []string{"xs"},
		Params:     []cir.Type{{Kind: "List", Elem: &cir.Type{Kind: "int"}}},
		Return:     cir.Type{Kind: "List", Elem: &cir.Type{Kind: "int"}},
		Body: []cir.Op{
			{
				Result:      "return",
				Kind:        cir.OpMap,
				Inputs:      []string{"xs"},
				LambdaParam: "x",
				LambdaBody: []cir.Op{
					{Result: "return", Kind: cir.OpBinaryOp, Operator: "*", Inputs: []string{"x", "x"}},
				},
			},
		},
	}
	m := NewMaterializer(newFakeResolver())
	out, err := m.Materialize(fn)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	last := out.Body.Stmts[len(out.Body.Stmts)-1].(*ReturnStmt)
	collOp, ok := last.Value.(*CollectionOp)
	if !ok {
		t.Fatalf("expected a CollectionOp, got %T", last.Value)
	}
	if collOp.Kind != OpMap || collOp.Lambda == nil {
		t.Fatalf("expected a Map CollectionOp with a lambda, got %+v", collOp)
	}
	if len(collOp.Lambda.Params) != 1 || collOp.Lambda.Params[0].Name != "x" {
		t.Fatalf("expected the lambda to bind exactly its own param `x`, got %+v", collOp.Lambda.Params)
	}
}

func TestMaterialize_RejectsUnboundInput(t *testing.T) {
	fn := &cir.Function{
		Name: "broken",
		Body: []cir.Op{
			{Result: "return", Kind: cir.OpBinaryOp, Operator: "+", Inputs: []string{"ghost", "ghost"}},
		},
	}
	m := NewMaterializer(newFakeResolver())
	if _, err := m.Materialize(fn); err == nil {
		t.Fatalf("expected materialization to fail on an unbound CIR input")
	}
}
