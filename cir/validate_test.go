package cir

import "testing"

func intType() Type { return Type{Kind: "int"} }

func TestValidate_SimpleReturn(t *testing.T) {
	fn := &Function{
		Name:       "double",
		ParamNames: []string{"x"},
		Params:     []Type{intType()},
		Return:     intType(),
		Body: []Op{
			{Result: "two", Kind: OpLiteral, LitValue: 2, LitType: &Type{Kind: "int"}},
			{Result: "return", Kind: OpBinaryOp, Operator: "*", Inputs: []string{"x", "two"}},
		},
	}
	if bad, ok := Validate(fn); !ok {
		t.Fatalf("expected valid CIR, rejected op %q", bad)
	}
}

func TestValidate_RejectsUnknownInput(t *testing.T) {
	fn := &Function{
		Name:       "broken",
		ParamNames: []string{"x"},
		Params:     []Type{intType()},
		Return:     intType(),
		Body: []Op{
			{Result: "return", Kind: OpBinaryOp, Operator: "+", Inputs: []string{"x", "ghost"}},
		},
	}
	if _, ok := Validate(fn); ok {
		t.Fatalf("expected rejection: `ghost` is never bound")
	}
}

func TestValidate_RejectsEffectOps(t *testing.T) {
	for _, kind := range []OpKind{OpDbQuery, OpHttpRequest, OpFileWrite} {
		fn := &Function{
			Name: "effectful",
			Body: []Op{{Result: "return", Kind: kind, Inputs: []string{}}},
		}
		if _, ok := Validate(fn); ok {
			t.Fatalf("expected %s to be rejected: no effects {…} declaration support this release", kind)
		}
	}
}

func TestValidate_AcceptsFileRead(t *testing.T) {
	fn := &Function{
		Name:       "slurp",
		ParamNames: []string{"path"},
		Params:     []Type{{Kind: "string"}},
		Return:     Type{Kind: "string"},
		Body: []Op{
			{Result: "return", Kind: OpFileRead, Inputs: []string{"path"}},
		},
	}
	if bad, ok := Validate(fn); !ok {
		t.Fatalf("expected FileRead to be accepted (spec §9 OQ1 forbids only FileWrite/DbQuery/HttpRequest), rejected op %q", bad)
	}
}

func TestValidate_RejectsDuplicateResultNames(t *testing.T) {
	fn := &Function{
		Name:       "dup",
		ParamNames: []string{"x"},
		Params:     []Type{intType()},
		Body: []Op{
			{Result: "y", Kind: OpLiteral, LitValue: 1, LitType: &Type{Kind: "int"}},
			{Result: "y", Kind: OpLiteral, LitValue: 2, LitType: &Type{Kind: "int"}},
		},
	}
	if _, ok := Validate(fn); ok {
		t.Fatalf("expected rejection: result name `y` bound twice")
	}
}

func TestValidate_MapHasFreshLambdaScope(t *testing.T) {
	fn := &Function{
		Name:       "sumSquares",
		ParamNames: []string{"xs"},
		Params:     []Type{{Kind: "List", Elem: &Type{Kind: "int"}}},
		Return:     Type{Kind: "List", Elem: &Type{Kind: "int"}},
		Body: []Op{
			{
				Result:      "return",
				Kind:        OpMap,
				Inputs:      []string{"xs"},
				LambdaParam: "x",
				LambdaBody: []Op{
					{Result: "return", Kind: OpBinaryOp, Operator: "*", Inputs: []string{"x", "x"}},
				},
			},
		},
	}
	if bad, ok := Validate(fn); !ok {
		t.Fatalf("expected valid CIR, rejected op %q", bad)
	}
}

func TestValidate_MapLambdaParamNotVisibleOutsideBody(t *testing.T) {
	fn := &Function{
		Name:       "leaks",
		ParamNames: []string{"xs"},
		Params:     []Type{{Kind: "List", Elem: &Type{Kind: "int"}}},
		Body: []Op{
			{
				Result:      "mapped",
				Kind:        OpMap,
				Inputs:      []string{"xs"},
				LambdaParam: "x",
				LambdaBody: []Op{
					{Result: "return", Kind: OpUnaryOp, Operator: "-", Inputs: []string{"x"}},
				},
			},
			{Result: "return", Kind: OpBinaryOp, Operator: "+", Inputs: []string{"x", "mapped"}},
		},
	}
	if _, ok := Validate(fn); ok {
		t.Fatalf("expected rejection: `x` is scoped to the Map lambda body only")
	}
}

func TestValidate_BindsUnknownDeclaredReturnType(t *testing.T) {
	fn := &Function{
		Name:       "double",
		ParamNames: []string{"x"},
		Params:     []Type{intType()},
		Return:     Type{Kind: "unknown"},
		Body: []Op{
			{Result: "return", Kind: OpBinaryOp, Operator: "*", Inputs: []string{"x", "x"}},
		},
	}
	if bad, ok := Validate(fn); !ok {
		t.Fatalf("expected valid CIR, rejected op %q", bad)
	}
	if fn.Return.Kind != "int" {
		t.Fatalf("expected an `unknown` declared return type to be bound to `int`, got %q", fn.Return.Kind)
	}
}

func TestValidate_RejectsReturnTypeMismatch(t *testing.T) {
	fn := &Function{
		Name:       "broken",
		ParamNames: []string{"x"},
		Params:     []Type{intType()},
		Return:     Type{Kind: "bool"},
		Body: []Op{
			{Result: "return", Kind: OpBinaryOp, Operator: "*", Inputs: []string{"x", "x"}},
		},
	}
	if _, ok := Validate(fn); ok {
		t.Fatalf("expected rejection: `return` computes to `int` but the function declares `bool`")
	}
}
