package hir

import (
	"fmt"

	"github.com/mrzdevcore/haira/cir"
	"github.com/mrzdevcore/haira/typing"
)

// TypeResolver looks up a project's nominal record/union types and
// top-level function signatures by name. The build driver (component I)
// supplies the real implementation, build.TypeRegistry, built from a flat
// scan of every file's top-level defs; tests supply a small map-backed
// stand-in.
type TypeResolver interface {
	LookupRecord(name string) (*typing.RecordType, bool)
	LookupUnion(name string) (*typing.UnionType, bool)
	LookupFunc(name string) (typing.FuncType, bool)

	// AllFuncs returns every top-level function signature this resolver
	// knows about, keyed by name. CheckProgram uses it to build the
	// structural method-dispatch table (spec §4.2 rule 4) once per build
	// rather than per call site.
	AllFuncs() map[string]typing.FuncType
}

// Materializer implements component E: it walks a cir.Function's flat,
// named-result op list and builds the equivalent hir.Function, one HIR node
// per CIR op, per spec §4.5's injective mapping. Lambda-bearing ops
// (Map/Filter/Reduce/GroupBy/Sort) and branching ops (If/Match/Loop) open a
// fresh child scope for their nested op lists, mirroring cir.Validator's own
// scoping rule exactly so every name a validated CIR function references is
// bound here too. Materializing can still fail where project types decide
// it: a Construct that omits one of a known record's fields, or a CreateMap
// with an odd number of inputs.
type Materializer struct {
	resolver TypeResolver
}

// NewMaterializer builds a Materializer backed by resolver.
func NewMaterializer(resolver TypeResolver) *Materializer {
	return &Materializer{resolver: resolver}
}

// Materialize converts fn into its HIR form.
func (m *Materializer) Materialize(fn *cir.Function) (*Function, error) {
	env := map[string]Expr{}
	params := make([]Param, len(fn.ParamNames))
	for i, name := range fn.ParamNames {
		var pt typing.DataType
		if i < len(fn.Params) {
			pt = m.convertType(&fn.Params[i])
		} else {
			pt = typing.Unit
		}
		params[i] = Param{Name: name, Type: pt}
		env[name] = &LocalRef{Name: name, Typ: pt}
	}

	retType := m.convertType(&fn.Return)
	block, err := m.materializeOps(fn.Body, env)
	if err != nil {
		return nil, err
	}
	finalizeAsReturn(block)

	source := SourceUser
	if fn.Confidence > 0 {
		source = SourceAI
	}

	return &Function{
		Name:       fn.Name,
		Params:     params,
		ReturnType: retType,
		Body:       block,
		Public:     true,
		Source:     source,
		Confidence: fn.Confidence,
	}, nil
}

// finalizeAsReturn turns a materialized block's trailing ExprStmt (the
// conventional "return"-named result) into an actual ReturnStmt, since a
// Function's top-level body must return control to its caller rather than
// merely yield a block value, unlike a nested If/Match/Loop branch.
func finalizeAsReturn(b *Block) {
	if len(b.Stmts) == 0 {
		return
	}
	last := b.Stmts[len(b.Stmts)-1]
	if es, ok := last.(*ExprStmt); ok {
		b.Stmts[len(b.Stmts)-1] = &ReturnStmt{Value: es.X}
	}
}

// materializeOps translates a flat named-op list (a CIR function body, or
// one of its nested lambda/branch bodies) into a Block whose final
// statement is an ExprStmt carrying the conventional "return"-named result,
// or the last bound op's value if no op is named "return".
func (m *Materializer) materializeOps(ops []cir.Op, env map[string]Expr) (*Block, error) {
	block := &Block{}
	var lastName string
	for _, op := range ops {
		expr, err := m.materializeOp(op, env)
		if err != nil {
			return nil, err
		}
		if op.Result != "" {
			env[op.Result] = expr
			lastName = op.Result
			block.Stmts = append(block.Stmts, &LetStmt{Name: op.Result, Value: expr})
		} else {
			block.Stmts = append(block.Stmts, &ExprStmt{X: expr})
		}
	}

	resultName := "return"
	if _, ok := env[resultName]; !ok {
		resultName = lastName
	}
	if resultName != "" {
		block.Stmts = append(block.Stmts, &ExprStmt{X: env[resultName]})
	}
	return block, nil
}

func (m *Materializer) materializeOp(op cir.Op, env map[string]Expr) (Expr, error) {
	switch op.Kind {
	case cir.OpLiteral:
		return &Literal{Val: op.LitValue, Typ: m.convertType(op.LitType)}, nil

	case cir.OpGetField:
		recv, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		return &FieldAccess{Receiver: recv, Field: op.Field, Typ: fieldType(recv.Type(), op.Field)}, nil

	case cir.OpGetIndex:
		recv, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		key, err := m.ref(op.Inputs, 1, env)
		if err != nil {
			return nil, err
		}
		return &Index{Receiver: recv, Key: key, Typ: elemType(recv.Type())}, nil

	case cir.OpSetField:
		recv, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		val, err := m.ref(op.Inputs, 1, env)
		if err != nil {
			return nil, err
		}
		return &BlockExpr{
			Block: &Block{Stmts: []Stmt{
				&AssignStmt{Target: &FieldAccess{Receiver: recv, Field: op.Field, Typ: val.Type()}, Value: val},
			}},
			Typ: typing.Unit,
		}, nil

	case cir.OpConstruct:
		return m.materializeConstruct(op, env)

	case cir.OpCreateList:
		elems, err := m.refAll(op.Inputs, env)
		if err != nil {
			return nil, err
		}
		elemT := typing.DataType(typing.Unit)
		if len(elems) > 0 {
			elemT = elems[0].Type()
		}
		return &CreateList{Elems: elems, Typ: typing.ListType{Elem: elemT}}, nil

	case cir.OpCreateMap:
		pairs, err := m.materializeMapPairs(op.Inputs, env)
		if err != nil {
			return nil, err
		}
		keyT, valT := typing.DataType(typing.Unit), typing.DataType(typing.Unit)
		if len(pairs) > 0 {
			keyT, valT = pairs[0].Key.Type(), pairs[0].Value.Type()
		}
		return &CreateMap{Pairs: pairs, Typ: typing.MapType{Key: keyT, Value: valT}}, nil

	case cir.OpBinaryOp:
		left, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		right, err := m.ref(op.Inputs, 1, env)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: op.Operator, Left: left, Right: right, Typ: binaryResultType(op.Operator, left.Type())}, nil

	case cir.OpUnaryOp:
		operand, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: op.Operator, Operand: operand, Typ: operand.Type()}, nil

	case cir.OpCall:
		args, err := m.refAll(op.Inputs, env)
		if err != nil {
			return nil, err
		}
		retT := typing.DataType(typing.Unit)
		if sig, ok := m.resolver.LookupFunc(op.Callee); ok {
			retT = sig.Return
		}
		return &Call{Callee: op.Callee, Args: args, Typ: retT}, nil

	case cir.OpFileRead:
		path, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		return &Call{Callee: "haira_file_read", Args: []Expr{path}, Typ: typing.String}, nil

	case cir.OpMap, cir.OpFilter, cir.OpReduce, cir.OpGroupBy, cir.OpSort:
		return m.materializeLambdaOp(op, env)

	case cir.OpTake:
		src, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		n, err := m.ref(op.Inputs, 1, env)
		if err != nil {
			return nil, err
		}
		return &CollectionOp{Kind: OpTake, Source: src, N: n, Typ: src.Type()}, nil

	case cir.OpCount:
		src, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		return &CollectionOp{Kind: OpCount, Source: src, Typ: typing.Int}, nil

	case cir.OpSum, cir.OpMin, cir.OpMax, cir.OpAvg:
		src, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		kind := map[cir.OpKind]CollectionOpKind{cir.OpSum: OpSum, cir.OpMin: OpMin, cir.OpMax: OpMax, cir.OpAvg: OpAvg}[op.Kind]
		resT := elemType(src.Type())
		if op.Kind == cir.OpAvg {
			resT = typing.Float
		}
		return &CollectionOp{Kind: kind, Source: src, Typ: resT}, nil

	case cir.OpIf:
		cond, err := m.ref(op.Inputs, 0, env)
		if err != nil {
			return nil, err
		}
		thenEnv := cloneEnv(env)
		thenBlock, err := m.materializeOps(op.Then, thenEnv)
		if err != nil {
			return nil, err
		}
		var elseBlock *Block
		if len(op.Else) > 0 {
			elseEnv := cloneEnv(env)
			elseBlock, err = m.materializeOps(op.Else, elseEnv)
			if err != nil {
				return nil, err
			}
		}
		return &IfExpr{Cond: cond, Then: thenBlock, Else: elseBlock, Typ: blockValueType(thenBlock)}, nil

	case cir.OpMatch:
		return m.materializeMatch(op, env)

	case cir.OpLoop:
		loopEnv := cloneEnv(env)
		body, err := m.materializeOps(op.LoopBody, loopEnv)
		if err != nil {
			return nil, err
		}
		return &LoopExpr{Body: body, Typ: typing.Unit}, nil

	default:
		return nil, fmt.Errorf("hir: op kind %q is not materializable (effect op or outside the closed set)", op.Kind)
	}
}

func (m *Materializer) materializeConstruct(op cir.Op, env map[string]Expr) (Expr, error) {
	rt, ok := m.resolver.LookupRecord(op.TypeName)
	var fields []FieldValue
	var typ typing.DataType
	if ok {
		typ = rt
		fields = make([]FieldValue, len(rt.Fields))
		for i, f := range rt.Fields {
			name, hasVal := op.Fields[f.Name]
			if !hasVal {
				return nil, fmt.Errorf("hir: Construct %s missing field %q", op.TypeName, f.Name)
			}
			val, err := m.lookup(name, env)
			if err != nil {
				return nil, err
			}
			fields[i] = FieldValue{Name: f.Name, Value: val}
		}
	} else {
		for name, ref := range op.Fields {
			val, err := m.lookup(ref, env)
			if err != nil {
				return nil, err
			}
			fields = append(fields, FieldValue{Name: name, Value: val})
		}
		typ = &typing.RecordType{Name: op.TypeName}
	}
	return &Construct{RecordName: op.TypeName, Fields: fields, Typ: typ}, nil
}

func (m *Materializer) materializeLambdaOp(op cir.Op, env map[string]Expr) (Expr, error) {
	src, err := m.ref(op.Inputs, 0, env)
	if err != nil {
		return nil, err
	}
	childEnv := cloneEnv(env)
	paramType := elemType(src.Type())
	childEnv[op.LambdaParam] = &LocalRef{Name: op.LambdaParam, Typ: paramType}

	lambdaParams := []Param{{Name: op.LambdaParam, Type: paramType}}
	var seed Expr
	// Reduce's combine lambda is the only one that binds a second name: the
	// running accumulator, seeded from Inputs[1] and always called "acc"
	// since cir.Op carries only a single LambdaParam field (the element).
	if op.Kind == cir.OpReduce && len(op.Inputs) > 1 {
		seed, err = m.ref(op.Inputs, 1, env)
		if err != nil {
			return nil, err
		}
		accRef := &LocalRef{Name: "acc", Typ: seed.Type()}
		childEnv["acc"] = accRef
		lambdaParams = append(lambdaParams, Param{Name: "acc", Type: seed.Type()})
	}

	body, err := m.materializeOps(op.LambdaBody, childEnv)
	if err != nil {
		return nil, err
	}

	lambdaParamTypes := make([]typing.DataType, len(lambdaParams))
	for i, p := range lambdaParams {
		lambdaParamTypes[i] = p.Type
	}
	lambda := &Lambda{
		Params: lambdaParams,
		Body:   body,
		Typ:    typing.FuncType{Params: lambdaParamTypes, Return: blockValueType(body)},
	}

	kindMap := map[cir.OpKind]CollectionOpKind{
		cir.OpMap: OpMap, cir.OpFilter: OpFilter, cir.OpReduce: OpReduce,
		cir.OpGroupBy: OpGroupBy, cir.OpSort: OpSort,
	}
	kind := kindMap[op.Kind]

	var resultType typing.DataType
	switch kind {
	case OpMap:
		resultType = typing.ListType{Elem: blockValueType(body)}
	case OpFilter, OpSort:
		resultType = src.Type()
	case OpGroupBy:
		resultType = typing.MapType{Key: blockValueType(body), Value: src.Type()}
	case OpReduce:
		resultType = blockValueType(body)
	}

	return &CollectionOp{Kind: kind, Source: src, Lambda: lambda, Seed: seed, Typ: resultType}, nil
}

func (m *Materializer) materializeMatch(op cir.Op, env map[string]Expr) (Expr, error) {
	subject, err := m.ref(op.Inputs, 0, env)
	if err != nil {
		return nil, err
	}
	arms := make([]MatchArm, len(op.Arms))
	var commonType typing.DataType
	for i, armOp := range op.Arms {
		armEnv := cloneEnv(env)
		var pat Pattern
		if armOp.Variant == "" {
			pat = WildcardPattern{}
		} else {
			pat = VariantPattern{Variant: armOp.Variant, Binds: armOp.Binds}
			for _, bindName := range armOp.Binds {
				armEnv[bindName] = &LocalRef{Name: bindName, Typ: typing.Unit}
			}
			if ut, ok := subject.Type().(*typing.UnionType); ok {
				if variant, ok := ut.Variant(armOp.Variant); ok {
					for i, bindName := range armOp.Binds {
						if i < len(variant.Fields) {
							armEnv[bindName] = &LocalRef{Name: bindName, Typ: variant.Fields[i].Type}
						}
					}
				}
			}
		}
		body, err := m.materializeOps(armOp.Body, armEnv)
		if err != nil {
			return nil, err
		}
		if commonType == nil {
			commonType = blockValueType(body)
		}
		arms[i] = MatchArm{Pat: pat, Body: body}
	}
	return &MatchExpr{Subject: subject, Arms: arms, Typ: commonType}, nil
}

func (m *Materializer) materializeMapPairs(inputs []string, env map[string]Expr) ([]MapPair, error) {
	if len(inputs)%2 != 0 {
		return nil, fmt.Errorf("hir: CreateMap requires an even number of inputs (key, value pairs)")
	}
	pairs := make([]MapPair, 0, len(inputs)/2)
	for i := 0; i < len(inputs); i += 2 {
		k, err := m.lookup(inputs[i], env)
		if err != nil {
			return nil, err
		}
		v, err := m.lookup(inputs[i+1], env)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, MapPair{Key: k, Value: v})
	}
	return pairs, nil
}

func (m *Materializer) ref(inputs []string, i int, env map[string]Expr) (Expr, error) {
	if i >= len(inputs) {
		return nil, fmt.Errorf("hir: missing input %d", i)
	}
	return m.lookup(inputs[i], env)
}

func (m *Materializer) refAll(inputs []string, env map[string]Expr) ([]Expr, error) {
	out := make([]Expr, len(inputs))
	for i, name := range inputs {
		v, err := m.lookup(name, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *Materializer) lookup(name string, env map[string]Expr) (Expr, error) {
	v, ok := env[name]
	if !ok {
		return nil, fmt.Errorf("hir: reference to unbound name %q (cir.Validator should have rejected this)", name)
	}
	return v, nil
}

func (m *Materializer) convertType(t *cir.Type) typing.DataType {
	if t == nil {
		return typing.Unit
	}
	switch t.Kind {
	case "int":
		return typing.Int
	case "float":
		return typing.Float
	case "bool":
		return typing.Bool
	case "string":
		return typing.String
	case "unit", "":
		return typing.Unit
	case "List":
		return typing.ListType{Elem: m.convertType(t.Elem)}
	case "Map":
		return typing.MapType{Key: m.convertType(t.Key), Value: m.convertType(t.Elem)}
	case "Option":
		return typing.OptionType{Elem: m.convertType(t.Elem)}
	case "Func":
		params := make([]typing.DataType, len(t.Params))
		for i := range t.Params {
			params[i] = m.convertType(&t.Params[i])
		}
		return typing.FuncType{Params: params, Return: m.convertType(t.Return)}
	case "Record", "Union":
		if rt, ok := m.resolver.LookupRecord(t.Name); ok {
			return rt
		}
		if ut, ok := m.resolver.LookupUnion(t.Name); ok {
			return ut
		}
		return &typing.RecordType{Name: t.Name}
	default:
		if rt, ok := m.resolver.LookupRecord(t.Kind); ok {
			return rt
		}
		if ut, ok := m.resolver.LookupUnion(t.Kind); ok {
			return ut
		}
		return &typing.RecordType{Name: t.Kind}
	}
}

func cloneEnv(env map[string]Expr) map[string]Expr {
	child := make(map[string]Expr, len(env)+1)
	for k, v := range env {
		child[k] = v
	}
	return child
}

func fieldType(recv typing.DataType, field string) typing.DataType {
	if rt, ok := typing.Resolve(recv).(*typing.RecordType); ok {
		if ft, _, ok := rt.FieldType(field); ok {
			return ft
		}
	}
	return typing.Unit
}

func elemType(t typing.DataType) typing.DataType {
	switch rt := typing.Resolve(t).(type) {
	case typing.ListType:
		return rt.Elem
	case typing.MapType:
		return rt.Value
	default:
		return typing.Unit
	}
}

func binaryResultType(op string, operandType typing.DataType) typing.DataType {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return typing.Bool
	default:
		return operandType
	}
}

func blockValueType(b *Block) typing.DataType {
	if len(b.Stmts) == 0 {
		return typing.Unit
	}
	switch last := b.Stmts[len(b.Stmts)-1].(type) {
	case *ExprStmt:
		return last.X.Type()
	case *ReturnStmt:
		if last.Value != nil {
			return last.Value.Type()
		}
	}
	return typing.Unit
}
