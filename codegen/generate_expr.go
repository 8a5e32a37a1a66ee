package codegen

import (
	"fmt"
	"math"

	"github.com/mrzdevcore/haira/mir"
	"github.com/mrzdevcore/haira/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// convValue resolves a mir.Value (a compile-time Const or a Ref to an
// earlier instruction/block param) to its LLVM value.
func (g *Generator) convValue(v mir.Value, vals map[string]value.Value) (value.Value, error) {
	switch x := v.(type) {
	case mir.Const:
		return g.convConst(x)
	case mir.Ref:
		val, ok := vals[x.Name]
		if !ok {
			return nil, fmt.Errorf("codegen: reference to unbound SSA name %q", x.Name)
		}
		return val, nil
	default:
		return nil, fmt.Errorf("codegen: unsupported mir.Value %T", v)
	}
}

func (g *Generator) convConst(c mir.Const) (value.Value, error) {
	llType := g.convType(c.Typ)
	switch v := c.Val.(type) {
	case int64:
		return constant.NewInt(llType.(*types.IntType), v), nil
	case float64:
		bits := math.Float64bits(v)
		return constant.NewFloatFromString(llType.(*types.FloatType), fmt.Sprintf("0x%X", bits))
	case bool:
		if v {
			return constant.NewInt(types.I8, 1), nil
		}
		return constant.NewInt(types.I8, 0), nil
	case string:
		return g.convStringConst(v)
	case nil:
		return constant.NewZeroInitializer(llType), nil
	default:
		return nil, fmt.Errorf("codegen: unsupported constant value %v (%T)", v, v)
	}
}

// convStringConst builds a global string constant, wraps it in the
// `{i8* data, i64 length}` representation spec §4.8 fixes for strings, and
// returns a pointer to an immutable global holding that struct — the
// pointer-to-`haira.string` form every string value has.
func (g *Generator) convStringConst(s string) (value.Value, error) {
	data := constant.NewCharArrayFromString(s)
	glob := g.mod.NewGlobalDef("", data)
	glob.Immutable = true
	ptr := constant.NewGetElementPtr(data.Typ, glob, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0))
	str := constant.NewStruct(g.stringType.(*types.StructType), ptr, constant.NewInt(types.I64, int64(len(s))))
	strGlob := g.mod.NewGlobalDef("", str)
	strGlob.Immutable = true
	return strGlob, nil
}

// generateInstr lowers one mir.Instr into llBlock, returning its LLVM
// result value (nil for the Unit-typed FieldAssign, which has no result).
func (g *Generator) generateInstr(llBlock *ir.Block, instr mir.Instr, vals map[string]value.Value) (value.Value, error) {
	switch in := instr.(type) {
	case *mir.OperInstr:
		return g.generateOper(llBlock, in, vals)

	case *mir.FieldInstr:
		structVal, err := g.convValue(in.Struct, vals)
		if err != nil {
			return nil, err
		}
		if _, isUnion := typing.Resolve(in.Struct.Type()).(*typing.UnionType); isUnion {
			return g.generateUnionFieldRead(llBlock, structVal, in.Field, in.Typ)
		}
		idx, ok := fieldIndex(in.Struct.Type(), in.Field)
		if !ok {
			return nil, fmt.Errorf("codegen: unknown field %q", in.Field)
		}
		gep := llBlock.NewGetElementPtr(elemTypeOf(structVal), structVal, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(idx)))
		return llBlock.NewLoad(g.convType(in.Typ), gep), nil

	case *mir.IndexInstr:
		recv, err := g.convValue(in.Recv, vals)
		if err != nil {
			return nil, err
		}
		key, err := g.convValue(in.Key, vals)
		if err != nil {
			return nil, err
		}
		if _, isList := typing.Resolve(in.Recv.Type()).(typing.ListType); isList {
			return g.generateListIndex(llBlock, recv, key, in.Typ)
		}
		// Map has no fixed layout (spec §4.8 is silent on it); indexing
		// goes through the same opaque runtime accessor its construction
		// does.
		fn := g.getOrDeclareRuntimeFunc("haira_map_get", []types.Type{recv.Type(), key.Type()}, g.convType(in.Typ))
		return llBlock.NewCall(fn, recv, key), nil

	case *mir.FieldAssign:
		structVal, err := g.convValue(in.Struct, vals)
		if err != nil {
			return nil, err
		}
		val, err := g.convValue(in.Val, vals)
		if err != nil {
			return nil, err
		}
		idx, ok := fieldIndex(in.Struct.Type(), in.Field)
		if !ok {
			return nil, fmt.Errorf("codegen: unknown field %q", in.Field)
		}
		gep := llBlock.NewGetElementPtr(elemTypeOf(structVal), structVal, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(idx)))
		llBlock.NewStore(val, gep)
		return nil, nil

	case *mir.ConstructInstr:
		return g.generateConstruct(llBlock, in, vals)

	case *mir.ListInstr:
		return g.generateList(llBlock, in, vals)

	case *mir.MapInstr:
		return g.generateMap(llBlock, in, vals)

	case *mir.CollectionInstr:
		return g.generateCollectionOp(llBlock, in, vals)

	default:
		return nil, fmt.Errorf("codegen: unsupported mir.Instr %T", instr)
	}
}

func (g *Generator) generateOper(llBlock *ir.Block, in *mir.OperInstr, vals map[string]value.Value) (value.Value, error) {
	operands := make([]value.Value, len(in.Operands))
	for i, op := range in.Operands {
		v, err := g.convValue(op, vals)
		if err != nil {
			return nil, err
		}
		operands[i] = v
	}
	isFloat := isFloatOperand(operands)

	if len(operands) == 1 {
		switch in.Op {
		case mir.OCNot:
			return llBlock.NewXor(operands[0], constant.NewInt(types.I8, 1)), nil
		case mir.OCNeg:
			if isFloat {
				return llBlock.NewFNeg(operands[0]), nil
			}
			return llBlock.NewSub(constant.NewInt(types.I64, 0), operands[0]), nil
		}
		return nil, fmt.Errorf("codegen: unsupported unary op code %v", in.Op)
	}

	lhs, rhs := operands[0], operands[1]
	switch in.Op {
	case mir.OCAdd:
		if isFloat {
			return llBlock.NewFAdd(lhs, rhs), nil
		}
		return llBlock.NewAdd(lhs, rhs), nil
	case mir.OCSub:
		if isFloat {
			return llBlock.NewFSub(lhs, rhs), nil
		}
		return llBlock.NewSub(lhs, rhs), nil
	case mir.OCMul:
		if isFloat {
			return llBlock.NewFMul(lhs, rhs), nil
		}
		return llBlock.NewMul(lhs, rhs), nil
	case mir.OCDiv:
		if isFloat {
			return llBlock.NewFDiv(lhs, rhs), nil
		}
		return llBlock.NewSDiv(lhs, rhs), nil
	case mir.OCMod:
		if isFloat {
			return llBlock.NewFRem(lhs, rhs), nil
		}
		return llBlock.NewSRem(lhs, rhs), nil
	case mir.OCEq:
		return g.generateCmp(llBlock, enum.IPredEQ, enum.FPredOEQ, lhs, rhs, isFloat)
	case mir.OCNEq:
		return g.generateCmp(llBlock, enum.IPredNE, enum.FPredONE, lhs, rhs, isFloat)
	case mir.OCLt:
		return g.generateCmp(llBlock, enum.IPredSLT, enum.FPredOLT, lhs, rhs, isFloat)
	case mir.OCGt:
		return g.generateCmp(llBlock, enum.IPredSGT, enum.FPredOGT, lhs, rhs, isFloat)
	case mir.OCLtEq:
		return g.generateCmp(llBlock, enum.IPredSLE, enum.FPredOLE, lhs, rhs, isFloat)
	case mir.OCGtEq:
		return g.generateCmp(llBlock, enum.IPredSGE, enum.FPredOGE, lhs, rhs, isFloat)
	case mir.OCAnd:
		return llBlock.NewAnd(lhs, rhs), nil
	case mir.OCOr:
		return llBlock.NewOr(lhs, rhs), nil
	default:
		return nil, fmt.Errorf("codegen: unsupported binary op code %v", in.Op)
	}
}

func (g *Generator) generateCmp(llBlock *ir.Block, ipred enum.IPred, fpred enum.FPred, lhs, rhs value.Value, isFloat bool) (value.Value, error) {
	var cmp value.Value
	if isFloat {
		cmp = llBlock.NewFCmp(fpred, lhs, rhs)
	} else {
		cmp = llBlock.NewICmp(ipred, lhs, rhs)
	}
	// Haira represents bool as an 8-bit value (spec §4.8); LLVM comparisons
	// produce i1, so every comparison result is widened before use.
	return llBlock.NewZExt(cmp, types.I8), nil
}

func isFloatOperand(operands []value.Value) bool {
	for _, v := range operands {
		if _, ok := v.Type().(*types.FloatType); ok {
			return true
		}
	}
	return false
}

func (g *Generator) generateConstruct(llBlock *ir.Block, in *mir.ConstructInstr, vals map[string]value.Value) (value.Value, error) {
	if _, isUnion := typing.Resolve(in.Typ).(*typing.UnionType); isUnion {
		return g.generateUnionConstruct(llBlock, in, vals)
	}
	recTyp, ok := typing.Resolve(in.Typ).(*typing.RecordType)
	var structType types.Type
	if ok {
		structType = g.convRecordType(recTyp)
	} else {
		fieldTypes := make([]types.Type, len(in.FieldVals))
		for i, fv := range in.FieldVals {
			v, err := g.convValue(fv, vals)
			if err != nil {
				return nil, err
			}
			fieldTypes[i] = v.Type()
		}
		structType = types.NewStruct(fieldTypes...)
	}
	ptr := g.heapAlloc(llBlock, structType)
	for i, name := range in.FieldNames {
		idx := i
		if ok {
			if _, fi, found := recTyp.FieldType(name); found {
				idx = fi
			}
		}
		v, err := g.convValue(in.FieldVals[i], vals)
		if err != nil {
			return nil, err
		}
		gep := llBlock.NewGetElementPtr(structType, ptr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(idx)))
		llBlock.NewStore(v, gep)
	}
	return ptr, nil
}

// heapAlloc allocates space for structType through the runtime's
// `haira_alloc` (spec §6 ABI) rather than a stack alloca: a record value
// can outlive the frame that constructs it (returned, stored in a list,
// closed over), so it must not live on the stack. Size is computed with
// the classic null-pointer GEP/ptrtoint idiom rather than a sizeof
// intrinsic, since llir has no direct sizeof constant.
func (g *Generator) heapAlloc(llBlock *ir.Block, structType types.Type) value.Value {
	structPtr := types.NewPointer(structType)
	allocFn := g.getOrDeclareRuntimeFunc("haira_alloc", []types.Type{types.I64}, types.NewPointer(types.I8))
	raw := llBlock.NewCall(allocFn, constSizeOf(structType))
	return llBlock.NewBitCast(raw, structPtr)
}

// generateUnionConstruct builds a tagged-union value entirely through the
// runtime: one `haira_union_new_<variant>` constructor per variant, taking
// the variant's own fields positionally and returning the opaque union
// handle. The tag itself is assigned by the runtime constructor, not by
// codegen — see the Union representation decision in DESIGN.md.
func (g *Generator) generateUnionConstruct(llBlock *ir.Block, in *mir.ConstructInstr, vals map[string]value.Value) (value.Value, error) {
	args := make([]value.Value, len(in.FieldVals))
	argTypes := make([]types.Type, len(in.FieldVals))
	for i, fv := range in.FieldVals {
		v, err := g.convValue(fv, vals)
		if err != nil {
			return nil, err
		}
		args[i] = v
		argTypes[i] = v.Type()
	}
	fn := g.getOrDeclareRuntimeFunc("haira_union_new_"+in.RecordName, argTypes, g.convType(in.Typ))
	return llBlock.NewCall(fn, args...), nil
}

// generateListIndex reads element `key` out of a list's fixed `{T*, i64,
// i64}` representation directly: a GEP into the data pointer, no runtime
// call needed since the layout is concrete.
func (g *Generator) generateListIndex(llBlock *ir.Block, recv, key value.Value, elemType typing.DataType) (value.Value, error) {
	listStructType := elemTypeOf(recv)
	dataField := llBlock.NewGetElementPtr(listStructType, recv, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	data := llBlock.NewLoad(types.NewPointer(g.convType(elemType)), dataField)
	elemPtr := llBlock.NewGetElementPtr(g.convType(elemType), data, key)
	return llBlock.NewLoad(g.convType(elemType), elemPtr), nil
}

// generateList builds a list literal directly in its fixed spec §4.8
// representation (`{ T* data, i64 length, i64 capacity }`) rather than
// through an opaque runtime constructor: the layout is concrete, so this
// bridge is the right place to lay it out, reserving `haira_alloc`/
// `haira_realloc` (spec §6 ABI) for the actual element-buffer allocation.
func (g *Generator) generateList(llBlock *ir.Block, in *mir.ListInstr, vals map[string]value.Value) (value.Value, error) {
	elemType := elemTypeOfList(in.Typ, g)
	n := int64(len(in.Elems))

	elemSize := constSizeOf(elemType)
	totalSize := constant.NewMul(elemSize, constant.NewInt(types.I64, n))
	allocFn := g.getOrDeclareRuntimeFunc("haira_alloc", []types.Type{types.I64}, types.NewPointer(types.I8))
	rawData := llBlock.NewCall(allocFn, totalSize)
	dataPtr := llBlock.NewBitCast(rawData, types.NewPointer(elemType))

	for i, e := range in.Elems {
		v, err := g.convValue(e, vals)
		if err != nil {
			return nil, err
		}
		gep := llBlock.NewGetElementPtr(elemType, dataPtr, constant.NewInt(types.I64, int64(i)))
		llBlock.NewStore(v, gep)
	}

	listStructType := types.NewStruct(types.NewPointer(elemType), types.I64, types.I64)
	listPtr := g.heapAlloc(llBlock, listStructType)
	dataField := llBlock.NewGetElementPtr(listStructType, listPtr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	llBlock.NewStore(dataPtr, dataField)
	lenField := llBlock.NewGetElementPtr(listStructType, listPtr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1))
	llBlock.NewStore(constant.NewInt(types.I64, n), lenField)
	capField := llBlock.NewGetElementPtr(listStructType, listPtr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 2))
	llBlock.NewStore(constant.NewInt(types.I64, n), capField)
	return listPtr, nil
}

// constSizeOf computes sizeof(t) as a compile-time constant expression via
// the classic null-pointer GEP/ptrtoint idiom — llir has no direct sizeof
// constant, and this keeps the computation foldable rather than emitting
// runtime instructions for a value that's always known at compile time.
func constSizeOf(t types.Type) *constant.ExprPtrToInt {
	nullPtr := constant.NewNull(types.NewPointer(t))
	sizePtr := constant.NewGetElementPtr(t, nullPtr, constant.NewInt(types.I32, 1))
	return constant.NewPtrToInt(sizePtr, types.I64)
}

func (g *Generator) generateMap(llBlock *ir.Block, in *mir.MapInstr, vals map[string]value.Value) (value.Value, error) {
	newFn := g.getOrDeclareRuntimeFunc("haira_map_new", nil, g.convType(in.Typ))
	mapVal := llBlock.NewCall(newFn)
	for i := range in.Keys {
		k, err := g.convValue(in.Keys[i], vals)
		if err != nil {
			return nil, err
		}
		v, err := g.convValue(in.Vals[i], vals)
		if err != nil {
			return nil, err
		}
		putFn := g.getOrDeclareRuntimeFunc("haira_map_put", []types.Type{mapVal.Type(), k.Type(), v.Type()}, types.Void)
		llBlock.NewCall(putFn, mapVal, k, v)
	}
	return mapVal, nil
}

// generateCollectionOp lowers a collection-pipeline instruction to a call
// into the Haira runtime, passing the element lambda (when present) as a
// `{function_pointer, environment_pointer}` closure value — spec §4.8's
// fixed representation for a function value — built from the lambda's own
// standalone mir.Func compiled as an anonymous top-level function.
func (g *Generator) generateCollectionOp(llBlock *ir.Block, in *mir.CollectionInstr, vals map[string]value.Value) (value.Value, error) {
	src, err := g.convValue(in.Source, vals)
	if err != nil {
		return nil, err
	}
	runtimeName := collectionRuntimeName(in.Op)
	args := []value.Value{src}
	argTypes := []types.Type{src.Type()}

	if in.Lambda != nil {
		closure, err := g.generateLambdaClosure(in.Lambda)
		if err != nil {
			return nil, err
		}
		args = append(args, closure)
		argTypes = append(argTypes, closure.Type())
	}
	if in.Seed != nil {
		seed, err := g.convValue(in.Seed, vals)
		if err != nil {
			return nil, err
		}
		args = append(args, seed)
		argTypes = append(argTypes, seed.Type())
	}
	if in.N != nil {
		n, err := g.convValue(in.N, vals)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
		argTypes = append(argTypes, n.Type())
	}

	fn := g.getOrDeclareRuntimeFunc(runtimeName, argTypes, g.convType(in.Typ))
	return llBlock.NewCall(fn, args...), nil
}

// generateLambdaClosure compiles a CollectionOp's lambda as its own
// top-level LLVM function and wraps a pointer to it in Haira's closure
// representation. The lambda captures nothing (mir's buildLambda gives it
// only its declared params), so the environment pointer is always null.
func (g *Generator) generateLambdaClosure(lambda *mir.Func) (value.Value, error) {
	name := fmt.Sprintf("$lambda%d", len(g.funcs))
	lambda.Name = name
	llFn := g.declareFunc(lambda)
	if len(lambda.Blocks) > 0 {
		if err := g.generateBody(lambda, llFn); err != nil {
			return nil, err
		}
	}
	fnPtr := constant.NewBitCast(llFn, types.NewPointer(types.I8))
	return constant.NewStruct(types.NewStruct(types.NewPointer(types.I8), types.NewPointer(types.I8)),
		fnPtr, constant.NewNull(types.NewPointer(types.I8))), nil
}

func collectionRuntimeName(op mir.CollectionOp) string {
	switch op {
	case mir.MCMap:
		return "haira_list_map"
	case mir.MCFilter:
		return "haira_list_filter"
	case mir.MCReduce:
		return "haira_list_reduce"
	case mir.MCGroupBy:
		return "haira_list_group_by"
	case mir.MCSort:
		return "haira_list_sort"
	case mir.MCTake:
		return "haira_list_take"
	case mir.MCCount:
		return "haira_list_count"
	case mir.MCSum:
		return "haira_list_sum"
	case mir.MCMin:
		return "haira_list_min"
	case mir.MCMax:
		return "haira_list_max"
	case mir.MCAvg:
		return "haira_list_avg"
	default:
		return "haira_list_op"
	}
}

// generateUnionFieldRead reads a field off an opaque tagged-union value
// through a per-field runtime accessor, since a Union carries no static
// LLVM struct layout for FieldInstr to GEP into (see DESIGN.md's Union
// representation decision). The synthetic "__tag" field mir.build's
// matchCond reads gets its own dedicated accessor.
func (g *Generator) generateUnionFieldRead(llBlock *ir.Block, structVal value.Value, field string, resultType typing.DataType) (value.Value, error) {
	if field == "__tag" {
		fn := g.getOrDeclareRuntimeFunc("haira_union_tag", []types.Type{structVal.Type()}, g.convType(resultType))
		return llBlock.NewCall(fn, structVal), nil
	}
	fn := g.getOrDeclareRuntimeFunc("haira_union_field_"+field, []types.Type{structVal.Type()}, g.convType(resultType))
	return llBlock.NewCall(fn, structVal), nil
}

// fieldIndex resolves a record field's ordinal position from the static
// type carried by the FieldInstr/FieldAssign's receiver operand, mirroring
// the field order convRecordType lays the struct out in.
func fieldIndex(structType typing.DataType, field string) (int, bool) {
	rt, ok := typing.Resolve(structType).(*typing.RecordType)
	if !ok {
		return 0, false
	}
	for i, f := range rt.Fields {
		if f.Name == field {
			return i, true
		}
	}
	return 0, false
}

func elemTypeOf(v value.Value) types.Type {
	if pt, ok := v.Type().(*types.PointerType); ok {
		return pt.ElemType
	}
	return v.Type()
}

func elemTypeOfList(t typing.DataType, g *Generator) types.Type {
	if lt, ok := typing.Resolve(t).(typing.ListType); ok {
		return g.convType(lt.Elem)
	}
	return types.NewPointer(types.I8)
}
