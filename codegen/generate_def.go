package codegen

import (
	"github.com/mrzdevcore/haira/typing"

	"github.com/llir/llvm/ir/types"
)

// convType converts a Haira DataType to its LLVM representation, following
// spec §4.8's fixed value representations.
func (g *Generator) convType(t typing.DataType) types.Type {
	switch v := typing.Resolve(t).(type) {
	case typing.PrimType:
		return g.convPrimType(v)
	case typing.ListType:
		elem := g.convType(v.Elem)
		return types.NewPointer(types.NewStruct(types.NewPointer(elem), types.I64, types.I64))
	case typing.MapType:
		// Maps are opaque to LLVM IR: layout and hashing live in the
		// runtime, codegen only ever carries an opaque pointer to one.
		return types.NewPointer(types.I8)
	case typing.OptionType:
		// spec §4.8 fixes the presence flag at i1, distinct from the i8
		// Haira's own Bool type otherwise always carries.
		return types.NewStruct(types.I1, g.convType(v.Elem))
	case typing.FuncType:
		return types.NewStruct(types.NewPointer(types.I8), types.NewPointer(types.I8))
	case *typing.RecordType:
		return types.NewPointer(g.convRecordType(v))
	case *typing.UnionType:
		// A closed tagged union is represented as an opaque tagged blob;
		// VariantPattern matching reads its tag/fields through runtime
		// helpers rather than a single static LLVM struct shape, since
		// each variant's own field layout can differ in size.
		return types.NewPointer(types.I8)
	default:
		return types.NewPointer(types.I8)
	}
}

// convReturnType is convType specialized for a function's return position:
// a Unit-typed return lowers to `void` rather than the i8 Unit carries
// everywhere else a value is expected.
func (g *Generator) convReturnType(t typing.DataType) types.Type {
	if isUnitType(t) {
		return types.Void
	}
	return g.convType(t)
}

func (g *Generator) convPrimType(pt typing.PrimType) types.Type {
	switch pt.Kind {
	case typing.PrimInt:
		return types.I64
	case typing.PrimFloat:
		return types.Double
	case typing.PrimBool:
		return types.I8
	case typing.PrimString:
		return types.NewPointer(g.stringType)
	default: // PrimUnit
		return types.I8
	}
}

// convRecordType returns (declaring on first use) the named LLVM struct
// type for a Haira record, fields laid out in the order spec §4.2 rule 2
// fixes at the record's first construction site.
func (g *Generator) convRecordType(rt *typing.RecordType) types.Type {
	if t, ok := g.recordTypes[rt.Name]; ok {
		return t
	}
	fieldTypes := make([]types.Type, len(rt.Fields))
	for i, f := range rt.Fields {
		fieldTypes[i] = g.convType(f.Type)
	}
	def := g.mod.NewTypeDef("haira."+rt.Name, types.NewStruct(fieldTypes...))
	g.recordTypes[rt.Name] = def
	return def
}
