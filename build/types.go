package build

import (
	"sort"

	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/typing"
)

// TypeRegistry is the build driver's implementation of hir.TypeResolver,
// backed by a flat scan of every registered file's top-level defs rather
// than depm's scope tree directly — components E/F only ever need
// name-keyed type lookups, not visibility rules, so this stays independent
// of Resolver.
//
// Construction is two-pass: RecordType/UnionType use nominal pointer
// identity for equality (typing/types.go's equals methods compare struct
// pointers directly), so every named record/union gets an empty placeholder
// declared in pass one before any field is converted in pass two. Without
// this, a field of type Node referencing a record Tree that is itself still
// being built would either recurse forever or convert to a second, distinct
// *RecordType that no longer equals the real one.
type TypeRegistry struct {
	records map[string]*typing.RecordType
	unions  map[string]*typing.UnionType
	funcs   map[string]typing.FuncType
}

// NewTypeRegistry builds a registry from every ast.File collected across a
// build, registering every RecordDef/UnionDef/FuncDef/AIFuncDecl in files.
// No visibility filtering is applied: file-private defs are registered
// like public ones.
func NewTypeRegistry(files []*ast.File) *TypeRegistry {
	reg := &TypeRegistry{
		records: map[string]*typing.RecordType{},
		unions:  map[string]*typing.UnionType{},
		funcs:   map[string]typing.FuncType{},
	}
	reg.declarePlaceholders(files)
	reg.fill(files)
	return reg
}

func (r *TypeRegistry) declarePlaceholders(files []*ast.File) {
	for _, f := range files {
		for _, def := range f.Defs {
			switch d := def.(type) {
			case *ast.RecordDef:
				if _, ok := r.records[d.Name]; !ok {
					r.records[d.Name] = &typing.RecordType{Name: d.Name}
				}
			case *ast.UnionDef:
				if _, ok := r.unions[d.Name]; !ok {
					r.unions[d.Name] = &typing.UnionType{Name: d.Name}
				}
			}
		}
	}
}

func (r *TypeRegistry) fill(files []*ast.File) {
	for _, f := range files {
		for _, def := range f.Defs {
			switch d := def.(type) {
			case *ast.RecordDef:
				rt := r.records[d.Name]
				rt.Fields = make([]typing.RecordField, len(d.Fields))
				for i, fld := range d.Fields {
					rt.Fields[i] = typing.RecordField{Name: fld.Name, Type: r.convertTypeExpr(fld.Type)}
				}
			case *ast.UnionDef:
				ut := r.unions[d.Name]
				ut.Variants = make([]typing.UnionVariant, len(d.Variants))
				for i, v := range d.Variants {
					fields := make([]typing.RecordField, len(v.Fields))
					for j, fld := range v.Fields {
						fields[j] = typing.RecordField{Name: fld.Name, Type: r.convertTypeExpr(fld.Type)}
					}
					ut.Variants[i] = typing.UnionVariant{Name: v.Name, Fields: fields}
				}
			case *ast.FuncDef:
				r.funcs[d.Name] = r.funcSig(d.Params, d.ReturnType)
			case *ast.AIFuncDecl:
				r.funcs[d.Name] = r.funcSig(d.Params, d.ReturnType)
			}
		}
	}
}

func (r *TypeRegistry) funcSig(params []ast.Param, ret ast.TypeExpr) typing.FuncType {
	pts := make([]typing.DataType, len(params))
	for i, p := range params {
		pts[i] = r.convertTypeExpr(p.Type)
	}
	return typing.FuncType{Params: pts, Return: r.convertTypeExpr(ret)}
}

// convertTypeExpr mirrors hir.Lowerer's own convertTypeExpr exactly: same
// primitive-name switch, same named-type-falls-back-to-a-fresh-placeholder
// behavior for a type this registry never declared (a forward reference to
// a record the AI engine hasn't synthesized yet), same generic/func cases.
func (r *TypeRegistry) convertTypeExpr(te ast.TypeExpr) typing.DataType {
	switch t := te.(type) {
	case nil:
		return typing.Unit
	case *ast.NamedTypeExpr:
		switch t.Name {
		case "int":
			return typing.Int
		case "float":
			return typing.Float
		case "bool":
			return typing.Bool
		case "string":
			return typing.String
		case "unit":
			return typing.Unit
		}
		if rt, ok := r.LookupRecord(t.Name); ok {
			return rt
		}
		if ut, ok := r.LookupUnion(t.Name); ok {
			return ut
		}
		return &typing.RecordType{Name: t.Name}
	case *ast.GenericTypeExpr:
		switch t.Name {
		case "List":
			return typing.ListType{Elem: r.convertTypeExpr(firstOrNil(t.Args))}
		case "Map":
			if len(t.Args) == 2 {
				return typing.MapType{Key: r.convertTypeExpr(t.Args[0]), Value: r.convertTypeExpr(t.Args[1])}
			}
		case "Option":
			return typing.OptionType{Elem: r.convertTypeExpr(firstOrNil(t.Args))}
		}
		return typing.Unit
	case *ast.FuncTypeExpr:
		params := make([]typing.DataType, len(t.Params))
		for i, p := range t.Params {
			params[i] = r.convertTypeExpr(p)
		}
		return typing.FuncType{Params: params, Return: r.convertTypeExpr(t.Return)}
	default:
		return typing.Unit
	}
}

func firstOrNil(args []ast.TypeExpr) ast.TypeExpr {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// LookupRecord implements hir.TypeResolver.
func (r *TypeRegistry) LookupRecord(name string) (*typing.RecordType, bool) {
	rt, ok := r.records[name]
	return rt, ok
}

// LookupUnion implements hir.TypeResolver.
func (r *TypeRegistry) LookupUnion(name string) (*typing.UnionType, bool) {
	ut, ok := r.unions[name]
	return ut, ok
}

// LookupFunc implements hir.TypeResolver.
func (r *TypeRegistry) LookupFunc(name string) (typing.FuncType, bool) {
	ft, ok := r.funcs[name]
	return ft, ok
}

// AllFuncs implements hir.TypeResolver.
func (r *TypeRegistry) AllFuncs() map[string]typing.FuncType {
	return r.funcs
}

// DeclareFunc records name's signature after the AI engine synthesizes a
// new function mid-build, so a later call site resolved in the same pass
// sees its real return type instead of typing.Unit (materialize.go's
// fallback for an unknown callee).
func (r *TypeRegistry) DeclareFunc(name string, sig typing.FuncType) {
	r.funcs[name] = sig
}

// TypeSummary is one record or union as Summary reports it. Summary renders
// every record/union this registry knows about as ai.TypeInfo-shaped data,
// sorted by name so the AI context JSON stays byte-stable across repeated
// calls with the same project (spec §4.4). The driver's typesInScope
// converts these into ai.TypeInfo.
type TypeSummary struct {
	Name   string
	Kind   string
	Fields []string
}

func (r *TypeRegistry) Summary() []TypeSummary {
	out := make([]TypeSummary, 0, len(r.records)+len(r.unions))
	for name, rt := range r.records {
		fields := make([]string, len(rt.Fields))
		for i, f := range rt.Fields {
			fields[i] = f.Name
		}
		out = append(out, TypeSummary{Name: name, Kind: "Record", Fields: fields})
	}
	for name, ut := range r.unions {
		variants := make([]string, len(ut.Variants))
		for i, v := range ut.Variants {
			variants[i] = v.Name
		}
		out = append(out, TypeSummary{Name: name, Kind: "Union", Fields: variants})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
