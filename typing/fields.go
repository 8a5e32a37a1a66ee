package typing

import (
	"strings"

	"github.com/mrzdevcore/haira/report"
)

// FieldConstraint asserts that rootType has a field named FieldName, to be
// resolved once rootType's TypeVar (if it started as one) is unified. Method
// calls desugar to a plain function call before type checking (spec §4.6),
// so this constraint only ever needs to cover x.name record field access.
type FieldConstraint struct {
	RootType  DataType
	FieldName string
	Span      report.Span
}

// ResolveField resolves a field constraint against a (possibly just-unified)
// root type, reporting UnboundField and returning false if the field does
// not exist on a record, or if the root type never turned out to be a
// record at all.
func ResolveField(fc FieldConstraint) (DataType, bool) {
	root := Resolve(fc.RootType)
	rt, ok := root.(*RecordType)
	if !ok {
		report.Report(report.TypeError(report.TypeErrorUnboundField, fc.Span,
			"`%s` is not a record type and has no field `%s`", root.Repr(), fc.FieldName))
		return nil, false
	}

	ftype, _, found := rt.FieldType(fc.FieldName)
	if !found {
		report.Report(report.TypeError(report.TypeErrorUnboundField, fc.Span,
			"record `%s` has no field `%s`", rt.Name, fc.FieldName))
		return nil, false
	}
	return ftype, true
}

// MethodEntry is one resolved method-dispatch target: the actual callable
// name a Call op should target (never the mangled `Type::method` spelling
// unless that literally is a declared function's name) plus its signature.
type MethodEntry struct {
	Name string
	Sig  FuncType
}

// MethodTable maps a record or union's name to the set of top-level
// functions whose first parameter's type matches it — Haira's structural
// method dispatch (spec §4.2 rule 3: `x.m(args)` resolves to any function
// `m` taking a matching first argument, there is no explicit `impl` block).
type MethodTable struct {
	methods map[string]map[string]MethodEntry
}

// NewMethodTable creates an empty dispatch table.
func NewMethodTable() *MethodTable {
	return &MethodTable{methods: make(map[string]map[string]MethodEntry)}
}

// Register adds entry as a callable method named methodName on any receiver
// whose resolved type has Repr() == typeName.
func (mt *MethodTable) Register(typeName, methodName string, entry MethodEntry) {
	m, ok := mt.methods[typeName]
	if !ok {
		m = make(map[string]MethodEntry)
		mt.methods[typeName] = m
	}
	m[methodName] = entry
}

// Lookup finds the function backing receiver.method(...), per the
// structural rule above. ok is false when no top-level function takes this
// receiver type as its first argument under that name.
func (mt *MethodTable) Lookup(receiverType DataType, method string) (MethodEntry, bool) {
	m, ok := mt.methods[Resolve(receiverType).Repr()]
	if !ok {
		return MethodEntry{}, false
	}
	entry, ok := m[method]
	return entry, ok
}

// NewMethodTableFromFuncs builds a dispatch table from a project's whole
// function-name→signature map, registering every function that takes at
// least one parameter under its first parameter's type. funcs may use
// either a plain top-level name or the `Type::method` mangled form
// hir.Lowerer's desugaring of `x.m(args…)` produces; both are registered
// under the bare method name so a call site can be resolved whichever way
// it was spelled — the "absent an exact match, inference seeks any function
// taking T as first parameter" fallback spec §4.2 rule 4 describes.
func NewMethodTableFromFuncs(funcs map[string]FuncType) *MethodTable {
	mt := NewMethodTable()
	for name, sig := range funcs {
		if len(sig.Params) == 0 {
			continue
		}
		methodName := name
		if idx := strings.Index(name, "::"); idx >= 0 {
			methodName = name[idx+2:]
		}
		mt.Register(Resolve(sig.Params[0]).Repr(), methodName, MethodEntry{Name: name, Sig: sig})
	}
	return mt
}
