// Package typing is the Type System & Inference engine (component B): a
// Hindley-Milner unification solver over Haira's closed type grammar
// (primitives, lists, maps, options, records, tagged unions, functions),
// plus structural field/method lookup for records and unions.
package typing

import (
	"fmt"
	"strings"
)

// DataType is the parent interface for every resolved Haira type. Unlike the
// syntactic ast.TypeExpr a user writes, a DataType is always fully resolved:
// there is no "unknown" DataType, only TypeVars still awaiting unification.
type DataType interface {
	Repr() string
	equals(DataType) bool
}

// PrimKind enumerates Haira's closed set of primitive types (spec §3).
type PrimKind int

const (
	PrimInt PrimKind = iota
	PrimFloat
	PrimBool
	PrimString
	PrimUnit
)

// PrimType is a primitive scalar type.
type PrimType struct{ Kind PrimKind }

func (pt PrimType) Repr() string {
	switch pt.Kind {
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimBool:
		return "bool"
	case PrimString:
		return "string"
	default:
		return "unit"
	}
}

func (pt PrimType) equals(other DataType) bool {
	opt, ok := other.(PrimType)
	return ok && pt.Kind == opt.Kind
}

var (
	Int    DataType = PrimType{Kind: PrimInt}
	Float  DataType = PrimType{Kind: PrimFloat}
	Bool   DataType = PrimType{Kind: PrimBool}
	String DataType = PrimType{Kind: PrimString}
	Unit   DataType = PrimType{Kind: PrimUnit}
)

// ListType is `List(Elem)`.
type ListType struct{ Elem DataType }

func (lt ListType) Repr() string { return fmt.Sprintf("List(%s)", lt.Elem.Repr()) }

func (lt ListType) equals(other DataType) bool {
	olt, ok := other.(ListType)
	return ok && Equals(lt.Elem, olt.Elem)
}

// MapType is `Map(Key, Value)`.
type MapType struct{ Key, Value DataType }

func (mt MapType) Repr() string { return fmt.Sprintf("Map(%s, %s)", mt.Key.Repr(), mt.Value.Repr()) }

func (mt MapType) equals(other DataType) bool {
	omt, ok := other.(MapType)
	return ok && Equals(mt.Key, omt.Key) && Equals(mt.Value, omt.Value)
}

// OptionType is `Option(T)`, Haira's only nullable wrapper (spec §4.2 rule 5).
type OptionType struct{ Elem DataType }

func (ot OptionType) Repr() string { return fmt.Sprintf("Option(%s)", ot.Elem.Repr()) }

func (ot OptionType) equals(other DataType) bool {
	oot, ok := other.(OptionType)
	return ok && Equals(ot.Elem, oot.Elem)
}

// FuncType is a function signature, used both for declared functions and for
// lambda parameters passed to Map/Filter/Reduce/GroupBy CIR ops.
type FuncType struct {
	Params []DataType
	Return DataType
}

func (ft FuncType) Repr() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range ft.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Repr())
	}
	sb.WriteString(") -> ")
	sb.WriteString(ft.Return.Repr())
	return sb.String()
}

func (ft FuncType) equals(other DataType) bool {
	oft, ok := other.(FuncType)
	if !ok || len(ft.Params) != len(oft.Params) {
		return false
	}
	for i, p := range ft.Params {
		if !Equals(p, oft.Params[i]) {
			return false
		}
	}
	return Equals(ft.Return, oft.Return)
}

// RecordField is one named, typed field of a RecordType, in declaration
// order — the order is load-bearing: spec §4.2 rule 2 fixes field order at
// the first construction site and codegen lays fields out positionally.
type RecordField struct {
	Name string
	Type DataType
}

// RecordType is a nominal structural record (spec §3 Record).
type RecordType struct {
	Name   string
	Fields []RecordField
}

func (rt *RecordType) Repr() string { return rt.Name }

func (rt *RecordType) equals(other DataType) bool {
	ort, ok := other.(*RecordType)
	return ok && rt == ort
}

// FieldType looks up a field by name, returning its type and ordinal index.
func (rt *RecordType) FieldType(name string) (DataType, int, bool) {
	for i, f := range rt.Fields {
		if f.Name == name {
			return f.Type, i, true
		}
	}
	return nil, -1, false
}

// UnionVariant is one tagged variant of a UnionType, carrying its own record
// shape (spec §3 Union).
type UnionVariant struct {
	Name   string
	Fields []RecordField
}

// UnionType is a closed tagged union (spec §3 Union): a match over its
// value must be exhaustive over Variants.
type UnionType struct {
	Name     string
	Variants []UnionVariant
}

func (ut *UnionType) Repr() string { return ut.Name }

func (ut *UnionType) equals(other DataType) bool {
	out, ok := other.(*UnionType)
	return ok && ut == out
}

// Variant looks up a union variant by name.
func (ut *UnionType) Variant(name string) (*UnionVariant, bool) {
	for i := range ut.Variants {
		if ut.Variants[i].Name == name {
			return &ut.Variants[i], true
		}
	}
	return nil, false
}

// TypeVar is an as-yet-unresolved type, introduced for every expression
// whose type inference hasn't pinned down yet and eliminated by Unify. Once
// the solver determines its value, Value is set in place — every other
// DataType that captured a pointer to this TypeVar sees the resolution
// immediately, the same mutable-union-find style the teacher's solver uses.
type TypeVar struct {
	ID    int
	Name  string // for error messages only
	Value DataType
}

func (tv *TypeVar) Repr() string {
	if tv.Value != nil {
		return tv.Value.Repr()
	}
	if tv.Name != "" {
		return "'" + tv.Name
	}
	return fmt.Sprintf("'t%d", tv.ID)
}

func (tv *TypeVar) equals(other DataType) bool {
	if tv.Value != nil {
		return Equals(tv.Value, other)
	}
	otv, ok := other.(*TypeVar)
	return ok && tv.ID == otv.ID
}

// Equals is structural equality: two distinct *RecordType/*UnionType
// pointers are never equal (nominal types), everything else compares
// structurally through equals. Both sides are unwrapped through any
// resolved TypeVar first.
func Equals(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}
	a = Resolve(a)
	b = Resolve(b)
	return a.equals(b)
}

// Resolve follows a chain of resolved TypeVars down to the concrete type, or
// returns the TypeVar itself if it is still unresolved.
func Resolve(t DataType) DataType {
	for {
		tv, ok := t.(*TypeVar)
		if !ok || tv.Value == nil {
			return t
		}
		t = tv.Value
	}
}
