package typing

import (
	"github.com/mrzdevcore/haira/report"
)

// Constraint asserts that two types must unify, recorded with the span of
// the expression that implied it so a failed solve can point at the right
// source location.
type Constraint struct {
	Lhs, Rhs DataType
	Span     report.Span
}

// Solver accumulates type variables and constraints over one inference
// context (one function body) and solves them with Hindley-Milner
// unification. One solver per function, mirroring the teacher's
// one-solver-per-file granularity but scoped tighter since AI-backed
// functions are solved independently of each other (spec §4.2).
type Solver struct {
	vars        []*TypeVar
	constraints []Constraint
}

// NewSolver creates an empty solver.
func NewSolver() *Solver { return &Solver{} }

// NewTypeVar allocates a fresh, unsolved type variable.
func (s *Solver) NewTypeVar(name string) *TypeVar {
	tv := &TypeVar{ID: len(s.vars), Name: name}
	s.vars = append(s.vars, tv)
	return tv
}

// Constrain records that lhs and rhs must unify.
func (s *Solver) Constrain(lhs, rhs DataType, span report.Span) {
	s.constraints = append(s.constraints, Constraint{Lhs: lhs, Rhs: rhs, Span: span})
}

// Solve walks every recorded constraint and unifies it, reporting a
// CannotInfer TypeError for the first unresolved TypeVar and a Mismatch
// TypeError for the first unification failure. It returns false, leaving
// whatever it managed to resolve in place, the moment either happens — the
// caller (component B's driver) aborts the function rather than compiling a
// half-typed body.
func (s *Solver) Solve() bool {
	for _, c := range s.constraints {
		if !Unify(c.Lhs, c.Rhs) {
			report.Report(report.TypeError(report.TypeErrorMismatch, c.Span,
				"cannot unify `%s` with `%s`", c.Lhs.Repr(), c.Rhs.Repr()))
			return false
		}
	}
	for _, tv := range s.vars {
		if tv.Value == nil {
			report.Report(report.TypeError(report.TypeErrorCannotInfer, report.Span{},
				"cannot infer type of `%s`", tv.Repr()))
			return false
		}
	}
	return true
}

// Unify attempts to make a and b equal by binding any unresolved TypeVar on
// either side, recursing into compound types structurally. It returns false
// without reporting anything — callers decide how/whether to surface the
// failure (Solve reports a TypeError; CIR validation instead reports
// CIRValidationError).
func Unify(a, b DataType) bool {
	a = Resolve(a)
	b = Resolve(b)

	if atv, ok := a.(*TypeVar); ok {
		if btv, ok := b.(*TypeVar); ok && btv == atv {
			return true
		}
		if occursIn(atv, b) {
			return false
		}
		atv.Value = b
		return true
	}
	if btv, ok := b.(*TypeVar); ok {
		if occursIn(btv, a) {
			return false
		}
		btv.Value = a
		return true
	}

	switch at := a.(type) {
	case PrimType:
		bt, ok := b.(PrimType)
		return ok && at.Kind == bt.Kind
	case ListType:
		bt, ok := b.(ListType)
		return ok && Unify(at.Elem, bt.Elem)
	case MapType:
		bt, ok := b.(MapType)
		return ok && Unify(at.Key, bt.Key) && Unify(at.Value, bt.Value)
	case OptionType:
		bt, ok := b.(OptionType)
		return ok && Unify(at.Elem, bt.Elem)
	case FuncType:
		bt, ok := b.(FuncType)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !Unify(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return Unify(at.Return, bt.Return)
	case *RecordType:
		bt, ok := b.(*RecordType)
		return ok && at == bt
	case *UnionType:
		bt, ok := b.(*UnionType)
		return ok && at == bt
	default:
		return false
	}
}

// occursIn reports whether tv appears anywhere inside t, following resolved
// TypeVars and recursing into every compound type the same way Unify does.
// Unify must reject a binding occursIn would make true — without this, a
// constraint like `'t = List('t)` binds 'a cyclic type instead of failing,
// and Resolve/Repr on it loops forever.
func occursIn(tv *TypeVar, t DataType) bool {
	t = Resolve(t)
	switch tt := t.(type) {
	case *TypeVar:
		return tt == tv
	case ListType:
		return occursIn(tv, tt.Elem)
	case MapType:
		return occursIn(tv, tt.Key) || occursIn(tv, tt.Value)
	case OptionType:
		return occursIn(tv, tt.Elem)
	case FuncType:
		for _, p := range tt.Params {
			if occursIn(tv, p) {
				return true
			}
		}
		return occursIn(tv, tt.Return)
	default:
		return false
	}
}
