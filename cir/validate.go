package cir

import (
	"fmt"

	"github.com/mrzdevcore/haira/report"
)

// validKinds is the closed set of operations a CIR body may use (spec
// §4.3). DbQuery/HttpRequest/FileWrite are members of the set but are
// rejected by effect policy below rather than by kind membership, so a
// model that emits one gets the more specific "forbidden effect" message
// instead of a generic "unknown op" one; FileRead is in validKinds but not
// in effectOps, so it is never rejected (spec §9 OQ1 only forbids the other
// three).
var validKinds = map[OpKind]bool{
	OpGetField: true, OpGetIndex: true, OpSetField: true,
	OpMap: true, OpFilter: true, OpReduce: true, OpGroupBy: true,
	OpSort: true, OpTake: true, OpCount: true, OpSum: true, OpMin: true,
	OpMax: true, OpAvg: true, OpIf: true, OpMatch: true, OpLoop: true,
	OpConstruct: true, OpCreateList: true, OpCreateMap: true,
	OpBinaryOp: true, OpUnaryOp: true, OpCall: true, OpLiteral: true,
	OpDbQuery: true, OpHttpRequest: true, OpFileRead: true, OpFileWrite: true,
}

// inputArity fixes the number of Inputs each op kind expects, where that
// count does not depend on context. Ops not listed here either take a
// variable-length Inputs list (CreateList, Construct via Fields) or are
// validated by more specific code (Map family, If, Match, Loop).
var inputArity = map[OpKind]int{
	OpGetField: 1, OpGetIndex: 2, OpSetField: 2,
	OpTake: 2, OpCount: 1, OpSum: 1, OpMin: 1, OpMax: 1, OpAvg: 1,
	OpBinaryOp: 2, OpUnaryOp: 1, OpFileRead: 1,
}

// unknownType marks an op whose result type this validator could not pin
// down from purely local information (no project-wide resolver is threaded
// through CIR validation, only into hir.Materializer/Lowerer and the real
// verification pass, hir.CheckProgram). It is a legitimate Type value, not
// an error: a return-type mismatch is only ever reported when both sides
// are actually known.
var unknownType = Type{Kind: "unknown"}

// Validator checks a CIR Function for well-formedness (every op's Result is
// unique, every Inputs entry names a parameter or an earlier result in
// scope), that its shape matches its Kind, and — spec §4.3's type-safety
// step — computes each op's result type from its already-typed inputs,
// storing it on Op.ResultType and finally checking (or binding, if declared
// `unknown`) the function's declared return type against the type the
// trailing `result = "return"` op actually produced. It implements the
// two-strike retry contract from spec §4.4: Validate is called once per AI
// response; the caller decides whether a failure earns a retry.
type Validator struct {
	env   map[string]bool // names currently in scope: params ∪ prior results
	types map[string]Type // computed type of every name currently in scope
}

// NewValidator creates a validator seeded with a function's parameter
// environment.
func NewValidator(fn *Function) *Validator {
	env := make(map[string]bool, len(fn.ParamNames))
	types := make(map[string]Type, len(fn.ParamNames))
	for i, name := range fn.ParamNames {
		env[name] = true
		if i < len(fn.Params) {
			types[name] = fn.Params[i]
		} else {
			types[name] = unknownType
		}
	}
	return &Validator{env: env, types: types}
}

// Validate checks fn's entire body, then checks the trailing `return` op's
// computed type against fn.Return, binding fn.Return in place if it was
// declared `unknown`. It returns the first rejected op's result name (for
// report.CIRValidationError's firstRejectedOp argument) and whether the
// function passed validation.
func Validate(fn *Function) (firstRejected string, ok bool) {
	v := NewValidator(fn)
	bad, ok := v.checkBody(fn.Body)
	if !ok {
		return bad, false
	}
	return v.checkReturnType(fn)
}

// checkReturnType locates the top-level op (fn.Body is the only scope a
// function's actual return value can come from — a "return"-named op
// nested inside a lambda or branch body names that body's own trailing
// value instead) named "return" and reconciles its computed type against
// fn.Return.
func (v *Validator) checkReturnType(fn *Function) (string, bool) {
	var retOp *Op
	for i := range fn.Body {
		if fn.Body[i].Result == "return" {
			retOp = &fn.Body[i]
		}
	}
	if retOp == nil || retOp.ResultType == nil {
		return "", true
	}
	computed := *retOp.ResultType
	if computed.Kind == "unknown" {
		return "", true
	}
	if fn.Return.Kind == "unknown" || fn.Return.Kind == "" {
		fn.Return = computed
		return "", true
	}
	if !typesEqual(fn.Return, computed) {
		return "return", false
	}
	return "", true
}

// checkBody walks a flat op list against v's current scope, binding each
// op's Result (and its computed type) as it goes so later ops in the same
// list may reference it.
func (v *Validator) checkBody(ops []Op) (string, bool) {
	seen := map[string]bool{}
	for i := range ops {
		op := ops[i]
		if bad, ok := v.checkOp(op); !ok {
			return bad, false
		}
		if op.Result != "" {
			if seen[op.Result] || v.env[op.Result] {
				return op.Result, false
			}
			seen[op.Result] = true

			computed := v.computeType(op)
			ops[i].ResultType = &computed
			v.env[op.Result] = true
			v.types[op.Result] = computed
		}
	}
	return "", true
}

func (v *Validator) checkOp(op Op) (string, bool) {
	if !validKinds[op.Kind] {
		return reject(op)
	}
	if IsEffectOp(op.Kind) {
		// Haira has no `effects {…}` declaration in this release (spec §9
		// open question); every function is checked as if it declared none.
		return reject(op)
	}
	if n, fixed := inputArity[op.Kind]; fixed && len(op.Inputs) != n {
		return reject(op)
	}
	if !v.inputsInScope(op.Inputs) {
		return reject(op)
	}

	switch op.Kind {
	case OpLiteral:
		if op.LitType == nil {
			return reject(op)
		}
		return "", true
	case OpGetField, OpSetField:
		if op.Field == "" {
			return reject(op)
		}
		return "", true
	case OpFileRead:
		return "", true
	case OpCall:
		if op.Callee == "" {
			return reject(op)
		}
		return "", true
	case OpConstruct:
		if op.TypeName == "" {
			return reject(op)
		}
		names := make([]string, 0, len(op.Fields))
		for _, ref := range op.Fields {
			names = append(names, ref)
		}
		if !v.inputsInScope(names) {
			return reject(op)
		}
		return "", true
	case OpCreateList, OpCreateMap:
		return "", true
	case OpBinaryOp, OpUnaryOp:
		if op.Operator == "" {
			return reject(op)
		}
		return "", true
	case OpMap, OpFilter, OpReduce, OpGroupBy, OpSort:
		return v.checkLambdaOp(op)
	case OpIf:
		if len(op.Inputs) != 1 {
			return reject(op)
		}
		if bad, ok := v.checkScoped(op.Then); !ok {
			return bad, false
		}
		return v.checkScoped(op.Else)
	case OpMatch:
		if len(op.Inputs) != 1 {
			return reject(op)
		}
		for _, arm := range op.Arms {
			child := v.child()
			for _, b := range arm.Binds {
				child.env[b] = true
				child.types[b] = unknownType
			}
			if bad, ok := child.checkBody(arm.Body); !ok {
				return bad, false
			}
		}
		return "", true
	case OpLoop:
		return v.checkScoped(op.LoopBody)
	default:
		return reject(op)
	}
}

// checkLambdaOp validates the nested-lambda shape required of
// Map/Filter/Reduce/GroupBy/Sort (SPEC_FULL.md §4): a source operand in
// Inputs[0] (plus a seed in Inputs[1] for Reduce), a named LambdaParam, and
// a LambdaBody evaluated with that param bound in a fresh child scope.
func (v *Validator) checkLambdaOp(op Op) (string, bool) {
	minInputs := 1
	if op.Kind == OpReduce {
		minInputs = 2
	}
	if len(op.Inputs) < minInputs || op.LambdaParam == "" || len(op.LambdaBody) == 0 {
		return reject(op)
	}
	child := v.child()
	child.env[op.LambdaParam] = true
	child.types[op.LambdaParam] = v.lambdaElemType(op)
	if op.Kind == OpReduce {
		child.env["acc"] = true
		child.types["acc"] = v.typeOf(op.Inputs[1])
	}
	return child.checkBody(op.LambdaBody)
}

func (v *Validator) checkScoped(ops []Op) (string, bool) {
	return v.child().checkBody(ops)
}

func (v *Validator) child() *Validator {
	env := make(map[string]bool, len(v.env))
	for k := range v.env {
		env[k] = true
	}
	types := make(map[string]Type, len(v.types))
	for k, t := range v.types {
		types[k] = t
	}
	return &Validator{env: env, types: types}
}

func (v *Validator) inputsInScope(names []string) bool {
	for _, n := range names {
		if !v.env[n] {
			return false
		}
	}
	return true
}

// typeOf returns name's computed type, or unknownType if this validator
// never bound one for it (a param this CIR document never declared a type
// for, or a lambda/match binder whose element type isn't locally knowable).
func (v *Validator) typeOf(name string) Type {
	if t, ok := v.types[name]; ok {
		return t
	}
	return unknownType
}

// lambdaElemType is the type Map/Filter/Reduce/GroupBy/Sort bind their
// LambdaParam to: the source collection's element type, if known.
func (v *Validator) lambdaElemType(op Op) Type {
	if len(op.Inputs) == 0 {
		return unknownType
	}
	src := v.typeOf(op.Inputs[0])
	if src.Elem != nil {
		return *src.Elem
	}
	return unknownType
}

// computeType derives op's result type from its already-typed inputs,
// mirroring hir/materialize.go's own per-op type rules but in cir.Type
// terms. Ops this validator has no project-wide resolver to resolve
// precisely (GetField's record layout, Call's callee signature) compute to
// unknownType rather than guessing — hir.CheckProgram, which does have a
// resolver, is the pass that actually proves those.
func (v *Validator) computeType(op Op) Type {
	switch op.Kind {
	case OpLiteral:
		if op.LitType != nil {
			return *op.LitType
		}
		return unknownType

	case OpBinaryOp:
		switch op.Operator {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return Type{Kind: "bool"}
		default:
			if len(op.Inputs) > 0 {
				return v.typeOf(op.Inputs[0])
			}
			return unknownType
		}

	case OpUnaryOp:
		if op.Operator == "!" {
			return Type{Kind: "bool"}
		}
		if len(op.Inputs) > 0 {
			return v.typeOf(op.Inputs[0])
		}
		return unknownType

	case OpGetIndex:
		recv := v.typeOf(op.Inputs[0])
		if (recv.Kind == "List" || recv.Kind == "Map") && recv.Elem != nil {
			return *recv.Elem
		}
		return unknownType

	case OpSetField:
		return Type{Kind: "unit"}

	case OpConstruct:
		return Type{Kind: "Record", Name: op.TypeName}

	case OpCreateList:
		elem := unknownType
		if len(op.Inputs) > 0 {
			elem = v.typeOf(op.Inputs[0])
		}
		return Type{Kind: "List", Elem: &elem}

	case OpCreateMap:
		key, val := unknownType, unknownType
		if len(op.Inputs) >= 2 {
			key, val = v.typeOf(op.Inputs[0]), v.typeOf(op.Inputs[1])
		}
		return Type{Kind: "Map", Key: &key, Elem: &val}

	case OpFileRead:
		return Type{Kind: "string"}

	case OpTake, OpFilter, OpSort:
		if len(op.Inputs) > 0 {
			return v.typeOf(op.Inputs[0])
		}
		return unknownType

	case OpMap:
		elem := v.lambdaBodyType(op)
		return Type{Kind: "List", Elem: &elem}

	case OpReduce:
		if len(op.Inputs) > 1 {
			return v.typeOf(op.Inputs[1])
		}
		return unknownType

	case OpGroupBy:
		key := v.lambdaBodyType(op)
		srcElem := v.lambdaElemType(op)
		list := Type{Kind: "List", Elem: &srcElem}
		return Type{Kind: "Map", Key: &key, Elem: &list}

	case OpCount:
		return Type{Kind: "int"}

	case OpSum, OpMin, OpMax:
		return v.lambdaElemType(op)

	case OpAvg:
		return Type{Kind: "float"}

	case OpIf:
		return v.lastOpType(op.Then)

	case OpMatch:
		if len(op.Arms) > 0 {
			return v.lastOpType(op.Arms[0].Body)
		}
		return unknownType

	case OpLoop:
		return Type{Kind: "unit"}

	default:
		// GetField and Call have no locally knowable type without a
		// project-wide resolver.
		return unknownType
	}
}

// lambdaBodyType computes the value a Map/GroupBy lambda body trails off
// into, binding LambdaParam (and, for Reduce, "acc") in a fresh child scope
// exactly as checkLambdaOp does before re-walking the body for its type.
func (v *Validator) lambdaBodyType(op Op) Type {
	child := v.child()
	child.env[op.LambdaParam] = true
	child.types[op.LambdaParam] = v.lambdaElemType(op)
	if op.Kind == OpReduce && len(op.Inputs) > 1 {
		child.env["acc"] = true
		child.types["acc"] = v.typeOf(op.Inputs[1])
	}
	return child.lastOpType(op.LambdaBody)
}

// lastOpType computes the trailing value of a nested op list: the type
// bound to a "return"-named op if one exists, else the last bound op's
// type, else unknownType for an empty or entirely unnamed body.
func (v *Validator) lastOpType(ops []Op) Type {
	child := v.child()
	var last Type
	haveLast := false
	var returnType Type
	haveReturn := false
	for i := range ops {
		op := ops[i]
		computed := child.computeType(op)
		if op.Result != "" {
			child.env[op.Result] = true
			child.types[op.Result] = computed
			last, haveLast = computed, true
			if op.Result == "return" {
				returnType, haveReturn = computed, true
			}
		}
	}
	if haveReturn {
		return returnType
	}
	if haveLast {
		return last
	}
	return unknownType
}

// typesEqual is structural equality over cir.Type, recursing through
// Elem/Key/Return/Params — the flat, resolver-free counterpart of
// typing.Equals (cir has no TypeVar/pointer-identity concerns since every
// Type here is already a closed, JSON-decoded value).
func typesEqual(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == "Record" || a.Kind == "Union" {
		return a.Name == b.Name
	}
	if !typePtrEqual(a.Elem, b.Elem) || !typePtrEqual(a.Key, b.Key) || !typePtrEqual(a.Return, b.Return) {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !typesEqual(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

func typePtrEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return typesEqual(*a, *b)
}

func reject(op Op) (string, bool) {
	if op.Result != "" {
		return op.Result, false
	}
	return string(op.Kind), false
}

// ValidateOrReport runs Validate and, on failure, emits the
// CIRValidationError diagnostic spec §7 specifies, ready for the AI engine's
// two-strike retry loop to inspect via report.AnyErrors.
func ValidateOrReport(fn *Function) bool {
	bad, ok := Validate(fn)
	if !ok {
		report.Report(report.CIRValidationError(fn.Name, bad,
			fmt.Sprintf("rejected op `%s`: not well-formed, out of scope, a forbidden effect, or a return-type mismatch", bad)))
	}
	return ok
}
