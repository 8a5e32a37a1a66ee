package hir

import (
	"fmt"
	"strconv"

	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/typing"
)

// Lowerer implements component F: it walks hand-written AST function bodies
// and produces their HIR form, eliminating every surface construct spec
// §4.6 lists as sugar along the way (compound assignment, string
// interpolation, pipe, range, for/while, method calls, `?`) so that by the
// time MIR construction (component G) runs, AI-synthesized and hand-written
// functions are expressed in exactly the same closed HIR vocabulary.
//
// The Lowerer still infers each produced HIR node's type bottom-up from its
// already-lowered children rather than threading a typing.Solver constraint
// set through every ast.Node as it walks — that bottom-up pass is cheap and
// needs no backtracking since Haira has no higher-rank polymorphism to
// solve for. It is not, on its own, verification: CheckProgram re-walks the
// merged HIR program afterward with a real typing.Solver per function and
// is what actually rejects a mismatch (spec §4.2's TypeError/ArityMismatch/
// UnboundField/CannotInfer) rather than silently trusting whatever type
// this pass assigned.
type Lowerer struct {
	resolver   TypeResolver
	methods    *typing.MethodTable
	scopes     []map[string]Expr
	tmp        int
	returnType typing.DataType
}

// NewLowerer builds a Lowerer backed by resolver and methods, the project-
// wide structural dispatch table method calls fall back to when no exact
// `Type::method` function exists (spec §4.2 rule 4).
func NewLowerer(resolver TypeResolver, methods *typing.MethodTable) *Lowerer {
	return &Lowerer{resolver: resolver, methods: methods, scopes: []map[string]Expr{{}}}
}

func (l *Lowerer) push() { l.scopes = append(l.scopes, map[string]Expr{}) }
func (l *Lowerer) pop()  { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *Lowerer) bind(name string, e Expr) {
	l.scopes[len(l.scopes)-1][name] = e
}

func (l *Lowerer) lookup(name string) (Expr, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if e, ok := l.scopes[i][name]; ok {
			return e, true
		}
	}
	return nil, false
}

func (l *Lowerer) tempName() string {
	l.tmp++
	return "$t" + strconv.Itoa(l.tmp)
}

// LowerFunc lowers a user-written function definition into its HIR form.
func (l *Lowerer) LowerFunc(def *ast.FuncDef) (*Function, error) {
	l.scopes = []map[string]Expr{{}}
	params := make([]Param, len(def.Params))
	for i, p := range def.Params {
		pt := l.convertTypeExpr(p.Type)
		params[i] = Param{Name: p.Name, Type: pt}
		l.bind(p.Name, &LocalRef{Name: p.Name, Typ: pt})
	}

	retType := l.convertTypeExpr(def.ReturnType)
	l.returnType = retType

	block, err := l.lowerBlock(def.Body)
	if err != nil {
		return nil, err
	}
	finalizeAsReturn(block)

	if def.ReturnType == nil {
		retType = blockValueType(block)
	}

	return &Function{
		Name:       def.Name,
		Params:     params,
		ReturnType: retType,
		Body:       block,
		Public:     def.Public,
		Source:     SourceUser,
	}, nil
}

func (l *Lowerer) lowerBlock(b *ast.Block) (*Block, error) {
	l.push()
	defer l.pop()

	out := &Block{}
	for _, stmt := range b.Stmts {
		if err := l.lowerStmt(stmt, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *Lowerer) lowerStmt(stmt ast.Stmt, out *Block) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		val, err := l.lowerExpr(s.Value, out)
		if err != nil {
			return err
		}
		out.Stmts = append(out.Stmts, &LetStmt{Name: s.Name, Mutable: s.Mutable, Value: val})
		l.bind(s.Name, &LocalRef{Name: s.Name, Typ: val.Type()})
		return nil

	case *ast.AssignStmt:
		target, err := l.lowerExpr(s.LHS, out)
		if err != nil {
			return err
		}
		val, err := l.lowerExpr(s.RHS, out)
		if err != nil {
			return err
		}
		// Pass 0 of desugaring (spec §4.6): compound assignment becomes
		// `lhs = lhs op rhs` before anything else runs.
		if s.Op != "=" {
			op := s.Op[:len(s.Op)-1]
			val = &BinaryOp{Op: op, Left: target, Right: val, Typ: binaryResultType(op, target.Type())}
		}
		out.Stmts = append(out.Stmts, &AssignStmt{Target: target, Value: val})
		return nil

	case *ast.ExprStmt:
		x, err := l.lowerExpr(s.X, out)
		if err != nil {
			return err
		}
		out.Stmts = append(out.Stmts, &ExprStmt{X: x})
		return nil

	case *ast.ReturnStmt:
		var val Expr
		if s.Value != nil {
			var err error
			val, err = l.lowerExpr(s.Value, out)
			if err != nil {
				return err
			}
		}
		out.Stmts = append(out.Stmts, &ReturnStmt{Value: val})
		return nil

	case *ast.BreakStmt:
		out.Stmts = append(out.Stmts, BreakStmt{})
		return nil

	case *ast.ContinueStmt:
		out.Stmts = append(out.Stmts, ContinueStmt{})
		return nil

	case *ast.ForStmt:
		return l.lowerFor(s, out)

	case *ast.WhileStmt:
		return l.lowerWhile(s, out)

	default:
		return fmt.Errorf("hir: unhandled statement type %T", stmt)
	}
}

// lowerWhile desugars `while cond { body }` into
// `loop { if !cond { break }; body }` (spec §4.6).
func (l *Lowerer) lowerWhile(s *ast.WhileStmt, out *Block) error {
	l.push()
	defer l.pop()

	bodyBlock := &Block{}
	cond, err := l.lowerExpr(s.Cond, bodyBlock)
	if err != nil {
		return err
	}
	guard := &IfExpr{
		Cond: &UnaryOp{Op: "!", Operand: cond, Typ: typing.Bool},
		Then: &Block{Stmts: []Stmt{BreakStmt{}}},
		Typ:  typing.Unit,
	}
	bodyBlock.Stmts = append(bodyBlock.Stmts, &ExprStmt{X: guard})

	innerBody, err := l.lowerBlockStmts(s.Body)
	if err != nil {
		return err
	}
	bodyBlock.Stmts = append(bodyBlock.Stmts, innerBody.Stmts...)

	out.Stmts = append(out.Stmts, &ExprStmt{X: &LoopExpr{Body: bodyBlock, Typ: typing.Unit}})
	return nil
}

// lowerFor desugars `for binder in expr { body }`. A Range iterand lowers
// to a counter-driven loop directly; any other iterand is assumed to
// expose a `next() -> Option(T)` method (Haira's iterator protocol), and
// lowers to a loop that breaks when next() yields none — a scope decision
// this repo makes in the absence of a spec-defined general iterator
// interface (spec §9 is silent on iterables other than ranges and lists).
func (l *Lowerer) lowerFor(s *ast.ForStmt, out *Block) error {
	if rng, ok := s.Iter.(*ast.Range); ok {
		return l.lowerForRange(s, rng, out)
	}

	iter, err := l.lowerExpr(s.Iter, out)
	if err != nil {
		return err
	}
	itName := l.tempName()
	out.Stmts = append(out.Stmts, &LetStmt{Name: itName, Mutable: false, Value: iter})
	l.bind(itName, &LocalRef{Name: itName, Typ: iter.Type()})

	l.push()
	defer l.pop()

	iterElemType := elemType(iter.Type())
	bodyBlock := &Block{}
	curName := l.tempName()
	nextCall := &Call{Callee: typeName(iter.Type()) + "::next", Args: []Expr{&LocalRef{Name: itName, Typ: iter.Type()}}, Typ: typing.OptionType{Elem: iterElemType}}
	bodyBlock.Stmts = append(bodyBlock.Stmts, &LetStmt{Name: curName, Value: nextCall})
	curRef := &LocalRef{Name: curName, Typ: nextCall.Typ}

	bodyBlock.Stmts = append(bodyBlock.Stmts, &ExprStmt{X: &IfExpr{
		Cond: &UnaryOp{Op: "!", Operand: &Call{Callee: "$option_present", Args: []Expr{curRef}, Typ: typing.Bool}, Typ: typing.Bool},
		Then: &Block{Stmts: []Stmt{BreakStmt{}}},
		Typ:  typing.Unit,
	}})

	l.bind(s.Binder, &Call{Callee: "$option_unwrap", Args: []Expr{curRef}, Typ: iterElemType})
	innerBody, err := l.lowerBlockStmts(s.Body)
	if err != nil {
		return err
	}
	bodyBlock.Stmts = append(bodyBlock.Stmts, innerBody.Stmts...)

	out.Stmts = append(out.Stmts, &ExprStmt{X: &LoopExpr{Body: bodyBlock, Typ: typing.Unit}})
	return nil
}

// lowerForRange desugars `for binder in a..b { body }` / `a..=b` into a
// counter loop: `let $i = a; loop { if $i >= b (or > for inclusive) {
// break }; let binder = $i; body; $i = $i + 1 }`.
func (l *Lowerer) lowerForRange(s *ast.ForStmt, rng *ast.Range, out *Block) error {
	start, err := l.lowerExpr(rng.Start, out)
	if err != nil {
		return err
	}
	end, err := l.lowerExpr(rng.End, out)
	if err != nil {
		return err
	}
	counter := l.tempName()
	out.Stmts = append(out.Stmts, &LetStmt{Name: counter, Mutable: true, Value: start})
	counterRef := &LocalRef{Name: counter, Typ: typing.Int}

	l.push()
	defer l.pop()
	l.bind(counter, counterRef)

	stopOp := ">="
	if rng.Inclusive {
		stopOp = ">"
	}
	bodyBlock := &Block{Stmts: []Stmt{
		&ExprStmt{X: &IfExpr{
			Cond: &BinaryOp{Op: stopOp, Left: counterRef, Right: end, Typ: typing.Bool},
			Then: &Block{Stmts: []Stmt{BreakStmt{}}},
			Typ:  typing.Unit,
		}},
		&LetStmt{Name: s.Binder, Value: counterRef},
	}}
	l.bind(s.Binder, &LocalRef{Name: s.Binder, Typ: typing.Int})

	innerBody, err := l.lowerBlockStmts(s.Body)
	if err != nil {
		return err
	}
	bodyBlock.Stmts = append(bodyBlock.Stmts, innerBody.Stmts...)
	bodyBlock.Stmts = append(bodyBlock.Stmts, &AssignStmt{
		Target: counterRef,
		Value:  &BinaryOp{Op: "+", Left: counterRef, Right: &Literal{Val: int64(1), Typ: typing.Int}, Typ: typing.Int},
	})

	out.Stmts = append(out.Stmts, &ExprStmt{X: &LoopExpr{Body: bodyBlock, Typ: typing.Unit}})
	return nil
}

// lowerBlockStmts lowers a loop/if body block's statements without opening
// the extra scope lowerBlock would (the caller already pushed one for the
// loop's own binder), reusing the current scope.
func (l *Lowerer) lowerBlockStmts(b *ast.Block) (*Block, error) {
	out := &Block{}
	for _, stmt := range b.Stmts {
		if err := l.lowerStmt(stmt, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *Lowerer) lowerExpr(e ast.Expr, out *Block) (Expr, error) {
	switch v := e.(type) {
	case *ast.Literal:
		return l.lowerLiteral(v), nil

	case *ast.Interpolation:
		return l.lowerInterpolation(v, out)

	case *ast.Ident:
		if ref, ok := l.lookup(v.Name); ok {
			return ref, nil
		}
		return nil, fmt.Errorf("hir: unbound identifier %q", v.Name)

	case *ast.QualifiedIdent:
		if ref, ok := l.lookup(v.Name); ok {
			return ref, nil
		}
		return nil, fmt.Errorf("hir: unbound qualified identifier %q", v.Name)

	case *ast.BinaryOp:
		left, err := l.lowerExpr(v.Left, out)
		if err != nil {
			return nil, err
		}
		right, err := l.lowerExpr(v.Right, out)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: v.Op, Left: left, Right: right, Typ: binaryResultType(v.Op, left.Type())}, nil

	case *ast.UnaryOp:
		operand, err := l.lowerExpr(v.Operand, out)
		if err != nil {
			return nil, err
		}
		typ := operand.Type()
		if v.Op == "!" {
			typ = typing.Bool
		}
		return &UnaryOp{Op: v.Op, Operand: operand, Typ: typ}, nil

	case *ast.Call:
		return l.lowerCall(v, out)

	case *ast.FieldAccess:
		recv, err := l.lowerExpr(v.Receiver, out)
		if err != nil {
			return nil, err
		}
		return &FieldAccess{Receiver: recv, Field: v.Name, Typ: fieldType(recv.Type(), v.Name)}, nil

	case *ast.MethodCall:
		return l.lowerMethodCall(v, out)

	case *ast.Index:
		recv, err := l.lowerExpr(v.Receiver, out)
		if err != nil {
			return nil, err
		}
		idx, err := l.lowerExpr(v.Index, out)
		if err != nil {
			return nil, err
		}
		return &Index{Receiver: recv, Key: idx, Typ: elemType(recv.Type())}, nil

	case *ast.Pipe:
		// a | f(args...) desugars directly to f(a, args...) (spec §4.2, §4.6).
		synthetic := &ast.Call{Base: v.Call.Base, Callee: v.Call.Callee, Args: append([]ast.Expr{v.Value}, v.Call.Args...)}
		return l.lowerCall(synthetic, out)

	case *ast.Range:
		return l.lowerRangeValue(v, out)

	case *ast.ListLit:
		elems := make([]Expr, len(v.Elems))
		for i, el := range v.Elems {
			lowered, err := l.lowerExpr(el, out)
			if err != nil {
				return nil, err
			}
			elems[i] = lowered
		}
		elemT := typing.DataType(typing.Unit)
		if len(elems) > 0 {
			elemT = elems[0].Type()
		}
		return &CreateList{Elems: elems, Typ: typing.ListType{Elem: elemT}}, nil

	case *ast.MapLit:
		pairs := make([]MapPair, len(v.Entries))
		for i, entry := range v.Entries {
			k, err := l.lowerExpr(entry.Key, out)
			if err != nil {
				return nil, err
			}
			val, err := l.lowerExpr(entry.Value, out)
			if err != nil {
				return nil, err
			}
			pairs[i] = MapPair{Key: k, Value: val}
		}
		keyT, valT := typing.DataType(typing.Unit), typing.DataType(typing.Unit)
		if len(pairs) > 0 {
			keyT, valT = pairs[0].Key.Type(), pairs[0].Value.Type()
		}
		return &CreateMap{Pairs: pairs, Typ: typing.MapType{Key: keyT, Value: valT}}, nil

	case *ast.Construct:
		fields := make([]FieldValue, len(v.Fields))
		for i, fi := range v.Fields {
			val, err := l.lowerExpr(fi.Value, out)
			if err != nil {
				return nil, err
			}
			fields[i] = FieldValue{Name: fi.Name, Value: val}
		}
		var typ typing.DataType = &typing.RecordType{Name: v.TypeName}
		if rt, ok := l.resolver.LookupRecord(v.TypeName); ok {
			typ = rt
		}
		return &Construct{RecordName: v.TypeName, Fields: fields, Typ: typ}, nil

	case *ast.IfExpr:
		return l.lowerIf(v, out)

	case *ast.MatchExpr:
		return l.lowerMatch(v, out)

	case *ast.TryExpr:
		return l.lowerTry(v, out)

	case *ast.OptionTest:
		inner, err := l.lowerExpr(v.Value, out)
		if err != nil {
			return nil, err
		}
		return &Call{Callee: "$option_present", Args: []Expr{inner}, Typ: typing.Bool}, nil

	case *ast.Lambda:
		return l.lowerLambda(v)

	case *ast.BlockExpr:
		block, err := l.lowerBlock(v.Block)
		if err != nil {
			return nil, err
		}
		return &BlockExpr{Block: block, Typ: blockValueType(block)}, nil

	default:
		return nil, fmt.Errorf("hir: unhandled expression type %T", e)
	}
}

func (l *Lowerer) lowerLiteral(lit *ast.Literal) *Literal {
	switch lit.Kind {
	case ast.LitInt:
		return &Literal{Val: lit.Int, Typ: typing.Int}
	case ast.LitFloat:
		return &Literal{Val: lit.Flt, Typ: typing.Float}
	case ast.LitBool:
		return &Literal{Val: lit.Bool, Typ: typing.Bool}
	case ast.LitString:
		return &Literal{Val: lit.Str, Typ: typing.String}
	case ast.LitNone:
		return &Literal{Val: nil, Typ: typing.OptionType{Elem: typing.Unit}}
	default:
		return &Literal{Val: nil, Typ: typing.Unit}
	}
}

// lowerInterpolation desugars `"hi ${name}!"` into a `+` chain of string
// literal chunks and `to_string(expr)` calls (spec §4.6).
func (l *Lowerer) lowerInterpolation(interp *ast.Interpolation, out *Block) (Expr, error) {
	var result Expr
	for _, part := range interp.Parts {
		var piece Expr
		if part.Expr == nil {
			piece = &Literal{Val: part.Text, Typ: typing.String}
		} else {
			lowered, err := l.lowerExpr(part.Expr, out)
			if err != nil {
				return nil, err
			}
			if typing.Equals(lowered.Type(), typing.String) {
				piece = lowered
			} else {
				piece = &Call{Callee: "to_string", Args: []Expr{lowered}, Typ: typing.String}
			}
		}
		if result == nil {
			result = piece
		} else {
			result = &BinaryOp{Op: "+", Left: result, Right: piece, Typ: typing.String}
		}
	}
	if result == nil {
		return &Literal{Val: "", Typ: typing.String}, nil
	}
	return result, nil
}

func (l *Lowerer) lowerCall(call *ast.Call, out *Block) (Expr, error) {
	name, err := calleeName(call.Callee)
	if err != nil {
		return nil, err
	}

	// `ok(v)`/`err(code)` are the two builtin constructors of a fallible
	// function's `(T, Error)` signature (spec §4.6, §7); both lower to
	// the thread-local error slot rather than a real second value.
	switch name {
	case "ok":
		if len(call.Args) == 1 {
			return l.lowerOk(call.Args[0], out)
		}
	case "err":
		if len(call.Args) == 1 {
			return l.lowerErr(call.Args[0], out)
		}
	}

	args := make([]Expr, len(call.Args))
	for i, a := range call.Args {
		lowered, err := l.lowerExpr(a, out)
		if err != nil {
			return nil, err
		}
		args[i] = lowered
	}
	retT := typing.DataType(typing.Unit)
	if sig, ok := l.resolver.LookupFunc(name); ok {
		retT = sig.Return
	}
	return &Call{Callee: name, Args: args, Typ: retT}, nil
}

// lowerOk lowers `ok(v)`: clear the thread-local error slot, then evaluate
// to v.
func (l *Lowerer) lowerOk(arg ast.Expr, out *Block) (Expr, error) {
	v, err := l.lowerExpr(arg, out)
	if err != nil {
		return nil, err
	}
	block := &Block{Stmts: []Stmt{
		&ExprStmt{X: &Call{Callee: "haira_clear_error", Typ: typing.Unit}},
		&ExprStmt{X: v},
	}}
	return &BlockExpr{Block: block, Typ: v.Type()}, nil
}

// lowerErr lowers `err(code)`: set the thread-local error slot, then
// evaluate to the zero value of the enclosing function's return type
// (spec §6's ABI carries the actual failure in the slot, not the value).
func (l *Lowerer) lowerErr(arg ast.Expr, out *Block) (Expr, error) {
	code, err := l.lowerExpr(arg, out)
	if err != nil {
		return nil, err
	}
	block := &Block{Stmts: []Stmt{
		&ExprStmt{X: &Call{Callee: "haira_set_error", Args: []Expr{code}, Typ: typing.Unit}},
		&ExprStmt{X: zeroValue(l.returnType)},
	}}
	return &BlockExpr{Block: block, Typ: l.returnType}, nil
}

// lowerMethodCall desugars `x.m(args...)` (spec §4.2 rule 4, §4.6): Haira
// has no `impl` blocks, so method dispatch first tries the exact
// `T_of_x::m` mangled name and, absent that, falls back to any top-level
// function taking the receiver's type as its first parameter via the
// project's typing.MethodTable.
func (l *Lowerer) lowerMethodCall(mc *ast.MethodCall, out *Block) (Expr, error) {
	recv, err := l.lowerExpr(mc.Receiver, out)
	if err != nil {
		return nil, err
	}
	args := make([]Expr, len(mc.Args)+1)
	args[0] = recv
	for i, a := range mc.Args {
		lowered, err := l.lowerExpr(a, out)
		if err != nil {
			return nil, err
		}
		args[i+1] = lowered
	}

	callee := typeName(recv.Type()) + "::" + mc.Method
	sig, ok := l.resolver.LookupFunc(callee)
	if !ok && l.methods != nil {
		if entry, found := l.methods.Lookup(recv.Type(), mc.Method); found {
			callee, sig, ok = entry.Name, entry.Sig, true
		}
	}
	if !ok {
		return nil, fmt.Errorf("hir: no method `%s` on `%s`", mc.Method, typeName(recv.Type()))
	}
	if len(sig.Params) != len(args) {
		return nil, fmt.Errorf("hir: method `%s` on `%s` expects %d argument(s), got %d",
			mc.Method, typeName(recv.Type()), len(sig.Params)-1, len(args)-1)
	}
	return &Call{Callee: callee, Args: args, Typ: sig.Return}, nil
}

func (l *Lowerer) lowerIf(ifExpr *ast.IfExpr, out *Block) (Expr, error) {
	cond, err := l.lowerExpr(ifExpr.Cond, out)
	if err != nil {
		return nil, err
	}
	thenBlock, err := l.lowerBlock(ifExpr.Then)
	if err != nil {
		return nil, err
	}
	var elseBlock *Block
	switch e := ifExpr.Else.(type) {
	case nil:
	case *ast.Block:
		elseBlock, err = l.lowerBlock(e)
		if err != nil {
			return nil, err
		}
	case *ast.IfExpr:
		nested, err := l.lowerIf(e, out)
		if err != nil {
			return nil, err
		}
		elseBlock = &Block{Stmts: []Stmt{&ExprStmt{X: nested}}}
	default:
		return nil, fmt.Errorf("hir: unexpected else node type %T", ifExpr.Else)
	}
	return &IfExpr{Cond: cond, Then: thenBlock, Else: elseBlock, Typ: blockValueType(thenBlock)}, nil
}

// lowerMatch lowers `match subject { arm... }` directly into an ordered
// MatchArm chain — HIR's MatchExpr already *is* the "ordered decision tree
// via tag dispatch" spec §4.6 asks F to produce (see hir.MatchArm's doc).
func (l *Lowerer) lowerMatch(m *ast.MatchExpr, out *Block) (Expr, error) {
	subject, err := l.lowerExpr(m.Subject, out)
	if err != nil {
		return nil, err
	}
	arms := make([]MatchArm, len(m.Arms))
	var commonType typing.DataType
	for i, arm := range m.Arms {
		l.push()
		pat, err := l.lowerPattern(arm.Pattern, subject.Type())
		if err != nil {
			l.pop()
			return nil, err
		}
		var guard Expr
		if arm.Guard != nil {
			guard, err = l.lowerExpr(arm.Guard, out)
			if err != nil {
				l.pop()
				return nil, err
			}
		}
		body, err := l.lowerBlock(arm.Body)
		l.pop()
		if err != nil {
			return nil, err
		}
		if commonType == nil {
			commonType = blockValueType(body)
		}
		arms[i] = MatchArm{Pat: pat, Guard: guard, Body: body}
	}
	return &MatchExpr{Subject: subject, Arms: arms, Typ: commonType}, nil
}

func (l *Lowerer) lowerPattern(p ast.Pattern, subjectType typing.DataType) (Pattern, error) {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
		return WildcardPattern{}, nil
	case *ast.BindPattern:
		l.bind(pat.Name, &LocalRef{Name: pat.Name, Typ: subjectType})
		return BindPattern{Name: pat.Name}, nil
	case *ast.LiteralPattern:
		return LiteralPattern{Value: l.lowerLiteral(pat.Lit).Val}, nil
	case *ast.VariantPattern:
		if ut, ok := typing.Resolve(subjectType).(*typing.UnionType); ok {
			if variant, ok := ut.Variant(pat.Variant); ok {
				for i, bindName := range pat.Binds {
					if i < len(variant.Fields) {
						l.bind(bindName, &LocalRef{Name: bindName, Typ: variant.Fields[i].Type})
					}
				}
			}
		}
		return VariantPattern{Variant: pat.Variant, Binds: pat.Binds}, nil
	default:
		return nil, fmt.Errorf("hir: unhandled pattern type %T", p)
	}
}

// lowerRangeValue lowers a Range used as a plain expression (not a for
// iterand) into a Construct of the built-in Range record — a synthesized
// type this repo's runtime ABI provides `start`/`end`/`inclusive` fields
// for, since spec §4.2 only defines Range syntactically and leaves its
// standalone (non-for) value representation unspecified.
func (l *Lowerer) lowerRangeValue(rng *ast.Range, out *Block) (Expr, error) {
	start, err := l.lowerExpr(rng.Start, out)
	if err != nil {
		return nil, err
	}
	end, err := l.lowerExpr(rng.End, out)
	if err != nil {
		return nil, err
	}
	return &Construct{
		RecordName: "Range",
		Fields: []FieldValue{
			{Name: "start", Value: start},
			{Name: "end", Value: end},
			{Name: "inclusive", Value: &Literal{Val: rng.Inclusive, Typ: typing.Bool}},
		},
		Typ: &typing.RecordType{Name: "Range", Fields: []typing.RecordField{
			{Name: "start", Type: start.Type()},
			{Name: "end", Type: end.Type()},
			{Name: "inclusive", Type: typing.Bool},
		}},
	}, nil
}

// lowerTry desugars `expr?` per spec §6/§7's actual error model: a fallible
// call's second "value" of its two-value `(T, Error)` signature is never a
// real second return slot — it is threaded through the runtime ABI's
// thread-local error slot (`haira_has_error`/`haira_get_error`/
// `haira_set_error`/`haira_clear_error`). So `expr?` lowers to: evaluate
// expr, and if the call left the error slot set, return immediately
// (propagating it unresolved to the caller, who must itself return or
// clear it) with a zero value of the enclosing function's own return type;
// otherwise the try-expression's value is simply expr's result.
func (l *Lowerer) lowerTry(t *ast.TryExpr, out *Block) (Expr, error) {
	inner, err := l.lowerExpr(t.Inner, out)
	if err != nil {
		return nil, err
	}
	tmp := l.tempName()
	out.Stmts = append(out.Stmts, &LetStmt{Name: tmp, Value: inner})
	tmpRef := &LocalRef{Name: tmp, Typ: inner.Type()}

	out.Stmts = append(out.Stmts, &ExprStmt{X: &IfExpr{
		Cond: &Call{Callee: "haira_has_error", Typ: typing.Bool},
		Then: &Block{Stmts: []Stmt{&ReturnStmt{Value: zeroValue(l.returnType)}}},
		Typ:  typing.Unit,
	}})
	return tmpRef, nil
}

// zeroValue produces the default value codegen materializes for an early
// error-propagating return, since the slot (not the return value) carries
// the actual failure.
func zeroValue(t typing.DataType) Expr {
	switch rt := typing.Resolve(t).(type) {
	case typing.PrimType:
		switch rt.Kind {
		case typing.PrimInt:
			return &Literal{Val: int64(0), Typ: t}
		case typing.PrimFloat:
			return &Literal{Val: float64(0), Typ: t}
		case typing.PrimBool:
			return &Literal{Val: false, Typ: t}
		case typing.PrimString:
			return &Literal{Val: "", Typ: t}
		default:
			return &Literal{Val: nil, Typ: t}
		}
	case typing.OptionType:
		return &Literal{Val: nil, Typ: t}
	default:
		return &Literal{Val: nil, Typ: t}
	}
}

func (l *Lowerer) lowerLambda(lam *ast.Lambda) (Expr, error) {
	l.push()
	defer l.pop()

	params := make([]Param, len(lam.Params))
	paramTypes := make([]typing.DataType, len(lam.Params))
	for i, p := range lam.Params {
		pt := l.convertTypeExpr(p.Type)
		params[i] = Param{Name: p.Name, Type: pt}
		paramTypes[i] = pt
		l.bind(p.Name, &LocalRef{Name: p.Name, Typ: pt})
	}
	body, err := l.lowerBlock(lam.Body)
	if err != nil {
		return nil, err
	}
	return &Lambda{Params: params, Body: body, Typ: typing.FuncType{Params: paramTypes, Return: blockValueType(body)}}, nil
}

func (l *Lowerer) convertTypeExpr(te ast.TypeExpr) typing.DataType {
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
		if rt, ok := l.resolver.LookupRecord(t.Name); ok {
			return rt
		}
		if ut, ok := l.resolver.LookupUnion(t.Name); ok {
			return ut
		}
		return &typing.RecordType{Name: t.Name}
	case *ast.GenericTypeExpr:
		switch t.Name {
		case "List":
			return typing.ListType{Elem: l.convertTypeExpr(firstOrNil(t.Args))}
		case "Map":
			if len(t.Args) == 2 {
				return typing.MapType{Key: l.convertTypeExpr(t.Args[0]), Value: l.convertTypeExpr(t.Args[1])}
			}
		case "Option":
			return typing.OptionType{Elem: l.convertTypeExpr(firstOrNil(t.Args))}
		}
		return typing.Unit
	case *ast.FuncTypeExpr:
		params := make([]typing.DataType, len(t.Params))
		for i, p := range t.Params {
			params[i] = l.convertTypeExpr(p)
		}
		return typing.FuncType{Params: params, Return: l.convertTypeExpr(t.Return)}
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

func calleeName(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.Ident:
		return v.Name, nil
	case *ast.QualifiedIdent:
		return v.Name, nil
	default:
		return "", fmt.Errorf("hir: call target must be a named function, got %T", e)
	}
}

func typeName(t typing.DataType) string {
	switch rt := typing.Resolve(t).(type) {
	case *typing.RecordType:
		return rt.Name
	case *typing.UnionType:
		return rt.Name
	case typing.PrimType:
		return rt.Repr()
	case typing.ListType:
		return "List"
	case typing.MapType:
		return "Map"
	case typing.OptionType:
		return "Option"
	default:
		return "unknown"
	}
}
