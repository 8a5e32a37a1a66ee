package hir

import (
	"github.com/mrzdevcore/haira/report"
	"github.com/mrzdevcore/haira/typing"
)

// CheckProgram is component B's actual verification pass (spec §4.2): it
// re-walks the merged HIR program — user-lowered and AI-materialized
// functions alike, with no special path for either (spec §4.5) — and solves
// one typing.Solver per function, constraining every BinaryOp/UnaryOp/Call/
// FieldAccess/Construct/If/Match/Return node against the types Lowerer and
// Materializer already assigned. It checks every function, so each failing
// one reports its own TypeErrors, and returns false if any of them failed to
// solve.
func CheckProgram(funcs []*Function, resolver TypeResolver) bool {
	methods := typing.NewMethodTableFromFuncs(resolver.AllFuncs())
	ok := true
	for _, fn := range funcs {
		if !checkFunc(fn, resolver, methods) {
			ok = false
		}
	}
	return ok
}

func checkFunc(fn *Function, resolver TypeResolver, methods *typing.MethodTable) bool {
	s := typing.NewSolver()
	c := &checker{solver: s, resolver: resolver, methods: methods, returnType: fn.ReturnType}
	c.checkBlock(fn.Body)
	return s.Solve()
}

// checker walks one function's already-typed HIR body, emitting the
// constraints a bottom-up lowering pass trusted but never actually proved.
type checker struct {
	solver     *typing.Solver
	resolver   TypeResolver
	methods    *typing.MethodTable
	returnType typing.DataType
}

func (c *checker) checkBlock(b *Block) {
	for _, stmt := range b.Stmts {
		c.checkStmt(stmt)
	}
}

func (c *checker) checkStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *LetStmt:
		c.checkExpr(s.Value)
	case *AssignStmt:
		c.checkExpr(s.Target)
		c.checkExpr(s.Value)
		c.solver.Constrain(s.Target.Type(), s.Value.Type(), report.Span{})
	case *ExprStmt:
		c.checkExpr(s.X)
	case *ReturnStmt:
		if s.Value != nil {
			c.checkExpr(s.Value)
			c.solver.Constrain(c.returnType, s.Value.Type(), report.Span{})
		}
	case BreakStmt, ContinueStmt:
	}
}

func (c *checker) checkExpr(e Expr) {
	switch x := e.(type) {
	case *Literal, *LocalRef:
		// leaves, nothing to constrain

	case *FieldAccess:
		c.checkExpr(x.Receiver)
		if ft, ok := typing.ResolveField(typing.FieldConstraint{RootType: x.Receiver.Type(), FieldName: x.Field}); ok {
			c.solver.Constrain(x.Typ, ft, report.Span{})
		}

	case *Index:
		c.checkExpr(x.Receiver)
		c.checkExpr(x.Key)

	case *Construct:
		rt, ok := typing.Resolve(x.Typ).(*typing.RecordType)
		for _, fv := range x.Fields {
			c.checkExpr(fv.Value)
			if !ok {
				continue
			}
			if ft, _, found := rt.FieldType(fv.Name); found {
				c.solver.Constrain(ft, fv.Value.Type(), report.Span{})
			}
		}

	case *CreateList:
		for _, el := range x.Elems {
			c.checkExpr(el)
			if lt, ok := typing.Resolve(x.Typ).(typing.ListType); ok {
				c.solver.Constrain(lt.Elem, el.Type(), report.Span{})
			}
		}

	case *CreateMap:
		for _, p := range x.Pairs {
			c.checkExpr(p.Key)
			c.checkExpr(p.Value)
			if mt, ok := typing.Resolve(x.Typ).(typing.MapType); ok {
				c.solver.Constrain(mt.Key, p.Key.Type(), report.Span{})
				c.solver.Constrain(mt.Value, p.Value.Type(), report.Span{})
			}
		}

	case *BinaryOp:
		c.checkExpr(x.Left)
		c.checkExpr(x.Right)
		switch x.Op {
		case "&&", "||":
			c.solver.Constrain(x.Left.Type(), typing.Bool, report.Span{})
			c.solver.Constrain(x.Right.Type(), typing.Bool, report.Span{})
		case "==", "!=", "<", "<=", ">", ">=":
			c.solver.Constrain(x.Left.Type(), x.Right.Type(), report.Span{})
		default:
			c.solver.Constrain(x.Left.Type(), x.Right.Type(), report.Span{})
			c.solver.Constrain(x.Typ, x.Left.Type(), report.Span{})
		}

	case *UnaryOp:
		c.checkExpr(x.Operand)
		if x.Op == "!" {
			c.solver.Constrain(x.Operand.Type(), typing.Bool, report.Span{})
		} else {
			c.solver.Constrain(x.Typ, x.Operand.Type(), report.Span{})
		}

	case *Call:
		for _, a := range x.Args {
			c.checkExpr(a)
		}
		c.checkCall(x)

	case *Lambda:
		c.checkBlock(x.Body)

	case *CollectionOp:
		c.checkExpr(x.Source)
		if x.Lambda != nil {
			c.checkExpr(x.Lambda)
		}
		if x.Seed != nil {
			c.checkExpr(x.Seed)
		}
		if x.N != nil {
			c.checkExpr(x.N)
		}

	case *IfExpr:
		c.checkExpr(x.Cond)
		c.solver.Constrain(x.Cond.Type(), typing.Bool, report.Span{})
		c.checkBlock(x.Then)
		if x.Else != nil {
			c.checkBlock(x.Else)
			c.solver.Constrain(blockValueType(x.Then), blockValueType(x.Else), report.Span{})
		}

	case *MatchExpr:
		c.checkExpr(x.Subject)
		for _, arm := range x.Arms {
			if arm.Guard != nil {
				c.checkExpr(arm.Guard)
				c.solver.Constrain(arm.Guard.Type(), typing.Bool, report.Span{})
			}
			c.checkBlock(arm.Body)
			c.solver.Constrain(x.Typ, blockValueType(arm.Body), report.Span{})
		}

	case *LoopExpr:
		c.checkBlock(x.Body)

	case *BlockExpr:
		c.checkBlock(x.Block)
	}
}

// checkCall resolves a Call's callee the same way Lowerer does (exact name,
// then structural method fallback) and constrains its arity and each
// argument's type against the declared signature, the ArityMismatch/
// Mismatch properties the bottom-up lowering pass never actually checked.
func (c *checker) checkCall(call *Call) {
	sig, ok := c.resolver.LookupFunc(call.Callee)
	if !ok && c.methods != nil && len(call.Args) > 0 {
		if entry, found := c.methods.Lookup(call.Args[0].Type(), methodSuffix(call.Callee)); found {
			sig, ok = entry.Sig, true
		}
	}
	if !ok {
		// Builtins (to_string, haira_set_error, $option_present, ...) and
		// forward references to not-yet-synthesized AI functions have no
		// declared signature to check against.
		return
	}
	if len(sig.Params) != len(call.Args) {
		report.Report(report.TypeError(report.TypeErrorArityMismatch, report.Span{},
			"`%s` expects %d argument(s), got %d", call.Callee, len(sig.Params), len(call.Args)))
		return
	}
	for i, arg := range call.Args {
		c.solver.Constrain(sig.Params[i], arg.Type(), report.Span{})
	}
	c.solver.Constrain(call.Typ, sig.Return, report.Span{})
}

func methodSuffix(callee string) string {
	for i := len(callee) - 1; i >= 1; i-- {
		if callee[i-1] == ':' && callee[i] == ':' {
			return callee[i+1:]
		}
	}
	return callee
}
