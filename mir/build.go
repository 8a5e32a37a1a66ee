package mir

import (
	"fmt"

	"github.com/mrzdevcore/haira/hir"
	"github.com/mrzdevcore/haira/typing"
)

// Builder lowers a single hir.Function into basic-block SSA form. Structured
// control flow (if/match/loop) has no arbitrary gotos to preserve, so the
// builder never needs general Cytron-style dominance computation to place
// φ-nodes — it only ever needs to thread values through the one join block
// each construct produces, which it does directly as it walks the tree.
type Builder struct {
	fn   *Func
	cur  *Block
	env  map[string]Value
	tmp  int
	loops []*loopCtx
}

// loopCtx tracks the header/after blocks and the ordered set of
// loop-carried variable names for the innermost enclosing LoopExpr, so
// Break/Continue know which edge to take and which Args to supply.
type loopCtx struct {
	header *Block
	after  *Block
	vars   []string
}

// Build lowers fn into a MIR function, component G's entry point.
func Build(fn *hir.Function) (*Func, error) {
	b := &Builder{
		fn:  &Func{Name: fn.Name, ReturnType: fn.ReturnType, Public: fn.Public},
		env: map[string]Value{},
	}
	entry := b.newBlock()
	b.fn.Entry = entry
	b.cur = entry
	for _, p := range fn.Params {
		mp := Param{Name: p.Name, Typ: p.Type}
		b.fn.Params = append(b.fn.Params, mp)
		entry.Params = append(entry.Params, mp)
		b.env[p.Name] = Ref{Name: p.Name, Typ: p.Type}
	}
	if err := b.lowerStmts(fn.Body.Stmts); err != nil {
		return nil, err
	}
	if b.cur.Term == nil {
		b.cur.Term = &ReturnTerm{}
	}
	return b.fn, nil
}

func (b *Builder) newBlock() *Block {
	blk := &Block{ID: len(b.fn.Blocks)}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

func (b *Builder) tempName() string {
	n := fmt.Sprintf("$%d", b.tmp)
	b.tmp++
	return n
}

func (b *Builder) terminated() bool {
	return b.cur.Term != nil
}

func (b *Builder) push(instr Instr) Value {
	b.cur.Instrs = append(b.cur.Instrs, instr)
	return Ref{Name: instr.Result(), Typ: instr.Type()}
}

// lowerStmts lowers a statement list into the current block, stopping early
// (without error) if a statement terminates the block (return/break/continue).
func (b *Builder) lowerStmts(stmts []hir.Stmt) error {
	for _, s := range stmts {
		if b.terminated() {
			return nil
		}
		if err := b.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// lowerStmtsTail is lowerStmts but additionally reports the value produced
// by a trailing ExprStmt, for use where the enclosing construct (if/match
// arm/loop body is never a value itself, but hir.BlockExpr is) needs it.
func (b *Builder) lowerStmtsTail(stmts []hir.Stmt) (Value, error) {
	for i, s := range stmts {
		if b.terminated() {
			return nil, nil
		}
		if i == len(stmts)-1 {
			if es, ok := s.(*hir.ExprStmt); ok {
				return b.lowerExpr(es.X)
			}
		}
		if err := b.lowerStmt(s); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (b *Builder) lowerStmt(s hir.Stmt) error {
	switch st := s.(type) {
	case *hir.LetStmt:
		v, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		b.env[st.Name] = v
		return nil

	case *hir.AssignStmt:
		v, err := b.lowerExpr(st.Value)
		if err != nil {
			return err
		}
		switch tgt := st.Target.(type) {
		case *hir.LocalRef:
			b.env[tgt.Name] = v
			return nil
		case *hir.FieldAccess:
			structVal, err := b.lowerExpr(tgt.Receiver)
			if err != nil {
				return err
			}
			b.push(&FieldAssign{Res: b.tempName(), Struct: structVal, Field: tgt.Field, Val: v})
			return nil
		default:
			return fmt.Errorf("mir: unsupported assignment target %T", st.Target)
		}

	case *hir.ExprStmt:
		_, err := b.lowerExpr(st.X)
		return err

	case *hir.ReturnStmt:
		var v Value
		if st.Value != nil {
			var err error
			v, err = b.lowerExpr(st.Value)
			if err != nil {
				return err
			}
		}
		b.cur.Term = &ReturnTerm{Value: v}
		return nil

	case hir.BreakStmt:
		if len(b.loops) == 0 {
			return fmt.Errorf("mir: break outside of a loop")
		}
		lc := b.loops[len(b.loops)-1]
		b.cur.Term = &GotoTerm{To: Edge{Target: lc.after, Args: b.carriedArgs(lc.vars)}}
		return nil

	case hir.ContinueStmt:
		if len(b.loops) == 0 {
			return fmt.Errorf("mir: continue outside of a loop")
		}
		lc := b.loops[len(b.loops)-1]
		b.cur.Term = &GotoTerm{To: Edge{Target: lc.header, Args: b.carriedArgs(lc.vars)}}
		return nil

	default:
		return fmt.Errorf("mir: unsupported hir.Stmt %T", s)
	}
}

func (b *Builder) carriedArgs(vars []string) []Value {
	args := make([]Value, len(vars))
	for i, name := range vars {
		args[i] = b.env[name]
	}
	return args
}

func (b *Builder) lowerExpr(e hir.Expr) (Value, error) {
	switch v := e.(type) {
	case *hir.Literal:
		return Const{Val: v.Val, Typ: v.Typ}, nil

	case *hir.LocalRef:
		val, ok := b.env[v.Name]
		if !ok {
			return nil, fmt.Errorf("mir: reference to unbound name %q", v.Name)
		}
		return val, nil

	case *hir.FieldAccess:
		recv, err := b.lowerExpr(v.Receiver)
		if err != nil {
			return nil, err
		}
		return b.push(&FieldInstr{Res: b.tempName(), Struct: recv, Field: v.Field, Typ: v.Typ}), nil

	case *hir.Index:
		recv, err := b.lowerExpr(v.Receiver)
		if err != nil {
			return nil, err
		}
		key, err := b.lowerExpr(v.Key)
		if err != nil {
			return nil, err
		}
		return b.push(&IndexInstr{Res: b.tempName(), Recv: recv, Key: key, Typ: v.Typ}), nil

	case *hir.Construct:
		names := make([]string, len(v.Fields))
		vals := make([]Value, len(v.Fields))
		for i, fv := range v.Fields {
			val, err := b.lowerExpr(fv.Value)
			if err != nil {
				return nil, err
			}
			names[i] = fv.Name
			vals[i] = val
		}
		return b.push(&ConstructInstr{Res: b.tempName(), RecordName: v.RecordName, FieldNames: names, FieldVals: vals, Typ: v.Typ}), nil

	case *hir.CreateList:
		elems, err := b.lowerExprList(v.Elems)
		if err != nil {
			return nil, err
		}
		return b.push(&ListInstr{Res: b.tempName(), Elems: elems, Typ: v.Typ}), nil

	case *hir.CreateMap:
		keys := make([]Value, len(v.Pairs))
		vals := make([]Value, len(v.Pairs))
		for i, p := range v.Pairs {
			k, err := b.lowerExpr(p.Key)
			if err != nil {
				return nil, err
			}
			val, err := b.lowerExpr(p.Value)
			if err != nil {
				return nil, err
			}
			keys[i], vals[i] = k, val
		}
		return b.push(&MapInstr{Res: b.tempName(), Keys: keys, Vals: vals, Typ: v.Typ}), nil

	case *hir.BinaryOp:
		left, err := b.lowerExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.lowerExpr(v.Right)
		if err != nil {
			return nil, err
		}
		oc, err := binOpCode(v.Op)
		if err != nil {
			return nil, err
		}
		return b.push(&OperInstr{Res: b.tempName(), Op: oc, Operands: []Value{left, right}, Typ: v.Typ}), nil

	case *hir.UnaryOp:
		operand, err := b.lowerExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		oc, err := unaryOpCode(v.Op)
		if err != nil {
			return nil, err
		}
		return b.push(&OperInstr{Res: b.tempName(), Op: oc, Operands: []Value{operand}, Typ: v.Typ}), nil

	case *hir.Call:
		return b.lowerCall(v)

	case *hir.CollectionOp:
		return b.lowerCollectionOp(v)

	case *hir.IfExpr:
		return b.lowerIf(v)

	case *hir.MatchExpr:
		return b.lowerMatch(v)

	case *hir.LoopExpr:
		return b.lowerLoop(v)

	case *hir.BlockExpr:
		val, err := b.lowerStmtsTail(v.Block.Stmts)
		if err != nil {
			return nil, err
		}
		if val == nil {
			return Const{Val: nil, Typ: typing.Unit}, nil
		}
		return val, nil

	default:
		return nil, fmt.Errorf("mir: unsupported hir.Expr %T", e)
	}
}

func (b *Builder) lowerExprList(exprs []hir.Expr) ([]Value, error) {
	vals := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := b.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// lowerCall lowers a direct named-function call. Spec §4.7 names Call among
// the closed terminator kinds, so it splits the current block: the call
// itself ends b.cur, and control resumes in a fresh successor whose single
// param receives the result.
func (b *Builder) lowerCall(c *hir.Call) (Value, error) {
	args, err := b.lowerExprList(c.Args)
	if err != nil {
		return nil, err
	}
	resName := b.tempName()
	next := b.newBlock()
	if !isUnit(c.Typ) {
		next.Params = append(next.Params, Param{Name: resName, Typ: c.Typ})
	}
	b.cur.Term = &CallTerm{Callee: c.Callee, Args: args, Next: Edge{Target: next}}
	b.cur = next
	if isUnit(c.Typ) {
		return Const{Val: nil, Typ: typing.Unit}, nil
	}
	return Ref{Name: resName, Typ: c.Typ}, nil
}

func (b *Builder) lowerCollectionOp(c *hir.CollectionOp) (Value, error) {
	src, err := b.lowerExpr(c.Source)
	if err != nil {
		return nil, err
	}
	instr := &CollectionInstr{Res: b.tempName(), Source: src, Typ: c.Typ}
	switch c.Kind {
	case hir.OpMap:
		instr.Op = MCMap
	case hir.OpFilter:
		instr.Op = MCFilter
	case hir.OpReduce:
		instr.Op = MCReduce
	case hir.OpGroupBy:
		instr.Op = MCGroupBy
	case hir.OpSort:
		instr.Op = MCSort
	case hir.OpTake:
		instr.Op = MCTake
	case hir.OpCount:
		instr.Op = MCCount
	case hir.OpSum:
		instr.Op = MCSum
	case hir.OpMin:
		instr.Op = MCMin
	case hir.OpMax:
		instr.Op = MCMax
	case hir.OpAvg:
		instr.Op = MCAvg
	default:
		return nil, fmt.Errorf("mir: unsupported collection op kind %v", c.Kind)
	}
	if c.Lambda != nil {
		lambdaFn, err := buildLambda(c.Lambda)
		if err != nil {
			return nil, err
		}
		instr.Lambda = lambdaFn
	}
	if c.Seed != nil {
		seed, err := b.lowerExpr(c.Seed)
		if err != nil {
			return nil, err
		}
		instr.Seed = seed
	}
	if c.N != nil {
		n, err := b.lowerExpr(c.N)
		if err != nil {
			return nil, err
		}
		instr.N = n
	}
	return b.push(instr), nil
}

// buildLambda lowers a CollectionOp's transform/predicate/combine/comparator
// argument into its own standalone MIR function. The function closes over
// nothing: its environment holds only the lambda's declared params, so a
// body that names a local of the enclosing function fails to build with an
// unbound-name error.
func buildLambda(l *hir.Lambda) (*Func, error) {
	b := &Builder{
		fn:  &Func{Name: "$lambda"},
		env: map[string]Value{},
	}
	entry := b.newBlock()
	b.fn.Entry = entry
	b.cur = entry
	for _, p := range l.Params {
		mp := Param{Name: p.Name, Typ: p.Type}
		b.fn.Params = append(b.fn.Params, mp)
		entry.Params = append(entry.Params, mp)
		b.env[p.Name] = Ref{Name: p.Name, Typ: p.Type}
	}
	if ft, ok := l.Typ.(typing.FuncType); ok {
		b.fn.ReturnType = ft.Return
	}
	if err := b.lowerStmts(l.Body.Stmts); err != nil {
		return nil, err
	}
	if b.cur.Term == nil {
		b.cur.Term = &ReturnTerm{}
	}
	return b.fn, nil
}

// lowerIf lowers an if/else into a diamond of blocks joined by a single
// block parameter carrying the branch value — the φ-node spec §4.7 calls
// for, realized directly rather than computed after the fact.
func (b *Builder) lowerIf(i *hir.IfExpr) (Value, error) {
	cond, err := b.lowerExpr(i.Cond)
	if err != nil {
		return nil, err
	}
	thenBlock := b.newBlock()
	elseBlock := b.newBlock()
	join := b.newBlock()
	resultName := b.tempName()
	unitResult := isUnit(i.Typ)
	if !unitResult {
		join.Params = append(join.Params, Param{Name: resultName, Typ: i.Typ})
	}
	b.cur.Term = &IfTerm{Cond: cond, Then: Edge{Target: thenBlock}, Else: Edge{Target: elseBlock}}

	b.cur = thenBlock
	thenVal, err := b.lowerStmtsTail(i.Then.Stmts)
	if err != nil {
		return nil, err
	}
	if !b.terminated() {
		args := joinArgs(unitResult, thenVal)
		b.cur.Term = &GotoTerm{To: Edge{Target: join, Args: args}}
	}

	b.cur = elseBlock
	var elseVal Value
	if i.Else != nil {
		elseVal, err = b.lowerStmtsTail(i.Else.Stmts)
		if err != nil {
			return nil, err
		}
	}
	if !b.terminated() {
		args := joinArgs(unitResult, elseVal)
		b.cur.Term = &GotoTerm{To: Edge{Target: join, Args: args}}
	}

	b.cur = join
	if unitResult {
		return Const{Val: nil, Typ: typing.Unit}, nil
	}
	return Ref{Name: resultName, Typ: i.Typ}, nil
}

func joinArgs(unitResult bool, val Value) []Value {
	if unitResult {
		return nil
	}
	return []Value{val}
}

// lowerMatch lowers match into the ordered chain of tag tests hir.MatchExpr
// already represents: each arm is tried in written order, exactly as
// spec §4.6's decision tree calls for, rather than a balanced dispatch.
func (b *Builder) lowerMatch(m *hir.MatchExpr) (Value, error) {
	subject, err := b.lowerExpr(m.Subject)
	if err != nil {
		return nil, err
	}
	join := b.newBlock()
	resultName := b.tempName()
	unitResult := isUnit(m.Typ)
	if !unitResult {
		join.Params = append(join.Params, Param{Name: resultName, Typ: m.Typ})
	}

	for _, arm := range m.Arms {
		bodyBlock := b.newBlock()
		nextBlock := b.newBlock()

		cond, bindings, err := b.matchCond(arm.Pat, subject)
		if err != nil {
			return nil, err
		}
		for name, val := range bindings {
			b.env[name] = val
		}
		if arm.Guard != nil {
			guardVal, err := b.lowerExpr(arm.Guard)
			if err != nil {
				return nil, err
			}
			cond = b.push(&OperInstr{Res: b.tempName(), Op: OCAnd, Operands: []Value{cond, guardVal}, Typ: typing.Bool})
		}
		b.cur.Term = &IfTerm{Cond: cond, Then: Edge{Target: bodyBlock}, Else: Edge{Target: nextBlock}}

		b.cur = bodyBlock
		armVal, err := b.lowerStmtsTail(arm.Body.Stmts)
		if err != nil {
			return nil, err
		}
		if !b.terminated() {
			b.cur.Term = &GotoTerm{To: Edge{Target: join, Args: joinArgs(unitResult, armVal)}}
		}

		b.cur = nextBlock
	}
	// Exhaustiveness over a closed union is enforced by the type checker
	// (component B); falling through every arm is unreachable at runtime.
	if !b.terminated() {
		b.cur.Term = &UnreachableTerm{}
	}

	b.cur = join
	if unitResult {
		return Const{Val: nil, Typ: typing.Unit}, nil
	}
	return Ref{Name: resultName, Typ: m.Typ}, nil
}

// matchCond builds the boolean test for one pattern against subject, plus
// the name bindings its body should see if the test passes. VariantPattern
// tests a synthetic "__tag" field against the variant name — the tagged
// union's concrete runtime layout is fixed by the Codegen Bridge (component
// H, spec §4.8), which this lowering treats as an opaque field read.
func (b *Builder) matchCond(pat hir.Pattern, subject Value) (Value, map[string]Value, error) {
	switch p := pat.(type) {
	case hir.WildcardPattern:
		return Const{Val: true, Typ: typing.Bool}, nil, nil

	case hir.BindPattern:
		return Const{Val: true, Typ: typing.Bool}, map[string]Value{p.Name: subject}, nil

	case hir.LiteralPattern:
		lit := Const{Val: p.Value, Typ: subject.Type()}
		cond := b.push(&OperInstr{Res: b.tempName(), Op: OCEq, Operands: []Value{subject, lit}, Typ: typing.Bool})
		return cond, nil, nil

	case hir.VariantPattern:
		tag := b.push(&FieldInstr{Res: b.tempName(), Struct: subject, Field: "__tag", Typ: typing.String})
		cond := b.push(&OperInstr{Res: b.tempName(), Op: OCEq, Operands: []Value{tag, Const{Val: p.Variant, Typ: typing.String}}, Typ: typing.Bool})
		bindings := map[string]Value{}
		if len(p.Binds) > 0 {
			fieldTypes := variantFieldTypes(subject.Type(), p.Variant)
			for i, name := range p.Binds {
				var ft typing.DataType = typing.Unit
				if i < len(fieldTypes) {
					ft = fieldTypes[i]
				}
				bindings[name] = b.push(&FieldInstr{Res: b.tempName(), Struct: subject, Field: name, Typ: ft})
			}
		}
		return cond, bindings, nil

	default:
		return nil, nil, fmt.Errorf("mir: unsupported hir.Pattern %T", pat)
	}
}

func variantFieldTypes(t typing.DataType, variant string) []typing.DataType {
	ut, ok := typing.Resolve(t).(*typing.UnionType)
	if !ok {
		return nil
	}
	uv, ok := ut.Variant(variant)
	if !ok {
		return nil
	}
	types := make([]typing.DataType, len(uv.Fields))
	for i, f := range uv.Fields {
		types[i] = f.Type
	}
	return types
}

// lowerLoop lowers an unconditional loop into a header block (its params
// carry every variable the body reassigns, the loop-carried φ-node set)
// and an after block reachable only via Break, with the header itself
// reachable again via the body's implicit back edge or an explicit
// Continue.
func (b *Builder) lowerLoop(l *hir.LoopExpr) (Value, error) {
	vars := collectAssignedLocals(l.Body)
	header := b.newBlock()
	after := b.newBlock()
	// Every block parameter gets its own fresh temp name (never the source
	// variable name) since header and after both carry the same set of
	// loop-carried variables — reusing "i" for both would violate a Func's
	// one-name-one-value SSA invariant across two otherwise-unrelated blocks.
	headerNames := make([]string, len(vars))
	afterNames := make([]string, len(vars))
	for idx, name := range vars {
		typ := typing.Unit
		if cur, ok := b.env[name]; ok {
			typ = cur.Type()
		}
		headerNames[idx] = b.tempName()
		afterNames[idx] = b.tempName()
		header.Params = append(header.Params, Param{Name: headerNames[idx], Typ: typ})
		after.Params = append(after.Params, Param{Name: afterNames[idx], Typ: typ})
	}

	b.cur.Term = &GotoTerm{To: Edge{Target: header, Args: b.carriedArgs(vars)}}

	b.loops = append(b.loops, &loopCtx{header: header, after: after, vars: vars})
	b.cur = header
	for idx, name := range vars {
		b.env[name] = Ref{Name: headerNames[idx], Typ: header.Params[idx].Typ}
	}
	if err := b.lowerStmts(l.Body.Stmts); err != nil {
		return nil, err
	}
	if !b.terminated() {
		b.cur.Term = &GotoTerm{To: Edge{Target: header, Args: b.carriedArgs(vars)}}
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = after
	for idx, name := range vars {
		b.env[name] = Ref{Name: afterNames[idx], Typ: after.Params[idx].Typ}
	}
	return Const{Val: nil, Typ: typing.Unit}, nil
}

// collectAssignedLocals finds every name a block (recursively, through
// nested if/match/loop bodies) rebinds via AssignStmt to a bare local —
// exactly the set of variables a loop's header/after blocks must carry.
func collectAssignedLocals(block *hir.Block) []string {
	seen := map[string]bool{}
	var order []string
	var walkBlock func(*hir.Block)
	var walkExpr func(hir.Expr)
	walkBlock = func(blk *hir.Block) {
		if blk == nil {
			return
		}
		for _, s := range blk.Stmts {
			switch st := s.(type) {
			case *hir.AssignStmt:
				if lr, ok := st.Target.(*hir.LocalRef); ok && !seen[lr.Name] {
					seen[lr.Name] = true
					order = append(order, lr.Name)
				}
				walkExpr(st.Value)
			case *hir.LetStmt:
				walkExpr(st.Value)
			case *hir.ExprStmt:
				walkExpr(st.X)
			case *hir.ReturnStmt:
				if st.Value != nil {
					walkExpr(st.Value)
				}
			}
		}
	}
	walkExpr = func(e hir.Expr) {
		switch v := e.(type) {
		case *hir.IfExpr:
			walkBlock(v.Then)
			walkBlock(v.Else)
		case *hir.MatchExpr:
			for _, arm := range v.Arms {
				walkBlock(arm.Body)
			}
		case *hir.LoopExpr:
			walkBlock(v.Body)
		case *hir.BlockExpr:
			walkBlock(v.Block)
		case *hir.BinaryOp:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *hir.UnaryOp:
			walkExpr(v.Operand)
		case *hir.CollectionOp:
			walkExpr(v.Source)
		}
	}
	walkBlock(block)
	return order
}

func isUnit(t typing.DataType) bool {
	pt, ok := typing.Resolve(t).(typing.PrimType)
	return ok && pt.Kind == typing.PrimUnit
}

func binOpCode(op string) (OpCode, error) {
	switch op {
	case "+":
		return OCAdd, nil
	case "-":
		return OCSub, nil
	case "*":
		return OCMul, nil
	case "/":
		return OCDiv, nil
	case "%":
		return OCMod, nil
	case "==":
		return OCEq, nil
	case "!=":
		return OCNEq, nil
	case "<":
		return OCLt, nil
	case ">":
		return OCGt, nil
	case "<=":
		return OCLtEq, nil
	case ">=":
		return OCGtEq, nil
	case "&&", "and":
		return OCAnd, nil
	case "||", "or":
		return OCOr, nil
	default:
		return 0, fmt.Errorf("mir: unsupported binary operator %q", op)
	}
}

func unaryOpCode(op string) (OpCode, error) {
	switch op {
	case "!":
		return OCNot, nil
	case "-":
		return OCNeg, nil
	default:
		return 0, fmt.Errorf("mir: unsupported unary operator %q", op)
	}
}
