package mir

import "fmt"

// Optimize runs spec §4.7's fixed, ordered optimizer pipeline over every
// function Build produced (and every nested lambda Func a CollectionInstr
// carries), in the literal order the spec names: constant propagation,
// constant folding, dead-code elimination, common-subexpression
// elimination, small-function inlining. Every pass is correctness-
// preserving only — none of them reorders floating-point operations or
// performs any rewrite that could change observable behavior.
func Optimize(funcs []*Func) []*Func {
	all := collectFuncs(funcs)
	byName := map[string]*Func{}
	for _, fn := range funcs {
		byName[fn.Name] = fn
	}

	cleanup := func(fn *Func) {
		propagateConstants(fn)
		foldConstants(fn)
		eliminateDeadCode(fn)
		eliminateCommonSubexpressions(fn)
	}

	for _, fn := range all {
		cleanup(fn)
	}
	for _, fn := range all {
		inlineSmallCalls(fn, byName)
		// A spliced-in callee body usually becomes foldable once its
		// parameters are bound to the call site's actual (often constant)
		// arguments, so re-run the cleanup passes once more on the result.
		cleanup(fn)
	}
	return funcs
}

// collectFuncs flattens the top-level function list plus every
// CollectionInstr lambda reachable from them, since each lambda is its own
// standalone Func (see buildLambda) that the pipeline must optimize too.
func collectFuncs(top []*Func) []*Func {
	var all []*Func
	seen := map[*Func]bool{}
	var visit func(fn *Func)
	visit = func(fn *Func) {
		if fn == nil || seen[fn] {
			return
		}
		seen[fn] = true
		all = append(all, fn)
		for _, blk := range fn.Blocks {
			for _, ins := range blk.Instrs {
				if ci, ok := ins.(*CollectionInstr); ok && ci.Lambda != nil {
					visit(ci.Lambda)
				}
			}
		}
	}
	for _, fn := range top {
		visit(fn)
	}
	return all
}

// rewriteValue applies sub to every Value a block's instructions and
// terminator reference, used by both constant propagation (substituting a
// resolved block parameter for its constant) and inlining (substituting a
// callee's formal parameters for the call's actual arguments).
func rewriteValue(v Value, sub map[string]Value) Value {
	ref, ok := v.(Ref)
	if !ok {
		return v
	}
	if nv, ok := sub[ref.Name]; ok {
		return nv
	}
	return v
}

func rewriteValues(vs []Value, sub map[string]Value) []Value {
	if len(vs) == 0 {
		return vs
	}
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = rewriteValue(v, sub)
	}
	return out
}

func rewriteEdge(e Edge, sub map[string]Value) Edge {
	return Edge{Target: e.Target, Args: rewriteValues(e.Args, sub)}
}

func rewriteInstr(ins Instr, sub map[string]Value) Instr {
	switch i := ins.(type) {
	case *OperInstr:
		i.Operands = rewriteValues(i.Operands, sub)
	case *FieldInstr:
		i.Struct = rewriteValue(i.Struct, sub)
	case *IndexInstr:
		i.Recv = rewriteValue(i.Recv, sub)
		i.Key = rewriteValue(i.Key, sub)
	case *FieldAssign:
		i.Struct = rewriteValue(i.Struct, sub)
		i.Val = rewriteValue(i.Val, sub)
	case *ConstructInstr:
		i.FieldVals = rewriteValues(i.FieldVals, sub)
	case *ListInstr:
		i.Elems = rewriteValues(i.Elems, sub)
	case *MapInstr:
		i.Keys = rewriteValues(i.Keys, sub)
		i.Vals = rewriteValues(i.Vals, sub)
	case *CollectionInstr:
		i.Source = rewriteValue(i.Source, sub)
		i.Seed = rewriteValue(i.Seed, sub)
		i.N = rewriteValue(i.N, sub)
	}
	return ins
}

func rewriteTerm(term Terminator, sub map[string]Value) {
	switch t := term.(type) {
	case *GotoTerm:
		t.To = rewriteEdge(t.To, sub)
	case *IfTerm:
		t.Cond = rewriteValue(t.Cond, sub)
		t.Then = rewriteEdge(t.Then, sub)
		t.Else = rewriteEdge(t.Else, sub)
	case *SwitchTerm:
		t.Subject = rewriteValue(t.Subject, sub)
		for i := range t.Cases {
			t.Cases[i].Dest = rewriteEdge(t.Cases[i].Dest, sub)
		}
		t.Default = rewriteEdge(t.Default, sub)
	case *CallTerm:
		t.Args = rewriteValues(t.Args, sub)
		t.Next = rewriteEdge(t.Next, sub)
	case *ReturnTerm:
		if t.Value != nil {
			t.Value = rewriteValue(t.Value, sub)
		}
	}
}

// isPure reports whether ins has no observable side effect beyond
// producing its named result — every Instr except FieldAssign, the one
// mutation spec §4.3's SetField lowers to.
func isPure(ins Instr) bool {
	_, mutates := ins.(*FieldAssign)
	return !mutates
}

// propagateConstants resolves a block parameter to a Const when every
// predecessor edge that targets it supplies the identical constant value —
// classical SSA constant propagation across a join point. Literals never
// get a standalone named instruction in this IR (Builder.lowerExpr inlines
// them as Const at every use site), so there is nothing to propagate
// within a single block; the only place a name can stand for a constant is
// a block parameter fed uniformly from every incoming edge.
func propagateConstants(fn *Func) {
	preds := predecessorEdges(fn)
	resolved := map[string]bool{}

	changed := true
	for changed {
		changed = false
		for _, blk := range fn.Blocks {
			edges := preds[blk.ID]
			if len(edges) == 0 {
				continue
			}
			for i, p := range blk.Params {
				if resolved[p.Name] {
					continue
				}
				var value Value
				uniform := true
				for _, e := range edges {
					if i >= len(e.Args) {
						uniform = false
						break
					}
					c, ok := e.Args[i].(Const)
					if !ok {
						uniform = false
						break
					}
					if value == nil {
						value = c
					} else if !sameConst(value.(Const), c) {
						uniform = false
						break
					}
				}
				if !uniform || value == nil {
					continue
				}
				sub := map[string]Value{p.Name: value}
				for _, b2 := range fn.Blocks {
					for _, ins := range b2.Instrs {
						rewriteInstr(ins, sub)
					}
					rewriteTerm(b2.Term, sub)
				}
				resolved[p.Name] = true
				changed = true
			}
		}
	}
}

func sameConst(a, b Const) bool {
	return a.Val == b.Val
}

// predecessorEdges maps each block ID to every Edge across the function
// that targets it, the information propagateConstants needs to check
// whether every incoming edge agrees on a block parameter's value.
func predecessorEdges(fn *Func) map[int][]Edge {
	out := map[int][]Edge{}
	add := func(e Edge) {
		if e.Target != nil {
			out[e.Target.ID] = append(out[e.Target.ID], e)
		}
	}
	for _, blk := range fn.Blocks {
		switch t := blk.Term.(type) {
		case *GotoTerm:
			add(t.To)
		case *IfTerm:
			add(t.Then)
			add(t.Else)
		case *SwitchTerm:
			for _, c := range t.Cases {
				add(c.Dest)
			}
			add(t.Default)
		case *CallTerm:
			add(t.Next)
		}
	}
	return out
}

// foldConstants evaluates any OperInstr whose Operands are now all Const —
// either from the start, or because propagateConstants just substituted a
// formerly-variable operand with a resolved constant — replacing every use
// of its result with the folded Const.
func foldConstants(fn *Func) {
	changed := true
	for changed {
		changed = false
		for _, blk := range fn.Blocks {
			kept := blk.Instrs[:0]
			sub := map[string]Value{}
			for _, ins := range blk.Instrs {
				ins = rewriteInstr(ins, sub)
				if op, ok := ins.(*OperInstr); ok {
					if v, ok := foldOp(op.Op, op.Operands); ok {
						sub[op.Res] = Const{Val: v, Typ: op.Typ}
						changed = true
						continue
					}
				}
				kept = append(kept, ins)
			}
			blk.Instrs = kept
			rewriteTerm(blk.Term, sub)
			if len(sub) > 0 {
				changed = true
			}
		}
	}
}

// foldOp evaluates a pure arithmetic/comparison/logical OpCode over
// literal operands, returning ok=false for anything not statically
// decidable (a non-constant operand, or an operation this fold table does
// not cover, such as division where the divisor is zero — left for the
// runtime to report rather than folded into a compile-time panic).
func foldOp(op OpCode, operands []Value) (interface{}, bool) {
	vals := make([]interface{}, len(operands))
	for i, v := range operands {
		c, ok := v.(Const)
		if !ok {
			return nil, false
		}
		vals[i] = c.Val
	}

	switch op {
	case OCNot:
		if b, ok := vals[0].(bool); ok {
			return !b, true
		}
		return nil, false
	case OCNeg:
		switch n := vals[0].(type) {
		case int64:
			return -n, true
		case float64:
			return -n, true
		}
		return nil, false
	case OCAnd:
		if a, ok := vals[0].(bool); ok {
			if b, ok := vals[1].(bool); ok {
				return a && b, true
			}
		}
		return nil, false
	case OCOr:
		if a, ok := vals[0].(bool); ok {
			if b, ok := vals[1].(bool); ok {
				return a || b, true
			}
		}
		return nil, false
	}

	if len(vals) != 2 {
		return nil, false
	}
	if ai, aok := vals[0].(int64); aok {
		if bi, bok := vals[1].(int64); bok {
			return foldIntOp(op, ai, bi)
		}
	}
	if af, aok := vals[0].(float64); aok {
		if bf, bok := vals[1].(float64); bok {
			return foldFloatOp(op, af, bf)
		}
	}
	if op == OCEq || op == OCNEq {
		eq := vals[0] == vals[1]
		if op == OCNEq {
			eq = !eq
		}
		return eq, true
	}
	return nil, false
}

func foldIntOp(op OpCode, a, b int64) (interface{}, bool) {
	switch op {
	case OCAdd:
		return a + b, true
	case OCSub:
		return a - b, true
	case OCMul:
		return a * b, true
	case OCDiv:
		if b == 0 {
			return nil, false
		}
		return a / b, true
	case OCMod:
		if b == 0 {
			return nil, false
		}
		return a % b, true
	case OCEq:
		return a == b, true
	case OCNEq:
		return a != b, true
	case OCLt:
		return a < b, true
	case OCGt:
		return a > b, true
	case OCLtEq:
		return a <= b, true
	case OCGtEq:
		return a >= b, true
	}
	return nil, false
}

func foldFloatOp(op OpCode, a, b float64) (interface{}, bool) {
	switch op {
	case OCAdd:
		return a + b, true
	case OCSub:
		return a - b, true
	case OCMul:
		return a * b, true
	case OCDiv:
		if b == 0 {
			return nil, false
		}
		return a / b, true
	case OCEq:
		return a == b, true
	case OCNEq:
		return a != b, true
	case OCLt:
		return a < b, true
	case OCGt:
		return a > b, true
	case OCLtEq:
		return a <= b, true
	case OCGtEq:
		return a >= b, true
	}
	return nil, false
}

// eliminateDeadCode removes any pure instruction whose result is never
// referenced, iterating to a fixed point since removing one dead
// instruction can make one of its own operands' producer dead in turn.
func eliminateDeadCode(fn *Func) {
	changed := true
	for changed {
		changed = false
		used := usedNames(fn)
		for _, blk := range fn.Blocks {
			kept := blk.Instrs[:0]
			for _, ins := range blk.Instrs {
				if isPure(ins) && !used[ins.Result()] {
					changed = true
					continue
				}
				kept = append(kept, ins)
			}
			blk.Instrs = kept
		}
	}
}

func usedNames(fn *Func) map[string]bool {
	used := map[string]bool{}
	mark := func(v Value) {
		if r, ok := v.(Ref); ok {
			used[r.Name] = true
		}
	}
	markAll := func(vs []Value) {
		for _, v := range vs {
			mark(v)
		}
	}
	markEdge := func(e Edge) { markAll(e.Args) }

	for _, blk := range fn.Blocks {
		for _, ins := range blk.Instrs {
			switch i := ins.(type) {
			case *OperInstr:
				markAll(i.Operands)
			case *FieldInstr:
				mark(i.Struct)
			case *IndexInstr:
				mark(i.Recv)
				mark(i.Key)
			case *FieldAssign:
				mark(i.Struct)
				mark(i.Val)
			case *ConstructInstr:
				markAll(i.FieldVals)
			case *ListInstr:
				markAll(i.Elems)
			case *MapInstr:
				markAll(i.Keys)
				markAll(i.Vals)
			case *CollectionInstr:
				mark(i.Source)
				mark(i.Seed)
				mark(i.N)
			}
		}
		switch t := blk.Term.(type) {
		case *GotoTerm:
			markEdge(t.To)
		case *IfTerm:
			mark(t.Cond)
			markEdge(t.Then)
			markEdge(t.Else)
		case *SwitchTerm:
			mark(t.Subject)
			for _, c := range t.Cases {
				markEdge(c.Dest)
			}
			markEdge(t.Default)
		case *CallTerm:
			markAll(t.Args)
			markEdge(t.Next)
		case *ReturnTerm:
			if t.Value != nil {
				mark(t.Value)
			}
		}
	}
	return used
}

// eliminateCommonSubexpressions deduplicates structurally-identical pure
// instructions within a function, rewriting every later duplicate's uses
// to the first occurrence's result rather than recomputing it.
func eliminateCommonSubexpressions(fn *Func) {
	seen := map[string]string{}
	sub := map[string]Value{}

	for _, blk := range fn.Blocks {
		kept := blk.Instrs[:0]
		for _, ins := range blk.Instrs {
			ins = rewriteInstr(ins, sub)
			if isPure(ins) {
				key := instrKey(ins)
				if key != "" {
					if first, ok := seen[key]; ok {
						sub[ins.Result()] = Ref{Name: first, Typ: ins.Type()}
						continue
					}
					seen[key] = ins.Result()
				}
			}
			kept = append(kept, ins)
		}
		blk.Instrs = kept
		rewriteTerm(blk.Term, sub)
	}
}

// instrKey builds a canonical string identity for CSE, covering the
// instruction kinds cheap and safe to deduplicate (OperInstr, FieldInstr,
// IndexInstr); collection/construct/list/map instructions never get a key,
// since "equal" for those means comparing slices of Values, a cost not
// worth paying for what's normally a one-off build operation.
func instrKey(ins Instr) string {
	switch i := ins.(type) {
	case *OperInstr:
		return fmt.Sprintf("op:%d:%s", i.Op, valueKeys(i.Operands))
	case *FieldInstr:
		return fmt.Sprintf("field:%s:%s", i.Field, valueKey(i.Struct))
	case *IndexInstr:
		return fmt.Sprintf("index:%s:%s", valueKey(i.Recv), valueKey(i.Key))
	}
	return ""
}

func valueKey(v Value) string {
	switch x := v.(type) {
	case Ref:
		return "r:" + x.Name
	case Const:
		return fmt.Sprintf("c:%v", x.Val)
	}
	return "?"
}

func valueKeys(vs []Value) string {
	s := ""
	for _, v := range vs {
		s += valueKey(v) + ","
	}
	return s
}

// inlineSmallStatementBudget is spec §4.7's threshold: a callee with at
// most this many MIR instructions across all its blocks is a candidate for
// inlining at every direct call site.
const inlineSmallStatementBudget = 50

// inlineSmallCalls replaces every CallTerm targeting a sufficiently small,
// non-recursive, program-defined function with a spliced copy of that
// function's blocks, per the mechanism term.go's CallTerm doc comment
// names directly: "replace the CallTerm edge with the callee's own
// entry/exit blocks". It does not recurse into the inlined copy, so a
// chain of small functions inlines one level per Optimize call rather than
// transitively in one pass — acceptable since Optimize already runs to
// completion once per build, and a second pass would simply inline again.
func inlineSmallCalls(fn *Func, byName map[string]*Func) {
	orig := len(fn.Blocks)
	for {
		blk, call, callee := findInlinableCall(fn, fn.Blocks[:orig], byName)
		if blk == nil {
			return
		}
		inlineCallAt(fn, blk, call, callee)
	}
}

func findInlinableCall(fn *Func, blocks []*Block, byName map[string]*Func) (*Block, *CallTerm, *Func) {
	for _, blk := range blocks {
		call, ok := blk.Term.(*CallTerm)
		if !ok {
			continue
		}
		callee, ok := byName[call.Callee]
		if !ok || callee == fn {
			continue
		}
		if countInstrs(callee) > inlineSmallStatementBudget {
			continue
		}
		return blk, call, callee
	}
	return nil, nil, nil
}

func countInstrs(fn *Func) int {
	n := 0
	for _, blk := range fn.Blocks {
		n += len(blk.Instrs)
	}
	return n
}

// inlineCallAt splices callee's cloned blocks in place of call, the block
// splice term.go's CallTerm doc comment describes: the call site becomes a
// GotoTerm into the clone's entry (passing call's Args as the entry
// block's param values), and every cloned ReturnTerm becomes a GotoTerm to
// the original call's Next edge — Args=nil when Next.Target has no
// parameter, or the single returned Value when it has exactly one, the
// only two shapes lowerCall ever constructs for a call's successor block.
func inlineCallAt(fn *Func, site *Block, call *CallTerm, callee *Func) {
	clone, entry := cloneBlocks(callee, len(fn.Blocks))
	fn.Blocks = append(fn.Blocks, clone...)

	for _, b := range clone {
		if ret, ok := b.Term.(*ReturnTerm); ok {
			next := call.Next
			if len(next.Target.Params) == 1 && ret.Value != nil {
				next = Edge{Target: next.Target, Args: []Value{ret.Value}}
			} else {
				next = Edge{Target: next.Target}
			}
			b.Term = &GotoTerm{To: next}
		}
	}

	site.Term = &GotoTerm{To: Edge{Target: entry, Args: call.Args}}
}

// cloneBlocks deep-copies callee's blocks with fresh, non-colliding Block
// IDs (starting at idBase, since codegen's blockByID map — generate_block.go
// and generate_stmt.go — requires every block in a Func to have a unique ID)
// and fresh SSA names for every instruction result and block parameter, so
// the clone can coexist in the caller's Func without shadowing any of the
// caller's own names.
func cloneBlocks(callee *Func, idBase int) ([]*Block, *Block) {
	rename := map[string]string{}
	fresh := func(name string) string {
		nn := fmt.Sprintf("$inline%d_%s", idBase, name)
		rename[name] = nn
		return nn
	}

	clones := make(map[*Block]*Block, len(callee.Blocks))
	ordered := make([]*Block, len(callee.Blocks))
	for i, b := range callee.Blocks {
		nb := &Block{ID: idBase + i}
		clones[b] = nb
		ordered[i] = nb
	}

	for i, b := range callee.Blocks {
		nb := ordered[i]
		for _, p := range b.Params {
			nb.Params = append(nb.Params, Param{Name: fresh(p.Name), Typ: p.Typ})
		}
		for _, ins := range b.Instrs {
			nb.Instrs = append(nb.Instrs, cloneInstr(ins, fresh))
		}
		nb.Term = cloneTerm(b.Term, clones, rename)
	}

	// Every operand Value was copied from the callee verbatim above, so it
	// still names the callee's original locals; rewrite those names to
	// their fresh clone-local equivalents now that every producer's fresh
	// name is known.
	for _, nb := range ordered {
		for _, ins := range nb.Instrs {
			renameInstrRefs(ins, rename)
		}
		renameTermRefs(nb.Term, rename)
	}

	return ordered, clones[callee.Entry]
}

func renameValueRefs(v Value, rename map[string]string) Value {
	if r, ok := v.(Ref); ok {
		if nn, ok := rename[r.Name]; ok {
			return Ref{Name: nn, Typ: r.Typ}
		}
	}
	return v
}

func renameValuesRefs(vs []Value, rename map[string]string) []Value {
	for i, v := range vs {
		vs[i] = renameValueRefs(v, rename)
	}
	return vs
}

func renameEdgeRefs(e Edge, rename map[string]string) Edge {
	e.Args = renameValuesRefs(e.Args, rename)
	return e
}

func renameInstrRefs(ins Instr, rename map[string]string) {
	switch i := ins.(type) {
	case *OperInstr:
		i.Operands = renameValuesRefs(i.Operands, rename)
	case *FieldInstr:
		i.Struct = renameValueRefs(i.Struct, rename)
	case *IndexInstr:
		i.Recv = renameValueRefs(i.Recv, rename)
		i.Key = renameValueRefs(i.Key, rename)
	case *FieldAssign:
		i.Struct = renameValueRefs(i.Struct, rename)
		i.Val = renameValueRefs(i.Val, rename)
	case *ConstructInstr:
		i.FieldVals = renameValuesRefs(i.FieldVals, rename)
	case *ListInstr:
		i.Elems = renameValuesRefs(i.Elems, rename)
	case *MapInstr:
		i.Keys = renameValuesRefs(i.Keys, rename)
		i.Vals = renameValuesRefs(i.Vals, rename)
	case *CollectionInstr:
		i.Source = renameValueRefs(i.Source, rename)
		i.Seed = renameValueRefs(i.Seed, rename)
		i.N = renameValueRefs(i.N, rename)
	}
}

func renameTermRefs(term Terminator, rename map[string]string) {
	switch t := term.(type) {
	case *GotoTerm:
		t.To = renameEdgeRefs(t.To, rename)
	case *IfTerm:
		t.Cond = renameValueRefs(t.Cond, rename)
		t.Then = renameEdgeRefs(t.Then, rename)
		t.Else = renameEdgeRefs(t.Else, rename)
	case *SwitchTerm:
		t.Subject = renameValueRefs(t.Subject, rename)
		for i := range t.Cases {
			t.Cases[i].Dest = renameEdgeRefs(t.Cases[i].Dest, rename)
		}
		t.Default = renameEdgeRefs(t.Default, rename)
	case *CallTerm:
		t.Args = renameValuesRefs(t.Args, rename)
		t.Next = renameEdgeRefs(t.Next, rename)
	case *ReturnTerm:
		if t.Value != nil {
			t.Value = renameValueRefs(t.Value, rename)
		}
	}
}

// cloneInstr deep-copies one callee instruction, assigning its result a
// fresh name via fresh and copying its operand Values verbatim; any operand
// that itself names a callee-local value gets corrected by the
// renameInstrRefs/renameTermRefs pass cloneBlocks runs over the whole clone
// afterward, once every producer's fresh name is known.
func cloneInstr(ins Instr, fresh func(string) string) Instr {
	switch i := ins.(type) {
	case *OperInstr:
		return &OperInstr{Res: fresh(i.Res), Op: i.Op, Operands: append([]Value{}, i.Operands...), Typ: i.Typ}
	case *FieldInstr:
		return &FieldInstr{Res: fresh(i.Res), Struct: i.Struct, Field: i.Field, Typ: i.Typ}
	case *IndexInstr:
		return &IndexInstr{Res: fresh(i.Res), Recv: i.Recv, Key: i.Key, Typ: i.Typ}
	case *FieldAssign:
		return &FieldAssign{Res: fresh(i.Res), Struct: i.Struct, Field: i.Field, Val: i.Val}
	case *ConstructInstr:
		return &ConstructInstr{Res: fresh(i.Res), RecordName: i.RecordName, FieldNames: i.FieldNames, FieldVals: append([]Value{}, i.FieldVals...), Typ: i.Typ}
	case *ListInstr:
		return &ListInstr{Res: fresh(i.Res), Elems: append([]Value{}, i.Elems...), Typ: i.Typ}
	case *MapInstr:
		return &MapInstr{Res: fresh(i.Res), Keys: append([]Value{}, i.Keys...), Vals: append([]Value{}, i.Vals...), Typ: i.Typ}
	case *CollectionInstr:
		return &CollectionInstr{Res: fresh(i.Res), Op: i.Op, Source: i.Source, Lambda: i.Lambda, Seed: i.Seed, N: i.N, Typ: i.Typ}
	}
	return ins
}

// cloneTerm deep-copies one callee terminator, rewriting every Edge.Target
// through clones so cross-block edges stay within the cloned copy.
func cloneTerm(term Terminator, clones map[*Block]*Block, rename map[string]string) Terminator {
	retarget := func(e Edge) Edge {
		return Edge{Target: clones[e.Target], Args: append([]Value{}, e.Args...)}
	}
	switch t := term.(type) {
	case *GotoTerm:
		return &GotoTerm{To: retarget(t.To)}
	case *IfTerm:
		return &IfTerm{Cond: t.Cond, Then: retarget(t.Then), Else: retarget(t.Else)}
	case *SwitchTerm:
		cases := make([]SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			cases[i] = SwitchCase{Tag: c.Tag, Dest: retarget(c.Dest)}
		}
		return &SwitchTerm{Subject: t.Subject, Cases: cases, Default: retarget(t.Default)}
	case *CallTerm:
		return &CallTerm{Callee: t.Callee, Args: append([]Value{}, t.Args...), Next: retarget(t.Next)}
	case *ReturnTerm:
		return &ReturnTerm{Value: t.Value}
	case *UnreachableTerm:
		return &UnreachableTerm{}
	}
	return term
}
