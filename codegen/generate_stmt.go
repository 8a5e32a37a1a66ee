package codegen

import (
	"fmt"

	"github.com/mrzdevcore/haira/mir"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// generateTerm lowers a mir.Block's terminator: the closed set spec §4.7
// names — Goto, If, Switch, Call, Return, Unreachable. Every Edge's Args
// become incoming values on the target block's phis, wired here rather
// than at phi-creation time since an edge's source block isn't known until
// its own terminator is reached.
func (g *Generator) generateTerm(llBlock *ir.Block, term mir.Terminator, vals map[string]value.Value, blockByID map[int]*ir.Block, phis map[int][]*ir.InstPhi) error {
	switch t := term.(type) {
	case *mir.GotoTerm:
		if err := g.wireEdge(llBlock, t.To, vals, blockByID, phis); err != nil {
			return err
		}
		llBlock.NewBr(blockByID[t.To.Target.ID])
		return nil

	case *mir.IfTerm:
		cond, err := g.convValue(t.Cond, vals)
		if err != nil {
			return err
		}
		if err := g.wireEdge(llBlock, t.Then, vals, blockByID, phis); err != nil {
			return err
		}
		if err := g.wireEdge(llBlock, t.Else, vals, blockByID, phis); err != nil {
			return err
		}
		llBlock.NewCondBr(g.truncToI1(llBlock, cond), blockByID[t.Then.Target.ID], blockByID[t.Else.Target.ID])
		return nil

	case *mir.SwitchTerm:
		subject, err := g.convValue(t.Subject, vals)
		if err != nil {
			return err
		}
		if err := g.wireEdge(llBlock, t.Default, vals, blockByID, phis); err != nil {
			return err
		}
		cases := make([]*ir.Case, len(t.Cases))
		for i, c := range t.Cases {
			if err := g.wireEdge(llBlock, c.Dest, vals, blockByID, phis); err != nil {
				return err
			}
			cases[i] = ir.NewCase(tagConst(c.Tag), blockByID[c.Dest.Target.ID])
		}
		llBlock.NewSwitch(subject, blockByID[t.Default.Target.ID], cases...)
		return nil

	case *mir.CallTerm:
		return g.generateCallTerm(llBlock, t, vals, blockByID, phis)

	case *mir.ReturnTerm:
		if t.Value == nil || isUnitType(t.Value.Type()) {
			llBlock.NewRet(nil)
			return nil
		}
		v, err := g.convValue(t.Value, vals)
		if err != nil {
			return err
		}
		llBlock.NewRet(v)
		return nil

	case *mir.UnreachableTerm:
		llBlock.NewUnreachable()
		return nil

	default:
		return fmt.Errorf("codegen: unsupported mir.Terminator %T", term)
	}
}

// truncToI1 narrows Haira's i8 bool representation down to LLVM's native i1
// condition type, required by conditional branches.
func (g *Generator) truncToI1(llBlock *ir.Block, cond value.Value) value.Value {
	if it, ok := cond.Type().(*types.IntType); ok {
		zero := constant.NewInt(it, 0)
		return llBlock.NewICmp(enum.IPredNE, cond, zero)
	}
	return cond
}

// tagConst builds the integer constant a SwitchTerm case label compares
// against: hashTag of the tag name, not the variant's declaration order.
func tagConst(tag string) *constant.Int {
	return constant.NewInt(types.I64, int64(hashTag(tag)))
}

// hashTag maps a tag name to an integer with a base-31 string hash. The
// result is stable for a given name; it is not the variant's declared
// ordinal, and two different names can map to the same value.
func hashTag(tag string) int {
	n := 0
	for _, c := range tag {
		n = n*31 + int(c)
	}
	if n < 0 {
		n = -n
	}
	return n
}

// wireEdge resolves an Edge's arguments and records them as incoming values
// on its target block's phis, keyed by the predecessor block the edge is
// leaving from.
func (g *Generator) wireEdge(from *ir.Block, edge mir.Edge, vals map[string]value.Value, blockByID map[int]*ir.Block, phis map[int][]*ir.InstPhi) error {
	targetPhis := phis[edge.Target.ID]
	if len(edge.Args) != len(targetPhis) {
		return fmt.Errorf("codegen: edge to block %d supplies %d args for %d params", edge.Target.ID, len(edge.Args), len(targetPhis))
	}
	for i, arg := range edge.Args {
		v, err := g.convValue(arg, vals)
		if err != nil {
			return err
		}
		targetPhis[i].Incs = append(targetPhis[i].Incs, ir.NewIncoming(v, from))
	}
	return nil
}

// generateCallTerm lowers a Call terminator: spec §4.7 closes Call among
// the terminator kinds rather than treating it as an ordinary instruction,
// so every call site splits its block and the result flows into the
// successor edge's first parameter.
func (g *Generator) generateCallTerm(llBlock *ir.Block, t *mir.CallTerm, vals map[string]value.Value, blockByID map[int]*ir.Block, phis map[int][]*ir.InstPhi) error {
	llArgs := make([]value.Value, len(t.Args))
	for i, a := range t.Args {
		v, err := g.convValue(a, vals)
		if err != nil {
			return err
		}
		llArgs[i] = v
	}

	// hir's lowerer emits a handful of logical builtin names ("to_string",
	// "$option_present", "$option_unwrap") that aren't themselves entries
	// in spec §6's runtime ABI; canonicalize resolves them to the concrete
	// ABI call this bridge should actually make (or, for a string already
	// being "to_string"-ed, skips the call outright).
	result, err := g.canonicalizeCall(llBlock, t.Callee, llArgs, phis[t.Next.Target.ID])
	if err != nil {
		return err
	}

	if err := g.wireCallEdge(llBlock, t.Next, result, vals, blockByID, phis); err != nil {
		return err
	}
	llBlock.NewBr(blockByID[t.Next.Target.ID])
	return nil
}

// canonicalizeCall resolves a CallTerm's logical callee name to the actual
// LLVM call (or, for an identity conversion, the argument value itself
// with no call emitted) spec §6's fixed runtime ABI exposes.
func (g *Generator) canonicalizeCall(llBlock *ir.Block, callee string, llArgs []value.Value, targetPhis []*ir.InstPhi) (value.Value, error) {
	retType := types.Type(types.Void)
	if len(targetPhis) > 0 {
		retType = targetPhis[0].Typ
	}

	switch callee {
	case "to_string":
		arg := llArgs[0]
		if pt, ok := arg.Type().(*types.PointerType); ok && pt.ElemType == g.stringType {
			return arg, nil
		}
		switch arg.Type() {
		case types.I64:
			return llBlock.NewCall(g.getOrDeclareRuntimeFunc("haira_int_to_string", []types.Type{types.I64}, retType), arg), nil
		case types.Double:
			return llBlock.NewCall(g.getOrDeclareRuntimeFunc("haira_float_to_string", []types.Type{types.Double}, retType), arg), nil
		default:
			// Bool (i8) is the only remaining primitive to_string can see;
			// spec §6's ABI only names int/float conversions, so the bool
			// case is a necessary supplement kept in the same naming style.
			return llBlock.NewCall(g.getOrDeclareRuntimeFunc("haira_bool_to_string", []types.Type{types.I8}, retType), arg), nil
		}

	case "$option_present":
		// Option's fixed representation (spec §4.8) is a concrete struct,
		// not an opaque handle, so presence is an extractvalue, not a call.
		// The flag itself is i1; widen to the i8 every other Bool carries.
		present := llBlock.NewExtractValue(llArgs[0], 0)
		return llBlock.NewZExt(present, types.I8), nil

	case "$option_unwrap":
		return llBlock.NewExtractValue(llArgs[0], 1), nil

	default:
		fn := g.resolveCallee(callee, llTypesOf(llArgs), retType)
		return llBlock.NewCall(fn, llArgs...), nil
	}
}

// wireCallEdge is wireEdge specialized for a CallTerm's single successor
// edge: the call's own result supplies the edge's implicit first argument
// (the successor's first param) when the callee isn't Unit-typed, ahead of
// any explicit Args the edge itself carries.
func (g *Generator) wireCallEdge(from *ir.Block, edge mir.Edge, call value.Value, vals map[string]value.Value, blockByID map[int]*ir.Block, phis map[int][]*ir.InstPhi) error {
	targetPhis := phis[edge.Target.ID]
	if len(targetPhis) == 0 {
		return nil
	}
	targetPhis[0].Incs = append(targetPhis[0].Incs, ir.NewIncoming(call, from))
	for i, arg := range edge.Args {
		if i+1 >= len(targetPhis) {
			break
		}
		v, err := g.convValue(arg, vals)
		if err != nil {
			return err
		}
		targetPhis[i+1].Incs = append(targetPhis[i+1].Incs, ir.NewIncoming(v, from))
	}
	return nil
}

func llTypesOf(vals []value.Value) []types.Type {
	ts := make([]types.Type, len(vals))
	for i, v := range vals {
		ts[i] = v.Type()
	}
	return ts
}

