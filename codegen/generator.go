// Package codegen implements the Codegen Bridge (component H): it lowers a
// program's mir.Funcs onto github.com/llir/llvm, producing a ready-to-emit
// ir.Module. Grounded on the teacher's own `generate`/`codegen` packages,
// which build an LLVM module the same two-pass way: declare every function
// signature first (so forward/mutually-recursive calls resolve), then
// generate bodies.
package codegen

import (
	"fmt"

	"github.com/mrzdevcore/haira/mir"
	"github.com/mrzdevcore/haira/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// Generator converts a program's MIR functions into a single LLVM module.
type Generator struct {
	mod *ir.Module

	// funcs maps every Haira function name (mir.Func.Name) to its declared
	// LLVM function, populated in the declaration pass before any body is
	// generated so calls never depend on generation order.
	funcs map[string]*ir.Func

	// runtimeFuncs caches the externs for runtime callees
	// (`haira_int_to_string`, `haira_alloc`, `<Type>::next`, ...) that have
	// no mir.Func of their own — they are supplied by the Haira runtime, not
	// by user/AI-synthesized code.
	runtimeFuncs map[string]*ir.Func

	// stringType is the named LLVM type for Haira's string representation
	// (spec §4.8): `{i8* data, i64 length}`.
	stringType types.Type

	// recordTypes caches the named LLVM struct type generated for each
	// Haira record name, so repeated Construct/FieldAccess sites reuse the
	// same type definition instead of redeclaring it.
	recordTypes map[string]types.Type
}

// NewGenerator creates a Generator with the fixed value representations
// spec §4.8 mandates already registered in a fresh module.
func NewGenerator() *Generator {
	g := &Generator{
		mod:          ir.NewModule(),
		funcs:        map[string]*ir.Func{},
		runtimeFuncs: map[string]*ir.Func{},
		recordTypes:  map[string]types.Type{},
	}
	g.stringType = g.mod.NewTypeDef("haira.string", types.NewStruct(types.NewPointer(types.I8), types.I64))
	g.declareRuntimeABI()
	return g
}

// declareRuntimeABI declares the fixed thread-local error-slot externs spec
// §6 names literally: `haira_set_error`, `haira_get_error`, `haira_has_error`,
// `haira_clear_error`. Every other runtime callee (`<Type>::next`, the
// `haira_*_to_string` function a `to_string` call resolves to, `haira_alloc`,
// ...) is declared lazily, on first call site, since its signature depends
// on the call's own argument/result types. `$option_present` and
// `$option_unwrap` are never declared: canonicalizeCall lowers them to
// extractvalue.
func (g *Generator) declareRuntimeABI() {
	setErr := g.mod.NewFunc("haira_set_error", types.Void, ir.NewParam("code", types.I64))
	getErr := g.mod.NewFunc("haira_get_error", types.I64)
	hasErr := g.mod.NewFunc("haira_has_error", types.I64)
	clearErr := g.mod.NewFunc("haira_clear_error", types.Void)
	for _, fn := range []*ir.Func{setErr, getErr, hasErr, clearErr} {
		fn.Linkage = enum.LinkageExternal
	}
	g.runtimeFuncs["haira_set_error"] = setErr
	g.runtimeFuncs["haira_get_error"] = getErr
	g.runtimeFuncs["haira_has_error"] = hasErr
	g.runtimeFuncs["haira_clear_error"] = clearErr
}

// Compile lowers every function in funcs into g's module and returns it.
// Each mir.Func is declared before any body is generated, so mutually
// recursive and forward-referenced calls always resolve.
func (g *Generator) Compile(funcs []*mir.Func) (*ir.Module, error) {
	for _, fn := range funcs {
		g.declareFunc(fn)
	}
	for _, fn := range funcs {
		if len(fn.Blocks) == 0 {
			continue
		}
		if err := g.generateBody(fn, g.funcs[fn.Name]); err != nil {
			return nil, fmt.Errorf("codegen: function %q: %w", fn.Name, err)
		}
	}
	return g.mod, nil
}

func (g *Generator) declareFunc(fn *mir.Func) *ir.Func {
	params := make([]*ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ir.NewParam(p.Name, g.convType(p.Typ))
	}
	llFn := g.mod.NewFunc(fn.Name, g.convReturnType(fn.ReturnType), params...)
	g.funcs[fn.Name] = llFn
	return llFn
}

// getOrDeclareRuntimeFunc returns the LLVM function for a builtin callee
// name, declaring it as an extern on first use. Repeated calls to the same
// name with a differing signature are a front-end bug, not something this
// bridge can repair, so the first declaration wins.
func (g *Generator) getOrDeclareRuntimeFunc(name string, paramTypes []types.Type, retType types.Type) *ir.Func {
	if fn, ok := g.runtimeFuncs[name]; ok {
		return fn
	}
	params := make([]*ir.Param, len(paramTypes))
	for i, t := range paramTypes {
		params[i] = ir.NewParam("", t)
	}
	fn := g.mod.NewFunc(name, retType, params...)
	g.runtimeFuncs[name] = fn
	return fn
}

// resolveCallee returns the LLVM function a mir.CallTerm should invoke,
// preferring a function defined in this program over a same-named runtime
// builtin (the two namespaces never legitimately collide, but user/AI code
// always takes precedence if they somehow did).
func (g *Generator) resolveCallee(name string, argTypes []types.Type, retType types.Type) *ir.Func {
	if fn, ok := g.funcs[name]; ok {
		return fn
	}
	return g.getOrDeclareRuntimeFunc(name, argTypes, retType)
}

func isUnitType(t typing.DataType) bool {
	pt, ok := typing.Resolve(t).(typing.PrimType)
	return ok && pt.Kind == typing.PrimUnit
}
