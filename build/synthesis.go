package build

import (
	"context"
	"fmt"

	"github.com/mrzdevcore/haira/ai"
	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/cir"
	"github.com/mrzdevcore/haira/common"
	"github.com/mrzdevcore/haira/depm"
	"github.com/mrzdevcore/haira/report"
	"github.com/mrzdevcore/haira/typing"
)

// synthesisTarget is one function the AI engine must produce a body for,
// unified across the two ways the resolver hands the driver a "hole" (spec
// §4.1, §4.4): an explicit `ai name(...) { intent }` declaration already
// carries its own signature and intent text, while an implicit unresolved
// call site carries neither — the driver infers a minimal signature from
// the call's own argument count so the AI context is still well-formed.
type synthesisTarget struct {
	name       string
	file       *ast.File
	intentText *string
	params     []ai.ParamInfo
	returnType typing.DataType
}

// collectExplicitTargets walks every file's top-level AIFuncDecl nodes.
// These are already resolvable (depm.Resolver.declare gives them a DefAIFunc
// symbol), so they never show up as AICandidates — the driver must queue
// them for synthesis itself, once, before the first resolver pass.
func collectExplicitTargets(files []*ast.File, reg *TypeRegistry) []synthesisTarget {
	var targets []synthesisTarget
	for _, f := range files {
		for _, def := range f.Defs {
			decl, ok := def.(*ast.AIFuncDecl)
			if !ok {
				continue
			}
			intent := decl.IntentText
			targets = append(targets, synthesisTarget{
				name:       decl.Name,
				file:       f,
				intentText: &intent,
				params:     paramInfos(decl.Params, reg),
				returnType: reg.convertTypeExpr(decl.ReturnType),
			})
		}
	}
	return targets
}

// candidateTarget builds a synthesisTarget for an implicit AICandidate: a
// bare call to a name nothing in the project declares. Parameters are named
// positionally (arg0, arg1, ...) and left untyped ("unknown" in the wire
// context, spec §4.4) since a call site has no declared signature to read.
func candidateTarget(c *depm.AICandidate, file *ast.File) synthesisTarget {
	params := make([]ai.ParamInfo, len(c.Call.Args))
	for i := range c.Call.Args {
		params[i] = ai.ParamInfo{Name: fmt.Sprintf("arg%d", i), Type: "unknown"}
	}
	return synthesisTarget{
		name:       c.Name,
		file:       file,
		intentText: nil,
		params:     params,
		returnType: typing.Unit,
	}
}

func paramInfos(params []ast.Param, reg *TypeRegistry) []ai.ParamInfo {
	out := make([]ai.ParamInfo, len(params))
	for i, p := range params {
		out[i] = ai.ParamInfo{Name: p.Name, Type: reg.convertTypeExpr(p.Type).Repr()}
	}
	return out
}

// synthesize drives the Engine for one target, returning the accepted CIR
// function. schema/model/cirVersion are constant across a build; typesInScope
// is recomputed by the caller once per pass since a prior pass may have
// declared new record/union types (AI-synthesized functions never declare
// new ones today, but a Construct-returning synthesis is free to reference
// a project type that appeared only after the initial parse... it can't,
// since records/unions are never AI-synthesized, but recomputing per pass
// is free and keeps this correct if that ever changes).
func synthesize(ctx context.Context, engine *ai.Engine, t synthesisTarget, typesInScope []ai.TypeInfo, schema ai.ProjectSchema, model string) (*cir.Function, bool) {
	c := ai.BuildContext(t.name, t.intentText, t.params, t.returnType.Repr(), typesInScope, schema, model, common.CIRVersion)
	return engine.Synthesize(ctx, c)
}

// stubDecl turns an accepted cir.Function into the ast.AIFuncDecl the
// resolver's fixed-point loop (depm.Resolver.ResolveFile) expects appended
// to the requesting file's Defs, so the name becomes resolvable to every
// other call site in the project on the very next pass.
func stubDecl(fn *cir.Function) *ast.AIFuncDecl {
	params := make([]ast.Param, len(fn.ParamNames))
	for i, name := range fn.ParamNames {
		var t *cir.Type
		if i < len(fn.Params) {
			t = &fn.Params[i]
		}
		params[i] = ast.Param{Name: name, Type: cirTypeToTypeExpr(t)}
	}
	return &ast.AIFuncDecl{
		Name:       fn.Name,
		Params:     params,
		ReturnType: cirTypeToTypeExpr(&fn.Return),
		IntentText: "",
		Public:     true,
	}
}

// cirTypeToTypeExpr renders a cir.Type back into the ast.TypeExpr shape the
// rest of the pipeline (TypeRegistry.convertTypeExpr, hir.Lowerer) already
// knows how to read, so an AI-synthesized function's own stub declaration
// type-checks identically to a user-written one.
func cirTypeToTypeExpr(t *cir.Type) ast.TypeExpr {
	if t == nil || t.Kind == "" || t.Kind == "unit" {
		return nil
	}
	switch t.Kind {
	case "int", "float", "bool", "string":
		return &ast.NamedTypeExpr{Name: t.Kind}
	case "List":
		return &ast.GenericTypeExpr{Name: "List", Args: []ast.TypeExpr{cirTypeToTypeExpr(t.Elem)}}
	case "Map":
		return &ast.GenericTypeExpr{Name: "Map", Args: []ast.TypeExpr{cirTypeToTypeExpr(t.Key), cirTypeToTypeExpr(t.Elem)}}
	case "Option":
		return &ast.GenericTypeExpr{Name: "Option", Args: []ast.TypeExpr{cirTypeToTypeExpr(t.Elem)}}
	case "Func":
		params := make([]ast.TypeExpr, len(t.Params))
		for i := range t.Params {
			params[i] = cirTypeToTypeExpr(&t.Params[i])
		}
		return &ast.FuncTypeExpr{Params: params, Return: cirTypeToTypeExpr(t.Return)}
	default:
		return &ast.NamedTypeExpr{Name: t.Kind}
	}
}

// cirTypeToDataType converts a cir.Type into its typing.DataType, the
// counterpart of hir.Materializer's own private convertType for the one
// place outside hir that needs it: recording a freshly AI-synthesized
// function's signature into the TypeRegistry before the next resolution
// pass's call sites can use it.
func cirTypeToDataType(t *cir.Type, reg *TypeRegistry) typing.DataType {
	if t == nil {
		return typing.Unit
	}
	switch t.Kind {
	case "int":
		return typing.Int
	case "float":
		return typing.Float
	case "bool":
		return typing.Bool
	case "string":
		return typing.String
	case "unit", "":
		return typing.Unit
	case "List":
		return typing.ListType{Elem: cirTypeToDataType(t.Elem, reg)}
	case "Map":
		return typing.MapType{Key: cirTypeToDataType(t.Key, reg), Value: cirTypeToDataType(t.Elem, reg)}
	case "Option":
		return typing.OptionType{Elem: cirTypeToDataType(t.Elem, reg)}
	case "Func":
		params := make([]typing.DataType, len(t.Params))
		for i := range t.Params {
			params[i] = cirTypeToDataType(&t.Params[i], reg)
		}
		return typing.FuncType{Params: params, Return: cirTypeToDataType(t.Return, reg)}
	default:
		if rt, ok := reg.LookupRecord(t.Kind); ok {
			return rt
		}
		if ut, ok := reg.LookupUnion(t.Kind); ok {
			return ut
		}
		return &typing.RecordType{Name: t.Kind}
	}
}

// funcTypeOf builds the typing.FuncType a synthesized cir.Function's
// signature corresponds to.
func funcTypeOf(fn *cir.Function, reg *TypeRegistry) typing.FuncType {
	params := make([]typing.DataType, len(fn.Params))
	for i := range fn.Params {
		params[i] = cirTypeToDataType(&fn.Params[i], reg)
	}
	return typing.FuncType{Params: params, Return: cirTypeToDataType(&fn.Return, reg)}
}

// reportUnresolved turns every AICandidate still outstanding after the
// fixed-point limit into a NameError, the same diagnostic the resolver
// itself would raise for a name that will never exist.
func reportUnresolved(remaining []*depm.AICandidate) {
	for _, c := range remaining {
		report.Report(report.NameError(c.Call.Span(), "undefined function `%s`", c.Name))
	}
}
