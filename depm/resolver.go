package depm

import (
	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/common"
	"github.com/mrzdevcore/haira/report"
)

// AICandidate is a call site the resolver could not resolve to any known
// function — a name that exists nowhere in project, file, or universal
// scope. The build driver hands these to the AI Intent Engine (component D)
// as the set of "holes" a build needs synthesized (spec §4.1, §4.4).
type AICandidate struct {
	Name string
	Call *ast.Call
	File string
	Scope *Scope
}

// Resolver builds the project scope tree and resolves every reference. It is
// re-entrant: after the AI engine adds new AIFuncDecl/FuncDef nodes to a
// file's Defs, ResolveFile declares them and re-walks that one file
// (DESIGN.md "resolver fixed-point re-entry"); Resolve always walks every
// file and declares nothing new.
type Resolver struct {
	Project *Scope
	files   map[string]*fileState
}

type fileState struct {
	file  *ast.File
	scope *Scope
}

// NewResolver creates an empty resolver with a fresh project scope.
func NewResolver() *Resolver {
	return &Resolver{
		Project: NewScope(ScopeProject, nil),
		files:   make(map[string]*fileState),
	}
}

// AddFile registers a parsed file and declares its top-level defs into the
// shared project scope so every file can see them. A def marked public gets
// public visibility and every other def project visibility; no def is
// declared file-private, so the file's own scope holds no top-level defs.
func (r *Resolver) AddFile(file *ast.File) {
	fileScope := NewScope(ScopeFile, r.Project)
	r.files[file.Path] = &fileState{file: file, scope: fileScope}

	for _, def := range file.Defs {
		r.declare(file, fileScope, def)
	}
}

func (r *Resolver) declare(file *ast.File, fileScope *Scope, def ast.Def) {
	var kind DefKind
	var public bool

	switch d := def.(type) {
	case *ast.FuncDef:
		kind, public = DefFunc, d.Public
	case *ast.AIFuncDecl:
		kind, public = DefAIFunc, d.Public
	case *ast.RecordDef:
		kind, public = DefRecord, d.Public
	case *ast.UnionDef:
		kind, public = DefUnion, d.Public
	default:
		return
	}

	vis := common.VisibilityProject
	if public {
		vis = common.VisibilityPublic
	}

	sym := &Symbol{
		Name:       def.DefName(),
		Kind:       kind,
		Visibility: vis,
		DefSpan:    def.Span(),
		Def:        def,
	}

	target := fileScope
	if vis == common.VisibilityProject || vis == common.VisibilityPublic {
		target = r.Project
	}
	target.Define(sym)
}

// Resolve walks every registered file's bodies, binding local scopes and
// collecting unresolved call sites as AICandidates. It returns the
// candidates found; the build driver decides whether to send them to the AI
// engine or fail the build (offline mode, spec §6).
func (r *Resolver) Resolve() []*AICandidate {
	var candidates []*AICandidate
	for path, fs := range r.files {
		candidates = append(candidates, r.resolveFile(path, fs)...)
	}
	return candidates
}

// ResolveFile re-runs resolution for a single file after the AI engine has
// added new declarations to it: only this file re-walks, not the project.
// The driver's fixed-point loop calls it once per file on each pass
// (DESIGN.md "resolver fixed-point re-entry").
func (r *Resolver) ResolveFile(path string) []*AICandidate {
	fs, ok := r.files[path]
	if !ok {
		return nil
	}
	// Newly added defs must be declared before the file is re-walked.
	declared := make(map[string]bool)
	for name := range fs.scope.Symbols {
		declared[name] = true
	}
	for name := range r.Project.Symbols {
		declared[name] = true
	}
	for _, def := range fs.file.Defs {
		if !declared[def.DefName()] {
			r.declare(fs.file, fs.scope, def)
			declared[def.DefName()] = true
		}
	}
	return r.resolveFile(path, fs)
}

func (r *Resolver) resolveFile(path string, fs *fileState) []*AICandidate {
	var candidates []*AICandidate
	for _, def := range fs.file.Defs {
		switch d := def.(type) {
		case *ast.FuncDef:
			funcScope := NewScope(ScopeFunction, fs.scope)
			for _, param := range d.Params {
				funcScope.Define(&Symbol{Name: param.Name, Kind: DefParam, DefSpan: d.Span()})
			}
			candidates = append(candidates, r.resolveBlock(path, d.Body, funcScope)...)
		}
	}
	return candidates
}

func (r *Resolver) resolveBlock(path string, block *ast.Block, scope *Scope) []*AICandidate {
	if block == nil {
		return nil
	}
	blockScope := NewScope(ScopeBlock, scope)
	var candidates []*AICandidate
	for _, stmt := range block.Stmts {
		candidates = append(candidates, r.resolveStmt(path, stmt, blockScope)...)
	}
	return candidates
}

func (r *Resolver) resolveStmt(path string, stmt ast.Stmt, scope *Scope) []*AICandidate {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		cands := r.resolveExpr(path, s.Value, scope)
		scope.Define(&Symbol{Name: s.Name, Kind: DefLocal, DefSpan: s.Span(), Mutable: s.Mutable})
		return cands
	case *ast.AssignStmt:
		return append(r.resolveExpr(path, s.LHS, scope), r.resolveExpr(path, s.RHS, scope)...)
	case *ast.ExprStmt:
		return r.resolveExpr(path, s.X, scope)
	case *ast.ReturnStmt:
		if s.Value != nil {
			return r.resolveExpr(path, s.Value, scope)
		}
		return nil
	case *ast.ForStmt:
		cands := r.resolveExpr(path, s.Iter, scope)
		loopScope := NewScope(ScopeBlock, scope)
		loopScope.Define(&Symbol{Name: s.Binder, Kind: DefLocal, DefSpan: s.Span()})
		for _, st := range s.Body.Stmts {
			cands = append(cands, r.resolveStmt(path, st, loopScope)...)
		}
		return cands
	case *ast.WhileStmt:
		cands := r.resolveExpr(path, s.Cond, scope)
		return append(cands, r.resolveBlock(path, s.Body, scope)...)
	default:
		return nil
	}
}

func (r *Resolver) resolveExpr(path string, expr ast.Expr, scope *Scope) []*AICandidate {
	switch e := expr.(type) {
	case *ast.Ident:
		if _, ok := scope.Lookup(e.Name); !ok {
			report.Report(report.NameError(e.Span(), "undefined name: `%s`", e.Name))
		}
		return nil
	case *ast.Call:
		var candidates []*AICandidate
		if callee, ok := e.Callee.(*ast.Ident); ok {
			if _, found := scope.Lookup(callee.Name); !found {
				candidates = append(candidates, &AICandidate{Name: callee.Name, Call: e, File: path, Scope: scope})
			}
		} else {
			candidates = append(candidates, r.resolveExpr(path, e.Callee, scope)...)
		}
		for _, arg := range e.Args {
			candidates = append(candidates, r.resolveExpr(path, arg, scope)...)
		}
		return candidates
	case *ast.BinaryOp:
		return append(r.resolveExpr(path, e.Left, scope), r.resolveExpr(path, e.Right, scope)...)
	case *ast.UnaryOp:
		return r.resolveExpr(path, e.Operand, scope)
	case *ast.FieldAccess:
		return r.resolveExpr(path, e.Receiver, scope)
	case *ast.MethodCall:
		candidates := r.resolveExpr(path, e.Receiver, scope)
		for _, arg := range e.Args {
			candidates = append(candidates, r.resolveExpr(path, arg, scope)...)
		}
		return candidates
	case *ast.Index:
		return append(r.resolveExpr(path, e.Receiver, scope), r.resolveExpr(path, e.Index, scope)...)
	case *ast.Pipe:
		return append(r.resolveExpr(path, e.Value, scope), r.resolveExpr(path, e.Call, scope)...)
	case *ast.Range:
		return append(r.resolveExpr(path, e.Start, scope), r.resolveExpr(path, e.End, scope)...)
	case *ast.ListLit:
		var candidates []*AICandidate
		for _, el := range e.Elems {
			candidates = append(candidates, r.resolveExpr(path, el, scope)...)
		}
		return candidates
	case *ast.Construct:
		var candidates []*AICandidate
		for _, f := range e.Fields {
			candidates = append(candidates, r.resolveExpr(path, f.Value, scope)...)
		}
		return candidates
	case *ast.IfExpr:
		candidates := r.resolveExpr(path, e.Cond, scope)
		candidates = append(candidates, r.resolveBlock(path, e.Then, scope)...)
		if blk, ok := e.Else.(*ast.Block); ok {
			candidates = append(candidates, r.resolveBlock(path, blk, scope)...)
		} else if ifx, ok := e.Else.(*ast.IfExpr); ok {
			candidates = append(candidates, r.resolveExpr(path, ifx, scope)...)
		}
		return candidates
	case *ast.TryExpr:
		return r.resolveExpr(path, e.Inner, scope)
	case *ast.MatchExpr:
		candidates := r.resolveExpr(path, e.Subject, scope)
		for _, arm := range e.Arms {
			armScope := NewScope(ScopeBlock, scope)
			bindPatternLocals(armScope, arm.Pattern)
			if arm.Guard != nil {
				candidates = append(candidates, r.resolveExpr(path, arm.Guard, armScope)...)
			}
			candidates = append(candidates, r.resolveBlock(path, arm.Body, armScope)...)
		}
		return candidates
	case *ast.Lambda:
		lamScope := NewScope(ScopeFunction, scope)
		for _, p := range e.Params {
			lamScope.Define(&Symbol{Name: p.Name, Kind: DefParam, DefSpan: e.Span()})
		}
		var candidates []*AICandidate
		for _, st := range e.Body.Stmts {
			candidates = append(candidates, r.resolveStmt(path, st, lamScope)...)
		}
		return candidates
	default:
		return nil
	}
}

// bindPatternLocals declares the names a match pattern binds into armScope.
func bindPatternLocals(armScope *Scope, pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.BindPattern:
		armScope.Define(&Symbol{Name: p.Name, Kind: DefLocal, DefSpan: p.Span()})
	case *ast.VariantPattern:
		for _, name := range p.Binds {
			armScope.Define(&Symbol{Name: name, Kind: DefLocal, DefSpan: p.Span()})
		}
	}
}
