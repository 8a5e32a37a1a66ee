// Package depm is the Symbol & Scope Resolver (component A): it builds the
// project's symbol table, resolves every identifier reference to a
// definition or to an AI-candidate call site, and re-enters itself when the
// AI Intent Engine introduces new top-level declarations mid-build.
package depm

import (
	"github.com/mrzdevcore/haira/ast"
	"github.com/mrzdevcore/haira/common"
	"github.com/mrzdevcore/haira/report"
)

// DefKind enumerates what a Symbol denotes.
type DefKind int

const (
	DefFunc DefKind = iota
	DefAIFunc
	DefRecord
	DefUnion
	DefLocal
	DefParam
)

// Symbol is a single named entity in a scope: a function, type, or local
// binding. The resolver produces one per Def and per local binder.
type Symbol struct {
	Name       string
	Kind       DefKind
	Visibility common.Visibility
	DefSpan    report.Span
	Def        ast.Def // nil for locals/params
	Mutable    bool

	// Type is never assigned: the resolver only establishes that a name
	// exists and where, and types live on HIR nodes instead.
	Type interface{}
}

// Scope is one lexical scope: the project (project-visible and public
// symbols merged across files), a file, a function body, or a block.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	Symbols map[string]*Symbol
}

// ScopeKind enumerates the closed set of scope kinds (spec §3).
type ScopeKind int

const (
	ScopeProject ScopeKind = iota
	ScopeFile
	ScopeFunction
	ScopeBlock
)

// NewScope creates a child scope of parent.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, Symbols: make(map[string]*Symbol)}
}

// Define adds a symbol to the scope. It reports RedefinitionError and
// returns false if the name is already bound in this exact scope (shadowing
// an outer scope is legal; redefining within the same scope is not).
func (s *Scope) Define(sym *Symbol) bool {
	if existing, ok := s.Symbols[sym.Name]; ok {
		report.Report(report.RedefinitionError(sym.DefSpan, sym.Name).WithSecondary(existing.DefSpan))
		return false
	}
	s.Symbols[sym.Name] = sym
	return true
}

// Lookup searches this scope and its ancestors, innermost first.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym, ok := sc.Symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}
