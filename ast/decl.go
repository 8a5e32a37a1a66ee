package ast

// FuncDef is a normal, user-implemented top-level function definition.
type FuncDef struct {
	Base
	Name       string
	Params     []Param
	ReturnType TypeExpr // nil means "unknown" / to be inferred
	Body       *Block
	Public     bool
}

func (*FuncDef) defNode()          {}
func (f *FuncDef) DefName() string { return f.Name }

// AIFuncDecl is an explicit `ai name(params) -> ret { intent-text }`
// declaration (spec §4.4). The body is opaque natural-language intent text,
// never parsed as code.
type AIFuncDecl struct {
	Base
	Name       string
	Params     []Param
	ReturnType TypeExpr // nil means "unknown"
	IntentText string
	Public     bool
}

func (*AIFuncDecl) defNode()          {}
func (a *AIFuncDecl) DefName() string { return a.Name }

// RecordField is one ordered (name, type) pair of a record definition.
type RecordField struct {
	Name string
	Type TypeExpr
}

// RecordDef is a nominal record type definition (spec §3 Record).
type RecordDef struct {
	Base
	Name   string
	Fields []RecordField
	Public bool
}

func (*RecordDef) defNode()          {}
func (r *RecordDef) DefName() string { return r.Name }

// UnionVariant is one `Name(Record)` variant of a tagged union.
type UnionVariant struct {
	Name   string
	Fields []RecordField
}

// UnionDef is a tagged union type definition (spec §3 Union).
type UnionDef struct {
	Base
	Name     string
	Variants []UnionVariant
	Public   bool
}

func (*UnionDef) defNode()          {}
func (u *UnionDef) DefName() string { return u.Name }
