package ai

import (
	"github.com/mrzdevcore/haira/cir"
)

// ParamInfo is one parameter's (name, canonical type string) pair in the
// context JSON (spec §4.4).
type ParamInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypeInfo describes one record or union type visible to the AI-backed
// function, sorted by Name before being placed into Context.TypesInScope.
type TypeInfo struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"` // "Record" or "Union"
	Fields []string `json:"fields,omitempty"`
}

// ProjectSchema flags whether the project declares any database or HTTP
// surface, letting the model know whether DbQuery/HttpRequest ops would
// even be meaningful — they are rejected unconditionally by the validator in
// this release (cir.IsEffectOp), but the field is part of the wire contract
// regardless (spec §4.4).
type ProjectSchema struct {
	HasDatabase bool `json:"has_database"`
	HasHTTP     bool `json:"has_http"`
}

// Context is the deterministic, canonical JSON document the engine hashes
// for its cache key and sends to the model as the sole user message (spec
// §4.4). Field order here is the wire field order: json.Marshal emits
// struct fields in declaration order, which is how "field ordering is
// fixed" is satisfied without a custom MarshalJSON.
type Context struct {
	FunctionName    string        `json:"function_name"`
	IntentText      *string       `json:"intent_text"`
	Params          []ParamInfo   `json:"params"`
	ExpectedReturn  string        `json:"expected_return"`
	TypesInScope    []TypeInfo    `json:"types_in_scope"`
	ProjectSchema   ProjectSchema `json:"project_schema"`
	Model           string        `json:"model"`
	CIRVersionField string        `json:"cir_version"`
}

// BuildContext assembles a canonical Context. typesInScope must already be
// sorted by Name by the caller (the resolver/driver owns that ordering
// decision since it knows the full project type set); BuildContext does not
// re-sort so repeated calls with the same slice are guaranteed byte-stable.
func BuildContext(functionName string, intentText *string, params []ParamInfo, expectedReturn string, typesInScope []TypeInfo, schema ProjectSchema, model, cirVersion string) *Context {
	return &Context{
		FunctionName:    functionName,
		IntentText:      intentText,
		Params:          params,
		ExpectedReturn:  expectedReturn,
		TypesInScope:    typesInScope,
		ProjectSchema:   schema,
		Model:           model,
		CIRVersionField: cirVersion,
	}
}

// CanonicalJSON and Digest delegate to the cir package's canonicalization so
// the AI cache key and the CIR cache key are computed identically, per spec
// §4.4's "cache key is SHA-256(serialized_context)".
func (c *Context) CanonicalJSON() ([]byte, error) { return cir.CanonicalJSON(c) }

func (c *Context) Digest() (string, error) { return cir.Digest(c) }
