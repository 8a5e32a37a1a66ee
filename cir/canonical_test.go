package cir

import "testing"

func TestDigest_StableAcrossFieldOrder(t *testing.T) {
	a := &Function{Name: "f", ParamNames: []string{"x"}, Params: []Type{intType()}, Return: intType()}
	b := &Function{Return: intType(), Params: []Type{intType()}, ParamNames: []string{"x"}, Name: "f"}

	da, err := Digest(a)
	if err != nil {
		t.Fatalf("digest a: %v", err)
	}
	db, err := Digest(b)
	if err != nil {
		t.Fatalf("digest b: %v", err)
	}
	if da != db {
		t.Fatalf("expected identical digests for identical logical documents, got %s vs %s", da, db)
	}
}

func TestDigest_ChangesWithContent(t *testing.T) {
	a := &Function{Name: "f"}
	b := &Function{Name: "g"}

	da, _ := Digest(a)
	db, _ := Digest(b)
	if da == db {
		t.Fatalf("expected different digests for different documents")
	}
}

func TestCanonicalJSON_NoExtraWhitespace(t *testing.T) {
	raw, err := CanonicalJSON(&Function{Name: "f"})
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	for _, b := range raw {
		if b == '\n' || b == '\t' {
			t.Fatalf("canonical JSON must have no embedded newlines/tabs, got %q", raw)
		}
	}
}
