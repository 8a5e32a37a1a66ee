package cir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CanonicalJSON serializes v (a Function, or the AI context struct the ai
// package builds) with sorted map keys and no extraneous whitespace, so the
// same logical document always produces the same bytes regardless of map
// iteration order — the property spec §4.4's content-addressed cache key
// depends on.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	// json.Marshal already emits struct fields in declaration order and map
	// keys sorted lexically (encoding/json sorts string map keys since Go
	// 1.12), so re-marshaling through a generic value is only needed to
	// normalize whitespace, which Marshal already does. Compact is kept as
	// an explicit step so this function stays correct if a caller ever
	// builds the bytes by hand instead of through json.Marshal.
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest returns the hex-encoded SHA-256 of v's canonical JSON — the cache
// key spec §4.4 hashes AI context against.
func Digest(v interface{}) (string, error) {
	raw, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
