// Package encoding provides canonical JSON serialization and content
// addressing for documents and event logs.
package encoding

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aidekit/aide/internal/value"
)

// CanonicalJSON produces deterministic JSON: object keys sorted
// lexicographically, no unnecessary whitespace, no HTML escaping. Equal
// inputs always yield byte-identical output.
func CanonicalJSON(v any) ([]byte, error) {
	if tagged, ok := v.(value.Value); ok {
		return tagged.MarshalJSON()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	tagged, err := value.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return tagged.MarshalJSON()
}

// ContentHash computes a SHA-256 hash of the canonical JSON representation,
// truncated to 128 bits for a compact content-addressed identity.
func ContentHash(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("canonical json: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:16]), nil
}
