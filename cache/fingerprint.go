package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Fingerprinter generates deterministic cache keys from normalized request
// content.
//
// Contract:
//   - Determinism: equal logical requests under the same provider and model
//     must produce equal fingerprints, regardless of map iteration order,
//     call order, or process restarts.
//   - Concurrency: implementations must be safe for concurrent use.
type Fingerprinter interface {
	// Fingerprint generates a cache key from provider, model, and the
	// request's output-affecting content.
	Fingerprint(provider, model string, content any) (string, error)
}

// SHA256Fingerprinter generates full SHA-256 fingerprints over canonical
// JSON. Fingerprints are cache keys only, never authentication material.
type SHA256Fingerprinter struct{}

// NewSHA256Fingerprinter creates a new SHA-256 fingerprinter.
func NewSHA256Fingerprinter() *SHA256Fingerprinter {
	return &SHA256Fingerprinter{}
}

// Fingerprint generates a deterministic cache key.
// Format: hex(SHA-256(provider \x00 model \x00 canonical JSON(content)))
func (f *SHA256Fingerprinter) Fingerprint(provider, model string, content any) (string, error) {
	// Canonicalize content to ensure deterministic serialization
	canonical, err := canonicalize(content)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize request: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write(canonical)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	// For maps, sort keys for determinism
	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// For other types, use standard JSON encoding
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	// Sort keys
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Build ordered JSON object
	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		// Key
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		// Value (recursively canonicalize)
		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure SHA256Fingerprinter implements Fingerprinter
var _ Fingerprinter = (*SHA256Fingerprinter)(nil)
