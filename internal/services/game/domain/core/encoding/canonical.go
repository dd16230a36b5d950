// Package encoding provides deterministic JSON encoding and content-addressed
// hashing for journaled payloads.
package encoding

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// CanonicalJSON renders v as deterministic JSON following RFC 8785 (JCS)
// principles: object keys sorted lexicographically, no insignificant
// whitespace, and no HTML escaping. Two structurally equal values always
// produce byte-identical output.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(raw)); err != nil {
		return nil, fmt.Errorf("encode canonical: %w", err)
	}

	return trimTrailingNewline(buf.Bytes()), nil
}

// normalize rewrites maps into sorted-key wrappers so marshaling emits keys
// in lexical order at every nesting level.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := make(map[string]any, len(val))
		for _, k := range keys {
			values[k] = normalize(val[k])
		}
		return sortedObject{keys: keys, values: values}

	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalize(item)
		}
		return result

	default:
		return v
	}
}

// sortedObject marshals its entries in the key order captured at build time.
type sortedObject struct {
	keys   []string
	values map[string]any
}

func (o sortedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := encodeCompact(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := encodeCompact(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeCompact marshals v with HTML escaping disabled so nested values match
// the top-level encoder behavior.
func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return trimTrailingNewline(buf.Bytes()), nil
}

func trimTrailingNewline(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\n' {
		return data[:len(data)-1]
	}
	return data
}

// ContentHash computes the SHA-256 hash of the canonical JSON form of v,
// truncated to 128 bits (32 hex characters) for compact content identity.
func ContentHash(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("canonical json: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return hex.EncodeToString(hash[:16]), nil
}
