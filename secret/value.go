package secret

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is a secret value, either decoded structured data or the raw string.
type Value struct {
	structured   any
	raw          string
	isStructured bool
}

// StructuredValue wraps decoded, JSON-compatible data.
func StructuredValue(v any) Value {
	return Value{structured: v, isStructured: true}
}

// RawValue wraps an undecoded string.
func RawValue(s string) Value {
	return Value{raw: s}
}

// IsStructured reports whether the value holds decoded data.
func (v Value) IsStructured() bool {
	return v.isStructured
}

// Structured returns the decoded data, or nil for a raw value.
func (v Value) Structured() any {
	return v.structured
}

// Raw returns the undecoded string, or "" for a structured value.
func (v Value) Raw() string {
	return v.raw
}

// MarshalJSON emits structured data as-is and raw values as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isStructured {
		return json.Marshal(v.structured)
	}
	return json.Marshal(v.raw)
}

// DecodeValue reinterprets raw as structured data.
//
// raw is parsed as a single YAML document, which also accepts JSON. Parse
// failures, empty input, multiple documents and data with no JSON
// representation fall back to RawValue(raw). Timestamp-like scalars keep
// their original text. DecodeValue never fails.
func DecodeValue(raw string) Value {
	dec := yaml.NewDecoder(strings.NewReader(raw))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		return RawValue(raw)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty document.
		return RawValue(raw)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return RawValue(raw)
	}

	keepTimestamps(&doc)

	var decoded any
	if err := doc.Decode(&decoded); err != nil {
		return RawValue(raw)
	}

	normalized, err := jsonCompatible(decoded)
	if err != nil {
		return RawValue(raw)
	}
	if _, err := json.Marshal(normalized); err != nil {
		return RawValue(raw)
	}
	return StructuredValue(normalized)
}

// keepTimestamps retags timestamp scalars as strings so they decode to their
// source text rather than time.Time. Alias targets are visited through the
// anchored node itself.
func keepTimestamps(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
		return
	}
	for _, c := range n.Content {
		keepTimestamps(c)
	}
}

// jsonCompatible rewrites YAML-decoded data into types encoding/json accepts.
func jsonCompatible(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := jsonCompatible(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			n, err := jsonCompatible(val)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			n, err := jsonCompatible(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("non-finite number %v", t)
		}
		return t, nil
	default:
		return t, nil
	}
}
