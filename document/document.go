package document

import (
	"encoding/json"
	"fmt"
)

// Value wraps an untyped JSON tree fetched from an untrusted third party.
//
// Every accessor is total: a missing field, a wrong type, or a nil tree
// yields the zero value and ok=false rather than a panic. Rule evaluation
// relies on this so that malformed documents produce failing results
// instead of faults.
type Value struct {
	root any
}

// Parse decodes raw JSON bytes into a Value.
func Parse(data []byte) (Value, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return Value{}, fmt.Errorf("parse document: %w", err)
	}
	return Value{root: root}, nil
}

// Wrap adopts an already-decoded JSON tree (map, slice, or scalar).
func Wrap(root any) Value {
	return Value{root: root}
}

// Nil returns the empty Value. All lookups against it report absent.
func Nil() Value {
	return Value{}
}

// IsNil reports whether the value holds no document at all.
func (v Value) IsNil() bool {
	return v.root == nil
}

// Raw returns the underlying decoded tree. Callers must treat it as
// read-only; rules share a single document snapshot.
func (v Value) Raw() any {
	return v.root
}

// Get descends through nested objects by key and returns the value at the
// end of the path. ok is false if any step is absent or not an object.
func (v Value) Get(path ...string) (Value, bool) {
	cur := v.root
	for _, key := range path {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return Value{}, false
		}
		next, present := m[key]
		if !present {
			return Value{}, false
		}
		cur = next
	}
	return Value{root: cur}, true
}

// Exists reports whether the path resolves to any value, including null.
func (v Value) Exists(path ...string) bool {
	_, ok := v.Get(path...)
	return ok
}

// String returns the string at path. ok is false for absent or non-string
// values.
func (v Value) String(path ...string) (string, bool) {
	sub, ok := v.Get(path...)
	if !ok {
		return "", false
	}
	s, isStr := sub.root.(string)
	return s, isStr
}

// StringOr returns the string at path, or def when absent or mistyped.
func (v Value) StringOr(def string, path ...string) string {
	if s, ok := v.String(path...); ok {
		return s
	}
	return def
}

// Bool returns the boolean at path.
func (v Value) Bool(path ...string) (bool, bool) {
	sub, ok := v.Get(path...)
	if !ok {
		return false, false
	}
	b, isBool := sub.root.(bool)
	return b, isBool
}

// Number returns the numeric value at path. JSON numbers decode as float64.
func (v Value) Number(path ...string) (float64, bool) {
	sub, ok := v.Get(path...)
	if !ok {
		return 0, false
	}
	n, isNum := sub.root.(float64)
	return n, isNum
}

// Map returns the object at path as a plain map.
func (v Value) Map(path ...string) (map[string]any, bool) {
	sub, ok := v.Get(path...)
	if !ok {
		return nil, false
	}
	m, isMap := sub.root.(map[string]any)
	return m, isMap
}

// Array returns the array at path, each element wrapped as a Value.
func (v Value) Array(path ...string) ([]Value, bool) {
	sub, ok := v.Get(path...)
	if !ok {
		return nil, false
	}
	raw, isArr := sub.root.([]any)
	if !isArr {
		return nil, false
	}
	out := make([]Value, len(raw))
	for i, el := range raw {
		out[i] = Value{root: el}
	}
	return out, true
}

// Keys returns the sorted-insertion-free key set of the object at path.
// Callers that need deterministic output must sort the result themselves.
func (v Value) Keys(path ...string) ([]string, bool) {
	m, ok := v.Map(path...)
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys, true
}

// Encode re-serializes the tree at path. Used for fingerprint scans over
// the full sub-entity payload.
func (v Value) Encode() string {
	if v.root == nil {
		return ""
	}
	data, err := json.Marshal(v.root)
	if err != nil {
		return ""
	}
	return string(data)
}
