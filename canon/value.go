// Package canon implements the admission core's canonicalization contract:
// a structured value in, a unique byte sequence out. Two values that are
// semantically equal under the normalization rules below always produce
// identical bytes; two distinct normalized values always produce distinct
// bytes. Signature verification and content-addressable hashing both depend
// on this byte-for-byte stability, so every rule here is load-bearing.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

// Value is the generic structured-value sum type the canonicalizer operates
// over: Null, Bool, Int, Float, String, Sequence<Value>, Mapping<string,
// Value>. Host-language numeric/string types are never exposed at package
// boundaries beyond this; any other shape is rejected with CANON_FORBIDDEN_TYPE.
type Value struct {
	Kind Kind

	Bool  bool
	Int   int64
	Float float64
	Str   string
	Seq   []Value
	Map   map[string]Value
}

func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value          { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func Sequence(v ...Value) Value  { return Value{Kind: KindSequence, Seq: v} }
func Mapping(m map[string]Value) Value {
	return Value{Kind: KindMapping, Map: m}
}

// FromJSON decodes raw JSON bytes into a Value tree. Numbers are decoded with
// json.Number so that integers and floats remain distinguishable the way the
// reference implementation's dynamically typed frontend distinguishes
// Python's int and float — a prerequisite for the Integers/Floats
// normalization rules in §4.1 to apply correctly.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("canon: decode JSON: %w", err)
	}
	if dec.More() {
		return Value{}, fmt.Errorf("canon: trailing data after JSON value")
	}
	return fromInterface(raw)
}

func fromInterface(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		return numberValue(v)
	case string:
		return String(v), nil
	case []interface{}:
		seq := make([]Value, len(v))
		for i, elem := range v {
			val, err := fromInterface(elem)
			if err != nil {
				return Value{}, err
			}
			seq[i] = val
		}
		return Value{Kind: KindSequence, Seq: seq}, nil
	case map[string]interface{}:
		m := make(map[string]Value, len(v))
		for k, elem := range v {
			val, err := fromInterface(elem)
			if err != nil {
				return Value{}, err
			}
			m[k] = val
		}
		return Mapping(m), nil
	default:
		return Value{}, fmt.Errorf("canon: unsupported decoded type %T", raw)
	}
}

func numberValue(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("canon: invalid number %q: %w", n.String(), err)
	}
	return Float(f), nil
}

// Field looks up a key in a mapping Value. Returns the zero Value and false
// if v is not a mapping or the key is absent.
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != KindMapping || v.Map == nil {
		return Value{}, false
	}
	val, ok := v.Map[key]
	return val, ok
}

// StringField returns a string-typed field, or "" if absent/wrong type.
func (v Value) StringField(key string) string {
	val, ok := v.Field(key)
	if !ok || val.Kind != KindString {
		return ""
	}
	return val.Str
}

