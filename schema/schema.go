// Package schema compiles and evaluates a JSON-Schema Draft 2020-12 document
// against raw envelopes. Validation failures are reported deterministically:
// among all violations, the one whose JSON Pointer sorts first
// (lexicographically, by '/'-joined segment) is surfaced, matching the
// reference validator's "sort errors by path, report the first" behavior.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator wraps a compiled Draft 2020-12 schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile parses and compiles schemaDoc, a raw JSON-Schema document.
func Compile(schemaDoc []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	const resourceName = "envelope.schema.json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(schemaDoc)); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks envelope (decoded JSON, e.g. via encoding/json into
// map[string]interface{} or a compatible shape) against the compiled schema.
// Returns the empty string when the envelope validates; otherwise the
// message of the first error by JSON Pointer order.
func (v *Validator) Validate(envelope interface{}) (firstError string, ok bool) {
	err := v.schema.Validate(envelope)
	if err == nil {
		return "", true
	}
	ve, isValidationErr := err.(*jsonschema.ValidationError)
	if !isValidationErr {
		return err.Error(), false
	}
	leaves := flatten(ve)
	if len(leaves) == 0 {
		return ve.Message, false
	}
	sort.Slice(leaves, func(i, j int) bool {
		return pointerKey(leaves[i]) < pointerKey(leaves[j])
	})
	return leaves[0].Message, false
}

// ValidateJSON decodes raw JSON bytes with json.Number semantics (so integers
// and floats stay distinguishable exactly as they do in package canon) and
// validates the result.
func (v *Validator) ValidateJSON(raw []byte) (firstError string, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Sprintf("invalid JSON: %v", err), false
	}
	return v.Validate(decoded)
}

// flatten walks a ValidationError tree and returns every leaf (error with no
// further Causes), since jsonschema/v5 nests sub-schema failures under a
// parent rather than giving a flat list.
func flatten(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}

// pointerKey returns an error's instance location, a '/'-joined JSON Pointer
// string, for deterministic lexicographic comparison.
func pointerKey(ve *jsonschema.ValidationError) string {
	return ve.InstanceLocation
}
