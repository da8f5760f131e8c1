// Package envelope provides typed accessors over the three-region structure
// (header, meta, payload) plus the detached signature that the admission
// pipeline operates on, wrapping canon.Value so every downstream stage reads
// the same parsed tree instead of re-parsing raw JSON per stage.
package envelope

import (
	"fmt"

	"github.com/blockberries/immune-core/canon"
)

// Envelope is a parsed admission request: header, meta, payload, and the
// detached signature string, all still represented as canon.Value so no
// information is lost or reinterpreted before canonicalization runs.
type Envelope struct {
	Header    canon.Value
	Meta      canon.Value
	Payload   canon.Value
	Signature string
	raw       canon.Value
}

// Parse decodes raw JSON bytes into an Envelope. It does not validate
// structure beyond requiring the top level to be a mapping — schema
// validation is a separate, earlier stage. A signature field that is not a
// string leaves Signature empty rather than failing the parse.
func Parse(raw []byte) (Envelope, error) {
	v, err := canon.FromJSON(raw)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: %w", err)
	}
	if v.Kind != canon.KindMapping {
		return Envelope{}, fmt.Errorf("envelope: top level must be a mapping")
	}

	header, _ := v.Field("header")
	meta, _ := v.Field("meta")
	payload, _ := v.Field("payload")

	env := Envelope{
		Header:  header,
		Meta:    meta,
		Payload: payload,
		raw:     v,
	}
	if sigVal, ok := v.Field("signature"); ok {
		env.Signature = sigVal.Str
	}
	return env, nil
}

// ID returns header.id.
func (e Envelope) ID() string { return e.Header.StringField("id") }

// Type returns header.type.
func (e Envelope) Type() string { return e.Header.StringField("type") }

// Version returns header.version.
func (e Envelope) Version() string { return e.Header.StringField("version") }

// SourceAgent returns header.source_agent, the hex-encoded Ed25519 public key.
func (e Envelope) SourceAgent() string { return e.Header.StringField("source_agent") }

// Timestamp returns header.timestamp as nanoseconds, or 0 if absent/non-integer.
func (e Envelope) Timestamp() int64 {
	v, ok := e.Header.Field("timestamp")
	if !ok || v.Kind != canon.KindInt {
		return 0
	}
	return v.Int
}

// CorrelationID returns meta.correlation_id, or "" if absent.
func (e Envelope) CorrelationID() string { return e.Meta.StringField("correlation_id") }

// SecurityLevel returns meta.security_level, or "" if absent. An absent
// security level is distinct from an empty-string one only at the JSON
// level; the ruleset treats both as "does not match" against a required
// level, per the not-equal-when-absent rule.
func (e Envelope) SecurityLevel() string { return e.Meta.StringField("security_level") }

// CanonicalInput builds the {header, meta, payload} triple that gets
// canonicalized, hashed, and signed — excluding the signature field itself.
func (e Envelope) CanonicalInput() canon.Value {
	return canon.CanonicalInput(e.Header, e.Meta, e.Payload)
}

// Raw returns the full parsed envelope, including the signature field, as a
// canon.Value. Used by the quarantine serializer's final fallback, which
// canonicalizes the whole envelope rather than just the signed subset.
func (e Envelope) Raw() canon.Value {
	return e.raw
}
