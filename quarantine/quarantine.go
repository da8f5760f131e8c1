// Package quarantine picks the best-available byte form of a rejected
// envelope for the audit trail, falling back progressively as less of the
// envelope turns out to be well-formed.
package quarantine

import (
	"github.com/blockberries/immune-core/canon"
	"github.com/blockberries/immune-core/envelope"
)

// Serialize returns the bytes to publish to the quarantine subject for a
// rejected envelope.
//
//  1. If canonicalBytes is non-empty, return it verbatim — the canonical
//     form already survived an earlier pipeline stage.
//  2. Else, when the envelope has both a header and a payload, try
//     canonicalizing just the signed subset (header, meta, payload) — the
//     envelope may have failed schema validation but still be
//     canonicalizable.
//  3. Else fall back to canonicalizing the envelope's raw value as-is,
//     signature field included.
//  4. If that also fails, the error propagates — there is no further
//     fallback.
func Serialize(env envelope.Envelope, canonicalBytes []byte) ([]byte, error) {
	if len(canonicalBytes) > 0 {
		return canonicalBytes, nil
	}
	raw := env.Raw()
	_, hasHeader := raw.Field("header")
	_, hasPayload := raw.Field("payload")
	if hasHeader && hasPayload {
		if b, err := canon.Canonicalize(env.CanonicalInput()); err == nil {
			return b, nil
		}
	}
	return canon.Canonicalize(raw)
}
