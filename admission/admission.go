// Package admission composes the schema, canonicalization, hashing,
// signature, and ruleset stages into the fixed-order pipeline that decides
// whether an envelope is accepted. The pipeline is a pure, synchronous
// function of its inputs: no I/O happens after construction, and every
// stage is safe to call concurrently from multiple goroutines since the
// compiled schema and loaded ruleset are immutable after Load.
package admission

import (
	"errors"
	"fmt"

	"cosmossdk.io/log"

	"github.com/blockberries/immune-core/canon"
	"github.com/blockberries/immune-core/envelope"
	"github.com/blockberries/immune-core/hash"
	"github.com/blockberries/immune-core/ruleset"
	"github.com/blockberries/immune-core/schema"
	"github.com/blockberries/immune-core/sig"
)

// Decision is the outcome of evaluating one envelope: whether it was
// accepted, the human-readable reason when it was not, and the canonical
// bytes computed along the way (empty when canonicalization never
// succeeded).
type Decision struct {
	Accepted       bool
	Reason         string
	CanonicalBytes []byte
}

// Pipeline holds the compiled schema and loaded ruleset for its lifetime.
// Both are read-only after construction and may be shared across
// goroutines.
type Pipeline struct {
	validator *schema.Validator
	rules     *ruleset.Ruleset
	hashAlg   hash.Algorithm
	logger    log.Logger
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithHashAlgorithm overrides the default BLAKE3 digest algorithm, e.g. to
// pin a deployment to SHA-256.
func WithHashAlgorithm(alg hash.Algorithm) Option {
	return func(p *Pipeline) { p.hashAlg = alg }
}

// WithLogger overrides the pipeline's logger. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New builds a Pipeline from raw schema and ruleset documents (already
// read from wherever they're configured to live — the pipeline itself
// performs no I/O).
func New(schemaDoc, rulesetDoc []byte, opts ...Option) (*Pipeline, error) {
	validator, err := schema.Compile(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("admission: %w", err)
	}
	rules, err := ruleset.Load(rulesetDoc)
	if err != nil {
		return nil, fmt.Errorf("admission: %w", err)
	}

	p := &Pipeline{
		validator: validator,
		rules:     rules,
		hashAlg:   hash.AlgorithmBLAKE3,
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Evaluate runs raw envelope bytes through the six-stage pipeline, in the
// fixed order: schema, canonicalize, hash, verify signature, ruleset,
// accept. The first failing stage short-circuits every stage after it.
func (p *Pipeline) Evaluate(raw []byte) Decision {
	firstError, ok := p.validator.ValidateJSON(raw)
	if !ok {
		p.logger.Debug("schema validation failed", "reason", firstError)
		return Decision{Accepted: false, Reason: "schema validation failed: " + firstError}
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		// The envelope passed schema validation but envelope.Parse failed
		// (e.g. a non-object top level a permissive schema still accepts);
		// treat this identically to a schema failure so callers see a single
		// rejection surface.
		return Decision{Accepted: false, Reason: "schema validation failed: " + err.Error()}
	}

	canonicalBytes, err := canon.Canonicalize(env.CanonicalInput())
	if err != nil {
		reason := canonicalizationFailureReason(err)
		p.logger.Debug("canonicalization failed", "reason", reason)
		return Decision{Accepted: false, Reason: reason}
	}

	digest := hash.Of(p.hashAlg, canonicalBytes)

	if !sig.Verify(env.SourceAgent(), digest.Bytes, env.Signature) {
		p.logger.Info("signature verification failed", "event_id", env.ID(), "type", env.Type())
		return Decision{Accepted: false, Reason: "signature verification failed", CanonicalBytes: canonicalBytes}
	}

	if rulesOK, reason := p.rules.Validate(env); !rulesOK {
		p.logger.Info("ruleset validation failed", "event_id", env.ID(), "type", env.Type(), "reason", reason)
		return Decision{
			Accepted:       false,
			Reason:         "ruleset validation failed: " + reason,
			CanonicalBytes: canonicalBytes,
		}
	}

	p.logger.Debug("envelope accepted", "event_id", env.ID(), "type", env.Type())
	return Decision{Accepted: true, CanonicalBytes: canonicalBytes}
}

// canonicalizationFailureReason renders a canon.Error as
// "canonicalization failed: <CODE>[ (legacy: <LEGACY_CODE>)]", appending
// the legacy suffix only when the alias table maps the code to a different
// historical name.
func canonicalizationFailureReason(err error) string {
	var cerr *canon.Error
	if !errors.As(err, &cerr) {
		return "canonicalization failed: " + canon.CodeEncodingError
	}
	code := cerr.Code
	legacy := canon.LegacyCode(code)
	if legacy == code {
		return "canonicalization failed: " + code
	}
	return fmt.Sprintf("canonicalization failed: %s (legacy: %s)", code, legacy)
}
