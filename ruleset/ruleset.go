// Package ruleset evaluates the admission policy: a deny list of event
// types plus a map of types to a required meta.security_level. Both are
// loaded once from configuration and treated as immutable for the lifetime
// of the process.
package ruleset

import (
	"encoding/json"
	"fmt"

	"github.com/blockberries/immune-core/envelope"
)

// Ruleset is the immutable, loaded policy: a blocked-type set plus a
// per-type required security level.
type Ruleset struct {
	blockedTypes          map[string]struct{}
	requiredSecurityLevel map[string]string
}

// document is the on-disk JSON shape a Ruleset is loaded from.
type document struct {
	BlockedTypes                  []string          `json:"blocked_types"`
	RequiredSecurityLevelForTypes map[string]string `json:"required_security_level_for_types"`
}

// Load parses raw (a JSON document matching document's shape) into a Ruleset.
func Load(raw []byte) (*Ruleset, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ruleset: %w", err)
	}
	return FromLists(doc.BlockedTypes, doc.RequiredSecurityLevelForTypes), nil
}

// FromLists builds a Ruleset directly from a blocked-type slice and a
// required-security-level map, without going through JSON.
func FromLists(blockedTypes []string, requiredSecurityLevel map[string]string) *Ruleset {
	blocked := make(map[string]struct{}, len(blockedTypes))
	for _, t := range blockedTypes {
		blocked[t] = struct{}{}
	}
	required := make(map[string]string, len(requiredSecurityLevel))
	for k, v := range requiredSecurityLevel {
		required[k] = v
	}
	return &Ruleset{blockedTypes: blocked, requiredSecurityLevel: required}
}

// Validate checks env's header.type against the blocked-type set and,
// failing that, against the required-security-level map. An absent
// meta.security_level never matches a required level.
func (r *Ruleset) Validate(env envelope.Envelope) (ok bool, reason string) {
	eventType := env.Type()

	if _, blocked := r.blockedTypes[eventType]; blocked {
		return false, "blocked event type"
	}

	expected, required := r.requiredSecurityLevel[eventType]
	if !required {
		return true, ""
	}
	if env.SecurityLevel() != expected {
		return false, "security level mismatch"
	}
	return true, ""
}
