// Package config loads the surrounding service's YAML configuration:
// transport target, ruleset/schema paths, and resource limits. None of this
// is part of the admission core itself — the core takes already-read schema
// and ruleset documents — but a real deployment needs somewhere to read
// them from, and relative paths in the config file are resolved against the
// config file's own directory rather than the process's working directory,
// so a service started from any CWD still finds its schema and ruleset.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TransportConfig describes how decisions get published downstream.
type TransportConfig struct {
	Target    string `yaml:"target"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// ImmuneConfig points at the ruleset document and names the quarantine
// subject rejected envelopes are published to.
type ImmuneConfig struct {
	RulesetPath       string `yaml:"ruleset_path"`
	QuarantineSubject string `yaml:"quarantine_subject"`
}

// EnvelopeConfig points at the schema document and bounds accepted payload
// size.
type EnvelopeConfig struct {
	SchemaPath      string `yaml:"schema_path"`
	MaxPayloadBytes int    `yaml:"max_payload_bytes"`
}

// AppConfig is the root configuration document.
type AppConfig struct {
	Transport TransportConfig `yaml:"-"`
	Immune    ImmuneConfig    `yaml:"-"`
	Envelope  EnvelopeConfig  `yaml:"-"`
}

// document mirrors the on-disk shape, nested under the top-level "atr" key.
type document struct {
	ATR struct {
		TransportGRPC TransportConfig `yaml:"transport_grpc"`
		Immune        ImmuneConfig    `yaml:"immune"`
		Envelope      EnvelopeConfig  `yaml:"envelope"`
	} `yaml:"atr"`
}

// Load reads and parses the YAML document at path, resolving its
// schema_path and ruleset_path fields relative to path's directory when
// they are not already absolute.
func Load(path string) (AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return AppConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg := AppConfig{
		Transport: doc.ATR.TransportGRPC,
		Immune:    doc.ATR.Immune,
		Envelope:  doc.ATR.Envelope,
	}
	cfg.Envelope.SchemaPath = resolveNear(dir, cfg.Envelope.SchemaPath)
	cfg.Immune.RulesetPath = resolveNear(dir, cfg.Immune.RulesetPath)
	return cfg, nil
}

// resolveNear joins p onto dir unless p is already absolute.
func resolveNear(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
