// Package config holds the engine settings and the fixed names the search
// rules key on. Settings can be loaded from lumen.yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Reserved function names that never produce reference-role additions in
// the semantic database. The search core does not treat them specially;
// consumers rely on the contract.
const (
	ApplyFuncName   = "apply"
	UnapplyFuncName = "unapply"
)

// DictFieldPrefix names the synthetic dictionary fields holding recursive
// by-name implicit instances. Contextual chains always give a scope headed
// by such a name a level of its own.
const DictFieldPrefix = "$dict"

// DictClassName is the synthesized dictionary class.
const DictClassName = "$Dict"

// Settings configures one compilation run of the resolution engine.
type Settings struct {
	// Legacy enables legacy source mode: plain single-argument functions
	// act as conversions and ambiguous candidates are explored further
	// with a migration warning instead of failing eagerly.
	Legacy bool `yaml:"legacy"`

	// SearchDepth caps the nesting of implicit trials. Exceeding it fails
	// the trial as diverging.
	SearchDepth int `yaml:"searchDepth"`

	// TraceDepth limits search tracing (0 disables, -1 is unbounded).
	TraceDepth int `yaml:"traceDepth"`
}

// DefaultSettings are the settings of a plain compilation run.
func DefaultSettings() *Settings {
	return &Settings{
		Legacy:      false,
		SearchDepth: 100,
		TraceDepth:  0,
	}
}

// Load reads settings from a lumen.yaml file. Unknown keys are rejected
// so that typos do not silently fall back to defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes settings from YAML, filling unset fields with defaults.
func Parse(data []byte) (*Settings, error) {
	s := DefaultSettings()
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if node.Kind == 0 {
		return s, nil
	}
	if err := checkKnownKeys(&node); err != nil {
		return nil, err
	}
	if err := node.Decode(s); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

func checkKnownKeys(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	known := map[string]bool{"legacy": true, "searchDepth": true, "traceDepth": true}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !known[key] {
			return fmt.Errorf("config: unknown key %q", key)
		}
	}
	return nil
}
