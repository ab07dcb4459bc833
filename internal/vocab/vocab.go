// Package vocab loads vocabulary manifests. A manifest is an optional
// YAML file listing extra noise words, salt names, and fluorophore tags
// that get merged into the built-in stripper tables.
package vocab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valpere/chemnorm/internal/strip"
)

// Manifest holds the term lists of one vocabulary file.
type Manifest struct {
	Noise        []string `yaml:"noise"`
	Salts        []string `yaml:"salts"`
	Fluorophores []string `yaml:"fluorophores"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary manifest: %w", err)
	}
	return &m, nil
}

// Apply merges the manifest terms into the stripper tables. Terms are
// additive; built-ins stay in place.
func (m *Manifest) Apply() {
	if len(m.Noise) > 0 {
		strip.ExtendNoise(m.Noise)
	}
	if len(m.Salts) > 0 {
		strip.ExtendSalts(m.Salts)
	}
	if len(m.Fluorophores) > 0 {
		strip.ExtendFluorophores(m.Fluorophores)
	}
}
