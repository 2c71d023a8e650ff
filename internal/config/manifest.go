package config

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/strand-ml/strand/internal/dispatch"
)

const SupportedSchema = "v1"

// Capability declares extra fallthrough operators for one dispatch key.
type Capability struct {
	Key         string   `yaml:"key"`
	Fallthrough []string `yaml:"fallthrough"`
}

// Manifest is the capability manifest: deployment-specific fallthrough
// declarations applied to the registry at build time, before it is frozen.
type Manifest struct {
	SchemaVersion string       `yaml:"schema_version"`
	Capabilities  []Capability `yaml:"capabilities"`
}

// LoadManifest parses a capability manifest YAML and validates its
// schema_version.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yamlv3.Unmarshal(raw, &m); err != nil {
		return m, err
	}
	if m.SchemaVersion == "" {
		m.SchemaVersion = SupportedSchema
	}
	if m.SchemaVersion != SupportedSchema {
		return m, fmt.Errorf("manifest schema_version %q not supported (want %q)", m.SchemaVersion, SupportedSchema)
	}
	return m, nil
}

// Apply installs the manifest's fallthrough declarations into reg.
// Must run before the registry is frozen.
func (m Manifest) Apply(reg *dispatch.Registry) error {
	for _, cap := range m.Capabilities {
		key, err := dispatch.KeyFromString(cap.Key)
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		if len(cap.Fallthrough) == 0 {
			continue
		}
		if err := reg.SetFallthrough(key, cap.Fallthrough...); err != nil {
			return fmt.Errorf("manifest key %s: %w", cap.Key, err)
		}
	}
	return nil
}
