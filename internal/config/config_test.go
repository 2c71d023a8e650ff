package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strand-ml/strand/internal/dispatch"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.Zero(t, cfg.Metrics.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "strand.yaml", `
log:
  level: debug
  json: true
metrics:
  port: 9090
manifest: /etc/strand/manifest.yaml
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "/etc/strand/manifest.yaml", cfg.Manifest)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "strand.yaml", `
log:
  level: warn
`)
	t.Setenv("STRAND__LOG__LEVEL", "error")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadManifest(t *testing.T) {
	path := writeFile(t, "manifest.yaml", `
schema_version: v1
capabilities:
  - key: CompositeView
    fallthrough: [detach, contiguous]
`)
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", m.SchemaVersion)
	require.Len(t, m.Capabilities, 1)
	assert.Equal(t, "CompositeView", m.Capabilities[0].Key)
	assert.Equal(t, []string{"detach", "contiguous"}, m.Capabilities[0].Fallthrough)
}

func TestLoadManifestRejectsUnknownSchema(t *testing.T) {
	path := writeFile(t, "manifest.yaml", `
schema_version: v99
capabilities: []
`)
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_version")
}

func TestManifestApply(t *testing.T) {
	reg := dispatch.NewRegistry()
	_, err := reg.Register("detach", dispatch.Schema{
		Args:    []dispatch.Arg{{Name: "self"}},
		Returns: 1,
	})
	require.NoError(t, err)

	m := Manifest{
		SchemaVersion: SupportedSchema,
		Capabilities: []Capability{
			{Key: "CompositeView", Fallthrough: []string{"detach"}},
		},
	}
	require.NoError(t, m.Apply(reg))

	op, err := reg.Lookup("detach")
	require.NoError(t, err)
	// Dispatch at the declared key now skips it entirely: with only that
	// key active and nothing below, resolution is exhausted.
	err = reg.Call(op, dispatch.NewKeySet(dispatch.KeyCompositeView), dispatch.NewFrame())
	assert.ErrorIs(t, err, dispatch.ErrNoKernel)
}

func TestManifestApplyUnknownKey(t *testing.T) {
	m := Manifest{
		SchemaVersion: SupportedSchema,
		Capabilities:  []Capability{{Key: "Quantized", Fallthrough: []string{"x"}}},
	}
	err := m.Apply(dispatch.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dispatch key")
}

func TestManifestApplyUnregisteredOperator(t *testing.T) {
	m := Manifest{
		SchemaVersion: SupportedSchema,
		Capabilities:  []Capability{{Key: "CompositeView", Fallthrough: []string{"missing_op"}}},
	}
	err := m.Apply(dispatch.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}
