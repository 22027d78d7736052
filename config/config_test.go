package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFor(t *testing.T) {
	cfg := &Config{
		DefaultRegistry: "registry.example.com",
		Registries: map[string]string{
			"wasi": "wasi.dev",
		},
	}

	assert.Equal(t, "wasi.dev", cfg.RegistryFor("wasi"))
	assert.Equal(t, "registry.example.com", cfg.RegistryFor("other"))
}

func TestRegistryForFallsBackToBuiltinDefault(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultRegistryDomain, cfg.RegistryFor("anything"))
}

func TestSetNamespaceRegistry(t *testing.T) {
	cfg := &Config{}
	cfg.SetNamespaceRegistry("wasi", "localhost-registry.test")
	assert.Equal(t, "localhost-registry.test", cfg.RegistryFor("wasi"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
default_registry = "my-registry.example"

[registries]
wasi = "wasi.example"

[http]
timeout_seconds = 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "my-registry.example", cfg.DefaultRegistry)
	assert.Equal(t, "wasi.example", cfg.RegistryFor("wasi"))
	assert.Equal(t, 15, cfg.HTTP.TimeoutSeconds)
}

func TestLoadFromFileDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRegistryDomain, cfg.DefaultRegistry)
	assert.Equal(t, 60, cfg.HTTP.TimeoutSeconds)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
