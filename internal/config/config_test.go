package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, []string{"journalctl", "-f", "-o", "short"}, cfg.Source.Command)
	assert.Equal(t, 10*time.Second, cfg.Dedup.FlushInterval)
	assert.Equal(t, 16, cfg.Embeddings.BatchSize)
	assert.Equal(t, 100000, cfg.Index.MaxSize)
	assert.Equal(t, 5, cfg.Query.K)
	assert.Equal(t, "pretty", cfg.Query.Display)
	assert.NoError(t, cfg.Validate())
}

// isolateUserConfig points XDG_CONFIG_HOME at an empty dir so tests never
// pick up a developer's real user config.
func isolateUserConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_MergesLocalFile(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	yaml := `
dedup:
  flush_interval: 3s
index:
  max_size: 500
query:
  k: 7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".logsonar.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	// File values applied
	assert.Equal(t, 3*time.Second, cfg.Dedup.FlushInterval)
	assert.Equal(t, 500, cfg.Index.MaxSize)
	assert.Equal(t, 7, cfg.Query.K)

	// Untouched values keep defaults
	assert.Equal(t, "pretty", cfg.Query.Display)
	assert.Equal(t, 16, cfg.Embeddings.BatchSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	yaml := "query:\n  k: 7\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".logsonar.yaml"), []byte(yaml), 0o644))

	t.Setenv("LOGSONAR_DEFAULT_K", "9")
	t.Setenv("LOGSONAR_EMBED_PROVIDER", "static")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Query.K)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolateUserConfig(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Index.MaxSize, cfg.Index.MaxSize)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".logsonar.yaml"), []byte("::notyaml"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no source", func(c *Config) { c.Source.Command = nil; c.Source.File = "" }},
		{"zero flush interval", func(c *Config) { c.Dedup.FlushInterval = 0 }},
		{"bad provider", func(c *Config) { c.Embeddings.Provider = "openai" }},
		{"zero max size", func(c *Config) { c.Index.MaxSize = 0 }},
		{"negative k", func(c *Config) { c.Query.K = -1 }},
		{"bad display", func(c *Config) { c.Query.Display = "fancy" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := NewConfig()
	cfg.Query.K = 11
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 11, loaded.Query.K)
}
