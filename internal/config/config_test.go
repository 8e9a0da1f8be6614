package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults loads the built-in settings when nothing overrides
// them.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.InDelta(t, 0.1, cfg.LLMTemperature, 0.001)
	assert.Equal(t, "http://localhost:8001", cfg.RAGServiceURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

// TestLoad_YAMLFile overlays settings from a config file.
func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
llm_model: gpt-4o
llm_temperature: 0.4
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.InDelta(t, 0.4, cfg.LLMTemperature, 0.001)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched keys keep their defaults.
	assert.Equal(t, "./data/guides.db", cfg.GuidesDBPath)
}

// TestLoad_EnvOverridesFile gives environment variables the last word.
func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm_model: from-file\n"), 0o644))

	t.Setenv("LLM_MODEL", "from-env")
	t.Setenv("LLM_TEMPERATURE", "0.9")
	t.Setenv("LISTEN_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLMModel)
	assert.InDelta(t, 0.9, cfg.LLMTemperature, 0.001)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

// TestLoad_MissingFile fails when a config path is given but absent.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

// TestLoad_BadYAML fails on unparseable files.
func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

// TestValidate rejects out-of-range and malformed settings.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }, "listen address is required"},
		{"empty model", func(c *Config) { c.LLMModel = "" }, "llm model is required"},
		{"temperature too high", func(c *Config) { c.LLMTemperature = 2.5 }, "out of range"},
		{"temperature negative", func(c *Config) { c.LLMTemperature = -0.1 }, "out of range"},
		{"empty checkpoint path", func(c *Config) { c.CheckpointDBPath = "" }, "checkpoint db path is required"},
		{"empty guides path", func(c *Config) { c.GuidesDBPath = "" }, "guides db path is required"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, `unknown log level "verbose"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
