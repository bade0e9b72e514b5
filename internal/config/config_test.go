package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SAMBANOVA_API_KEY", "SAMBANOVA_API_URL", "PERSONACHAT_DB", "PERSONACHAT_MODERATION", "PERSONACHAT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.GetRequestTimeout())
	lo, hi := cfg.GetMockDelays()
	assert.Equal(t, time.Second, lo)
	assert.Equal(t, 2*time.Second, hi)
	assert.True(t, cfg.ModerationEnabled)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://localhost:9999/v1
moderation_enabled: false
request_timeout: 5s
default_agent: q
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v1", cfg.APIURL)
	assert.False(t, cfg.ModerationEnabled)
	assert.Equal(t, 5*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, "q", cfg.DefaultAgent)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultConfig().FallbackModel, cfg.FallbackModel)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SAMBANOVA_API_KEY", "env-key")
	t.Setenv("SAMBANOVA_API_URL", "https://proxy.example/v1")
	t.Setenv("PERSONACHAT_DB", "/tmp/pc.db")
	t.Setenv("PERSONACHAT_MODERATION", "false")
	t.Setenv("PERSONACHAT_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "https://proxy.example/v1", cfg.APIURL)
	assert.Equal(t, "/tmp/pc.db", cfg.DatabasePath)
	assert.False(t, cfg.ModerationEnabled)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestEnvModerationIgnoresGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("PERSONACHAT_MODERATION", "maybe")
	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.True(t, cfg.ModerationEnabled)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.APIURL = "" }},
		{"bad scheme", func(c *Config) { c.APIURL = "ftp://x" }},
		{"top_p zero", func(c *Config) { c.TopP = 0 }},
		{"top_p above one", func(c *Config) { c.TopP = 1.5 }},
		{"bad timeout", func(c *Config) { c.RequestTimeout = "soon" }},
		{"swapped delays", func(c *Config) { c.MockDelayMin = "3s"; c.MockDelayMax = "1s" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveOmitsAPIKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.APIKey = "secret"
	cfg.DefaultAgent = "q"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "q", loaded.DefaultAgent)
	assert.Empty(t, loaded.APIKey)
	assert.Equal(t, "secret", cfg.APIKey, "Save must not modify the receiver")
}
