package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2*time.Second, cfg.Sequences.Emergence)
	assert.Equal(t, 1500*time.Millisecond, cfg.Sequences.Burst)
	assert.Equal(t, time.Second, cfg.Sequences.Reveal)
	assert.Equal(t, time.Second, cfg.Sequences.Teardown)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "emergence.yaml", `
document: content/data.yaml
addr: 0.0.0.0:9000
log:
  level: debug
sequences:
  burst: 500ms
store:
  driver: file
  path: /tmp/sessions
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "content/data.yaml", cfg.Document)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset fields keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.Sequences.Burst)
	assert.Equal(t, 2*time.Second, cfg.Sequences.Emergence)
	assert.Equal(t, "file", cfg.Store.Driver)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "emergence.json", `{"document":"doc.json","log":{"format":"json"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "doc.json", cfg.Document)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDocument, "env.json")
	t.Setenv(EnvAddr, ":7070")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvLogLevel, "WARN")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env.json", cfg.Document)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Store.RedisURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.yaml", "log: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeFile(t, "level.yaml", "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "invalid config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Empty Document", func(c *Config) { c.Document = "" }},
		{"Bad Addr", func(c *Config) { c.Addr = "not an address" }},
		{"Bad Format", func(c *Config) { c.Log.Format = "xml" }},
		{"Bad Driver", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"File Without Path", func(c *Config) { c.Store.Driver = "file"; c.Store.Path = "" }},
		{"Redis Without URL", func(c *Config) { c.Store.Driver = "redis" }},
		{"Negative Duration", func(c *Config) { c.Sequences.Reveal = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
