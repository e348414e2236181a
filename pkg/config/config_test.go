package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshdraw.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, int64(50<<20), cfg.Format.MaxInputBytes)
	require.False(t, cfg.Format.AllowEmpty)
	require.Equal(t, 2, cfg.Render.Supersample)
	require.Equal(t, 1, cfg.Render.MaxContexts)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
[format]
allow_empty = true
max_input_bytes = 1024

[render]
supersample = 1
edge_angle = 45.0
max_contexts = 4
acquire_timeout = "250ms"
concurrent = true

[log]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Format.AllowEmpty)
	require.Equal(t, int64(1024), cfg.Format.MaxInputBytes)
	require.Equal(t, 1, cfg.Render.Supersample)
	require.Equal(t, 45.0, cfg.Render.EdgeAngle)
	require.Equal(t, 4, cfg.Render.MaxContexts)
	require.Equal(t, Duration(250*time.Millisecond), cfg.Render.AcquireTimeout)
	require.True(t, cfg.Render.Concurrent)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "[render]\nsupersample = 3\n"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Render.Supersample)
	require.Equal(t, 30.0, cfg.Render.EdgeAngle)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "[render]\nsuper_sample = 3\n"))
	require.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadDotenv(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})
	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MESHDRAW_LOG_LEVEL=\"debug\n"), 0o644))
		t.Chdir(dir)
		_, err := Load("")
		require.ErrorContains(t, err, ".env")
	})
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "[render]\nmax_contexts = 2\n")
	t.Setenv("MESHDRAW_MAX_CONTEXTS", "3")
	t.Setenv("MESHDRAW_ALLOW_EMPTY", "true")
	t.Setenv("MESHDRAW_ACQUIRE_TIMEOUT", "2s")
	t.Setenv("MESHDRAW_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Render.MaxContexts)
	require.True(t, cfg.Format.AllowEmpty)
	require.Equal(t, Duration(2*time.Second), cfg.Render.AcquireTimeout)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvParseErrors(t *testing.T) {
	env := map[string]string{
		"MESHDRAW_SUPERSAMPLE":     "two",
		"MESHDRAW_CONCURRENT":      "maybe",
		"MESHDRAW_ACQUIRE_TIMEOUT": "soon",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) string { return env[k] })
	require.Error(t, err)
	require.Contains(t, err.Error(), "MESHDRAW_SUPERSAMPLE")
	require.Contains(t, err.Error(), "MESHDRAW_CONCURRENT")
	require.Contains(t, err.Error(), "MESHDRAW_ACQUIRE_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max input", func(c *Config) { c.Format.MaxInputBytes = 0 }},
		{"supersample too high", func(c *Config) { c.Render.Supersample = 8 }},
		{"edge angle", func(c *Config) { c.Render.EdgeAngle = 180 }},
		{"no contexts", func(c *Config) { c.Render.MaxContexts = 0 }},
		{"negative timeout", func(c *Config) { c.Render.AcquireTimeout = Duration(-time.Second) }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSlogLevel(t *testing.T) {
	lvl, err := Log{Level: "DEBUG"}.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, "DEBUG", lvl.String())
}
