package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.False(t, cfg.Server.DevMode)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 120*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 1, cfg.Gemini.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.History.TTL)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL)
	assert.Equal(t, 2.0, cfg.RateLimit.Rate)
	assert.Equal(t, 5.0, cfg.RateLimit.Burst)
	assert.Empty(t, cfg.Redis.Address)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
gemini:
  model: gemini-from-file
  timeout: 45s
  max_attempts: 2
redis:
  address: localhost:6379
logging:
  level: debug
  format: json
`), 0o644))

	t.Setenv("GEMINI_MODEL", "gemini-from-env")
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, "gemini-from-env", cfg.Gemini.Model)
	assert.Equal(t, "legacy-key", cfg.Gemini.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 2, cfg.Gemini.MaxAttempts)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadPrefersPrimaryEnvName(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Setenv("GEMINI_API_KEY", "primary")
	t.Setenv("API_KEY", "legacy")
	t.Setenv("PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.Gemini.APIKey)
	assert.Equal(t, "7000", cfg.Server.Port)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Setenv("GEMINI_MAX_ATTEMPTS", "0")

	_, err := Load("")
	assert.ErrorContains(t, err, "max_attempts")
}

func TestValidateLoggingFormat(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "1"},
		Gemini:    GeminiConfig{MaxAttempts: 1, Timeout: time.Second},
		RateLimit: RateLimitConfig{Rate: 1, Burst: 1},
		Logging:   LoggingConfig{Format: "xml"},
	}
	assert.ErrorContains(t, cfg.Validate(), "logging.format")

	cfg.Logging.Format = "JSON"
	assert.NoError(t, cfg.Validate())
}
