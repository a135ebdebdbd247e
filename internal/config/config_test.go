package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
database:
  url: postgres://gw:gw@localhost/attribution
redis:
  addr: localhost:6379
klaviyo:
  base_url: https://a.klaviyo.test
  timeout_seconds: 10
cache:
  ttl_seconds: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://gw:gw@localhost/attribution", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "https://a.klaviyo.test", cfg.Klaviyo.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Klaviyo.Timeout())
	assert.Equal(t, time.Minute, cfg.Cache.TTL())

	// Unset fields pick up defaults.
	assert.Equal(t, "2024-10-15", cfg.Klaviyo.Revision)
	assert.Equal(t, 2, cfg.Klaviyo.MaxRetries)
	assert.Equal(t, "KLAVIYO_KEY", cfg.Secrets.DevEnvPrefix)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://a.klaviyo.com", cfg.Klaviyo.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.True(t, cfg.AllowsTimeframeKey("last_7_days"))
	assert.False(t, cfg.AllowsTimeframeKey("last_fortnight"))
	assert.False(t, cfg.Secrets.DevMode)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file-value
`)

	t.Setenv("DATABASE_URL", "postgres://env-value")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("KLAVIYO_BASE_URL", "https://upstream.test")
	t.Setenv("DEV_MODE", "true")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-value", cfg.Database.URL)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "https://upstream.test", cfg.Klaviyo.BaseURL)
	assert.True(t, cfg.Secrets.DevMode)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())

	cfg.Database.URL = "postgres://gw:gw@localhost/attribution"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}
