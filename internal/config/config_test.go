package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "HTTP_PORT", "SESSION_STORE", "TYPING_DELAY", "SESSION_TTL", "SESSION_IDLE_TIMEOUT", "REDIS_DB"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.Equal(t, 1200*time.Millisecond, cfg.TypingDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, "0.0.0.0:8098", cfg.Addr())
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("TYPING_DELAY", "0s")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("SESSION_IDLE_TIMEOUT", "0")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, StoreRedis, cfg.SessionStore)
	assert.Zero(t, cfg.TypingDelay)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Zero(t, cfg.SessionIdleTimeout)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TYPING_DELAY", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "TYPING_DELAY")

	t.Setenv("TYPING_DELAY", "")
	t.Setenv("REDIS_DB", "first")
	_, err = Load()
	assert.ErrorContains(t, err, "REDIS_DB")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{SessionStore: StoreMemory}
		c.DB.Host, c.DB.Database = "localhost", "support_chat"
		c.Redis.Addr = "localhost:6379"
		return c
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory", func(*Config) {}, false},
		{"postgres", func(c *Config) { c.SessionStore = StorePostgres }, false},
		{"postgres without host", func(c *Config) { c.SessionStore = StorePostgres; c.DB.Host = "" }, true},
		{"production without password", func(c *Config) { c.SessionStore = StorePostgres; c.AppEnv = "production" }, true},
		{"redis without addr", func(c *Config) { c.SessionStore = StoreRedis; c.Redis.Addr = "" }, true},
		{"unknown store", func(c *Config) { c.SessionStore = "mongo" }, true},
		{"negative delay", func(c *Config) { c.TypingDelay = -time.Second }, true},
		{"negative idle timeout", func(c *Config) { c.SessionIdleTimeout = -time.Minute }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warning"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "verbose"}).SlogLevel())
}
