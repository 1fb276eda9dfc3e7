package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Load falls back to defaults when no config file is present in the working
// directory, which is the situation under go test.
func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "local", cfg.Mode)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "ws://localhost:8080", cfg.Realtime.BaseURL)
	assert.Equal(t, 5, cfg.Realtime.Reconnection.Attempts)
	assert.Equal(t, 2000, cfg.Realtime.Reconnection.DelayMs)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 200, cfg.Cache.MaxMessages)
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadHonorsModeEnv(t *testing.T) {
	t.Setenv("MODE", "production")
	cfg := Load()
	assert.Equal(t, "production", cfg.Mode)
}
