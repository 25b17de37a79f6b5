package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "tokens.json", cfg.TokenFile)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AUTOCARE_API_URL", "https://api.example.com")
	t.Setenv("HTTP_TIMEOUT", "10s")
	t.Setenv("TOKEN_FILE", "/tmp/tokens.json")
	t.Setenv("DEBUG", "true")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/tmp/tokens.json", cfg.TokenFile)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")
	t.Setenv("DEBUG", "not-a-bool")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 10, cfg.BcryptCost)
}
