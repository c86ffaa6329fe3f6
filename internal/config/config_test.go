package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "userapi", cfg.Database)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, AuthModeBasic, cfg.AuthMode)
	assert.False(t, cfg.EnforceRevocation)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MONGO_DB", "people")
	t.Setenv("PORT", "8080")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("AUTH_MODE", "bearer")
	t.Setenv("AUTH_ENFORCE_REVOCATION", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "people", cfg.Database)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, AuthModeBearer, cfg.AuthMode)
	assert.True(t, cfg.EnforceRevocation)
}

func TestLoadMissingMongoURIFails(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingJWTSecretFails(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownAuthMode(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_MODE", "oauth")

	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_MODE")
}
