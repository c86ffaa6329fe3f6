package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Authentication modes selectable via AUTH_MODE.
const (
	AuthModeBasic  = "basic"
	AuthModeBearer = "bearer"
	AuthModeNone   = "none"
)

// Config holds all runtime configuration, decoded from the environment.
//
// MONGO_URI and JWT_SECRET are mandatory: the service refuses to start
// without a store to talk to or a signing key for tokens.
type Config struct {
	MongoURI string `env:"MONGO_URI,required"`
	Database string `env:"MONGO_DB,default=userapi"`

	Port int `env:"PORT,default=5000"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=1h"`

	// AuthMode selects the gate protecting /users and /api-docs:
	// basic, bearer, or none.
	AuthMode string `env:"AUTH_MODE,default=basic"`

	// EnforceRevocation makes the bearer gate re-read the user's current
	// tokenVersion on every request and reject stale snapshots. Off by
	// default: tokens are then only checked for signature and expiry.
	EnforceRevocation bool `env:"AUTH_ENFORCE_REVOCATION,default=false"`
}

// Load decodes configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	switch cfg.AuthMode {
	case AuthModeBasic, AuthModeBearer, AuthModeNone:
	default:
		return nil, fmt.Errorf("invalid AUTH_MODE %q (want basic, bearer or none)", cfg.AuthMode)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
