package session

import (
	"os"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls token TTLs, clock skew tolerance, and the HS256 signing
// secrets. Access and refresh tokens are signed with distinct secrets so a
// token of one kind can never verify as the other.
//
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh tokens.
	// Must exceed AccessTokenTTL.
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// AccessSecret signs and verifies access tokens.
	AccessSecret []byte

	// RefreshSecret signs and verifies refresh tokens.
	RefreshSecret []byte
}

// DefaultConfig returns defaults suitable for development.
// Secrets are not defaulted; production deployments set them via env.
func DefaultConfig() Config {
	return Config{
		Issuer:          "reel",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		ClockSkew:       30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - REEL_AUTH_ACCESS_SECRET
//   - REEL_AUTH_REFRESH_SECRET (must differ from the access secret)
//
// Optional (durations must be valid Go duration strings):
//   - REEL_AUTH_ISSUER
//   - REEL_AUTH_ACCESS_TTL
//   - REEL_AUTH_REFRESH_TTL
//   - REEL_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("REEL_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("REEL_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("REEL_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("REEL_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.AccessSecret = []byte(os.Getenv("REEL_AUTH_ACCESS_SECRET"))
	cfg.RefreshSecret = []byte(os.Getenv("REEL_AUTH_REFRESH_SECRET"))

	return cfg, cfg.validate()
}

const minSecretBytes = 32

func (c Config) validate() error {
	if len(c.AccessSecret) < minSecretBytes || len(c.RefreshSecret) < minSecretBytes {
		return ErrConfig
	}
	if string(c.AccessSecret) == string(c.RefreshSecret) {
		return ErrConfig
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return ErrConfig
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return ErrConfig
	}
	return nil
}
