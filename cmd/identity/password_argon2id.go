// Package identity password hashing (Argon2id).
//
// identity delegates to cmd/security/password for Argon2id parameters
// (defaults + env overrides), password policy, and strict PHC decoding with
// anti-DoS bounds during Verify. identity MUST NOT silently drift from
// security/password configuration.
package identity

import (
	"errors"

	"reel/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash string.
// A baseline minimum of 8 characters is enforced even if the env policy is laxer.
func HashPassword(passwordPlain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Invalid env is an operational error, not a weak fallback.
		return "", err
	}

	if cfg.Policy.MinLength < 8 {
		cfg.Policy.MinLength = 8
	}
	if cfg.Policy.MaxLength <= 0 {
		cfg.Policy.MaxLength = 256
	}

	enc, err := cfg.Hash(passwordPlain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too short"}
		case errors.Is(err, password.ErrPasswordTooLong):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too long"}
		case errors.Is(err, password.ErrWeakPassword):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "weak password"}
		default:
			return "", err
		}
	}

	return enc, nil
}

// VerifyPassword checks a password against a PHC Argon2id hash.
// Comparison inside security/password is constant-time; malformed hashes are
// rejected rather than half-verified.
func VerifyPassword(passwordPlain string, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}

	if cfg.Policy.MinLength < 8 {
		cfg.Policy.MinLength = 8
	}
	if cfg.Policy.MaxLength <= 0 {
		cfg.Policy.MaxLength = 256
	}

	ok, err := cfg.Verify(encodedPHC, passwordPlain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, errors.New("invalid argon2id hash format")
		}
		return false, err
	}
	return ok, nil
}
