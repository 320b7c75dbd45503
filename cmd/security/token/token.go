package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// HMACEnvKey names the environment variable holding the secret used to
// key refresh token digests.
// #nosec G101 -- the variable name, not the secret itself.
const HMACEnvKey = "REEL_TOKEN_HMAC_KEY"

// HashSHA256Hex returns the hex-encoded SHA-256 digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns the hex-encoded HMAC-SHA256 of s under key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv reads the HMAC secret from the environment, trimming
// surrounding whitespace. A missing or blank value yields
// ErrHMACKeyMissing; a value shorter than minBytes yields
// ErrHMACKeyTooShort.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// HMACEnabled reports whether a non-blank secret is configured. It does
// not check length; callers that need the minimum use HMACKeyFromEnv.
func HMACEnabled() bool {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	return raw != ""
}

// HashRefreshTokenHex produces the digest stored server-side for a
// refresh token. With a configured secret it is HMAC-SHA256 of the
// token; without one it degrades to plain SHA-256 so local setups work
// out of the box.
func HashRefreshTokenHex(token string) string {
	key := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if key == "" {
		return HashSHA256Hex(token)
	}
	return HashHMACSHA256Hex(token, []byte(key))
}

// HashRefreshTokenHexRequireHMAC is the strict variant: the secret must
// be present and at least minBytes long or an error is returned.
func HashRefreshTokenHexRequireHMAC(token string, minBytes int) (string, error) {
	key, err := HMACKeyFromEnv(minBytes)
	if err != nil {
		return "", err
	}
	return HashHMACSHA256Hex(token, key), nil
}
