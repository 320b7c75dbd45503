package token

import (
	"errors"
	"testing"
)

func TestHashSHA256Hex_StableLength(t *testing.T) {
	h := HashSHA256Hex("refresh-token-value")
	if len(h) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h))
	}
	if h != HashSHA256Hex("refresh-token-value") {
		t.Fatalf("digest must be deterministic")
	}
	if h == HashSHA256Hex("other-token") {
		t.Fatalf("distinct inputs must not collide trivially")
	}
}

func TestHashRefreshTokenHex_ModeSwitch(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	plain := HashRefreshTokenHex("tok")
	if plain != HashSHA256Hex("tok") {
		t.Fatalf("expected SHA-256 fallback without key")
	}

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	keyed := HashRefreshTokenHex("tok")
	if len(keyed) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(keyed))
	}
	if keyed == plain {
		t.Fatalf("HMAC digest must differ from plain SHA-256")
	}
	if keyed != HashHMACSHA256Hex("tok", []byte("0123456789abcdef0123456789abcdef")) {
		t.Fatalf("HMAC digest mismatch")
	}
}

func TestHMACKeyFromEnv_Policy(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyMissing) {
		t.Fatalf("expected ErrHMACKeyMissing, got %v", err)
	}

	t.Setenv(HMACEnvKey, "short")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyTooShort) {
		t.Fatalf("expected ErrHMACKeyTooShort, got %v", err)
	}

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	key, err := HMACKeyFromEnv(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(key))
	}
}
