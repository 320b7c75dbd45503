package session

import (
	"errors"
	"testing"
	"time"

	"reel/cmd/identity"
)

func testCodecConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessSecret = []byte(testAccessSecret)
	cfg.RefreshSecret = []byte(testRefreshSecret)
	return cfg
}

func mustNewCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testCodecConfig())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func testUser() identity.User {
	return identity.User{ID: "01J0000000000000000000TEST", Username: "alice"}
}

func TestCodec_IssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	c := mustNewCodec(t)
	now := time.Now().UTC()

	for _, kind := range []TokenKind{KindAccess, KindRefresh} {
		tok, exp, err := c.Issue(kind, testUser(), now)
		if err != nil {
			t.Fatalf("issue %s: %v", kind, err)
		}
		if !exp.After(now) {
			t.Fatalf("issue %s: expiry not in the future", kind)
		}

		claims, err := c.Verify(tok, kind)
		if err != nil {
			t.Fatalf("verify %s: %v", kind, err)
		}
		if claims.Subject != testUser().ID {
			t.Fatalf("verify %s: subject %q", kind, claims.Subject)
		}
		if claims.Kind != kind {
			t.Fatalf("verify %s: kind %q", kind, claims.Kind)
		}
		if claims.Username != "alice" {
			t.Fatalf("verify %s: username %q", kind, claims.Username)
		}
	}
}

func TestCodec_Verify_KindMismatch(t *testing.T) {
	t.Parallel()

	c := mustNewCodec(t)
	now := time.Now().UTC()

	access, _, err := c.Issue(KindAccess, testUser(), now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	refresh, _, err := c.Issue(KindRefresh, testUser(), now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// An access token must never pass as a refresh token, and vice versa.
	if _, err := c.Verify(access, KindRefresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access-as-refresh: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := c.Verify(refresh, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh-as-access: expected ErrTokenInvalid, got %v", err)
	}
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()

	c := mustNewCodec(t)

	issuedAt := time.Now().UTC().Add(-24 * time.Hour)
	tok, _, err := c.Issue(KindAccess, testUser(), issuedAt)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := c.Verify(tok, KindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestCodec_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	c := mustNewCodec(t)

	other := testCodecConfig()
	other.AccessSecret = []byte("other-secret-0123456789abcdef-0123456789abcdef")
	c2, err := NewCodec(other)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	tok, _, err := c2.Issue(KindAccess, testUser(), time.Now().UTC())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := c.Verify(tok, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestCodec_Verify_Garbage(t *testing.T) {
	t.Parallel()

	c := mustNewCodec(t)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := c.Verify(tok, KindAccess); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}

func TestCodec_RefreshTokensDistinctWithinSameInstant(t *testing.T) {
	t.Parallel()

	c := mustNewCodec(t)
	now := time.Now().UTC()

	a, _, err := c.Issue(KindRefresh, testUser(), now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, _, err := c.Issue(KindRefresh, testUser(), now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatalf("refresh tokens issued at the same instant must differ")
	}
}
