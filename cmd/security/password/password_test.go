package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerify_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()

	h, err := cfg.Hash("correct horse battery staple 9!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(h, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %q", h)
	}

	ok, err := cfg.Verify(h, "correct horse battery staple 9!")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	cfg := DefaultConfig()

	h, err := cfg.Hash("correct horse battery staple 9!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := cfg.Verify(h, "incorrect horse")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestValidate_LengthBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.MinLength = 12
	cfg.Policy.MaxLength = 16

	if err := cfg.Validate("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := cfg.Validate("this password is definitely too long"); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if err := cfg.Validate("goodpassw0rd!"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	cfg := DefaultConfig()

	for _, bad := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=3,p=1$c2FsdA$aGFzaA",
	} {
		ok, err := cfg.Verify(bad, "whatever")
		if !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("Verify(%q): expected ErrInvalidHash, got %v", bad, err)
		}
		if ok {
			t.Fatalf("Verify(%q): expected false", bad)
		}
	}
}

func TestPolicy_RejectVeryWeak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.RejectVeryWeak = true
	cfg.Policy.MinLength = 8

	for _, weak := range []string{"password", "11111111", "iloveyou", "12345678"} {
		if err := cfg.Validate(weak); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("Validate(%q): expected ErrWeakPassword, got %v", weak, err)
		}
	}
	if err := cfg.Validate("a-very-ok-pass"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}
