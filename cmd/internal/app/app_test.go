package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNonZeroDefaults(t *testing.T) {
	t.Parallel()

	if got := nonZeroDuration(0, 5*time.Second); got != 5*time.Second {
		t.Fatalf("nonZeroDuration(0)=%v", got)
	}
	if got := nonZeroDuration(2*time.Second, 5*time.Second); got != 2*time.Second {
		t.Fatalf("nonZeroDuration(2s)=%v", got)
	}
	if got := nonZeroInt(0, 7); got != 7 {
		t.Fatalf("nonZeroInt(0)=%d", got)
	}
	if got := nonZeroInt(3, 7); got != 3 {
		t.Fatalf("nonZeroInt(3)=%d", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	mux := http.NewServeMux()
	registerHTTP(mux, log, Config{}, nil, nil, nil, NewMetrics())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rr.Code)
	}

	// Without a DB, readiness passes unless the policy requires one.
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz: status %d", rr.Code)
	}

	strict := http.NewServeMux()
	registerHTTP(strict, log, Config{ReadinessRequireDB: true}, nil, nil, nil, nil)

	rr = httptest.NewRecorder()
	strict.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("strict readyz: status %d, want 503", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", rr.Code)
	}
}

func TestValidateSecurityConfig(t *testing.T) {
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: false}); err != nil {
		t.Fatalf("policy off: %v", err)
	}

	t.Setenv("REEL_TOKEN_HMAC_KEY", "")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatal("expected error with missing key")
	}

	t.Setenv("REEL_TOKEN_HMAC_KEY", "short")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatal("expected error with short key")
	}

	t.Setenv("REEL_TOKEN_HMAC_KEY", "0123456789abcdef0123456789abcdef")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
}
