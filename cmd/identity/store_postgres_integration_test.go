package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests are opt-in and require REEL_DATABASE_URL.
// In non-CI runs, unreachable Postgres skips these tests to keep local runs fast.

func TestPostgresStore_CreateUser_ConflictUsername_CaseInsensitive(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyIdentitySchema(t, pool, schema)

	s := mustNewIdentityStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := s.CreateUser(ctx, CreateUserInput{
		Username: "Alice",
		Email:    "alice1@example.com",
		FullName: "Alice One",
		Password: "very-strong-password-1",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user 1: %v", err)
	}

	// Same username (case-insensitive) should conflict.
	_, err = s.CreateUser(ctx, CreateUserInput{
		Username: "aLiCe",
		Email:    "alice2@example.com",
		FullName: "Alice Two",
		Password: "very-strong-password-2",
		Now:      time.Now().UTC(),
	})
	if err == nil {
		t.Fatalf("expected conflict, got nil")
	}
	if !IsConflict(err) {
		t.Fatalf("expected conflict error, got: %v", err)
	}
}

func TestPostgresStore_VerifyCredentials(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyIdentitySchema(t, pool, schema)

	s := mustNewIdentityStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := s.CreateUser(ctx, CreateUserInput{
		Username: "bob",
		Email:    "Bob@Example.com",
		FullName: "Bob Builder",
		Password: "very-strong-password-3",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Username, email, and uppercased identifier must all authenticate.
	for _, ident := range []string{"bob", "BOB", "bob@example.com", "Bob@Example.COM"} {
		u, err := s.VerifyCredentials(ctx, ident, "very-strong-password-3")
		if err != nil {
			t.Fatalf("verify %q: %v", ident, err)
		}
		if u.ID != created.ID {
			t.Fatalf("verify %q: got user %s want %s", ident, u.ID, created.ID)
		}
	}

	// Wrong password and unknown identifier are indistinguishable.
	_, err = s.VerifyCredentials(ctx, "bob", "wrong-password-entirely")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got: %v", err)
	}
	_, err = s.VerifyCredentials(ctx, "nobody", "very-strong-password-3")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got: %v", err)
	}
}

func TestPostgresStore_RefreshTokenLifecycle(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyIdentitySchema(t, pool, schema)

	s := mustNewIdentityStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u := mustCreateTestUser(t, ctx, s, "carol")

	now := time.Now().UTC()
	h1 := HashRefreshTokenHex("refresh-token-1")
	h2 := HashRefreshTokenHex("refresh-token-2")
	h3 := HashRefreshTokenHex("refresh-token-3")

	if err := s.ReplaceRefreshToken(ctx, u.ID, h1, now); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Rotation succeeds exactly once per presented digest.
	swapped, err := s.SwapRefreshToken(ctx, u.ID, h1, h2, now)
	if err != nil || !swapped {
		t.Fatalf("swap h1->h2: swapped=%v err=%v", swapped, err)
	}
	swapped, err = s.SwapRefreshToken(ctx, u.ID, h1, h3, now)
	if err != nil {
		t.Fatalf("swap replay: %v", err)
	}
	if swapped {
		t.Fatalf("stale digest must not swap")
	}

	// Logout clears; any further swap fails.
	if err := s.ClearRefreshToken(ctx, u.ID, now); err != nil {
		t.Fatalf("clear: %v", err)
	}
	swapped, err = s.SwapRefreshToken(ctx, u.ID, h2, h3, now)
	if err != nil {
		t.Fatalf("swap after clear: %v", err)
	}
	if swapped {
		t.Fatalf("swap must fail after logout")
	}

	// Clear is idempotent.
	if err := s.ClearRefreshToken(ctx, u.ID, now); err != nil {
		t.Fatalf("clear (second call): %v", err)
	}
}

func TestPostgresStore_SwapRefreshToken_ConcurrentRotationSingleWinner(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyIdentitySchema(t, pool, schema)

	s := mustNewIdentityStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	u := mustCreateTestUser(t, ctx, s, "dave")

	now := time.Now().UTC()
	old := HashRefreshTokenHex("the-one-valid-token")
	if err := s.ReplaceRefreshToken(ctx, u.ID, old, now); err != nil {
		t.Fatalf("replace: %v", err)
	}

	const workers = 16

	var wg sync.WaitGroup
	wins := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			newHash := HashRefreshTokenHex(fmt.Sprintf("rotated-by-%d", i))
			swapped, err := s.SwapRefreshToken(ctx, u.ID, old, newHash, time.Now().UTC())
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			if swapped {
				wins <- i
			}
		}()
	}

	wg.Wait()
	close(wins)

	var winners []int
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one rotation winner, got %d (%v)", len(winners), winners)
	}
}

// ---- helpers ----

func mustCreateTestUser(t *testing.T, ctx context.Context, s *PostgresStore, name string) User {
	t.Helper()

	u, err := s.CreateUser(ctx, CreateUserInput{
		Username: name + "-" + strings.ToLower(mustNewULIDLike(t)),
		Email:    name + "-" + strings.ToLower(mustNewULIDLike(t)) + "@example.com",
		FullName: name,
		Password: "very-strong-password-x",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustNewIdentityStore(t *testing.T, pool *pgxpool.Pool, schema string) *PostgresStore {
	t.Helper()
	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("REEL_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: REEL_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse REEL_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (REEL_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func mustCreateTestSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "reel_it_" + strings.ToLower(mustNewULIDLike(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE SCHEMA `+pgxIdent1(schema)); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return schema
}

func mustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgxIdent1(schema)+` CASCADE`)
}

func mustApplyIdentitySchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	users := pgIdent(schema, "users")

	schemaSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  username_norm TEXT NOT NULL,
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL,
  full_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  refresh_token_hash TEXT NULL,
  avatar_url TEXT NULL,
  cover_url TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT chk_users_id_ulid_len CHECK (char_length(id) = 26),
  CONSTRAINT chk_users_refresh_hash_len CHECK (refresh_token_hash IS NULL OR char_length(refresh_token_hash) = 64),
  CONSTRAINT uq_users_username_norm UNIQUE (username_norm),
  CONSTRAINT uq_users_email_norm UNIQUE (email_norm)
);
`, users)

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host") {
		return true
	}
	return false
}

func mustNewULIDLike(t *testing.T) string {
	t.Helper()

	id, err := NewULID(time.Now().UTC())
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	return id
}

func pgxIdent1(ident string) string {
	// pgx.Identifier safely quotes identifiers, preventing SQL injection in dynamic DDL.
	return pgx.Identifier{ident}.Sanitize()
}
