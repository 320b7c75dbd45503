package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements identity persistence over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - SwapRefreshToken is a single conditional UPDATE: the DB row is the
//   serialization point for refresh rotation, no row lock needed.
// - Errors are mapped to identity sentinel kinds where appropriate.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string

	// dummyHash is verified against when a login identifier is unknown,
	// to keep "no such user" and "wrong password" timing-equivalent.
	dummyHash string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the identity store (default "reel").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "reel",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}

	if hash, err := HashPassword("dummy-password-for-timing-only"); err == nil {
		st.dummyHash = hash
	}

	return st, nil
}

const userColumns = `id, username, username_norm, email, email_norm, full_name, avatar_url, cover_url, created_at, updated_at`

// CreateUser creates a new user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" {
		return User{}, pgInvalid(op, "username is required")
	}
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}
	if fullName == "" {
		return User{}, pgInvalid(op, "full name is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, pgInvalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	usernameNorm := NormalizeUsername(username)
	emailNorm := NormalizeEmail(email)

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     id, username, username_norm, email, email_norm, full_name, password_hash, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		userID,
		username,
		usernameNorm,
		email,
		emailNorm,
		fullName,
		pwHash,
		now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return User{
		ID:           userID,
		Username:     username,
		UsernameNorm: usernameNorm,
		Email:        email,
		EmailNorm:    emailNorm,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByID loads a user by primary key.
func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const op = "identity.GetUserByID"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, pgInvalid(op, "missing user_id")
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE id = $1`,
		userID,
	).Scan(
		&u.ID, &u.Username, &u.UsernameNorm, &u.Email, &u.EmailNorm,
		&u.FullName, &u.AvatarURL, &u.CoverURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

// VerifyCredentials authenticates a username-or-email identifier plus password.
func (s *PostgresStore) VerifyCredentials(ctx context.Context, identifier, password string) (User, error) {
	const op = "identity.VerifyCredentials"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || strings.TrimSpace(password) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidCredentials}
	}

	users := pgIdent(s.schema, "users")

	var (
		u      User
		pwHash string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash
		   FROM `+users+`
		  WHERE username_norm = $1 OR email_norm = $1`,
		identifier,
	).Scan(
		&u.ID, &u.Username, &u.UsernameNorm, &u.Email, &u.EmailNorm,
		&u.FullName, &u.AvatarURL, &u.CoverURL, &u.CreatedAt, &u.UpdatedAt,
		&pwHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Timing resistance: burn a verify against the dummy hash.
			if s.dummyHash != "" {
				_, _ = VerifyPassword(password, s.dummyHash)
			}
			return User{}, OpError{Op: op, Kind: ErrInvalidCredentials}
		}
		return User{}, err
	}

	ok, err := VerifyPassword(password, pwHash)
	if err != nil || !ok {
		return User{}, OpError{Op: op, Kind: ErrInvalidCredentials}
	}

	return u, nil
}

// ReplaceRefreshToken unconditionally overwrites the stored refresh digest.
// Single-session policy: a login on one device invalidates any session elsewhere.
func (s *PostgresStore) ReplaceRefreshToken(ctx context.Context, userID, newHash string, now time.Time) error {
	const op = "identity.ReplaceRefreshToken"

	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return pgInvalid(op, "missing user_id")
	}
	if strings.TrimSpace(newHash) == "" {
		return pgInvalid(op, "missing refresh digest")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET refresh_token_hash = $1,
		        updated_at = $2
		  WHERE id = $3`,
		newHash, now, userID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// SwapRefreshToken rotates the stored refresh digest with a conditional update.
// The WHERE clause is the atomic compare step: of two concurrent rotations
// presenting the same old digest, exactly one observes RowsAffected()==1.
func (s *PostgresStore) SwapRefreshToken(ctx context.Context, userID, oldHash, newHash string, now time.Time) (bool, error) {
	const op = "identity.SwapRefreshToken"

	if s == nil || s.pool == nil {
		return false, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(oldHash) == "" || strings.TrimSpace(newHash) == "" {
		return false, pgInvalid(op, "missing user_id or refresh digest")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET refresh_token_hash = $1,
		        updated_at = $2
		  WHERE id = $3
		    AND refresh_token_hash = $4`,
		newHash, now, userID, oldHash,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// ClearRefreshToken logs the user out server-side (idempotent).
func (s *PostgresStore) ClearRefreshToken(ctx context.Context, userID string, now time.Time) error {
	const op = "identity.ClearRefreshToken"

	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return pgInvalid(op, "missing user_id")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET refresh_token_hash = NULL,
		        updated_at = $1
		  WHERE id = $2`,
		now, userID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *PostgresStore) UpdatePassword(ctx context.Context, userID, passwordHash string, now time.Time) error {
	return s.updateUserField(ctx, "identity.UpdatePassword", userID, "password_hash", passwordHash, now)
}

// UpdateAvatar replaces the avatar URL.
func (s *PostgresStore) UpdateAvatar(ctx context.Context, userID, avatarURL string, now time.Time) error {
	return s.updateUserField(ctx, "identity.UpdateAvatar", userID, "avatar_url", avatarURL, now)
}

// UpdateCover replaces the cover-image URL.
func (s *PostgresStore) UpdateCover(ctx context.Context, userID, coverURL string, now time.Time) error {
	return s.updateUserField(ctx, "identity.UpdateCover", userID, "cover_url", coverURL, now)
}

func (s *PostgresStore) updateUserField(ctx context.Context, op, userID, column, value string, now time.Time) error {
	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return pgInvalid(op, "missing user_id")
	}
	if strings.TrimSpace(value) == "" {
		return pgInvalid(op, "missing value")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	// column comes from a fixed call-site set, never from input.
	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+` SET `+column+` = $1, updated_at = $2 WHERE id = $3`,
		value, now, userID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// ---- helpers ----

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "uq_users_username_norm":
		return "username", true
	case "uq_users_email_norm":
		return "email", true
	default:
		switch {
		case strings.Contains(c, "username"):
			return "username", true
		case strings.Contains(c, "email"):
			return "email", true
		default:
			return "unique", true
		}
	}
}
