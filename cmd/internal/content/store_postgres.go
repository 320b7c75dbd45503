package content

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

	"reel/cmd/identity"
)

// PostgresStore implements content persistence over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Identifiers are safely quoted; errors are mapped to content sentinels.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the content store (default "reel").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("content: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("content: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
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
		return nil, fmt.Errorf("content: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

// deleteWithLikes removes one row plus its like rows in a single
// transaction. likes.subject_id is polymorphic across videos, comments and
// tweets, so the schema cannot express this cleanup as a foreign key;
// likeKind must match the subject_kind stored for the table.
func (s *PostgresStore) deleteWithLikes(ctx context.Context, op, tableName, resource, likeKind, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM `+s.table("likes")+` WHERE subject_kind = $1 AND subject_id = $2`,
		likeKind, id); err != nil {
		return err
	}

	ct, err := tx.Exec(ctx,
		`DELETE FROM `+s.table(tableName)+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: resource}
	}
	return tx.Commit(ctx)
}

func newID(now time.Time) (string, error) {
	return identity.NewULID(now)
}

func orNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now().UTC()
	}
	return now
}

// pgIsUniqueViolation reports Postgres unique_violation (23505).
func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// pgIsForeignKeyViolation reports foreign_key_violation (23503), raised when
// a write references an entity that does not exist.
func pgIsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
