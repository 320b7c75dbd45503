package relation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements likes and subscriptions over PostgreSQL.
//
// Toggles are deliberately not transactional: the insert uses
// ON CONFLICT DO NOTHING and the delete tolerates zero rows, so two
// concurrent toggles of the same pair both succeed and the relation ends in
// a defined state.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the relation store (default "reel").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("relation: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("relation: invalid schema identifier")
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
		return nil, fmt.Errorf("relation: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

func subjectTable(kind SubjectKind) (string, bool) {
	switch kind {
	case KindVideo:
		return "videos", true
	case KindComment:
		return "comments", true
	case KindTweet:
		return "tweets", true
	default:
		return "", false
	}
}

func (s *PostgresStore) subjectExists(ctx context.Context, kind SubjectKind, subjectID string) (bool, error) {
	tbl, ok := subjectTable(kind)
	if !ok {
		return false, nil
	}
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.table(tbl)+` WHERE id = $1)`,
		subjectID,
	).Scan(&exists)
	return exists, err
}

func orNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now().UTC()
	}
	return now
}
