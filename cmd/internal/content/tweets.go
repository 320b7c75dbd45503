package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const tweetColumns = `id, owner_id, body, created_at, updated_at`

const maxTweetBytes = 512

func scanTweet(row pgx.Row) (Tweet, error) {
	var t Tweet
	err := row.Scan(&t.ID, &t.OwnerID, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateTweet publishes a short text post.
func (s *PostgresStore) CreateTweet(ctx context.Context, ownerID, body string, now time.Time) (Tweet, error) {
	const op = "content.CreateTweet"

	body = strings.TrimSpace(body)
	if strings.TrimSpace(ownerID) == "" {
		return Tweet{}, invalid(op, "missing owner_id")
	}
	if body == "" {
		return Tweet{}, invalid(op, "empty tweet")
	}
	if len(body) > maxTweetBytes {
		return Tweet{}, invalid(op, "tweet too long")
	}

	now = orNow(now)
	id, err := newID(now)
	if err != nil {
		return Tweet{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table("tweets")+` (id, owner_id, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)`,
		id, ownerID, body, now,
	)
	if err != nil {
		if pgIsForeignKeyViolation(err) {
			return Tweet{}, NotFoundError{Op: op, Resource: "owner"}
		}
		return Tweet{}, err
	}

	return Tweet{ID: id, OwnerID: ownerID, Body: body, CreatedAt: now, UpdatedAt: now}, nil
}

// GetTweet loads a tweet by ID.
func (s *PostgresStore) GetTweet(ctx context.Context, tweetID string) (Tweet, error) {
	const op = "content.GetTweet"

	if strings.TrimSpace(tweetID) == "" {
		return Tweet{}, invalid(op, "missing tweet_id")
	}

	t, err := scanTweet(s.pool.QueryRow(ctx,
		`SELECT `+tweetColumns+` FROM `+s.table("tweets")+` WHERE id = $1`, tweetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tweet{}, NotFoundError{Op: op, Resource: "tweet"}
		}
		return Tweet{}, err
	}
	return t, nil
}

// ListTweetsByOwner returns a user's tweets newest-first.
func (s *PostgresStore) ListTweetsByOwner(ctx context.Context, ownerID string, page Page) ([]Tweet, error) {
	const op = "content.ListTweetsByOwner"

	if strings.TrimSpace(ownerID) == "" {
		return nil, invalid(op, "missing owner_id")
	}
	page = page.Clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT `+tweetColumns+` FROM `+s.table("tweets")+`
		  WHERE owner_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		ownerID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tweets := []Tweet{}
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		tweets = append(tweets, t)
	}
	return tweets, rows.Err()
}

// UpdateTweet replaces a tweet's body.
func (s *PostgresStore) UpdateTweet(ctx context.Context, tweetID, body string, now time.Time) (Tweet, error) {
	const op = "content.UpdateTweet"

	body = strings.TrimSpace(body)
	if strings.TrimSpace(tweetID) == "" {
		return Tweet{}, invalid(op, "missing tweet_id")
	}
	if body == "" {
		return Tweet{}, invalid(op, "empty tweet")
	}
	if len(body) > maxTweetBytes {
		return Tweet{}, invalid(op, "tweet too long")
	}

	t, err := scanTweet(s.pool.QueryRow(ctx,
		`UPDATE `+s.table("tweets")+`
		    SET body = $1, updated_at = $2
		  WHERE id = $3
		  RETURNING `+tweetColumns,
		body, orNow(now), tweetID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tweet{}, NotFoundError{Op: op, Resource: "tweet"}
		}
		return Tweet{}, err
	}
	return t, nil
}

// DeleteTweet removes a tweet and its like rows.
func (s *PostgresStore) DeleteTweet(ctx context.Context, tweetID string) error {
	const op = "content.DeleteTweet"

	if strings.TrimSpace(tweetID) == "" {
		return invalid(op, "missing tweet_id")
	}
	return s.deleteWithLikes(ctx, op, "tweets", "tweet", "tweet", tweetID)
}
