package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const commentColumns = `id, video_id, owner_id, body, created_at, updated_at`

const maxCommentBytes = 4096

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// AddComment attaches a comment to a video.
func (s *PostgresStore) AddComment(ctx context.Context, videoID, ownerID, body string, now time.Time) (Comment, error) {
	const op = "content.AddComment"

	body = strings.TrimSpace(body)
	if strings.TrimSpace(videoID) == "" || strings.TrimSpace(ownerID) == "" {
		return Comment{}, invalid(op, "missing video_id or owner_id")
	}
	if body == "" {
		return Comment{}, invalid(op, "empty comment")
	}
	if len(body) > maxCommentBytes {
		return Comment{}, invalid(op, "comment too long")
	}

	now = orNow(now)
	id, err := newID(now)
	if err != nil {
		return Comment{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table("comments")+` (id, video_id, owner_id, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, videoID, ownerID, body, now,
	)
	if err != nil {
		if pgIsForeignKeyViolation(err) {
			return Comment{}, NotFoundError{Op: op, Resource: "video"}
		}
		return Comment{}, err
	}

	return Comment{ID: id, VideoID: videoID, OwnerID: ownerID, Body: body, CreatedAt: now, UpdatedAt: now}, nil
}

// GetComment loads a comment by ID.
func (s *PostgresStore) GetComment(ctx context.Context, commentID string) (Comment, error) {
	const op = "content.GetComment"

	if strings.TrimSpace(commentID) == "" {
		return Comment{}, invalid(op, "missing comment_id")
	}

	c, err := scanComment(s.pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM `+s.table("comments")+` WHERE id = $1`, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, NotFoundError{Op: op, Resource: "comment"}
		}
		return Comment{}, err
	}
	return c, nil
}

// ListComments returns a video's comments newest-first.
func (s *PostgresStore) ListComments(ctx context.Context, videoID string, page Page) ([]Comment, error) {
	const op = "content.ListComments"

	if strings.TrimSpace(videoID) == "" {
		return nil, invalid(op, "missing video_id")
	}
	page = page.Clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM `+s.table("comments")+`
		  WHERE video_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		videoID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment replaces a comment's body.
func (s *PostgresStore) UpdateComment(ctx context.Context, commentID, body string, now time.Time) (Comment, error) {
	const op = "content.UpdateComment"

	body = strings.TrimSpace(body)
	if strings.TrimSpace(commentID) == "" {
		return Comment{}, invalid(op, "missing comment_id")
	}
	if body == "" {
		return Comment{}, invalid(op, "empty comment")
	}
	if len(body) > maxCommentBytes {
		return Comment{}, invalid(op, "comment too long")
	}

	c, err := scanComment(s.pool.QueryRow(ctx,
		`UPDATE `+s.table("comments")+`
		    SET body = $1, updated_at = $2
		  WHERE id = $3
		  RETURNING `+commentColumns,
		body, orNow(now), commentID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, NotFoundError{Op: op, Resource: "comment"}
		}
		return Comment{}, err
	}
	return c, nil
}

// DeleteComment removes a comment and its like rows.
func (s *PostgresStore) DeleteComment(ctx context.Context, commentID string) error {
	const op = "content.DeleteComment"

	if strings.TrimSpace(commentID) == "" {
		return invalid(op, "missing comment_id")
	}
	return s.deleteWithLikes(ctx, op, "comments", "comment", "comment", commentID)
}
