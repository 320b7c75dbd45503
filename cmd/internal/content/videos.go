package content

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// CreateVideoInput describes a video publish request. Media URLs point at
// objects already uploaded through the media store.
type CreateVideoInput struct {
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	DurationSec  float64
	Published    bool
	Now          time.Time
}

// UpdateVideoInput carries the mutable video fields. Nil pointers leave the
// stored value untouched.
type UpdateVideoInput struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
	Published    *bool
	Now          time.Time
}

// VideoFilter narrows ListVideos.
type VideoFilter struct {
	OwnerID       string
	PublishedOnly bool
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, duration_sec, views, published, created_at, updated_at`

func scanVideo(row pgx.Row) (Video, error) {
	var v Video
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.DurationSec, &v.Views, &v.Published, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

// CreateVideo inserts a new video row.
func (s *PostgresStore) CreateVideo(ctx context.Context, in CreateVideoInput) (Video, error) {
	const op = "content.CreateVideo"

	in.Title = strings.TrimSpace(in.Title)
	if in.OwnerID == "" {
		return Video{}, invalid(op, "owner is required")
	}
	if in.Title == "" {
		return Video{}, invalid(op, "title is required")
	}
	if strings.TrimSpace(in.VideoURL) == "" {
		return Video{}, invalid(op, "video_url is required")
	}
	if in.DurationSec < 0 {
		return Video{}, invalid(op, "negative duration")
	}

	now := orNow(in.Now)
	id, err := newID(now)
	if err != nil {
		return Video{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table("videos")+` (
		     id, owner_id, title, description, video_url, thumbnail_url, duration_sec, views, published, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $9)`,
		id, in.OwnerID, in.Title, in.Description, in.VideoURL, in.ThumbnailURL,
		in.DurationSec, in.Published, now,
	)
	if err != nil {
		if pgIsForeignKeyViolation(err) {
			return Video{}, NotFoundError{Op: op, Resource: "owner"}
		}
		return Video{}, err
	}

	return Video{
		ID:           id,
		OwnerID:      in.OwnerID,
		Title:        in.Title,
		Description:  in.Description,
		VideoURL:     in.VideoURL,
		ThumbnailURL: in.ThumbnailURL,
		DurationSec:  in.DurationSec,
		Published:    in.Published,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetVideo loads a video by ID.
func (s *PostgresStore) GetVideo(ctx context.Context, videoID string) (Video, error) {
	const op = "content.GetVideo"

	if strings.TrimSpace(videoID) == "" {
		return Video{}, invalid(op, "missing video_id")
	}

	v, err := scanVideo(s.pool.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM `+s.table("videos")+` WHERE id = $1`,
		videoID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Video{}, NotFoundError{Op: op, Resource: "video"}
		}
		return Video{}, err
	}
	return v, nil
}

// ListVideos returns videos newest-first, optionally filtered by owner and
// publish state.
func (s *PostgresStore) ListVideos(ctx context.Context, f VideoFilter, page Page) ([]Video, error) {
	page = page.Clamp()

	q := `SELECT ` + videoColumns + ` FROM ` + s.table("videos") + ` WHERE 1=1`
	args := []any{}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		q += ` AND owner_id = $` + strconv.Itoa(len(args))
	}
	if f.PublishedOnly {
		q += ` AND published`
	}
	args = append(args, page.Limit, page.Offset)
	q += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// UpdateVideo applies the non-nil fields of in to the video.
func (s *PostgresStore) UpdateVideo(ctx context.Context, videoID string, in UpdateVideoInput) (Video, error) {
	const op = "content.UpdateVideo"

	if strings.TrimSpace(videoID) == "" {
		return Video{}, invalid(op, "missing video_id")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return Video{}, invalid(op, "title must not be empty")
	}
	if in.Title == nil && in.Description == nil && in.ThumbnailURL == nil && in.Published == nil {
		return Video{}, invalid(op, "no fields to update")
	}

	now := orNow(in.Now)

	v, err := scanVideo(s.pool.QueryRow(ctx,
		`UPDATE `+s.table("videos")+`
		    SET title = COALESCE($1, title),
		        description = COALESCE($2, description),
		        thumbnail_url = COALESCE($3, thumbnail_url),
		        published = COALESCE($4, published),
		        updated_at = $5
		  WHERE id = $6
		  RETURNING `+videoColumns,
		in.Title, in.Description, in.ThumbnailURL, in.Published, now, videoID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Video{}, NotFoundError{Op: op, Resource: "video"}
		}
		return Video{}, err
	}
	return v, nil
}

// DeleteVideo removes a video. Comments and playlist entries cascade at the
// schema level; like rows carry no foreign key (polymorphic subject_id) and
// are cleaned up here for the video and its cascading comments.
func (s *PostgresStore) DeleteVideo(ctx context.Context, videoID string) error {
	const op = "content.DeleteVideo"

	if strings.TrimSpace(videoID) == "" {
		return invalid(op, "missing video_id")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM `+s.table("likes")+`
		  WHERE subject_kind = 'comment'
		    AND subject_id IN (SELECT id FROM `+s.table("comments")+` WHERE video_id = $1)`,
		videoID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM `+s.table("likes")+` WHERE subject_kind = 'video' AND subject_id = $1`,
		videoID); err != nil {
		return err
	}

	ct, err := tx.Exec(ctx,
		`DELETE FROM `+s.table("videos")+` WHERE id = $1`, videoID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "video"}
	}
	return tx.Commit(ctx)
}

// VideoStats aggregates a channel's video footprint for the dashboard.
type VideoStats struct {
	TotalVideos int64
	TotalViews  int64
}

// ChannelVideoStats returns video totals for a channel.
func (s *PostgresStore) ChannelVideoStats(ctx context.Context, ownerID string) (VideoStats, error) {
	const op = "content.ChannelVideoStats"

	if strings.TrimSpace(ownerID) == "" {
		return VideoStats{}, invalid(op, "missing owner_id")
	}

	var st VideoStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(views), 0)
		   FROM `+s.table("videos")+`
		  WHERE owner_id = $1`,
		ownerID,
	).Scan(&st.TotalVideos, &st.TotalViews)
	if err != nil {
		return VideoStats{}, err
	}
	return st, nil
}

// IncrementViews bumps the view counter (best-effort, no existence error).
func (s *PostgresStore) IncrementViews(ctx context.Context, videoID string) error {
	if strings.TrimSpace(videoID) == "" {
		return invalid("content.IncrementViews", "missing video_id")
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE `+s.table("videos")+` SET views = views + 1 WHERE id = $1`, videoID)
	return err
}
