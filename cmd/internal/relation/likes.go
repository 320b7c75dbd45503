package relation

import (
	"context"
	"strings"
	"time"

	"reel/cmd/internal/content"
)

// ToggleLike flips the like state for (userID, kind, subjectID) and returns
// the resulting state.
//
// Absent: INSERT ON CONFLICT DO NOTHING. A conflict means a concurrent
// toggle already created the row; the like exists, so the outcome is still
// Created. Present: DELETE; zero rows deleted means a concurrent toggle got
// there first, and the outcome is still Removed.
func (s *PostgresStore) ToggleLike(ctx context.Context, userID string, kind SubjectKind, subjectID string, now time.Time) (Outcome, error) {
	const op = "relation.ToggleLike"

	if strings.TrimSpace(userID) == "" || strings.TrimSpace(subjectID) == "" {
		return "", invalid(op, "missing user_id or subject_id")
	}
	if !kind.Valid() {
		return "", invalid(op, "unknown subject kind")
	}

	exists, err := s.subjectExists(ctx, kind, subjectID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", OpError{Op: op, Kind: ErrNotFound, Msg: string(kind)}
	}

	likes := s.table("likes")

	var liked bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+likes+`
		    WHERE user_id = $1 AND subject_kind = $2 AND subject_id = $3
		 )`,
		userID, kind, subjectID,
	).Scan(&liked)
	if err != nil {
		return "", err
	}

	if liked {
		_, err := s.pool.Exec(ctx,
			`DELETE FROM `+likes+`
			  WHERE user_id = $1 AND subject_kind = $2 AND subject_id = $3`,
			userID, kind, subjectID,
		)
		if err != nil {
			return "", err
		}
		return Removed, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+likes+` (user_id, subject_kind, subject_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, subject_kind, subject_id) DO NOTHING`,
		userID, kind, subjectID, orNow(now),
	)
	if err != nil {
		return "", err
	}
	return Created, nil
}

// IsLiked reports the current like state.
func (s *PostgresStore) IsLiked(ctx context.Context, userID string, kind SubjectKind, subjectID string) (bool, error) {
	const op = "relation.IsLiked"

	if strings.TrimSpace(userID) == "" || strings.TrimSpace(subjectID) == "" || !kind.Valid() {
		return false, invalid(op, "missing or invalid arguments")
	}

	var liked bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+s.table("likes")+`
		    WHERE user_id = $1 AND subject_kind = $2 AND subject_id = $3
		 )`,
		userID, kind, subjectID,
	).Scan(&liked)
	return liked, err
}

// CountLikes returns the like total for one subject.
func (s *PostgresStore) CountLikes(ctx context.Context, kind SubjectKind, subjectID string) (int64, error) {
	const op = "relation.CountLikes"

	if strings.TrimSpace(subjectID) == "" || !kind.Valid() {
		return 0, invalid(op, "missing or invalid arguments")
	}

	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+s.table("likes")+`
		  WHERE subject_kind = $1 AND subject_id = $2`,
		kind, subjectID,
	).Scan(&n)
	return n, err
}

// ListLikedVideos returns the videos a user has liked, most recent like first.
func (s *PostgresStore) ListLikedVideos(ctx context.Context, userID string, page content.Page) ([]content.Video, error) {
	const op = "relation.ListLikedVideos"

	if strings.TrimSpace(userID) == "" {
		return nil, invalid(op, "missing user_id")
	}
	page = page.Clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
		        v.duration_sec, v.views, v.published, v.created_at, v.updated_at
		   FROM `+s.table("likes")+` l
		   JOIN `+s.table("videos")+` v ON v.id = l.subject_id
		  WHERE l.user_id = $1 AND l.subject_kind = $2
		  ORDER BY l.created_at DESC, v.id DESC
		  LIMIT $3 OFFSET $4`,
		userID, KindVideo, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []content.Video{}
	for rows.Next() {
		var v content.Video
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
			&v.DurationSec, &v.Views, &v.Published, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ChannelLikeTotal counts likes across all of a channel's videos.
func (s *PostgresStore) ChannelLikeTotal(ctx context.Context, ownerID string) (int64, error) {
	const op = "relation.ChannelLikeTotal"

	if strings.TrimSpace(ownerID) == "" {
		return 0, invalid(op, "missing owner_id")
	}

	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		   FROM `+s.table("likes")+` l
		   JOIN `+s.table("videos")+` v ON v.id = l.subject_id
		  WHERE l.subject_kind = $1 AND v.owner_id = $2`,
		KindVideo, ownerID,
	).Scan(&n)
	return n, err
}
