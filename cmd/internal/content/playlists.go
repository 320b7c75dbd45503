package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const playlistColumns = `id, owner_id, name, description, created_at, updated_at`

func scanPlaylist(row pgx.Row) (Playlist, error) {
	var p Playlist
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePlaylist creates an empty playlist.
func (s *PostgresStore) CreatePlaylist(ctx context.Context, ownerID, name, description string, now time.Time) (Playlist, error) {
	const op = "content.CreatePlaylist"

	name = strings.TrimSpace(name)
	if strings.TrimSpace(ownerID) == "" {
		return Playlist{}, invalid(op, "missing owner_id")
	}
	if name == "" {
		return Playlist{}, invalid(op, "name is required")
	}

	now = orNow(now)
	id, err := newID(now)
	if err != nil {
		return Playlist{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table("playlists")+` (id, owner_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		id, ownerID, name, description, now,
	)
	if err != nil {
		if pgIsForeignKeyViolation(err) {
			return Playlist{}, NotFoundError{Op: op, Resource: "owner"}
		}
		return Playlist{}, err
	}

	return Playlist{ID: id, OwnerID: ownerID, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

// GetPlaylist loads a playlist by ID.
func (s *PostgresStore) GetPlaylist(ctx context.Context, playlistID string) (Playlist, error) {
	const op = "content.GetPlaylist"

	if strings.TrimSpace(playlistID) == "" {
		return Playlist{}, invalid(op, "missing playlist_id")
	}

	p, err := scanPlaylist(s.pool.QueryRow(ctx,
		`SELECT `+playlistColumns+` FROM `+s.table("playlists")+` WHERE id = $1`, playlistID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Playlist{}, NotFoundError{Op: op, Resource: "playlist"}
		}
		return Playlist{}, err
	}
	return p, nil
}

// ListPlaylistsByOwner returns a user's playlists newest-first.
func (s *PostgresStore) ListPlaylistsByOwner(ctx context.Context, ownerID string, page Page) ([]Playlist, error) {
	const op = "content.ListPlaylistsByOwner"

	if strings.TrimSpace(ownerID) == "" {
		return nil, invalid(op, "missing owner_id")
	}
	page = page.Clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT `+playlistColumns+` FROM `+s.table("playlists")+`
		  WHERE owner_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		ownerID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := []Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// UpdatePlaylist renames a playlist and/or replaces its description.
func (s *PostgresStore) UpdatePlaylist(ctx context.Context, playlistID string, name, description *string, now time.Time) (Playlist, error) {
	const op = "content.UpdatePlaylist"

	if strings.TrimSpace(playlistID) == "" {
		return Playlist{}, invalid(op, "missing playlist_id")
	}
	if name == nil && description == nil {
		return Playlist{}, invalid(op, "no fields to update")
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		return Playlist{}, invalid(op, "name must not be empty")
	}

	p, err := scanPlaylist(s.pool.QueryRow(ctx,
		`UPDATE `+s.table("playlists")+`
		    SET name = COALESCE($1, name),
		        description = COALESCE($2, description),
		        updated_at = $3
		  WHERE id = $4
		  RETURNING `+playlistColumns,
		name, description, orNow(now), playlistID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Playlist{}, NotFoundError{Op: op, Resource: "playlist"}
		}
		return Playlist{}, err
	}
	return p, nil
}

// DeletePlaylist removes a playlist and its entries.
func (s *PostgresStore) DeletePlaylist(ctx context.Context, playlistID string) error {
	const op = "content.DeletePlaylist"

	if strings.TrimSpace(playlistID) == "" {
		return invalid(op, "missing playlist_id")
	}

	ct, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table("playlists")+` WHERE id = $1`, playlistID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "playlist"}
	}
	return nil
}

// AddPlaylistVideo appends a video to a playlist. Adding the same video
// twice is a conflict.
func (s *PostgresStore) AddPlaylistVideo(ctx context.Context, playlistID, videoID string, now time.Time) error {
	const op = "content.AddPlaylistVideo"

	if strings.TrimSpace(playlistID) == "" || strings.TrimSpace(videoID) == "" {
		return invalid(op, "missing playlist_id or video_id")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table("playlist_videos")+` (playlist_id, video_id, added_at)
		 VALUES ($1, $2, $3)`,
		playlistID, videoID, orNow(now),
	)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return OpError{Op: op, Kind: ErrConflict, Msg: "video already in playlist"}
		}
		if pgIsForeignKeyViolation(err) {
			return NotFoundError{Op: op, Resource: "playlist or video"}
		}
		return err
	}
	return nil
}

// RemovePlaylistVideo removes a video from a playlist.
func (s *PostgresStore) RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) error {
	const op = "content.RemovePlaylistVideo"

	if strings.TrimSpace(playlistID) == "" || strings.TrimSpace(videoID) == "" {
		return invalid(op, "missing playlist_id or video_id")
	}

	ct, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table("playlist_videos")+` WHERE playlist_id = $1 AND video_id = $2`,
		playlistID, videoID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "playlist entry"}
	}
	return nil
}

// ListPlaylistVideos returns a playlist's videos in insertion order.
func (s *PostgresStore) ListPlaylistVideos(ctx context.Context, playlistID string, page Page) ([]Video, error) {
	const op = "content.ListPlaylistVideos"

	if strings.TrimSpace(playlistID) == "" {
		return nil, invalid(op, "missing playlist_id")
	}
	page = page.Clamp()

	rows, err := s.pool.Query(ctx,
		`SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
		        v.duration_sec, v.views, v.published, v.created_at, v.updated_at
		   FROM `+s.table("playlist_videos")+` pv
		   JOIN `+s.table("videos")+` v ON v.id = pv.video_id
		  WHERE pv.playlist_id = $1
		  ORDER BY pv.added_at ASC, v.id ASC
		  LIMIT $2 OFFSET $3`,
		playlistID, page.Limit, page.Offset,
	)
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
