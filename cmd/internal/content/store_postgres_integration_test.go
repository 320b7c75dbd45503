package content

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reel/cmd/identity"
)

// Integration tests are opt-in and require REEL_DATABASE_URL.

func TestVideoCRUD(t *testing.T) {
	t.Parallel()

	pool, schema, s := mustNewContentStore(t)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := mustInsertTestUser(t, ctx, pool, schema, "creator")

	v, err := s.CreateVideo(ctx, CreateVideoInput{
		OwnerID:     owner,
		Title:       "first upload",
		Description: "hello",
		VideoURL:    "https://cdn.example.com/v1.mp4",
		DurationSec: 42.5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.ID == "" || v.Published {
		t.Fatalf("unexpected video: %+v", v)
	}

	got, err := s.GetVideo(ctx, v.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "first upload" || got.OwnerID != owner {
		t.Fatalf("got %+v", got)
	}

	title := "renamed"
	published := true
	updated, err := s.UpdateVideo(ctx, v.ID, UpdateVideoInput{Title: &title, Published: &published})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "renamed" || !updated.Published {
		t.Fatalf("update result %+v", updated)
	}
	// Untouched fields survive a partial update.
	if updated.Description != "hello" || updated.VideoURL != v.VideoURL {
		t.Fatalf("partial update clobbered fields: %+v", updated)
	}

	if err := s.IncrementViews(ctx, v.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	got, err = s.GetVideo(ctx, v.ID)
	if err != nil || got.Views != 1 {
		t.Fatalf("views=%d err=%v", got.Views, err)
	}

	if err := s.DeleteVideo(ctx, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetVideo(ctx, v.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
	if err := s.DeleteVideo(ctx, v.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}

func TestListVideos_FilterAndPagination(t *testing.T) {
	t.Parallel()

	pool, schema, s := mustNewContentStore(t)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	alice := mustInsertTestUser(t, ctx, pool, schema, "alice")
	bob := mustInsertTestUser(t, ctx, pool, schema, "bob")

	for i := 0; i < 5; i++ {
		if _, err := s.CreateVideo(ctx, CreateVideoInput{
			OwnerID:   alice,
			Title:     fmt.Sprintf("alice %d", i),
			VideoURL:  "https://cdn.example.com/a.mp4",
			Published: i%2 == 0,
		}); err != nil {
			t.Fatalf("seed alice %d: %v", i, err)
		}
	}
	if _, err := s.CreateVideo(ctx, CreateVideoInput{
		OwnerID:   bob,
		Title:     "bob 0",
		VideoURL:  "https://cdn.example.com/b.mp4",
		Published: true,
	}); err != nil {
		t.Fatalf("seed bob: %v", err)
	}

	all, err := s.ListVideos(ctx, VideoFilter{}, Page{})
	if err != nil || len(all) != 6 {
		t.Fatalf("all: n=%d err=%v", len(all), err)
	}

	mine, err := s.ListVideos(ctx, VideoFilter{OwnerID: alice}, Page{})
	if err != nil || len(mine) != 5 {
		t.Fatalf("by owner: n=%d err=%v", len(mine), err)
	}

	pub, err := s.ListVideos(ctx, VideoFilter{OwnerID: alice, PublishedOnly: true}, Page{})
	if err != nil || len(pub) != 3 {
		t.Fatalf("published: n=%d err=%v", len(pub), err)
	}
	for _, v := range pub {
		if !v.Published {
			t.Fatalf("unpublished video in published listing: %+v", v)
		}
	}

	p1, err := s.ListVideos(ctx, VideoFilter{OwnerID: alice}, Page{Limit: 2})
	if err != nil || len(p1) != 2 {
		t.Fatalf("page 1: n=%d err=%v", len(p1), err)
	}
	p2, err := s.ListVideos(ctx, VideoFilter{OwnerID: alice}, Page{Limit: 2, Offset: 2})
	if err != nil || len(p2) != 2 {
		t.Fatalf("page 2: n=%d err=%v", len(p2), err)
	}
	if p1[0].ID == p2[0].ID {
		t.Fatal("pages overlap")
	}
}

func TestComments(t *testing.T) {
	t.Parallel()

	pool, schema, s := mustNewContentStore(t)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := mustInsertTestUser(t, ctx, pool, schema, "owner")
	video, err := s.CreateVideo(ctx, CreateVideoInput{
		OwnerID:  owner,
		Title:    "commented",
		VideoURL: "https://cdn.example.com/c.mp4",
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}

	c, err := s.AddComment(ctx, video.ID, owner, "nice one", time.Now().UTC())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// A comment on a deleted or unknown video resolves to the video, not a
	// constraint error.
	if _, err := s.AddComment(ctx, mustNewContentULID(t), owner, "into the void", time.Now().UTC()); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	edited, err := s.UpdateComment(ctx, c.ID, "even nicer", time.Now().UTC())
	if err != nil || edited.Body != "even nicer" {
		t.Fatalf("update: %+v err=%v", edited, err)
	}

	list, err := s.ListComments(ctx, video.ID, Page{})
	if err != nil || len(list) != 1 {
		t.Fatalf("list: n=%d err=%v", len(list), err)
	}

	if err := s.DeleteComment(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetComment(ctx, c.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestPlaylists(t *testing.T) {
	t.Parallel()

	pool, schema, s := mustNewContentStore(t)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := mustInsertTestUser(t, ctx, pool, schema, "curator")

	pl, err := s.CreatePlaylist(ctx, owner, "favourites", "", time.Now().UTC())
	if err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	v1, err := s.CreateVideo(ctx, CreateVideoInput{OwnerID: owner, Title: "one", VideoURL: "https://cdn.example.com/1.mp4"})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	v2, err := s.CreateVideo(ctx, CreateVideoInput{OwnerID: owner, Title: "two", VideoURL: "https://cdn.example.com/2.mp4"})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}

	if err := s.AddPlaylistVideo(ctx, pl.ID, v1.ID, time.Now().UTC()); err != nil {
		t.Fatalf("add v1: %v", err)
	}
	if err := s.AddPlaylistVideo(ctx, pl.ID, v2.ID, time.Now().UTC()); err != nil {
		t.Fatalf("add v2: %v", err)
	}

	// Adding the same video twice is a conflict, not a silent no-op.
	if err := s.AddPlaylistVideo(ctx, pl.ID, v1.ID, time.Now().UTC()); !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := s.AddPlaylistVideo(ctx, pl.ID, mustNewContentULID(t), time.Now().UTC()); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	videos, err := s.ListPlaylistVideos(ctx, pl.ID, Page{})
	if err != nil || len(videos) != 2 {
		t.Fatalf("list: n=%d err=%v", len(videos), err)
	}
	if videos[0].ID != v1.ID || videos[1].ID != v2.ID {
		t.Fatalf("playlist order lost: %s, %s", videos[0].ID, videos[1].ID)
	}

	if err := s.RemovePlaylistVideo(ctx, pl.ID, v1.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemovePlaylistVideo(ctx, pl.ID, v1.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found on second remove, got %v", err)
	}

	name := "renamed"
	updated, err := s.UpdatePlaylist(ctx, pl.ID, &name, nil, time.Now().UTC())
	if err != nil || updated.Name != "renamed" {
		t.Fatalf("update: %+v err=%v", updated, err)
	}

	if err := s.DeletePlaylist(ctx, pl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetPlaylist(ctx, pl.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestTweets(t *testing.T) {
	t.Parallel()

	pool, schema, s := mustNewContentStore(t)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := mustInsertTestUser(t, ctx, pool, schema, "poster")

	tw, err := s.CreateTweet(ctx, owner, "short thoughts", time.Now().UTC())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.CreateTweet(ctx, owner, strings.Repeat("x", maxTweetBytes+1), time.Now().UTC()); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input for oversize body, got %v", err)
	}

	list, err := s.ListTweetsByOwner(ctx, owner, Page{})
	if err != nil || len(list) != 1 {
		t.Fatalf("list: n=%d err=%v", len(list), err)
	}

	edited, err := s.UpdateTweet(ctx, tw.ID, "revised", time.Now().UTC())
	if err != nil || edited.Body != "revised" {
		t.Fatalf("update: %+v err=%v", edited, err)
	}

	if err := s.DeleteTweet(ctx, tw.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTweet(ctx, tw.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestChannelVideoStats(t *testing.T) {
	t.Parallel()

	pool, schema, s := mustNewContentStore(t)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := mustInsertTestUser(t, ctx, pool, schema, "stats")

	for i := 0; i < 3; i++ {
		v, err := s.CreateVideo(ctx, CreateVideoInput{
			OwnerID:  owner,
			Title:    fmt.Sprintf("clip %d", i),
			VideoURL: "https://cdn.example.com/s.mp4",
		})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		for j := 0; j <= i; j++ {
			if err := s.IncrementViews(ctx, v.ID); err != nil {
				t.Fatalf("views: %v", err)
			}
		}
	}

	stats, err := s.ChannelVideoStats(ctx, owner)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalVideos != 3 || stats.TotalViews != 6 {
		t.Fatalf("stats=%+v", stats)
	}
}

func TestDelete_RemovesLikeRows(t *testing.T) {
	t.Parallel()

	pool, schema, s := mustNewContentStore(t)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := mustInsertTestUser(t, ctx, pool, schema, "liker")

	video, err := s.CreateVideo(ctx, CreateVideoInput{
		OwnerID:  owner,
		Title:    "liked",
		VideoURL: "https://cdn.example.com/l.mp4",
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	comment, err := s.AddComment(ctx, video.ID, owner, "well liked", time.Now().UTC())
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	tweet, err := s.CreateTweet(ctx, owner, "also liked", time.Now().UTC())
	if err != nil {
		t.Fatalf("create tweet: %v", err)
	}

	likes := pgx.Identifier{schema, "likes"}.Sanitize()
	for _, row := range []struct{ kind, id string }{
		{"video", video.ID},
		{"comment", comment.ID},
		{"tweet", tweet.ID},
	} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO `+likes+` (user_id, subject_kind, subject_id) VALUES ($1, $2, $3)`,
			owner, row.kind, row.id,
		); err != nil {
			t.Fatalf("insert %s like: %v", row.kind, err)
		}
	}

	countLikes := func(kind, id string) int {
		t.Helper()
		var n int
		err := pool.QueryRow(ctx,
			`SELECT count(*) FROM `+likes+` WHERE subject_kind = $1 AND subject_id = $2`,
			kind, id,
		).Scan(&n)
		if err != nil {
			t.Fatalf("count %s likes: %v", kind, err)
		}
		return n
	}

	if err := s.DeleteTweet(ctx, tweet.ID); err != nil {
		t.Fatalf("delete tweet: %v", err)
	}
	if n := countLikes("tweet", tweet.ID); n != 0 {
		t.Fatalf("tweet like rows left behind: %d", n)
	}

	// Deleting the video sweeps its own likes and those of its comments,
	// which the cascade alone would orphan.
	if err := s.DeleteVideo(ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if n := countLikes("video", video.ID); n != 0 {
		t.Fatalf("video like rows left behind: %d", n)
	}
	if n := countLikes("comment", comment.ID); n != 0 {
		t.Fatalf("comment like rows left behind: %d", n)
	}
}

// ---- helpers ----

func mustNewContentStore(t *testing.T) (*pgxpool.Pool, string, *PostgresStore) {
	t.Helper()

	pool := mustOpenContentPool(t)
	schema := mustCreateContentSchema(t, pool)
	t.Cleanup(func() { mustDropContentSchema(t, pool, schema) })
	mustApplyContentSchema(t, pool, schema)

	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return pool, schema, s
}

func mustInsertTestUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, schema, name string) string {
	t.Helper()

	id := mustNewContentULID(t)
	uname := name + "-" + strings.ToLower(id)
	_, err := pool.Exec(ctx,
		`INSERT INTO `+pgx.Identifier{schema, "users"}.Sanitize()+`
		   (id, username, username_norm, email, email_norm, full_name, password_hash)
		 VALUES ($1, $2, $2, $3, $3, $4, 'x')`,
		id, uname, uname+"@example.com", name,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func mustOpenContentPool(t *testing.T) *pgxpool.Pool {
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
		if shouldSkipContentIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (REEL_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func mustCreateContentSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "reel_it_" + strings.ToLower(mustNewContentULID(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE SCHEMA `+pgx.Identifier{schema}.Sanitize()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return schema
}

func mustDropContentSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
}

func mustApplyContentSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	q := func(name string) string { return pgx.Identifier{schema, name}.Sanitize() }

	schemaSQL := fmt.Sprintf(`
CREATE TABLE %s (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  username_norm TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  refresh_token_hash TEXT NULL,
  avatar_url TEXT NULL,
  cover_url TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE %s (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  video_url TEXT NOT NULL,
  thumbnail_url TEXT NOT NULL DEFAULT '',
  duration_sec DOUBLE PRECISION NOT NULL DEFAULT 0,
  views BIGINT NOT NULL DEFAULT 0,
  published BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE %s (
  id TEXT PRIMARY KEY,
  video_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  owner_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  body TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE %s (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  body TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE %s (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE %s (
  playlist_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  video_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (playlist_id, video_id)
);

CREATE TABLE %s (
  user_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
  subject_kind TEXT NOT NULL CHECK (subject_kind IN ('video', 'comment', 'tweet')),
  subject_id TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (user_id, subject_kind, subject_id)
);
`,
		q("users"),
		q("videos"), q("users"),
		q("comments"), q("videos"), q("users"),
		q("tweets"), q("users"),
		q("playlists"), q("users"),
		q("playlist_videos"), q("playlists"), q("videos"),
		q("likes"), q("users"),
	)

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}

func shouldSkipContentIntegration(err error) bool {
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
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}

func mustNewContentULID(t *testing.T) string {
	t.Helper()

	id, err := identity.NewULID(time.Now().UTC())
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	return id
}
