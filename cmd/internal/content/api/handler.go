// Package contentapi wires HTTP endpoints for videos, comments, tweets,
// playlists, likes and subscriptions. Ownership checks go through guard.
package contentapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"reel/cmd/identity"
	"reel/cmd/internal/auth/guard"
	"reel/cmd/internal/content"
	"reel/cmd/internal/media"
	"reel/cmd/internal/relation"
)

// ContentStore is the persistence surface the handlers need for videos,
// comments, tweets and playlists. *content.PostgresStore satisfies it.
type ContentStore interface {
	CreateVideo(ctx context.Context, in content.CreateVideoInput) (content.Video, error)
	GetVideo(ctx context.Context, videoID string) (content.Video, error)
	ListVideos(ctx context.Context, f content.VideoFilter, page content.Page) ([]content.Video, error)
	UpdateVideo(ctx context.Context, videoID string, in content.UpdateVideoInput) (content.Video, error)
	DeleteVideo(ctx context.Context, videoID string) error
	IncrementViews(ctx context.Context, videoID string) error
	ChannelVideoStats(ctx context.Context, ownerID string) (content.VideoStats, error)

	AddComment(ctx context.Context, videoID, ownerID, body string, now time.Time) (content.Comment, error)
	GetComment(ctx context.Context, commentID string) (content.Comment, error)
	ListComments(ctx context.Context, videoID string, page content.Page) ([]content.Comment, error)
	UpdateComment(ctx context.Context, commentID, body string, now time.Time) (content.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error

	CreateTweet(ctx context.Context, ownerID, body string, now time.Time) (content.Tweet, error)
	GetTweet(ctx context.Context, tweetID string) (content.Tweet, error)
	ListTweetsByOwner(ctx context.Context, ownerID string, page content.Page) ([]content.Tweet, error)
	UpdateTweet(ctx context.Context, tweetID, body string, now time.Time) (content.Tweet, error)
	DeleteTweet(ctx context.Context, tweetID string) error

	CreatePlaylist(ctx context.Context, ownerID, name, description string, now time.Time) (content.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (content.Playlist, error)
	ListPlaylistsByOwner(ctx context.Context, ownerID string, page content.Page) ([]content.Playlist, error)
	UpdatePlaylist(ctx context.Context, playlistID string, name, description *string, now time.Time) (content.Playlist, error)
	DeletePlaylist(ctx context.Context, playlistID string) error
	AddPlaylistVideo(ctx context.Context, playlistID, videoID string, now time.Time) error
	RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) error
	ListPlaylistVideos(ctx context.Context, playlistID string, page content.Page) ([]content.Video, error)
}

// RelationStore is the persistence surface for likes and subscriptions.
// *relation.PostgresStore satisfies it.
type RelationStore interface {
	ToggleLike(ctx context.Context, userID string, kind relation.SubjectKind, subjectID string, now time.Time) (relation.Outcome, error)
	CountLikes(ctx context.Context, kind relation.SubjectKind, subjectID string) (int64, error)
	ListLikedVideos(ctx context.Context, userID string, page content.Page) ([]content.Video, error)
	ChannelLikeTotal(ctx context.Context, ownerID string) (int64, error)

	ToggleSubscription(ctx context.Context, subscriberID, channelID string, now time.Time) (relation.Outcome, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	ListSubscribers(ctx context.Context, channelID string, page content.Page) ([]identity.User, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string, page content.Page) ([]identity.User, error)
}

// Handler serves the content endpoints.
type Handler struct {
	log *slog.Logger
	cfg Config

	store     ContentStore
	relations RelationStore
	media     media.Store
	guard     *guard.Guard
}

// NewHandler constructs a content Handler. The media store may be nil when
// no object storage is configured; upload endpoints then reject requests.
func NewHandler(log *slog.Logger, cfg Config, store ContentStore, relations RelationStore, mediaStore media.Store, g *guard.Guard) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("contentapi: nil content store")
	}
	if relations == nil {
		return nil, errors.New("contentapi: nil relation store")
	}
	if g == nil {
		return nil, errors.New("contentapi: nil guard")
	}

	return &Handler{
		log:       log,
		cfg:       cfg,
		store:     store,
		relations: relations,
		media:     mediaStore,
		guard:     g,
	}, nil
}

// Register wires content routes onto the provided mux. Reads are public;
// writes require an authenticated user.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}

	auth := func(fn http.HandlerFunc) http.Handler { return h.guard.Require(fn) }

	mux.Handle("POST /videos", auth(h.handleVideoCreate))
	mux.HandleFunc("GET /videos", h.handleVideoList)
	mux.HandleFunc("GET /videos/{id}", h.handleVideoGet)
	mux.Handle("PATCH /videos/{id}", auth(h.handleVideoUpdate))
	mux.Handle("DELETE /videos/{id}", auth(h.handleVideoDelete))
	mux.HandleFunc("POST /videos/{id}/views", h.handleVideoViews)

	mux.Handle("POST /videos/{id}/comments", auth(h.handleCommentAdd))
	mux.HandleFunc("GET /videos/{id}/comments", h.handleCommentList)
	mux.Handle("PATCH /comments/{id}", auth(h.handleCommentUpdate))
	mux.Handle("DELETE /comments/{id}", auth(h.handleCommentDelete))

	mux.Handle("POST /tweets", auth(h.handleTweetCreate))
	mux.HandleFunc("GET /users/{id}/tweets", h.handleTweetListByOwner)
	mux.Handle("PATCH /tweets/{id}", auth(h.handleTweetUpdate))
	mux.Handle("DELETE /tweets/{id}", auth(h.handleTweetDelete))

	mux.Handle("POST /playlists", auth(h.handlePlaylistCreate))
	mux.HandleFunc("GET /playlists/{id}", h.handlePlaylistGet)
	mux.HandleFunc("GET /users/{id}/playlists", h.handlePlaylistListByOwner)
	mux.Handle("PATCH /playlists/{id}", auth(h.handlePlaylistUpdate))
	mux.Handle("DELETE /playlists/{id}", auth(h.handlePlaylistDelete))
	mux.Handle("POST /playlists/{id}/videos/{videoID}", auth(h.handlePlaylistAddVideo))
	mux.Handle("DELETE /playlists/{id}/videos/{videoID}", auth(h.handlePlaylistRemoveVideo))
	mux.HandleFunc("GET /playlists/{id}/videos", h.handlePlaylistVideos)

	mux.Handle("POST /likes/videos/{id}/toggle", auth(h.subjectToggle(relation.KindVideo)))
	mux.Handle("POST /likes/comments/{id}/toggle", auth(h.subjectToggle(relation.KindComment)))
	mux.Handle("POST /likes/tweets/{id}/toggle", auth(h.subjectToggle(relation.KindTweet)))
	mux.Handle("GET /likes/videos", auth(h.handleLikedVideos))

	mux.Handle("POST /channels/{id}/subscribe", auth(h.handleSubscribeToggle))
	mux.HandleFunc("GET /channels/{id}/subscribers", h.handleSubscriberList)
	mux.Handle("GET /subscriptions", auth(h.handleSubscribedChannels))

	mux.Handle("GET /dashboard/stats", auth(h.handleDashboardStats))
}

// newUploadID names stored media objects.
func newUploadID() (string, error) {
	return identity.NewULID(time.Now().UTC())
}

// mustUser returns the authenticated user placed on the context by the
// guard middleware.
func mustUser(r *http.Request) identity.User {
	u, _ := guard.UserFrom(r.Context())
	return u
}

// writeStoreError maps store errors to the wire.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case content.IsNotFound(err) || relation.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	case content.IsInvalidInput(err) || relation.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
	case content.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", "resource already exists")
	case errors.Is(err, relation.ErrSelfSubscribe):
		writeError(w, http.StatusBadRequest, "self_subscribe", "cannot subscribe to your own channel")
	default:
		h.log.Error("store operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
