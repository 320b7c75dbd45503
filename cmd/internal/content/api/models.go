package contentapi

import (
	"time"

	"reel/cmd/identity"
	"reel/cmd/internal/content"
)

type createVideoRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	VideoURL     string  `json:"video_url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	DurationSec  float64 `json:"duration_sec"`
	Published    bool    `json:"published"`
}

type updateVideoRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Published    *bool   `json:"published"`
}

type videoResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DurationSec  float64   `json:"duration_sec"`
	Views        int64     `json:"views"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toVideoResponse(v content.Video) videoResponse {
	return videoResponse{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Title:        v.Title,
		Description:  v.Description,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		DurationSec:  v.DurationSec,
		Views:        v.Views,
		Published:    v.Published,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func toVideoResponses(vs []content.Video) []videoResponse {
	out := make([]videoResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVideoResponse(v))
	}
	return out
}

type commentRequest struct {
	Body string `json:"body"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	OwnerID   string    `json:"owner_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCommentResponse(c content.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		VideoID:   c.VideoID,
		OwnerID:   c.OwnerID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type tweetRequest struct {
	Body string `json:"body"`
}

type tweetResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTweetResponse(t content.Tweet) tweetResponse {
	return tweetResponse{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Body:      t.Body,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type playlistResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPlaylistResponse(p content.Playlist) playlistResponse {
	return playlistResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// toggleResponse reports the post-toggle state of a relation.
type toggleResponse struct {
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

type channelResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
}

func toChannelResponse(u identity.User) channelResponse {
	out := channelResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
	}
	if u.AvatarURL != nil {
		out.AvatarURL = *u.AvatarURL
	}
	if u.CoverURL != nil {
		out.CoverURL = *u.CoverURL
	}
	return out
}

func toChannelResponses(us []identity.User) []channelResponse {
	out := make([]channelResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toChannelResponse(u))
	}
	return out
}

type dashboardStatsResponse struct {
	VideoCount  int64 `json:"video_count"`
	TotalViews  int64 `json:"total_views"`
	TotalLikes  int64 `json:"total_likes"`
	Subscribers int64 `json:"subscribers"`
}
