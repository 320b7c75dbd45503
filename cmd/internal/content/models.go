package content

import "time"

// Video is a published or draft video with its media locations.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	DurationSec  float64
	Views        int64
	Published    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is a comment on a video.
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tweet is a short standalone text post.
type Tweet struct {
	ID        string
	OwnerID   string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Playlist is a named, ordered collection of videos.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Clamp bounds the page to the allowed limit range.
func (p Page) Clamp() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
