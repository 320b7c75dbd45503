// Package media stores uploaded video files and images in an S3-compatible
// object store and hands back public URLs for the content tables.
package media

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("media: object not found")

// Object describes a stored media object.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
	ETag        string
	UploadedAt  time.Time
}

// UploadInput carries one object to store.
type UploadInput struct {
	// Key is the object name within the bucket, e.g. "videos/<ulid>.mp4".
	Key         string
	ContentType string
	// Size is the exact byte length, or -1 when unknown.
	Size   int64
	Reader io.Reader
}

// Store is the object storage used for video files, thumbnails and avatars.
type Store interface {
	Upload(ctx context.Context, in UploadInput) (Object, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// SignedURL returns a time-limited download URL for private objects.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
