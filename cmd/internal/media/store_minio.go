package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store over any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	cfg    Config
}

var _ Store = (*MinioStore)(nil)

// NewMinioStore connects to the endpoint and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg Config) (*MinioStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("media: connect %s: %w", cfg.Endpoint, err)
	}

	bctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(bctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("media: check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(bctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("media: create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{client: client, cfg: cfg}, nil
}

// Upload stores one object and returns its public description.
func (s *MinioStore) Upload(ctx context.Context, in UploadInput) (Object, error) {
	if in.Key == "" {
		return Object{}, fmt.Errorf("media: upload: empty key")
	}
	if in.Reader == nil {
		return Object{}, fmt.Errorf("media: upload %s: nil reader", in.Key)
	}

	size := in.Size
	if size == 0 {
		size = -1
	}

	info, err := s.client.PutObject(ctx, s.cfg.Bucket, in.Key, in.Reader, size, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("media: upload %s: %w", in.Key, err)
	}

	return Object{
		Key:         in.Key,
		URL:         s.publicURL(in.Key),
		ContentType: in.ContentType,
		Size:        info.Size,
		ETag:        info.ETag,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("media: delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether the object is present in the bucket.
func (s *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("media: stat %s: %w", key, err)
	}
	return true, nil
}

// SignedURL returns a presigned GET URL valid for expiry.
func (s *MinioStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("media: sign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL + "/" + key
	}

	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: s.cfg.Endpoint}
	u.Path = path.Join(u.Path, s.cfg.Bucket, key)
	return u.String()
}
