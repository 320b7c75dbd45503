package media

import (
	"fmt"
	"os"
	"strings"
)

// Config is the object-store connection surface.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	// PublicBaseURL overrides the URL prefix for stored objects, e.g. a CDN
	// in front of the bucket. Empty means endpoint+bucket.
	PublicBaseURL string
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - REEL_S3_ENDPOINT (required)
// - REEL_S3_ACCESS_KEY (required)
// - REEL_S3_SECRET_KEY (required)
// - REEL_S3_BUCKET (required)
// - REEL_S3_USE_SSL (true/false, default false)
// - REEL_S3_PUBLIC_BASE_URL (optional)
func FromEnv() (Config, error) {
	cfg := Config{
		Endpoint:        strings.TrimSpace(os.Getenv("REEL_S3_ENDPOINT")),
		AccessKeyID:     strings.TrimSpace(os.Getenv("REEL_S3_ACCESS_KEY")),
		SecretAccessKey: os.Getenv("REEL_S3_SECRET_KEY"),
		Bucket:          strings.TrimSpace(os.Getenv("REEL_S3_BUCKET")),
		PublicBaseURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("REEL_S3_PUBLIC_BASE_URL")), "/"),
	}

	if v, ok := os.LookupEnv("REEL_S3_USE_SSL"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "yes", "on":
			cfg.UseSSL = true
		case "0", "f", "false", "no", "off":
			cfg.UseSSL = false
		default:
			return Config{}, fmt.Errorf("REEL_S3_USE_SSL: invalid boolean %q", v)
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("media: REEL_S3_ENDPOINT is required")
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("media: REEL_S3_ACCESS_KEY and REEL_S3_SECRET_KEY are required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("media: REEL_S3_BUCKET is required")
	}
	return nil
}
