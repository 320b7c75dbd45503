package contentapi

import (
	"os"
	"strconv"
	"strings"
)

// Config controls content API request limits.
type Config struct {
	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes int64
	// MaxUploadBytes bounds multipart media uploads.
	MaxUploadBytes int64
}

// LoadConfigFromEnv loads content API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:   envInt64("REEL_CONTENT_MAX_BODY_BYTES", 1<<20),     // 1 MiB
		MaxUploadBytes: envInt64("REEL_CONTENT_MAX_UPLOAD_BYTES", 256<<20), // 256 MiB
	}
	return cfg
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
