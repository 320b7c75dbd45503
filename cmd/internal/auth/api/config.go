package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"reel/cmd/internal/auth/guard"
)

// Config controls auth API behavior and cookie transport.
type Config struct {
	MaxBodyBytes   int64
	MaxUploadBytes int64

	AccessCookieName  string
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:      envInt64("REEL_AUTH_MAX_BODY_BYTES", 1<<20),    // 1 MiB
		MaxUploadBytes:    envInt64("REEL_AUTH_MAX_UPLOAD_BYTES", 16<<20), // avatar/cover images
		// The access cookie name is fixed so the guard middleware can find it.
		AccessCookieName:  guard.AccessCookieName,
		RefreshCookieName: envString("REEL_AUTH_REFRESH_COOKIE", "reel_refresh"),
		CookiePath:        envString("REEL_AUTH_COOKIE_PATH", "/"),
		CookieDomain:      envString("REEL_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:      envBool("REEL_AUTH_COOKIE_SECURE", true),
		CookieSameSite:    envSameSite("REEL_AUTH_COOKIE_SAMESITE", http.SameSiteLaxMode),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
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

func envSameSite(key string, def http.SameSite) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return def
	}
}
