package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, embedded SQL migrations run at startup.
	MigrateOnStart bool

	// If true, /readyz returns 503 unless the DB is reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, REEL_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and refresh-token
	// hashing must be HMAC-based.
	RequireTokenHMAC bool

	// If true, the S3 media store is wired in; upload endpoints reject
	// requests otherwise.
	MediaEnabled bool

	// CORS policy for browser clients. A trailing ":*" in an origin matches
	// any port on that host.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("REEL_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("REEL_LOG_LEVEL", "info"),
		LogFormat: EnvString("REEL_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("REEL_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("REEL_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("REEL_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("REEL_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("REEL_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("REEL_DATABASE_URL", ""),
		DBSchema:    EnvString("REEL_DB_SCHEMA", "reel"),
		DBMaxConns:  EnvInt32("REEL_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("REEL_DB_MIN_CONNS", 0),

		MigrateOnStart: EnvBool("REEL_DB_MIGRATE", true),

		ReadinessRequireDB: EnvBool("REEL_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("REEL_REQUIRE_TOKEN_HMAC", false),

		MediaEnabled: EnvString("REEL_S3_ENDPOINT", "") != "",

		CORSAllowedOrigins:   EnvStringList("REEL_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("REEL_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("REEL_CORS_MAX_AGE_SECONDS", 600),
	}
}
