// Package app wires the Reel server runtime: config, logging, stores, and
// HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"reel/cmd/identity"
	authapi "reel/cmd/internal/auth/api"
	"reel/cmd/internal/auth/session"
	"reel/cmd/internal/content"
	contentapi "reel/cmd/internal/content/api"
	"reel/cmd/internal/media"
	"reel/cmd/internal/relation"
)

// App is the Reel server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool

	auth     *authapi.Handler
	contentH *contentapi.Handler
	metrics  *Metrics
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: REEL_DATABASE_URL is required")
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := MigrateDB(ctx, cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	users, err := identity.NewPostgresStore(pool, identity.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("app: identity store: %w", err)
	}

	contentStore, err := content.NewPostgresStore(pool, content.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("app: content store: %w", err)
	}

	relationStore, err := relation.NewPostgresStore(pool, relation.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("app: relation store: %w", err)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		pool.Close()
		return nil, err
	}

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), sessCfg, users)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var mediaStore media.Store
	if cfg.MediaEnabled {
		mcfg, err := media.FromEnv()
		if err != nil {
			pool.Close()
			return nil, err
		}
		ms, err := media.NewMinioStore(ctx, mcfg)
		if err != nil {
			pool.Close()
			return nil, err
		}
		mediaStore = ms
		log.Info("media.enabled", "endpoint", mcfg.Endpoint, "bucket", mcfg.Bucket)
	} else {
		log.Info("media.disabled")
	}
	auth.UseMediaStore(mediaStore)

	contentH, err := contentapi.NewHandler(log, contentapi.LoadConfigFromEnv(), contentStore, relationStore, mediaStore, auth.Guard())
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		dbPool:   pool,
		auth:     auth,
		contentH: contentH,
		metrics:  NewMetrics(),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.auth, a.contentH, a.metrics)

	var handler http.Handler = mux
	handler = WithSecurityHeaders(handler)
	if len(a.cfg.CORSAllowedOrigins) > 0 {
		handler = WithCORS(handler, a.cfg, a.log)
	}
	handler = WithMetrics(handler, a.metrics)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.dbPool.Close()

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
