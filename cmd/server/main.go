package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-suggest/internal/app"
	"github.com/p-n-ai/pai-suggest/internal/audit"
	"github.com/p-n-ai/pai-suggest/internal/platform/cache"
	"github.com/p-n-ai/pai-suggest/internal/platform/config"
	"github.com/p-n-ai/pai-suggest/internal/platform/database"
	"github.com/p-n-ai/pai-suggest/internal/recommend"
	"github.com/p-n-ai/pai-suggest/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(app.NewLogger(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	checks := make(map[string]server.HealthChecker)

	var db *database.DB
	if cfg.NeedsDatabase() {
		var err error
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		checks["database"] = db
	}

	items, err := app.OpenCatalog(cfg.Catalog, db)
	if err != nil {
		return err
	}
	if hc, ok := items.(server.HealthChecker); ok {
		checks["catalog"] = hc
	}

	embedder := app.NewEmbedder(cfg.Embedding)
	checks["embedding"] = embedder

	svcCfg := recommend.ServiceConfig{
		Engine: recommend.NewEngine(recommend.EngineConfig{
			Embedder:     embedder,
			EmbedTimeout: cfg.Embedding.RequestBudget(),
		}),
		Catalog: items,
	}

	if cfg.Cache.Enabled {
		c, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			return fmt.Errorf("connect cache: %w", err)
		}
		defer func() { _ = c.Close() }()

		svcCfg.Cache = c.Suggestions()
		checks["cache"] = c
		slog.Info("suggestion cache enabled", "ttl", cfg.Cache.TTL)
	}

	if cfg.Audit.Enabled {
		svcCfg.Events = audit.NewPostgresEventLogger(db.Pool)
		slog.Info("scoring event log enabled")
	}

	srv := server.New(server.Config{
		Suggester: recommend.NewService(svcCfg),
		Stats:     items,
		Checks:    checks,
		WSOrigins: cfg.Server.WSOrigins,
	})

	return serve(ctx, newHTTPServer(cfg.Server, srv.Handler()))
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve runs srv until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
