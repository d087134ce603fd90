// Command catalog manages the microcontent catalog: import files into
// PostgreSQL, backfill missing embeddings, export and report coverage.
//
// Usage:
//
//	catalog import ./content --embed
//	catalog backfill
//	catalog stats --json
//	catalog export catalog.xlsx
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/p-n-ai/pai-suggest/internal/app"
	"github.com/p-n-ai/pai-suggest/internal/platform/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	slog.SetDefault(app.NewLogger(os.Stderr, cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd(postgresRuntime(cfg)).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
