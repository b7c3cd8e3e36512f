// Command backfill runs a single processing cycle over an explicit
// date window and exits. Set START_DATE and END_DATE (yyyy-mm-dd) or
// the matching config fields.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/homeo-ai-official/bse-auto/internal/app"
	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if !cfg.Feed.Backfill() {
		logger.Error("backfill requires both start and end dates")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	logger.Info("backfill starting", "from", cfg.Feed.StartDate, "to", cfg.Feed.EndDate)
	if err := application.RunOnce(ctx); err != nil {
		logger.Error("backfill failed", "error", err)
		os.Exit(1)
	}
	logger.Info("backfill complete")
}
