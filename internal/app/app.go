// Package app assembles configuration, adapters and use cases into a
// runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/infrastructure/bse"
	"github.com/homeo-ai-official/bse-auto/internal/infrastructure/gemini"
	"github.com/homeo-ai-official/bse-auto/internal/infrastructure/pdftext"
	"github.com/homeo-ai-official/bse-auto/internal/infrastructure/scheduler"
	"github.com/homeo-ai-official/bse-auto/internal/infrastructure/storage"
	"github.com/homeo-ai-official/bse-auto/internal/infrastructure/telegram"
	"github.com/homeo-ai-official/bse-auto/internal/logging"
	"github.com/homeo-ai-official/bse-auto/internal/notify"
	"github.com/homeo-ai-official/bse-auto/internal/summarize"
	"github.com/homeo-ai-official/bse-auto/internal/usecase"
)

// Messages to the same chat are spaced out to stay under bot API
// per-chat limits.
const notifyInterval = 2 * time.Second

// Application wires configs to use cases and owns adapter lifecycles.
type Application struct {
	cfg       config.Config
	store     *storage.SQLiteStore
	poller    *usecase.Poller
	scheduler *scheduler.IntervalScheduler
	logger    *slog.Logger
}

// New builds a fully wired application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	fetcher := bse.NewFetcher(cfg.Feed, httpClient, baseLogger.With("component", "fetcher"))
	resolver := bse.NewResolver(cfg.Feed.XBRLURL, httpClient, baseLogger.With("component", "resolver"))
	downloader := bse.NewDownloader(cfg.Downloads.Dir, cfg.Downloads.URLLogPath, cfg.Downloads.DryRun,
		httpClient, baseLogger.With("component", "downloader"))

	summarizer := gemini.NewClient(cfg.Gemini, nil, baseLogger.With("component", "gemini"))
	dispatcher := summarize.NewDispatcher(summarizer, cfg.Downloads.MediaCache, nil,
		baseLogger.With("component", "dispatcher"))

	notifier := telegram.NewNotifier(cfg.Telegram, nil, baseLogger.With("component", "telegram"))
	queue := notify.NewQueue(notifier, notifyInterval, baseLogger.With("component", "queue"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      fetcher,
		Resolver:    resolver,
		Downloader:  downloader,
		Extractor:   pdftext.NewExtractor(),
		Dispatcher:  dispatcher,
		Store:       store,
		Logger:      baseLogger.With("component", "pipeline"),
		MaxNewItems: cfg.Feed.MaxNewItems,
	})

	poller := usecase.NewPoller(pipeline, queue, cfg.Feed, baseLogger.With("component", "poller"))

	return &Application{
		cfg:       cfg,
		store:     store,
		poller:    poller,
		scheduler: scheduler.NewIntervalScheduler(cfg.Poller.Interval, cfg.Poller.Cooldown, baseLogger.With("component", "scheduler")),
		logger:    baseLogger,
	}, nil
}

// RunOnce performs a single fetch-process-notify cycle, for one-shot
// invocations like a backfill.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.poller.RunOnce(ctx)
}

// Run starts the polling loop and blocks until the context is
// cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx, a.poller.RunOnce); err != nil {
		return err
	}
	<-ctx.Done()
	a.scheduler.Stop()
	return nil
}

// Close releases held resources.
func (a *Application) Close() error {
	return a.store.Close()
}
