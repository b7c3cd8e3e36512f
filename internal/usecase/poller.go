package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/notify"
)

const windowDateLayout = "2006-01-02"

// Poller runs the pipeline over a computed date window and drains the
// produced notifications afterwards. It is the job body handed to the
// scheduler.
type Poller struct {
	pipeline *Pipeline
	queue    *notify.Queue
	feed     config.FeedConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewPoller(pipeline *Pipeline, queue *notify.Queue, feed config.FeedConfig, logger *slog.Logger) *Poller {
	return &Poller{
		pipeline: pipeline,
		queue:    queue,
		feed:     feed,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce executes one full cycle. Each run carries its own id so
// interleaved log lines from consecutive runs stay attributable.
func (p *Poller) RunOnce(ctx context.Context) error {
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)

	window, err := p.window()
	if err != nil {
		return fmt.Errorf("compute window: %w", err)
	}
	log.Info("starting run",
		"from", window.From.Format(windowDateLayout),
		"to", window.To.Format(windowDateLayout))

	tasks, err := p.pipeline.Run(ctx, window)
	for _, task := range tasks {
		p.queue.Enqueue(task)
	}
	if err != nil {
		// Whatever completed before the failure still gets announced.
		if drainErr := p.queue.Drain(ctx); drainErr != nil {
			log.Error("drain after failed run", "error", drainErr)
		}
		return err
	}

	if err := p.queue.Drain(ctx); err != nil {
		return fmt.Errorf("drain notifications: %w", err)
	}
	log.Info("run complete", "tasks", len(tasks))
	return nil
}

// window resolves the date range for this run: the explicit backfill
// range when configured, otherwise a rolling lookback ending now.
func (p *Poller) window() (domain.Window, error) {
	if p.feed.Backfill() {
		from, err := time.Parse(windowDateLayout, p.feed.StartDate)
		if err != nil {
			return domain.Window{}, fmt.Errorf("parse start date %q: %w", p.feed.StartDate, err)
		}
		to, err := time.Parse(windowDateLayout, p.feed.EndDate)
		if err != nil {
			return domain.Window{}, fmt.Errorf("parse end date %q: %w", p.feed.EndDate, err)
		}
		if to.Before(from) {
			return domain.Window{}, fmt.Errorf("end date %s precedes start date %s", p.feed.EndDate, p.feed.StartDate)
		}
		return domain.Window{From: from, To: to}, nil
	}

	now := p.now()
	return domain.Window{
		From: now.Add(-time.Duration(p.feed.LookbackHours) * time.Hour),
		To:   now,
	}, nil
}
