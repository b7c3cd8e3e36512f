// Package notify holds outbound messages produced during a processing
// run and dispatches them afterwards in order, paced to respect chat
// rate limits.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
)

// Queue accumulates notification tasks during a run. Dispatch is
// deferred until Drain so that persistence finishes before any message
// leaves the process.
type Queue struct {
	notifier ports.Notifier
	logger   *slog.Logger
	limiter  *rate.Limiter

	mu    sync.Mutex
	tasks []domain.NotificationTask
}

// NewQueue paces dispatch at one message per interval. The first send
// goes out immediately; each subsequent send waits out the interval.
func NewQueue(notifier ports.Notifier, interval time.Duration, logger *slog.Logger) *Queue {
	return &Queue{
		notifier: notifier,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Enqueue appends a task preserving arrival order.
func (q *Queue) Enqueue(task domain.NotificationTask) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

// Len reports the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain dispatches every queued task in enqueue order, waiting on the
// limiter between sends. A failed send is logged and skipped; the
// drain keeps going so one bad message cannot silence the rest. The
// queue is empty afterwards unless the context is cancelled mid-drain.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	if len(tasks) == 0 {
		return nil
	}
	q.logger.Info("draining notification queue", "count", len(tasks))

	for i, task := range tasks {
		if err := q.limiter.Wait(ctx); err != nil {
			// Re-queue the rest so a later drain can pick them up.
			q.mu.Lock()
			q.tasks = append(tasks[i:], q.tasks...)
			q.mu.Unlock()
			return err
		}
		if err := q.notifier.Notify(ctx, task.Result); err != nil {
			q.logger.Error("notification dispatch failed",
				"company", task.Result.CompanyName,
				"kind", string(task.Result.Kind),
				"error", err)
		}
	}
	return nil
}
