// Package scheduler drives the recurring poll cycle on a fixed
// interval with a separate cooldown after failed runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/ports"
)

// IntervalScheduler runs a job immediately on Start and then again
// each time the previous run's delay elapses. A failed run waits out
// the cooldown instead of the regular interval.
type IntervalScheduler struct {
	interval time.Duration
	cooldown time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

func NewIntervalScheduler(interval, cooldown time.Duration, logger *slog.Logger) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, cooldown: cooldown, logger: logger}
}

// Start launches the loop. Calling Start on a running scheduler is a
// no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(context.Context) error) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		timer := time.NewTimer(0)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-timer.C:
			}

			delay := s.interval
			if err := s.runJob(ctx, job); err != nil {
				if ctx.Err() != nil {
					return
				}
				delay = s.cooldown
				s.logger.Error("run failed, cooling down", "cooldown", delay, "error", err)
			}
			timer.Reset(delay)
		}
	}()

	return nil
}

// runJob shields the loop from a panicking run; a panic is reported as
// a failed run and the loop keeps going.
func (s *IntervalScheduler) runJob(ctx context.Context, job func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return job(ctx)
}

// Stop halts the loop and waits for an in-flight run to return.
func (s *IntervalScheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
