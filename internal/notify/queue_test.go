package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/logging"
)

type recordingNotifier struct {
	companies []string
	failFor   map[string]error
}

func (r *recordingNotifier) Notify(_ context.Context, result domain.SummaryResult) error {
	r.companies = append(r.companies, result.CompanyName)
	if err := r.failFor[result.CompanyName]; err != nil {
		return err
	}
	return nil
}

func task(company string) domain.NotificationTask {
	return domain.NotificationTask{Result: domain.NewSummary(company, "Neutral", []string{"p"}, "", nil)}
}

func TestDrainPreservesEnqueueOrder(t *testing.T) {
	rec := &recordingNotifier{}
	q := NewQueue(rec, time.Millisecond, logging.Discard())

	q.Enqueue(task("first"))
	q.Enqueue(task("second"))
	q.Enqueue(task("third"))
	require.Equal(t, 3, q.Len())

	require.NoError(t, q.Drain(context.Background()))
	require.Equal(t, []string{"first", "second", "third"}, rec.companies)
	require.Zero(t, q.Len())
}

func TestDrainPacesBetweenSends(t *testing.T) {
	rec := &recordingNotifier{}
	interval := 50 * time.Millisecond
	q := NewQueue(rec, interval, logging.Discard())

	q.Enqueue(task("a"))
	q.Enqueue(task("b"))
	q.Enqueue(task("c"))

	start := time.Now()
	require.NoError(t, q.Drain(context.Background()))

	// Three sends need two inter-send waits.
	require.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestDrainContinuesPastFailedSend(t *testing.T) {
	rec := &recordingNotifier{failFor: map[string]error{"bad": errors.New("chat unavailable")}}
	q := NewQueue(rec, time.Millisecond, logging.Discard())

	q.Enqueue(task("good"))
	q.Enqueue(task("bad"))
	q.Enqueue(task("also good"))

	require.NoError(t, q.Drain(context.Background()))
	require.Equal(t, []string{"good", "bad", "also good"}, rec.companies)
}

func TestDrainEmptyQueueIsNoOp(t *testing.T) {
	q := NewQueue(&recordingNotifier{}, time.Millisecond, logging.Discard())
	require.NoError(t, q.Drain(context.Background()))
}

func TestDrainRequeuesOnCancellation(t *testing.T) {
	rec := &recordingNotifier{}
	q := NewQueue(rec, time.Hour, logging.Discard())

	q.Enqueue(task("a"))
	q.Enqueue(task("b"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Drain(ctx)
	require.Error(t, err)
	// The first send fires immediately; the second stays queued.
	require.Equal(t, []string{"a"}, rec.companies)
	require.Equal(t, 1, q.Len())
}
