package provider

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/shadowatlas/atlas/shared/metrics"
)

// Pool bounds the number of concurrent in-flight fetches against a
// single origin (spec.md §5's scheduling model: "parallel workers
// coordinate through a small number of queues"), grounded on the
// teacher's goroutine/channel fan-out convention but using a weighted
// semaphore since every fetch here is interchangeable work, not a
// distinct pipeline stage.
type Pool struct {
	sem   *semaphore.Weighted
	queue string
}

// NewPool builds a Pool admitting at most concurrency simultaneous
// fetches, per shared/params.BuildConfig.PerOriginConcurrency (default
// 5).
func NewPool(queueName string, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(concurrency)), queue: queueName}
}

// Do runs fn once a slot is free, releasing it on return. The queue
// depth gauge counts the call for its whole duration, waiting and
// running.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	metrics.BuildQueueDepth.WithLabelValues(p.queue).Inc()
	defer metrics.BuildQueueDepth.WithLabelValues(p.queue).Dec()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}
