package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/logutil"
	"github.com/shadowatlas/atlas/shared/metrics"
	"github.com/shadowatlas/atlas/shared/params"
)

var log = logutil.ForComponent("provider")

// WithRetry wraps a fetch operation with exponential backoff and jitter
// (spec.md §5: "retried at most retry_attempts times with exponential
// backoff and jitter"), using cfg's parameters. A cancelled context
// aborts retries immediately and surfaces KindCancelled rather than
// KindUpstreamUnavailable.
func WithRetry(ctx context.Context, origin string, cfg *params.RetryConfig, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.Multiplier = cfg.Multiplier
	b.MaxInterval = cfg.MaxBackoff
	b.RandomizationFactor = cfg.JitterFraction
	bounded := backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1))
	withCtx := backoff.WithContext(bounded, ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if ctx.Err() != nil {
			return backoff.Permanent(atlaserr.New(atlaserr.KindCancelled, "provider.WithRetry", "build cancelled during provider fetch"))
		}
		err := op(ctx)
		if err != nil {
			metrics.ProviderFetchRetries.WithLabelValues(origin).Inc()
			log.WithField("origin", origin).WithField("attempt", attempt).WithError(err).Warn("provider fetch attempt failed")
		}
		return err
	}, withCtx)

	if err != nil {
		metrics.ProviderFetchFailures.WithLabelValues(origin).Inc()
		if atlaserr.Is(err, atlaserr.KindCancelled) {
			return err
		}
		return atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, "provider.WithRetry", "exhausted retry attempts for "+origin, err)
	}
	return nil
}

// DefaultRetryDeadline bounds how long WithRetry's caller should wait
// overall, a belt-and-suspenders timeout alongside the attempt-count
// cap (spec.md §5: suspension points "may block on I/O indefinitely
// subject to timeout").
func DefaultRetryDeadline(cfg *params.RetryConfig) time.Duration {
	total := cfg.InitialBackoff
	interval := cfg.InitialBackoff
	for i := 1; i < cfg.MaxAttempts; i++ {
		interval = time.Duration(float64(interval) * cfg.Multiplier)
		if interval > cfg.MaxBackoff {
			interval = cfg.MaxBackoff
		}
		total += interval
	}
	return total
}
