// Package metrics exposes the build engine's Prometheus surface: queue
// depths, retry counts, batch hashing throughput. Adapted from the
// teacher's shared/prometheus service, trimmed to just the metric
// registrations — the core does not run an HTTP server (infrastructure
// declarations are out of scope, spec.md §1); callers that want /metrics
// mount promhttp.Handler() themselves against this package's registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ProviderFetchRetries counts retry attempts per upstream origin.
	ProviderFetchRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_provider_fetch_retries_total",
		Help: "Number of provider fetch retry attempts, by origin.",
	}, []string{"origin"})

	// ProviderFetchFailures counts fetches that exhausted all retries.
	ProviderFetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_provider_fetch_failures_total",
		Help: "Number of provider fetches that failed after exhausting retries.",
	}, []string{"origin"})

	// HashBatchDuration observes wall-clock time to hash one full tree
	// level (all of that level's parallel batches).
	HashBatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atlas_hash_batch_duration_seconds",
		Help:    "Duration of hashing one tree level in parallel pair-hash batches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"component"})

	// BuildQueueDepth reports the number of in-flight units on a build
	// engine queue. provider.Pool is the only reporter, labelled with its
	// per-origin fetch queue name.
	BuildQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "atlas_build_queue_depth",
		Help: "Current depth of a build engine queue.",
	}, []string{"queue"})

	// SnapshotsSealed counts successfully sealed snapshots.
	SnapshotsSealed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_snapshots_sealed_total",
		Help: "Number of snapshots sealed (published) by the build engine.",
	})

	// BuildsAborted counts aborted builds, labelled by the atlaserr Kind
	// that caused the abort.
	BuildsAborted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_builds_aborted_total",
		Help: "Number of builds aborted, by error kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		ProviderFetchRetries,
		ProviderFetchFailures,
		HashBatchDuration,
		BuildQueueDepth,
		SnapshotsSealed,
		BuildsAborted,
	)
}
