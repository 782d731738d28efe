// Package params carries the commitment engine's code-defined parameter
// tables: I/O permissions, retry policy, batch sizing, per-origin
// concurrency, drop-rate ceiling, dual validity windows. Loading these from a config file is explicitly out of
// the core's scope (spec.md §1); the tables themselves are carried the way
// the teacher's shared/params carries NetworkConfig.
package params

import (
	"os"
	"time"
)

// IoConfig standardizes filesystem permissions for the one place the core
// touches disk directly: the bbolt reference Repository implementation in
// snapshot/.
type IoConfig struct {
	ReadWritePermissions        os.FileMode
	ReadWriteExecutePermissions os.FileMode
}

var defaultIoConfig = &IoConfig{
	ReadWritePermissions:        0600,
	ReadWriteExecutePermissions: 0700,
}

// AtlasIoConfig returns the standardized filesystem permission set.
func AtlasIoConfig() *IoConfig {
	return defaultIoConfig
}

// RetryConfig is the exponential-backoff-with-jitter policy spec.md §5
// requires for cancelled/failed provider fetches.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
	JitterFraction float64
}

var defaultRetryConfig = &RetryConfig{
	MaxAttempts:    5,
	InitialBackoff: 1 * time.Second,
	Multiplier:     2,
	MaxBackoff:     30 * time.Second,
	JitterFraction: 0.10,
}

// DefaultRetryConfig returns the spec.md §5 default retry policy.
func DefaultRetryConfig() *RetryConfig {
	return defaultRetryConfig
}

// BuildConfig holds the remaining engine-wide tunables spec.md names:
// per-origin concurrency, hash batch size, drop-rate ceiling, and the
// default dual-validity window for redistricting events.
type BuildConfig struct {
	// PerOriginConcurrency is the default semaphore size per upstream
	// origin (spec.md §5: "per-origin concurrency semaphore with default
	// 5 concurrent requests").
	PerOriginConcurrency int
	// HashBatchSize is the default parallel pair-hashing batch size
	// (spec.md §4.6: "configurable size (default 64) per level").
	HashBatchSize int
	// MaxDropRate is the configurable ceiling past which a normalization
	// layer is escalated from dropped-feature warnings to ValidationFailed
	// (spec.md §7, default 1%).
	MaxDropRate float64
	// DualValidityWindow is the default window a superseded root remains
	// acceptable after a redistricting rebuild (spec.md §4.9, default 30
	// days).
	DualValidityWindow time.Duration
	// HashWorkerPoolSize is a hash worker pool size setting (spec.md §5:
	// "size >= 1 <= cpu-count"). No component reads it: merkletree.Build
	// starts one goroutine per batch of HashBatchSize pairs, without a
	// worker-count bound.
	HashWorkerPoolSize int
}

var defaultBuildConfig = &BuildConfig{
	PerOriginConcurrency: 5,
	HashBatchSize:        64,
	MaxDropRate:          0.01,
	DualValidityWindow:   30 * 24 * time.Hour,
	HashWorkerPoolSize:   0,
}

// DefaultBuildConfig returns the engine's default tunables.
func DefaultBuildConfig() *BuildConfig {
	return defaultBuildConfig
}
