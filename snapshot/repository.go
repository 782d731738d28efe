package snapshot

import (
	"context"
	"time"
)

// Job is one build run's top-level record (spec.md §6 table "jobs").
type Job struct {
	JobID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // "running" | "succeeded" | "failed" | "cancelled"
	ArchivedAt *time.Time
}

// JobScope records which countries/regions a Job covered (table
// "job_scopes").
type JobScope struct {
	JobID       string
	CountryCode string
	RegionCode  string
	ArchivedAt  *time.Time
}

// Extraction records one successful provider fetch (table "extractions").
type Extraction struct {
	JobID        string
	LayerType    string
	OriginURL    string
	ContentHash  [32]byte
	RetrievedAt  time.Time
	FeatureCount int
	ArchivedAt   *time.Time
}

// Failure records a fetch or validation failure within a Job (table
// "failures").
type Failure struct {
	JobID      string
	LayerType  string
	Kind       string
	Message    string
	OccurredAt time.Time
	ArchivedAt *time.Time
}

// NotConfigured records a layer a country is known to lack, so a future
// build does not re-treat its absence as a fetch failure (table
// "not_configured").
type NotConfigured struct {
	CountryCode string
	LayerType   string
	Reason      string
	ArchivedAt  *time.Time
}

// ValidationResult records one cross-validator QualityReport outcome
// (table "validation_results").
type ValidationResult struct {
	JobID       string
	LayerType   string
	CountryCode string
	TotalScore  float64
	Verdict     string
	ArchivedAt  *time.Time
}

// SnapshotRegion associates a sealed Snapshot with one of its country's
// regions (table "snapshot_regions").
type SnapshotRegion struct {
	SnapshotID string
	CountryCode string
	RegionCode  string
	ArchivedAt  *time.Time
}

// Repository is the persistence capability the build engine consumes
// (spec.md §6). Every table carries a soft-delete column; the core
// never hard-deletes (spec.md §6: "the core never hard-deletes").
//
// Transaction discipline (spec.md §5): CreateSnapshotWithRegions writes
// a snapshot and its snapshot_regions rows in one transaction;
// RecordExtractionWithValidation writes an extraction and its optional
// validation result in one transaction. No method writes JobScope rows.
type Repository interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJobStatus(ctx context.Context, jobID, status string, finishedAt *time.Time) error

	RecordExtractionWithValidation(ctx context.Context, ext Extraction, validation *ValidationResult) error
	RecordFailure(ctx context.Context, failure Failure) error
	RecordNotConfigured(ctx context.Context, nc NotConfigured) error

	CreateSnapshotWithRegions(ctx context.Context, snap Snapshot, regions []SnapshotRegion) error
	SupersedeSnapshot(ctx context.Context, snapshotID string, supersededAt time.Time) error
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	SnapshotByID(ctx context.Context, snapshotID string) (*Snapshot, error)

	Close() error
}
