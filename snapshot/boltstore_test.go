package snapshot

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shadowatlas/atlas/poseidon"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	dir, err := os.MkdirTemp("", "atlas-snapshot-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	store, err := NewBoltStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStore_JobLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateJob(ctx, Job{JobID: "job-1", StartedAt: started, Status: "running"}))

	finished := started.Add(10 * time.Minute)
	require.NoError(t, store.UpdateJobStatus(ctx, "job-1", "succeeded", &finished))
}

func TestBoltStore_RecordExtractionWithValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ext := Extraction{
		JobID:        "job-2",
		LayerType:    "county",
		OriginURL:    "https://example.gov/county",
		RetrievedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		FeatureCount: 3141,
	}
	validation := &ValidationResult{
		JobID:       "job-2",
		LayerType:   "county",
		CountryCode: "US",
		TotalScore:  97.5,
		Verdict:     "accepted",
	}
	require.NoError(t, store.RecordExtractionWithValidation(ctx, ext, validation))
}

func TestBoltStore_RecordFailureAndNotConfigured(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordFailure(ctx, Failure{
		JobID:      "job-3",
		LayerType:  "city",
		Kind:       "UpstreamUnavailable",
		Message:    "timed out after 3 retries",
		OccurredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}))

	require.NoError(t, store.RecordNotConfigured(ctx, NotConfigured{
		CountryCode: "US",
		LayerType:   "tribal",
		Reason:      "no authoritative source published for this jurisdiction",
	}))
}

func TestBoltStore_SnapshotRoundTripPreservesFieldValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	globalRoot := poseidon.HashString([]byte("global-root-fixture"))
	countryRoot := poseidon.HashString([]byte("country-root-fixture"))

	snap := Seal(
		globalRoot,
		"bafy-global-fixture",
		map[string]CountryRootRecord{
			"US": {Root: countryRoot, ContentAddress: "bafy-us-fixture", CellCount: 42},
		},
		1000, 42,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	)

	regions := []SnapshotRegion{
		{SnapshotID: snap.SnapshotID, CountryCode: "US", RegionCode: "WI"},
		{SnapshotID: snap.SnapshotID, CountryCode: "US", RegionCode: "CA"},
	}
	require.NoError(t, store.CreateSnapshotWithRegions(ctx, snap, regions))

	fetched, err := store.SnapshotByID(ctx, snap.SnapshotID)
	require.NoError(t, err)
	require.NotNil(t, fetched)

	require.True(t, fetched.GlobalRoot.Equal(globalRoot), "global root must survive the JSON round trip through bbolt")
	us, ok := fetched.CountryRoots["US"]
	require.True(t, ok)
	require.True(t, us.Root.Equal(countryRoot), "country root must survive the JSON round trip through bbolt")
	require.Equal(t, 42, us.CellCount)
}

func TestBoltStore_LatestSnapshotTracksMostRecentCreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := Seal(poseidon.HashString([]byte("first")), "bafy-1", nil, 10, 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.CreateSnapshotWithRegions(ctx, first, nil))

	second := Seal(poseidon.HashString([]byte("second")), "bafy-2", nil, 20, 2, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.CreateSnapshotWithRegions(ctx, second, nil))

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, second.SnapshotID, latest.SnapshotID)
}

func TestBoltStore_SupersedeSnapshotSetsSupersededAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := Seal(poseidon.HashString([]byte("superseded")), "bafy-3", nil, 5, 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.CreateSnapshotWithRegions(ctx, snap, nil))

	supersededAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SupersedeSnapshot(ctx, snap.SnapshotID, supersededAt))

	fetched, err := store.SnapshotByID(ctx, snap.SnapshotID)
	require.NoError(t, err)
	require.NotNil(t, fetched.SupersededAt)
	require.True(t, fetched.SupersededAt.Equal(supersededAt))
}

func TestBoltStore_SnapshotByIDMissingReturnsNilNotError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fetched, err := store.SnapshotByID(ctx, "does-not-exist")
	require.NoError(t, err)
	require.Nil(t, fetched)
}
