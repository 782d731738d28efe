package engine

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/global"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/metrics"
	"github.com/shadowatlas/atlas/snapshot"
)

// BuildResult is what one successful Build call produces: a sealed
// Snapshot plus the in-memory Root it was sealed from, so a caller can
// generate proofs immediately without re-reading the Repository.
type BuildResult struct {
	Snapshot snapshot.Snapshot
	Root     *global.Root

	// proofCache holds recently generated MembershipProofs keyed by
	// country/region/cell, the way the teacher caches hot validator-index
	// lookups in beacon-chain/db/kv — a query layer built on this
	// BuildResult is expected to re-request the same cell repeatedly
	// (e.g. an address-lookup API re-verifying the same district).
	proofCache *ristretto.Cache

	// cellsByCountryRegion and countryIndex retain this build's
	// per-region cell sets and per-country published index entries, the
	// state RebuildRegion (spec.md §4.9's minimum rebuild scope) needs
	// to splice one changed region into an otherwise-untouched dataset
	// without re-extracting and re-publishing every other country.
	cellsByCountryRegion map[string]map[string][]cell.Cell
	countryIndex         map[string]snapshot.CountryIndexEntry
}

// newProofCache builds a small hot-lookup cache for GenerateMembershipProof.
// Failure to construct one is non-fatal: GenerateMembershipProof falls
// back to recomputing the proof directly.
func newProofCache() *ristretto.Cache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		log.WithError(err).Warn("failed to construct membership proof cache")
		return nil
	}
	return cache
}

// Build runs one complete pipeline invocation (spec.md §5): extract,
// normalize and cross-validate, assemble cells, build the hierarchical
// Merkle tree, publish, then seal a Snapshot over the resulting content
// addresses. A build that fails at any stage publishes nothing; the
// Repository's prior Snapshot remains authoritative (spec.md §5
// Cancellation: "Partial builds publish nothing").
func (e *Engine) Build(ctx context.Context, jobID string, sources []Source) (*BuildResult, error) {
	const op = "engine.Build"
	startedAt := time.Now()

	if err := e.Repo.CreateJob(ctx, snapshot.Job{JobID: jobID, StartedAt: startedAt, Status: "running"}); err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "create job record", err)
	}

	extractions, err := e.extractAll(ctx, jobID, sources)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	ingest, err := e.ingestAll(ctx, jobID, extractions)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	cellsByCountryRegion, err := e.assembleCells(ingest, sources)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	select {
	case <-ctx.Done():
		cancelErr := atlaserr.New(atlaserr.KindCancelled, op, "build cancelled before hash batch submission")
		e.abort(ctx, jobID, cancelErr)
		return nil, cancelErr
	default:
	}

	root, err := global.Build(ctx, cellsByCountryRegion, e.BuildCfg.HashBatchSize)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	now := time.Now()
	published, err := e.publishAll(ctx, root, cellsByCountryRegion, now)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	snap, err := e.seal(ctx, root, published, cellsByCountryRegion, countBoundaries(ingest), now)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	finishedAt := time.Now()
	if err := e.Repo.UpdateJobStatus(ctx, jobID, "succeeded", &finishedAt); err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "update job status", err)
	}
	metrics.SnapshotsSealed.Inc()
	return &BuildResult{
		Snapshot:             *snap,
		Root:                 root,
		proofCache:           newProofCache(),
		cellsByCountryRegion: cellsByCountryRegion,
		countryIndex:         published.CountryIndex,
	}, nil
}

// seal persists a Snapshot plus its region associations as a single
// transaction (spec.md §5 transaction discipline).
func (e *Engine) seal(ctx context.Context, root *global.Root, published *publishResult, cellsByCountryRegion map[string]map[string][]cell.Cell, boundaryCount int, now time.Time) (*snapshot.Snapshot, error) {
	countryRoots := make(map[string]snapshot.CountryRootRecord, len(published.CountryCIDs))
	var regions []snapshot.SnapshotRegion
	cellCount := 0

	for _, continent := range root.Continents {
		for code, cr := range continent.Countries {
			byRegion := cellsByCountryRegion[code]
			countryCells := 0
			for regionCode, cells := range byRegion {
				countryCells += len(cells)
				regions = append(regions, snapshot.SnapshotRegion{CountryCode: code, RegionCode: regionCode})
			}
			cellCount += countryCells
			countryRoots[code] = snapshot.CountryRootRecord{
				Root:           cr.Commitment,
				ContentAddress: published.CountryCIDs[code],
				CellCount:      countryCells,
			}
		}
	}

	snap := snapshot.Seal(root.GlobalRoot, published.GlobalCID, countryRoots, boundaryCount, cellCount, now)
	for i := range regions {
		regions[i].SnapshotID = snap.SnapshotID
	}
	if err := e.Repo.CreateSnapshotWithRegions(ctx, snap, regions); err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, "engine.seal", "create snapshot with regions", err)
	}
	return &snap, nil
}

func countBoundaries(ingest *ingestResult) int {
	total := 0
	for _, bs := range ingest.ByLayer {
		total += len(bs)
	}
	return total
}

// abort records a build's terminal failure and increments the aborted-
// build counter by error Kind (spec.md §5: "partial builds publish
// nothing; the prior Snapshot remains authoritative").
func (e *Engine) abort(ctx context.Context, jobID string, cause error) {
	kind := "Unknown"
	if ae, ok := cause.(*atlaserr.Error); ok {
		kind = ae.Kind.String()
	}
	metrics.BuildsAborted.WithLabelValues(kind).Inc()

	finishedAt := time.Now()
	if err := e.Repo.UpdateJobStatus(ctx, jobID, "failed", &finishedAt); err != nil {
		log.WithError(err).Warn("failed to record aborted job status")
	}
}
