package engine

import (
	"context"
	"time"

	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/global"
	"github.com/shadowatlas/atlas/redistrict"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/metrics"
	"github.com/shadowatlas/atlas/snapshot"
)

// RebuildRegion drives spec.md §4.9's minimum rebuild scope end to end:
// global.RebuildRegion recomputes only the named region's cell tree and
// the thin administrative levels above it, then only that one country's
// document and the global index are republished — every other country's
// content address and published entry carries forward from prev
// untouched (scenario S5, §8).
//
// machine must already be in ChangeDetected (a prior call to
// machine.DetectChange with ScopeCell or ScopeRegion for this
// jurisdiction); on success machine moves to DualValid with both the
// superseded and new global roots recorded, so machine.AcceptsRoot
// honors the dual-validity window a caller's earlier proof was issued
// against.
func (e *Engine) RebuildRegion(ctx context.Context, jobID string, prev *BuildResult, machine *redistrict.Machine, country, region string, newCells []cell.Cell, effectiveDate time.Time) (*BuildResult, error) {
	const op = "engine.RebuildRegion"

	if machine.State() != redistrict.StateChangeDetected {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "machine must be in ChangeDetected before a scoped rebuild begins")
	}
	switch scope := machine.Event().Scope; scope {
	case redistrict.ScopeCell, redistrict.ScopeRegion:
		// both collapse to the same rebuild: a single changed cell
		// still requires rebuilding its whole region's leaf set, since
		// merkletree.Build has no leaf-replacement primitive.
	case redistrict.ScopeCountry:
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "scope country spans more than one region; use RebuildCountry")
	default:
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "unrecognized rebuild scope "+string(scope))
	}
	if err := machine.BeginRebuild(); err != nil {
		return nil, err
	}

	if err := e.Repo.CreateJob(ctx, snapshot.Job{JobID: jobID, StartedAt: time.Now(), Status: "running"}); err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "create job record", err)
	}

	oldRoot := prev.Root.GlobalRoot

	newRoot, err := global.RebuildRegion(ctx, prev.Root, country, region, newCells, e.BuildCfg.HashBatchSize)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	cellsByCountryRegion := spliceRegion(prev.cellsByCountryRegion, country, region, newCells)

	now := time.Now()
	published, err := e.republishRegion(ctx, newRoot, prev, cellsByCountryRegion, country, now)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	// boundaryCount is carried forward: a scoped rebuild does not
	// re-ingest every source, so the authoritative count only changes
	// for the rebuilt region, which this module does not track at
	// boundary granularity past cell assembly.
	snap, err := e.seal(ctx, newRoot, published, cellsByCountryRegion, prev.Snapshot.BoundaryCount, now)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	finishedAt := time.Now()
	if err := e.Repo.UpdateJobStatus(ctx, jobID, "succeeded", &finishedAt); err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "update job status", err)
	}
	if err := machine.CompleteRebuild(oldRoot, newRoot.GlobalRoot, effectiveDate); err != nil {
		return nil, err
	}
	metrics.SnapshotsSealed.Inc()

	return &BuildResult{
		Snapshot:             *snap,
		Root:                 newRoot,
		proofCache:           newProofCache(),
		cellsByCountryRegion: cellsByCountryRegion,
		countryIndex:         published.CountryIndex,
	}, nil
}

// RebuildCountry handles a ScopeCountry redistricting event: more than
// one region within country changed at once (e.g. a state-wide
// redraw touching several counties in the same event). It applies
// global.RebuildRegion once per changed region, chaining each result
// into the next so only the final rebuild's thin administrative levels
// are published, then republishes the one country document and the
// global index exactly as RebuildRegion does.
func (e *Engine) RebuildCountry(ctx context.Context, jobID string, prev *BuildResult, machine *redistrict.Machine, country string, newRegionCells map[string][]cell.Cell, effectiveDate time.Time) (*BuildResult, error) {
	const op = "engine.RebuildCountry"

	if machine.State() != redistrict.StateChangeDetected {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "machine must be in ChangeDetected before a scoped rebuild begins")
	}
	if scope := machine.Event().Scope; scope != redistrict.ScopeCountry {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "RebuildCountry requires scope country, got "+string(scope))
	}
	if len(newRegionCells) == 0 {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "no changed regions provided")
	}
	if err := machine.BeginRebuild(); err != nil {
		return nil, err
	}

	if err := e.Repo.CreateJob(ctx, snapshot.Job{JobID: jobID, StartedAt: time.Now(), Status: "running"}); err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "create job record", err)
	}

	oldRoot := prev.Root.GlobalRoot
	root := prev.Root
	cellsByCountryRegion := prev.cellsByCountryRegion

	for region, newCells := range newRegionCells {
		var err error
		root, err = global.RebuildRegion(ctx, root, country, region, newCells, e.BuildCfg.HashBatchSize)
		if err != nil {
			e.abort(ctx, jobID, err)
			return nil, err
		}
		cellsByCountryRegion = spliceRegion(cellsByCountryRegion, country, region, newCells)
	}

	now := time.Now()
	republishPrev := &BuildResult{countryIndex: prev.countryIndex}
	published, err := e.republishRegion(ctx, root, republishPrev, cellsByCountryRegion, country, now)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	snap, err := e.seal(ctx, root, published, cellsByCountryRegion, prev.Snapshot.BoundaryCount, now)
	if err != nil {
		e.abort(ctx, jobID, err)
		return nil, err
	}

	finishedAt := time.Now()
	if err := e.Repo.UpdateJobStatus(ctx, jobID, "succeeded", &finishedAt); err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "update job status", err)
	}
	if err := machine.CompleteRebuild(oldRoot, root.GlobalRoot, effectiveDate); err != nil {
		return nil, err
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

// spliceRegion copies prev's per-country cell sets and replaces one
// country's one region, the cell-level counterpart to what
// global.RebuildRegion does at the commitment level: every other
// country and region's cell slice is reused by reference, not copied.
func spliceRegion(prev map[string]map[string][]cell.Cell, country, region string, newCells []cell.Cell) map[string]map[string][]cell.Cell {
	out := make(map[string]map[string][]cell.Cell, len(prev))
	for code, byRegion := range prev {
		out[code] = byRegion
	}

	regions := make(map[string][]cell.Cell, len(prev[country])+1)
	for code, cells := range prev[country] {
		regions[code] = cells
	}
	if len(newCells) == 0 {
		delete(regions, region)
	} else {
		regions[region] = newCells
	}
	out[country] = regions
	return out
}

// republishRegion republishes only country's CountryDocument (the one
// whose region set changed) and a fresh GlobalIndexDocument; every
// other country's content address and index entry is carried forward
// from prev unchanged, since global.RebuildRegion left those countries'
// commitments untouched.
func (e *Engine) republishRegion(ctx context.Context, root *global.Root, prev *BuildResult, cellsByCountryRegion map[string]map[string][]cell.Cell, country string, now time.Time) (*publishResult, error) {
	const op = "engine.republishRegion"

	continentTag, ok := global.ContinentOf(country)
	if !ok {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "country "+country+" has no registered continental grouping")
	}
	cr, ok := root.Continents[continentTag].Countries[country]
	if !ok {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "country "+country+" not present in rebuilt root")
	}

	doc := buildCountryDocument(country, cr, cellsByCountryRegion[country])
	cid, entry, err := e.publishCountryDocument(ctx, country, cr, doc, now)
	if err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "publish country document for "+country, err)
	}

	countryCIDs := make(map[string]string, len(prev.countryIndex))
	countries := make(map[string]snapshot.CountryIndexEntry, len(prev.countryIndex))
	for code, entry := range prev.countryIndex {
		countryCIDs[code] = entry.CID
		countries[code] = entry
	}
	countryCIDs[country] = cid
	countries[country] = entry

	globalCID, err := e.publishGlobalIndex(ctx, root.GlobalRoot, countries, now)
	if err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "publish global index", err)
	}

	return &publishResult{GlobalCID: globalCID, CountryCIDs: countryCIDs, CountryIndex: countries}, nil
}
