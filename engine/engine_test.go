package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/engine"
	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/proof"
	"github.com/shadowatlas/atlas/provider"
	"github.com/shadowatlas/atlas/redistrict"
	"github.com/shadowatlas/atlas/snapshot"
)

// fakeRepository is an in-memory snapshot.Repository for engine tests;
// it does not need the transactional guarantees BoltStore provides since
// nothing here runs concurrently.
type fakeRepository struct {
	jobs      map[string]snapshot.Job
	snapshots map[string]snapshot.Snapshot
	latest    string
	failures  []snapshot.Failure
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{jobs: map[string]snapshot.Job{}, snapshots: map[string]snapshot.Snapshot{}}
}

func (r *fakeRepository) CreateJob(ctx context.Context, job snapshot.Job) error {
	r.jobs[job.JobID] = job
	return nil
}

func (r *fakeRepository) UpdateJobStatus(ctx context.Context, jobID, status string, finishedAt *time.Time) error {
	job := r.jobs[jobID]
	job.Status = status
	job.FinishedAt = finishedAt
	r.jobs[jobID] = job
	return nil
}

func (r *fakeRepository) RecordExtractionWithValidation(ctx context.Context, ext snapshot.Extraction, validation *snapshot.ValidationResult) error {
	return nil
}

func (r *fakeRepository) RecordFailure(ctx context.Context, failure snapshot.Failure) error {
	r.failures = append(r.failures, failure)
	return nil
}

func (r *fakeRepository) RecordNotConfigured(ctx context.Context, nc snapshot.NotConfigured) error {
	return nil
}

func (r *fakeRepository) CreateSnapshotWithRegions(ctx context.Context, snap snapshot.Snapshot, regions []snapshot.SnapshotRegion) error {
	r.snapshots[snap.SnapshotID] = snap
	r.latest = snap.SnapshotID
	return nil
}

func (r *fakeRepository) SupersedeSnapshot(ctx context.Context, snapshotID string, supersededAt time.Time) error {
	snap := r.snapshots[snapshotID]
	snap.SupersededAt = &supersededAt
	r.snapshots[snapshotID] = snap
	return nil
}

func (r *fakeRepository) LatestSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	if r.latest == "" {
		return nil, nil
	}
	return r.SnapshotByID(ctx, r.latest)
}

func (r *fakeRepository) SnapshotByID(ctx context.Context, snapshotID string) (*snapshot.Snapshot, error) {
	snap, ok := r.snapshots[snapshotID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (r *fakeRepository) Close() error { return nil }

// fakePublisher mints a deterministic content address from the
// document's own root/country fields rather than a real pinning
// service, matching how the StaticFileAdapter stands in for a real
// upstream source.
type fakePublisher struct{}

func (fakePublisher) PublishGlobalIndex(ctx context.Context, doc snapshot.GlobalIndexDocument) (string, error) {
	return "bafy-global-" + doc.GlobalRoot[2:10], nil
}

func (fakePublisher) PublishCountryDocument(ctx context.Context, countryCode string, doc snapshot.CountryDocument) (string, error) {
	return "bafy-" + countryCode + "-" + doc.Root[2:10], nil
}

func square(originLon, originLat, size float64) geo.Polygon {
	return geo.Polygon{Exterior: geo.Ring{
		{Lon: originLon, Lat: originLat},
		{Lon: originLon + size, Lat: originLat},
		{Lon: originLon + size, Lat: originLat + size},
		{Lon: originLon, Lat: originLat + size},
		{Lon: originLon, Lat: originLat},
	}}
}

func polygonFeature(poly geo.Polygon, props map[string]string) normalize.Feature {
	return normalize.Feature{GeometryKind: normalize.KindPolygon, Polygons: []geo.Polygon{poly}, Properties: props}
}

func wisconsinSource() engine.Source {
	tracts := normalize.FeatureCollection{Features: []normalize.Feature{
		polygonFeature(square(0, 0, 1), map[string]string{"id": "14000US55025000100"}),
	}}
	congressional := normalize.FeatureCollection{Features: []normalize.Feature{
		polygonFeature(square(-1, -1, 4), map[string]string{"id": "5503"}),
	}}

	adapter := provider.NewStaticFileAdapter("wi-static-fixture",
		[]provider.LayerConfig{
			{LayerType: boundarytype.CensusTract, AuthorityLevel: 1, Endpoint: "fixture://census-tract"},
			{LayerType: boundarytype.Congressional, ExpectedCount: 1, AuthorityLevel: 3, Endpoint: "fixture://congressional"},
		},
		map[boundarytype.LayerType]normalize.FeatureCollection{
			boundarytype.CensusTract:   tracts,
			boundarytype.Congressional: congressional,
		},
	)

	return engine.Source{
		Origin:         "wi-static-fixture",
		Provider:       adapter,
		PartitionLayer: boundarytype.CensusTract,
		Specs: map[boundarytype.LayerType]normalize.LayerSpec{
			boundarytype.CensusTract: {
				LayerType: boundarytype.CensusTract, IDAttributes: []string{"id"},
				CountryCode: "US", RegionAttribute: "", RegionPrefixLen: 0, AllowUnknownRegion: true,
				AuthorityLevel: 1,
			},
			boundarytype.Congressional: {
				LayerType: boundarytype.Congressional, IDAttributes: []string{"id"},
				CountryCode: "US", AllowUnknownRegion: true, AuthorityLevel: 3,
			},
		},
	}
}

// twoRegionSource ships two census tracts whose GEOID prefixes resolve
// to two distinct regions ("06" and "36"), both inside one large
// congressional district, so a build produces two independent region
// cell trees under the same country — the minimum fixture a scoped
// rebuild test needs to show one region's tree is reused untouched.
func twoRegionSource() engine.Source {
	tracts := normalize.FeatureCollection{Features: []normalize.Feature{
		polygonFeature(square(0, 0, 1), map[string]string{"id": "06000001"}),
		polygonFeature(square(5, 5, 1), map[string]string{"id": "36000001"}),
	}}
	congressional := normalize.FeatureCollection{Features: []normalize.Feature{
		polygonFeature(square(-1, -1, 10), map[string]string{"id": "5503"}),
	}}

	adapter := provider.NewStaticFileAdapter("two-region-fixture",
		[]provider.LayerConfig{
			{LayerType: boundarytype.CensusTract, AuthorityLevel: 1, Endpoint: "fixture://census-tract"},
			{LayerType: boundarytype.Congressional, ExpectedCount: 1, AuthorityLevel: 3, Endpoint: "fixture://congressional"},
		},
		map[boundarytype.LayerType]normalize.FeatureCollection{
			boundarytype.CensusTract:   tracts,
			boundarytype.Congressional: congressional,
		},
	)

	return engine.Source{
		Origin:         "two-region-fixture",
		Provider:       adapter,
		PartitionLayer: boundarytype.CensusTract,
		Specs: map[boundarytype.LayerType]normalize.LayerSpec{
			boundarytype.CensusTract: {
				LayerType: boundarytype.CensusTract, IDAttributes: []string{"id"},
				CountryCode: "US", RegionPrefixLen: 2, AuthorityLevel: 1,
			},
			boundarytype.Congressional: {
				LayerType: boundarytype.Congressional, IDAttributes: []string{"id"},
				CountryCode: "US", AllowUnknownRegion: true, AuthorityLevel: 3,
			},
		},
	}
}

// redistrictedCell stands in for the region "06" cell after a
// redistricting event changed its congressional assignment — same ID
// and region, one slot's hash changed, the rest of the district_slots
// vector (and every other region) untouched.
func redistrictedCell() cell.Cell {
	slots := make([]poseidon.Field, cell.USSlotTable.N())
	ids := make([]string, cell.USSlotTable.N())
	for i := range slots {
		slots[i] = poseidon.EmptySlotPlaceholder
	}
	slots[cell.USSlotTable.SlotIndex(boundarytype.Congressional)] = poseidon.HashString([]byte("5504"))
	ids[cell.USSlotTable.SlotIndex(boundarytype.Congressional)] = "5504"
	return cell.Cell{ID: "06000001", CountryCode: "US", RegionCode: "06", DistrictSlots: slots, DistrictIDs: ids}
}

func testEngine() (*engine.Engine, *fakeRepository) {
	repo := newFakeRepository()
	eng := engine.New(repo, fakePublisher{}, map[string]cell.CountrySlotTable{"US": cell.USSlotTable})
	eng.BuildCfg.HashBatchSize = 4
	return eng, repo
}

func TestBuild_EndToEndSealsSnapshotAndPublishes(t *testing.T) {
	eng, repo := testEngine()
	ctx := context.Background()

	result, err := eng.Build(ctx, "job-1", []engine.Source{wisconsinSource()})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.Root.GlobalRoot.Equal(poseidon.Zero()))

	sealed, ok := repo.snapshots[result.Snapshot.SnapshotID]
	require.True(t, ok)
	require.True(t, sealed.GlobalRoot.Equal(result.Root.GlobalRoot))
	require.Equal(t, 2, sealed.BoundaryCount) // one census-tract + one congressional boundary
	require.Equal(t, 1, sealed.CellCount)

	us, ok := sealed.CountryRoots["US"]
	require.True(t, ok)
	require.NotEmpty(t, us.ContentAddress)

	job := repo.jobs["job-1"]
	require.Equal(t, "succeeded", job.Status)
}

func TestBuild_GeneratesVerifiableMembershipProof(t *testing.T) {
	eng, _ := testEngine()
	ctx := context.Background()

	result, err := eng.Build(ctx, "job-2", []engine.Source{wisconsinSource()})
	require.NoError(t, err)

	region := result.Root.Continents["NORTH_AMERICA"].Countries["US"].Regions[""]
	require.Equal(t, 1, region.CellTree.LeafCount())

	cellID := "14000US55025000100"
	leaf, ok := region.CellTree.Leaf(merkletree.SortKey{LayerType: "cell", ID: cellID})
	require.True(t, ok)

	membership, err := result.GenerateMembershipProof("US", "", cellID)
	require.NoError(t, err)
	require.True(t, proof.Verify(leaf, membership.CellProof, membership.CountryProof, result.Root.GlobalRoot))
}

// TestRebuildRegion_ReusesUnaffectedRegion is scenario S5 (spec.md §8):
// rebuilding region "06" changes the US country root and the global
// root, but region "36"'s cell tree and commitment are byte-identical
// to the full build's — global.RebuildRegion never touched them.
func TestRebuildRegion_ReusesUnaffectedRegion(t *testing.T) {
	eng, repo := testEngine()
	ctx := context.Background()

	before, err := eng.Build(ctx, "job-full", []engine.Source{twoRegionSource()})
	require.NoError(t, err)

	country := before.Root.Continents["NORTH_AMERICA"].Countries["US"]
	unaffectedBefore := country.Regions["36"].Commitment

	machine := redistrict.NewMachine("US-06", 30*24*time.Hour)
	require.NoError(t, machine.DetectChange(redistrict.ScopeRegion, redistrict.TriggerManual))

	after, err := eng.RebuildRegion(ctx, "job-scoped", before, machine, "US", "06", []cell.Cell{redistrictedCell()}, time.Now())
	require.NoError(t, err)

	require.False(t, after.Root.GlobalRoot.Equal(before.Root.GlobalRoot))

	afterCountry := after.Root.Continents["NORTH_AMERICA"].Countries["US"]
	require.False(t, afterCountry.Regions["06"].Commitment.Equal(country.Regions["06"].Commitment))
	require.True(t, afterCountry.Regions["36"].Commitment.Equal(unaffectedBefore))
	require.True(t, afterCountry.Regions["36"].CellTree == country.Regions["36"].CellTree) // same *Tree, not rebuilt

	require.Equal(t, redistrict.StateDualValid, machine.State())
	require.True(t, machine.AcceptsRoot(before.Root.GlobalRoot, time.Now()))
	require.True(t, machine.AcceptsRoot(after.Root.GlobalRoot, time.Now()))

	sealed, ok := repo.snapshots[after.Snapshot.SnapshotID]
	require.True(t, ok)
	require.True(t, sealed.GlobalRoot.Equal(after.Root.GlobalRoot))

	membership, err := after.GenerateMembershipProof("US", "36", "36000001")
	require.NoError(t, err)
	leaf, ok := afterCountry.Regions["36"].CellTree.Leaf(merkletree.SortKey{LayerType: "cell", ID: "36000001"})
	require.True(t, ok)
	require.True(t, proof.Verify(leaf, membership.CellProof, membership.CountryProof, after.Root.GlobalRoot))
}

func TestRebuildRegion_RejectsScopeCountry(t *testing.T) {
	eng, _ := testEngine()
	ctx := context.Background()

	before, err := eng.Build(ctx, "job-full", []engine.Source{twoRegionSource()})
	require.NoError(t, err)

	machine := redistrict.NewMachine("US", 30*24*time.Hour)
	require.NoError(t, machine.DetectChange(redistrict.ScopeCountry, redistrict.TriggerExternalEvent))

	_, err = eng.RebuildRegion(ctx, "job-bad-scope", before, machine, "US", "06", []cell.Cell{redistrictedCell()}, time.Now())
	require.Error(t, err)
}

func TestBuild_MissingPartitionLayerIsInvalidInput(t *testing.T) {
	eng, _ := testEngine()
	ctx := context.Background()

	src := wisconsinSource()
	src.PartitionLayer = ""

	_, err := eng.Build(ctx, "job-3", []engine.Source{src})
	require.Error(t, err)
}
