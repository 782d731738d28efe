// Package engine implements spec.md §5's concurrency and resource model:
// the build orchestration that drives a Provider through normalization,
// cross-validation, cell assembly and hierarchical Merkle construction
// into a sealed, published Snapshot. Grounded on the teacher's
// sharding/proposer and sharding/notary services — a long-lived worker
// with a context-scoped main loop and a narrow Start/Stop surface. Here
// the pipeline stages run one after another within a build; errgroup
// (rather than the teacher's raw channel select loop) fans out the
// upstream fetches within the extract stage and the pair-hash batches
// within each Merkle level.
package engine

import (
	"sync"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/provider"
	"github.com/shadowatlas/atlas/shared/logutil"
	"github.com/shadowatlas/atlas/shared/params"
	"github.com/shadowatlas/atlas/snapshot"
)

var log = logutil.ForComponent("engine")

// Source names one upstream Provider together with the normalization
// rules and partitioning layer the build needs to interpret it. Origin
// is the per-origin concurrency semaphore key (spec.md §5: "per-origin
// concurrency semaphore with default 5 concurrent requests") — two
// Sources that share an Origin string share one Pool.
type Source struct {
	Origin   string
	Provider provider.Provider

	// Specs maps each LayerType this source exposes to its
	// normalization rules.
	Specs map[boundarytype.LayerType]normalize.LayerSpec

	// PartitionLayer names the LayerType whose normalized Boundaries
	// double as the country's cell-partitioning geometry (spec.md
	// §4.5's "the partitioning geometry" — reference layers such as
	// CensusTract are the natural choice, since they already never
	// enter a proof on their own).
	PartitionLayer boundarytype.LayerType
}

// Engine drives one build end to end against a configured Repository and
// Publisher. It holds no per-build state between calls to Build other
// than its lazily-created per-origin Pools, so one Engine can run
// sequential builds safely; concurrent overlapping Build calls are not
// supported (spec.md §5 does not describe two builds in flight at once).
type Engine struct {
	Repo      snapshot.Repository
	Publisher snapshot.Publisher

	BuildCfg *params.BuildConfig
	RetryCfg *params.RetryConfig

	// SlotTables is consulted once per country during cell assembly.
	SlotTables map[string]cell.CountrySlotTable

	poolsMu sync.Mutex
	pools   map[string]*provider.Pool
}

// New builds an Engine with spec.md §5's default tunables. Callers that
// need non-default retry/batch/concurrency behavior mutate BuildCfg or
// RetryCfg before calling Build.
func New(repo snapshot.Repository, publisher snapshot.Publisher, slotTables map[string]cell.CountrySlotTable) *Engine {
	return &Engine{
		Repo:       repo,
		Publisher:  publisher,
		BuildCfg:   params.DefaultBuildConfig(),
		RetryCfg:   params.DefaultRetryConfig(),
		SlotTables: slotTables,
		pools:      make(map[string]*provider.Pool),
	}
}

// poolFor returns the shared Pool for origin, creating it on first use.
func (e *Engine) poolFor(origin string) *provider.Pool {
	e.poolsMu.Lock()
	defer e.poolsMu.Unlock()
	p, ok := e.pools[origin]
	if !ok {
		p = provider.NewPool(origin, e.BuildCfg.PerOriginConcurrency)
		e.pools[origin] = p
	}
	return p
}
