package merkletree

import (
	"context"
	"fmt"
	"sort"

	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/mathutil"
	"github.com/shadowatlas/atlas/shared/metrics"
	"golang.org/x/sync/errgroup"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shadowatlas/atlas/poseidon"
)

// Tree is a built Merkle tree with every internal-node level retained,
// exactly as spec.md §4.6 requires ("every internal-node vector by
// level, retained for proof extraction").
type Tree struct {
	levels [][]poseidon.Field   // levels[0] = sorted leaves, levels[len-1] = [root]
	index  map[SortKey]int      // leaf's position within levels[0]
	keys   []SortKey            // keys[i] is the sort key of levels[0][i]
}

// Root returns the top-most hash of the tree.
func (t *Tree) Root() poseidon.Field {
	return t.levels[len(t.levels)-1][0]
}

// Depth is the number of levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// LeafIndex returns the position of key within the sorted leaf vector.
func (t *Tree) LeafIndex(key SortKey) (int, bool) {
	idx, ok := t.index[key]
	return idx, ok
}

// LeafCount returns the number of leaves the tree was built from
// (before any odd-node padding).
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Leaf returns the leaf value stored under key, and whether key was
// present in the tree.
func (t *Tree) Leaf(key SortKey) (poseidon.Field, bool) {
	idx, ok := t.index[key]
	if !ok {
		return poseidon.Field{}, false
	}
	return t.levels[0][idx], true
}

// Build constructs a Tree from records bottom-up in parallel batches
// (spec.md §4.6). batchSize bounds how many pair-hashes one goroutine
// computes before yielding, mirroring shared/params.BuildConfig's
// HashBatchSize; a non-positive batchSize disables batching (one
// goroutine per pair).
//
// Odd nodes at any level are paired with themselves via
// poseidon.HashPair(x, x) (spec.md §9's locked-in odd-node rule), never
// a precomputed zero-hash table — a tree built from live leaf data has
// no meaningful "zero" to pad with at internal levels.
func Build(ctx context.Context, records []LeafRecord, batchSize int) (*Tree, error) {
	const op = "merkletree.Build"
	if len(records) == 0 {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "no leaf records provided")
	}

	sorted := make([]LeafRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key.Less(sorted[j].Key) })

	leaves := make([]poseidon.Field, len(sorted))
	keys := make([]SortKey, len(sorted))
	index := make(map[SortKey]int, len(sorted))
	for i, r := range sorted {
		if _, dup := index[r.Key]; dup {
			return nil, atlaserr.New(atlaserr.KindInvalidInput, op, fmt.Sprintf("duplicate sort key (%s, %s)", r.Key.LayerType, r.Key.ID))
		}
		leaves[i] = r.Leaf
		keys[i] = r.Key
		index[r.Key] = i
	}

	levels := [][]poseidon.Field{leaves}
	current := leaves
	for len(current) > 1 {
		next, err := hashLevel(ctx, current, batchSize)
		if err != nil {
			return nil, err
		}
		levels = append(levels, next)
		current = next
	}

	t := &Tree{levels: levels, index: index, keys: keys}
	if want := mathutil.CeilLog2(len(sorted)); t.Depth() != want {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, fmt.Sprintf("built tree depth %d does not match ceil(log2(%d))=%d", t.Depth(), len(sorted), want))
	}
	return t, nil
}

// hashLevel computes one level up from current, batching pair-hashes
// across goroutines (errgroup.WithContext, mirroring the teacher's
// concurrent-fan-out convention) for deterministic, order-preserving
// results: each goroutine writes into a pre-allocated slice by index, so
// scheduling order never affects the resulting hash sequence.
func hashLevel(ctx context.Context, level []poseidon.Field, batchSize int) ([]poseidon.Field, error) {
	pairCount := (len(level) + 1) / 2
	next := make([]poseidon.Field, pairCount)

	if batchSize <= 0 {
		batchSize = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	timer := prometheus.NewTimer(metrics.HashBatchDuration.WithLabelValues("merkletree"))
	defer timer.ObserveDuration()

	for start := 0; start < pairCount; start += batchSize {
		start := start
		end := start + batchSize
		if end > pairCount {
			end = pairCount
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return atlaserr.New(atlaserr.KindCancelled, "merkletree.hashLevel", "build cancelled")
			default:
			}
			for i := start; i < end; i++ {
				left := level[2*i]
				if 2*i+1 < len(level) {
					next[i] = poseidon.HashPair(left, level[2*i+1])
				} else {
					next[i] = poseidon.HashPair(left, left) // odd-node self-pairing, spec.md §9
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}
