package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/provider"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/snapshot"
)

// layerExtraction is one source's raw fetch of one layer, before
// normalization.
type layerExtraction struct {
	Origin string
	Layer  provider.LayerConfig
	Spec   normalize.LayerSpec
	FC     normalize.FeatureCollection
	Meta   provider.SourceMetadata
}

// extractAll runs spec.md §5 suspension point 1 for every Source,
// bounded by each origin's Pool and retried per WithRetry. Sources run
// concurrently; within a Source, layers also run concurrently — bounded
// by the Pool, not by the fan-out itself, so the Pool is the single
// point of truth for per-origin concurrency (spec.md §5: "per-origin
// concurrency semaphore with default 5").
func (e *Engine) extractAll(ctx context.Context, jobID string, sources []Source) ([]layerExtraction, error) {
	const op = "engine.extractAll"

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var results []layerExtraction

	for _, src := range sources {
		src := src
		g.Go(func() error {
			layers, err := src.Provider.ListLayers(gctx)
			if err != nil {
				return atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "list layers for origin "+src.Origin, err)
			}
			pool := e.poolFor(src.Origin)

			for _, layer := range layers {
				spec, ok := src.Specs[layer.LayerType]
				if !ok {
					continue
				}
				layer, spec := layer, spec

				g.Go(func() error {
					var fc normalize.FeatureCollection
					var meta provider.SourceMetadata

					fetchErr := pool.Do(gctx, func(ctx context.Context) error {
						return provider.WithRetry(ctx, src.Origin, e.RetryCfg, func(ctx context.Context) error {
							var err error
							fc, meta, err = src.Provider.Extract(ctx, layer)
							return err
						})
					})
					if fetchErr != nil {
						if rerr := e.Repo.RecordFailure(gctx, snapshot.Failure{
							JobID:      jobID,
							LayerType:  string(layer.LayerType),
							Kind:       errorKind(fetchErr),
							Message:    fetchErr.Error(),
							OccurredAt: time.Now(),
						}); rerr != nil {
							log.WithError(rerr).Warn("failed to record extraction failure")
						}
						return fetchErr
					}

					mu.Lock()
					results = append(results, layerExtraction{Origin: src.Origin, Layer: layer, Spec: spec, FC: fc, Meta: meta})
					mu.Unlock()
					return nil
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fetches complete in scheduling order, not delivery order; sort
	// back to a fixed (origin, layer) order so ingestAll's cross-source
	// pairing is deterministic regardless of goroutine timing (spec.md
	// §5 ordering guarantee (a)).
	sort.Slice(results, func(i, j int) bool {
		if results[i].Origin != results[j].Origin {
			return results[i].Origin < results[j].Origin
		}
		return results[i].Layer.LayerType < results[j].Layer.LayerType
	})
	return results, nil
}

func errorKind(err error) string {
	if ae, ok := err.(*atlaserr.Error); ok {
		return ae.Kind.String()
	}
	return atlaserr.KindUpstreamUnavailable.String()
}
