package engine

import (
	"context"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/crossvalidate"
	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/snapshot"
)

// regionKey groups normalized boundaries for cross-validation at the
// granularity spec.md §4.4's Wisconsin state-senate example needs: one
// country, one region, one layer.
type regionKey struct {
	Country string
	Region  string
	Layer   boundarytype.LayerType
}

// ingestResult is the fully normalized, cross-validated boundary set a
// build assembles cells from.
type ingestResult struct {
	ByLayer map[boundarytype.LayerType][]boundarytype.Boundary
}

type seenBoundaries struct {
	origin     string
	boundaries []boundarytype.Boundary
}

// ingestAll normalizes every extraction in delivery order (spec.md §5
// ordering guarantee (a)) and cross-validates a region+layer the second
// time a different origin's boundaries for that key arrive (spec.md
// §4.4). The worst verdict seen for an extraction's regions is the one
// persisted alongside it — a single Extraction can only carry one
// ValidationResult, so the most severe outcome is the one that should
// surface in the Repository.
func (e *Engine) ingestAll(ctx context.Context, jobID string, extractions []layerExtraction) (*ingestResult, error) {
	const op = "engine.ingestAll"

	seen := make(map[regionKey]seenBoundaries)
	byLayer := make(map[boundarytype.LayerType][]boundarytype.Boundary)

	for _, ex := range extractions {
		result, err := normalize.Normalize(ex.FC, ex.Spec, e.BuildCfg.MaxDropRate)
		if err != nil {
			return nil, err
		}
		for _, w := range result.Warnings {
			log.WithField("layer", ex.Layer.LayerType).WithField("feature", w.FeatureIndex).Warn(w.Reason)
		}

		byRegion := make(map[string][]boundarytype.Boundary)
		for _, b := range result.Boundaries {
			byRegion[b.RegionCode] = append(byRegion[b.RegionCode], b)
		}

		var worst *snapshot.ValidationResult
		for region, bs := range byRegion {
			key := regionKey{Country: bs[0].CountryCode, Region: region, Layer: ex.Layer.LayerType}
			prior, ok := seen[key]
			if !ok {
				seen[key] = seenBoundaries{origin: ex.Origin, boundaries: bs}
				continue
			}

			expected := crossvalidate.ExpectedCount(key.Country, string(key.Layer), key.Region, ex.Layer.ExpectedCount)
			report := crossvalidate.Compare(prior.boundaries, bs, expected, true, true)
			if report.Verdict == crossvalidate.VerdictRejected {
				return nil, atlaserr.New(atlaserr.KindValidationFailed, op,
					"cross-validation rejected "+string(key.Layer)+" in "+key.Country+"/"+key.Region+
						" between "+prior.origin+" and "+ex.Origin)
			}
			candidate := &snapshot.ValidationResult{
				JobID: jobID, LayerType: string(key.Layer), CountryCode: key.Country,
				TotalScore: report.TotalScore, Verdict: string(report.Verdict),
			}
			if worst == nil || verdictRank(crossvalidate.Verdict(candidate.Verdict)) > verdictRank(crossvalidate.Verdict(worst.Verdict)) {
				worst = candidate
			}
		}

		if err := e.Repo.RecordExtractionWithValidation(ctx, snapshot.Extraction{
			JobID:        jobID,
			LayerType:    string(ex.Layer.LayerType),
			OriginURL:    ex.Meta.EndpointURL,
			ContentHash:  ex.Meta.ContentHash,
			RetrievedAt:  ex.Meta.RetrievedAt,
			FeatureCount: len(ex.FC.Features),
		}, worst); err != nil {
			return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "record extraction", err)
		}

		byLayer[ex.Layer.LayerType] = append(byLayer[ex.Layer.LayerType], result.Boundaries...)
	}

	return &ingestResult{ByLayer: byLayer}, nil
}

func verdictRank(v crossvalidate.Verdict) int {
	switch v {
	case crossvalidate.VerdictAccepted:
		return 0
	case crossvalidate.VerdictWarn:
		return 1
	case crossvalidate.VerdictCritical:
		return 2
	case crossvalidate.VerdictRejected:
		return 3
	default:
		return -1
	}
}
