package normalize

import (
	"fmt"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/logutil"
)

var log = logutil.ForComponent("normalize")

// Warning records a dropped feature and the reason, per spec.md §4.2's
// error taxonomy: InvalidGeometry and MissingId are warnings, not halts.
type Warning struct {
	FeatureIndex int
	Reason       string
}

// Result is the outcome of normalizing one upstream FeatureCollection.
type Result struct {
	Boundaries []boundarytype.Boundary
	Warnings   []Warning
}

// DropRate returns the fraction of input features that were dropped.
func (r Result) DropRate(totalFeatures int) float64 {
	if totalFeatures == 0 {
		return 0
	}
	return float64(len(r.Warnings)) / float64(totalFeatures)
}

// Normalize coerces an upstream FeatureCollection into canonical
// Boundaries, per spec.md §4.2's five responsibilities. maxDropRate is
// the configurable ceiling (spec.md §7, default 1%) past which the whole
// layer becomes ValidationFailed instead of a collection of warnings.
func Normalize(fc FeatureCollection, spec LayerSpec, maxDropRate float64) (Result, error) {
	const op = "normalize.Normalize"
	result := Result{Boundaries: make([]boundarytype.Boundary, 0, len(fc.Features))}

	for i, f := range fc.Features {
		b, warn, err := normalizeFeature(i, f, spec)
		if err != nil {
			return result, err // UnknownRegion halt, per spec.md §4.2
		}
		if warn != nil {
			result.Warnings = append(result.Warnings, *warn)
			log.WithField("feature_index", i).WithField("reason", warn.Reason).Warn("dropped feature")
			continue
		}
		result.Boundaries = append(result.Boundaries, b)
	}

	if result.DropRate(len(fc.Features)) > maxDropRate {
		return result, atlaserr.New(atlaserr.KindValidationFailed, op,
			fmt.Sprintf("drop rate %.4f exceeds ceiling %.4f for layer %s", result.DropRate(len(fc.Features)), maxDropRate, spec.LayerType))
	}
	return result, nil
}

func normalizeFeature(index int, f Feature, spec LayerSpec) (boundarytype.Boundary, *Warning, error) {
	// Step 1: accept only Polygon/MultiPolygon.
	if f.GeometryKind != KindPolygon && f.GeometryKind != KindMultiPolygon {
		return boundarytype.Boundary{}, &Warning{FeatureIndex: index, Reason: fmt.Sprintf("unsupported geometry kind %q", f.GeometryKind)}, nil
	}

	// Step 2: resolve id/name by prioritized attribute list.
	id, ok := resolveAttribute(f.Properties, spec.IDAttributes)
	if !ok {
		return boundarytype.Boundary{}, &Warning{FeatureIndex: index, Reason: "missing id"}, nil
	}
	name, _ := resolveAttribute(f.Properties, spec.NameAttributes)

	// Step 3: derive country/region.
	country := spec.CountryCode
	region, regionOK := resolveRegion(id, f.Properties, spec)
	if !regionOK && !spec.AllowUnknownRegion {
		return boundarytype.Boundary{}, nil, atlaserr.New(atlaserr.KindInvalidInput, "normalize.normalizeFeature",
			fmt.Sprintf("unknown region for id %q", id))
	}

	// Step 4/5: normalize geometry, drop on empty/invalid.
	normalized := make([]geo.Polygon, 0, len(f.Polygons))
	for _, poly := range f.Polygons {
		np := geo.Normalize(poly)
		if !geo.IsValid(np) {
			continue
		}
		normalized = append(normalized, np)
	}
	if len(normalized) == 0 {
		return boundarytype.Boundary{}, &Warning{FeatureIndex: index, Reason: "empty or invalid geometry after normalization"}, nil
	}

	b := boundarytype.Boundary{
		ID:             id,
		Name:           name,
		LayerType:      spec.LayerType,
		Jurisdiction:   region,
		Geometry:       normalized,
		Vintage:        spec.Vintage,
		AuthorityLevel: spec.AuthorityLevel,
		CountryCode:    country,
		RegionCode:     region,
	}
	if !b.Valid() {
		return boundarytype.Boundary{}, &Warning{FeatureIndex: index, Reason: "boundary failed invariant check after normalization"}, nil
	}
	return b, nil, nil
}

func resolveRegion(id string, props map[string]string, spec LayerSpec) (string, bool) {
	if spec.RegionAttribute != "" {
		if v, ok := props[spec.RegionAttribute]; ok && v != "" {
			return v, true
		}
	}
	if spec.RegionPrefixLen > 0 && len(id) >= spec.RegionPrefixLen {
		return id[:spec.RegionPrefixLen], true
	}
	return "", false
}
