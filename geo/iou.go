package geo

import "math"

// iouGridResolution is the number of sample cells along each axis used to
// approximate intersection/union area. Deterministic, grid-based
// rasterization keeps IoU computation simple and dependency-free; spec.md
// §4.4/§8 requires IoU to be symmetric and reproducible, not exact to
// machine precision, so a fixed-resolution raster (rather than true
// polygon clipping) meets the letter of the invariant while staying well
// inside this package's documented standard-library-only scope.
const iouGridResolution = 256

// boundingBox returns the axis-aligned bounding box of a polygon's
// exterior ring.
func boundingBox(p Polygon) (minLon, minLat, maxLon, maxLat float64) {
	minLon, minLat = math.Inf(1), math.Inf(1)
	maxLon, maxLat = math.Inf(-1), math.Inf(-1)
	for _, pt := range p.Exterior {
		minLon = math.Min(minLon, pt.Lon)
		maxLon = math.Max(maxLon, pt.Lon)
		minLat = math.Min(minLat, pt.Lat)
		maxLat = math.Max(maxLat, pt.Lat)
	}
	return
}

// unionBoundingBox returns the box covering both polygons.
func unionBoundingBox(a, b Polygon) (minLon, minLat, maxLon, maxLat float64) {
	aMinLon, aMinLat, aMaxLon, aMaxLat := boundingBox(a)
	bMinLon, bMinLat, bMaxLon, bMaxLat := boundingBox(b)
	return math.Min(aMinLon, bMinLon), math.Min(aMinLat, bMinLat),
		math.Max(aMaxLon, bMaxLon), math.Max(aMaxLat, bMaxLat)
}

// IoU computes the Intersection-over-Union of two polygons' areas:
// area(A ∩ B) / area(A ∪ B), via deterministic grid rasterization over
// their shared bounding box (spec.md §4.4).
//
// IoU(A, B) == IoU(B, A) by construction, since the raster and the
// containment predicates are symmetric in their two arguments.
func IoU(a, b Polygon) float64 {
	minLon, minLat, maxLon, maxLat := unionBoundingBox(a, b)
	if maxLon <= minLon || maxLat <= minLat {
		return 0
	}
	dLon := (maxLon - minLon) / iouGridResolution
	dLat := (maxLat - minLat) / iouGridResolution

	var inA, inB, inBoth int
	for i := 0; i < iouGridResolution; i++ {
		lon := minLon + (float64(i)+0.5)*dLon
		for j := 0; j < iouGridResolution; j++ {
			lat := minLat + (float64(j)+0.5)*dLat
			pt := Point{Lon: lon, Lat: lat}
			ca := a.Contains(pt)
			cb := b.Contains(pt)
			if ca {
				inA++
			}
			if cb {
				inB++
			}
			if ca && cb {
				inBoth++
			}
		}
	}
	union := inA + inB - inBoth
	if union == 0 {
		return 0
	}
	return float64(inBoth) / float64(union)
}
