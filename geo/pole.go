package geo

import "math"

// poleGridResolution controls the search grid for the pole of
// inaccessibility approximation below.
const poleGridResolution = 64

// distanceToRingBoundary returns the planar distance from pt to the
// nearest edge of ring (not signed; callers combine with Contains to get
// a signed inside/outside distance).
func distanceToRingBoundary(ring Ring, pt Point) float64 {
	best := math.Inf(1)
	for i := 0; i < len(ring)-1; i++ {
		d := distanceToSegment(ring[i], ring[i+1], pt)
		if d < best {
			best = d
		}
	}
	return best
}

func distanceToSegment(a, b, pt Point) float64 {
	dx, dy := b.Lon-a.Lon, b.Lat-a.Lat
	if dx == 0 && dy == 0 {
		return math.Hypot(pt.Lon-a.Lon, pt.Lat-a.Lat)
	}
	t := ((pt.Lon-a.Lon)*dx + (pt.Lat-a.Lat)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	projLon := a.Lon + t*dx
	projLat := a.Lat + t*dy
	return math.Hypot(pt.Lon-projLon, pt.Lat-projLat)
}

// PoleOfInaccessibility approximates the point inside the polygon that
// is farthest from any boundary edge, via a fixed-resolution grid search
// over the polygon's bounding box — deterministic and dependency-free,
// unlike Mapbox's polylabel (not present anywhere in the retrieval pack).
// spec.md §4.5 requires this rather than the centroid because a
// concave polygon's centroid can fall outside the polygon itself.
func PoleOfInaccessibility(p Polygon) Point {
	minLon, minLat, maxLon, maxLat := boundingBox(p)
	dLon := (maxLon - minLon) / poleGridResolution
	dLat := (maxLat - minLat) / poleGridResolution

	var best Point
	bestDist := -1.0
	found := false
	for i := 0; i <= poleGridResolution; i++ {
		lon := minLon + float64(i)*dLon
		for j := 0; j <= poleGridResolution; j++ {
			lat := minLat + float64(j)*dLat
			pt := Point{Lon: lon, Lat: lat}
			if !p.Contains(pt) {
				continue
			}
			d := distanceToRingBoundary(p.Exterior, pt)
			for _, h := range p.Holes {
				hd := distanceToRingBoundary(h, pt)
				if hd < d {
					d = hd
				}
			}
			if d > bestDist {
				bestDist = d
				best = pt
				found = true
			}
		}
	}
	if !found {
		// Degenerate polygon (e.g. a sliver too thin for the grid to hit
		// any interior sample): fall back to the first exterior vertex,
		// which is guaranteed to be on the polygon.
		return p.Exterior[0]
	}
	return best
}
