// Package normalize implements spec.md §4.2's boundary normalizer:
// coercing an opaque upstream payload (GeoJSON FeatureCollection or
// equivalent) into an ordered sequence of canonical Boundaries.
package normalize

import "github.com/shadowatlas/atlas/geo"

// GeometryKind mirrors the GeoJSON geometry "type" field. Only Polygon
// and MultiPolygon are accepted; everything else is rejected with a
// warning (spec.md §4.2 step 1).
type GeometryKind string

const (
	KindPolygon      GeometryKind = "Polygon"
	KindMultiPolygon GeometryKind = "MultiPolygon"
	KindPoint        GeometryKind = "Point"
	KindLineString   GeometryKind = "LineString"
)

// Feature is one upstream GeoJSON Feature, already parsed into Polygon
// rings so this package stays decoupled from any one GeoJSON decoding
// library (the provider adapter that produced this payload did that
// parsing and content-hashing work, per spec.md §4.3/§6).
type Feature struct {
	GeometryKind GeometryKind
	Polygons     []geo.Polygon // populated only for Polygon/MultiPolygon kinds
	Properties   map[string]string
}

// FeatureCollection is the provider adapter's normalized transport
// envelope for one upstream payload (spec.md §6 inbound contract).
type FeatureCollection struct {
	Features []Feature
}
