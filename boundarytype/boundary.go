package boundarytype

import (
	"time"

	"github.com/shadowatlas/atlas/geo"
)

// ProvenanceSource binds a Boundary to its upstream origin: the bytes
// that make this observable in the leaf hash (spec.md §4.6) but never a
// proof input.
type ProvenanceSource struct {
	OriginURL     string
	ContentHash   [32]byte
	RetrievedAt   time.Time
	DataSourceOrg string
}

// Boundary is a single administrative polygon, immutable once created by
// normalization (spec.md §3). Geometry may be a single Polygon or a
// MultiPolygon; MultiPolygon is represented as len(Geometry) > 1.
type Boundary struct {
	ID             string
	Name           string
	LayerType      LayerType
	Jurisdiction   string
	Geometry       []geo.Polygon // one element: Polygon; many: MultiPolygon
	Vintage        int
	AuthorityLevel int // 1..5
	CountryCode    string
	RegionCode     string
	Provenance     *ProvenanceSource // nil if no provenance recorded
}

// Valid checks the spec.md §3 Boundary invariants that are local to a
// single Boundary (geometry validity, coordinate bounds, authority
// level range). Cross-Boundary invariants (stable id across re-fetches,
// cell partitioning) are checked by normalize/ and cell/ respectively.
func (b Boundary) Valid() bool {
	if b.ID == "" {
		return false
	}
	if b.AuthorityLevel < 1 || b.AuthorityLevel > 5 {
		return false
	}
	if len(b.Geometry) == 0 {
		return false
	}
	for _, poly := range b.Geometry {
		if !geo.IsValid(poly) || !geo.InBounds(poly) {
			return false
		}
	}
	return true
}

// Area sums the area of every polygon in a (Multi)Polygon geometry.
func (b Boundary) Area() float64 {
	total := 0.0
	for _, poly := range b.Geometry {
		total += poly.Area()
	}
	return total
}

// Contains reports whether pt lies in any of the Boundary's constituent
// polygons.
func (b Boundary) Contains(pt geo.Point) bool {
	for _, poly := range b.Geometry {
		if poly.Contains(pt) {
			return true
		}
	}
	return false
}
