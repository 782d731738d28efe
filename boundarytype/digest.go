package boundarytype

import (
	"fmt"
	"strings"

	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/poseidon"
)

// GeometryDigest implements spec.md §4.6's geometry_digest. §4.6/§6
// name the canonical form as "canonicalized GeoJSON serialization
// (sorted keys, no whitespace)"; this function deviates from that
// literal wire format and instead hashes a fixed-precision (%.6f),
// ring-normalized coordinate listing (normalize.Normalize already
// applied winding/closure/snapping before a Boundary exists), since no
// GeoJSON encoder is wired into this module. The deviation is safe for
// every internal use (the digest only has to be stable and
// order-sensitive across rebuilds, which this serialization is) but it
// is NOT byte-compatible with an external geometry_digest computed
// against sorted-key GeoJSON text — a cross-implementation verifier
// would need to reproduce this exact coordinate-listing format, not
// the GeoJSON one §6 describes.
func (b Boundary) GeometryDigest() poseidon.Field {
	var sb strings.Builder
	for _, poly := range b.Geometry {
		writeRing(&sb, poly.Exterior)
		for _, hole := range poly.Holes {
			sb.WriteString("|H|")
			writeRing(&sb, hole)
		}
		sb.WriteString(";")
	}
	return poseidon.HashString([]byte(sb.String()))
}

func writeRing(sb *strings.Builder, ring geo.Ring) {
	for _, pt := range ring {
		fmt.Fprintf(sb, "%.6f,%.6f;", pt.Lon, pt.Lat)
	}
}

// ProvenanceDigest returns hash_string of the provenance source's
// identifying bytes, and false if the boundary carries no provenance —
// spec.md §4.6: the provenance digest is included in the leaf hash if
// and only if provenance_source is present.
func (b Boundary) ProvenanceDigest() (poseidon.Field, bool) {
	if b.Provenance == nil {
		return poseidon.Field{}, false
	}
	s := fmt.Sprintf("%s|%x|%s", b.Provenance.OriginURL, b.Provenance.ContentHash, b.Provenance.DataSourceOrg)
	return poseidon.HashString([]byte(s)), true
}
