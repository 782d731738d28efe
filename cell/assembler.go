package cell

import (
	"fmt"
	"sort"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// CellGeometry is one partitioning geographic unit before district
// assignment — e.g. one Census Block Group polygon with its own stable
// id (spec.md §4.5 step 1: "obtain the partitioning geometry").
type CellGeometry struct {
	ID          string
	CountryCode string
	RegionCode  string
	Polygon     geo.Polygon
	Population  int
}

// Assemble runs spec.md §4.5's spatial join: for every CellGeometry, and
// for every layer in table, find the unique boundary of that layer whose
// geometry contains the cell's representative point (pole of
// inaccessibility, never centroid — a concave polygon's centroid can
// fall outside it). boundariesByLayer groups normalized Boundaries by
// LayerType; within a layer, Assemble does not assume any particular
// order.
func Assemble(geoms []CellGeometry, boundariesByLayer map[boundarytype.LayerType][]boundarytype.Boundary, table CountrySlotTable) ([]Cell, error) {
	const op = "cell.Assemble"
	cells := make([]Cell, 0, len(geoms))

	for _, g := range geoms {
		representative := geo.PoleOfInaccessibility(g.Polygon)
		slots := make([]poseidon.Field, table.N())
		ids := make([]string, table.N())
		for i := range slots {
			slots[i] = poseidon.EmptySlotPlaceholder
		}

		for _, layer := range table.Slots {
			idx := table.SlotIndex(layer)
			matches := matchingBoundaries(boundariesByLayer[layer], representative)
			switch len(matches) {
			case 0:
				// layer vacant in this region: canonical zero stands.
			case 1:
				slots[idx] = districtSlotHash(matches[0])
				ids[idx] = matches[0].ID
			default:
				ids2 := boundaryIDs(matches)
				return nil, atlaserr.InvariantViolated(op,
					fmt.Sprintf("OverlappingBoundaries(%s, %s, %v)", layer, g.ID, ids2))
			}
		}

		cells = append(cells, Cell{
			ID:            g.ID,
			CountryCode:   g.CountryCode,
			RegionCode:    g.RegionCode,
			DistrictSlots: slots,
			DistrictIDs:   ids,
			Population:    g.Population,
		})
	}

	sort.Slice(cells, func(i, j int) bool { return cells[i].ID < cells[j].ID })
	return cells, nil
}

// districtSlotHash computes a district slot's occupied value using the
// same leaf formula spec.md §4.6 defines for boundary leaves, so a
// district hash observed in a cell is reproducible from the boundary
// alone.
func districtSlotHash(b boundarytype.Boundary) poseidon.Field {
	var provenanceDigest *poseidon.Field
	if d, ok := b.ProvenanceDigest(); ok {
		provenanceDigest = &d
	}
	return merkletree.ComputeLeaf(string(b.LayerType), b.ID, b.GeometryDigest(), b.AuthorityLevel, provenanceDigest)
}

func matchingBoundaries(candidates []boundarytype.Boundary, pt geo.Point) []boundarytype.Boundary {
	var out []boundarytype.Boundary
	for _, b := range candidates {
		if b.Contains(pt) {
			out = append(out, b)
		}
	}
	return out
}

func boundaryIDs(bs []boundarytype.Boundary) []string {
	ids := make([]string, len(bs))
	for i, b := range bs {
		ids[i] = b.ID
	}
	return ids
}
