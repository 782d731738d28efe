// Package cell implements spec.md §4.5's cell assembler: the spatial join
// that produces, for every geographic cell in a country, a fully
// populated district_slots vector.
package cell

import "github.com/shadowatlas/atlas/poseidon"

// Cell is a Merkle leaf: a geographic unit together with the district it
// belongs to at every administrative layer the country tracks (spec.md
// §3).
type Cell struct {
	ID          string // stable opaque identifier, e.g. a 12-digit GEOID
	CountryCode string
	RegionCode  string
	// DistrictSlots holds one entry per CountrySlotTable position. An
	// unoccupied slot is the canonical zero poseidon.EmptySlotPlaceholder.
	DistrictSlots []poseidon.Field
	// DistrictIDs mirrors DistrictSlots with the source boundary id, or
	// "" for an unoccupied slot; retained for proof witnesses and
	// diagnostics, never hashed directly.
	DistrictIDs []string
	Population  int // optional, 0 if unknown
}

// Valid checks the cell-level invariant from spec.md §3: every cell in a
// country has the same N, matching the registered CountrySlotTable.
func (c Cell) Valid(table CountrySlotTable) bool {
	if c.CountryCode != table.CountryCode {
		return false
	}
	return len(c.DistrictSlots) == table.N() && len(c.DistrictIDs) == table.N()
}
