package cell

import "github.com/shadowatlas/atlas/poseidon"

// LeafHash is the Merkle leaf value a Cell contributes to its region's
// cell-leaf tree (spec.md §4.7: "Cell-leaf ... commits to every
// geographic cell worldwide together with the full list of districts
// each cell belongs to"). It binds the cell's identity and every
// district slot value into one field element.
func (c Cell) LeafHash() poseidon.Field {
	slotsDigest := c.DistrictSlots[0]
	if len(c.DistrictSlots) > 1 {
		slotsDigest = poseidon.HashN(c.DistrictSlots)
	}
	parts := []poseidon.Field{
		poseidon.HashString([]byte(c.ID)),
		poseidon.HashString([]byte(c.CountryCode)),
		poseidon.HashString([]byte(c.RegionCode)),
		slotsDigest,
	}
	return poseidon.HashN(parts)
}
