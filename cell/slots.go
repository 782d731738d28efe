package cell

import "github.com/shadowatlas/atlas/boundarytype"

// CountrySlotTable fixes the semantic position of each LayerType within a
// country's district_slots vector (spec.md §3: "slot index is a fixed
// semantic position"). The mapping is country-specific because not
// every country shares the same administrative layer catalog.
type CountrySlotTable struct {
	CountryCode string
	Slots       []boundarytype.LayerType // index == district_slots position
}

// SlotIndex returns the district_slots index for lt, or -1 if lt has no
// assigned slot in this country (a valid LayerType need not use every
// slot, per SPEC_FULL.md §E).
func (t CountrySlotTable) SlotIndex(lt boundarytype.LayerType) int {
	for i, s := range t.Slots {
		if s == lt {
			return i
		}
	}
	return -1
}

// N is the fixed per-country district_slots length (spec.md §3).
func (t CountrySlotTable) N() int {
	return len(t.Slots)
}

// USSlotTable is the 14-slot mapping fixed by SPEC_FULL.md §E.
var USSlotTable = CountrySlotTable{
	CountryCode: "US",
	Slots: []boundarytype.LayerType{
		boundarytype.Congressional,
		boundarytype.StateUpper,
		boundarytype.StateLower,
		boundarytype.County,
		boundarytype.City,
		boundarytype.CouncilWard,
		boundarytype.SchoolUnified,
		boundarytype.SchoolElementary,
		boundarytype.SchoolSecondary,
		boundarytype.VotingPrecinct,
		boundarytype.Fire,
		boundarytype.Water,
		boundarytype.Utility,
		boundarytype.Transit,
	},
}

// slotTables is the registry of known CountrySlotTables. New countries
// are added here as their fixed layer catalog is documented.
var slotTables = map[string]CountrySlotTable{
	"US": USSlotTable,
}

// SlotTableFor returns the registered CountrySlotTable for code, or
// false if none is registered yet.
func SlotTableFor(code string) (CountrySlotTable, bool) {
	t, ok := slotTables[code]
	return t, ok
}
