// Package boundarytype defines the canonical Boundary data model spec.md
// §3 describes: the closed LayerType enum, provenance, and the
// normalized polygon a Boundary carries after ingestion.
package boundarytype

// LayerType is the closed enum of administrative/electoral layer kinds
// spec.md §3 requires. Reference layers (CensusTract, Zip, Metro) never
// enter proofs — they exist only to support cross-referencing and are
// never assigned a district_slots index.
type LayerType string

const (
	Congressional    LayerType = "congressional"
	StateUpper       LayerType = "state-upper"
	StateLower       LayerType = "state-lower"
	County           LayerType = "county"
	City             LayerType = "city"
	CouncilWard      LayerType = "council-ward"
	SchoolUnified    LayerType = "school-unified"
	SchoolElementary LayerType = "school-elementary"
	SchoolSecondary  LayerType = "school-secondary"
	VotingPrecinct   LayerType = "voting-precinct"
	Fire             LayerType = "fire"
	Water            LayerType = "water"
	Utility          LayerType = "utility"
	Transit          LayerType = "transit"
	Library          LayerType = "library"
	Hospital         LayerType = "hospital"
	Judicial         LayerType = "judicial"
	Tribal           LayerType = "tribal"

	// Reference layers never enter proofs (spec.md §3).
	CensusTract LayerType = "census-tract"
	Zip         LayerType = "zip"
	Metro       LayerType = "metro"
)

// referenceLayers never participate in district_slots assignment.
var referenceLayers = map[LayerType]bool{
	CensusTract: true,
	Zip:         true,
	Metro:       true,
}

// IsReference reports whether lt is a reference layer that never enters
// a proof.
func (lt LayerType) IsReference() bool {
	return referenceLayers[lt]
}

var validLayers = map[LayerType]bool{
	Congressional: true, StateUpper: true, StateLower: true, County: true,
	City: true, CouncilWard: true, SchoolUnified: true, SchoolElementary: true,
	SchoolSecondary: true, VotingPrecinct: true, Fire: true, Water: true,
	Utility: true, Transit: true, Library: true, Hospital: true,
	Judicial: true, Tribal: true, CensusTract: true, Zip: true, Metro: true,
}

// Valid reports whether lt is one of the closed enum's declared values.
func (lt LayerType) Valid() bool {
	return validLayers[lt]
}
