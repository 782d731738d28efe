package normalize

import "github.com/shadowatlas/atlas/boundarytype"

// LayerSpec describes how to pull a canonical id/name/region out of one
// upstream layer's varying attribute names (spec.md §4.2's "dynamic
// upstream payload shapes" re-architecture, §9): the mapping is data, not
// code paths.
type LayerSpec struct {
	LayerType boundarytype.LayerType

	// IDAttributes is the prioritized list of candidate property keys
	// that may carry the canonical id; the first one present on a
	// feature wins.
	IDAttributes []string
	// NameAttributes is the same, for the canonical name.
	NameAttributes []string

	// CountryCode is used directly when every feature in this layer
	// belongs to one country (the common case).
	CountryCode string
	// RegionAttribute, if set, names the upstream property carrying the
	// region code directly.
	RegionAttribute string
	// RegionPrefixLen, if non-zero, derives the region code from the
	// first RegionPrefixLen characters of the resolved id (e.g. a UK ONS
	// code's first letter identifies the country/region family).
	RegionPrefixLen int

	// AllowUnknownRegion permits features whose region cannot be
	// resolved to fall into an "unknown" bucket (RegionCode == "") rather
	// than halting normalization (spec.md §4.2's UnknownRegion rule).
	AllowUnknownRegion bool

	Vintage        int
	AuthorityLevel int
}

// resolveAttribute returns the first present value among candidates, and
// whether any candidate matched.
func resolveAttribute(props map[string]string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if v, ok := props[c]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}
