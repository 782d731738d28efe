package global

// continentOf maps ISO-3166-1 alpha-2 country codes to their continental
// grouping tag (SPEC_FULL.md continental grouping table). This module
// ships the countries needed by its US/GB fixtures plus enough
// neighbors to exercise multi-country continent roots; extending
// coverage is an additive, data-only change.
var continentOf = map[string]string{
	"US": "NORTH_AMERICA",
	"CA": "NORTH_AMERICA",
	"MX": "NORTH_AMERICA",
	"GB": "EUROPE",
	"FR": "EUROPE",
	"DE": "EUROPE",
	"ES": "EUROPE",
	"IT": "EUROPE",
	"JP": "ASIA",
	"IN": "ASIA",
	"CN": "ASIA",
	"AU": "OCEANIA",
	"NZ": "OCEANIA",
	"BR": "SOUTH_AMERICA",
	"AR": "SOUTH_AMERICA",
	"ZA": "AFRICA",
	"NG": "AFRICA",
	"EG": "AFRICA",
}

// ContinentOf returns the continental grouping tag for countryCode, and
// false if the country is not yet registered in the grouping table.
// There is no fallback grouping: callers (global.Build, engine's proof
// lookup) treat a false here as an input error, not an UNKNOWN bucket.
func ContinentOf(countryCode string) (string, bool) {
	c, ok := continentOf[countryCode]
	return c, ok
}
