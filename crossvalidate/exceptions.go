package crossvalidate

// expectedCountKey identifies one (country, layer type, region) tuple
// for expected-count lookup.
type expectedCountKey struct {
	Country string
	Layer   string
	Region  string
}

// expectedCountExceptions resolves the Wisconsin State Senate Open
// Question from spec.md §9: the published constant for state-upper
// seats is 33 nationally, but Wisconsin's senate districts are
// apportioned 33 active seats across an up-to-34-member chamber
// depending on the redistricting cycle's transition provisions. Rather
// than silently accepting whichever count a source reports, that
// ambiguity is resolved as an explicit, documented per-state exception:
// Wisconsin's expected_count is looked up here before falling back to
// the per-layer published constant. An undocumented deviation anywhere
// else is still CountMismatch.
var expectedCountExceptions = map[expectedCountKey]int{
	{Country: "US", Layer: "state-upper", Region: "WI"}: 33,
}

// ExpectedCount resolves the expected_count for a (country, layer,
// region) tuple, consulting the exception table before falling back to
// publishedConstant (the per-layer published constant, e.g. 650 for UK
// parliamentary constituencies).
func ExpectedCount(country, layer, region string, publishedConstant int) int {
	if count, ok := expectedCountExceptions[expectedCountKey{Country: country, Layer: layer, Region: region}]; ok {
		return count
	}
	return publishedConstant
}
