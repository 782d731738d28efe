package crossvalidate

import (
	"strings"
)

// NormalizeID implements spec.md §4.4's normalize_id canonicalization:
// uppercase, strip non-alphanumeric, add a 2-digit state prefix when
// missing, zero-pad to minLen. statePrefix is "" when the id already
// carries a jurisdiction prefix or none is known.
func NormalizeID(raw, statePrefix string, minLen int) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			sb.WriteRune(r)
		}
	}
	id := sb.String()

	if statePrefix != "" && !strings.HasPrefix(id, statePrefix) {
		id = statePrefix + id
	}
	for len(id) < minLen {
		id = "0" + id
	}
	return id
}
