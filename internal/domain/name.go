package domain

import "strings"

// NormalizeName canonicalizes a nation name for comparison. It lowercases the
// name, collapses every run of non-alphanumeric characters into one underscore
// and trims underscores from both ends.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
