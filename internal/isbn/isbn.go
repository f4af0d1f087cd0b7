// Package isbn provides ISBN normalization shared by catalog import and
// recommendation matching.
package isbn

import (
	"strings"
	"unicode"
)

// Normalize strips every non-alphanumeric separator (hyphens, whitespace,
// dots) from an ISBN and upper-cases it, so "0-19-853453-1" and "0198534531"
// compare equal. The check digit "x" is upper-cased for the same reason.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Equal reports whether two ISBNs refer to the same book after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
