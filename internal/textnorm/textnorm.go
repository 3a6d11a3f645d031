// Package textnorm provides the canonical token normalisation used across
// the indexing pipeline: Unicode case folding plus diacritic stripping.
// Stopword lists and analyzer output must agree on this form, so both the
// schema loader and the analyzers call into it.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lower-cases s and removes combining diacritical marks, so that
// "Éléphant" becomes "elephant". If the transform fails on malformed input
// the lowercased original is returned unchanged.
func Fold(s string) string {
	s = strings.ToLower(s)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return out
}
