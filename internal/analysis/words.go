package analysis

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bibliofonds/recindex/internal/textnorm"
)

// acronymRe matches runs of 2 to 9 single letters joined by dots or dashes
// ("u.s.a.", "j-c"), which collapse into one token before splitting. Dotted
// numerics like "1.2" stay separate tokens.
var acronymRe = regexp.MustCompile(`\b\pL(?:[.\-]\pL){1,8}\.?\b`)

// isWordRune reports whether r belongs to the fixed word-character class:
// letters, digits, @ and _. Everything else separates tokens.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '@' || r == '_'
}

// Tokenize splits normalized text into word tokens. Acronyms collapse into a
// single token; all separator characters are discarded.
func Tokenize(text string) []string {
	text = acronymRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Map(func(r rune) rune {
			if isWordRune(r) {
				return r
			}
			return -1
		}, m)
	})
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
}

// Lowercase case-folds and strips diacritics from every content value in
// place. It must run before any analyzer documented as requiring normalized
// input (words, phrases, remove-stopwords).
type Lowercase struct{}

func (Lowercase) Name() string { return "lowercase" }

func (Lowercase) Analyze(d *FieldData) {
	for i, v := range d.Content {
		d.Content[i] = textnorm.Fold(scalarString(v))
	}
}

// Words tokenizes each normalized content value into an unpositioned term
// group. Precondition: content is already lowercased and unaccented.
type Words struct{}

func (Words) Name() string { return "words" }

func (Words) Analyze(d *FieldData) {
	for _, v := range d.Content {
		d.Terms = append(d.Terms, Tokenize(scalarString(v)))
	}
}

// Phrases tokenizes like Words but records each token's ordinal position
// within its source value, writing postings instead of terms, to support
// exact-phrase and proximity queries. Precondition: normalized content.
type Phrases struct{}

func (Phrases) Name() string { return "phrases" }

func (Phrases) Analyze(d *FieldData) {
	for _, v := range d.Content {
		tokens := Tokenize(scalarString(v))
		group := make([]Posting, len(tokens))
		for i, t := range tokens {
			group[i] = Posting{Term: t, Position: i}
		}
		d.Postings = append(d.Postings, group)
	}
}
