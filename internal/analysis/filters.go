package analysis

import (
	"github.com/kljensen/snowball"
)

// RemoveStopwords removes, from both terms and postings, every token present
// in the schema's stopword set. Matching is exact against already-normalized
// tokens, so this must run after tokenization and before stemming. Without a
// schema context (query-time analysis) it is a no-op.
type RemoveStopwords struct{}

func (RemoveStopwords) Name() string { return "remove-stopwords" }

func (RemoveStopwords) Analyze(d *FieldData) {
	if d.Schema == nil {
		return
	}
	d.Map([]Bin{BinTerms, BinPostings}, func(term string) (string, bool) {
		if d.Schema.IsStopword(term) {
			return "", false
		}
		return term, true
	})
}

// Stem replaces each surviving term and posting with its snowball stem.
// Applied through the Map contract so posting positions are preserved.
// Must run after stopword removal.
type Stem struct {
	language string
}

// NewStem builds the stemmer for the given snowball language. Empty
// defaults to french, the primary corpus language.
func NewStem(language string) Stem {
	if language == "" {
		language = "french"
	}
	return Stem{language: language}
}

func (Stem) Name() string { return "stem" }

func (s Stem) Analyze(d *FieldData) {
	d.Map([]Bin{BinTerms, BinPostings}, func(term string) (string, bool) {
		stemmed, err := snowball.Stem(term, s.language, false)
		if err != nil || stemmed == "" {
			return term, true
		}
		return stemmed, true
	})
}

// Spellings copies the current terms and postings verbatim into the spelling
// bin. Deduplication is the store adapter's concern.
type Spellings struct{}

func (Spellings) Name() string { return "spellings" }

func (Spellings) Analyze(d *FieldData) {
	d.Spellings = append(d.Spellings, d.TermList()...)
	for _, p := range d.PostingList() {
		d.Spellings = append(d.Spellings, p.Term)
	}
}
