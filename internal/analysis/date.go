package analysis

import "strings"

// monthTerms maps a two-digit month code to its searchable name variants:
// canonical form and abbreviation in English and French. French forms are
// emitted pre-folded (no diacritics) since this analyzer runs without prior
// normalization.
var monthTerms = map[string][]string{
	"01": {"january", "jan", "janvier", "janv"},
	"02": {"february", "feb", "fevrier", "fevr"},
	"03": {"march", "mar", "mars"},
	"04": {"april", "apr", "avril", "avr"},
	"05": {"may", "mai"},
	"06": {"june", "jun", "juin"},
	"07": {"july", "jul", "juillet", "juil"},
	"08": {"august", "aug", "aout"},
	"09": {"september", "sep", "septembre", "sept"},
	"10": {"october", "oct", "octobre"},
	"11": {"november", "nov", "novembre"},
	"12": {"december", "dec", "decembre"},
}

// Date derives searchable terms from compact year-month-day values. Content
// is reduced to digits by stripping "/", "-", "(" and ")". A value of four
// digits or fewer passes through unchanged (a bare year or an ambiguous
// fragment). Longer values expand into the month's name variants, the year,
// the six-digit year+month compound, and, when a day is present, the full
// eight-digit value and the bare day. Unknown month codes still yield the
// year-based terms. Self-sufficient: no prior normalization required.
type Date struct{}

func (Date) Name() string { return "date" }

func (Date) Analyze(d *FieldData) {
	for _, v := range d.Content {
		d.Terms = append(d.Terms, dateTerms(scalarString(v)))
	}
}

func dateTerms(raw string) []string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '-', '(', ')':
			return -1
		}
		return r
	}, raw)

	// Five digits cannot split into year and month unambiguously, so they
	// pass through like the other non-canonical shapes.
	if len(s) <= 5 || len(s) > 8 || !allDigits(s) {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var terms []string
	year, month := s[0:4], s[4:6]
	if len(s) > 6 {
		terms = append(terms, s)
	}
	terms = append(terms, monthTerms[month]...)
	terms = append(terms, s[0:6], year)
	if len(s) > 6 {
		terms = append(terms, s[6:])
	}
	return terms
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
