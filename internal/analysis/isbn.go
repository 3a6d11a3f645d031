package analysis

import "strings"

// BadISBN is the sentinel keyword emitted for malformed ISBN content, so
// that bad data stays findable instead of aborting the document.
const BadISBN = "__bad"

// ISBN validates each content value as an ISBN-10 or ISBN-13 and emits
// exact-match keywords. A valid ISBN-10 additionally yields its computed
// ISBN-13 equivalent so both forms are searchable. Anything malformed
// (wrong length, bad checksum) emits the BadISBN sentinel.
type ISBN struct{}

func (ISBN) Name() string { return "isbn" }

func (ISBN) Analyze(d *FieldData) {
	for _, v := range d.Content {
		d.Keywords = append(d.Keywords, isbnKeywords(scalarString(v))...)
	}
}

func isbnKeywords(raw string) []string {
	s := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == 'x' || r == 'X' {
			return r
		}
		return -1
	}, raw)

	switch len(s) {
	case 10:
		if !validISBN10(s) {
			return []string{BadISBN}
		}
		return []string{s, isbn10to13(s)}
	case 13:
		if !validISBN13(s) {
			return []string{BadISBN}
		}
		return []string{s}
	default:
		return []string{BadISBN}
	}
}

// validISBN10 checks the weighted checksum: weights 10 down to 2 over the
// first nine digits plus the check character, where X counts as 10, must be
// divisible by 11.
func validISBN10(s string) bool {
	sum := 0
	for i := 0; i < 9; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * (10 - i)
	}
	switch c := s[9]; {
	case c >= '0' && c <= '9':
		sum += int(c - '0')
	case c == 'x' || c == 'X':
		sum += 10
	default:
		return false
	}
	return sum%11 == 0
}

// validISBN13 checks the alternating 1/3 weighted checksum over all
// thirteen digits, which must be divisible by 10.
func validISBN13(s string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += int(c-'0') * w
	}
	return sum%10 == 0
}

// isbn10to13 converts a valid ISBN-10 to its ISBN-13 form: prefix "978",
// keep the first nine digits, and recompute the check digit with alternating
// 1/3 weights. The prefix contributes a fixed partial checksum of 38
// (9*1 + 7*3 + 8*1).
func isbn10to13(s string) string {
	digits := s[:9]
	sum := 38
	for i := 0; i < 9; i++ {
		w := 3
		if i%2 == 1 {
			w = 1
		}
		sum += int(digits[i]-'0') * w
	}
	check := (10 - sum%10) % 10
	return "978" + digits + string(rune('0'+check))
}
