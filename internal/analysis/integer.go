package analysis

import (
	"strconv"
	"strings"
)

// Integer emits one keyword per content value: the value coerced to its
// canonical base-10 form, with no leading zeros, grouping, or locale
// separators. Malformed values degrade to a best-effort prefix parse rather
// than aborting the document.
type Integer struct{}

func (Integer) Name() string { return "integer" }

func (Integer) Analyze(d *FieldData) {
	for _, v := range d.Content {
		d.Keywords = append(d.Keywords, strconv.FormatInt(CoerceInt(v), 10))
	}
}

// CoerceInt converts a scalar to an int64, reading the longest leading
// integer of a string and falling back to 0 when nothing numeric is found.
func CoerceInt(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		// Longest parseable prefix, the usual loose-input behaviour.
		end := 0
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' || (end == 0 && (c == '-' || c == '+')) {
				end++
				continue
			}
			break
		}
		if i, err := strconv.ParseInt(s[:end], 10, 64); err == nil {
			return i
		}
		return 0
	default:
		return 0
	}
}
