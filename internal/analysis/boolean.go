package analysis

import "strings"

// Boolean emits keywords for the truthiness of each content value. The base
// analyzer emits a single token per side; the extended variant widens the
// token sets to emit several synonymous tokens so that user queries like
// "on", "1" or "vrai" match as well.
type Boolean struct {
	name        string
	trueTokens  []string
	falseTokens []string
}

// NewBoolean returns the base boolean analyzer emitting "true" / "false".
func NewBoolean() Boolean {
	return Boolean{
		name:        "boolean",
		trueTokens:  []string{"true"},
		falseTokens: []string{"false"},
	}
}

// NewBooleanExtended returns the variant emitting the full synonym sets.
func NewBooleanExtended() Boolean {
	return Boolean{
		name:        "boolean-extended",
		trueTokens:  []string{"true", "on", "1", "vrai"},
		falseTokens: []string{"false", "off", "0", "faux"},
	}
}

func (b Boolean) Name() string { return b.name }

func (b Boolean) Analyze(d *FieldData) {
	for _, v := range d.Content {
		if Truthy(v) {
			d.Keywords = append(d.Keywords, b.trueTokens...)
		} else {
			d.Keywords = append(d.Keywords, b.falseTokens...)
		}
	}
}

// Truthy reports the truthiness of a scalar. Nil, false, numeric zero and
// the strings "", "0", "false", "off" and "faux" are false; everything else
// is true.
func Truthy(v any) bool {
	switch s := v.(type) {
	case nil:
		return false
	case bool:
		return s
	case int:
		return s != 0
	case int64:
		return s != 0
	case float64:
		return s != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "false", "off", "faux", "no":
			return false
		}
		return true
	default:
		return true
	}
}
