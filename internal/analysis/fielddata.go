// Package analysis implements the field analysis pipeline: the FieldData
// working container, the analyzer registry and chain engine, and the full
// analyzer set (tokenizers, normalizers, stemmer, typed-value analyzers).
package analysis

import (
	"fmt"

	"github.com/bibliofonds/recindex/internal/schema"
)

// Posting is a term annotated with its ordinal position inside its source
// value, enabling phrase and proximity queries.
type Posting struct {
	Term     string
	Position int
}

// Bin names one of the mutable output buffers of a FieldData.
type Bin int

const (
	BinTerms Bin = iota
	BinPostings
	BinKeywords
	BinSpellings
)

// FieldData is the working memory of one analyzer-chain invocation: the raw
// content of a single leaf field occurrence plus the output bins the chain
// fills in. One instance exists per leaf field per document and is owned by
// a single goroutine; it is not safe for concurrent use.
//
// Terms and Postings are grouped: one sub-slice per source content value,
// so that positional information stays scoped to the value it came from.
// Analyzers that emit flat results append single-group entries.
type FieldData struct {
	Field   *schema.Field
	Content []any

	Terms      [][]string
	Postings   [][]Posting
	Keywords   []string
	Attributes []any
	Spellings  []string

	// Schema is the owning schema context, or nil when the chain runs
	// outside indexing (e.g. analyzing a query string). Stopword removal
	// is a no-op without it.
	Schema *schema.Schema
}

// New seeds a FieldData for one leaf field with its raw content values.
func New(field *schema.Field, content []any, sc *schema.Schema) *FieldData {
	return &FieldData{
		Field:   field,
		Content: content,
		Schema:  sc,
	}
}

// Map applies transform element-wise across the named bins, descending into
// nested groups. Returning ok=false removes the entry. Relative order among
// surviving entries is preserved; posting positions survive the transform
// untouched.
func (d *FieldData) Map(bins []Bin, transform func(string) (string, bool)) {
	for _, bin := range bins {
		switch bin {
		case BinTerms:
			for i, group := range d.Terms {
				out := group[:0]
				for _, term := range group {
					if t, ok := transform(term); ok {
						out = append(out, t)
					}
				}
				d.Terms[i] = out
			}
		case BinPostings:
			for i, group := range d.Postings {
				out := group[:0]
				for _, p := range group {
					if t, ok := transform(p.Term); ok {
						p.Term = t
						out = append(out, p)
					}
				}
				d.Postings[i] = out
			}
		case BinKeywords:
			out := d.Keywords[:0]
			for _, k := range d.Keywords {
				if t, ok := transform(k); ok {
					out = append(out, t)
				}
			}
			d.Keywords = out
		case BinSpellings:
			out := d.Spellings[:0]
			for _, s := range d.Spellings {
				if t, ok := transform(s); ok {
					out = append(out, t)
				}
			}
			d.Spellings = out
		}
	}
}

// TermList flattens the grouped terms bin into the uniform shape consumed by
// the store adapter.
func (d *FieldData) TermList() []string {
	var out []string
	for _, group := range d.Terms {
		out = append(out, group...)
	}
	return out
}

// PostingList flattens the grouped postings bin, keeping positions.
func (d *FieldData) PostingList() []Posting {
	var out []Posting
	for _, group := range d.Postings {
		out = append(out, group...)
	}
	return out
}

// ContentStrings returns the content values coerced to strings. Non-string
// scalars are formatted with their natural Go representation.
func (d *FieldData) ContentStrings() []string {
	out := make([]string, len(d.Content))
	for i, v := range d.Content {
		out[i] = scalarString(v)
	}
	return out
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
