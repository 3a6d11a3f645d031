package analysis

import (
	"reflect"
	"testing"
)

func TestMapPreservesNestedShape(t *testing.T) {
	d := &FieldData{
		Terms: [][]string{{"a", "b"}, {"c"}},
	}
	d.Map([]Bin{BinTerms}, func(term string) (string, bool) {
		if term == "b" {
			return "", false
		}
		return term, true
	})
	want := [][]string{{"a"}, {"c"}}
	if !reflect.DeepEqual(d.Terms, want) {
		t.Errorf("Terms = %v, want %v", d.Terms, want)
	}
}

func TestMapKeepsPostingPositions(t *testing.T) {
	d := &FieldData{
		Postings: [][]Posting{
			{{Term: "the", Position: 0}, {Term: "quick", Position: 1}, {Term: "fox", Position: 2}},
		},
	}
	d.Map([]Bin{BinPostings}, func(term string) (string, bool) {
		if term == "the" {
			return "", false
		}
		return term + "!", true
	})
	want := [][]Posting{
		{{Term: "quick!", Position: 1}, {Term: "fox!", Position: 2}},
	}
	if !reflect.DeepEqual(d.Postings, want) {
		t.Errorf("Postings = %v, want %v", d.Postings, want)
	}
}

func TestMapOverFlatBins(t *testing.T) {
	d := &FieldData{
		Keywords:  []string{"keep", "drop", "keep2"},
		Spellings: []string{"one", "drop", "two"},
	}
	d.Map([]Bin{BinKeywords, BinSpellings}, func(s string) (string, bool) {
		if s == "drop" {
			return "", false
		}
		return s, true
	})
	if want := []string{"keep", "keep2"}; !reflect.DeepEqual(d.Keywords, want) {
		t.Errorf("Keywords = %v, want %v", d.Keywords, want)
	}
	if want := []string{"one", "two"}; !reflect.DeepEqual(d.Spellings, want) {
		t.Errorf("Spellings = %v, want %v", d.Spellings, want)
	}
}

func TestFlatten(t *testing.T) {
	d := &FieldData{
		Terms:    [][]string{{"a", "b"}, nil, {"c"}},
		Postings: [][]Posting{{{Term: "a", Position: 0}}, {{Term: "c", Position: 0}, {Term: "d", Position: 1}}},
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(d.TermList(), want) {
		t.Errorf("TermList = %v, want %v", d.TermList(), want)
	}
	postings := d.PostingList()
	if len(postings) != 3 || postings[2].Term != "d" || postings[2].Position != 1 {
		t.Errorf("PostingList = %v", postings)
	}
}

func TestContentStrings(t *testing.T) {
	d := New(nil, []any{"abc", 42, true, nil}, nil)
	want := []string{"abc", "42", "true", ""}
	if got := d.ContentStrings(); !reflect.DeepEqual(got, want) {
		t.Errorf("ContentStrings = %v, want %v", got, want)
	}
}
