package document

import (
	"reflect"
	"testing"

	"github.com/bibliofonds/recindex/internal/schema"
	"github.com/bibliofonds/recindex/pkg/errors"
)

const testSchema = `
name: biblio
fields:
  - {id: 1, name: title, type: text}
  - {id: 2, name: keywords, type: values, repeatable: true}
  - id: 3
    name: authors
    repeatable: true
    fields:
      - {id: 1, name: name, type: text}
      - {id: 2, name: role, type: values}
  - id: 4
    name: publisher
    fields:
      - {id: 1, name: name, type: text}
      - {id: 2, name: city, type: text}
`

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.ParseYAML([]byte(testSchema))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	return s
}

func TestSetGetScalar(t *testing.T) {
	doc := New(mustSchema(t))
	if err := doc.Set("title", "Les Misérables"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := doc.Get("title")
	if err != nil || !ok {
		t.Fatalf("Get: v=%v ok=%v err=%v", v, ok, err)
	}
	if v != "Les Misérables" {
		t.Errorf("got %v", v)
	}
}

func TestUnsetDistinctFromEmpty(t *testing.T) {
	doc := New(mustSchema(t))
	if err := doc.Set("title", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := doc.Get("title"); !ok {
		t.Error("empty string is a set value")
	}
	// nil assignment unsets.
	if err := doc.Set("title", nil); err != nil {
		t.Fatalf("Set(nil): %v", err)
	}
	if _, ok, _ := doc.Get("title"); ok {
		t.Error("nil assignment should unset the field")
	}
	// Empty array unsets a repeatable field.
	if err := doc.Set("keywords", []any{"a"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := doc.Set("keywords", []any{}); err != nil {
		t.Fatalf("Set(empty): %v", err)
	}
	if _, ok, _ := doc.Get("keywords"); ok {
		t.Error("empty array assignment should unset the field")
	}
}

func TestShapeValidation(t *testing.T) {
	doc := New(mustSchema(t))

	// Array into a non-repeatable leaf.
	err := doc.Set("title", []any{"a", "b"})
	if !errors.IsInvalidArgument(err) {
		t.Errorf("array into scalar field: err = %v, want InvalidArgument", err)
	}
	// Scalar into a repeatable leaf.
	err = doc.Set("keywords", "novel")
	if !errors.IsInvalidArgument(err) {
		t.Errorf("scalar into repeatable field: err = %v, want InvalidArgument", err)
	}
	// Nested record into a leaf.
	err = doc.Set("title", map[string]any{"x": 1})
	if !errors.IsInvalidArgument(err) {
		t.Errorf("record into leaf field: err = %v, want InvalidArgument", err)
	}
	// Scalar into a group.
	err = doc.Set("publisher", "Gallimard")
	if !errors.IsInvalidArgument(err) {
		t.Errorf("scalar into group: err = %v, want InvalidArgument", err)
	}
	// Array into a non-repeatable group.
	err = doc.Set("publisher", []any{map[string]any{"name": "Gallimard"}})
	if !errors.IsInvalidArgument(err) {
		t.Errorf("array into non-repeatable group: err = %v, want InvalidArgument", err)
	}
	// Bare record into a repeatable group.
	err = doc.Set("authors", map[string]any{"name": "Victor Hugo"})
	if !errors.IsInvalidArgument(err) {
		t.Errorf("record into repeatable group: err = %v, want InvalidArgument", err)
	}
	// Unknown field name.
	err = doc.Set("nope", "x")
	if !errors.IsNotFound(err) {
		t.Errorf("unknown field: err = %v, want NotFound", err)
	}
}

func TestSetDataUnknownKeyFails(t *testing.T) {
	_, err := NewWithData(mustSchema(t), map[string]any{
		"title":   "ok",
		"unknown": "boom",
	})
	if !errors.IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestRoundTrip(t *testing.T) {
	data := map[string]any{
		"title":    "Les Misérables",
		"keywords": []any{"novel", "france"},
		"authors": []any{
			map[string]any{"name": "Victor Hugo", "role": "070"},
			map[string]any{"name": "Someone Else", "role": "651"},
		},
		"publisher": map[string]any{"name": "Gallimard", "city": "Paris"},
	}
	doc, err := NewWithData(mustSchema(t), data)
	if err != nil {
		t.Fatalf("NewWithData: %v", err)
	}
	got := doc.GetData(GetOptions{})
	if !reflect.DeepEqual(got, data) {
		t.Errorf("round trip mismatch:\ngot  %#v\nwant %#v", got, data)
	}
}

func TestGetDataByID(t *testing.T) {
	doc, err := NewWithData(mustSchema(t), map[string]any{
		"title":     "X",
		"publisher": map[string]any{"city": "Lyon"},
	})
	if err != nil {
		t.Fatalf("NewWithData: %v", err)
	}
	got := doc.GetData(GetOptions{ByID: true})
	want := map[string]any{
		"1": "X",
		"4": map[string]any{"2": "Lyon"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestCollapseSingleIsOptIn(t *testing.T) {
	doc, err := NewWithData(mustSchema(t), map[string]any{
		"authors": []any{map[string]any{"name": "Solo"}},
	})
	if err != nil {
		t.Fatalf("NewWithData: %v", err)
	}

	got := doc.GetData(GetOptions{})
	if _, isList := got["authors"].([]any); !isList {
		t.Errorf("default serialization should keep the one-element list, got %#v", got["authors"])
	}

	got = doc.GetData(GetOptions{CollapseSingle: true})
	if _, isMap := got["authors"].(map[string]any); !isMap {
		t.Errorf("CollapseSingle should flatten to the sole element, got %#v", got["authors"])
	}
}

func TestLeafContentMergesRepeatedGroups(t *testing.T) {
	doc, err := NewWithData(mustSchema(t), map[string]any{
		"title": "X",
		"authors": []any{
			map[string]any{"name": "Hugo", "role": "070"},
			map[string]any{"name": "Else"},
		},
	})
	if err != nil {
		t.Fatalf("NewWithData: %v", err)
	}

	got := make(map[string][]any)
	var order []string
	err = doc.LeafContent(func(path string, f *schema.Field, content []any) error {
		got[path] = content
		order = append(order, path)
		return nil
	})
	if err != nil {
		t.Fatalf("LeafContent: %v", err)
	}

	wantOrder := []string{"title", "authors.name", "authors.role"}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("order = %v, want %v", order, wantOrder)
	}
	if want := []any{"Hugo", "Else"}; !reflect.DeepEqual(got["authors.name"], want) {
		t.Errorf("authors.name = %v, want %v", got["authors.name"], want)
	}
	if want := []any{"070"}; !reflect.DeepEqual(got["authors.role"], want) {
		t.Errorf("authors.role = %v, want %v", got["authors.role"], want)
	}
	if _, present := got["publisher.name"]; present {
		t.Error("unset fields must be skipped")
	}
}
