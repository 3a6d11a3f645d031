package schema

import (
	"testing"

	"github.com/bibliofonds/recindex/pkg/errors"
)

const testYAML = `
name: biblio
stopwords: [le, la, les, de, the]
fields:
  - id: 1
    name: title
    type: text
  - id: 2
    name: isbn
    type: isbn
  - id: 3
    name: authors
    repeatable: true
    fields:
      - id: 1
        name: name
        type: text
      - id: 2
        name: role
        type: values
        lookup: author_roles
  - id: 4
    name: available
    type: boolean
    analyzer: [boolean-extended]
`

const testXML = `
<schema name="biblio">
  <stopwords>le la les de the</stopwords>
  <field id="1" name="title" type="text"/>
  <field id="2" name="isbn" type="isbn"/>
  <field id="3" name="authors" repeatable="true">
    <field id="1" name="name" type="text"/>
    <field id="2" name="role" type="values" lookup="author_roles"/>
  </field>
  <field id="4" name="available" type="boolean" analyzer="boolean-extended"/>
</schema>
`

func TestParseYAML(t *testing.T) {
	s, err := ParseYAML([]byte(testYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	assertBiblioSchema(t, s)
}

func TestParseXML(t *testing.T) {
	s, err := ParseXML([]byte(testXML))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	assertBiblioSchema(t, s)
}

func assertBiblioSchema(t *testing.T, s *Schema) {
	t.Helper()
	if s.Name != "biblio" {
		t.Errorf("schema name = %q, want biblio", s.Name)
	}
	n, err := s.Resolve("title")
	if err != nil {
		t.Fatalf("Resolve(title): %v", err)
	}
	f, ok := n.(*Field)
	if !ok || f.Type != TypeText {
		t.Errorf("title = %#v, want text field", n)
	}

	n, err = s.Resolve("authors")
	if err != nil {
		t.Fatalf("Resolve(authors): %v", err)
	}
	g, ok := n.(*Group)
	if !ok || !g.Repeatable {
		t.Fatalf("authors = %#v, want repeatable group", n)
	}
	child, err := g.Resolve("role")
	if err != nil {
		t.Fatalf("authors.Resolve(role): %v", err)
	}
	if child.(*Field).Lookup != "author_roles" {
		t.Errorf("role lookup table = %q, want author_roles", child.(*Field).Lookup)
	}
	if _, err := g.ResolveID(1); err != nil {
		t.Errorf("authors.ResolveID(1): %v", err)
	}

	if _, err := s.Resolve("nope"); !errors.IsNotFound(err) {
		t.Errorf("Resolve(nope) err = %v, want NotFound", err)
	}
	if _, err := s.ResolveID(99); !errors.IsNotFound(err) {
		t.Errorf("ResolveID(99) err = %v, want NotFound", err)
	}

	if !s.IsStopword("le") || !s.IsStopword("the") {
		t.Error("expected le and the in stopword set")
	}
	if s.IsStopword("title") {
		t.Error("title must not be a stopword")
	}
}

func TestLeaves(t *testing.T) {
	s, err := ParseYAML([]byte(testYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	leaves := s.Leaves()
	wantPaths := []string{"title", "isbn", "authors.name", "authors.role", "available"}
	if len(leaves) != len(wantPaths) {
		t.Fatalf("got %d leaves, want %d", len(leaves), len(wantPaths))
	}
	for i, want := range wantPaths {
		if leaves[i].Path != want {
			t.Errorf("leaf %d = %q, want %q", i, leaves[i].Path, want)
		}
	}
}

func TestDefaultChains(t *testing.T) {
	tests := []struct {
		typ   FieldType
		first string
	}{
		{TypeText, "standard-text"},
		{TypeValues, "standard-values"},
		{TypeBoolean, "boolean"},
		{TypeInteger, "integer"},
		{TypeDate, "date"},
		{TypeISBN, "isbn"},
	}
	for _, tt := range tests {
		if got := DefaultChain(tt.typ); got[0] != tt.first {
			t.Errorf("DefaultChain(%s)[0] = %q, want %q", tt.typ, got[0], tt.first)
		}
	}

	f := &Field{Name: "available", Type: TypeBoolean, Analyzers: []string{"boolean-extended"}}
	if got := f.Chain(); len(got) != 1 || got[0] != "boolean-extended" {
		t.Errorf("configured chain = %v, want [boolean-extended]", got)
	}
}

func TestDuplicateDetection(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"duplicate name",
			"fields:\n  - {id: 1, name: a}\n  - {id: 2, name: a}\n",
		},
		{
			"duplicate id",
			"fields:\n  - {id: 1, name: a}\n  - {id: 1, name: b}\n",
		},
		{
			"duplicate in group scope",
			"fields:\n  - id: 1\n    name: g\n    fields:\n      - {id: 1, name: x}\n      - {id: 1, name: y}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.yaml)); err == nil {
				t.Error("expected load error, got nil")
			}
		})
	}

	// Same local ids in sibling scopes are fine.
	ok := "fields:\n  - id: 1\n    name: g1\n    fields:\n      - {id: 1, name: x}\n  - id: 2\n    name: g2\n    fields:\n      - {id: 1, name: x}\n"
	if _, err := ParseYAML([]byte(ok)); err != nil {
		t.Errorf("sibling scopes with same ids should load: %v", err)
	}
}

func TestStopwordsFolded(t *testing.T) {
	s, err := ParseYAML([]byte("stopwords: [Été, LE]\nfields:\n  - {id: 1, name: a}\n"))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if !s.IsStopword("ete") {
		t.Error("accented stopword should be folded to ete")
	}
	if !s.IsStopword("le") {
		t.Error("uppercase stopword should be folded to le")
	}
}
