// Package schema holds the typed, read-only description of a record layout:
// leaf fields, nested groups, per-field analyzer chains, and the stopword
// list. A Schema is built once from a definition file and never mutated
// during indexing, so it is safe to share across workers without locking.
package schema

import (
	"fmt"
	"strconv"

	"github.com/bibliofonds/recindex/internal/textnorm"
	"github.com/bibliofonds/recindex/pkg/errors"
)

// FieldType selects the default analyzer chain for a leaf field when none is
// configured explicitly.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeValues  FieldType = "values"
	TypeBoolean FieldType = "boolean"
	TypeInteger FieldType = "integer"
	TypeDate    FieldType = "date"
	TypeISBN    FieldType = "isbn"
)

// Node is either a *Field or a *Group.
type Node interface {
	NodeID() int
	NodeName() string
	IsRepeatable() bool
}

// Field is a leaf node carrying content to be analyzed.
type Field struct {
	ID         int
	Name       string
	Repeatable bool
	Type       FieldType
	// Analyzers is the ordered analyzer chain for this field. Empty means
	// the default chain for Type applies.
	Analyzers []string
	// Lookup names the code-to-label table consulted by the lookup
	// analyzer. Empty defaults to the field name.
	Lookup string
}

func (f *Field) NodeID() int        { return f.ID }
func (f *Field) NodeName() string   { return f.Name }
func (f *Field) IsRepeatable() bool { return f.Repeatable }

// Group is an interior node. It carries no analyzer chain; its leaf
// descendants do.
type Group struct {
	ID         int
	Name       string
	Repeatable bool
	Children   []Node

	byName map[string]Node
	byID   map[int]Node
}

func (g *Group) NodeID() int        { return g.ID }
func (g *Group) NodeName() string   { return g.Name }
func (g *Group) IsRepeatable() bool { return g.Repeatable }

// Resolve returns the child declared under name within this group's scope.
func (g *Group) Resolve(name string) (Node, error) {
	n, ok := g.byName[name]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "field %q not declared in group %q", name, g.Name)
	}
	return n, nil
}

// ResolveID returns the child declared under id within this group's scope.
func (g *Group) ResolveID(id int) (Node, error) {
	n, ok := g.byID[id]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "field id %d not declared in group %q", id, g.Name)
	}
	return n, nil
}

// Schema is the root scope of a record layout.
type Schema struct {
	Name     string
	Children []Node

	byName    map[string]Node
	byID      map[int]Node
	stopwords map[string]struct{}
}

// Resolve returns the top-level node declared under name.
func (s *Schema) Resolve(name string) (Node, error) {
	n, ok := s.byName[name]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "field %q not declared in schema", name)
	}
	return n, nil
}

// ResolveID returns the top-level node declared under id.
func (s *Schema) ResolveID(id int) (Node, error) {
	n, ok := s.byID[id]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "field id %d not declared in schema", id)
	}
	return n, nil
}

// IsStopword reports whether the normalized token is in the schema's
// stopword list. Tokens are expected to be already folded (the list itself
// is folded at load time).
func (s *Schema) IsStopword(token string) bool {
	_, ok := s.stopwords[token]
	return ok
}

// Stopwords returns the folded stopword set.
func (s *Schema) Stopwords() map[string]struct{} {
	return s.stopwords
}

// DefaultChain returns the analyzer chain applied to a field of type t when
// the schema does not configure one.
func DefaultChain(t FieldType) []string {
	switch t {
	case TypeValues:
		return []string{"standard-values"}
	case TypeBoolean:
		return []string{"boolean"}
	case TypeInteger:
		return []string{"integer"}
	case TypeDate:
		return []string{"date"}
	case TypeISBN:
		return []string{"isbn"}
	default:
		return []string{"standard-text"}
	}
}

// Chain returns the analyzer chain configured for f, falling back to the
// default chain for its type.
func (f *Field) Chain() []string {
	if len(f.Analyzers) > 0 {
		return f.Analyzers
	}
	return DefaultChain(f.Type)
}

// Leaf describes one leaf field together with its dotted path from the root
// ("authors.name" for a field inside a group).
type Leaf struct {
	Path  string
	Field *Field
}

// Leaves returns every leaf field in declaration order, depth first.
func (s *Schema) Leaves() []Leaf {
	var out []Leaf
	var walk func(prefix string, nodes []Node)
	walk = func(prefix string, nodes []Node) {
		for _, n := range nodes {
			switch node := n.(type) {
			case *Field:
				out = append(out, Leaf{Path: prefix + node.Name, Field: node})
			case *Group:
				walk(prefix+node.Name+".", node.Children)
			}
		}
	}
	walk("", s.Children)
	return out
}

// buildScopes walks the tree populating per-scope resolution maps and
// enforcing name/id uniqueness within each parent scope.
func (s *Schema) buildScopes() error {
	var index func(scope string, nodes []Node) (map[string]Node, map[int]Node, error)
	index = func(scope string, nodes []Node) (map[string]Node, map[int]Node, error) {
		byName := make(map[string]Node, len(nodes))
		byID := make(map[int]Node, len(nodes))
		for _, n := range nodes {
			name := n.NodeName()
			if name == "" {
				return nil, nil, fmt.Errorf("unnamed field in %s", scope)
			}
			if _, dup := byName[name]; dup {
				return nil, nil, fmt.Errorf("duplicate field name %q in %s", name, scope)
			}
			if _, dup := byID[n.NodeID()]; dup {
				return nil, nil, fmt.Errorf("duplicate field id %d in %s", n.NodeID(), scope)
			}
			byName[name] = n
			byID[n.NodeID()] = n
			if g, ok := n.(*Group); ok {
				childByName, childByID, err := index(scope+"."+name, g.Children)
				if err != nil {
					return nil, nil, err
				}
				g.byName = childByName
				g.byID = childByID
			}
		}
		return byName, byID, nil
	}
	byName, byID, err := index("schema "+strconv.Quote(s.Name), s.Children)
	if err != nil {
		return err
	}
	s.byName = byName
	s.byID = byID
	return nil
}

// setStopwords folds and stores the stopword list.
func (s *Schema) setStopwords(words []string) {
	s.stopwords = make(map[string]struct{}, len(words))
	for _, w := range words {
		w = textnorm.Fold(w)
		if w == "" {
			continue
		}
		s.stopwords[w] = struct{}{}
	}
}
