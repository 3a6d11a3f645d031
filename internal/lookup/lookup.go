// Package lookup implements the code-to-label table collaborator consumed
// by the lookup analyzer: bibliographic code tables (author roles, media
// types, ...) resolved to display labels, with passthrough on miss.
package lookup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Static is an in-memory table set loaded from a YAML file of the form
//
//	author_roles:
//	  "070": Author
//	  "651": Editor
type Static struct {
	tables map[string]map[string]string
}

// NewStatic builds a table set from an already-parsed map.
func NewStatic(tables map[string]map[string]string) *Static {
	return &Static{tables: tables}
}

// LoadStatic reads a YAML table file. An empty path yields an empty set, so
// every lookup passes through.
func LoadStatic(path string) (*Static, error) {
	if path == "" {
		return NewStatic(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lookup tables %s: %w", path, err)
	}
	var tables map[string]map[string]string
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parsing lookup tables %s: %w", path, err)
	}
	return NewStatic(tables), nil
}

// Lookup returns the label declared for code in the named table, or the
// code unchanged on a miss.
func (s *Static) Lookup(table, code string) string {
	if label, ok := s.tables[table][code]; ok {
		return label
	}
	return code
}
