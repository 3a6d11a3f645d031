// Package document implements the schema-validated hierarchical record
// model. A Document is a FieldList rooted at the schema's top scope; nested
// groups are owned sub-FieldLists addressed by stable field ids, with no
// shared mutable aliasing back to caller data.
package document

import (
	"strconv"

	"github.com/bibliofonds/recindex/internal/schema"
	"github.com/bibliofonds/recindex/pkg/errors"
)

type valueKind int

const (
	kindUnset valueKind = iota
	kindScalar
	kindScalars
	kindList
	kindLists
)

// fieldValue is the tagged state of one field slot: unset, a scalar, an
// array of scalars, a sub-FieldList, or an array of sub-FieldLists.
type fieldValue struct {
	kind    valueKind
	scalar  any
	scalars []any
	list    *FieldList
	lists   []*FieldList
}

// FieldList holds the values of one scope (the schema root, or one group
// occurrence). Values are keyed by field id within the scope.
type FieldList struct {
	sc     *schema.Schema
	group  *schema.Group // nil at the root scope
	values map[int]*fieldValue
}

// Document is a record validated against its schema.
type Document struct {
	FieldList
}

// New creates an empty Document bound to sc.
func New(sc *schema.Schema) *Document {
	return &Document{FieldList: FieldList{
		sc:     sc,
		values: make(map[int]*fieldValue),
	}}
}

// NewWithData creates a Document and replays data through SetData.
func NewWithData(sc *schema.Schema, data map[string]any) (*Document, error) {
	doc := New(sc)
	if err := doc.SetData(data); err != nil {
		return nil, err
	}
	return doc, nil
}

func newChildList(sc *schema.Schema, g *schema.Group) *FieldList {
	return &FieldList{
		sc:     sc,
		group:  g,
		values: make(map[int]*fieldValue),
	}
}

func (fl *FieldList) resolve(name string) (schema.Node, error) {
	if fl.group != nil {
		return fl.group.Resolve(name)
	}
	return fl.sc.Resolve(name)
}

func (fl *FieldList) nodes() []schema.Node {
	if fl.group != nil {
		return fl.group.Children
	}
	return fl.sc.Children
}

// Set assigns a value to the named field. A nil value or empty array unsets
// the field. Value shape is validated against the node's kind and
// repeatability; violations fail with ErrInvalidArgument, unknown names
// with ErrNotFound.
func (fl *FieldList) Set(name string, value any) error {
	node, err := fl.resolve(name)
	if err != nil {
		return err
	}
	if isEmpty(value) {
		delete(fl.values, node.NodeID())
		return nil
	}
	fv, err := fl.buildValue(node, value)
	if err != nil {
		return err
	}
	fl.values[node.NodeID()] = fv
	return nil
}

// Unset removes the field's content. Absent is distinct from empty.
func (fl *FieldList) Unset(name string) error {
	node, err := fl.resolve(name)
	if err != nil {
		return err
	}
	delete(fl.values, node.NodeID())
	return nil
}

// Get returns the field's value and whether it is set. The value is a
// scalar, []any, *FieldList or []*FieldList depending on the field's kind.
// Unknown names fail with ErrNotFound; an unset field returns ok=false.
func (fl *FieldList) Get(name string) (any, bool, error) {
	node, err := fl.resolve(name)
	if err != nil {
		return nil, false, err
	}
	fv, ok := fl.values[node.NodeID()]
	if !ok {
		return nil, false, nil
	}
	switch fv.kind {
	case kindScalar:
		return fv.scalar, true, nil
	case kindScalars:
		return append([]any(nil), fv.scalars...), true, nil
	case kindList:
		return fv.list, true, nil
	case kindLists:
		return append([]*FieldList(nil), fv.lists...), true, nil
	default:
		return nil, false, nil
	}
}

func (fl *FieldList) buildValue(node schema.Node, value any) (*fieldValue, error) {
	switch n := node.(type) {
	case *schema.Field:
		return fl.buildLeafValue(n, value)
	case *schema.Group:
		return fl.buildGroupValue(n, value)
	default:
		return nil, errors.Newf(errors.ErrInternal, "unknown node kind for %q", node.NodeName())
	}
}

func (fl *FieldList) buildLeafValue(f *schema.Field, value any) (*fieldValue, error) {
	switch v := value.(type) {
	case []any:
		if !f.Repeatable {
			return nil, errors.Newf(errors.ErrInvalidArgument, "field %q is not repeatable", f.Name)
		}
		scalars := make([]any, 0, len(v))
		for _, item := range v {
			if !isScalar(item) {
				return nil, errors.Newf(errors.ErrInvalidArgument, "field %q accepts scalar values only", f.Name)
			}
			scalars = append(scalars, item)
		}
		return &fieldValue{kind: kindScalars, scalars: scalars}, nil
	default:
		if f.Repeatable {
			return nil, errors.Newf(errors.ErrInvalidArgument, "field %q is repeatable and takes an array", f.Name)
		}
		if !isScalar(value) {
			return nil, errors.Newf(errors.ErrInvalidArgument, "field %q accepts scalar values only", f.Name)
		}
		return &fieldValue{kind: kindScalar, scalar: value}, nil
	}
}

func (fl *FieldList) buildGroupValue(g *schema.Group, value any) (*fieldValue, error) {
	switch v := value.(type) {
	case map[string]any:
		if g.Repeatable {
			return nil, errors.Newf(errors.ErrInvalidArgument, "group %q is repeatable and takes an array of nested records", g.Name)
		}
		child := newChildList(fl.sc, g)
		if err := child.SetData(v); err != nil {
			return nil, err
		}
		return &fieldValue{kind: kindList, list: child}, nil
	case []any:
		if !g.Repeatable {
			return nil, errors.Newf(errors.ErrInvalidArgument, "group %q is not repeatable", g.Name)
		}
		lists := make([]*FieldList, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Newf(errors.ErrInvalidArgument, "group %q accepts nested records only", g.Name)
			}
			child := newChildList(fl.sc, g)
			if err := child.SetData(m); err != nil {
				return nil, err
			}
			lists = append(lists, child)
		}
		return &fieldValue{kind: kindLists, lists: lists}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidArgument, "group %q accepts nested records, not scalars", g.Name)
	}
}

// SetData replays a flat or nested map through Set. Unknown keys fail with
// ErrNotFound and abort the call.
func (fl *FieldList) SetData(data map[string]any) error {
	// Apply in schema declaration order for deterministic validation.
	for _, node := range fl.nodes() {
		v, ok := data[node.NodeName()]
		if !ok {
			continue
		}
		if err := fl.Set(node.NodeName(), v); err != nil {
			return err
		}
	}
	for key := range data {
		if _, err := fl.resolve(key); err != nil {
			return err
		}
	}
	return nil
}

// GetOptions controls GetData serialization.
type GetOptions struct {
	// ByID keys the output by decimal field id instead of field name.
	ByID bool
	// CollapseSingle reproduces the legacy behaviour of flattening a
	// single-element repeatable group to its sole element. Off by
	// default; opt in only for compatibility with data written by the
	// legacy serializer.
	CollapseSingle bool
}

// GetData serializes the set fields to a flat map. Nested groups become
// nested maps (or arrays of maps when repeatable).
func (fl *FieldList) GetData(opts GetOptions) map[string]any {
	out := make(map[string]any)
	for _, node := range fl.nodes() {
		fv, ok := fl.values[node.NodeID()]
		if !ok {
			continue
		}
		key := node.NodeName()
		if opts.ByID {
			key = strconv.Itoa(node.NodeID())
		}
		switch fv.kind {
		case kindScalar:
			out[key] = fv.scalar
		case kindScalars:
			out[key] = append([]any(nil), fv.scalars...)
		case kindList:
			out[key] = fv.list.GetData(opts)
		case kindLists:
			if opts.CollapseSingle && len(fv.lists) == 1 {
				out[key] = fv.lists[0].GetData(opts)
				continue
			}
			items := make([]any, 0, len(fv.lists))
			for _, child := range fv.lists {
				items = append(items, child.GetData(opts))
			}
			out[key] = items
		}
	}
	return out
}

// LeafContent calls fn for every leaf field that has content, in schema
// declaration order, with the field's dotted path and its content values.
// Values from repeated group occurrences are merged into one sequence per
// leaf. Unset fields are skipped entirely.
func (d *Document) LeafContent(fn func(path string, f *schema.Field, content []any) error) error {
	return walkLeaves("", &d.FieldList, fn)
}

func walkLeaves(prefix string, fl *FieldList, fn func(string, *schema.Field, []any) error) error {
	for _, node := range fl.nodes() {
		fv, ok := fl.values[node.NodeID()]
		if !ok {
			continue
		}
		switch n := node.(type) {
		case *schema.Field:
			var content []any
			if fv.kind == kindScalar {
				content = []any{fv.scalar}
			} else {
				content = fv.scalars
			}
			if err := fn(prefix+n.Name, n, content); err != nil {
				return err
			}
		case *schema.Group:
			lists := fv.lists
			if fv.kind == kindList {
				lists = []*FieldList{fv.list}
			}
			merged := make(map[string][]any)
			var order []string
			var fields = make(map[string]*schema.Field)
			for _, child := range lists {
				err := collectLeaves(prefix+n.Name+".", child, func(path string, f *schema.Field, content []any) {
					if _, seen := merged[path]; !seen {
						order = append(order, path)
						fields[path] = f
					}
					merged[path] = append(merged[path], content...)
				})
				if err != nil {
					return err
				}
			}
			for _, path := range order {
				if err := fn(path, fields[path], merged[path]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func collectLeaves(prefix string, fl *FieldList, emit func(string, *schema.Field, []any)) error {
	return walkLeaves(prefix, fl, func(path string, f *schema.Field, content []any) error {
		emit(path, f, content)
		return nil
	})
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if arr, ok := v.([]any); ok {
		return len(arr) == 0
	}
	return false
}
