// Package objectgraph is a schema-driven tree of domain objects that bound
// questions read and write through.
package objectgraph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dynaform/internal/engine"
)

var (
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownChild     = errors.New("unknown child")
)

var (
	_ engine.Bindable     = (*Document)(nil)
	_ engine.ChildRemover = (*Document)(nil)
	_ engine.Normalizer   = (*Document)(nil)
)

// Document is one node of the object graph
type Document struct {
	kind     string
	schema   *Schema
	attrs    map[string]any
	children map[string]*Document
	dirty    bool
}

// New creates an empty root document
func New(schema *Schema) *Document {
	return newDocument(schema, schema.Root)
}

func newDocument(schema *Schema, kind string) *Document {
	return &Document{
		kind:     kind,
		schema:   schema,
		attrs:    make(map[string]any),
		children: make(map[string]*Document),
	}
}

// Kind returns the schema kind of the document
func (d *Document) Kind() string { return d.kind }

func (d *Document) def() Kind { return d.schema.Kinds[d.kind] }

// Child returns the child at segment, or (nil, nil) when it does not exist yet.
func (d *Document) Child(segment string) (engine.Bindable, error) {
	if _, ok := d.def().Children[segment]; !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownChild, d.kind, segment)
	}
	c, ok := d.children[segment]
	if !ok {
		return nil, nil
	}
	return c, nil
}

// CreateChild creates the child at segment, returning the existing one if
// present. A new child starts dirty; the parent itself is unchanged.
func (d *Document) CreateChild(segment string) (engine.Bindable, error) {
	kind, ok := d.def().Children[segment]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownChild, d.kind, segment)
	}
	if c, ok := d.children[segment]; ok {
		return c, nil
	}
	c := newDocument(d.schema, kind)
	c.dirty = true
	d.children[segment] = c
	return c, nil
}

// RemoveChild drops the child at segment and everything below it
func (d *Document) RemoveChild(segment string) {
	delete(d.children, segment)
}

// Get returns the attribute value or nil when unset
func (d *Document) Get(attr string) (any, error) {
	if _, ok := d.def().Attributes[attr]; !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, d.kind, attr)
	}
	return d.attrs[attr], nil
}

// Normalize returns value coerced to the attribute type, as Set would store
// it. A nil result means Set would clear the attribute.
func (d *Document) Normalize(attr string, value any) (any, error) {
	typ, ok := d.def().Attributes[attr]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, d.kind, attr)
	}
	v, err := coerce(typ, value, d.schema.DateLayout)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", d.kind, attr, err)
	}
	return v, nil
}

// Set coerces value to the attribute type and stores it. nil or an empty
// string clears the attribute.
func (d *Document) Set(attr string, value any) error {
	v, err := d.Normalize(attr, value)
	if err != nil {
		return err
	}
	if v == nil {
		delete(d.attrs, attr)
	} else {
		d.attrs[attr] = v
	}
	d.dirty = true
	return nil
}

// Dirty reports whether this document or any descendant changed
func (d *Document) Dirty() bool {
	if d.dirty {
		return true
	}
	for _, c := range d.children {
		if c.Dirty() {
			return true
		}
	}
	return false
}

// MarkClean resets change tracking after the graph is saved
func (d *Document) MarkClean() {
	d.dirty = false
	for _, c := range d.children {
		c.MarkClean()
	}
}

func coerce(typ string, value any, layout string) (any, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		switch typ {
		case TypeString:
			return s, nil
		case TypeDate:
			t, err := time.Parse(layout, s)
			if err != nil {
				return nil, fmt.Errorf("invalid date %q", s)
			}
			return t, nil
		case TypeBool:
			switch strings.ToLower(s) {
			case "1", "true", "yes", "on":
				return true, nil
			case "0", "false", "no", "off":
				return false, nil
			}
			return nil, fmt.Errorf("invalid boolean %q", s)
		case TypeNumber:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", s)
			}
			return f, nil
		}
	}

	switch typ {
	case TypeString:
		return fmt.Sprint(value), nil
	case TypeDate:
		if t, ok := value.(time.Time); ok {
			return t, nil
		}
	case TypeBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case TypeNumber:
		switch n := value.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	}
	return nil, fmt.Errorf("cannot store %T as %s", value, typ)
}
