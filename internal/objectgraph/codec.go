package objectgraph

import (
	"fmt"
	"reflect"
	"time"
)

// ToMap flattens the document into plain values for storage. Dates are
// written in the schema's date layout.
func (d *Document) ToMap() map[string]any {
	out := make(map[string]any, len(d.attrs)+len(d.children))
	for k, v := range d.attrs {
		if t, ok := v.(time.Time); ok {
			v = t.Format(d.schema.DateLayout)
		}
		out[k] = v
	}
	for seg, c := range d.children {
		out[seg] = c.ToMap()
	}
	return out
}

// FromMap rebuilds a root document from stored values. Keys that the
// schema does not know are rejected.
func FromMap(schema *Schema, data map[string]any) (*Document, error) {
	d := New(schema)
	if err := d.load(data); err != nil {
		return nil, err
	}
	d.MarkClean()
	return d, nil
}

func (d *Document) load(data map[string]any) error {
	def := d.def()
	for k, raw := range data {
		if _, ok := def.Children[k]; ok {
			m, ok := asMap(raw)
			if !ok {
				return fmt.Errorf("%s.%s: expected object, got %T", d.kind, k, raw)
			}
			c, _ := d.CreateChild(k)
			if err := c.(*Document).load(m); err != nil {
				return err
			}
			continue
		}
		if err := d.Set(k, raw); err != nil {
			return err
		}
	}
	return nil
}

// asMap accepts any string-keyed map, including named map types produced
// by document decoders.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
