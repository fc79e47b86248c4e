package colvec

import (
	"fmt"
	"reflect"
)

// structEncoder writes map[string]any rows field by field. Fields missing
// from the map are written as nulls.
type structEncoder struct {
	vec      *Vector
	fields   []StructField
	children []*writer
	index    map[string]int
}

func newStructEncoder(vec *Vector, o writerOptions) (*structEncoder, error) {
	e := &structEncoder{
		vec:      vec,
		fields:   vec.typ.fields,
		children: make([]*writer, len(vec.typ.fields)),
		index:    make(map[string]int, len(vec.typ.fields)),
	}
	for i, f := range e.fields {
		childOpts := o
		childOpts.name = o.name + "." + f.Name
		child, err := newWriter(vec.children[i], childOpts)
		if err != nil {
			e.release()
			return nil, fmt.Errorf("struct field %q: %w", f.Name, err)
		}
		e.children[i] = child
		e.index[f.Name] = i
	}
	return e, nil
}

func (e *structEncoder) encode(row int, val any) error {
	m, ok := val.(map[string]any)
	if !ok {
		if m, ok = stringKeyedMap(val); !ok {
			return typeMismatch(e.vec.typ, val)
		}
	}
	for k := range m {
		if _, known := e.index[k]; !known {
			return newWriteError(e.vec.typ, val, fmt.Errorf("%w: unknown struct field %q", ErrTypeMismatch, k))
		}
	}
	for i, f := range e.fields {
		v, present := m[f.Name]
		var err error
		if present {
			err = e.children[i].WriteValue(row, v)
		} else {
			err = e.children[i].WriteNull(row)
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

// encodeNull nulls every field so the children stay aligned with the parent.
func (e *structEncoder) encodeNull(row int) error {
	for _, c := range e.children {
		if err := c.WriteNull(row); err != nil {
			return err
		}
	}
	return nil
}

func (e *structEncoder) reset() {
	for _, c := range e.children {
		c.Reset()
	}
}

func (e *structEncoder) release() {
	for _, c := range e.children {
		if c != nil {
			c.Release()
		}
	}
}

func stringKeyedMap(val any) (map[string]any, bool) {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}
