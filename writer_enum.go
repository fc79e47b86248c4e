package colvec

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
)

type enumEncoder struct {
	vec     *Vector
	size    uint64
	storage TypeID
	codes   map[string]uint32
}

func newEnumEncoder(vec *Vector) *enumEncoder {
	return &enumEncoder{
		vec:     vec,
		size:    uint64(len(vec.typ.dictionary)),
		storage: vec.typ.enumStorage(),
	}
}

func (e *enumEncoder) encode(row int, val any) error {
	if s, ok := val.(string); ok {
		return e.encodeString(row, s)
	}
	rv := reflect.ValueOf(val)
	var code uint64
	switch rv.Kind() {
	case reflect.String:
		return e.encodeString(row, rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 {
			return rangeError(e.vec.typ, val, "negative enum code %d", n)
		}
		code = uint64(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		code = rv.Uint()
	default:
		return typeMismatch(e.vec.typ, val)
	}
	if code >= e.size {
		return rangeError(e.vec.typ, val, "enum code %d outside dictionary of %d values", code, e.size)
	}
	e.store(row, uint32(code))
	return nil
}

func (e *enumEncoder) encodeString(row int, s string) error {
	if e.codes == nil {
		e.codes = make(map[string]uint32, len(e.vec.typ.dictionary))
		for i, v := range e.vec.typ.dictionary {
			e.codes[v] = uint32(i)
		}
	}
	code, ok := e.codes[s]
	if !ok {
		return newWriteError(e.vec.typ, s, fmt.Errorf("%w: %q", ErrInvalidEnumValue, s))
	}
	e.store(row, code)
	return nil
}

func (e *enumEncoder) store(row int, code uint32) {
	data := e.vec.data.Bytes()
	switch e.storage {
	case TypeUTinyInt:
		data[row] = uint8(code)
	case TypeUSmallInt:
		arrow.Uint16Traits.CastFromBytes(data)[row] = uint16(code)
	default:
		arrow.Uint32Traits.CastFromBytes(data)[row] = code
	}
}

// enumCodeAt reads the dictionary code stored at row.
func enumCodeAt(v *Vector, row int) uint32 {
	data := v.data.Bytes()
	switch v.typ.enumStorage() {
	case TypeUTinyInt:
		return uint32(data[row])
	case TypeUSmallInt:
		return uint32(arrow.Uint16Traits.CastFromBytes(data)[row])
	default:
		return arrow.Uint32Traits.CastFromBytes(data)[row]
	}
}
