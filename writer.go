package colvec

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
)

// VectorWriter encodes runtime-typed Go values into one vector.
//
// Rows are expected to be written at most once per batch and, for LIST
// columns, in increasing order. A failed write leaves the row's storage
// undefined and should be treated as fatal for the batch.
//
// VectorWriter is NOT thread-safe.
type VectorWriter interface {
	// WriteValue stores val at row. Nil values are written as nulls.
	WriteValue(row int, val any) error
	// WriteNull marks row as null.
	WriteNull(row int) error
	// WriteBlob stores raw bytes at row of a VARCHAR or BLOB vector.
	WriteBlob(row int, b []byte) error
	// Vector returns the vector being written.
	Vector() *Vector
	// Reset prepares the writer for the next batch of the same vector.
	Reset()
	// Release drops the writer and its child writers. The vector itself is
	// owned by its chunk and is not released.
	Release()
}

// encoder is the per-kind strategy behind a writer.
type encoder interface {
	encode(row int, val any) error
}

type blobEncoder interface {
	encodeBlob(row int, b []byte) error
}

// nullEncoder is implemented by strategies that need to touch storage when
// a row is null, such as lists which still record an entry.
type nullEncoder interface {
	encodeNull(row int) error
}

type resettable interface {
	reset()
}

type releasable interface {
	release()
}

// WriterOption configures a writer created by NewWriter.
type WriterOption func(*writerOptions)

type writerOptions struct {
	name   string
	logger *Logger
}

// WithColumnName names the column in log records.
func WithColumnName(name string) WriterOption {
	return func(o *writerOptions) {
		o.name = name
	}
}

// WithWriterLogger sets the logger used for list growth events.
func WithWriterLogger(l *Logger) WriterOption {
	return func(o *writerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type writer struct {
	vec      *Vector
	enc      encoder
	released bool
}

// NewWriter returns a writer for vec, choosing the encoding strategy from
// the vector's logical type. Composite types get recursively built child
// writers. MAP vectors are not writable.
func NewWriter(vec *Vector, opts ...WriterOption) (VectorWriter, error) {
	o := writerOptions{logger: NoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return newWriter(vec, o)
}

func newWriter(vec *Vector, o writerOptions) (*writer, error) {
	if vec == nil || vec.data == nil && vec.children == nil {
		return nil, fmt.Errorf("vector is nil or released")
	}
	enc, err := newEncoder(vec, o)
	if err != nil {
		return nil, err
	}
	return &writer{vec: vec, enc: enc}, nil
}

func newEncoder(vec *Vector, o writerOptions) (encoder, error) {
	t := vec.typ
	switch t.id {
	case TypeBoolean:
		return &boolEncoder{vec: vec}, nil
	case TypeTinyInt:
		return newFixedEncoder[int8](vec, arrow.Int8Traits.CastFromBytes), nil
	case TypeSmallInt:
		return newFixedEncoder[int16](vec, arrow.Int16Traits.CastFromBytes), nil
	case TypeInteger:
		return newFixedEncoder[int32](vec, arrow.Int32Traits.CastFromBytes), nil
	case TypeBigInt:
		return newFixedEncoder[int64](vec, arrow.Int64Traits.CastFromBytes), nil
	case TypeUTinyInt:
		return newFixedEncoder[uint8](vec, arrow.Uint8Traits.CastFromBytes), nil
	case TypeUSmallInt:
		return newFixedEncoder[uint16](vec, arrow.Uint16Traits.CastFromBytes), nil
	case TypeUInteger:
		return newFixedEncoder[uint32](vec, arrow.Uint32Traits.CastFromBytes), nil
	case TypeUBigInt:
		return newFixedEncoder[uint64](vec, arrow.Uint64Traits.CastFromBytes), nil
	case TypeFloat:
		return newFixedEncoder[float32](vec, arrow.Float32Traits.CastFromBytes), nil
	case TypeDouble:
		return newFixedEncoder[float64](vec, arrow.Float64Traits.CastFromBytes), nil
	case TypeVarchar, TypeBlob:
		return &stringEncoder{vec: vec}, nil
	case TypeDate:
		return &dateEncoder{vec: vec}, nil
	case TypeTime:
		return &timeEncoder{vec: vec}, nil
	case TypeTimeTZ:
		return &timeTZEncoder{vec: vec}, nil
	case TypeTimestampS, TypeTimestampMS, TypeTimestamp, TypeTimestampNS, TypeTimestampTZ:
		return &timestampEncoder{vec: vec}, nil
	case TypeInterval:
		return &intervalEncoder{vec: vec}, nil
	case TypeHugeInt:
		return &hugeIntEncoder{vec: vec}, nil
	case TypeUUID:
		return &uuidEncoder{vec: vec}, nil
	case TypeDecimal:
		return newDecimalEncoder(vec), nil
	case TypeEnum:
		return newEnumEncoder(vec), nil
	case TypeList, TypeArray:
		return newListEncoder(vec, o)
	case TypeStruct:
		return newStructEncoder(vec, o)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, t)
	}
}

func (w *writer) Vector() *Vector { return w.vec }

func (w *writer) WriteNull(row int) error {
	if err := w.checkRow(row); err != nil {
		return err
	}
	if ne, ok := w.enc.(nullEncoder); ok {
		if err := ne.encodeNull(row); err != nil {
			return err
		}
	}
	w.vec.EnsureValidityWritable().SetInvalid(row)
	return nil
}

func (w *writer) WriteValue(row int, val any) error {
	if err := w.checkRow(row); err != nil {
		return err
	}
	val, isNull := normalize(val)
	if isNull {
		return w.WriteNull(row)
	}
	err := w.enc.encode(row, val)
	if err != nil {
		// Types outside the strategy's vocabulary may still convert
		// through database/sql.
		valuer, ok := val.(driver.Valuer)
		if !ok || !isTypeMismatch(err) {
			return err
		}
		dv, verr := valuer.Value()
		if verr != nil || dv == nil {
			return err
		}
		if err := w.enc.encode(row, dv); err != nil {
			return err
		}
	}
	w.markValid(row)
	return nil
}

func (w *writer) WriteBlob(row int, b []byte) error {
	if err := w.checkRow(row); err != nil {
		return err
	}
	if b == nil {
		return w.WriteNull(row)
	}
	be, ok := w.enc.(blobEncoder)
	if !ok {
		return typeMismatch(w.vec.typ, b)
	}
	if err := be.encodeBlob(row, b); err != nil {
		return err
	}
	w.markValid(row)
	return nil
}

func (w *writer) Reset() {
	if r, ok := w.enc.(resettable); ok {
		r.reset()
	}
}

func (w *writer) Release() {
	if w.released {
		return
	}
	if r, ok := w.enc.(releasable); ok {
		r.release()
	}
	w.enc = nil
	w.released = true
}

func (w *writer) checkRow(row int) error {
	if w.released {
		return ErrReleased
	}
	if row < 0 || row >= w.vec.capacity {
		return rangeError(w.vec.typ, nil, "row %d outside [0, %d)", row, w.vec.capacity)
	}
	return nil
}

func (w *writer) markValid(row int) {
	if w.vec.validity != nil {
		w.vec.validity.SetValid(row)
	}
}

// normalize resolves pointers and reports whether val is a null.
func normalize(val any) (any, bool) {
	switch v := val.(type) {
	case nil:
		return nil, true
	case bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64,
		float32, float64, string:
		return val, false
	case []byte:
		return val, v == nil
	case *big.Int:
		return val, v == nil
	}
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true
		}
		if _, ok := rv.Interface().(*big.Int); ok {
			break
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
	}
	val = rv.Interface()
	if valuer, ok := val.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil && dv == nil {
			return nil, true
		}
	}
	return val, false
}
