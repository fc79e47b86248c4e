package colvec

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// listEncoder writes LIST and ARRAY rows through a child writer. LIST rows
// append to a shared, growable child vector and record (offset, length)
// entries; ARRAY rows occupy the fixed child slots [row*size, (row+1)*size).
type listEncoder struct {
	vec    *Vector
	child  *writer
	array  bool
	size   int
	offset uint64
	name   string
	logger *Logger
}

func newListEncoder(vec *Vector, o writerOptions) (*listEncoder, error) {
	childOpts := o
	childOpts.name = o.name + ".element"
	child, err := newWriter(vec.children[0], childOpts)
	if err != nil {
		return nil, fmt.Errorf("%s element: %w", vec.typ, err)
	}
	return &listEncoder{
		vec:    vec,
		child:  child,
		array:  vec.typ.id == TypeArray,
		size:   vec.typ.size,
		name:   o.name,
		logger: o.logger,
	}, nil
}

func (e *listEncoder) encode(row int, val any) error {
	seq, ok := asSequence(val)
	if !ok {
		return typeMismatch(e.vec.typ, val)
	}
	count := seq.len()
	if e.array {
		if count != e.size {
			return newWriteError(e.vec.typ, val,
				fmt.Errorf("%w: got %d elements, want %d", ErrSizeMismatch, count, e.size))
		}
		return e.writeElements(row*e.size, seq)
	}
	if err := e.reserve(row, count); err != nil {
		return err
	}
	if err := e.writeElements(int(e.offset), seq); err != nil {
		return err
	}
	e.vec.setListEntry(row, e.offset, uint64(count))
	e.offset += uint64(count)
	e.vec.listSize = int(e.offset)
	return nil
}

func (e *listEncoder) writeElements(base int, seq sequence) error {
	for i, n := 0, seq.len(); i < n; i++ {
		if err := e.child.WriteValue(base+i, seq.at(i)); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// encodeNull records an empty entry so later offsets stay monotonic.
func (e *listEncoder) encodeNull(row int) error {
	if !e.array {
		e.vec.setListEntry(row, e.offset, 0)
	}
	return nil
}

// reserve makes room for count more child elements, growing the child by a
// factor that shrinks as row approaches the end of the batch.
func (e *listEncoder) reserve(row, count int) error {
	child := e.vec.children[0]
	need := int(e.offset) + count
	if need <= child.capacity {
		return nil
	}
	current := child.capacity
	capacity := max(int(float64(current)*growthFactor(row, e.vec.capacity)), need)
	err := e.vec.reserver.ReserveListChild(e.vec, capacity)
	if err == nil && child.capacity < need {
		err = fmt.Errorf("reserver left capacity at %d", child.capacity)
	}
	e.logger.LogListGrowth(e.name, row, current, capacity, err)
	if err != nil {
		return newWriteError(e.vec.typ, nil,
			fmt.Errorf("%w: reserve %d list elements: %w", ErrAllocation, capacity, err))
	}
	return nil
}

func growthFactor(row, capacity int) float64 {
	switch {
	case row*4 < capacity:
		return 2.0
	case row*2 < capacity:
		return 1.75
	case row*4 < capacity*3:
		return 1.5
	default:
		return 1.25
	}
}

func (e *listEncoder) reset() {
	e.offset = 0
	e.child.Reset()
}

func (e *listEncoder) release() {
	e.child.Release()
}

// sequence is a read-only view over the elements of one LIST or ARRAY row.
type sequence interface {
	len() int
	at(i int) any
}

type sliceSeq[T any] []T

func (s sliceSeq[T]) len() int     { return len(s) }
func (s sliceSeq[T]) at(i int) any { return s[i] }

type reflectSeq struct {
	rv reflect.Value
}

func (s reflectSeq) len() int     { return s.rv.Len() }
func (s reflectSeq) at(i int) any { return s.rv.Index(i).Interface() }

// asSequence resolves the element type once per row: common slice types get
// a typed view, anything else slice- or array-shaped falls back to reflection.
func asSequence(val any) (sequence, bool) {
	switch v := val.(type) {
	case []any:
		return sliceSeq[any](v), true
	case []bool:
		return sliceSeq[bool](v), true
	case []int8:
		return sliceSeq[int8](v), true
	case []int16:
		return sliceSeq[int16](v), true
	case []int32:
		return sliceSeq[int32](v), true
	case []int64:
		return sliceSeq[int64](v), true
	case []uint8:
		return sliceSeq[uint8](v), true
	case []uint16:
		return sliceSeq[uint16](v), true
	case []uint32:
		return sliceSeq[uint32](v), true
	case []uint64:
		return sliceSeq[uint64](v), true
	case []float32:
		return sliceSeq[float32](v), true
	case []float64:
		return sliceSeq[float64](v), true
	case []string:
		return sliceSeq[string](v), true
	case [][]byte:
		return sliceSeq[[]byte](v), true
	case []time.Time:
		return sliceSeq[time.Time](v), true
	case []uuid.UUID:
		return sliceSeq[uuid.UUID](v), true
	case []decimal.Decimal:
		return sliceSeq[decimal.Decimal](v), true
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return reflectSeq{rv: rv}, true
	}
	return nil, false
}
