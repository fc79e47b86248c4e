package colvec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

const (
	// String slots hold the length, then either the payload inline or a
	// 4-byte prefix followed by the offset of the payload in the heap.
	stringSlotSize  = 16
	stringInlineLen = 12

	minHeapSize = 4096

	// maxListChildCapacity bounds the rows a list child may reserve.
	maxListChildCapacity = math.MaxInt32
)

// Vector is the storage of one column within one chunk. Fixed-width values
// live in a single buffer of Capacity slots; strings keep an auxiliary heap;
// LIST, ARRAY and STRUCT vectors own child vectors.
//
// A Vector is mutated by exactly one writer while its chunk is being built
// and must not be shared between goroutines.
type Vector struct {
	typ      *LogicalType
	mem      memory.Allocator
	reserver ChildReserver
	capacity int

	data     *memory.Buffer
	validity *Validity
	heap     *memory.Buffer
	heapLen  int
	children []*Vector
	listSize int
}

// ChildReserver grows the child vector of a LIST. It stands in for the
// engine's list reservation call and may be replaced in tests.
type ChildReserver interface {
	ReserveListChild(list *Vector, capacity int) error
}

// ReserverFunc adapts a function to ChildReserver.
type ReserverFunc func(list *Vector, capacity int) error

func (f ReserverFunc) ReserveListChild(list *Vector, capacity int) error {
	return f(list, capacity)
}

// DefaultReserver grows list children with the vector's own allocator.
var DefaultReserver ChildReserver = ReserverFunc(GrowListChild)

// GrowListChild reserves capacity rows in the child of list.
func GrowListChild(list *Vector, capacity int) error {
	if list.typ.id != TypeList {
		return fmt.Errorf("%w: cannot reserve list child of %s", ErrUnsupportedKind, list.typ)
	}
	if capacity > maxListChildCapacity {
		return fmt.Errorf("%w: %d list elements exceeds %d", ErrAllocation, capacity, maxListChildCapacity)
	}
	list.children[0].grow(capacity)
	return nil
}

func newVector(mem memory.Allocator, typ *LogicalType, capacity int, reserver ChildReserver) *Vector {
	v := &Vector{
		typ:      typ,
		mem:      mem,
		reserver: reserver,
		capacity: capacity,
	}
	if size := typ.PhysicalSize(); size > 0 {
		v.data = memory.NewResizableBuffer(mem)
		v.data.Resize(size * capacity)
	}
	switch typ.id {
	case TypeList:
		v.children = []*Vector{newVector(mem, typ.child, capacity, reserver)}
	case TypeArray:
		v.children = []*Vector{newVector(mem, typ.child, capacity*typ.size, reserver)}
	case TypeStruct:
		v.children = make([]*Vector, len(typ.fields))
		for i, f := range typ.fields {
			v.children[i] = newVector(mem, f.Type, capacity, reserver)
		}
	}
	return v
}

// Type returns the vector's logical type.
func (v *Vector) Type() *LogicalType { return v.typ }

// Capacity returns the number of rows the vector can hold.
func (v *Vector) Capacity() int { return v.capacity }

// Data returns the raw fixed-width storage, or nil for ARRAY and STRUCT.
func (v *Vector) Data() []byte {
	if v.data == nil {
		return nil
	}
	return v.data.Bytes()
}

// Validity returns the null mask, or nil when no null has been written.
func (v *Vector) Validity() *Validity { return v.validity }

// EnsureValidityWritable returns the null mask, creating it with every row
// valid on first use.
func (v *Vector) EnsureValidityWritable() *Validity {
	if v.validity == nil {
		v.validity = newValidity(v.mem, v.capacity)
	}
	return v.validity
}

// IsValid reports whether row holds a value.
func (v *Vector) IsValid(row int) bool {
	return v.validity == nil || v.validity.IsValid(row)
}

// Child returns the i-th child vector: the element vector of a LIST or
// ARRAY, or a field vector of a STRUCT.
func (v *Vector) Child(i int) *Vector {
	if i < 0 || i >= len(v.children) {
		return nil
	}
	return v.children[i]
}

// ListSize returns the number of child rows used by a LIST vector.
func (v *Vector) ListSize() int { return v.listSize }

// ListEntry returns the (offset, length) pair stored for row of a LIST vector.
func (v *Vector) ListEntry(row int) (offset, length uint64) {
	entries := arrow.Uint64Traits.CastFromBytes(v.data.Bytes())
	return entries[2*row], entries[2*row+1]
}

func (v *Vector) setListEntry(row int, offset, length uint64) {
	entries := arrow.Uint64Traits.CastFromBytes(v.data.Bytes())
	entries[2*row] = offset
	entries[2*row+1] = length
}

// AssignString stores b at row of a VARCHAR or BLOB vector. Short payloads
// are inlined in the row slot; longer ones are copied into the vector heap.
func (v *Vector) AssignString(row int, b []byte) error {
	return assignString(v, row, b)
}

func assignString[T string | []byte](v *Vector, row int, b T) error {
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("%w: string of %d bytes", ErrRange, len(b))
	}
	slot := v.data.Bytes()[row*stringSlotSize : (row+1)*stringSlotSize]
	binary.LittleEndian.PutUint32(slot[0:4], uint32(len(b)))
	if len(b) <= stringInlineLen {
		n := copy(slot[4:], b)
		clear(slot[4+n:])
		return nil
	}
	copy(slot[4:8], b)
	off := v.heapLen
	v.reserveHeap(len(b))
	copy(v.heap.Bytes()[off:], b)
	v.heapLen += len(b)
	binary.LittleEndian.PutUint64(slot[8:16], uint64(off))
	return nil
}

func (v *Vector) reserveHeap(n int) {
	if v.heap == nil {
		v.heap = memory.NewResizableBuffer(v.mem)
	}
	need := v.heapLen + n
	if need <= v.heap.Len() {
		return
	}
	v.heap.Resize(max(need, 2*v.heap.Len(), minHeapSize))
}

// stringAt returns the payload stored at row. The result aliases vector
// memory and is only valid until the next write.
func (v *Vector) stringAt(row int) []byte {
	slot := v.data.Bytes()[row*stringSlotSize : (row+1)*stringSlotSize]
	n := binary.LittleEndian.Uint32(slot[0:4])
	if n <= stringInlineLen {
		return slot[4 : 4+n]
	}
	off := binary.LittleEndian.Uint64(slot[8:16])
	return v.heap.Bytes()[off : off+uint64(n)]
}

// grow raises the vector's capacity, preserving existing rows.
func (v *Vector) grow(capacity int) {
	if capacity <= v.capacity {
		return
	}
	if v.data != nil {
		v.data.Resize(capacity * v.typ.PhysicalSize())
	}
	if v.validity != nil {
		v.validity.grow(capacity)
	}
	switch v.typ.id {
	case TypeArray:
		v.children[0].grow(capacity * v.typ.size)
	case TypeStruct:
		for _, c := range v.children {
			c.grow(capacity)
		}
	}
	v.capacity = capacity
}

// reset prepares the vector for a new batch. Reserved list capacity is kept.
func (v *Vector) reset() {
	if v.validity != nil {
		v.validity.release()
		v.validity = nil
	}
	v.heapLen = 0
	v.listSize = 0
	for _, c := range v.children {
		c.reset()
	}
}

func (v *Vector) release() {
	if v.data != nil {
		v.data.Release()
		v.data = nil
	}
	if v.validity != nil {
		v.validity.release()
		v.validity = nil
	}
	if v.heap != nil {
		v.heap.Release()
		v.heap = nil
	}
	for _, c := range v.children {
		c.release()
	}
	v.children = nil
}
