package colvec

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Validity is the per-row null bitmap of a vector. A set bit marks a valid
// row, a cleared bit marks a null whose storage must be ignored. Bits are
// LSB-first within each byte, matching the Arrow validity layout.
type Validity struct {
	buf  *memory.Buffer
	rows int
}

func newValidity(mem memory.Allocator, rows int) *Validity {
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(int(bitutil.BytesForBits(int64(rows))))
	bitutil.SetBitsTo(buf.Bytes(), 0, int64(rows), true)
	return &Validity{buf: buf, rows: rows}
}

// SetInvalid marks row as null.
func (v *Validity) SetInvalid(row int) {
	bitutil.ClearBit(v.buf.Bytes(), row)
}

// SetValid marks row as non-null.
func (v *Validity) SetValid(row int) {
	bitutil.SetBit(v.buf.Bytes(), row)
}

// IsValid reports whether row holds a value.
func (v *Validity) IsValid(row int) bool {
	return bitutil.BitIsSet(v.buf.Bytes(), row)
}

// NullCount returns the number of null rows among the first n.
func (v *Validity) NullCount(n int) int {
	return n - bitutil.CountSetBits(v.buf.Bytes(), 0, n)
}

// Bytes exposes the raw bitmap.
func (v *Validity) Bytes() []byte {
	return v.buf.Bytes()
}

// grow extends the bitmap to rows entries; new rows start valid.
func (v *Validity) grow(rows int) {
	if rows <= v.rows {
		return
	}
	v.buf.Resize(int(bitutil.BytesForBits(int64(rows))))
	bitutil.SetBitsTo(v.buf.Bytes(), int64(v.rows), int64(rows-v.rows), true)
	v.rows = rows
}

func (v *Validity) release() {
	if v.buf != nil {
		v.buf.Release()
		v.buf = nil
	}
}
