package colvec

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/google/uuid"
)

var (
	bigOne    = big.NewInt(1)
	bigTwo64  = new(big.Int).Lsh(bigOne, 64)
	signBit64 = uint64(1) << 63
)

// HugeInt is a 128-bit two's-complement integer: Upper*2^64 + Lower.
// Its memory layout matches decimal128.Num.
type HugeInt struct {
	Lower uint64
	Upper int64
}

// HugeIntFromBigInt splits v into its 128-bit representation. It fails with
// ErrRange if v does not fit in 128 bits.
func HugeIntFromBigInt(v *big.Int) (HugeInt, error) {
	q, r := new(big.Int).QuoRem(v, bigTwo64, new(big.Int))
	if r.Sign() < 0 {
		r.Add(r, bigTwo64)
		q.Sub(q, bigOne)
	}
	if !q.IsInt64() {
		return HugeInt{}, fmt.Errorf("%w: %s does not fit in 128 bits", ErrRange, v)
	}
	return HugeInt{Lower: r.Uint64(), Upper: q.Int64()}, nil
}

// BigInt returns the value as a big.Int.
func (h HugeInt) BigInt() *big.Int {
	v := big.NewInt(h.Upper)
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(h.Lower))
}

// Cmp compares h and o as signed 128-bit integers.
func (h HugeInt) Cmp(o HugeInt) int {
	switch {
	case h.Upper < o.Upper:
		return -1
	case h.Upper > o.Upper:
		return 1
	case h.Lower < o.Lower:
		return -1
	case h.Lower > o.Lower:
		return 1
	default:
		return 0
	}
}

func (h HugeInt) String() string {
	return h.BigInt().String()
}

func (h HugeInt) num() decimal128.Num {
	return decimal128.New(h.Upper, h.Lower)
}

func hugeIntFromNum(n decimal128.Num) HugeInt {
	return HugeInt{Lower: n.LowBits(), Upper: n.HighBits()}
}

// UUIDToHugeInt encodes u so that signed comparison of the result orders
// UUIDs the same way as their textual form.
func UUIDToHugeInt(u uuid.UUID) HugeInt {
	upper := binary.BigEndian.Uint64(u[:8]) ^ signBit64
	return HugeInt{
		Lower: binary.BigEndian.Uint64(u[8:]),
		Upper: int64(upper),
	}
}

// HugeIntToUUID reverses UUIDToHugeInt.
func HugeIntToUUID(h HugeInt) uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[:8], uint64(h.Upper)^signBit64)
	binary.BigEndian.PutUint64(u[8:], h.Lower)
	return u
}
