package colvec

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const intervalSize = 16

type hugeIntEncoder struct {
	vec *Vector
}

func (e *hugeIntEncoder) encode(row int, val any) error {
	var h HugeInt
	switch v := val.(type) {
	case HugeInt:
		h = v
	case *big.Int:
		var err error
		if h, err = HugeIntFromBigInt(v); err != nil {
			return newWriteError(e.vec.typ, val, err)
		}
	case int64:
		h = HugeInt{Lower: uint64(v), Upper: v >> 63}
	case uint64:
		h = HugeInt{Lower: v}
	default:
		return typeMismatch(e.vec.typ, val)
	}
	arrow.Decimal128Traits.CastFromBytes(e.vec.data.Bytes())[row] = h.num()
	return nil
}

type uuidEncoder struct {
	vec *Vector
}

func (e *uuidEncoder) encode(row int, val any) error {
	var u uuid.UUID
	switch v := val.(type) {
	case uuid.UUID:
		u = v
	case [16]byte:
		u = v
	case pgtype.UUID:
		u = v.Bytes
	case []byte:
		var err error
		if u, err = uuid.FromBytes(v); err != nil {
			return newWriteError(e.vec.typ, val, err)
		}
	case string:
		var err error
		if u, err = uuid.Parse(v); err != nil {
			return typeMismatch(e.vec.typ, val)
		}
	default:
		return typeMismatch(e.vec.typ, val)
	}
	arrow.Decimal128Traits.CastFromBytes(e.vec.data.Bytes())[row] = UUIDToHugeInt(u).num()
	return nil
}

type intervalEncoder struct {
	vec *Vector
}

func (e *intervalEncoder) encode(row int, val any) error {
	var iv Interval
	switch v := val.(type) {
	case Interval:
		iv = v
	case time.Duration:
		iv = IntervalFromDuration(v)
	case pgtype.Interval:
		iv = Interval{Months: v.Months, Days: v.Days, Micros: v.Microseconds}
	default:
		return typeMismatch(e.vec.typ, val)
	}
	putInterval(e.vec.data.Bytes()[row*intervalSize:], iv)
	return nil
}

func putInterval(b []byte, iv Interval) {
	binary.LittleEndian.PutUint32(b[0:4], uint32(iv.Months))
	binary.LittleEndian.PutUint32(b[4:8], uint32(iv.Days))
	binary.LittleEndian.PutUint64(b[8:16], uint64(iv.Micros))
}

func intervalAt(v *Vector, row int) Interval {
	b := v.data.Bytes()[row*intervalSize:]
	return Interval{
		Months: int32(binary.LittleEndian.Uint32(b[0:4])),
		Days:   int32(binary.LittleEndian.Uint32(b[4:8])),
		Micros: int64(binary.LittleEndian.Uint64(b[8:16])),
	}
}
