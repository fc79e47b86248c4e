package colvec

import (
	"math/big"

	"github.com/apache/arrow-go/v18/arrow"
)

type decimalEncoder struct {
	vec   *Vector
	bound *big.Int // 10^width, exclusive bound on the unscaled magnitude
}

func newDecimalEncoder(vec *Vector) *decimalEncoder {
	return &decimalEncoder{
		vec:   vec,
		bound: new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(vec.typ.width)), nil),
	}
}

func (e *decimalEncoder) encode(row int, val any) error {
	t := e.vec.typ
	d, ok, err := toDecimal(val)
	if !ok {
		return typeMismatch(t, val)
	}
	if err != nil {
		return newWriteError(t, val, err)
	}
	u := unscaled(d, t.scale)
	if u.CmpAbs(e.bound) >= 0 {
		return rangeError(t, val, "%s has more than %d digits", u, t.width)
	}
	data := e.vec.data.Bytes()
	switch t.decimalStorage() {
	case TypeSmallInt:
		arrow.Int16Traits.CastFromBytes(data)[row] = int16(u.Int64())
	case TypeInteger:
		arrow.Int32Traits.CastFromBytes(data)[row] = int32(u.Int64())
	case TypeBigInt:
		arrow.Int64Traits.CastFromBytes(data)[row] = u.Int64()
	default:
		h, err := HugeIntFromBigInt(u)
		if err != nil {
			return newWriteError(t, val, err)
		}
		arrow.Decimal128Traits.CastFromBytes(data)[row] = h.num()
	}
	return nil
}

// decimalAt reads the unscaled value stored at row.
func decimalAt(v *Vector, row int) *big.Int {
	data := v.data.Bytes()
	switch v.typ.decimalStorage() {
	case TypeSmallInt:
		return big.NewInt(int64(arrow.Int16Traits.CastFromBytes(data)[row]))
	case TypeInteger:
		return big.NewInt(int64(arrow.Int32Traits.CastFromBytes(data)[row]))
	case TypeBigInt:
		return big.NewInt(arrow.Int64Traits.CastFromBytes(data)[row])
	default:
		return hugeIntFromNum(arrow.Decimal128Traits.CastFromBytes(data)[row]).BigInt()
	}
}
