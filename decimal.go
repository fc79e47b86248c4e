package colvec

import (
	"fmt"
	"math"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Decimal is a fixed-point value as read back from a DECIMAL vector:
// Value / 10^Scale.
type Decimal struct {
	Width uint8
	Scale uint8
	Value *big.Int
}

// Decimal converts d to a shopspring decimal.
func (d Decimal) Decimal() decimal.Decimal {
	if d.Value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(d.Value, -int32(d.Scale))
}

// Float64 returns the nearest float64, which may lose precision.
func (d Decimal) Float64() float64 {
	f, _ := d.Decimal().Float64()
	return f
}

func (d Decimal) String() string {
	return d.Decimal().StringFixed(int32(d.Scale))
}

// toDecimal converts the inputs accepted by DECIMAL columns. ok is false for
// unsupported Go types.
func toDecimal(val any) (d decimal.Decimal, ok bool, err error) {
	switch v := val.(type) {
	case decimal.Decimal:
		return v, true, nil
	case Decimal:
		return v.Decimal(), true, nil
	case *big.Int:
		return decimal.NewFromBigInt(v, 0), true, nil
	case pgtype.Numeric:
		if v.NaN || v.InfinityModifier != pgtype.Finite {
			return decimal.Decimal{}, true, fmt.Errorf("%w: numeric is not finite", ErrRange)
		}
		if v.Int == nil {
			return decimal.Zero, true, nil
		}
		return decimal.NewFromBigInt(v.Int, v.Exp), true, nil
	case int64:
		return decimal.NewFromInt(v), true, nil
	case int32:
		return decimal.NewFromInt32(v), true, nil
	case int:
		return decimal.NewFromInt(int64(v)), true, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, true, fmt.Errorf("%w: float is not finite", ErrRange)
		}
		return decimal.NewFromFloat(v), true, nil
	case float32:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, true, fmt.Errorf("%w: float is not finite", ErrRange)
		}
		return decimal.NewFromFloat32(v), true, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, true, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return d, true, nil
	default:
		return decimal.Decimal{}, false, nil
	}
}

// unscaled returns round(d * 10^scale) as an integer.
func unscaled(d decimal.Decimal, scale uint8) *big.Int {
	return d.Shift(int32(scale)).Round(0).BigInt()
}
