package colvec_test

import (
	"encoding/binary"
	"math"
	"math/big"
	"testing"

	"github.com/fwojciec/colvec"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimalType(t *testing.T, width, scale uint8) *colvec.LogicalType {
	t.Helper()
	typ, err := colvec.NewDecimalType(width, scale)
	require.NoError(t, err)
	return typ
}

func TestDecimalWriter_Scaling(t *testing.T) {
	t.Parallel()

	t.Run("1.23 as DECIMAL(4,2)", func(t *testing.T) {
		t.Parallel()
		w, vec, cleanup := newTestWriter(t, 1, mustDecimalType(t, 4, 2))
		defer cleanup()

		require.NoError(t, w.WriteValue(0, decimal.RequireFromString("1.23")))
		assert.Equal(t, int16(123), int16(binary.LittleEndian.Uint16(vec.Data())))
	})

	t.Run("-0.005 as DECIMAL(4,3)", func(t *testing.T) {
		t.Parallel()
		w, vec, cleanup := newTestWriter(t, 1, mustDecimalType(t, 4, 3))
		defer cleanup()

		require.NoError(t, w.WriteValue(0, decimal.RequireFromString("-0.005")))
		assert.Equal(t, int16(-5), int16(binary.LittleEndian.Uint16(vec.Data())))

		got, ok := readValue(t, vec, 0).(colvec.Decimal)
		require.True(t, ok)
		assert.Equal(t, "-0.005", got.String())
	})
}

func TestDecimalWriter_Inputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		width uint8
		scale uint8
		input any
		want  string
	}{
		{"shopspring", 9, 2, decimal.RequireFromString("1234567.89"), "1234567.89"},
		{"rounds half away from zero", 9, 2, decimal.RequireFromString("1.235"), "1.24"},
		{"float64", 9, 2, 1.1, "1.10"},
		{"float32", 9, 1, float32(2.5), "2.5"},
		{"int64", 18, 4, int64(-42), "-42.0000"},
		{"int32", 9, 0, int32(7), "7"},
		{"int", 9, 0, 7, "7"},
		{"big.Int", 38, 0, new(big.Int).Exp(big.NewInt(10), big.NewInt(37), nil), "10000000000000000000000000000000000000"},
		{"string", 18, 3, "-12.5", "-12.500"},
		{"pgtype.Numeric", 10, 2, pgtype.Numeric{Int: big.NewInt(1234500), Exp: -4, Valid: true}, "123.45"},
		{"colvec.Decimal", 19, 3, colvec.Decimal{Width: 4, Scale: 1, Value: big.NewInt(15)}, "1.500"},
		{"hugeint storage negative", 38, 10, decimal.RequireFromString("-123456789012345678.0123456789"), "-123456789012345678.0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, vec, cleanup := newTestWriter(t, 1, mustDecimalType(t, tt.width, tt.scale))
			defer cleanup()

			require.NoError(t, w.WriteValue(0, tt.input))
			got, ok := readValue(t, vec, 0).(colvec.Decimal)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.width, got.Width)
			assert.Equal(t, tt.scale, got.Scale)
		})
	}
}

func TestDecimalWriter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		width   uint8
		scale   uint8
		input   any
		wantErr error
	}{
		{"too many digits", 4, 2, decimal.RequireFromString("100.00"), colvec.ErrRange},
		{"too many digits after rounding", 4, 2, decimal.RequireFromString("99.999"), colvec.ErrRange},
		{"too many digits for hugeint storage", 38, 0, new(big.Int).Exp(big.NewInt(10), big.NewInt(38), nil), colvec.ErrRange},
		{"NaN", 10, 2, pgtype.Numeric{NaN: true, Valid: true}, colvec.ErrRange},
		{"infinity", 10, 2, pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, colvec.ErrRange},
		{"float NaN", 18, 3, math.NaN(), colvec.ErrRange},
		{"float +Inf", 18, 3, math.Inf(1), colvec.ErrRange},
		{"float -Inf", 18, 3, math.Inf(-1), colvec.ErrRange},
		{"float32 NaN", 18, 3, float32(math.NaN()), colvec.ErrRange},
		{"float32 +Inf", 18, 3, float32(math.Inf(1)), colvec.ErrRange},
		{"unparsable string", 10, 2, "ten", colvec.ErrTypeMismatch},
		{"bool", 10, 2, true, colvec.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, _, cleanup := newTestWriter(t, 1, mustDecimalType(t, tt.width, tt.scale))
			defer cleanup()
			require.ErrorIs(t, w.WriteValue(0, tt.input), tt.wantErr)
		})
	}
}

func TestDecimal_Conversions(t *testing.T) {
	t.Parallel()

	d := colvec.Decimal{Width: 6, Scale: 3, Value: big.NewInt(-1500)}
	assert.True(t, d.Decimal().Equal(decimal.RequireFromString("-1.5")))
	assert.InDelta(t, -1.5, d.Float64(), 1e-12)
	assert.Equal(t, "-1.500", d.String())
	assert.Equal(t, "0.000", colvec.Decimal{Scale: 3}.String())
}
