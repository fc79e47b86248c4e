package colvec

import (
	"math"
	"reflect"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/exp/constraints"
)

const (
	secondsPerDay = 24 * 60 * 60

	// maxTZOffset is the largest UTC offset, in seconds, a TIME_TZ value can carry.
	maxTZOffset  = 16*60*60 - 1
	tzOffsetBits = 24
)

type boolEncoder struct {
	vec *Vector
}

func (e *boolEncoder) encode(row int, val any) error {
	v, ok := val.(bool)
	if !ok {
		return typeMismatch(e.vec.typ, val)
	}
	var b byte
	if v {
		b = 1
	}
	e.vec.data.Bytes()[row] = b
	return nil
}

// fixedEncoder stores integers and floats. The Go type must match the
// column width exactly; no widening or narrowing is performed.
type fixedEncoder[T constraints.Integer | constraints.Float] struct {
	vec  *Vector
	cast func([]byte) []T
}

func newFixedEncoder[T constraints.Integer | constraints.Float](vec *Vector, cast func([]byte) []T) *fixedEncoder[T] {
	return &fixedEncoder[T]{vec: vec, cast: cast}
}

func (e *fixedEncoder[T]) encode(row int, val any) error {
	v, ok := val.(T)
	if !ok {
		return typeMismatch(e.vec.typ, val)
	}
	e.cast(e.vec.data.Bytes())[row] = v
	return nil
}

type stringEncoder struct {
	vec *Vector
}

func (e *stringEncoder) encode(row int, val any) error {
	var err error
	switch v := val.(type) {
	case string:
		err = assignString(e.vec, row, v)
	case []byte:
		err = assignString(e.vec, row, v)
	default:
		rv := reflect.ValueOf(val)
		switch {
		case rv.Kind() == reflect.String:
			err = assignString(e.vec, row, rv.String())
		case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
			err = assignString(e.vec, row, rv.Bytes())
		default:
			return typeMismatch(e.vec.typ, val)
		}
	}
	if err != nil {
		return newWriteError(e.vec.typ, nil, err)
	}
	return nil
}

func (e *stringEncoder) encodeBlob(row int, b []byte) error {
	if err := assignString(e.vec, row, b); err != nil {
		return newWriteError(e.vec.typ, nil, err)
	}
	return nil
}

type dateEncoder struct {
	vec *Vector
}

func (e *dateEncoder) encode(row int, val any) error {
	var t time.Time
	switch v := val.(type) {
	case time.Time:
		t = v
	case pgtype.Date:
		if v.InfinityModifier != pgtype.Finite {
			return rangeError(e.vec.typ, val, "infinite date")
		}
		t = v.Time
	case pgtype.Timestamp:
		if v.InfinityModifier != pgtype.Finite {
			return rangeError(e.vec.typ, val, "infinite timestamp")
		}
		t = v.Time
	default:
		return typeMismatch(e.vec.typ, val)
	}
	days, ok := daysSinceEpoch(t)
	if !ok {
		return rangeError(e.vec.typ, val, "date outside int32 day range")
	}
	arrow.Int32Traits.CastFromBytes(e.vec.data.Bytes())[row] = days
	return nil
}

// daysSinceEpoch returns the calendar date of t, in t's own location, as
// days since 1970-01-01.
func daysSinceEpoch(t time.Time) (int32, bool) {
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	if days < math.MinInt32 || days > math.MaxInt32 {
		return 0, false
	}
	return int32(days), true
}

type timeEncoder struct {
	vec *Vector
}

func (e *timeEncoder) encode(row int, val any) error {
	var micros int64
	switch v := val.(type) {
	case time.Time:
		micros = microsSinceMidnight(v)
	case pgtype.Time:
		if v.Microseconds < 0 || v.Microseconds > microsPerDay {
			return rangeError(e.vec.typ, val, "%d microseconds outside [0, %d]", v.Microseconds, microsPerDay)
		}
		micros = v.Microseconds
	default:
		return typeMismatch(e.vec.typ, val)
	}
	arrow.Int64Traits.CastFromBytes(e.vec.data.Bytes())[row] = micros
	return nil
}

func microsSinceMidnight(t time.Time) int64 {
	h, m, s := t.Clock()
	return int64(h)*int64(time.Hour/time.Microsecond) +
		int64(m)*int64(time.Minute/time.Microsecond) +
		int64(s)*int64(time.Second/time.Microsecond) +
		int64(t.Nanosecond())/int64(time.Microsecond)
}

type timeTZEncoder struct {
	vec *Vector
}

func (e *timeTZEncoder) encode(row int, val any) error {
	t, ok := val.(time.Time)
	if !ok {
		return typeMismatch(e.vec.typ, val)
	}
	_, offset := t.Zone()
	if offset < -maxTZOffset || offset > maxTZOffset {
		return rangeError(e.vec.typ, val, "UTC offset %ds outside [-%d, %d]", offset, maxTZOffset, maxTZOffset)
	}
	arrow.Uint64Traits.CastFromBytes(e.vec.data.Bytes())[row] = packTimeTZ(microsSinceMidnight(t), offset)
	return nil
}

// packTimeTZ stores micros in the high 40 bits and the inverted offset in
// the low 24 bits.
func packTimeTZ(micros int64, offset int) uint64 {
	return uint64(micros)<<tzOffsetBits | uint64(maxTZOffset-offset)
}

func unpackTimeTZ(bits uint64) (micros int64, offset int) {
	return int64(bits >> tzOffsetBits), maxTZOffset - int(bits&(1<<tzOffsetBits-1))
}

type timestampEncoder struct {
	vec *Vector
}

func (e *timestampEncoder) encode(row int, val any) error {
	var t time.Time
	switch v := val.(type) {
	case time.Time:
		t = v
	case pgtype.Timestamp:
		if v.InfinityModifier != pgtype.Finite {
			return rangeError(e.vec.typ, val, "infinite timestamp")
		}
		t = v.Time
	case pgtype.Timestamptz:
		if v.InfinityModifier != pgtype.Finite {
			return rangeError(e.vec.typ, val, "infinite timestamp")
		}
		t = v.Time
	case pgtype.Date:
		if v.InfinityModifier != pgtype.Finite {
			return rangeError(e.vec.typ, val, "infinite date")
		}
		t = v.Time
	default:
		return typeMismatch(e.vec.typ, val)
	}
	var ts int64
	switch e.vec.typ.id {
	case TypeTimestampS:
		ts = t.Unix()
	case TypeTimestampMS:
		ts = t.UnixMilli()
	case TypeTimestampNS:
		ts = t.UnixNano()
		if !time.Unix(0, ts).Equal(t) {
			return rangeError(e.vec.typ, val, "timestamp outside nanosecond range")
		}
	default:
		ts = t.UnixMicro()
	}
	arrow.Int64Traits.CastFromBytes(e.vec.data.Bytes())[row] = ts
	return nil
}

// timestampToTime inverts the encoding of timestampEncoder for kind.
func timestampToTime(kind TypeID, ts int64) time.Time {
	switch kind {
	case TypeTimestampS:
		return time.Unix(ts, 0).UTC()
	case TypeTimestampMS:
		return time.UnixMilli(ts).UTC()
	case TypeTimestampNS:
		return time.Unix(0, ts).UTC()
	default:
		return time.UnixMicro(ts).UTC()
	}
}
