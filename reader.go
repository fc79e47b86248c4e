package colvec

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Value decodes the value stored at row. Nulls decode to nil. The result
// never aliases vector memory.
//
//	BOOLEAN            bool
//	integers, floats   the Go type of the column width
//	VARCHAR            string
//	BLOB               []byte
//	DATE, TIME, TIMESTAMP_*   time.Time (UTC; TIME on 1970-01-01)
//	TIME_TZ            time.Time on 1970-01-01 in a fixed zone
//	INTERVAL           Interval
//	HUGEINT            HugeInt
//	UUID               uuid.UUID
//	DECIMAL            Decimal
//	ENUM               string
//	LIST, ARRAY        []any
//	STRUCT             map[string]any
func (v *Vector) Value(row int) (any, error) {
	if v.data == nil && v.children == nil {
		return nil, ErrReleased
	}
	if row < 0 || row >= v.capacity {
		return nil, fmt.Errorf("%w: row %d outside [0, %d)", ErrRange, row, v.capacity)
	}
	if !v.IsValid(row) {
		return nil, nil
	}
	data := v.Data()
	switch v.typ.id {
	case TypeBoolean:
		return data[row] != 0, nil
	case TypeTinyInt:
		return arrow.Int8Traits.CastFromBytes(data)[row], nil
	case TypeSmallInt:
		return arrow.Int16Traits.CastFromBytes(data)[row], nil
	case TypeInteger:
		return arrow.Int32Traits.CastFromBytes(data)[row], nil
	case TypeBigInt:
		return arrow.Int64Traits.CastFromBytes(data)[row], nil
	case TypeUTinyInt:
		return data[row], nil
	case TypeUSmallInt:
		return arrow.Uint16Traits.CastFromBytes(data)[row], nil
	case TypeUInteger:
		return arrow.Uint32Traits.CastFromBytes(data)[row], nil
	case TypeUBigInt:
		return arrow.Uint64Traits.CastFromBytes(data)[row], nil
	case TypeFloat:
		return arrow.Float32Traits.CastFromBytes(data)[row], nil
	case TypeDouble:
		return arrow.Float64Traits.CastFromBytes(data)[row], nil
	case TypeVarchar:
		return string(v.stringAt(row)), nil
	case TypeBlob:
		src := v.stringAt(row)
		b := make([]byte, len(src))
		copy(b, src)
		return b, nil
	case TypeDate:
		days := arrow.Int32Traits.CastFromBytes(data)[row]
		return time.Unix(int64(days)*secondsPerDay, 0).UTC(), nil
	case TypeTime:
		return time.UnixMicro(arrow.Int64Traits.CastFromBytes(data)[row]).UTC(), nil
	case TypeTimeTZ:
		micros, offset := unpackTimeTZ(arrow.Uint64Traits.CastFromBytes(data)[row])
		return time.UnixMicro(micros).UTC().
			Add(-time.Duration(offset) * time.Second).
			In(time.FixedZone("", offset)), nil
	case TypeTimestampS, TypeTimestampMS, TypeTimestamp, TypeTimestampNS, TypeTimestampTZ:
		return timestampToTime(v.typ.id, arrow.Int64Traits.CastFromBytes(data)[row]), nil
	case TypeInterval:
		return intervalAt(v, row), nil
	case TypeHugeInt:
		return hugeIntFromNum(arrow.Decimal128Traits.CastFromBytes(data)[row]), nil
	case TypeUUID:
		return HugeIntToUUID(hugeIntFromNum(arrow.Decimal128Traits.CastFromBytes(data)[row])), nil
	case TypeDecimal:
		return Decimal{Width: v.typ.width, Scale: v.typ.scale, Value: decimalAt(v, row)}, nil
	case TypeEnum:
		code := enumCodeAt(v, row)
		if int(code) >= len(v.typ.dictionary) {
			return nil, fmt.Errorf("%w: enum code %d outside dictionary of %d values", ErrRange, code, len(v.typ.dictionary))
		}
		return v.typ.dictionary[code], nil
	case TypeList:
		offset, length := v.ListEntry(row)
		return v.children[0].values(int(offset), int(length))
	case TypeArray:
		return v.children[0].values(row*v.typ.size, v.typ.size)
	case TypeStruct:
		m := make(map[string]any, len(v.children))
		for i, f := range v.typ.fields {
			val, err := v.children[i].Value(row)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			m[f.Name] = val
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: cannot read %s", ErrUnsupportedKind, v.typ)
	}
}

func (v *Vector) values(offset, n int) ([]any, error) {
	out := make([]any, n)
	for i := range out {
		val, err := v.Value(offset + i)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = val
	}
	return out, nil
}

// EnumCode returns the dictionary code stored at row of an ENUM vector.
func (v *Vector) EnumCode(row int) uint32 {
	return enumCodeAt(v, row)
}
