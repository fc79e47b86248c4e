package colvec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowType returns the Arrow type a vector of t exports to.
func (t *LogicalType) ArrowType() (arrow.DataType, error) {
	switch t.id {
	case TypeBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case TypeTinyInt:
		return arrow.PrimitiveTypes.Int8, nil
	case TypeSmallInt:
		return arrow.PrimitiveTypes.Int16, nil
	case TypeInteger:
		return arrow.PrimitiveTypes.Int32, nil
	case TypeBigInt:
		return arrow.PrimitiveTypes.Int64, nil
	case TypeUTinyInt:
		return arrow.PrimitiveTypes.Uint8, nil
	case TypeUSmallInt:
		return arrow.PrimitiveTypes.Uint16, nil
	case TypeUInteger:
		return arrow.PrimitiveTypes.Uint32, nil
	case TypeUBigInt:
		return arrow.PrimitiveTypes.Uint64, nil
	case TypeFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case TypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case TypeVarchar:
		return arrow.BinaryTypes.String, nil
	case TypeBlob:
		return arrow.BinaryTypes.Binary, nil
	case TypeDate:
		return arrow.PrimitiveTypes.Date32, nil
	case TypeTime, TypeTimeTZ:
		return arrow.FixedWidthTypes.Time64us, nil
	case TypeTimestampS:
		return &arrow.TimestampType{Unit: arrow.Second}, nil
	case TypeTimestampMS:
		return &arrow.TimestampType{Unit: arrow.Millisecond}, nil
	case TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case TypeTimestampNS:
		return &arrow.TimestampType{Unit: arrow.Nanosecond}, nil
	case TypeTimestampTZ:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case TypeInterval:
		return arrow.FixedWidthTypes.MonthDayNanoInterval, nil
	case TypeHugeInt:
		return &arrow.Decimal128Type{Precision: MaxDecimalWidth, Scale: 0}, nil
	case TypeUUID:
		return &arrow.FixedSizeBinaryType{ByteWidth: 16}, nil
	case TypeDecimal:
		return &arrow.Decimal128Type{Precision: int32(t.width), Scale: int32(t.scale)}, nil
	case TypeEnum:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}, nil
	case TypeList:
		child, err := t.child.ArrowType()
		if err != nil {
			return nil, err
		}
		return arrow.LargeListOf(child), nil
	case TypeArray:
		child, err := t.child.ArrowType()
		if err != nil {
			return nil, err
		}
		return arrow.FixedSizeListOf(int32(t.size), child), nil
	case TypeStruct:
		fields := make([]arrow.Field, len(t.fields))
		for i, f := range t.fields {
			ft, err := f.Type.ArrowType()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields[i] = arrow.Field{Name: f.Name, Type: ft, Nullable: true}
		}
		return arrow.StructOf(fields...), nil
	default:
		return nil, fmt.Errorf("%w: no Arrow type for %s", ErrUnsupportedKind, t)
	}
}

// ArrowSchema builds the Arrow schema for columns with the given names and types.
func ArrowSchema(names []string, types []*LogicalType) (*arrow.Schema, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("schema mismatch: %d names, %d types", len(names), len(types))
	}
	fields := make([]arrow.Field, len(types))
	for i, t := range types {
		dt, err := t.ArrowType()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", names[i], err)
		}
		fields[i] = arrow.Field{
			Name:     names[i],
			Type:     dt,
			Nullable: true,
		}
	}
	return arrow.NewSchema(fields, nil), nil
}

// NewRecord copies the first Size rows of the chunk into an Arrow record
// batch laid out per schema. The record is independent of the chunk and
// must be released by the caller.
func (c *Chunk) NewRecord(schema *arrow.Schema) (arrow.RecordBatch, error) {
	if c.released {
		return nil, ErrReleased
	}
	if schema.NumFields() != len(c.vectors) {
		return nil, fmt.Errorf("schema mismatch: %d fields, %d columns", schema.NumFields(), len(c.vectors))
	}

	arrays := make([]arrow.Array, len(c.vectors))
	release := func() {
		for _, arr := range arrays {
			if arr != nil {
				arr.Release()
			}
		}
	}
	for i, v := range c.vectors {
		arr, err := exportVector(c.cfg.Allocator, v, schema.Field(i).Type, c.size)
		if err != nil {
			release()
			return nil, fmt.Errorf("column %q: %w", schema.Field(i).Name, err)
		}
		arrays[i] = arr
	}

	record := array.NewRecordBatch(schema, arrays, int64(c.size))

	// Release arrays (record has retained them)
	release()
	return record, nil
}

func exportVector(mem memory.Allocator, v *Vector, dt arrow.DataType, rows int) (arrow.Array, error) {
	want, err := v.typ.ArrowType()
	if err != nil {
		return nil, err
	}
	if !arrow.TypeEqual(want, dt) {
		return nil, fmt.Errorf("%w: %s column cannot export as %s", ErrTypeMismatch, v.typ, dt)
	}
	b := array.NewBuilder(mem, dt)
	defer b.Release()
	b.Reserve(rows)
	for row := 0; row < rows; row++ {
		if err := appendArrow(b, v, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	return b.NewArray(), nil
}

// appendArrow appends the value at row of v to a builder of v's Arrow type.
func appendArrow(b array.Builder, v *Vector, row int) error {
	if !v.IsValid(row) {
		b.AppendNull()
		return nil
	}
	data := v.Data()
	switch v.typ.id {
	case TypeBoolean:
		b.(*array.BooleanBuilder).Append(data[row] != 0)
	case TypeTinyInt:
		b.(*array.Int8Builder).Append(arrow.Int8Traits.CastFromBytes(data)[row])
	case TypeSmallInt:
		b.(*array.Int16Builder).Append(arrow.Int16Traits.CastFromBytes(data)[row])
	case TypeInteger:
		b.(*array.Int32Builder).Append(arrow.Int32Traits.CastFromBytes(data)[row])
	case TypeBigInt:
		b.(*array.Int64Builder).Append(arrow.Int64Traits.CastFromBytes(data)[row])
	case TypeUTinyInt:
		b.(*array.Uint8Builder).Append(data[row])
	case TypeUSmallInt:
		b.(*array.Uint16Builder).Append(arrow.Uint16Traits.CastFromBytes(data)[row])
	case TypeUInteger:
		b.(*array.Uint32Builder).Append(arrow.Uint32Traits.CastFromBytes(data)[row])
	case TypeUBigInt:
		b.(*array.Uint64Builder).Append(arrow.Uint64Traits.CastFromBytes(data)[row])
	case TypeFloat:
		b.(*array.Float32Builder).Append(arrow.Float32Traits.CastFromBytes(data)[row])
	case TypeDouble:
		b.(*array.Float64Builder).Append(arrow.Float64Traits.CastFromBytes(data)[row])
	case TypeVarchar:
		b.(*array.StringBuilder).Append(string(v.stringAt(row)))
	case TypeBlob:
		b.(*array.BinaryBuilder).Append(v.stringAt(row))
	case TypeDate:
		b.(*array.Date32Builder).Append(arrow.Date32(arrow.Int32Traits.CastFromBytes(data)[row]))
	case TypeTime:
		b.(*array.Time64Builder).Append(arrow.Time64(arrow.Int64Traits.CastFromBytes(data)[row]))
	case TypeTimeTZ:
		micros, _ := unpackTimeTZ(arrow.Uint64Traits.CastFromBytes(data)[row])
		b.(*array.Time64Builder).Append(arrow.Time64(micros))
	case TypeTimestampS, TypeTimestampMS, TypeTimestamp, TypeTimestampNS, TypeTimestampTZ:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(arrow.Int64Traits.CastFromBytes(data)[row]))
	case TypeInterval:
		iv := intervalAt(v, row)
		b.(*array.MonthDayNanoIntervalBuilder).Append(arrow.MonthDayNanoInterval{
			Months:      iv.Months,
			Days:        iv.Days,
			Nanoseconds: iv.Micros * 1000,
		})
	case TypeHugeInt:
		b.(*array.Decimal128Builder).Append(arrow.Decimal128Traits.CastFromBytes(data)[row])
	case TypeUUID:
		u := HugeIntToUUID(hugeIntFromNum(arrow.Decimal128Traits.CastFromBytes(data)[row]))
		b.(*array.FixedSizeBinaryBuilder).Append(u[:])
	case TypeDecimal:
		h, err := HugeIntFromBigInt(decimalAt(v, row))
		if err != nil {
			return err
		}
		b.(*array.Decimal128Builder).Append(h.num())
	case TypeEnum:
		code := enumCodeAt(v, row)
		if int(code) >= len(v.typ.dictionary) {
			return fmt.Errorf("%w: enum code %d outside dictionary", ErrRange, code)
		}
		return b.(*array.BinaryDictionaryBuilder).AppendString(v.typ.dictionary[code])
	case TypeList:
		lb := b.(*array.LargeListBuilder)
		offset, length := v.ListEntry(row)
		lb.Append(true)
		return appendChildren(lb.ValueBuilder(), v.children[0], int(offset), int(length))
	case TypeArray:
		fb := b.(*array.FixedSizeListBuilder)
		fb.Append(true)
		return appendChildren(fb.ValueBuilder(), v.children[0], row*v.typ.size, v.typ.size)
	case TypeStruct:
		sb := b.(*array.StructBuilder)
		sb.Append(true)
		for i := range v.children {
			if err := appendArrow(sb.FieldBuilder(i), v.children[i], row); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: cannot export %s", ErrUnsupportedKind, v.typ)
	}
	return nil
}

func appendChildren(b array.Builder, child *Vector, offset, n int) error {
	for i := offset; i < offset+n; i++ {
		if err := appendArrow(b, child, i); err != nil {
			return err
		}
	}
	return nil
}
