package colvec

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	// PostgreSQL type OIDs for supported data types
	TypeOIDBool        = 16
	TypeOIDBytea       = 17
	TypeOIDChar        = 18
	TypeOIDName        = 19
	TypeOIDInt8        = 20
	TypeOIDInt2        = 21
	TypeOIDInt4        = 23
	TypeOIDText        = 25
	TypeOIDFloat4      = 700
	TypeOIDFloat8      = 701
	TypeOIDBpchar      = 1042
	TypeOIDVarchar     = 1043
	TypeOIDDate        = 1082
	TypeOIDTime        = 1083
	TypeOIDTimestamp   = 1114
	TypeOIDTimestamptz = 1184
	TypeOIDInterval    = 1186
	TypeOIDTimetz      = 1266
	TypeOIDNumeric     = 1700
	TypeOIDUUID        = 2950

	// Array type OIDs
	TypeOIDBoolArray        = 1000
	TypeOIDInt2Array        = 1005
	TypeOIDInt4Array        = 1007
	TypeOIDTextArray        = 1009
	TypeOIDVarcharArray     = 1015
	TypeOIDInt8Array        = 1016
	TypeOIDFloat4Array      = 1021
	TypeOIDFloat8Array      = 1022
	TypeOIDTimestampArray   = 1115
	TypeOIDDateArray        = 1182
	TypeOIDTimestamptzArray = 1185
	TypeOIDNumericArray     = 1231
	TypeOIDUUIDArray        = 2951

	// PostgreSQL epoch adjustment: days from 1970-01-01 to 2000-01-01
	PostgresDateEpochDays = 10957
	// PostgreSQL timestamp epoch adjustment: microseconds from 1970-01-01 to 2000-01-01
	PostgresTimestampEpochMicros = 946684800000000

	// Numeric columns without a declared precision map to this decimal.
	defaultNumericWidth = MaxDecimalWidth
	defaultNumericScale = 10
)

// Binary numeric sign words.
const (
	numericPositive = 0x0000
	numericNegative = 0x4000
	numericNaN      = 0xC000
	numericPosInf   = 0xD000
	numericNegInf   = 0xF000
)

// ColumnInfo represents PostgreSQL column metadata
type ColumnInfo struct {
	Name         string
	OID          uint32
	TypeModifier int32
}

// TypeHandler maps one PostgreSQL type to a vector type and decodes its
// binary representation into a value the matching VectorWriter accepts.
type TypeHandler interface {
	// OID returns the PostgreSQL type OID
	OID() uint32
	// Name returns the human-readable type name
	Name() string
	// LogicalType returns the vector type for a column with the given type modifier
	LogicalType(typmod int32) (*LogicalType, error)
	// Parse converts binary PostgreSQL data to a Go value
	Parse(data []byte) (any, error)
}

// TypeRegistry manages type handlers by OID
type TypeRegistry struct {
	handlers map[uint32]TypeHandler
}

// NewRegistry creates a new type registry with all built-in types registered
func NewRegistry() *TypeRegistry {
	registry := &TypeRegistry{
		handlers: make(map[uint32]TypeHandler),
	}
	scalars := []*scalarType{
		{oid: TypeOIDBool, name: "bool", id: TypeBoolean, parse: parseBool},
		{oid: TypeOIDBytea, name: "bytea", id: TypeBlob, parse: parseBytea},
		{oid: TypeOIDInt2, name: "int2", id: TypeSmallInt, parse: parseInt2},
		{oid: TypeOIDInt4, name: "int4", id: TypeInteger, parse: parseInt4},
		{oid: TypeOIDInt8, name: "int8", id: TypeBigInt, parse: parseInt8},
		{oid: TypeOIDFloat4, name: "float4", id: TypeFloat, parse: parseFloat4},
		{oid: TypeOIDFloat8, name: "float8", id: TypeDouble, parse: parseFloat8},
		{oid: TypeOIDText, name: "text", id: TypeVarchar, parse: parseText},
		{oid: TypeOIDVarchar, name: "varchar", id: TypeVarchar, parse: parseText},
		{oid: TypeOIDBpchar, name: "bpchar", id: TypeVarchar, parse: parseText},
		{oid: TypeOIDName, name: "name", id: TypeVarchar, parse: parseText},
		{oid: TypeOIDChar, name: "char", id: TypeVarchar, parse: parseText},
		{oid: TypeOIDDate, name: "date", id: TypeDate, parse: parseDate},
		{oid: TypeOIDTime, name: "time", id: TypeTime, parse: parseTime},
		{oid: TypeOIDTimetz, name: "timetz", id: TypeTimeTZ, parse: parseTimetz},
		{oid: TypeOIDTimestamp, name: "timestamp", id: TypeTimestamp, parse: parseTimestamp},
		{oid: TypeOIDTimestamptz, name: "timestamptz", id: TypeTimestampTZ, parse: parseTimestamptz},
		{oid: TypeOIDInterval, name: "interval", id: TypeInterval, parse: parseInterval},
		{oid: TypeOIDUUID, name: "uuid", id: TypeUUID, parse: parseUUID},
	}
	for _, s := range scalars {
		registry.register(s)
	}
	registry.register(numericType{})

	arrays := []struct {
		oid  uint32
		elem uint32
	}{
		{TypeOIDBoolArray, TypeOIDBool},
		{TypeOIDInt2Array, TypeOIDInt2},
		{TypeOIDInt4Array, TypeOIDInt4},
		{TypeOIDInt8Array, TypeOIDInt8},
		{TypeOIDFloat4Array, TypeOIDFloat4},
		{TypeOIDFloat8Array, TypeOIDFloat8},
		{TypeOIDTextArray, TypeOIDText},
		{TypeOIDVarcharArray, TypeOIDVarchar},
		{TypeOIDDateArray, TypeOIDDate},
		{TypeOIDTimestampArray, TypeOIDTimestamp},
		{TypeOIDTimestamptzArray, TypeOIDTimestamptz},
		{TypeOIDNumericArray, TypeOIDNumeric},
		{TypeOIDUUIDArray, TypeOIDUUID},
	}
	for _, a := range arrays {
		registry.register(&arrayType{oid: a.oid, elem: registry.handlers[a.elem]})
	}

	return registry
}

// GetHandler returns the type handler for the given OID
func (r *TypeRegistry) GetHandler(oid uint32) (TypeHandler, error) {
	handler, exists := r.handlers[oid]
	if !exists {
		return nil, fmt.Errorf("%w: PostgreSQL type OID %d", ErrUnsupportedKind, oid)
	}
	return handler, nil
}

// Register adds a new type handler to the registry
func (r *TypeRegistry) Register(handler TypeHandler) error {
	oid := handler.OID()
	if _, exists := r.handlers[oid]; exists {
		return fmt.Errorf("type OID already registered: %d", oid)
	}
	r.handlers[oid] = handler
	return nil
}

// register is internal method for initial setup
func (r *TypeRegistry) register(handler TypeHandler) {
	r.handlers[handler.OID()] = handler
}

// CreateTypes maps PostgreSQL column metadata to vector types. Columns
// without a handler are reported together in a SchemaError.
func (r *TypeRegistry) CreateTypes(columns []ColumnInfo) ([]*LogicalType, error) {
	types := make([]*LogicalType, len(columns))
	var failed []ColumnInfo
	var firstErr error
	for i, col := range columns {
		handler, err := r.GetHandler(col.OID)
		if err == nil {
			types[i], err = handler.LogicalType(col.TypeModifier)
		}
		if err != nil {
			failed = append(failed, col)
			if firstErr == nil {
				firstErr = fmt.Errorf("column %q: %w", col.Name, err)
			}
		}
	}
	if len(failed) > 0 {
		return nil, &SchemaError{Columns: failed, Err: firstErr}
	}
	return types, nil
}

// scalarType handles a PostgreSQL type with a fixed vector type.
type scalarType struct {
	oid   uint32
	name  string
	id    TypeID
	parse func([]byte) (any, error)
}

func (t *scalarType) OID() uint32  { return t.oid }
func (t *scalarType) Name() string { return t.name }

func (t *scalarType) LogicalType(int32) (*LogicalType, error) {
	return NewPrimitiveType(t.id)
}

func (t *scalarType) Parse(data []byte) (any, error) {
	return t.parse(data)
}

func checkLen(name string, data []byte, want int) error {
	if len(data) != want {
		return fmt.Errorf("invalid data length for %s: expected %d, got %d", name, want, len(data))
	}
	return nil
}

func parseBool(data []byte) (any, error) {
	if err := checkLen("bool", data, 1); err != nil {
		return nil, err
	}
	return data[0] != 0, nil
}

func parseBytea(data []byte) (any, error) {
	return append([]byte{}, data...), nil
}

func parseInt2(data []byte) (any, error) {
	if err := checkLen("int2", data, 2); err != nil {
		return nil, err
	}
	return int16(binary.BigEndian.Uint16(data)), nil
}

func parseInt4(data []byte) (any, error) {
	if err := checkLen("int4", data, 4); err != nil {
		return nil, err
	}
	return int32(binary.BigEndian.Uint32(data)), nil
}

func parseInt8(data []byte) (any, error) {
	if err := checkLen("int8", data, 8); err != nil {
		return nil, err
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

func parseFloat4(data []byte) (any, error) {
	if err := checkLen("float4", data, 4); err != nil {
		return nil, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(data)), nil
}

func parseFloat8(data []byte) (any, error) {
	if err := checkLen("float8", data, 8); err != nil {
		return nil, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}

// parseText returns the payload as a string. Empty data is an empty string;
// NULL is signalled by the field length.
func parseText(data []byte) (any, error) {
	return string(data), nil
}

func parseDate(data []byte) (any, error) {
	if err := checkLen("date", data, 4); err != nil {
		return nil, err
	}
	pgDays := int32(binary.BigEndian.Uint32(data))
	switch pgDays {
	case math.MaxInt32:
		return pgtype.Date{InfinityModifier: pgtype.Infinity, Valid: true}, nil
	case math.MinInt32:
		return pgtype.Date{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, nil
	}
	days := int64(pgDays) + PostgresDateEpochDays
	return time.Unix(days*secondsPerDay, 0).UTC(), nil
}

func parseTime(data []byte) (any, error) {
	if err := checkLen("time", data, 8); err != nil {
		return nil, err
	}
	// PostgreSQL time is stored as microseconds since midnight
	return pgtype.Time{Microseconds: int64(binary.BigEndian.Uint64(data)), Valid: true}, nil
}

func parseTimetz(data []byte) (any, error) {
	if err := checkLen("timetz", data, 12); err != nil {
		return nil, err
	}
	micros := int64(binary.BigEndian.Uint64(data[0:8]))
	// The zone is stored in seconds west of UTC.
	offset := -int(int32(binary.BigEndian.Uint32(data[8:12])))
	loc := time.FixedZone("", offset)
	return time.Date(1970, 1, 1, 0, 0, 0, 0, loc).Add(time.Duration(micros) * time.Microsecond), nil
}

func parseTimestamp(data []byte) (any, error) {
	if err := checkLen("timestamp", data, 8); err != nil {
		return nil, err
	}
	pgMicros := int64(binary.BigEndian.Uint64(data))
	switch pgMicros {
	case math.MaxInt64:
		return pgtype.Timestamp{InfinityModifier: pgtype.Infinity, Valid: true}, nil
	case math.MinInt64:
		return pgtype.Timestamp{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, nil
	}
	return time.UnixMicro(pgMicros + PostgresTimestampEpochMicros).UTC(), nil
}

func parseTimestamptz(data []byte) (any, error) {
	if err := checkLen("timestamptz", data, 8); err != nil {
		return nil, err
	}
	pgMicros := int64(binary.BigEndian.Uint64(data))
	switch pgMicros {
	case math.MaxInt64:
		return pgtype.Timestamptz{InfinityModifier: pgtype.Infinity, Valid: true}, nil
	case math.MinInt64:
		return pgtype.Timestamptz{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, nil
	}
	return time.UnixMicro(pgMicros + PostgresTimestampEpochMicros).UTC(), nil
}

func parseInterval(data []byte) (any, error) {
	if err := checkLen("interval", data, 16); err != nil {
		return nil, err
	}
	// PostgreSQL: (microseconds int64, days int32, months int32)
	return Interval{
		Micros: int64(binary.BigEndian.Uint64(data[0:8])),
		Days:   int32(binary.BigEndian.Uint32(data[8:12])),
		Months: int32(binary.BigEndian.Uint32(data[12:16])),
	}, nil
}

func parseUUID(data []byte) (any, error) {
	u, err := uuid.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid: %w", err)
	}
	return u, nil
}

// numericType handles numeric, whose vector type depends on the declared
// precision and scale.
type numericType struct{}

func (numericType) OID() uint32  { return TypeOIDNumeric }
func (numericType) Name() string { return "numeric" }

func (numericType) LogicalType(typmod int32) (*LogicalType, error) {
	if typmod < 4 {
		return NewDecimalType(defaultNumericWidth, defaultNumericScale)
	}
	precision := ((typmod - 4) >> 16) & 0xffff
	scale := (typmod - 4) & 0xffff
	if precision == 0 || precision > MaxDecimalWidth || scale > precision {
		return NewDecimalType(defaultNumericWidth, defaultNumericScale)
	}
	return NewDecimalType(uint8(precision), uint8(scale))
}

// Parse decodes the base-10000 digit representation into a pgtype.Numeric.
func (numericType) Parse(data []byte) (any, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("invalid data length for numeric: expected at least 8, got %d", len(data))
	}
	ndigits := int(binary.BigEndian.Uint16(data[0:2]))
	weight := int(int16(binary.BigEndian.Uint16(data[2:4])))
	sign := binary.BigEndian.Uint16(data[4:6])
	if len(data) != 8+2*ndigits {
		return nil, fmt.Errorf("invalid data length for numeric: %d digits in %d bytes", ndigits, len(data))
	}
	switch sign {
	case numericNaN:
		return pgtype.Numeric{NaN: true, Valid: true}, nil
	case numericPosInf:
		return pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, nil
	case numericNegInf:
		return pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, nil
	case numericPositive, numericNegative:
	default:
		return nil, fmt.Errorf("invalid numeric sign 0x%04x", sign)
	}

	value := new(big.Int)
	base := big.NewInt(10000)
	for i := 0; i < ndigits; i++ {
		d := binary.BigEndian.Uint16(data[8+2*i:])
		value.Mul(value, base)
		value.Add(value, big.NewInt(int64(d)))
	}
	if sign == numericNegative {
		value.Neg(value)
	}
	exp := int32(0)
	if ndigits > 0 {
		exp = int32(weight-ndigits+1) * 4
	}
	return pgtype.Numeric{Int: value, Exp: exp, Valid: true}, nil
}

// arrayType handles one-dimensional arrays of a registered element type.
type arrayType struct {
	oid  uint32
	elem TypeHandler
}

func (t *arrayType) OID() uint32  { return t.oid }
func (t *arrayType) Name() string { return "_" + t.elem.Name() }

func (t *arrayType) LogicalType(typmod int32) (*LogicalType, error) {
	child, err := t.elem.LogicalType(typmod)
	if err != nil {
		return nil, err
	}
	return NewListType(child)
}

// Parse decodes the binary array header and elements. NULL elements
// become nil; multi-dimensional arrays are rejected.
func (t *arrayType) Parse(data []byte) (any, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("invalid data length for array: %d", len(data))
	}
	ndim := int32(binary.BigEndian.Uint32(data[0:4]))
	elemOID := binary.BigEndian.Uint32(data[8:12])
	if ndim == 0 {
		return []any{}, nil
	}
	if ndim != 1 {
		return nil, fmt.Errorf("%w: %d-dimensional array", ErrUnsupportedKind, ndim)
	}
	if elemOID != t.elem.OID() {
		return nil, fmt.Errorf("array element OID %d, expected %d", elemOID, t.elem.OID())
	}
	if len(data) < 20 {
		return nil, fmt.Errorf("invalid data length for array: %d", len(data))
	}
	n := int(int32(binary.BigEndian.Uint32(data[12:16])))
	if n < 0 {
		return nil, fmt.Errorf("invalid array length: %d", n)
	}
	rest := data[20:]
	out := make([]any, n)
	for i := range out {
		if len(rest) < 4 {
			return nil, fmt.Errorf("unexpected end of array data at element %d", i)
		}
		size := int(int32(binary.BigEndian.Uint32(rest[0:4])))
		rest = rest[4:]
		if size == -1 {
			continue
		}
		if size < 0 || size > len(rest) {
			return nil, fmt.Errorf("invalid array element length: %d", size)
		}
		v, err := t.elem.Parse(rest[:size])
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		out[i] = v
		rest = rest[size:]
	}
	return out, nil
}
