package colvec

import (
	"fmt"
	"math"
	"strings"
)

// TypeID identifies the physical kind of a column.
type TypeID uint8

const (
	TypeInvalid TypeID = iota
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeUTinyInt
	TypeUSmallInt
	TypeUInteger
	TypeUBigInt
	TypeFloat
	TypeDouble
	TypeVarchar
	TypeBlob
	TypeDate
	TypeTime
	TypeTimeTZ
	TypeTimestampS
	TypeTimestampMS
	TypeTimestamp
	TypeTimestampNS
	TypeTimestampTZ
	TypeInterval
	TypeHugeInt
	TypeUUID
	TypeDecimal
	TypeEnum
	TypeList
	TypeArray
	TypeStruct
	TypeMap
)

const (
	// MaxDecimalWidth is the widest decimal a HugeInt can hold.
	MaxDecimalWidth = 38

	// Enum dictionaries larger than these limits need a wider code.
	maxUint8Dictionary  = math.MaxUint8
	maxUint16Dictionary = math.MaxUint16
)

var typeNames = map[TypeID]string{
	TypeInvalid:     "INVALID",
	TypeBoolean:     "BOOLEAN",
	TypeTinyInt:     "TINYINT",
	TypeSmallInt:    "SMALLINT",
	TypeInteger:     "INTEGER",
	TypeBigInt:      "BIGINT",
	TypeUTinyInt:    "UTINYINT",
	TypeUSmallInt:   "USMALLINT",
	TypeUInteger:    "UINTEGER",
	TypeUBigInt:     "UBIGINT",
	TypeFloat:       "FLOAT",
	TypeDouble:      "DOUBLE",
	TypeVarchar:     "VARCHAR",
	TypeBlob:        "BLOB",
	TypeDate:        "DATE",
	TypeTime:        "TIME",
	TypeTimeTZ:      "TIME WITH TIME ZONE",
	TypeTimestampS:  "TIMESTAMP_S",
	TypeTimestampMS: "TIMESTAMP_MS",
	TypeTimestamp:   "TIMESTAMP",
	TypeTimestampNS: "TIMESTAMP_NS",
	TypeTimestampTZ: "TIMESTAMP WITH TIME ZONE",
	TypeInterval:    "INTERVAL",
	TypeHugeInt:     "HUGEINT",
	TypeUUID:        "UUID",
	TypeDecimal:     "DECIMAL",
	TypeEnum:        "ENUM",
	TypeList:        "LIST",
	TypeArray:       "ARRAY",
	TypeStruct:      "STRUCT",
	TypeMap:         "MAP",
}

func (id TypeID) String() string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("TypeID(%d)", uint8(id))
}

// StructField is a named child of a STRUCT type.
type StructField struct {
	Name string
	Type *LogicalType
}

// LogicalType describes the physical layout of a column. It is immutable once
// constructed and may be shared by any number of chunks.
type LogicalType struct {
	id         TypeID
	width      uint8
	scale      uint8
	dictionary []string
	child      *LogicalType
	value      *LogicalType
	size       int
	fields     []StructField
}

// NewPrimitiveType returns a type without parameters, such as INTEGER or UUID.
func NewPrimitiveType(id TypeID) (*LogicalType, error) {
	switch id {
	case TypeInvalid, TypeDecimal, TypeEnum, TypeList, TypeArray, TypeStruct, TypeMap:
		return nil, fmt.Errorf("%w: %s is not a primitive type", ErrUnsupportedKind, id)
	}
	if _, ok := typeNames[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, id)
	}
	return &LogicalType{id: id}, nil
}

// NewDecimalType returns DECIMAL(width, scale).
func NewDecimalType(width, scale uint8) (*LogicalType, error) {
	if width == 0 || width > MaxDecimalWidth {
		return nil, fmt.Errorf("%w: decimal width %d not in [1, %d]", ErrRange, width, MaxDecimalWidth)
	}
	if scale > width {
		return nil, fmt.Errorf("%w: decimal scale %d exceeds width %d", ErrRange, scale, width)
	}
	return &LogicalType{id: TypeDecimal, width: width, scale: scale}, nil
}

// NewEnumType returns an ENUM over the given dictionary. Codes are assigned in
// dictionary order starting at zero.
func NewEnumType(dictionary ...string) (*LogicalType, error) {
	if len(dictionary) == 0 {
		return nil, fmt.Errorf("%w: enum dictionary is empty", ErrRange)
	}
	if uint64(len(dictionary)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: enum dictionary has %d entries", ErrRange, len(dictionary))
	}
	seen := make(map[string]struct{}, len(dictionary))
	for _, s := range dictionary {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("duplicate enum value %q", s)
		}
		seen[s] = struct{}{}
	}
	dict := make([]string, len(dictionary))
	copy(dict, dictionary)
	return &LogicalType{id: TypeEnum, dictionary: dict}, nil
}

// NewListType returns a variable-length LIST of child.
func NewListType(child *LogicalType) (*LogicalType, error) {
	if child == nil {
		return nil, fmt.Errorf("list child type is nil")
	}
	return &LogicalType{id: TypeList, child: child}, nil
}

// NewArrayType returns a fixed-size ARRAY of child with exactly size elements per row.
func NewArrayType(child *LogicalType, size int) (*LogicalType, error) {
	if child == nil {
		return nil, fmt.Errorf("array child type is nil")
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: array size %d must be positive", ErrRange, size)
	}
	return &LogicalType{id: TypeArray, child: child, size: size}, nil
}

// NewStructType returns a STRUCT with the given fields in order.
func NewStructType(fields ...StructField) (*LogicalType, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("struct type has no fields")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			return nil, fmt.Errorf("struct field %q has nil type", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate struct field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	fs := make([]StructField, len(fields))
	copy(fs, fields)
	return &LogicalType{id: TypeStruct, fields: fs}, nil
}

// NewMapType returns MAP(key, value). Maps can be described and exported but
// not written.
func NewMapType(key, value *LogicalType) (*LogicalType, error) {
	if key == nil || value == nil {
		return nil, fmt.Errorf("map key and value types must be set")
	}
	return &LogicalType{id: TypeMap, child: key, value: value}, nil
}

func (t *LogicalType) ID() TypeID { return t.id }

// Width returns the declared decimal width.
func (t *LogicalType) Width() uint8 { return t.width }

// Scale returns the declared decimal scale.
func (t *LogicalType) Scale() uint8 { return t.scale }

// Child returns the element type of a LIST or ARRAY, or the key type of a MAP.
func (t *LogicalType) Child() *LogicalType { return t.child }

// MapValue returns the value type of a MAP.
func (t *LogicalType) MapValue() *LogicalType { return t.value }

// ArraySize returns the element count of an ARRAY.
func (t *LogicalType) ArraySize() int { return t.size }

// Dictionary returns a copy of the ENUM dictionary.
func (t *LogicalType) Dictionary() []string {
	out := make([]string, len(t.dictionary))
	copy(out, t.dictionary)
	return out
}

// Fields returns a copy of the STRUCT fields.
func (t *LogicalType) Fields() []StructField {
	out := make([]StructField, len(t.fields))
	copy(out, t.fields)
	return out
}

// decimalStorage returns the integer kind backing a decimal of this width.
func (t *LogicalType) decimalStorage() TypeID {
	switch {
	case t.width <= 4:
		return TypeSmallInt
	case t.width <= 9:
		return TypeInteger
	case t.width <= 18:
		return TypeBigInt
	default:
		return TypeHugeInt
	}
}

// enumStorage returns the unsigned integer kind backing enum codes.
func (t *LogicalType) enumStorage() TypeID {
	switch n := len(t.dictionary); {
	case n <= maxUint8Dictionary:
		return TypeUTinyInt
	case n <= maxUint16Dictionary:
		return TypeUSmallInt
	default:
		return TypeUInteger
	}
}

// PhysicalSize returns the number of bytes a single row occupies in the
// column's own buffer. ARRAY and STRUCT store nothing in the parent.
func (t *LogicalType) PhysicalSize() int {
	switch t.id {
	case TypeBoolean, TypeTinyInt, TypeUTinyInt:
		return 1
	case TypeSmallInt, TypeUSmallInt:
		return 2
	case TypeInteger, TypeUInteger, TypeFloat, TypeDate:
		return 4
	case TypeBigInt, TypeUBigInt, TypeDouble, TypeTime, TypeTimeTZ,
		TypeTimestampS, TypeTimestampMS, TypeTimestamp, TypeTimestampNS, TypeTimestampTZ:
		return 8
	case TypeInterval, TypeHugeInt, TypeUUID, TypeVarchar, TypeBlob, TypeList, TypeMap:
		return 16
	case TypeDecimal:
		return (&LogicalType{id: t.decimalStorage()}).PhysicalSize()
	case TypeEnum:
		return (&LogicalType{id: t.enumStorage()}).PhysicalSize()
	default:
		return 0
	}
}

func (t *LogicalType) String() string {
	switch t.id {
	case TypeDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.width, t.scale)
	case TypeEnum:
		quoted := make([]string, len(t.dictionary))
		for i, s := range t.dictionary {
			quoted[i] = "'" + strings.ReplaceAll(s, "'", "''") + "'"
		}
		return "ENUM(" + strings.Join(quoted, ", ") + ")"
	case TypeList:
		return t.child.String() + "[]"
	case TypeArray:
		return fmt.Sprintf("%s[%d]", t.child, t.size)
	case TypeStruct:
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			parts[i] = f.Name + " " + f.Type.String()
		}
		return "STRUCT(" + strings.Join(parts, ", ") + ")"
	case TypeMap:
		return fmt.Sprintf("MAP(%s, %s)", t.child, t.value)
	default:
		return t.id.String()
	}
}
