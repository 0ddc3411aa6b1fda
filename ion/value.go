// Package ion implements the Ion 1.0 binary subset KFX embeds: a tagged
// union of values plus the descriptor-byte codec that reads and writes
// them. Symbols are carried as raw numeric IDs — resolving an ID to a name
// is the job of package symbols, one layer up; this package never looks a
// name up.
package ion

import "math/big"

// Type is the tag of an Ion value.
type Type uint8

const (
	NullType Type = iota
	BoolType
	IntType
	Float32Type
	Float64Type
	DecimalType
	TimestampType
	SymbolType
	StringType
	BlobType
	ListType
	StructType
	AnnotationType
)

func (t Type) String() string {
	switch t {
	case NullType:
		return "null"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case Float32Type:
		return "float32"
	case Float64Type:
		return "float64"
	case DecimalType:
		return "decimal"
	case TimestampType:
		return "timestamp"
	case SymbolType:
		return "symbol"
	case StringType:
		return "string"
	case BlobType:
		return "blob"
	case ListType:
		return "list"
	case StructType:
		return "struct"
	case AnnotationType:
		return "annotation"
	default:
		return "<unknown type>"
	}
}

// Field is one (ID, value) pair of a Struct, in emission order.
type Field struct {
	ID    uint32
	Value Value
}

// Decimal is an arbitrary-precision coefficient/exponent pair. The zero
// Decimal (nil Coefficient) represents the empty-payload 0d0 case; callers
// must not rely on Coefficient being non-nil.
type Decimal struct {
	Coefficient *big.Int
	Exponent    int64
}

// TimestampPrecision records how many of a Timestamp's fields were present
// on the wire, since KFX writers may emit coarser-than-second precision.
type TimestampPrecision int

const (
	PrecisionYear TimestampPrecision = iota
	PrecisionMonth
	PrecisionDay
	PrecisionMinute
	PrecisionSecond
	PrecisionFraction
)

// Timestamp is the precision-graded Ion timestamp. OffsetMinutes is only
// meaningful when HasOffset is true; "no offset" (payload byte 0xC0) is
// represented by HasOffset == false.
type Timestamp struct {
	Precision       TimestampPrecision
	HasOffset       bool
	OffsetMinutes   int32
	Year            int
	Month           int
	Day             int
	Hour            int
	Minute          int
	Second          int
	FracCoefficient *big.Int
	FracExponent    int64
}

// Value is a tagged union covering every Ion 1.0 binary-subset type KFX
// uses. Exactly one of the type-specific fields is meaningful at a time,
// selected by Tag; Null (IsNull() == true) may carry NullOf to remember
// which typed null it was.
type Value struct {
	Tag Type

	null bool
	// NullOf records the original type of a typed null (descriptor low
	// nibble 0xF); meaningless unless null is true.
	nullOf Type

	boolVal bool
	intVal  *big.Int
	f32Val  float32
	f64Val  float64
	decVal  Decimal
	tsVal   Timestamp
	symVal  uint32
	strVal  string
	blobVal []byte
	listVal []Value
	structVal []Field
	annotVal struct {
		ids   []uint32
		value *Value
	}
}

// IsNull reports whether v is a null of any type.
func (v Value) IsNull() bool { return v.null }

// NullOf returns the type a typed null was tagged with. Meaningless when
// !v.IsNull().
func (v Value) NullOf() Type { return v.nullOf }

// Null constructs an untyped null value (descriptor 0x0F).
func Null() Value { return Value{Tag: NullType, null: true, nullOf: NullType} }

// TypedNull constructs a null tagged with the given type, e.g. null.string.
func TypedNull(t Type) Value { return Value{Tag: t, null: true, nullOf: t} }

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{Tag: BoolType, boolVal: b} }

// BoolValue returns the boolean payload, or an error if Tag != BoolType.
func (v Value) BoolValue() (bool, error) {
	if v.Tag != BoolType {
		return false, typeMismatch(BoolType, v.Tag)
	}
	return v.boolVal, nil
}

// Int constructs an Int value from a big.Int. The argument is not aliased
// by the caller after this call.
func Int(i *big.Int) Value { return Value{Tag: IntType, intVal: i} }

// IntFromInt64 constructs an Int value from a machine int64.
func IntFromInt64(i int64) Value { return Int(big.NewInt(i)) }

// IntValue returns the integer payload as a big.Int, or an error if
// Tag != IntType.
func (v Value) IntValue() (*big.Int, error) {
	if v.Tag != IntType {
		return nil, typeMismatch(IntType, v.Tag)
	}
	if v.intVal == nil {
		return big.NewInt(0), nil
	}
	return v.intVal, nil
}

// Int64Value returns the integer payload as an int64, or an error if
// Tag != IntType or the value overflows int64.
func (v Value) Int64Value() (int64, error) {
	i, err := v.IntValue()
	if err != nil {
		return 0, err
	}
	if !i.IsInt64() {
		return 0, &Error{Kind: InvalidLength, Msg: "int value does not fit in int64"}
	}
	return i.Int64(), nil
}

// Float32 constructs a 32-bit Float value.
func Float32(f float32) Value { return Value{Tag: Float32Type, f32Val: f} }

// Float64 constructs a 64-bit Float value.
func Float64(f float64) Value { return Value{Tag: Float64Type, f64Val: f} }

// FloatValue returns the float payload widened to float64, or an error if
// Tag is neither Float32Type nor Float64Type.
func (v Value) FloatValue() (float64, error) {
	switch v.Tag {
	case Float32Type:
		return float64(v.f32Val), nil
	case Float64Type:
		return v.f64Val, nil
	default:
		return 0, typeMismatch(Float64Type, v.Tag)
	}
}

// DecimalV constructs a Decimal value.
func DecimalV(d Decimal) Value { return Value{Tag: DecimalType, decVal: d} }

// DecimalValue returns the decimal payload, or an error if Tag != DecimalType.
func (v Value) DecimalValue() (Decimal, error) {
	if v.Tag != DecimalType {
		return Decimal{}, typeMismatch(DecimalType, v.Tag)
	}
	return v.decVal, nil
}

// TimestampV constructs a Timestamp value.
func TimestampV(ts Timestamp) Value { return Value{Tag: TimestampType, tsVal: ts} }

// TimestampValue returns the timestamp payload, or an error if
// Tag != TimestampType.
func (v Value) TimestampValue() (Timestamp, error) {
	if v.Tag != TimestampType {
		return Timestamp{}, typeMismatch(TimestampType, v.Tag)
	}
	return v.tsVal, nil
}

// Symbol constructs a Symbol value from a raw numeric ID. Resolving the ID
// to a name is the symbols package's job, not this one's.
func Symbol(id uint32) Value { return Value{Tag: SymbolType, symVal: id} }

// SymbolValue returns the symbol's numeric ID, or an error if
// Tag != SymbolType.
func (v Value) SymbolValue() (uint32, error) {
	if v.Tag != SymbolType {
		return 0, typeMismatch(SymbolType, v.Tag)
	}
	return v.symVal, nil
}

// String constructs a String value.
func String(s string) Value { return Value{Tag: StringType, strVal: s} }

// StringValue returns the string payload, or an error if Tag != StringType.
func (v Value) StringValue() (string, error) {
	if v.Tag != StringType {
		return "", typeMismatch(StringType, v.Tag)
	}
	return v.strVal, nil
}

// Blob constructs a Blob value. The byte slice is retained, not copied.
func Blob(b []byte) Value { return Value{Tag: BlobType, blobVal: b} }

// BlobValue returns the blob payload, or an error if Tag != BlobType.
func (v Value) BlobValue() ([]byte, error) {
	if v.Tag != BlobType {
		return nil, typeMismatch(BlobType, v.Tag)
	}
	return v.blobVal, nil
}

// List constructs a List value. The slice is retained, not copied.
func List(items []Value) Value { return Value{Tag: ListType, listVal: items} }

// ListValue returns the list's elements, or an error if Tag != ListType.
func (v Value) ListValue() ([]Value, error) {
	if v.Tag != ListType {
		return nil, typeMismatch(ListType, v.Tag)
	}
	return v.listVal, nil
}

// Struct constructs a Struct value from fields already in the order they
// should be emitted (ascending field ID, per the field-order-preservation
// rule).
func Struct(fields []Field) Value { return Value{Tag: StructType, structVal: fields} }

// StructValue returns the struct's fields in stored order, or an error if
// Tag != StructType.
func (v Value) StructValue() ([]Field, error) {
	if v.Tag != StructType {
		return nil, typeMismatch(StructType, v.Tag)
	}
	return v.structVal, nil
}

// Get returns the last field with the given ID, so a duplicate ID (legal on
// read) resolves last-write-wins.
func (v Value) Get(id uint32) (Value, bool) {
	var found Value
	ok := false
	for _, f := range v.structVal {
		if f.ID == id {
			found, ok = f.Value, true
		}
	}
	return found, ok
}

// Annotation wraps value with the given annotation IDs, in order. KFX
// fragments always use exactly two: fid, ftype.
func Annotation(ids []uint32, value Value) Value {
	v := Value{Tag: AnnotationType}
	v.annotVal.ids = ids
	v.annotVal.value = &value
	return v
}

// AnnotationValue returns the annotation IDs and the wrapped value, or an
// error if Tag != AnnotationType.
func (v Value) AnnotationValue() ([]uint32, Value, error) {
	if v.Tag != AnnotationType {
		return nil, Value{}, typeMismatch(AnnotationType, v.Tag)
	}
	return v.annotVal.ids, *v.annotVal.value, nil
}

func typeMismatch(want, got Type) error {
	return &Error{Kind: InvalidTypeCode, Msg: "expected " + want.String() + ", value is " + got.String()}
}
