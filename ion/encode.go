package ion

import (
	"math"
	"math/big"

	"kfxcore/varint"
)

// Encode appends the binary encoding of v to dst and returns the extended
// slice. Struct fields must already be in ascending ID order; Encode does
// not sort them (callers — principally the fragment and container
// packages — are responsible for doing that before handing a Struct to
// this function, per the field-order-preservation rule).
func Encode(dst []byte, v Value) []byte {
	if v.IsNull() {
		return append(dst, byte(nullTypeCode(v.NullOf())<<4)|0x0F)
	}

	switch v.Tag {
	case BoolType:
		b := byte(0x10)
		if v.boolVal {
			b = 0x11
		}
		return append(dst, b)

	case IntType:
		return encodeInt(dst, v.intVal)

	case Float32Type:
		buf := make([]byte, 4)
		beFromUint32(buf, math.Float32bits(v.f32Val))
		dst = append(dst, 0x44)
		return append(dst, buf...)

	case Float64Type:
		if v.f64Val == 0 {
			return append(dst, 0x40)
		}
		buf := make([]byte, 8)
		beFromUint64(buf, math.Float64bits(v.f64Val))
		dst = append(dst, 0x48)
		return append(dst, buf...)

	case DecimalType:
		return encodeDecimal(dst, v.decVal)

	case TimestampType:
		return encodeTimestamp(dst, v.tsVal)

	case SymbolType:
		payload := uintMinBytes(uint64(v.symVal))
		dst = appendTagged(dst, tcSymbol, len(payload))
		return append(dst, payload...)

	case StringType:
		payload := []byte(v.strVal)
		dst = appendTagged(dst, tcString, len(payload))
		return append(dst, payload...)

	case BlobType:
		dst = appendTagged(dst, tcBlob, len(v.blobVal))
		return append(dst, v.blobVal...)

	case ListType:
		body := make([]byte, 0, 16)
		for _, item := range v.listVal {
			body = Encode(body, item)
		}
		dst = appendTagged(dst, tcList, len(body))
		return append(dst, body...)

	case StructType:
		body := make([]byte, 0, 16)
		for _, f := range v.structVal {
			body = varint.WriteUint(body, uint64(f.ID))
			body = Encode(body, f.Value)
		}
		dst = appendTagged(dst, tcStruct, len(body))
		return append(dst, body...)

	case AnnotationType:
		annots := make([]byte, 0, 4)
		for _, id := range v.annotVal.ids {
			annots = varint.WriteUint(annots, uint64(id))
		}
		wrapped := Encode(nil, *v.annotVal.value)
		body := make([]byte, 0, len(annots)+len(wrapped)+varint.Len(uint64(len(annots))))
		body = varint.WriteUint(body, uint64(len(annots)))
		body = append(body, annots...)
		body = append(body, wrapped...)
		dst = appendTagged(dst, tcAnnotation, len(body))
		return append(dst, body...)

	default:
		return append(dst, 0x0F) // untyped null, should not be reached
	}
}

func nullTypeCode(t Type) byte {
	switch t {
	case BoolType:
		return tcBool
	case IntType:
		return tcPosInt
	case Float32Type, Float64Type:
		return tcFloat
	case DecimalType:
		return tcDecimal
	case TimestampType:
		return tcTimestamp
	case SymbolType:
		return tcSymbol
	case StringType:
		return tcString
	case BlobType:
		return tcBlob
	case ListType:
		return tcList
	case StructType:
		return tcStruct
	default:
		return tcNull
	}
}

// appendTagged appends the descriptor byte(s) for typeCode with a payload
// of length bytes, choosing an inline low nibble when length <= 13 and a
// VarUInt-length form (low nibble 0xE) otherwise.
func appendTagged(dst []byte, typeCode byte, length int) []byte {
	if length <= 0x0D {
		return append(dst, (typeCode<<4)|byte(length))
	}
	dst = append(dst, (typeCode<<4)|0x0E)
	return varint.WriteUint(dst, uint64(length))
}

func encodeInt(dst []byte, i *big.Int) []byte {
	if i == nil || i.Sign() == 0 {
		return append(dst, byte(tcPosInt<<4))
	}
	typeCode := byte(tcPosInt)
	mag := i
	if i.Sign() < 0 {
		typeCode = tcNegInt
		mag = new(big.Int).Neg(i)
	}
	payload := mag.Bytes()
	return append(appendTagged(dst, typeCode, len(payload)), payload...)
}

func encodeDecimal(dst []byte, d Decimal) []byte {
	if d.Coefficient == nil || (d.Coefficient.Sign() == 0 && d.Exponent == 0) {
		return append(dst, byte(tcDecimal<<4))
	}
	body := varint.WriteInt(nil, d.Exponent)
	mag := d.Coefficient
	neg := mag.Sign() < 0
	if neg {
		mag = new(big.Int).Neg(mag)
	}
	coeffBytes := mag.Bytes()
	if len(coeffBytes) == 0 || coeffBytes[0]&0x80 != 0 {
		coeffBytes = append([]byte{0}, coeffBytes...)
	} else {
		coeffBytes = append([]byte(nil), coeffBytes...)
	}
	if neg {
		coeffBytes[0] |= 0x80
	}
	body = append(body, coeffBytes...)
	return append(appendTagged(dst, tcDecimal, len(body)), body...)
}

func encodeTimestamp(dst []byte, ts Timestamp) []byte {
	body := make([]byte, 0, 8)
	if !ts.HasOffset {
		body = append(body, 0xC0)
	} else {
		body = varint.WriteInt(body, int64(ts.OffsetMinutes))
	}
	body = varint.WriteUint(body, uint64(ts.Year))
	if ts.Precision >= PrecisionMonth {
		body = varint.WriteUint(body, uint64(ts.Month))
	}
	if ts.Precision >= PrecisionDay {
		body = varint.WriteUint(body, uint64(ts.Day))
	}
	if ts.Precision >= PrecisionMinute {
		body = varint.WriteUint(body, uint64(ts.Hour))
		body = varint.WriteUint(body, uint64(ts.Minute))
	}
	if ts.Precision >= PrecisionSecond {
		body = varint.WriteUint(body, uint64(ts.Second))
	}
	if ts.Precision >= PrecisionFraction {
		body = varint.WriteInt(body, ts.FracExponent)
		if ts.FracCoefficient != nil {
			body = append(body, ts.FracCoefficient.Bytes()...)
		}
	}
	return append(appendTagged(dst, tcTimestamp, len(body)), body...)
}

func uintMinBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	return new(big.Int).SetUint64(v).Bytes()
}

func beFromUint32(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

func beFromUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> uint(56-8*i))
	}
}
