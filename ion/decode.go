package ion

import (
	"math"
	"math/big"
	"unicode/utf8"

	"kfxcore/varint"
)

const (
	tcNull       = 0x0
	tcBool       = 0x1
	tcPosInt     = 0x2
	tcNegInt     = 0x3
	tcFloat      = 0x4
	tcDecimal    = 0x5
	tcTimestamp  = 0x6
	tcSymbol     = 0x7
	tcString     = 0x8
	tcClob       = 0x9
	tcBlob       = 0xA
	tcList       = 0xB
	tcSexp       = 0xC
	tcStruct     = 0xD
	tcAnnotation = 0xE
)

// Decode reads a single top-level value from data. base is the absolute
// byte offset of data[0] within the enclosing stream, used only to produce
// accurate offsets on Error. It returns the value and the number of bytes
// of data it consumed.
func Decode(data []byte, base int) (Value, int, error) {
	return decodeOne(data, 0, base)
}

func decodeOne(data []byte, pos int, base int) (Value, int, error) {
	if pos >= len(data) {
		return Value{}, pos, newErr(UnexpectedEOF, base+pos, "expected a value descriptor byte")
	}
	descOffset := pos
	desc := data[pos]
	typeCode := desc >> 4
	low := desc & 0x0F
	pos++

	switch typeCode {
	case tcNull:
		if low == 0x0F {
			return Value{Tag: NullType, null: true, nullOf: NullType}, pos, nil
		}
		return Value{}, pos, invalidTypeCode(base+descOffset, desc)

	case tcBool:
		switch low {
		case 0x0F:
			return TypedNull(BoolType), pos, nil
		case 0x0:
			return Bool(false), pos, nil
		case 0x1:
			return Bool(true), pos, nil
		default:
			return Value{}, pos, newErr(InvalidLength, base+descOffset, "bool descriptor low nibble must be 0, 1 or F")
		}

	case tcPosInt, tcNegInt:
		if low == 0x0F {
			return TypedNull(IntType), pos, nil
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "int payload runs past end of stream")
		}
		mag := new(big.Int).SetBytes(data[pos:end])
		if typeCode == tcNegInt {
			if mag.Sign() == 0 {
				return Value{}, pos, newErr(InvalidLength, base+descOffset, "negative int magnitude must not be zero")
			}
			mag.Neg(mag)
		}
		return Int(mag), end, nil

	case tcFloat:
		switch low {
		case 0x0F:
			return TypedNull(Float64Type), pos, nil
		case 0x0:
			return Float64(0), pos, nil
		case 0x4:
			if pos+4 > len(data) {
				return Value{}, pos, newErr(UnexpectedEOF, base+pos, "float32 payload truncated")
			}
			bits := beUint32(data[pos : pos+4])
			return Float32(math32FromBits(bits)), pos + 4, nil
		case 0x8:
			if pos+8 > len(data) {
				return Value{}, pos, newErr(UnexpectedEOF, base+pos, "float64 payload truncated")
			}
			bits := beUint64(data[pos : pos+8])
			return Float64(math64FromBits(bits)), pos + 8, nil
		default:
			return Value{}, pos, newErr(InvalidLength, base+descOffset, "float descriptor low nibble must be 0, 4, 8 or F")
		}

	case tcDecimal:
		if low == 0x0F {
			return TypedNull(DecimalType), pos, nil
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "decimal payload truncated")
		}
		dec, err := decodeDecimal(data[pos:end], base+pos)
		if err != nil {
			return Value{}, pos, err
		}
		return DecimalV(dec), end, nil

	case tcTimestamp:
		if low == 0x0F {
			return TypedNull(TimestampType), pos, nil
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "timestamp payload truncated")
		}
		ts, err := decodeTimestamp(data[pos:end], base+pos)
		if err != nil {
			return Value{}, pos, err
		}
		return TimestampV(ts), end, nil

	case tcSymbol:
		if low == 0x0F {
			return TypedNull(SymbolType), pos, nil
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "symbol payload truncated")
		}
		idBig := new(big.Int).SetBytes(data[pos:end])
		if !idBig.IsUint64() || idBig.Uint64() > math.MaxUint32 {
			return Value{}, pos, newErr(InvalidLength, base+pos, "symbol id does not fit in 32 bits")
		}
		return Symbol(uint32(idBig.Uint64())), end, nil

	case tcString:
		if low == 0x0F {
			return TypedNull(StringType), pos, nil
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "string payload truncated")
		}
		if !utf8.Valid(data[pos:end]) {
			return Value{}, pos, newErr(InvalidUTF8, base+pos, "string payload is not valid utf-8")
		}
		return String(string(data[pos:end])), end, nil

	case tcClob, tcSexp:
		return Value{}, pos, invalidTypeCode(base+descOffset, desc)

	case tcBlob:
		if low == 0x0F {
			return TypedNull(BlobType), pos, nil
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "blob payload truncated")
		}
		return Blob(data[pos:end]), end, nil

	case tcList:
		if low == 0x0F {
			return TypedNull(ListType), pos, nil
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "list payload truncated")
		}
		items := make([]Value, 0, 4)
		for pos < end {
			v, next, err := decodeOne(data, pos, base)
			if err != nil {
				return Value{}, pos, err
			}
			items = append(items, v)
			pos = next
		}
		if pos != end {
			return Value{}, pos, newErr(InvalidLength, base+end, "list element overran declared length")
		}
		return List(items), pos, nil

	case tcStruct:
		if low == 0x0F {
			return TypedNull(StructType), pos, nil
		}
		if low == 0x1 {
			return Value{}, pos, newErr(SortedStructRejected, base+descOffset, "sorted struct encoding is not accepted")
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "struct payload truncated")
		}
		fields := make([]Field, 0, 4)
		for pos < end {
			id, n, err := varint.ReadUint(data[pos:end])
			if err != nil {
				return Value{}, pos, wrapVarintErr(err, base+pos)
			}
			pos += n
			v, next, err := decodeOne(data, pos, base)
			if err != nil {
				return Value{}, pos, err
			}
			fields = append(fields, Field{ID: uint32(id), Value: v})
			pos = next
		}
		if pos != end {
			return Value{}, pos, newErr(InvalidLength, base+end, "struct field overran declared length")
		}
		return Struct(fields), pos, nil

	case tcAnnotation:
		if low == 0x0 || low == 0x0F {
			return Value{}, pos, invalidTypeCode(base+descOffset, desc)
		}
		length, hdr, err := readLength(data, pos, low, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos += hdr
		end := pos + length
		if end > len(data) {
			return Value{}, pos, newErr(UnexpectedEOF, base+pos, "annotation wrapper truncated")
		}
		annotLen, n, err := varint.ReadUint(data[pos:end])
		if err != nil {
			return Value{}, pos, wrapVarintErr(err, base+pos)
		}
		pos += n
		annotEnd := pos + int(annotLen)
		if annotEnd > end {
			return Value{}, pos, newErr(InvalidLength, base+pos, "annotation id list overran wrapper length")
		}
		var ids []uint32
		for pos < annotEnd {
			id, n, err := varint.ReadUint(data[pos:annotEnd])
			if err != nil {
				return Value{}, pos, wrapVarintErr(err, base+pos)
			}
			pos += n
			ids = append(ids, uint32(id))
		}
		if len(ids) == 0 {
			return Value{}, pos, newErr(InvalidLength, base+descOffset, "annotation wrapper must carry at least one annotation id")
		}
		wrapped, next, err := decodeOne(data, pos, base)
		if err != nil {
			return Value{}, pos, err
		}
		pos = next
		if pos != end {
			return Value{}, pos, newErr(InvalidLength, base+end, "annotated value did not consume wrapper length")
		}
		return Annotation(ids, wrapped), pos, nil

	default: // 0xF
		return Value{}, pos, invalidTypeCode(base+descOffset, desc)
	}
}

// maxLength caps a decoded value length to something that can never
// overflow int or look negative once converted, even on a platform where
// int is 32 bits, while still comfortably exceeding any real container.
const maxLength = 1<<31 - 1

func readLength(data []byte, pos int, low byte, base int) (length int, headerLen int, err error) {
	if low <= 0x0D {
		return int(low), 0, nil
	}
	// low == 0x0E: length follows as VarUInt.
	v, n, err := varint.ReadUint(data[pos:])
	if err != nil {
		return 0, 0, wrapVarintErr(err, base+pos)
	}
	if v > maxLength {
		return 0, 0, newErr(InvalidLength, base+pos, "value length too large")
	}
	return int(v), n, nil
}

func decodeDecimal(payload []byte, base int) (Decimal, error) {
	if len(payload) == 0 {
		return Decimal{Coefficient: big.NewInt(0), Exponent: 0}, nil
	}
	exp, n, err := varint.ReadInt(payload)
	if err != nil {
		return Decimal{}, wrapVarintErr(err, base)
	}
	coeffBytes := payload[n:]
	var mag *big.Int
	if len(coeffBytes) == 0 {
		mag = big.NewInt(0)
	} else {
		neg := coeffBytes[0]&0x80 != 0
		first := coeffBytes[0] &^ 0x80
		buf := make([]byte, len(coeffBytes))
		buf[0] = first
		copy(buf[1:], coeffBytes[1:])
		mag = new(big.Int).SetBytes(buf)
		if neg {
			mag.Neg(mag)
		}
	}
	return Decimal{Coefficient: mag, Exponent: exp}, nil
}

func decodeTimestamp(payload []byte, base int) (Timestamp, error) {
	var ts Timestamp
	if len(payload) == 0 {
		return ts, newErr(InvalidLength, base, "timestamp payload must not be empty")
	}
	pos := 0
	if payload[0] == 0xC0 {
		ts.HasOffset = false
		pos = 1
	} else {
		off, n, err := varint.ReadInt(payload)
		if err != nil {
			return ts, wrapVarintErr(err, base)
		}
		ts.HasOffset = true
		ts.OffsetMinutes = int32(off)
		pos = n
	}

	readComponent := func() (int, bool, error) {
		if pos >= len(payload) {
			return 0, false, nil
		}
		v, n, err := varint.ReadUint(payload[pos:])
		if err != nil {
			return 0, false, wrapVarintErr(err, base+pos)
		}
		pos += n
		return int(v), true, nil
	}

	year, ok, err := readComponent()
	if err != nil {
		return ts, err
	}
	if !ok {
		return ts, newErr(InvalidLength, base, "timestamp must carry at least a year")
	}
	ts.Year, ts.Precision = year, PrecisionYear

	if month, ok, err := readComponent(); err != nil {
		return ts, err
	} else if ok {
		ts.Month, ts.Precision = month, PrecisionMonth
		if day, ok, err := readComponent(); err != nil {
			return ts, err
		} else if ok {
			ts.Day, ts.Precision = day, PrecisionDay
			if hour, ok, err := readComponent(); err != nil {
				return ts, err
			} else if ok {
				minute, ok, err := readComponent()
				if err != nil {
					return ts, err
				}
				if !ok {
					return ts, newErr(InvalidLength, base, "timestamp hour component requires a minute component")
				}
				ts.Hour, ts.Minute, ts.Precision = hour, minute, PrecisionMinute
				if second, ok, err := readComponent(); err != nil {
					return ts, err
				} else if ok {
					ts.Second, ts.Precision = second, PrecisionSecond
					if pos < len(payload) {
						exp, n, err := varint.ReadInt(payload[pos:])
						if err != nil {
							return ts, wrapVarintErr(err, base+pos)
						}
						pos += n
						coeffBytes := payload[pos:]
						if len(coeffBytes) == 0 {
							ts.FracCoefficient = big.NewInt(0)
						} else {
							ts.FracCoefficient = new(big.Int).SetBytes(coeffBytes)
						}
						ts.FracExponent = exp
						ts.Precision = PrecisionFraction
					}
				}
			}
		}
	}

	return ts, nil
}

func invalidTypeCode(offset int, desc byte) error {
	return &Error{Kind: InvalidTypeCode, Offset: offset, Msg: "unsupported or reserved type code in descriptor byte " + hexByte(desc)}
}

func hexByte(b byte) string {
	const digits = "0123456789ABCDEF"
	return "0x" + string([]byte{digits[b>>4], digits[b&0x0F]})
}

func wrapVarintErr(err error, offset int) error {
	return newErr(InvalidVarInt, offset, err.Error())
}

