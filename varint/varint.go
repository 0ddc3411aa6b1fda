// Package varint implements the variable-length integer encodings used by
// Ion binary: VarUInt for lengths and symbol IDs, VarInt for signed values
// such as decimal exponents and timestamp offsets.
//
// Both encodings pack 7 data bits per byte, most significant byte first; the
// high bit of the final byte marks the end of the value. VarInt additionally
// steals bit 6 of the first byte to carry the sign.
package varint

import "errors"

// MaxBytes is the widest a VarUInt/VarInt encoding may be before it can no
// longer fit in a uint64/int64 — 10 bytes of 7 bits each covers 70 bits,
// comfortably more than 64, and matches the boundary the container and ion
// packages check offsets against.
const MaxBytes = 10

// ErrTruncated is returned when the terminating byte (high bit set) is never
// reached within the supplied slice.
var ErrTruncated = errors.New("varint: truncated, no terminating byte")

// ErrOverflow is returned when a VarUInt/VarInt encoding is longer than
// MaxBytes, or decodes to a magnitude that does not fit in 64 bits.
var ErrOverflow = errors.New("varint: value too wide for 64 bits")

// maxShiftableUint64 is the largest value that can still absorb 7 more bits
// without losing any off the top: above this, the next shift drops bits
// that belong to the encoded magnitude.
const maxShiftableUint64 = ^uint64(0) >> 7

// ReadUint decodes a VarUInt from the front of data, returning the value and
// the number of bytes consumed.
func ReadUint(data []byte) (uint64, int, error) {
	var result uint64
	for i := 0; i < len(data) && i < MaxBytes; i++ {
		b := data[i]
		if result > maxShiftableUint64 {
			return 0, 0, ErrOverflow
		}
		result = (result << 7) | uint64(b&0x7F)
		if b&0x80 != 0 {
			return result, i + 1, nil
		}
	}
	if len(data) >= MaxBytes {
		return 0, 0, ErrOverflow
	}
	return 0, 0, ErrTruncated
}

// WriteUint appends the minimal VarUInt encoding of v to dst and returns the
// extended slice. Zero encodes as a single terminated byte (0x80).
func WriteUint(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 0x80)
	}

	var buf [MaxBytes]byte
	n := 0
	for v > 0 {
		buf[n] = byte(v & 0x7F)
		v >>= 7
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := buf[i]
		if i == 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

// ReadInt decodes a VarInt from the front of data, returning the signed
// value and the number of bytes consumed. The first byte's bit 6 carries
// the sign; all subsequent data bits are magnitude, most significant first.
func ReadInt(data []byte) (int64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrTruncated
	}

	first := data[0]
	negative := first&0x40 != 0
	result := uint64(first & 0x3F)
	if first&0x80 != 0 {
		v, err := signedFrom(result, negative)
		if err != nil {
			return 0, 0, err
		}
		return v, 1, nil
	}

	for i := 1; i < len(data) && i < MaxBytes; i++ {
		b := data[i]
		if result > maxShiftableUint64 {
			return 0, 0, ErrOverflow
		}
		result = (result << 7) | uint64(b&0x7F)
		if b&0x80 != 0 {
			v, err := signedFrom(result, negative)
			if err != nil {
				return 0, 0, err
			}
			return v, i + 1, nil
		}
	}
	if len(data) >= MaxBytes {
		return 0, 0, ErrOverflow
	}
	return 0, 0, ErrTruncated
}

func signedFrom(magnitude uint64, negative bool) (int64, error) {
	if magnitude > 1<<63 {
		return 0, ErrOverflow
	}
	if negative {
		return -int64(magnitude), nil
	}
	if magnitude > (1<<63)-1 {
		return 0, ErrOverflow
	}
	return int64(magnitude), nil
}

// WriteInt appends the minimal VarInt encoding of v to dst and returns the
// extended slice.
func WriteInt(dst []byte, v int64) []byte {
	negative := v < 0
	mag := uint64(v)
	if negative {
		mag = uint64(-v)
	}

	var buf [MaxBytes]byte
	n := 0
	for {
		buf[n] = byte(mag & 0x7F)
		mag >>= 7
		n++
		if mag == 0 {
			break
		}
	}
	// Leading byte only has 6 usable magnitude bits (bit 6 is sign); if the
	// most significant produced byte would overflow that, grow by one byte.
	if buf[n-1] & ^byte(0x3F) != 0 {
		buf[n] = 0
		n++
	}

	buf[0] |= 0x80
	if negative {
		buf[n-1] |= 0x40
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, buf[i])
	}
	return dst
}

// Len reports how many bytes WriteUint would produce for v, without
// allocating.
func Len(v uint64) int {
	if v == 0 {
		return 1
	}
	n := 0
	for v > 0 {
		v >>= 7
		n++
	}
	return n
}
