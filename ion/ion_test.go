package ion

import (
	"math/big"
	"testing"

	"kfxcore/varint"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	enc := Encode(nil, v)
	got, n, err := Decode(enc, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("Decode consumed %d of %d bytes", n, len(enc))
	}
	return got
}

func TestBoolRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		got := roundTrip(t, Bool(b))
		v, err := got.BoolValue()
		if err != nil || v != b {
			t.Fatalf("Bool(%v) round trip = %v, %v", b, v, err)
		}
	}
}

func TestIntRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 255, -255, 1 << 40, -(1 << 40)} {
		got := roundTrip(t, IntFromInt64(n))
		v, err := got.Int64Value()
		if err != nil || v != n {
			t.Fatalf("Int(%d) round trip = %v, %v", n, v, err)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	got := roundTrip(t, String("hello world"))
	v, err := got.StringValue()
	if err != nil || v != "hello world" {
		t.Fatalf("String round trip = %q, %v", v, err)
	}
}

func TestDecimalPreservesExponent(t *testing.T) {
	// 1.00 (coefficient 100, exponent -2) must not collapse to 1 (coefficient
	// 1, exponent 0) on round trip.
	d := Decimal{Coefficient: big.NewInt(100), Exponent: -2}
	got := roundTrip(t, DecimalV(d))
	out, err := got.DecimalValue()
	if err != nil {
		t.Fatalf("DecimalValue: %v", err)
	}
	if out.Exponent != -2 || out.Coefficient.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("Decimal round trip = coeff=%v exp=%v, want coeff=100 exp=-2", out.Coefficient, out.Exponent)
	}
}

func TestDecimalNegativeCoefficient(t *testing.T) {
	d := Decimal{Coefficient: big.NewInt(-500), Exponent: -1}
	got := roundTrip(t, DecimalV(d))
	out, err := got.DecimalValue()
	if err != nil {
		t.Fatalf("DecimalValue: %v", err)
	}
	if out.Coefficient.Cmp(big.NewInt(-500)) != 0 {
		t.Fatalf("Decimal negative coefficient round trip = %v, want -500", out.Coefficient)
	}
}

func TestZeroDecimalEmptyPayload(t *testing.T) {
	enc := Encode(nil, DecimalV(Decimal{Coefficient: big.NewInt(0), Exponent: 0}))
	if len(enc) != 1 || enc[0] != 0x50 {
		t.Fatalf("0d0 encoding = %x, want single byte 0x50", enc)
	}
}

func TestListRoundTrip(t *testing.T) {
	v := List([]Value{IntFromInt64(1), String("two"), Bool(true)})
	got := roundTrip(t, v)
	items, err := got.ListValue()
	if err != nil || len(items) != 3 {
		t.Fatalf("ListValue = %v, %v", items, err)
	}
}

func TestStructFieldOrderPreserved(t *testing.T) {
	s := Struct([]Field{
		{ID: 5, Value: IntFromInt64(1)},
		{ID: 9, Value: IntFromInt64(2)},
		{ID: 20, Value: IntFromInt64(3)},
	})
	got := roundTrip(t, s)
	fields, err := got.StructValue()
	if err != nil {
		t.Fatalf("StructValue: %v", err)
	}
	want := []uint32{5, 9, 20}
	for i, f := range fields {
		if f.ID != want[i] {
			t.Fatalf("field %d id = %d, want %d", i, f.ID, want[i])
		}
	}
}

func TestSortedStructRejected(t *testing.T) {
	_, _, err := Decode([]byte{0xD1}, 0)
	ionErr, ok := err.(*Error)
	if !ok || ionErr.Kind != SortedStructRejected {
		t.Fatalf("Decode(D1) error = %v, want SortedStructRejected", err)
	}
	if ionErr.Offset != 0 {
		t.Fatalf("Decode(D1) offset = %d, want 0", ionErr.Offset)
	}
}

func TestTypedNullRoundTrip(t *testing.T) {
	got := roundTrip(t, TypedNull(StringType))
	if !got.IsNull() || got.NullOf() != StringType {
		t.Fatalf("typed null round trip lost type: null=%v nullOf=%v", got.IsNull(), got.NullOf())
	}
}

func TestAnnotationRoundTrip(t *testing.T) {
	v := Annotation([]uint32{409, 173}, IntFromInt64(7))
	got := roundTrip(t, v)
	ids, wrapped, err := got.AnnotationValue()
	if err != nil {
		t.Fatalf("AnnotationValue: %v", err)
	}
	if len(ids) != 2 || ids[0] != 409 || ids[1] != 173 {
		t.Fatalf("annotation ids = %v, want [409 173]", ids)
	}
	n, err := wrapped.Int64Value()
	if err != nil || n != 7 {
		t.Fatalf("wrapped value = %v, %v", n, err)
	}
}

func TestTypeMismatchReturnsError(t *testing.T) {
	if _, err := Bool(true).Int64Value(); err == nil {
		t.Fatal("expected type mismatch error reading Int64Value off a Bool")
	}
}

func TestBVMHelpers(t *testing.T) {
	data := []byte{0x01, 0x02}
	withBVM := PrependBVM(data)
	if !HasBVM(withBVM) {
		t.Fatal("PrependBVM output does not carry a detectable BVM")
	}
	if got := StripBVM(withBVM); len(got) != 2 || got[0] != 0x01 {
		t.Fatalf("StripBVM = %x, want %x", got, data)
	}
	if err := RequireBVM(data); err == nil {
		t.Fatal("RequireBVM should fail on data without a BVM")
	}
}

func TestTruncatedVarUIntLengthIsInvalidVarInt(t *testing.T) {
	_, _, err := Decode([]byte{0x8E}, 0) // string, VarUInt length follows, truncated
	ionErr, ok := err.(*Error)
	if !ok || ionErr.Kind != InvalidVarInt {
		t.Fatalf("Decode(truncated string header) = %v", err)
	}
}

func TestBlobLengthOverflowRejectedNotPaniced(t *testing.T) {
	// tcBlob (0xA) descriptor with low nibble 0x0E: length follows as a
	// VarUInt. The encoded length (2^31) is a perfectly valid uint64, far
	// too large to be a real container's blob size; a naive int(v) + bounds
	// check would accept it and panic on the eventual slice. It must be
	// rejected before any slicing happens.
	desc := byte(0xAE)
	length := varint.WriteUint(nil, 1<<31)
	data := append([]byte{desc}, length...)
	_, _, err := Decode(data, 0)
	ionErr, ok := err.(*Error)
	if !ok || ionErr.Kind != InvalidLength {
		t.Fatalf("Decode(oversized blob length) = %v, want InvalidLength", err)
	}
}

func TestVarUintOverflowTerminatingWithinMaxBytesIsRejected(t *testing.T) {
	desc := byte(0xAE)
	length := append(bytesRepeat(0x7F, 9), 0xFF) // terminates, but encodes >64 significant bits
	data := append([]byte{desc}, length...)
	_, _, err := Decode(data, 0)
	ionErr, ok := err.(*Error)
	if !ok || ionErr.Kind != InvalidVarInt {
		t.Fatalf("Decode(70-bit-wide blob length) = %v, want InvalidVarInt", err)
	}
}

func bytesRepeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
