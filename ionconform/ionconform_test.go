package ionconform

import (
	"strings"
	"testing"

	"kfxcore/ion"
	"kfxcore/symbols"
)

func testTable() *symbols.Table {
	tbl := symbols.NewTable(842)
	tbl.InternLocal("style_0")
	return tbl
}

func TestValidateEntityAcceptsWellFormedStruct(t *testing.T) {
	tbl := testTable()
	nameID := tbl.InternLocal("style_0") // already interned, same ID back
	v := ion.Struct([]ion.Field{
		{ID: uint32(nameID), Value: ion.String("hello")},
		{ID: 4, Value: ion.IntFromInt64(7)},
	})
	payload := ion.PrependBVM(ion.Encode(nil, v))

	if err := ValidateEntity(payload, tbl); err != nil {
		t.Fatalf("ValidateEntity: %v", err)
	}
}

func TestValidateEntityAcceptsNestedListAndAnnotation(t *testing.T) {
	tbl := testTable()
	inner := ion.List([]ion.Value{ion.String("a"), ion.String("b"), ion.IntFromInt64(-3)})
	v := ion.Annotation([]uint32{260}, ion.Struct([]ion.Field{
		{ID: 174, Value: inner},
	}))
	payload := ion.PrependBVM(ion.Encode(nil, v))

	if err := ValidateEntity(payload, tbl); err != nil {
		t.Fatalf("ValidateEntity: %v", err)
	}
}

func TestValidateEntityRejectsUnresolvedSymbol(t *testing.T) {
	tbl := symbols.NewTable(0) // empty shared tier, no locals: no ID above 9 resolves
	v := ion.Struct([]ion.Field{
		{ID: 4, Value: ion.Symbol(900)},
	})
	payload := ion.PrependBVM(ion.Encode(nil, v))

	err := ValidateEntity(payload, tbl)
	if err == nil {
		t.Fatal("ValidateEntity: want error for a symbol value with no backing text, got nil")
	}
}

func TestValidateEntityReportsInvalidBytes(t *testing.T) {
	tbl := testTable()
	payload := append([]byte{0xE0, 0x01, 0x00, 0xEA}, 0xFF, 0xFF, 0xFF, 0xFF)

	err := ValidateEntity(payload, tbl)
	if err == nil {
		t.Fatal("ValidateEntity: want error for malformed Ion bytes, got nil")
	}
	if !strings.Contains(err.Error(), "ionconform") {
		t.Fatalf("error = %v, want an ionconform-prefixed error", err)
	}
}
