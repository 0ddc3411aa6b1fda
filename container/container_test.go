package container

import (
	"testing"

	"kfxcore/diagnostics"
	"kfxcore/fragment"
	"kfxcore/ion"
	"kfxcore/symbols"
)

func newTestContainer() *Container {
	c := New()
	c.ContainerID = "test-container-0"
	c.Table = symbols.NewTable(842)

	meta := ion.Struct([]ion.Field{
		{ID: 490, Value: ion.String("Test Book")},
	})
	c.Fragments.Add(fragment.NewRoot(fragment.SymBookMetadata, meta))
	return c
}

func TestWriteReadRoundTripNoDocSymbolTableNoEntities(t *testing.T) {
	c := New()
	c.ContainerID = "test-container-bare"
	c.Table = symbols.NewTable(0)

	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.ContainerID != c.ContainerID {
		t.Fatalf("ContainerID = %q, want %q", got.ContainerID, c.ContainerID)
	}
	if got.Fragments.Len() != 0 {
		t.Fatalf("Fragments.Len() = %d, want 0", got.Fragments.Len())
	}
	if got.Table.SharedCount() != 0 || len(got.Table.Locals()) != 0 {
		t.Fatalf("Table = {shared: %d, locals: %v}, want all-empty", got.Table.SharedCount(), got.Table.Locals())
	}
}

func TestWriteReadRoundTripSingleMetadataFragment(t *testing.T) {
	c := newTestContainer()
	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.ContainerID != c.ContainerID {
		t.Fatalf("ContainerID = %q, want %q", got.ContainerID, c.ContainerID)
	}
	if got.Fragments.Len() != 1 {
		t.Fatalf("Fragments.Len() = %d, want 1", got.Fragments.Len())
	}
	if got.Classification() != fragment.Metadata {
		t.Fatalf("Classification() = %v, want Metadata", got.Classification())
	}
}

func TestWriteReadRoundTripWithRawMedia(t *testing.T) {
	c := newTestContainer()
	c.Fragments.Add(fragment.New(fragment.SymRawMedia, 900, "", ion.Blob([]byte{1, 2, 3, 4})))

	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	raw, ok := got.Fragments.Get(fragment.Key{FType: fragment.SymRawMedia, FID: 900})
	if !ok {
		t.Fatal("raw media fragment missing after round trip")
	}
	blob, err := raw.Value.BlobValue()
	if err != nil || len(blob) != 4 {
		t.Fatalf("raw media blob = %v, %v", blob, err)
	}
}

func TestWriteReadRoundTripWithLocalSymbols(t *testing.T) {
	c := newTestContainer()
	styleID := fragment.BuildLocalTable(c.Table, []string{"style_0"})[0]
	style := ion.Struct([]ion.Field{{ID: uint32(fragment.SymStyleName), Value: ion.Symbol(uint32(styleID))}})
	c.Fragments.Add(fragment.New(fragment.SymStyle, styleID, "", style))

	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Table.Locals()) != 1 || got.Table.Locals()[0] != "style_0" {
		t.Fatalf("local symbols after round trip = %v, want [style_0]", got.Table.Locals())
	}
}

func TestWriteReadRoundTripWithFormatCapabilities(t *testing.T) {
	c := newTestContainer()
	caps := ion.List([]ion.Value{ion.String("kfxgen.positionMaps")})
	c.FormatCapabilities = &caps

	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.FormatCapabilities == nil {
		t.Fatal("format capabilities missing after round trip")
	}
	items, err := got.FormatCapabilities.ListValue()
	if err != nil || len(items) != 1 {
		t.Fatalf("format capabilities list = %v, %v", items, err)
	}
}

func TestVerifyAcceptsWellFormedContainer(t *testing.T) {
	c := newTestContainer()
	styleID := fragment.BuildLocalTable(c.Table, []string{"style_0"})[0]
	style := ion.Struct([]ion.Field{{ID: uint32(fragment.SymStyleName), Value: ion.Symbol(uint32(styleID))}})
	c.Fragments.Add(fragment.New(fragment.SymStyle, styleID, "", style))
	c.Fragments.Add(fragment.New(fragment.SymRawMedia, 900, "", ion.Blob([]byte{1, 2, 3})))

	if err := c.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestReadWarnsOnUnrecognizedMaxID(t *testing.T) {
	c := New()
	c.ContainerID = "test-container-1"
	c.Table = symbols.NewTable(100) // neither 842 nor 851
	c.Fragments.Add(fragment.NewRoot(fragment.SymBookMetadata, ion.Struct(nil)))

	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	sink := &diagnostics.CollectingSink{}
	if _, err := Read(data, sink); err != nil {
		t.Fatalf("Read: %v", err)
	}
	found := false
	for _, ev := range sink.Events {
		if ev.Level == "warn" {
			found = true
		}
	}
	if !found {
		t.Fatal("Read: expected a max_id mismatch warning, got none")
	}
}

func TestReadWarnsOnAnnotationFidDerivedFidMismatch(t *testing.T) {
	c := newTestContainer()
	ids := fragment.BuildLocalTable(c.Table, []string{"style_0", "style_1"})
	onDiskFID, derivedFID := ids[0], ids[1]

	// The value's own $173 (style_name) field names style_1, but the
	// fragment is stored under style_0's id: the on-disk annotation and
	// the value-derived id disagree.
	style := ion.Struct([]ion.Field{{ID: uint32(fragment.SymStyleName), Value: ion.Symbol(uint32(derivedFID))}})
	c.Fragments.Add(fragment.New(fragment.SymStyle, onDiskFID, "", style))

	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	sink := &diagnostics.CollectingSink{}
	if _, err := Read(data, sink); err != nil {
		t.Fatalf("Read: %v", err)
	}
	found := false
	for _, ev := range sink.Events {
		if ev.Level == "warn" && ev.Msg == "entity annotation fid disagrees with value-derived fid" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Read: expected an annotation/derived-fid mismatch warning, got %+v", sink.Events)
	}
}

func TestReadWarnsOnCJKListStyleConflict(t *testing.T) {
	c := newTestContainer()
	styleID := fragment.BuildLocalTable(c.Table, []string{"style_0"})[0]
	style := ion.Struct([]ion.Field{
		{ID: uint32(fragment.SymStyleName), Value: ion.Symbol(uint32(styleID))},
		{ID: uint32(fragment.SymListStyle), Value: ion.Symbol(uint32(fragment.SymCJKListStyle))},
	})
	c.Fragments.Add(fragment.New(fragment.SymStyle, styleID, "", style))

	data, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	sink := &diagnostics.CollectingSink{}
	if _, err := Read(data, sink); err != nil {
		t.Fatalf("Read: %v", err)
	}
	found := false
	for _, ev := range sink.Events {
		if ev.Level == "warn" && ev.Msg == "$739 used as a $100 list_style value is ambiguous with the text-emphasis mapping" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Read: expected a $739/$100 conflict warning, got %+v", sink.Events)
	}
}

func TestDeterministicOutputOrder(t *testing.T) {
	c := newTestContainer()
	c.Fragments.Add(fragment.New(fragment.SymRawMedia, 900, "", ion.Blob([]byte{1})))
	first, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	second, err := c.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("two writes of the same container produced different lengths: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("two writes of the same container diverged at byte %d", i)
		}
	}
}
