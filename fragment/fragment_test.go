package fragment

import (
	"testing"

	"kfxcore/ion"
	"kfxcore/symbols"
)

func TestRootFragmentIsRoot(t *testing.T) {
	f := NewRoot(SymBookMetadata, ion.Struct(nil))
	if !f.IsRoot() {
		t.Fatal("NewRoot fragment should report IsRoot")
	}
	if f.FID != f.FType {
		t.Fatalf("root fid = %d, want ftype %d", f.FID, f.FType)
	}
}

func TestSingletonTypesAreRoot(t *testing.T) {
	for ftype := range Singleton {
		if !Root[ftype] {
			t.Fatalf("singleton type $%d is not in Root", ftype)
		}
	}
}

func TestDeriveStyleFragment(t *testing.T) {
	v := ion.Struct([]ion.Field{{ID: uint32(SymStyleName), Value: ion.String("style_0")}})
	f, err := Derive(SymStyle, v)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if f.FIDName != "style_0" {
		t.Fatalf("FIDName = %q, want style_0", f.FIDName)
	}
}

func TestDeriveRawMediaFragmentBySymbol(t *testing.T) {
	v := ion.Struct([]ion.Field{{ID: uint32(SymLocation), Value: ion.Symbol(900)}})
	f, err := Derive(SymRawMedia, v)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if f.FID != 900 || f.FIDName != "" {
		t.Fatalf("fid = %d/%q, want 900/\"\"", f.FID, f.FIDName)
	}
}

func TestDeriveTextContentUsesNameField(t *testing.T) {
	v := ion.Struct([]ion.Field{{ID: 4, Value: ion.String("content_0")}})
	f, err := Derive(SymTextContent, v)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if f.FIDName != "content_0" {
		t.Fatalf("FIDName = %q, want content_0", f.FIDName)
	}
}

func TestResolveInternsLocalSymbol(t *testing.T) {
	tbl := symbols.NewTable(842)
	v := ion.Struct([]ion.Field{{ID: uint32(SymStyleName), Value: ion.String("style_0")}})
	f, _ := Derive(SymStyle, v)
	resolved := Resolve(f, tbl)
	if resolved.FIDName != "" {
		t.Fatal("Resolve did not clear FIDName")
	}
	want := symbols.Sym(10 + 842)
	if resolved.FID != want {
		t.Fatalf("resolved fid = %d, want %d", resolved.FID, want)
	}
	again := tbl.InternLocal("style_0")
	if again != want {
		t.Fatalf("re-interning style_0 = %d, want idempotent %d", again, want)
	}
}

func TestListAddGetRemove(t *testing.T) {
	l := NewList()
	root := NewRoot(SymBookMetadata, ion.Struct(nil))
	l.Add(root)
	if got, ok := l.GetRoot(SymBookMetadata); !ok || got.FType != SymBookMetadata {
		t.Fatal("GetRoot did not find the inserted root fragment")
	}
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
	l.Remove(root.Key())
	if l.Len() != 0 {
		t.Fatalf("Len after Remove = %d, want 0", l.Len())
	}
}

func TestClassifyPriorityMainOverMetadata(t *testing.T) {
	l := NewList()
	l.Add(NewRoot(SymBookMetadata, ion.Struct(nil)))
	l.Add(New(SymSection, 1000, "", ion.Struct(nil)))
	if got := l.Classify(); got != Main {
		t.Fatalf("Classify = %v, want Main", got)
	}
}

func TestClassifyMetadataOnly(t *testing.T) {
	l := NewList()
	l.Add(NewRoot(SymBookMetadata, ion.Struct(nil)))
	if got := l.Classify(); got != Metadata {
		t.Fatalf("Classify = %v, want Metadata", got)
	}
}

func TestClassifyAttachableOnly(t *testing.T) {
	l := NewList()
	l.Add(New(SymRawMedia, 2000, "", ion.Struct(nil)))
	if got := l.Classify(); got != Attachable {
		t.Fatalf("Classify = %v, want Attachable", got)
	}
}

func textContentValue(chunks ...string) ion.Value {
	items := make([]ion.Value, 0, len(chunks)+1)
	for _, c := range chunks {
		items = append(items, ion.String(c))
	}
	items = append(items, ion.String(""))
	return ion.Struct([]ion.Field{{ID: uint32(SymContentList), Value: ion.List(items)}})
}

func TestValidateTextContentAccepts(t *testing.T) {
	f := New(SymTextContent, 0, "content_0", textContentValue("hello ", "world"))
	if err := ValidateTextContent(f); err != nil {
		t.Fatalf("ValidateTextContent: %v", err)
	}
}

func TestValidateTextContentRejectsMissingTerminator(t *testing.T) {
	v := ion.Struct([]ion.Field{{ID: uint32(SymContentList), Value: ion.List([]ion.Value{ion.String("hello")})}})
	f := New(SymTextContent, 0, "content_0", v)
	if err := ValidateTextContent(f); err == nil {
		t.Fatal("expected error for missing terminator")
	}
}

func TestValidateTextContentRejectsOversize(t *testing.T) {
	big := make([]byte, MaxTextContentBytes+1)
	f := New(SymTextContent, 0, "content_0", textContentValue(string(big)))
	if err := ValidateTextContent(f); err == nil {
		t.Fatal("expected error for oversize content")
	}
}

func styleEvent(offset, length int64) ion.Value {
	return ion.Struct([]ion.Field{
		{ID: symStyleEventOffset, Value: ion.IntFromInt64(offset)},
		{ID: symStyleEventLength, Value: ion.IntFromInt64(length)},
	})
}

func TestValidateStyleEventsAcceptsOrdered(t *testing.T) {
	v := ion.Struct([]ion.Field{{ID: SymStyleEvents, Value: ion.List([]ion.Value{
		styleEvent(0, 5), styleEvent(5, 3),
	})}})
	f := New(SymTextContent, 0, "content_0", v)
	if err := ValidateStyleEvents(f); err != nil {
		t.Fatalf("ValidateStyleEvents: %v", err)
	}
}

func TestValidateStyleEventsRejectsOverlap(t *testing.T) {
	v := ion.Struct([]ion.Field{{ID: SymStyleEvents, Value: ion.List([]ion.Value{
		styleEvent(0, 5), styleEvent(2, 3),
	})}})
	f := New(SymTextContent, 0, "content_0", v)
	if err := ValidateStyleEvents(f); err == nil {
		t.Fatal("expected error for overlapping style runs")
	}
}

func TestComputeEntityDependenciesLinksResourceToRawMedia(t *testing.T) {
	l := NewList()
	rawMedia := New(SymRawMedia, 500, "", ion.Struct([]ion.Field{{ID: uint32(SymLocation), Value: ion.String("img/cover.jpg")}}))
	l.Add(rawMedia)
	extRes := New(SymExternalResource, 600, "", ion.Struct([]ion.Field{{ID: uint32(SymLocation), Value: ion.String("img/cover.jpg")}}))
	l.Add(extRes)

	deps := ComputeEntityDependencies(l)
	if len(deps) != 1 {
		t.Fatalf("len(deps) = %d, want 1", len(deps))
	}
	if deps[0].FragmentID != 600 || len(deps[0].OptionalDeps) != 1 || deps[0].OptionalDeps[0] != 500 {
		t.Fatalf("dep = %+v, want FragmentID 600 depending optionally on 500", deps[0])
	}
}

func TestBuildEntityMapFragmentIsRoot(t *testing.T) {
	l := NewList()
	l.Add(New(SymSection, 1000, "", ion.Struct(nil)))
	f := BuildEntityMapFragment("container-0", l, nil)
	if !f.IsRoot() || f.FType != SymContainerEntityMap {
		t.Fatalf("entity map fragment = %v, want root $419", f)
	}
	fields, err := f.Value.StructValue()
	if err != nil || len(fields) != 1 {
		t.Fatalf("entity map value fields = %v, %v", fields, err)
	}
}
