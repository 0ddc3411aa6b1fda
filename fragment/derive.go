package fragment

import (
	"fmt"

	"kfxcore/ion"
	"kfxcore/symbols"
)

// derivedIDField maps a non-root fragment type to the field within its own
// value that carries the fragment's identity.
var derivedIDField = map[symbols.Sym]symbols.Sym{
	SymStyle:    SymStyleName,
	SymSection:  SymSectionName,
	SymRawMedia: SymLocation,
}

// Derive computes the (fid, idName) pair for a fragment of the given type
// built from value, following the container's non-root ID derivation
// rules. Root/singleton types get fid == ftype directly: for those, Derive
// returns NewRoot(ftype, value) without looking at any field.
//
// $157 (style) takes its id from field $173; $260 (section) from $174;
// $417 (raw_media) from $165. $145 (text content) is keyed by its own
// "name" field (system symbol 4) instead of a type-specific field.
// The field's value may itself be a Symbol (already a resolved local ID)
// or a String (a name still awaiting interning into a Table).
func Derive(ftype symbols.Sym, value ion.Value) (Fragment, error) {
	if Root[ftype] {
		return NewRoot(ftype, value), nil
	}

	var fieldKey symbols.Sym
	if ftype == SymTextContent {
		fieldKey = symbols.Sym(4) // system "name"
	} else if key, ok := derivedIDField[ftype]; ok {
		fieldKey = key
	} else {
		return Fragment{}, fmt.Errorf("fragment: no ID derivation rule for fragment type $%d", ftype)
	}

	field, ok := value.Get(uint32(fieldKey))
	if !ok {
		return Fragment{}, fmt.Errorf("fragment: $%d value missing derived-id field $%d", ftype, fieldKey)
	}

	switch field.Tag {
	case ion.SymbolType:
		id, err := field.SymbolValue()
		if err != nil {
			return Fragment{}, err
		}
		return New(ftype, symbols.Sym(id), "", value), nil
	case ion.StringType:
		name, err := field.StringValue()
		if err != nil {
			return Fragment{}, err
		}
		return New(ftype, 0, name, value), nil
	default:
		return Fragment{}, fmt.Errorf("fragment: $%d derived-id field $%d has unexpected type %s", ftype, fieldKey, field.Tag)
	}
}

// Resolve interns f.FIDName into tbl (if unresolved) and returns a copy of
// f with FID set and FIDName cleared, ready for List.Add.
func Resolve(f Fragment, tbl *symbols.Table) Fragment {
	if f.FIDName == "" {
		return f
	}
	f.FID = tbl.InternLocal(f.FIDName)
	f.FIDName = ""
	return f
}
