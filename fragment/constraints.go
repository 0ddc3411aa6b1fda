package fragment

import (
	"fmt"

	"kfxcore/diagnostics"
	"kfxcore/ion"
	"kfxcore/symbols"
)

// MaxTextContentBytes is the largest a $145 text-content fragment's string
// payload may be, excluding its terminating empty-string marker.
const MaxTextContentBytes = 8192

// ValidateTextContent enforces the $145 shape: a non-null string field
// terminated by an explicit empty-string entry, with the non-terminator
// payload capped at MaxTextContentBytes bytes.
func ValidateTextContent(f Fragment) error {
	if f.FType != SymTextContent {
		return nil
	}
	field, ok := f.Value.Get(uint32(SymContentList))
	if !ok {
		return fmt.Errorf("fragment: $145 %v missing $146 content list", f)
	}
	items, err := field.ListValue()
	if err != nil {
		return fmt.Errorf("fragment: $145 %v $146 field: %w", f, err)
	}
	if len(items) == 0 || items[len(items)-1].Tag != ion.StringType {
		return fmt.Errorf("fragment: $145 %v content list missing terminating empty string", f)
	}
	if last, _ := items[len(items)-1].StringValue(); last != "" {
		return fmt.Errorf("fragment: $145 %v content list terminator must be an empty string, got %q", f, last)
	}
	total := 0
	for _, item := range items[:len(items)-1] {
		s, err := item.StringValue()
		if err != nil {
			return fmt.Errorf("fragment: $145 %v content list entry: %w", f, err)
		}
		total += len(s)
	}
	if total > MaxTextContentBytes {
		return fmt.Errorf("fragment: $145 %v content totals %d bytes, exceeds %d", f, total, MaxTextContentBytes)
	}
	return nil
}

// SymStyleEvents is the inline style-run list field ($142) attached to a
// $145 text-content fragment: a list of structs each pairing an $143
// offset and $144 length with a style reference.
const SymStyleEvents = 142
const (
	symStyleEventOffset = 143
	symStyleEventLength = 144
)

// ValidateStyleEvents checks that every $142 run on f has non-negative,
// monotonically non-decreasing offsets and a positive length, matching
// the source format's constraint that style runs describe disjoint,
// ordered spans over the fragment's text.
func ValidateStyleEvents(f Fragment) error {
	field, ok := f.Value.Get(SymStyleEvents)
	if !ok {
		return nil
	}
	runs, err := field.ListValue()
	if err != nil {
		return fmt.Errorf("fragment: %v $142 field: %w", f, err)
	}
	prevEnd := int64(-1)
	for i, run := range runs {
		fields, err := run.StructValue()
		if err != nil {
			return fmt.Errorf("fragment: %v $142[%d] is not a struct: %w", f, i, err)
		}
		var offset, length int64
		var haveOffset, haveLength bool
		for _, fld := range fields {
			switch fld.ID {
			case symStyleEventOffset:
				offset, err = fld.Value.Int64Value()
				haveOffset = true
			case symStyleEventLength:
				length, err = fld.Value.Int64Value()
				haveLength = true
			}
			if err != nil {
				return fmt.Errorf("fragment: %v $142[%d]: %w", f, i, err)
			}
		}
		if !haveOffset || !haveLength {
			return fmt.Errorf("fragment: %v $142[%d] missing offset/length", f, i)
		}
		if offset < 0 || length <= 0 {
			return fmt.Errorf("fragment: %v $142[%d] has non-positive offset/length (%d/%d)", f, i, offset, length)
		}
		if offset < prevEnd {
			return fmt.Errorf("fragment: %v $142[%d] overlaps the previous run (offset %d < %d)", f, i, offset, prevEnd)
		}
		prevEnd = offset + length
	}
	return nil
}

// CheckListStyleConflicts walks f's value for a $100 (list_style) field
// whose value is the symbol $739. $739 resolves to "cjk_list_style?" in
// the shared catalog, but some producers overload it with a text-emphasis
// mapping in the $736..$740 range; a $739 reached through a list_style
// field is the ambiguous case spec.md calls out, so it is reported to
// diag rather than silently accepted either way.
func CheckListStyleConflicts(f Fragment, diag diagnostics.Sink) {
	walkListStyleConflicts(f, f.Value, diag)
}

func walkListStyleConflicts(f Fragment, v ion.Value, diag diagnostics.Sink) {
	switch v.Tag {
	case ion.StructType:
		fields, err := v.StructValue()
		if err != nil {
			return
		}
		for _, fld := range fields {
			if fld.ID == uint32(SymListStyle) {
				if id, err := fld.Value.SymbolValue(); err == nil && symbols.Sym(id) == SymCJKListStyle {
					diag.Warn("$739 used as a $100 list_style value is ambiguous with the text-emphasis mapping",
						diagnostics.Int("ftype", int(f.FType)), diagnostics.Int("fid", int(f.FID)))
				}
			}
			walkListStyleConflicts(f, fld.Value, diag)
		}
	case ion.ListType:
		items, err := v.ListValue()
		if err != nil {
			return
		}
		for _, item := range items {
			walkListStyleConflicts(f, item, diag)
		}
	}
}
