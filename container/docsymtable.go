package container

import (
	"fmt"

	"kfxcore/ion"
	"kfxcore/symbols"
)

// Field/annotation IDs for the document $ion_symbol_table struct: these
// are Ion system symbols (1..9), always resolvable without a table.
const (
	symIonSymbolTableAnno = 3 // $ion_symbol_table (annotation + struct field)
	symName               = 4
	symVersion            = 5
	symImports            = 6
	symSymbols            = 7
	symMaxID              = 8
)

// decodeDocSymbolTable parses a container's document symbol table blob —
// an annotated struct of the form
//
//	$ion_symbol_table::{imports: [{name: "YJ_symbols", version: 10,
//	  max_id: 842}], symbols: ["local0", "local1", ...]}
//
// — into a *symbols.Table whose shared tier is sized from the import
// descriptor's max_id and whose local tier is set from the symbols list.
func decodeDocSymbolTable(data []byte) (*symbols.Table, int, error) {
	v, _, err := ion.Decode(ion.StripBVM(data), 0)
	if err != nil {
		return nil, 0, fmt.Errorf("container: decode doc symbol table: %w", err)
	}
	if v.Tag == ion.AnnotationType {
		_, wrapped, err := v.AnnotationValue()
		if err != nil {
			return nil, 0, err
		}
		v = wrapped
	}
	fields, err := v.StructValue()
	if err != nil {
		return nil, 0, fmt.Errorf("container: doc symbol table value is not a struct: %w", err)
	}

	maxID := 0
	var locals []string
	for _, f := range fields {
		switch f.ID {
		case symImports:
			items, err := f.Value.ListValue()
			if err != nil {
				return nil, 0, fmt.Errorf("container: doc symbol table $6 imports: %w", err)
			}
			for _, item := range items {
				id, ok := maxIDFromImport(item)
				if ok {
					maxID = id
				}
			}
		case symSymbols:
			items, err := f.Value.ListValue()
			if err != nil {
				return nil, 0, fmt.Errorf("container: doc symbol table $7 symbols: %w", err)
			}
			locals = make([]string, 0, len(items))
			for _, item := range items {
				s, err := item.StringValue()
				if err != nil {
					return nil, 0, fmt.Errorf("container: doc symbol table local symbol: %w", err)
				}
				locals = append(locals, s)
			}
		}
	}

	tbl := symbols.NewTable(maxID)
	tbl.SetLocals(locals)
	return tbl, maxID, nil
}

func maxIDFromImport(v ion.Value) (int, bool) {
	fields, err := v.StructValue()
	if err != nil {
		return 0, false
	}
	for _, f := range fields {
		if f.ID == symMaxID {
			n, err := f.Value.Int64Value()
			if err == nil {
				return int(n), true
			}
		}
	}
	return 0, false
}

// encodeDocSymbolTable builds the document symbol table blob for tbl: an
// import descriptor for YJ_symbols plus tbl's local symbol names. A table
// with no shared import and no local symbols needs no block at all (a
// v2 container with an all-default info struct may have none), so tbl
// being empty in that sense yields a nil (zero-length) blob.
func encodeDocSymbolTable(tbl *symbols.Table) []byte {
	if tbl.SharedCount() == 0 && len(tbl.Locals()) == 0 {
		return nil
	}

	importDescriptor := ion.Struct([]ion.Field{
		{ID: symName, Value: ion.String(symbols.SharedTableName)},
		{ID: symVersion, Value: ion.IntFromInt64(symbols.SharedTableVersion)},
		{ID: symMaxID, Value: ion.IntFromInt64(int64(tbl.SharedCount()))},
	})

	localNames := tbl.Locals()
	symbolItems := make([]ion.Value, len(localNames))
	for i, n := range localNames {
		symbolItems[i] = ion.String(n)
	}

	body := ion.Struct([]ion.Field{
		{ID: symImports, Value: ion.List([]ion.Value{importDescriptor})},
		{ID: symSymbols, Value: ion.List(symbolItems)},
	})
	wrapped := ion.Annotation([]uint32{symIonSymbolTableAnno}, body)
	return ion.PrependBVM(ion.Encode(nil, wrapped))
}
