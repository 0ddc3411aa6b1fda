package symbols

// System holds the nine Ion 1.0 system symbols, IDs 1..9, present in every
// stream regardless of which shared table is imported.
var System = [...]string{
	1: "$ion",
	2: "$ion_1_0",
	3: "$ion_symbol_table",
	4: "name",
	5: "version",
	6: "imports",
	7: "symbols",
	8: "max_id",
	9: "$ion_shared_symbol_table",
}

// Field-name string constants used when building or reading the
// $ion_symbol_table struct itself.
const (
	FieldName    = "name"
	FieldVersion = "version"
	FieldImports = "imports"
	FieldSymbols = "symbols"
	FieldMaxID   = "max_id"
)

// SharedTableName and SharedTableVersion identify the one import KFX
// containers use.
const (
	SharedTableName    = "YJ_symbols"
	SharedTableVersion = 10
)
