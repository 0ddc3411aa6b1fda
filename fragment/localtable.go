package fragment

import "kfxcore/symbols"

// BuildLocalTable interns names, in order, as tbl's local symbol tier and
// returns the resolved ID for each. names must already be deduplicated and
// ordered by first use; producing that list is the caller's job (mirroring
// how a name-based Ion writer collects local symbols during struct
// marshaling, before any symbol IDs are fixed). Calling this with a name
// already present in the system, shared, or local tier is a no-op for that
// name: its existing ID is returned instead of a new one being allocated.
func BuildLocalTable(tbl *symbols.Table, names []string) []symbols.Sym {
	ids := make([]symbols.Sym, len(names))
	for i, n := range names {
		ids[i] = tbl.InternLocal(n)
	}
	return ids
}
