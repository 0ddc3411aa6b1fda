// Package symbols implements the three-tier KFX symbol table: system
// symbols (1..9, fixed by Ion), the shared YJ_symbols v10 import
// (10..851), and per-container local symbols appended above that. The
// shared catalog itself lives in catalog.go, generated from the source
// producer's symbol dictionary.
package symbols

import "strings"

// Sym is a resolved symbol ID, valid only relative to the Table that
// produced or accepted it.
type Sym uint32

// Table resolves between numeric symbol IDs and names for one container.
// It is built once per parse (from the import's max_id) or once per write
// (by interning every symbol a fragment set needs) and is immutable from
// the caller's point of view after that, aside from InternLocal during
// write-path construction.
type Table struct {
	sharedCount int
	locals      []string
	localIndex  map[string]int
}

// NewTable builds a table whose shared tier covers maxID slots of the
// embedded catalog, clamped to the catalog's actual size regardless of
// which max_id convention the producer used (see effectiveSharedCount).
func NewTable(maxID int) *Table {
	return &Table{sharedCount: effectiveSharedCount(maxID), localIndex: make(map[string]int)}
}

// effectiveSharedCount resolves Open Question (1): some producers write
// max_id as the shared table's own size (~842), others as that size plus
// the 9 system symbols (~851). Both are accepted; the result is always
// clamped to the size of the embedded catalog.
func effectiveSharedCount(maxID int) int {
	n := len(catalog)
	switch {
	case maxID <= 0:
		return 0
	case maxID <= n:
		return maxID
	case maxID-9 <= n:
		return maxID - 9
	default:
		return n
	}
}

// MaxIDMatchesCatalog reports whether maxID matches the embedded catalog
// size under either accepted convention, for callers that want to warn
// on a mismatch rather than silently clamp.
func MaxIDMatchesCatalog(maxID int) bool {
	n := len(catalog)
	return maxID == n || maxID == n+9
}

// SharedCount returns how many shared-tier slots are active in t.
func (t *Table) SharedCount() int { return t.sharedCount }

// NameFor resolves id to a name, searching system, shared, then local
// tiers in that order. ok is false for an id present in none of them.
func (t *Table) NameFor(id Sym) (name string, ok bool) {
	switch {
	case id >= 1 && id <= 9:
		return System[id], true
	case int(id) >= 10 && int(id) < 10+t.sharedCount:
		return catalog[int(id)-catalogMinID], true
	default:
		li := int(id) - (10 + t.sharedCount)
		if li >= 0 && li < len(t.locals) {
			return t.locals[li], true
		}
		return "", false
	}
}

// IDFor resolves name to its ID in whichever tier holds it first
// (system, then shared, then local).
func (t *Table) IDFor(name string) (Sym, bool) {
	for id := 1; id <= 9; id++ {
		if System[id] == name {
			return Sym(id), true
		}
	}
	for i := 0; i < t.sharedCount; i++ {
		if catalog[i] == name {
			return Sym(catalogMinID + i), true
		}
	}
	if li, ok := t.localIndex[name]; ok {
		return Sym(10 + t.sharedCount + li), true
	}
	return 0, false
}

// InternLocal returns name's existing ID if it is already present in any
// tier, or appends it to the local tier and returns the new ID. Interning
// the same name twice is idempotent.
func (t *Table) InternLocal(name string) Sym {
	if id, ok := t.IDFor(name); ok {
		return id
	}
	t.locals = append(t.locals, name)
	t.localIndex[name] = len(t.locals) - 1
	return Sym(10 + t.sharedCount + len(t.locals) - 1)
}

// Locals returns the local symbol names in the order they were interned —
// the order a write-path $ion_symbol_table value must list them in.
func (t *Table) Locals() []string { return t.locals }

// SetLocals installs names as t's local tier directly, positionally, as
// read off a container's own $ion_symbol_table local-symbols list. Unlike
// InternLocal this does not dedup against existing tiers: a container on
// disk already fixed each local symbol's position, and this just records
// it.
func (t *Table) SetLocals(names []string) {
	t.locals = append([]string(nil), names...)
	t.localIndex = make(map[string]int, len(names))
	for i, n := range names {
		if _, exists := t.localIndex[n]; !exists {
			t.localIndex[n] = i
		}
	}
}

// IsDeprecated reports whether a resolved name is marked deprecated in the
// source catalog (a trailing '?'). Deprecated symbols still resolve; the
// write path should not emit new references to them.
func IsDeprecated(name string) bool { return strings.HasSuffix(name, "?") }
