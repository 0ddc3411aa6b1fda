package fragment

import (
	"fmt"
	"sort"

	"kfxcore/ion"
	"kfxcore/symbols"
)

// Fragment is one node of the KFX data model: a typed, identified Ion
// value. FID and FType are symbol IDs already resolved against a
// particular Table; FIDName carries the not-yet-interned textual form of
// a derived ID until a Table is available to resolve it (see Derive).
type Fragment struct {
	FType   symbols.Sym
	FID     symbols.Sym
	FIDName string
	Value   ion.Value
}

// IsRoot reports whether f's identity is fid == ftype.
func (f Fragment) IsRoot() bool { return f.FIDName == "" && f.FID == f.FType }

// IsSingleton reports whether f's type may appear at most once per container.
func (f Fragment) IsSingleton() bool { return Singleton[f.FType] }

// IsRaw reports whether f carries an opaque byte blob rather than a parsed
// Ion value.
func (f Fragment) IsRaw() bool { return Raw[f.FType] }

// Key identifies a fragment within a List once its FID has been
// resolved to a symbol (i.e. after Derive/table construction on the write
// path, or always on the read path since container entities are already
// (fid, ftype)-keyed on disk).
type Key struct {
	FType symbols.Sym
	FID   symbols.Sym
}

// Key returns f's lookup key. It panics if f.FIDName is still unresolved;
// callers on the write path must resolve names to IDs (via a Table) before
// inserting a Fragment into a List.
func (f Fragment) Key() Key {
	if f.FIDName != "" {
		panic(fmt.Sprintf("fragment: Key() called before FIDName %q resolved to a symbol", f.FIDName))
	}
	return Key{FType: f.FType, FID: f.FID}
}

func (f Fragment) String() string {
	if f.FIDName != "" {
		return fmt.Sprintf("$%d/%q", f.FType, f.FIDName)
	}
	return fmt.Sprintf("$%d/$%d", f.FType, f.FID)
}

// New constructs a non-root fragment. id may be zero if idName is set
// instead (unresolved derived ID).
func New(ftype, id symbols.Sym, idName string, value ion.Value) Fragment {
	return Fragment{FType: ftype, FID: id, FIDName: idName, Value: value}
}

// NewRoot constructs a root fragment: fid == ftype.
func NewRoot(ftype symbols.Sym, value ion.Value) Fragment {
	return Fragment{FType: ftype, FID: ftype, Value: value}
}

// List is an ordered, indexed collection of fragments, keyed by (fid,
// ftype) and additionally bucketed by ftype for GetByType/root lookups.
type List struct {
	order  []Key
	byKey  map[Key]*Fragment
	byType map[symbols.Sym][]*Fragment
}

// NewList returns an empty fragment list.
func NewList() *List {
	return &List{byKey: make(map[Key]*Fragment), byType: make(map[symbols.Sym][]*Fragment)}
}

// Add inserts f, replacing any existing fragment with the same Key. f must
// already have a resolved FID (FIDName == "").
func (l *List) Add(f Fragment) {
	k := f.Key()
	if existing, exists := l.byKey[k]; exists {
		*existing = f
		return
	}
	l.order = append(l.order, k)
	stored := f
	l.byKey[k] = &stored
	l.byType[f.FType] = append(l.byType[f.FType], &stored)
}

// Get returns the fragment at k, if present.
func (l *List) Get(k Key) (Fragment, bool) {
	f, ok := l.byKey[k]
	if !ok {
		return Fragment{}, false
	}
	return *f, true
}

// GetRoot returns the singleton/root fragment of the given type, if present.
func (l *List) GetRoot(ftype symbols.Sym) (Fragment, bool) {
	return l.Get(Key{FType: ftype, FID: ftype})
}

// GetByType returns every fragment of the given type, in insertion order.
func (l *List) GetByType(ftype symbols.Sym) []Fragment {
	entries := l.byType[ftype]
	out := make([]Fragment, len(entries))
	for i, f := range entries {
		out[i] = *f
	}
	return out
}

// All returns every fragment in insertion order.
func (l *List) All() []Fragment {
	out := make([]Fragment, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, *l.byKey[k])
	}
	return out
}

// Len returns the number of fragments in the list.
func (l *List) Len() int { return len(l.order) }

// Types returns the set of distinct fragment types present in the list.
func (l *List) Types() map[symbols.Sym]bool {
	out := make(map[symbols.Sym]bool, len(l.byType))
	for t, entries := range l.byType {
		if len(entries) > 0 {
			out[t] = true
		}
	}
	return out
}

// Remove deletes the fragment at k, if present.
func (l *List) Remove(k Key) {
	if _, ok := l.byKey[k]; !ok {
		return
	}
	delete(l.byKey, k)
	for i, existing := range l.order {
		if existing == k {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	entries := l.byType[k.FType]
	for i, f := range entries {
		if f.FID == k.FID {
			l.byType[k.FType] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

// Classify returns the container classification implied by this list's
// fragment types.
func (l *List) Classify() Classification {
	return Classify(l.Types())
}

// SortedByType returns every fragment ordered by (ftype, fid), the
// deterministic order a container write must emit entities in so that
// two writes of the same fragment set produce byte-identical output.
func (l *List) SortedByType() []Fragment {
	out := l.All()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FType != out[j].FType {
			return out[i].FType < out[j].FType
		}
		return out[i].FID < out[j].FID
	})
	return out
}
