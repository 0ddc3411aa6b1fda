package fragment

import (
	"kfxcore/ion"
	"kfxcore/symbols"
)

// EntityDependency records which other fragments a fragment depends on:
// mandatory deps must be present for the fragment to resolve at all,
// optional deps (e.g. an external resource's backing raw media) may be
// absent without making the fragment itself invalid.
type EntityDependency struct {
	FragmentID    uint32
	MandatoryDeps []uint32
	OptionalDeps  []uint32
}

// ComputeEntityDependencies derives the $253 entity_dependencies list from
// a fragment set: today the only rule KFX needs is that an $164
// (external_resource) fragment optionally depends on the $417 (raw_media)
// fragment backing the same $165 (location).
func ComputeEntityDependencies(fragments *List) []EntityDependency {
	rawMediaByLocation := make(map[string]uint32)
	for _, f := range fragments.GetByType(SymRawMedia) {
		loc, ok := f.Value.Get(uint32(SymLocation))
		if !ok {
			continue
		}
		if s, err := loc.StringValue(); err == nil {
			rawMediaByLocation[s] = uint32(f.FID)
		}
	}

	var deps []EntityDependency
	for _, f := range fragments.GetByType(SymExternalResource) {
		loc, ok := f.Value.Get(uint32(SymLocation))
		if !ok {
			continue
		}
		s, err := loc.StringValue()
		if err != nil {
			continue
		}
		if rawID, exists := rawMediaByLocation[s]; exists {
			deps = append(deps, EntityDependency{
				FragmentID:   uint32(f.FID),
				OptionalDeps: []uint32{rawID},
			})
		}
	}
	return deps
}

// BuildEntityMapFragment builds the $419 container_entity_map root
// fragment: the set of non-container entities a container holds, plus any
// entity dependency list.
func BuildEntityMapFragment(containerID string, fragments *List, deps []EntityDependency) Fragment {
	entityIDs := make([]ion.Value, 0, fragments.Len())
	for _, f := range fragments.All() {
		if isContainerFragmentType(f.FType) {
			continue
		}
		entityIDs = append(entityIDs, ion.Symbol(uint32(f.FID)))
	}

	containerEntry := ion.Struct([]ion.Field{
		{ID: uint32(SymID), Value: ion.String(containerID)},
		{ID: uint32(SymContainsIDs), Value: ion.List(entityIDs)},
	})

	fields := []ion.Field{
		{ID: uint32(SymContainerList), Value: ion.List([]ion.Value{containerEntry})},
	}
	if len(deps) > 0 {
		depList := make([]ion.Value, 0, len(deps))
		for _, dep := range deps {
			depFields := []ion.Field{{ID: uint32(SymID), Value: ion.Symbol(dep.FragmentID)}}
			if len(dep.MandatoryDeps) > 0 {
				depFields = append(depFields, ion.Field{ID: uint32(SymMandatoryDeps), Value: symbolList(dep.MandatoryDeps)})
			}
			if len(dep.OptionalDeps) > 0 {
				depFields = append(depFields, ion.Field{ID: uint32(SymOptionalDeps), Value: symbolList(dep.OptionalDeps)})
			}
			depList = append(depList, ion.Struct(depFields))
		}
		fields = append(fields, ion.Field{ID: uint32(SymEntityDependencies), Value: ion.List(depList)})
	}

	return NewRoot(SymContainerEntityMap, ion.Struct(fields))
}

func symbolList(ids []uint32) ion.Value {
	items := make([]ion.Value, len(ids))
	for i, id := range ids {
		items[i] = ion.Symbol(id)
	}
	return ion.List(items)
}

// isContainerFragmentType reports whether ftype is one of the few types
// that live in the container header rather than the entity-map's entity
// list: the entity map itself, and the other container-header singletons.
func isContainerFragmentType(ftype symbols.Sym) bool {
	switch ftype {
	case SymContainerEntityMap, SymMetadata, SymBookMetadata:
		return true
	default:
		return false
	}
}
