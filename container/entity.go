package container

import (
	"encoding/binary"
	"fmt"

	"kfxcore/diagnostics"
	"kfxcore/fragment"
	"kfxcore/ion"
	"kfxcore/symbols"
)

// parseEntity decodes one ENTY record (already sliced to its bounds) into
// a fragment, given the numeric (fid, ftype) from its directory entry.
// diag receives a warning (not an error) when the on-disk annotation IDs
// disagree with the fid derived from the value itself.
func parseEntity(data []byte, ftype, fid uint32, diag diagnostics.Sink) (fragment.Fragment, error) {
	eh, err := decodeEntityHeader(data)
	if err != nil {
		return fragment.Fragment{}, err
	}
	if err := decodeEntityInfo(data[10:eh.Size]); err != nil {
		return fragment.Fragment{}, err
	}
	payload := data[eh.Size:]

	resolvedFID := fid
	isRoot := fid == nullPlaceholder
	if isRoot {
		resolvedFID = ftype
	}

	if fragment.Raw[symbols.Sym(ftype)] {
		return fragment.Fragment{FType: symbols.Sym(ftype), FID: symbols.Sym(resolvedFID), Value: ion.Blob(payload)}, nil
	}

	v, _, err := ion.Decode(ion.StripBVM(payload), 0)
	if err != nil {
		return fragment.Fragment{}, fmt.Errorf("container: decode entity $%d/$%d payload: %w", ftype, fid, err)
	}
	annFID := resolvedFID
	if v.Tag == ion.AnnotationType {
		ids, wrapped, err := v.AnnotationValue()
		if err != nil {
			return fragment.Fragment{}, err
		}
		if len(ids) == 2 {
			annFID = ids[0]
		}
		v = wrapped
	}

	f := fragment.Fragment{FType: symbols.Sym(ftype), FID: symbols.Sym(resolvedFID), Value: v}
	if !isRoot {
		if derived, derr := fragment.Derive(symbols.Sym(ftype), v); derr == nil &&
			derived.FIDName == "" && uint32(derived.FID) != annFID {
			diag.Warn("entity annotation fid disagrees with value-derived fid",
				diagnostics.Int("ftype", int(ftype)),
				diagnostics.Int("annotation_fid", int(annFID)),
				diagnostics.Int("derived_fid", int(derived.FID)))
		}
	}
	return f, nil
}

// serializeEntityPayload builds the part of an ENTY record that follows
// entity_info: a raw blob for Raw fragment types, otherwise a
// BVM-prefixed Ion value annotated with exactly two symbol IDs, `fid` then
// `ftype` (fid == ftype for a root fragment).
func serializeEntityPayload(f fragment.Fragment) ([]byte, error) {
	if f.IsRaw() {
		blob, err := f.Value.BlobValue()
		if err != nil {
			return nil, fmt.Errorf("container: raw fragment %v has non-blob value: %w", f, err)
		}
		return blob, nil
	}

	payload := ion.Annotation([]uint32{uint32(f.FID), uint32(f.FType)}, f.Value)
	return ion.PrependBVM(ion.Encode(nil, payload)), nil
}

// serializeEntity encodes f as a full ENTY record: signature, version,
// header_len, entity_info, then either a raw blob or an annotated,
// BVM-prefixed Ion value.
func serializeEntity(f fragment.Fragment) ([]byte, error) {
	entInfo := encodeEntityInfo()
	headerLen := uint32(10 + len(entInfo))

	buf := make([]byte, 0, int(headerLen)+64)
	buf = append(buf, entitySignature...)
	buf = binary.LittleEndian.AppendUint16(buf, entityVersion)
	buf = binary.LittleEndian.AppendUint32(buf, headerLen)
	buf = append(buf, entInfo...)

	payload, err := serializeEntityPayload(f)
	if err != nil {
		return nil, err
	}
	return append(buf, payload...), nil
}
