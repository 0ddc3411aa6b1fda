package container

import (
	"fmt"

	"kfxcore/ion"
)

// Field IDs used by container_info, entity_info and the format-capabilities
// wrapper. All fall within the shared catalog range, so they resolve
// without needing a document symbol table.
const (
	symContainerID        = 409
	symComprType          = 410
	symDRMScheme          = 411
	symChunkSize          = 412
	symIndexTabOffset     = 413
	symIndexTabLength     = 414
	symDocSymOffset       = 415
	symDocSymLength       = 416
	symFormatCapabilities = 593
	symFCapabOffset       = 594
	symFCapabLength       = 595
)

// info mirrors the container_info Ion struct found at header.InfoOffset.
type info struct {
	ContainerID string
	ComprType   int64
	DRMScheme   int64
	ChunkSize   int64
	IndexTabOff uint32
	IndexTabLen uint32
	DocSymOff   uint32
	DocSymLen   uint32
	FCapabOff   uint32
	FCapabLen   uint32
}

func decodeInfo(data []byte) (info, error) {
	v, _, err := ion.Decode(ion.StripBVM(data), 0)
	if err != nil {
		return info{}, fmt.Errorf("container: decode container_info: %w", err)
	}
	fields, err := v.StructValue()
	if err != nil {
		return info{}, fmt.Errorf("container: container_info is not a struct: %w", err)
	}
	var out info
	for _, f := range fields {
		switch f.ID {
		case symContainerID:
			out.ContainerID, err = f.Value.StringValue()
		case symComprType:
			out.ComprType, err = f.Value.Int64Value()
		case symDRMScheme:
			out.DRMScheme, err = f.Value.Int64Value()
		case symChunkSize:
			out.ChunkSize, err = f.Value.Int64Value()
		case symIndexTabOffset:
			out.IndexTabOff, err = int64AsU32(f.Value)
		case symIndexTabLength:
			out.IndexTabLen, err = int64AsU32(f.Value)
		case symDocSymOffset:
			out.DocSymOff, err = int64AsU32(f.Value)
		case symDocSymLength:
			out.DocSymLen, err = int64AsU32(f.Value)
		case symFCapabOffset:
			out.FCapabOff, err = int64AsU32(f.Value)
		case symFCapabLength:
			out.FCapabLen, err = int64AsU32(f.Value)
		}
		if err != nil {
			return info{}, fmt.Errorf("container: container_info field $%d: %w", f.ID, err)
		}
	}
	if out.ComprType != 0 {
		return info{}, fmt.Errorf("container: unsupported compression type %d", out.ComprType)
	}
	if out.DRMScheme != 0 {
		return info{}, fmt.Errorf("container: unsupported DRM scheme %d", out.DRMScheme)
	}
	return out, nil
}

func int64AsU32(v ion.Value) (uint32, error) {
	n, err := v.Int64Value()
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// encodeInfo builds the container_info Ion struct, including the BVM, for
// the given field values. Fields are emitted in ascending ID order per
// the field-order-preservation rule.
func encodeInfo(in info) []byte {
	fields := []ion.Field{}
	if in.ContainerID != "" {
		fields = append(fields, ion.Field{ID: symContainerID, Value: ion.String(in.ContainerID)})
	}
	fields = append(fields,
		ion.Field{ID: symComprType, Value: ion.IntFromInt64(in.ComprType)},
		ion.Field{ID: symDRMScheme, Value: ion.IntFromInt64(in.DRMScheme)},
		ion.Field{ID: symChunkSize, Value: ion.IntFromInt64(in.ChunkSize)},
		ion.Field{ID: symIndexTabOffset, Value: ion.IntFromInt64(int64(in.IndexTabOff))},
		ion.Field{ID: symIndexTabLength, Value: ion.IntFromInt64(int64(in.IndexTabLen))},
	)
	if in.DocSymLen > 0 {
		fields = append(fields,
			ion.Field{ID: symDocSymOffset, Value: ion.IntFromInt64(int64(in.DocSymOff))},
			ion.Field{ID: symDocSymLength, Value: ion.IntFromInt64(int64(in.DocSymLen))},
		)
	}
	if in.FCapabLen > 0 {
		fields = append(fields,
			ion.Field{ID: symFCapabOffset, Value: ion.IntFromInt64(int64(in.FCapabOff))},
			ion.Field{ID: symFCapabLength, Value: ion.IntFromInt64(int64(in.FCapabLen))},
		)
	}
	return ion.PrependBVM(ion.Encode(nil, ion.Struct(fields)))
}

// entityInfo is the small $410/$411 struct embedded in each ENTY header.
func decodeEntityInfo(data []byte) error {
	v, _, err := ion.Decode(ion.StripBVM(data), 0)
	if err != nil {
		return fmt.Errorf("container: decode entity_info: %w", err)
	}
	fields, err := v.StructValue()
	if err != nil {
		return fmt.Errorf("container: entity_info is not a struct: %w", err)
	}
	for _, f := range fields {
		n, err := f.Value.Int64Value()
		if err != nil {
			continue
		}
		if (f.ID == symComprType || f.ID == symDRMScheme) && n != 0 {
			return fmt.Errorf("container: unsupported entity_info field $%d = %d", f.ID, n)
		}
	}
	return nil
}

func encodeEntityInfo() []byte {
	fields := []ion.Field{
		{ID: symComprType, Value: ion.IntFromInt64(0)},
		{ID: symDRMScheme, Value: ion.IntFromInt64(0)},
	}
	return ion.PrependBVM(ion.Encode(nil, ion.Struct(fields)))
}

// decodeFormatCapabilities parses the $593-annotated value at the
// container's format-capabilities offset.
func decodeFormatCapabilities(data []byte) (ion.Value, error) {
	v, _, err := ion.Decode(ion.StripBVM(data), 0)
	if err != nil {
		return ion.Value{}, fmt.Errorf("container: decode format capabilities: %w", err)
	}
	if v.Tag == ion.AnnotationType {
		_, wrapped, err := v.AnnotationValue()
		if err != nil {
			return ion.Value{}, err
		}
		v = wrapped
	}
	return v, nil
}

func encodeFormatCapabilities(v ion.Value) []byte {
	wrapped := ion.Annotation([]uint32{symFormatCapabilities}, v)
	return ion.PrependBVM(ion.Encode(nil, wrapped))
}
