// Package container implements the KFX binary container: the CONT/ENTY
// framing around a set of fragments, the container_info/entity_info Ion
// structs embedded in the fixed headers, and the document symbol table
// and format-capabilities blocks that sit alongside them.
package container

import (
	"encoding/binary"
	"fmt"
)

const (
	containerSignature = "CONT"
	entitySignature    = "ENTY"

	// Version is the container version this package always writes.
	// Version 1 containers (no format-capabilities block) are still
	// readable.
	Version = 2

	entityVersion = 1

	minHeaderLen   = 18 // CONT: 4 sig + 2 version + 4 size + 4 info_off + 4 info_len
	minEntityLen   = 10 // ENTY: 4 sig + 2 version + 4 size
	indexEntrySize = 24

	// nullPlaceholder is the symbol ID written into an entity directory
	// entry's id slot for a root fragment (fid == ftype already implied
	// by ftype alone).
	nullPlaceholder = 348
)

// header is the fixed 18-byte CONT header.
type header struct {
	Version    uint16
	Size       uint32
	InfoOffset uint32
	InfoSize   uint32
}

func decodeHeader(data []byte) (header, error) {
	if len(data) < minHeaderLen {
		return header{}, fmt.Errorf("container: truncated header, got %d bytes, want >= %d", len(data), minHeaderLen)
	}
	if string(data[0:4]) != containerSignature {
		return header{}, fmt.Errorf("container: bad signature %q, want %q", data[0:4], containerSignature)
	}
	h := header{
		Version:    binary.LittleEndian.Uint16(data[4:6]),
		Size:       binary.LittleEndian.Uint32(data[6:10]),
		InfoOffset: binary.LittleEndian.Uint32(data[10:14]),
		InfoSize:   binary.LittleEndian.Uint32(data[14:18]),
	}
	if h.Version > Version {
		return header{}, fmt.Errorf("container: unsupported version %d", h.Version)
	}
	if h.Size < minHeaderLen {
		return header{}, fmt.Errorf("container: header size %d smaller than fixed header", h.Size)
	}
	return h, nil
}

func encodeHeader(h header) []byte {
	buf := make([]byte, minHeaderLen)
	copy(buf[0:4], containerSignature)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint32(buf[6:10], h.Size)
	binary.LittleEndian.PutUint32(buf[10:14], h.InfoOffset)
	binary.LittleEndian.PutUint32(buf[14:18], h.InfoSize)
	return buf
}

// entityHeader is the fixed 10-byte ENTY header.
type entityHeader struct {
	Version uint16
	Size    uint32
}

func decodeEntityHeader(data []byte) (entityHeader, error) {
	if len(data) < minEntityLen {
		return entityHeader{}, fmt.Errorf("container: truncated entity header, got %d bytes", len(data))
	}
	if string(data[0:4]) != entitySignature {
		return entityHeader{}, fmt.Errorf("container: bad entity signature %q", data[0:4])
	}
	eh := entityHeader{
		Version: binary.LittleEndian.Uint16(data[4:6]),
		Size:    binary.LittleEndian.Uint32(data[6:10]),
	}
	if eh.Version > entityVersion {
		return entityHeader{}, fmt.Errorf("container: unsupported entity version %d", eh.Version)
	}
	if eh.Size < minEntityLen {
		return entityHeader{}, fmt.Errorf("container: entity header size %d smaller than fixed header", eh.Size)
	}
	return eh, nil
}

// indexEntry is one 24-byte entity directory record: (fid, ftype,
// offset, length), offset/length relative to the start of the entity
// payload area.
type indexEntry struct {
	FID, FType   uint32
	Offset, Size uint64
}

func decodeIndexEntry(data []byte) indexEntry {
	return indexEntry{
		FID:    binary.LittleEndian.Uint32(data[0:4]),
		FType:  binary.LittleEndian.Uint32(data[4:8]),
		Offset: binary.LittleEndian.Uint64(data[8:16]),
		Size:   binary.LittleEndian.Uint64(data[16:24]),
	}
}

func encodeIndexEntry(e indexEntry) []byte {
	buf := make([]byte, indexEntrySize)
	binary.LittleEndian.PutUint32(buf[0:4], e.FID)
	binary.LittleEndian.PutUint32(buf[4:8], e.FType)
	binary.LittleEndian.PutUint64(buf[8:16], e.Offset)
	binary.LittleEndian.PutUint64(buf[16:24], e.Size)
	return buf
}
