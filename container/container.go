package container

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"go.uber.org/multierr"

	"kfxcore/diagnostics"
	"kfxcore/fragment"
	"kfxcore/ion"
	"kfxcore/ionconform"
	"kfxcore/symbols"
)

// Container is a parsed or in-progress-to-be-written KFX container.
type Container struct {
	Version         uint16
	ContainerID     string
	CompressionType int
	DRMScheme       int
	ChunkSize       int
	GeneratorApp    string
	GeneratorPkg    string

	// FormatCapabilities is the optional $593 value (v2 containers only),
	// placed between the document symbol table and container_info rather
	// than carried as an ordinary fragment entity.
	FormatCapabilities *ion.Value

	Fragments *fragment.List
	Table     *symbols.Table
}

// DefaultChunkSize is the chunk size producers write when none is set.
const DefaultChunkSize = 4096

// New returns an empty container with no symbol table. It is ready for
// Write once Table has been set (Write fails while Table is nil) and
// fragments have been added.
func New() *Container {
	return &Container{
		Version:   Version,
		ChunkSize: DefaultChunkSize,
		Fragments: fragment.NewList(),
	}
}

// Classification returns the container's KFX-main/metadata/attachable
// role, derived from the fragment types it holds.
func (c *Container) Classification() fragment.Classification {
	return c.Fragments.Classify()
}

// Read parses a complete KFX container from data. sink, if given, receives
// non-fatal findings (a max_id that matches neither accepted convention,
// and similar); callers that don't care can omit it.
func Read(data []byte, sink ...diagnostics.Sink) (*Container, error) {
	diag := diagnostics.Noop
	if len(sink) > 0 && sink[0] != nil {
		diag = sink[0]
	}

	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if h.InfoSize == 0 {
		return nil, fmt.Errorf("container: no container_info present")
	}
	if uint64(h.InfoOffset)+uint64(h.InfoSize) > uint64(len(data)) {
		return nil, fmt.Errorf("container: container_info out of bounds")
	}

	in, err := decodeInfo(data[h.InfoOffset : h.InfoOffset+h.InfoSize])
	if err != nil {
		return nil, err
	}
	// A document symbol table is optional: a container with no shared
	// import and no local symbols (an all-default container_info) omits
	// the block entirely rather than writing an empty one.
	tbl := symbols.NewTable(0)
	if in.DocSymLen > 0 {
		if uint64(in.DocSymOff)+uint64(in.DocSymLen) > uint64(len(data)) {
			return nil, fmt.Errorf("container: document symbol table out of bounds")
		}

		var rawMaxID int
		tbl, rawMaxID, err = decodeDocSymbolTable(data[in.DocSymOff : in.DocSymOff+in.DocSymLen])
		if err != nil {
			return nil, err
		}
		if !symbols.MaxIDMatchesCatalog(rawMaxID) {
			diag.Warn("document symbol table max_id matches neither accepted convention",
				diagnostics.Int("max_id", rawMaxID))
		}
	}

	c := New()
	c.Version = h.Version
	c.ContainerID = in.ContainerID
	c.CompressionType = int(in.ComprType)
	c.DRMScheme = int(in.DRMScheme)
	c.ChunkSize = int(in.ChunkSize)
	c.Table = tbl

	if in.FCapabLen > 0 {
		if uint64(in.FCapabOff)+uint64(in.FCapabLen) > uint64(len(data)) {
			return nil, fmt.Errorf("container: format capabilities out of bounds")
		}
		fc, err := decodeFormatCapabilities(data[in.FCapabOff : in.FCapabOff+in.FCapabLen])
		if err != nil {
			return nil, err
		}
		c.FormatCapabilities = &fc
	}

	if in.IndexTabLen > 0 {
		if uint64(in.IndexTabOff)+uint64(in.IndexTabLen) > uint64(len(data)) {
			return nil, fmt.Errorf("container: entity directory out of bounds")
		}
		dir := data[in.IndexTabOff : in.IndexTabOff+in.IndexTabLen]
		for pos := 0; pos+indexEntrySize <= len(dir); pos += indexEntrySize {
			entry := decodeIndexEntry(dir[pos : pos+indexEntrySize])
			entityStart := uint64(h.Size) + entry.Offset
			entityEnd := entityStart + entry.Size
			if entityEnd > uint64(len(data)) {
				return nil, fmt.Errorf("container: entity type=$%d id=$%d out of bounds", entry.FType, entry.FID)
			}
			f, err := parseEntity(data[entityStart:entityEnd], entry.FType, entry.FID, diag)
			if err != nil {
				return nil, fmt.Errorf("container: parse entity type=$%d id=$%d: %w", entry.FType, entry.FID, err)
			}
			if !f.IsRaw() {
				fragment.CheckListStyleConflicts(f, diag)
			}
			c.Fragments.Add(f)
		}
	}

	metaStart := h.InfoOffset + h.InfoSize
	if metaStart < h.Size {
		app, pkg, acr := parseGeneratorMetadata(data[metaStart:h.Size])
		c.GeneratorApp = app
		c.GeneratorPkg = pkg
		if c.ContainerID == "" {
			c.ContainerID = acr
		}
	}

	return c, nil
}

// Verify cross-checks every non-raw fragment's serialized Ion form
// against the real amazon-ion/ion-go reader via ionconform, collecting
// every failure instead of stopping at the first, so a caller sees the
// full extent of a broken container in one pass.
func (c *Container) Verify() error {
	if c.Table == nil {
		return fmt.Errorf("container: Verify requires a symbol table")
	}
	var errs error
	for _, f := range c.Fragments.SortedByType() {
		if f.IsRaw() {
			continue
		}
		payload, err := serializeEntityPayload(f)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("serialize %v: %w", f, err))
			continue
		}
		if err := ionconform.ValidateEntity(payload, c.Table); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%v: %w", f, err))
		}
	}
	return errs
}

// Write serializes c to a complete KFX container image.
func (c *Container) Write() ([]byte, error) {
	if c.Table == nil {
		return nil, fmt.Errorf("container: Write requires a symbol table (see fragment.BuildLocalTable)")
	}

	var entityDir []byte
	var entityPayloads []byte
	for _, f := range c.Fragments.SortedByType() {
		entityData, err := serializeEntity(f)
		if err != nil {
			return nil, fmt.Errorf("container: serialize entity %v: %w", f, err)
		}

		fid := uint32(f.FID)
		if f.IsRoot() {
			fid = nullPlaceholder
		}
		entityDir = append(entityDir, encodeIndexEntry(indexEntry{
			FID:    fid,
			FType:  uint32(f.FType),
			Offset: uint64(len(entityPayloads)),
			Size:   uint64(len(entityData)),
		})...)
		entityPayloads = append(entityPayloads, entityData...)
	}

	docSymBlob := encodeDocSymbolTable(c.Table)

	var fCapabBlob []byte
	if c.FormatCapabilities != nil {
		fCapabBlob = encodeFormatCapabilities(*c.FormatCapabilities)
	}

	payloadSHA1 := sha1.Sum(entityPayloads)
	genMeta := buildGeneratorMetadata(c.GeneratorApp, c.GeneratorPkg, c.ContainerID, hex.EncodeToString(payloadSHA1[:]))

	entityDirOffset := uint32(minHeaderLen)
	docSymOffset := entityDirOffset + uint32(len(entityDir))
	fCapabOffset := docSymOffset + uint32(len(docSymBlob))
	infoOffset := fCapabOffset + uint32(len(fCapabBlob))

	containerInfoBlob := encodeInfo(info{
		ContainerID: c.ContainerID,
		ChunkSize:   int64(c.ChunkSize),
		IndexTabOff: entityDirOffset,
		IndexTabLen: uint32(len(entityDir)),
		DocSymOff:   docSymOffset,
		DocSymLen:   uint32(len(docSymBlob)),
		FCapabOff:   fCapabOffset,
		FCapabLen:   uint32(len(fCapabBlob)),
	})

	headerLen := infoOffset + uint32(len(containerInfoBlob)) + uint32(len(genMeta))

	out := make([]byte, 0, int(headerLen)+len(entityPayloads))
	out = append(out, encodeHeader(header{
		Version:    Version,
		Size:       headerLen,
		InfoOffset: infoOffset,
		InfoSize:   uint32(len(containerInfoBlob)),
	})...)
	out = append(out, entityDir...)
	out = append(out, docSymBlob...)
	out = append(out, fCapabBlob...)
	out = append(out, containerInfoBlob...)
	out = append(out, genMeta...)
	out = append(out, entityPayloads...)
	return out, nil
}
