// Package ionconform checks that bytes produced by kfxcore's own ion and
// container codecs decode cleanly under the real amazon-ion/ion-go reader,
// so a container written here is provably valid standard-subset Ion and
// not merely self-consistent with our own decoder.
package ionconform

import (
	"bytes"
	"fmt"

	goion "github.com/amazon-ion/ion-go/ion"

	"kfxcore/symbols"
)

var bvm = []byte{0xE0, 0x01, 0x00, 0xEA}

// sharedSymbolTable rebuilds tbl's shared and local tiers as a real
// ion-go SharedSymbolTable, so the reference reader resolves every symbol
// ID our codec would.
func sharedSymbolTable(tbl *symbols.Table) goion.SharedSymbolTable {
	names := make([]string, 0, tbl.SharedCount()+len(tbl.Locals()))
	for id := 10; id < 10+tbl.SharedCount(); id++ {
		name, ok := tbl.NameFor(symbols.Sym(id))
		if !ok {
			name = fmt.Sprintf("$%d", id)
		}
		names = append(names, name)
	}
	names = append(names, tbl.Locals()...)
	return goion.NewSharedSymbolTable(symbols.SharedTableName, symbols.SharedTableVersion, names)
}

// prolog is a binary Ion stream holding only a local symbol table that
// imports sst. An entity payload never declares this import itself — it
// relies on the container-level document symbol table we're replaying
// here — so we have to supply it before handing the payload to a reader
// that has no other way to know the import context.
func prolog(sst goion.SharedSymbolTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := goion.NewBinaryWriter(&buf, sst).Finish(); err != nil {
		return nil, fmt.Errorf("ionconform: build prolog: %w", err)
	}
	return buf.Bytes(), nil
}

// ValidateEntity decodes payload — a bare, BVM-prefixed Ion value as
// produced for one ENTY record — with the real amazon-ion/ion-go reader,
// against tbl's symbol tiers. It returns the first error the reference
// reader raises walking the whole value tree, or nil if payload is valid
// standard-subset Ion with every symbol ID resolved.
func ValidateEntity(payload []byte, tbl *symbols.Table) error {
	sst := sharedSymbolTable(tbl)
	pro, err := prolog(sst)
	if err != nil {
		return err
	}

	body := payload
	if bytes.HasPrefix(body, bvm) {
		body = body[len(bvm):]
	}

	combined := make([]byte, 0, len(pro)+len(body))
	combined = append(combined, pro...)
	combined = append(combined, body...)

	r := goion.NewReaderCat(bytes.NewReader(combined), goion.NewCatalog(sst))
	return walk(r)
}

// walk steps through every value the reader sees, recursing into
// containers and materializing scalars, so any symbol-resolution or
// encoding error the reference reader would raise surfaces here.
func walk(r goion.Reader) error {
	for r.Next() {
		if err := r.Err(); err != nil {
			return fmt.Errorf("ionconform: read: %w", err)
		}
		switch r.Type() {
		case goion.ListType, goion.SexpType, goion.StructType:
			if err := r.StepIn(); err != nil {
				return fmt.Errorf("ionconform: step in: %w", err)
			}
			if err := walk(r); err != nil {
				return err
			}
			if err := r.StepOut(); err != nil {
				return fmt.Errorf("ionconform: step out: %w", err)
			}
		default:
			if err := readScalar(r); err != nil {
				return err
			}
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("ionconform: read: %w", err)
	}
	return nil
}

func readScalar(r goion.Reader) error {
	var err error
	switch r.Type() {
	case goion.NullType:
		// nothing to materialize
	case goion.BoolType:
		_, err = r.BoolValue()
	case goion.IntType:
		_, err = r.BigIntValue()
	case goion.FloatType:
		_, err = r.FloatValue()
	case goion.DecimalType:
		_, err = r.DecimalValue()
	case goion.TimestampType:
		_, err = r.TimeValue()
	case goion.SymbolType, goion.StringType:
		_, err = r.StringValue()
	case goion.BlobType, goion.ClobType:
		_, err = r.ByteValue()
	}
	if err != nil {
		return fmt.Errorf("ionconform: read %s value: %w", r.Type(), err)
	}
	return nil
}
