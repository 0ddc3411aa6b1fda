package ion

import "fmt"

// ErrorKind identifies the class of failure the codec can report. Every
// ErrorKind carries a byte offset into the stream being decoded (or, for
// symbol lookups performed downstream, a logical locator supplied by the
// caller).
type ErrorKind int

const (
	UnexpectedEOF ErrorKind = iota
	InvalidTypeCode
	InvalidLength
	InvalidVarInt
	InvalidUTF8
	UnknownSymbol
	SortedStructRejected
	Ion10Expected
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedEOF:
		return "UnexpectedEof"
	case InvalidTypeCode:
		return "InvalidTypeCode"
	case InvalidLength:
		return "InvalidLength"
	case InvalidVarInt:
		return "InvalidVarInt"
	case InvalidUTF8:
		return "InvalidUtf8"
	case UnknownSymbol:
		return "UnknownSymbol"
	case SortedStructRejected:
		return "SortedStructRejected"
	case Ion10Expected:
		return "Ion10Expected"
	default:
		return "Unknown"
	}
}

// Error is returned by every decode/encode failure in this package. Offset
// is the byte position within the stream being decoded where the problem
// was detected; Symbol is set only for UnknownSymbol.
type Error struct {
	Kind   ErrorKind
	Offset int
	Symbol uint32
	Msg    string
}

func (e *Error) Error() string {
	if e.Kind == UnknownSymbol {
		return fmt.Sprintf("ion: %s $%d at offset %d: %s", e.Kind, e.Symbol, e.Offset, e.Msg)
	}
	return fmt.Sprintf("ion: %s at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

func newErr(kind ErrorKind, offset int, msg string) error {
	return &Error{Kind: kind, Offset: offset, Msg: msg}
}

// NewUnknownSymbolError builds an UnknownSymbol error for an ID that has no
// entry in any tier of a symbol table.
func NewUnknownSymbolError(offset int, id uint32) error {
	return &Error{Kind: UnknownSymbol, Offset: offset, Symbol: id, Msg: "symbol id not present in table"}
}
