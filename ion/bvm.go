package ion

import "bytes"

// BVM is the four-byte Ion 1.0 binary version marker every Ion stream
// begins with.
var BVM = []byte{0xE0, 0x01, 0x00, 0xEA}

// HasBVM reports whether data begins with the Ion 1.0 BVM.
func HasBVM(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], BVM)
}

// StripBVM removes a leading BVM from data, if present.
func StripBVM(data []byte) []byte {
	if HasBVM(data) {
		return data[4:]
	}
	return data
}

// PrependBVM adds a leading BVM to data, unless one is already present.
func PrependBVM(data []byte) []byte {
	if HasBVM(data) {
		return data
	}
	out := make([]byte, 0, 4+len(data))
	out = append(out, BVM...)
	out = append(out, data...)
	return out
}

// RequireBVM returns Ion10Expected if data does not begin with the BVM.
func RequireBVM(data []byte) error {
	if !HasBVM(data) {
		return newErr(Ion10Expected, 0, "stream does not begin with the Ion 1.0 BVM")
	}
	return nil
}
