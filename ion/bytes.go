package ion

import (
	"encoding/binary"
	"math"
)

func beUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func beUint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

func math32FromBits(bits uint32) float32 { return math.Float32frombits(bits) }
func math64FromBits(bits uint64) float64 { return math.Float64frombits(bits) }
