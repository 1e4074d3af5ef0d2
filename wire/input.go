// Package wire implements the fixed-layout binary records exchanged
// between peers and between a client and the relay. Nothing in this
// package allocates beyond the returned arrays, and nothing here ever
// writes uninitialised memory to the wire.
package wire

import (
	"encoding/binary"
	"math"
)

// InputFrameSize is the wire size of an InputFrame: a uint32 frame
// number followed by a float32 analog input, both little-endian, with
// no padding between them.
const InputFrameSize = 8

// InputFrame is the per-tick input record produced by a client,
// transmitted once, and retained in rollback history.
type InputFrame struct {
	Frame uint32
	Input float32
}

// Encode serialises f to its 8-byte wire form: bytes 0..3 are Frame
// little-endian, bytes 4..7 are Input as IEEE-754 binary32
// little-endian.
func (f InputFrame) Encode() [InputFrameSize]byte {
	var buf [InputFrameSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], f.Frame)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(f.Input))
	return buf
}

// DecodeInputFrame parses an 8-byte wire record back into an
// InputFrame. It is the exact inverse of Encode.
func DecodeInputFrame(buf [InputFrameSize]byte) InputFrame {
	return InputFrame{
		Frame: binary.LittleEndian.Uint32(buf[0:4]),
		Input: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
	}
}
