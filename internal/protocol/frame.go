// internal/protocol/frame.go
package protocol

import (
	"bytes"
	"fmt"
)

// Frame is the structural view of one frame, any direction or command.
type Frame struct {
	Direction byte
	Command   byte
	Register  byte
	Payload   []byte
	Sum       byte
}

// Valid reports whether Sum matches the register, length and payload.
func (f Frame) Valid() bool {
	return Checksum(f.Register, byte(len(f.Payload)), f.Payload) == f.Sum
}

func (f Frame) String() string {
	return fmt.Sprintf("dir=0x%02X cmd=0x%02X reg=%s len=%d sum=0x%02X",
		f.Direction, f.Command, RegisterName(f.Register), len(f.Payload), f.Sum)
}

// ParseFrame splits buf into its fields without interpreting the payload.
// Unlike Decode it accepts host frames and handshakes; it requires the
// trailing checksum byte to be present. Bytes after the trailer are ignored.
func ParseFrame(buf []byte) (Frame, error) {
	if len(buf) < Overhead {
		return Frame{}, fmt.Errorf("%w: got %d bytes, minimum is %d", ErrTruncated, len(buf), Overhead)
	}

	declared := int(buf[offLength])
	end := offPayload + declared
	if end >= len(buf) {
		return Frame{}, &DecodeError{
			Register:  buf[offRegister],
			Declared:  declared,
			Available: len(buf) - offPayload - 1,
			Err:       ErrTruncated,
		}
	}

	return Frame{
		Direction: buf[offDirection],
		Command:   buf[offCommand],
		Register:  buf[offRegister],
		Payload:   bytes.Clone(buf[offPayload:end]),
		Sum:       buf[end],
	}, nil
}

// Split cuts a read buffer holding back-to-back frames into whole frames,
// using each LEN byte. A trailing partial frame is dropped.
// The returned slices alias buf.
func Split(buf []byte) [][]byte {
	var out [][]byte
	for len(buf) >= Overhead {
		end := Overhead + int(buf[offLength])
		if end > len(buf) {
			break
		}
		out = append(out, buf[:end])
		buf = buf[end:]
	}
	return out
}
