// internal/protocol/encode.go
package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode builds one frame:
//
//	[DIR][CMD][REG][LEN][PAYLOAD...][SUM]
//
// The result is always len(payload)+Overhead bytes long.
// A payload longer than MaxPayload is a programming error and panics.
func Encode(direction, command, register byte, payload []byte) []byte {
	if len(payload) > MaxPayload {
		panic(fmt.Sprintf("protocol: payload length %d exceeds %d", len(payload), MaxPayload))
	}

	n := byte(len(payload))
	frame := make([]byte, 0, len(payload)+Overhead)

	frame = append(frame, direction, command, register, n)
	frame = append(frame, payload...)
	frame = append(frame, Checksum(register, n, payload))

	return frame
}

// EncodeFloat builds a SET frame carrying one little-endian float32.
// Used for the set-voltage and set-current registers.
func EncodeFloat(register byte, v float32) []byte {
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], math.Float32bits(v))
	return Encode(HeaderOutput, CmdSet, register, payload[:])
}

// EncodeByte builds a SET frame carrying a single byte.
func EncodeByte(register byte, v byte) []byte {
	return Encode(HeaderOutput, CmdSet, register, []byte{v})
}

// EncodeBool is EncodeByte with 1 for true and 0 for false.
func EncodeBool(register byte, on bool) []byte {
	var v byte
	if on {
		v = 1
	}
	return EncodeByte(register, v)
}

// EncodeQuery builds a GET frame with an empty payload.
func EncodeQuery(register byte) []byte {
	return Encode(HeaderOutput, CmdGet, register, nil)
}

// EncodeConnect builds the first bring-up handshake.
func EncodeConnect() []byte {
	return Encode(HeaderOutput, CmdSession, 0, []byte{1})
}

// EncodeBaudRate builds the second bring-up handshake announcing the line speed.
func EncodeBaudRate(index byte) []byte {
	return Encode(HeaderOutput, CmdBaudRate, 0, []byte{index})
}

// EncodeDisconnect builds the optional tear-down notice.
func EncodeDisconnect() []byte {
	return Encode(HeaderOutput, CmdSession, 0, nil)
}
