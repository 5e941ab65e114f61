// internal/protocol/checksum.go
package protocol

import "fmt"

// Checksum computes the frame trailer: (register + length + sum(payload)) mod 256.
// The direction and command bytes are not covered.
// Additive, so payload order never changes the result.
func Checksum(register, length byte, payload []byte) byte {
	sum := register + length
	for _, b := range payload {
		sum += b
	}
	return sum
}

// VerifyChecksum reports whether the trailing byte of buf matches the checksum
// of the register, declared length and payload it carries.
//
// It is a separate step from Decode: value extraction never rejects a frame
// because of a bad checksum.
func VerifyChecksum(buf []byte) bool {
	if len(buf) < Overhead {
		return false
	}
	n := int(buf[offLength])
	end := offPayload + n
	if end >= len(buf) {
		return false
	}
	return Checksum(buf[offRegister], buf[offLength], buf[offPayload:end]) == buf[end]
}

// CheckChecksum is VerifyChecksum with detail: nil when the trailer matches,
// a *ChecksumError otherwise.
func CheckChecksum(buf []byte) error {
	if VerifyChecksum(buf) {
		return nil
	}
	if len(buf) < Overhead {
		return fmt.Errorf("%w: frame too short (%d bytes)", ErrChecksumMismatch, len(buf))
	}
	end := offPayload + int(buf[offLength])
	if end >= len(buf) {
		return fmt.Errorf("%w: no trailer after %d payload bytes", ErrChecksumMismatch, buf[offLength])
	}
	return &ChecksumError{
		Register: buf[offRegister],
		Expected: Checksum(buf[offRegister], buf[offLength], buf[offPayload:end]),
		Actual:   buf[end],
	}
}
