// internal/protocol/errors.go
package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAResponse means the buffer is too short or does not carry the
	// device GET header. Callers treat it as "nothing usable received".
	ErrNotAResponse = errors.New("not a response frame")

	// ErrTruncated means the declared payload length runs past the buffer,
	// or is shorter than the register's payload shape.
	ErrTruncated = errors.New("truncated frame")

	// ErrChecksumMismatch flags a frame whose trailer does not match.
	// It never blocks value extraction.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// DecodeError carries the register context of a decode failure.
type DecodeError struct {
	Register  byte
	Declared  int // declared payload length
	Available int // payload bytes actually present
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v (declared=%d available=%d)",
		RegisterName(e.Register), e.Err, e.Declared, e.Available)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ChecksumError reports the expected and received trailer bytes.
type ChecksumError struct {
	Register byte
	Expected byte
	Actual   byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: %v: expected 0x%02X, got 0x%02X",
		RegisterName(e.Register), ErrChecksumMismatch, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

func notAResponse(buf []byte) error {
	switch {
	case len(buf) < MinResponseSize:
		return fmt.Errorf("%w: got %d bytes, minimum is %d", ErrNotAResponse, len(buf), MinResponseSize)
	case buf[offDirection] != HeaderInput:
		return fmt.Errorf("%w: header 0x%02X, expected 0x%02X", ErrNotAResponse, buf[offDirection], HeaderInput)
	default:
		return fmt.Errorf("%w: command 0x%02X, expected 0x%02X", ErrNotAResponse, buf[offCommand], CmdGet)
	}
}
