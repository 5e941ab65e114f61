// internal/status/codes.go
package status

import (
	"context"
	"errors"

	"github.com/svenk123/dps150tool/internal/protocol"
	"github.com/svenk123/dps150tool/internal/session"
	"github.com/svenk123/dps150tool/internal/transport"
)

// ErrorCode maps a poll error to the code published in SlotLastErrorCode.
// nil is CodeNone; anything unrecognised is CodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return CodeNone
	}

	var te *transport.TransportError
	switch {
	case errors.As(err, &te):
		return CodeTransport
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, session.ErrUnexpectedRegister):
		return CodeUnexpectedRegister
	case errors.Is(err, protocol.ErrTruncated):
		return CodeTruncated
	case errors.Is(err, protocol.ErrNotAResponse):
		return CodeNotAResponse
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return CodeGeneric
}
