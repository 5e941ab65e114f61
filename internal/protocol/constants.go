// internal/protocol/constants.go
package protocol

// Frame layout:
//
//	[DIR][CMD][REG][LEN][PAYLOAD...][SUM]
//
// SUM = (REG + LEN + sum(PAYLOAD)) mod 256.
// These values are fixed by the device firmware and MUST NOT be configurable.

// ---- DIRECTION HEADERS ----

// HeaderInput marks a frame sent by the device to the host.
const HeaderInput byte = 0xF0

// HeaderOutput marks a frame sent by the host to the device.
const HeaderOutput byte = 0xF1

// ---- COMMAND CODES ----

const (
	CmdGet byte = 0xA1
	CmdSet byte = 0xB1

	// CmdBaudRate selects the link speed during bring-up.
	CmdBaudRate byte = 0xB0

	// CmdSession opens (payload {1}) or closes (empty payload) a session.
	CmdSession byte = 0xC1
)

// ---- GEOMETRY ----

const (
	// HeaderSize is DIR + CMD + REG + LEN.
	HeaderSize = 4

	// Overhead is HeaderSize plus the trailing checksum byte.
	Overhead = HeaderSize + 1

	// MinResponseSize is the smallest buffer the decoder will look at.
	MinResponseSize = 7

	// MaxPayload is capped by the single LEN byte.
	MaxPayload = 255

	// MaxFrameSize is the largest well-formed frame.
	MaxFrameSize = MaxPayload + Overhead

	offDirection = 0
	offCommand   = 1
	offRegister  = 2
	offLength    = 3
	offPayload   = 4
)

// ---- HANDSHAKE ----

// BaudIndex115200 is the baud-rate index the host announces at bring-up.
const BaudIndex115200 byte = 4

// baudTable maps supported line speeds to the device's baud-rate index.
var baudTable = map[int]byte{
	9600:   0,
	19200:  1,
	38400:  2,
	57600:  3,
	115200: BaudIndex115200,
}

// BaudIndex returns the device index for a line speed.
func BaudIndex(baud int) (byte, bool) {
	idx, ok := baudTable[baud]
	return idx, ok
}
