// Package protocol implements the DPS-150 serial frame codec.
//
// Every frame has the same shape in both directions:
//
//	[DIR][CMD][REG][LEN][PAYLOAD...][SUM]
//
// Where:
//   - DIR = 0xF0 device->host, 0xF1 host->device
//   - CMD = 0xA1 GET, 0xB1 SET, 0xB0 baud-rate handshake, 0xC1 session handshake
//   - LEN = payload byte count (0..255)
//   - SUM = (REG + LEN + sum(PAYLOAD)) mod 256
//
// Use the Encode* functions to build host frames and Decode to turn a device
// response into a Value. VerifyChecksum is deliberately a separate step:
// Decode extracts values even from frames that fail it, and Inspect returns
// both results together.
//
// The package holds no state and is safe for concurrent use on independent
// buffers.
package protocol
