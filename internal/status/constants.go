// internal/status/constants.go
package status

// Status block layout constants for the Modbus mirror.
// These values define the published layout and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of holding registers per status block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the link health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code, see ErrorCode.
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (in seconds) the link has been failing.
const SlotSecondsInError = 2

// SlotChecksumFailures counts responses that failed checksum verification.
// Saturates at 65535.
const SlotChecksumFailures = 3

// ---- RESERVED RANGE ----

// Slots 4–10 are reserved for future use.
const SlotReservedStart = 4
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// The name always sits at the END of the block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

const (
	HealthUnknown uint16 = 0 // boot state, nothing polled yet
	HealthOK      uint16 = 1
	HealthError   uint16 = 2
	HealthStale   uint16 = 3 // some fields failed, some succeeded
)

// ---- ERROR CODES ----

const (
	CodeNone               uint16 = 0
	CodeGeneric            uint16 = 1
	CodeTransport          uint16 = 2
	CodeNotAResponse       uint16 = 3
	CodeTruncated          uint16 = 4
	CodeUnexpectedRegister uint16 = 5
	CodeCancelled          uint16 = 6
)
