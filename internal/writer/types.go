// internal/writer/types.go
package writer

import "github.com/svenk123/dps150tool/internal/poller"

// Register geometry of the telemetry block, relative to BaseAddress.
// Each value is an IEEE-754 float32 over two holding registers, high word first.
const (
	RegVoltage      = 0
	RegCurrent      = 2
	RegPower        = 4
	TelemetryRegs   = 6
	TelemetryCoils  = 3 // one valid flag per field, same order
	areaHoldingRegs = 3
	areaCoils       = 1
)

// StatusPlan places the device status block.
type StatusPlan struct {
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string // empty: use the model name reported by the device
}

// Plan is the fully-built write plan for one device.
type Plan struct {
	Name        string
	Endpoint    string
	UnitID      uint8
	BaseAddress uint16
	Status      *StatusPlan
}

// Writer writes poll snapshots into the mirror.
type Writer interface {
	Write(res poller.PollResult) error
}
