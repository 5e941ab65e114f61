// internal/session/telemetry.go
package session

import (
	"errors"
	"math"
	"time"

	"github.com/svenk123/dps150tool/internal/protocol"
)

// Measurement is one telemetry field from one read.
type Measurement struct {
	Value      float32
	ChecksumOK bool
	Err        error
}

func (m Measurement) OK() bool { return m.Err == nil }

func (m Measurement) float64() float64 {
	if m.Err != nil {
		return math.NaN()
	}
	return float64(m.Value)
}

// Telemetry is the result of one Snapshot. Each field is independent.
type Telemetry struct {
	At      time.Time
	Voltage Measurement
	Current Measurement
	Power   Measurement
}

// Err is nil if at least one field was read, otherwise all field errors joined.
func (t Telemetry) Err() error {
	if t.Voltage.OK() || t.Current.OK() || t.Power.OK() {
		return nil
	}
	return errors.Join(t.Voltage.Err, t.Current.Err, t.Power.Err)
}

func (t *Telemetry) field(f protocol.Field) *Measurement {
	switch f {
	case protocol.FieldCurrent:
		return &t.Current
	case protocol.FieldPower:
		return &t.Power
	default:
		return &t.Voltage
	}
}
