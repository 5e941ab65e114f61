// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"math"

	"github.com/svenk123/dps150tool/internal/poller"
	"github.com/svenk123/dps150tool/internal/session"
)

// endpointClient is the exact contract the writers use.
type endpointClient interface {
	WriteCoils(unitID uint8, addr uint16, bits []bool) error
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type modbusWriter struct {
	plan Plan
	cli  endpointClient
}

func New(plan Plan, cli endpointClient) Writer {
	return &modbusWriter{
		plan: plan,
		cli:  cli,
	}
}

// Write mirrors one poll result.
// A cycle where every field failed writes nothing; the last good values stay
// in place and the status block carries the error.
func (w *modbusWriter) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}
	if w.cli == nil {
		return fmt.Errorf("writer: missing client for endpoint %s", w.plan.Endpoint)
	}

	regs, valid := encodeTelemetry(res.Telemetry)

	var errs []error

	if err := w.cli.WriteRegisters(w.plan.UnitID, w.plan.BaseAddress, regs); err != nil {
		errs = append(errs, fmt.Errorf(
			"writer: ep=%s unit=%d fc=%d addr=%d: %w",
			w.plan.Endpoint, w.plan.UnitID, areaHoldingRegs, w.plan.BaseAddress, err,
		))
	}

	if err := w.cli.WriteCoils(w.plan.UnitID, w.plan.BaseAddress, valid); err != nil {
		errs = append(errs, fmt.Errorf(
			"writer: ep=%s unit=%d fc=%d addr=%d: %w",
			w.plan.Endpoint, w.plan.UnitID, areaCoils, w.plan.BaseAddress, err,
		))
	}

	return errors.Join(errs...)
}

// encodeTelemetry lays out the three fields. A failed field is written as
// NaN with its valid flag cleared.
func encodeTelemetry(t session.Telemetry) ([]uint16, []bool) {
	regs := make([]uint16, TelemetryRegs)
	valid := make([]bool, TelemetryCoils)

	for i, m := range []session.Measurement{t.Voltage, t.Current, t.Power} {
		v := float32(math.NaN())
		if m.OK() {
			v = m.Value
			valid[i] = true
		}
		bits := math.Float32bits(v)
		regs[2*i] = uint16(bits >> 16)
		regs[2*i+1] = uint16(bits)
	}

	return regs, valid
}
