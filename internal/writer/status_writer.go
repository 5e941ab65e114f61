// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/svenk123/dps150tool/internal/status"
)

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
	SetDeviceName(name string)
}

// deviceStatusWriter is the concrete implementation used by watch mode.
type deviceStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
	name     string
}

// NewDeviceStatusWriter builds a status writer if status is enabled.
// If plan.Status is nil, status is disabled.
func NewDeviceStatusWriter(plan Plan, cli endpointClient) (*deviceStatusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	return &deviceStatusWriter{
		plan:     plan.Status,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Snapshot{Health: status.HealthUnknown},
		name:     plan.Status.DeviceName,
	}, true
}

// SetDeviceName updates the name published in the block. A configured name
// always wins over the one reported by the device. A change forces a full
// re-assert on the next write.
func (sw *deviceStatusWriter) SetDeviceName(name string) {
	if sw == nil || sw.plan.DeviceName != "" || name == sw.name {
		return
	}
	sw.name = name
	sw.needFull = true
}

// WriteStatus delivers a device status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return errors.New("status writer: missing client")
	}

	baseAddr := sw.baseAddr()
	unitID := sw.plan.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, baseAddr, status.Encode(s, sw.name)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	slots := []struct {
		name string
		slot uint16
		old  *uint16
		val  uint16
	}{
		{"health", status.SlotHealthCode, &sw.last.Health, s.Health},
		{"last_error", status.SlotLastErrorCode, &sw.last.LastErrorCode, s.LastErrorCode},
		{"seconds_in_error", status.SlotSecondsInError, &sw.last.SecondsInError, s.SecondsInError},
		{"checksum_failures", status.SlotChecksumFailures, &sw.last.ChecksumFailures, s.ChecksumFailures},
	}

	for _, sl := range slots {
		if *sl.old == sl.val {
			continue
		}
		if err := sw.cli.WriteRegisters(unitID, baseAddr+sl.slot, []uint16{sl.val}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", sl.slot, sl.name, err))
			continue
		}
		*sl.old = sl.val
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each device owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}
