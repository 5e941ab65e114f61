// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/svenk123/dps150tool/internal/protocol"
	"github.com/svenk123/dps150tool/internal/status"
)

// mirrorRegisters is the size of the telemetry block in the mirror:
// three float32 values, two registers each.
const mirrorRegisters = 6

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := cfg.Device
	if d.Port == "" {
		return fmt.Errorf("device.port is required")
	}
	if _, ok := protocol.BaudIndex(d.Baud); !ok {
		return fmt.Errorf("device.baud %d is not supported by the device", d.Baud)
	}
	if d.SettleMs < 0 {
		return fmt.Errorf("device.settle_ms must be >= 0, got %d", d.SettleMs)
	}
	if d.ReadTimeoutMs < 0 {
		return fmt.Errorf("device.read_timeout_ms must be >= 0, got %d", d.ReadTimeoutMs)
	}

	if cfg.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll.interval_ms must be > 0, got %d", cfg.Poll.IntervalMs)
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug|info|warn|error", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console|json", cfg.Logging.Format)
	}

	// ------------------------------------------------------------
	// MIRROR GEOMETRY (OPT-IN)
	// ------------------------------------------------------------

	m := cfg.Mirror
	if m.Endpoint == "" {
		if m.StatusSlot != nil {
			return fmt.Errorf("mirror.status_slot is set but mirror.endpoint is empty")
		}
		return nil
	}

	for i := 0; i < len(m.DeviceName); i++ {
		if m.DeviceName[i] > 0x7F {
			return fmt.Errorf("mirror.device_name must contain ASCII characters only")
		}
	}

	if m.TimeoutMs <= 0 {
		return fmt.Errorf("mirror.timeout_ms must be > 0, got %d", m.TimeoutMs)
	}

	dataStart := uint32(m.BaseAddress)
	dataEnd := dataStart + mirrorRegisters - 1
	if dataEnd > 0xFFFF {
		return fmt.Errorf("mirror.base_address %d leaves no room for %d registers", m.BaseAddress, mirrorRegisters)
	}

	if m.StatusSlot == nil {
		return nil
	}

	statusStart := uint32(*m.StatusSlot) * status.SlotsPerDevice
	statusEnd := statusStart + status.SlotsPerDevice - 1
	if statusEnd > 0xFFFF {
		return fmt.Errorf("mirror.status_slot %d is out of range", *m.StatusSlot)
	}

	// overlap check (inclusive)
	if !(dataEnd < statusStart || dataStart > statusEnd) {
		return fmt.Errorf(
			"mirror overlap: telemetry range=%d-%d overlaps status slot %d range=%d-%d",
			dataStart, dataEnd, *m.StatusSlot, statusStart, statusEnd,
		)
	}

	return nil
}
