// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/svenk123/dps150tool/internal/config"
	wmodbus "github.com/svenk123/dps150tool/internal/writer/modbus"
)

// BuildPlan converts the mirror config into a Writer Plan.
// ok is false when the mirror is disabled.
// Assumes config has already passed validation.
func BuildPlan(c *cfg.Config) (plan Plan, ok bool) {
	m := c.Mirror
	if m.Endpoint == "" {
		return Plan{}, false
	}

	plan = Plan{
		Name:        c.Device.Port,
		Endpoint:    m.Endpoint,
		UnitID:      m.UnitID,
		BaseAddress: m.BaseAddress,
	}

	if m.StatusSlot != nil {
		plan.Status = &StatusPlan{
			UnitID:     m.UnitID,
			BaseSlot:   *m.StatusSlot,
			DeviceName: m.DeviceName,
		}
	}

	return plan, true
}

// BuildEndpointClient connects to the mirror endpoint.
func BuildEndpointClient(m cfg.MirrorConfig) (*wmodbus.EndpointClient, error) {
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: m.Endpoint,
		Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
	})
}
