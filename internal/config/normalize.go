// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultPort          = "/dev/ttyUSB0"
	DefaultBaud          = 115200
	DefaultSettleMs      = 50
	DefaultReadTimeoutMs = 500
	DefaultIntervalMs    = 1000
	DefaultMirrorTimeout = 1000

	// DeviceNameMaxChars matches the status block name field.
	DeviceNameMaxChars = 16
)

// Normalize fills defaults and truncates the status device name.
// It is allowed to mutate configuration.
// It MUST be called before Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	d := &cfg.Device
	if d.Port == "" {
		d.Port = DefaultPort
	}
	if d.Baud == 0 {
		d.Baud = DefaultBaud
	}
	if d.SettleMs == 0 {
		d.SettleMs = DefaultSettleMs
	}
	if d.ReadTimeoutMs == 0 {
		d.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if d.DisconnectOnClose == nil {
		on := true
		d.DisconnectOnClose = &on
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	m := &cfg.Mirror
	if m.Endpoint == "" {
		return
	}
	if m.TimeoutMs == 0 {
		m.TimeoutMs = DefaultMirrorTimeout
	}
	if m.UnitID == 0 {
		m.UnitID = 1
	}
	if len(m.DeviceName) > DeviceNameMaxChars {
		m.DeviceName = m.DeviceName[:DeviceNameMaxChars]
	}
}
