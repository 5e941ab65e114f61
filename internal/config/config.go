// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Poll    PollConfig    `yaml:"poll"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Mirror  MirrorConfig  `yaml:"mirror"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	SettleMs      int    `yaml:"settle_ms"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`

	// Send the disconnect notice before the port is released.
	DisconnectOnClose *bool `yaml:"disconnect_on_close"`

	// Ask the device to stream telemetry after bring-up.
	Metering bool `yaml:"metering"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level  string     `yaml:"level"`  // debug|info|warn|error
	Format string     `yaml:"format"` // console|json
	File   FileConfig `yaml:"file"`
}

// FileConfig is the optional rotating log file.
type FileConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables
}

// ---- MIRROR (Modbus TCP) ----

type MirrorConfig struct {
	Endpoint    string `yaml:"endpoint"` // empty disables
	UnitID      uint8  `yaml:"unit_id"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	BaseAddress uint16 `yaml:"base_address"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// Load reads a YAML file. Unknown keys are rejected.
// The result is NOT validated or normalized.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
