// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
device:
  port: /dev/ttyACM0
  baud: 115200
  settle_ms: 80
  disconnect_on_close: false
  metering: true
poll:
  interval_ms: 250
logging:
  level: debug
  format: json
  file:
    filename: /tmp/dps150.log
    max_size_mb: 5
metrics:
  listen: ":9150"
mirror:
  endpoint: 10.0.0.5:502
  unit_id: 3
  base_address: 100
  status_slot: 0
  device_name: BENCH-PSU-NUMBER-ONE
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dps150.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Device.Port)
	assert.Equal(t, 80, cfg.Device.SettleMs)
	require.NotNil(t, cfg.Device.DisconnectOnClose)
	assert.False(t, *cfg.Device.DisconnectOnClose)
	assert.True(t, cfg.Device.Metering)
	assert.Equal(t, 250, cfg.Poll.IntervalMs)
	assert.Equal(t, "/tmp/dps150.log", cfg.Logging.File.Filename)
	assert.Equal(t, ":9150", cfg.Metrics.Listen)
	assert.Equal(t, uint8(3), cfg.Mirror.UnitID)
	require.NotNil(t, cfg.Mirror.StatusSlot)
	assert.Equal(t, uint16(0), *cfg.Mirror.StatusSlot)

	Normalize(cfg)
	assert.Equal(t, "BENCH-PSU-NUMBER", cfg.Mirror.DeviceName)
	assert.Equal(t, DefaultReadTimeoutMs, cfg.Device.ReadTimeoutMs)
	assert.Equal(t, DefaultMirrorTimeout, cfg.Mirror.TimeoutMs)
	require.NoError(t, Validate(cfg))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("device:\n  prot: /dev/ttyUSB0\n"))
	require.Error(t, err)
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{}
	Normalize(cfg)

	assert.Equal(t, DefaultPort, cfg.Device.Port)
	assert.Equal(t, DefaultBaud, cfg.Device.Baud)
	assert.Equal(t, DefaultSettleMs, cfg.Device.SettleMs)
	require.NotNil(t, cfg.Device.DisconnectOnClose)
	assert.True(t, *cfg.Device.DisconnectOnClose)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	// mirror stays disabled and untouched
	assert.Zero(t, cfg.Mirror.TimeoutMs)

	assert.NotPanics(t, func() { Normalize(nil) })
}
