// internal/session/options.go
package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/svenk123/dps150tool/internal/metrics"
	"github.com/svenk123/dps150tool/internal/protocol"
	"github.com/svenk123/dps150tool/internal/transport"
)

// Config holds the session configuration.
type Config struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics // nil records nothing

	// ReadSize is the response buffer size per read.
	ReadSize int

	// BaudIndex is announced in the second bring-up handshake.
	BaudIndex byte

	// Metering enables telemetry streaming during Initialize.
	Metering bool

	// Now stamps snapshots.
	Now func() time.Time
}

func defaultConfig() Config {
	return Config{
		Logger:    zap.NewNop(),
		ReadSize:  transport.DefaultReadSize,
		BaudIndex: protocol.BaudIndex115200,
		Now:       time.Now,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithReadSize sets the response buffer size. Values outside 1..MaxFrameSize*4
// are ignored.
func WithReadSize(n int) Option {
	return func(c *Config) {
		if n > 0 && n <= protocol.MaxFrameSize*4 {
			c.ReadSize = n
		}
	}
}

// WithBaudRate announces baud during bring-up. Unsupported rates are ignored.
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		if idx, ok := protocol.BaudIndex(baud); ok {
			c.BaudIndex = idx
		}
	}
}

func WithMetering(on bool) Option {
	return func(c *Config) { c.Metering = on }
}

func withClock(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}
