// internal/poller/builder.go
package poller

import (
	"time"

	"go.uber.org/zap"

	cfg "github.com/svenk123/dps150tool/internal/config"
	"github.com/svenk123/dps150tool/internal/metrics"
	"github.com/svenk123/dps150tool/internal/session"
	"github.com/svenk123/dps150tool/internal/transport"
)

// deviceClient ties a session to the close policy from config.
type deviceClient struct {
	*session.Session
	disconnect bool
}

func (c *deviceClient) Close() error {
	return c.Session.Close(c.disconnect)
}

// Connect opens the serial port and brings the session up.
// On handshake failure the port is released before returning.
func Connect(d cfg.DeviceConfig, log *zap.Logger, m *metrics.Metrics) (*session.Session, error) {
	link, err := transport.Open(transport.Config{
		Address:     d.Port,
		BaudRate:    d.Baud,
		ReadTimeout: time.Duration(d.ReadTimeoutMs) * time.Millisecond,
		Settle:      time.Duration(d.SettleMs) * time.Millisecond,
	}, transport.WithLogger(log))
	if err != nil {
		return nil, err
	}

	s := session.New(link,
		session.WithLogger(log),
		session.WithMetrics(m),
		session.WithBaudRate(d.Baud),
		session.WithMetering(d.Metering),
	)

	if err := s.Initialize(); err != nil {
		_ = s.Close(false)
		return nil, err
	}
	return s, nil
}

// Build constructs a Poller and wires the device connection lifecycle.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future tick.
// No retries, no loops.
func Build(c *cfg.Config, log *zap.Logger, m *metrics.Metrics) (*Poller, func() error, error) {
	disconnect := c.Device.DisconnectOnClose == nil || *c.Device.DisconnectOnClose

	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		s, err := Connect(c.Device, log, m)
		if err != nil {
			return nil, err
		}
		return &deviceClient{Session: s, disconnect: disconnect}, nil
	}

	// initial client (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, nil, err
	}

	p, err := New(
		Config{
			Name:     c.Device.Port,
			Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond,
		},
		client,
		factory,
	)
	if err != nil {
		_ = client.(*deviceClient).Close()
		return nil, nil, err
	}

	return p, p.Close, nil
}
