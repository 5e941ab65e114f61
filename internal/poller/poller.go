// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/svenk123/dps150tool/internal/session"
	"github.com/svenk123/dps150tool/internal/transport"
)

// Client is what the poller needs from a device connection.
// *session.Session satisfies it.
type Client interface {
	Snapshot(ctx context.Context) session.Telemetry
}

// modelNamer is optionally implemented by a Client.
type modelNamer interface {
	ModelName() (string, error)
}

// Factory creates a fresh Client. ONE attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name     string
	Interval time.Duration
}

// Poller is a dumb, clock-driven reader.
// mu guards the client across PollOnce and Close.
type Poller struct {
	cfg Config

	mu      sync.Mutex
	client  Client
	factory Factory
	model   string
}

// New creates a poller with immutable config.
// client may be nil when factory is set; the first poll then connects.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.Name == "" {
		return nil, errors.New("poller: name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}

	p := &Poller{cfg: cfg, client: client, factory: factory}
	if client != nil {
		p.identify()
	}
	return p, nil
}

// PollOnce performs exactly one poll cycle.
// Fields are independent: one failed field never hides the others.
// A cancelled ctx returns at once without touching the device.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		Name: p.cfg.Name,
		At:   time.Now(),
	}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		c, err := p.factory()
		if err != nil {
			res.Err = err
			return res
		}
		p.client = c
		p.identify()
	}

	t := p.client.Snapshot(ctx)
	if !t.At.IsZero() {
		res.At = t.At
	}
	res.Model = p.model
	res.Telemetry = t
	res.Err = t.Err()

	for _, m := range []session.Measurement{t.Voltage, t.Current, t.Power} {
		if m.OK() && !m.ChecksumOK {
			res.ChecksumFailures++
		}
	}

	if transportDead(t) {
		p.discard()
	}

	return res
}

// Close releases the current client, if any.
// It waits for a poll in progress to finish.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.discard()
}

func (p *Poller) identify() {
	p.model = ""
	if n, ok := p.client.(modelNamer); ok {
		if name, err := n.ModelName(); err == nil {
			p.model = name
		}
	}
}

// discard drops the client so the factory is used on a future tick.
// Without a factory the client is kept. Caller holds mu.
func (p *Poller) discard() error {
	if p.client == nil || p.factory == nil {
		return nil
	}
	c := p.client
	p.client = nil
	p.model = ""

	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// transportDead reports whether every field failed at the byte-stream
// boundary.
func transportDead(t session.Telemetry) bool {
	var te *transport.TransportError
	for _, m := range []session.Measurement{t.Voltage, t.Current, t.Power} {
		if m.Err == nil || !errors.As(m.Err, &te) {
			return false
		}
	}
	return true
}
