// internal/writer/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient owns one Modbus TCP connection to the mirror server.
// Writes are serialized: the unit id lives on the shared handler.
//
// After a failed write the connection is dropped; the handler dials again
// on the next request.
type EndpointClient struct {
	endpoint string

	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient dials the endpoint once so a bad address fails at startup.
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mirror: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("mirror: connect %s: %w", cfg.Endpoint, err)
	}

	return &EndpointClient{
		endpoint: cfg.Endpoint,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteCoils writes bits starting at addr (FC 15).
func (c *EndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	return c.do(unitID, func(mc modbus.Client) error {
		_, err := mc.WriteMultipleCoils(addr, uint16(len(bits)), PackBits(bits))
		return err
	})
}

// WriteRegisters writes holding registers starting at addr (FC 16).
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	return c.do(unitID, func(mc modbus.Client) error {
		_, err := mc.WriteMultipleRegisters(addr, uint16(len(regs)), PackRegisters(regs))
		return err
	})
}

func (c *EndpointClient) do(unitID uint8, fn func(modbus.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID
	if err := fn(c.client); err != nil {
		_ = c.handler.Close()
		return fmt.Errorf("mirror %s: %w", c.endpoint, err)
	}
	return nil
}

// PackBits packs coils LSB first.
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, on := range bits {
		if on {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// PackRegisters lays registers out big-endian.
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}
