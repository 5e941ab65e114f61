// internal/transport/transport.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
	"go.uber.org/zap"
)

// DefaultSettle is the pause after every write before the device is read.
const DefaultSettle = 50 * time.Millisecond

// DefaultReadSize matches the largest response the device is known to send,
// with headroom for back-to-back telemetry frames.
const DefaultReadSize = 1024

// Config is the serial line configuration. Line discipline is fixed to 8N1.
type Config struct {
	Address     string
	BaudRate    int
	ReadTimeout time.Duration
	Settle      time.Duration
}

// TransportError is a failure at the byte-stream boundary.
// The caller fails the single exchange; nothing here retries.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Link is one exclusively-owned serial connection.
// At most one request/response exchange may be outstanding; that is the
// caller's job to enforce.
type Link struct {
	port   io.ReadWriteCloser
	settle time.Duration
	log    *zap.Logger
	sleep  func(time.Duration)
}

// Option configures a Link.
type Option func(*Link)

// WithLogger attaches a logger; frames are hex-dumped at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(k *Link) {
		if l != nil {
			k.log = l
		}
	}
}

// WithSettle overrides the post-write delay.
func WithSettle(d time.Duration) Option {
	return func(k *Link) {
		if d >= 0 {
			k.settle = d
		}
	}
}

// withSleep replaces time.Sleep in tests.
func withSleep(fn func(time.Duration)) Option {
	return func(k *Link) { k.sleep = fn }
}

// Open opens and configures the serial device (8N1).
func Open(cfg Config, opts ...Option) (*Link, error) {
	if cfg.Address == "" {
		return nil, errors.New("transport: address required")
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("transport: invalid baud rate %d", cfg.BaudRate)
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, &TransportError{Op: "open " + cfg.Address, Err: err}
	}

	settle := cfg.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	return New(port, append([]Option{WithSettle(settle)}, opts...)...), nil
}

// New wraps an already-open byte stream.
func New(port io.ReadWriteCloser, opts ...Option) *Link {
	if port == nil {
		panic("transport: port cannot be nil")
	}

	k := &Link{
		port:   port,
		settle: DefaultSettle,
		log:    zap.NewNop(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Write sends one frame in full, then waits the settle delay.
func (k *Link) Write(frame []byte) error {
	k.log.Debug("tx", zap.String("frame", hexDump(frame)), zap.Int("len", len(frame)))

	for b := frame; len(b) > 0; {
		n, err := k.port.Write(b)
		if err != nil {
			return &TransportError{Op: "write", Err: err}
		}
		if n == 0 {
			return &TransportError{Op: "write", Err: io.ErrShortWrite}
		}
		b = b[n:]
	}

	if k.settle > 0 {
		k.sleep(k.settle)
	}
	return nil
}

// Read returns up to max bytes. An empty result with a nil error means the
// read timed out with nothing pending. A read that returns no bytes and no
// timeout means the port hung up and is reported as io.EOF.
func (k *Link) Read(max int) ([]byte, error) {
	if max <= 0 {
		max = DefaultReadSize
	}

	buf := make([]byte, max)
	n, err := k.port.Read(buf)
	if n < 0 {
		// posix ports hand back syscall.Read's -1 on I/O errors
		n = 0
	}

	if n == 0 {
		switch {
		case errors.Is(err, serial.ErrTimeout):
			k.log.Debug("rx empty", zap.Error(err))
			return buf[:0], nil
		case err == nil, errors.Is(err, io.EOF):
			return nil, &TransportError{Op: "read", Err: io.EOF}
		default:
			return nil, &TransportError{Op: "read", Err: err}
		}
	}

	k.log.Debug("rx", zap.String("frame", hexDump(buf[:n])), zap.Int("len", n))
	return buf[:n], nil
}

// Close releases the port.
func (k *Link) Close() error {
	if err := k.port.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

func hexDump(b []byte) string {
	return fmt.Sprintf("% X", b)
}
