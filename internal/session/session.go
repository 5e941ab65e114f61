// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/svenk123/dps150tool/internal/metrics"
	"github.com/svenk123/dps150tool/internal/protocol"
)

// ErrUnexpectedRegister means a well-formed response arrived for a register
// other than the one asked for.
var ErrUnexpectedRegister = errors.New("unexpected register in response")

// Link is the byte-stream boundary the session drives.
// *transport.Link implements it.
type Link interface {
	Write(frame []byte) error
	Read(max int) ([]byte, error)
	Close() error
}

// Reading is one decoded response.
type Reading struct {
	Value protocol.Value

	// ChecksumOK is false when the trailer did not verify. Value is still
	// populated; the caller decides whether to discard it.
	ChecksumOK bool
}

// Session is the linear host session:
//
//	New -> Initialize -> zero or more exchanges -> Close
//
// Exchanges are serialized; a Session is safe for use from several
// goroutines, but never pipelines requests.
type Session struct {
	mu     sync.Mutex
	link   Link
	config Config
}

// New wraps an open link. Nothing is sent until Initialize.
func New(link Link, opts ...Option) *Session {
	if link == nil {
		panic("session: link cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{link: link, config: cfg}
}

// Initialize sends the two bring-up handshakes, then enables metering if
// configured.
func (s *Session) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.send(protocol.EncodeConnect()); err != nil {
		return fmt.Errorf("connect handshake: %w", err)
	}
	if err := s.send(protocol.EncodeBaudRate(s.config.BaudIndex)); err != nil {
		return fmt.Errorf("baud rate handshake: %w", err)
	}

	s.config.Logger.Debug("session initialized", zap.Uint8("baud_index", s.config.BaudIndex))

	if s.config.Metering {
		if err := s.send(protocol.EncodeBool(protocol.RegMetering, true)); err != nil {
			return fmt.Errorf("enable metering: %w", err)
		}
	}
	return nil
}

// Close optionally sends the disconnect notice, then releases the link.
// The link is closed even if the notice fails.
func (s *Session) Close(disconnect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notifyErr error
	if disconnect {
		notifyErr = s.send(protocol.EncodeDisconnect())
		if notifyErr != nil {
			notifyErr = fmt.Errorf("disconnect notice: %w", notifyErr)
		}
	}

	return errors.Join(notifyErr, s.link.Close())
}

// ---- setters ----

func (s *Session) SetVoltage(volts float32) error {
	return s.exec("set voltage", protocol.EncodeFloat(protocol.RegVoltageSet, volts))
}

func (s *Session) SetCurrent(amps float32) error {
	return s.exec("set current", protocol.EncodeFloat(protocol.RegCurrentSet, amps))
}

func (s *Session) SetOutput(on bool) error {
	return s.exec("set output", protocol.EncodeBool(protocol.RegOutputEnable, on))
}

func (s *Session) SetOVP(on bool) error {
	return s.exec("set ovp", protocol.EncodeBool(protocol.RegOVP, on))
}

func (s *Session) SetOCP(on bool) error {
	return s.exec("set ocp", protocol.EncodeBool(protocol.RegOCP, on))
}

func (s *Session) SetMetering(on bool) error {
	return s.exec("set metering", protocol.EncodeBool(protocol.RegMetering, on))
}

// ---- reads ----

// ReadTelemetry reads one buffer from the device, which streams telemetry
// on its own, and surfaces the selected field.
func (s *Session) ReadTelemetry(field protocol.Field) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receive(protocol.RegTelemetry, field)
}

// Query sends a GET for register and decodes the reply.
func (s *Session) Query(register byte, field protocol.Field) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.send(protocol.EncodeQuery(register)); err != nil {
		return Reading{}, fmt.Errorf("query %s: %w", protocol.RegisterName(register), err)
	}
	return s.receive(register, field)
}

func (s *Session) ModelName() (string, error)       { return s.identity(protocol.RegModelName) }
func (s *Session) HardwareVersion() (string, error) { return s.identity(protocol.RegHardwareVer) }
func (s *Session) FirmwareVersion() (string, error) { return s.identity(protocol.RegFirmwareVer) }

func (s *Session) identity(register byte) (string, error) {
	r, err := s.Query(register, protocol.FieldVoltage)
	if err != nil {
		return "", err
	}
	return r.Value.Printable(), nil
}

// Snapshot reads voltage, current and power independently. A failed field
// does not stop its siblings.
func (s *Session) Snapshot(ctx context.Context) Telemetry {
	t := Telemetry{At: s.config.Now()}

	for _, f := range []protocol.Field{protocol.FieldVoltage, protocol.FieldCurrent, protocol.FieldPower} {
		m := t.field(f)
		if err := ctx.Err(); err != nil {
			m.Err = err
			continue
		}

		r, err := s.ReadTelemetry(f)
		m.Value = r.Value.Float
		m.ChecksumOK = r.ChecksumOK
		m.Err = err
	}

	s.config.Metrics.SetOutput(t.Voltage.float64(), t.Current.float64(), t.Power.float64())
	return t
}

// ---- internal ----

// exec sends one host frame under the exchange lock.
func (s *Session) exec(op string, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.send(frame); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// send writes frame; the link applies the settle delay. Caller holds mu.
func (s *Session) send(frame []byte) error {
	if err := s.link.Write(frame); err != nil {
		return err
	}
	if len(frame) > 1 {
		s.config.Metrics.FrameSent(frame[1])
	}
	return nil
}

// receive reads one buffer and decodes the frame for register. Caller holds mu.
func (s *Session) receive(register byte, field protocol.Field) (Reading, error) {
	name := protocol.RegisterName(register)

	buf, err := s.link.Read(s.config.ReadSize)
	if err != nil {
		s.config.Metrics.Decoded(metrics.ResultTransportError)
		return Reading{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(buf) == 0 {
		s.config.Metrics.Decoded(metrics.ResultEmpty)
		return Reading{}, fmt.Errorf("read %s: %w: no data", name, protocol.ErrNotAResponse)
	}

	s.logFrames(buf)

	frame := pick(buf, register)
	res := protocol.Inspect(frame, field)
	if res.Err != nil {
		s.config.Metrics.Decoded(decodeResult(res.Err))
		s.config.Logger.Debug("response ignored",
			zap.String("register", name), zap.Error(res.Err))
		return Reading{}, fmt.Errorf("read %s: %w", name, res.Err)
	}

	if res.Value.Register != register {
		s.config.Metrics.Decoded(metrics.ResultUnknown)
		return Reading{}, fmt.Errorf("read %s: %w: got %s",
			name, ErrUnexpectedRegister, protocol.RegisterName(res.Value.Register))
	}

	s.config.Metrics.Decoded(metrics.ResultOK)
	if !res.ChecksumOK {
		s.config.Metrics.BadChecksum()
		s.config.Logger.Warn("checksum mismatch, value kept",
			zap.String("register", name),
			zap.Error(protocol.CheckChecksum(frame)))
	}

	return Reading{Value: res.Value, ChecksumOK: res.ChecksumOK}, nil
}

// logFrames dumps every whole frame in buf at debug level.
func (s *Session) logFrames(buf []byte) {
	log := s.config.Logger
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}

	for _, raw := range protocol.Split(buf) {
		f, err := protocol.ParseFrame(raw)
		if err != nil {
			continue
		}

		fields := []zap.Field{
			zap.Stringer("frame", f),
			zap.Bool("checksum_ok", f.Valid()),
		}
		if f.Register == protocol.RegTelemetry {
			if t, err := protocol.DecodeTelemetry(raw); err == nil {
				fields = append(fields,
					zap.Float32("voltage", t.Voltage),
					zap.Float32("current", t.Current),
					zap.Float32("power", t.Power),
				)
			}
		}
		log.Debug("rx frame", fields...)
	}
}

// pick returns the first device GET frame for register inside buf, or buf
// itself when there is none, so that Decode reports why.
func pick(buf []byte, register byte) []byte {
	for _, f := range protocol.Split(buf) {
		if f[0] == protocol.HeaderInput && f[1] == protocol.CmdGet && f[2] == register {
			return f
		}
	}
	return buf
}

func decodeResult(err error) string {
	switch {
	case errors.Is(err, protocol.ErrNotAResponse):
		return metrics.ResultNotAResponse
	case errors.Is(err, protocol.ErrTruncated):
		return metrics.ResultTruncated
	default:
		return metrics.ResultUnknown
	}
}
