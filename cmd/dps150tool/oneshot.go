// cmd/dps150tool/oneshot.go
package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/svenk123/dps150tool/internal/config"
	"github.com/svenk123/dps150tool/internal/poller"
	"github.com/svenk123/dps150tool/internal/protocol"
	"github.com/svenk123/dps150tool/internal/session"
)

// device is the part of a session the one-shot run drives.
type device interface {
	SetVoltage(volts float32) error
	SetCurrent(amps float32) error
	SetOutput(on bool) error
	SetOVP(on bool) error
	SetOCP(on bool) error
	ReadTelemetry(field protocol.Field) (session.Reading, error)
	ModelName() (string, error)
	HardwareVersion() (string, error)
	FirmwareVersion() (string, error)
}

// actions is what one invocation asked for. Nil setters are not sent.
type actions struct {
	voltageArg, currentArg    float32
	ovpArg, ocpArg, outputArg int
	voltage, current          *float32
	output, ovp, ocp          *bool
	readVoltage, readCurrent  bool
	readPower, info           bool
	keepConnected             bool
}

func (a *actions) register(f *pflag.FlagSet) {
	f.Float32VarP(&a.voltageArg, "voltage", "u", 0, "set output voltage (V)")
	f.Float32VarP(&a.currentArg, "current", "i", 0, "set current limit (A)")
	f.IntVarP(&a.ovpArg, "ovp", "x", 0, "over-voltage protection 0|1")
	f.IntVarP(&a.ocpArg, "ocp", "y", 0, "over-current protection 0|1")
	f.IntVarP(&a.outputArg, "output", "o", 0, "output 0|1")
	f.BoolVarP(&a.readVoltage, "read-voltage", "U", false, "print output voltage")
	f.BoolVarP(&a.readCurrent, "read-current", "I", false, "print output current")
	f.BoolVarP(&a.readPower, "read-power", "P", false, "print output power")
	f.BoolVarP(&a.info, "info", "V", false, "print model, hardware and firmware version")
	f.BoolVarP(&a.keepConnected, "no-disconnect", "z", false, "skip the disconnect notice on exit")
}

// bind turns the flags that were actually given into actions.
func (a *actions) bind(f *pflag.FlagSet) error {
	if f.Changed("voltage") {
		if a.voltageArg < 0 {
			return fmt.Errorf("-u must be >= 0, got %g", a.voltageArg)
		}
		v := a.voltageArg
		a.voltage = &v
	}
	if f.Changed("current") {
		if a.currentArg < 0 {
			return fmt.Errorf("-i must be >= 0, got %g", a.currentArg)
		}
		v := a.currentArg
		a.current = &v
	}

	toggles := []struct {
		flag, short string
		arg         int
		dst         **bool
	}{
		{"output", "o", a.outputArg, &a.output},
		{"ovp", "x", a.ovpArg, &a.ovp},
		{"ocp", "y", a.ocpArg, &a.ocp},
	}
	for _, t := range toggles {
		if !f.Changed(t.flag) {
			continue
		}
		on, err := flagBool(t.short, t.arg)
		if err != nil {
			return err
		}
		*t.dst = &on
	}
	return nil
}

// runOnce is the classic mode: open, initialize, setters, reads, info, close.
func runOnce(cmd *cobra.Command, cfg *config.Config, a actions, log *zap.Logger) error {
	s, err := poller.Connect(cfg.Device, log, nil)
	if err != nil {
		return err
	}

	disconnect := !a.keepConnected && *cfg.Device.DisconnectOnClose
	defer closeSession(log, func() error { return s.Close(disconnect) })

	return a.run(cmd.OutOrStdout(), s, log)
}

// run applies the actions in a fixed order. A failed step is logged and
// does not stop the steps after it; all failures are returned joined.
func (a actions) run(w io.Writer, d device, log *zap.Logger) error {
	var errs []error
	fail := func(err error) {
		log.Error("step failed", zap.Error(err))
		errs = append(errs, err)
	}

	// ---- setters ----
	if a.voltage != nil {
		if err := d.SetVoltage(*a.voltage); err != nil {
			fail(err)
		}
	}
	if a.current != nil {
		if err := d.SetCurrent(*a.current); err != nil {
			fail(err)
		}
	}
	if a.output != nil {
		if err := d.SetOutput(*a.output); err != nil {
			fail(err)
		}
	}
	if a.ovp != nil {
		if err := d.SetOVP(*a.ovp); err != nil {
			fail(err)
		}
	}
	if a.ocp != nil {
		if err := d.SetOCP(*a.ocp); err != nil {
			fail(err)
		}
	}

	// ---- telemetry ----
	reads := []struct {
		want  bool
		field protocol.Field
	}{
		{a.readVoltage, protocol.FieldVoltage},
		{a.readCurrent, protocol.FieldCurrent},
		{a.readPower, protocol.FieldPower},
	}
	for _, r := range reads {
		if !r.want {
			continue
		}
		rd, err := d.ReadTelemetry(r.field)
		if err != nil {
			fail(fmt.Errorf("read %s: %w", r.field, err))
			continue
		}
		fmt.Fprintln(w, formatReading(rd.Value))
	}

	// ---- identity ----
	if a.info {
		ids := []struct {
			label string
			get   func() (string, error)
		}{
			{"Device Model", d.ModelName},
			{"Hardware Version", d.HardwareVersion},
			{"Firmware Version", d.FirmwareVersion},
		}
		for _, id := range ids {
			v, err := id.get()
			if err != nil {
				fail(fmt.Errorf("%s: %w", id.label, err))
				continue
			}
			fmt.Fprintf(w, "%s: %s\n", id.label, v)
		}
	}

	return errors.Join(errs...)
}

func formatReading(v protocol.Value) string {
	switch v.Kind {
	case protocol.KindVoltage:
		return fmt.Sprintf("Output Voltage: %.2fV", v.Float)
	case protocol.KindCurrent:
		return fmt.Sprintf("Output Current: %.3fA", v.Float)
	case protocol.KindPower:
		return fmt.Sprintf("Output Power: %.2fW", v.Float)
	case protocol.KindByte:
		return fmt.Sprintf("%s: %d", protocol.RegisterName(v.Register), v.Byte)
	case protocol.KindByteString:
		return fmt.Sprintf("%s: %s", protocol.RegisterName(v.Register), v.Printable())
	default:
		return "Unknown response"
	}
}
