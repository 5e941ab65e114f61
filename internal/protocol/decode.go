// internal/protocol/decode.go
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Field selects which value to surface from the telemetry register.
// It is ignored for every other register.
type Field uint8

const (
	FieldVoltage Field = iota
	FieldCurrent
	FieldPower
)

func (f Field) String() string {
	switch f {
	case FieldVoltage:
		return "voltage"
	case FieldCurrent:
		return "current"
	case FieldPower:
		return "power"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// Kind tags a decoded Value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindVoltage
	KindCurrent
	KindPower
	KindByte
	KindByteString
)

func (k Kind) String() string {
	switch k {
	case KindVoltage:
		return "voltage"
	case KindCurrent:
		return "current"
	case KindPower:
		return "power"
	case KindByte:
		return "byte"
	case KindByteString:
		return "bytestring"
	default:
		return "unknown"
	}
}

// Value is the result of one decode. Exactly one of Float, Byte or Bytes is
// meaningful, depending on Kind.
type Value struct {
	Kind     Kind
	Register byte
	Float    float32
	Byte     byte
	Bytes    []byte // raw run; len(Bytes) equals the declared length
}

// Printable returns Bytes with everything outside 0x20..0x7E dropped.
func (v Value) Printable() string {
	out := make([]byte, 0, len(v.Bytes))
	for _, b := range v.Bytes {
		if b >= 0x20 && b <= 0x7E {
			out = append(out, b)
		}
	}
	return string(out)
}

// Decode validates a response buffer and extracts the value of the register it
// carries.
//
// Layout:
//
//	[0xF0][0xA1][REG][LEN][PAYLOAD...][SUM]
//
// LEN is authoritative; it is never inferred from len(buf). The checksum is
// not checked here, see VerifyChecksum and Inspect.
func Decode(buf []byte, field Field) (Value, error) {
	if len(buf) < MinResponseSize || buf[offDirection] != HeaderInput || buf[offCommand] != CmdGet {
		return Value{}, notAResponse(buf)
	}

	reg := buf[offRegister]
	info, ok := registers[reg]
	if !ok {
		// Forward compatibility: unknown registers are not an error.
		return Value{Kind: KindUnknown, Register: reg}, nil
	}

	declared := int(buf[offLength])
	available := len(buf) - offPayload
	if declared > available || declared < info.Shape.Size() {
		return Value{}, &DecodeError{
			Register:  reg,
			Declared:  declared,
			Available: available,
			Err:       ErrTruncated,
		}
	}
	payload := buf[offPayload : offPayload+declared]

	v := Value{Register: reg}
	switch info.Shape {
	case ShapeFloat:
		v.Kind = info.Kind
		v.Float = float32At(payload, 0)

	case ShapeTriple:
		switch field {
		case FieldCurrent:
			v.Kind, v.Float = KindCurrent, float32At(payload, 4)
		case FieldPower:
			v.Kind, v.Float = KindPower, float32At(payload, 8)
		default:
			v.Kind, v.Float = KindVoltage, float32At(payload, 0)
		}

	case ShapeByte:
		v.Kind = KindByte
		v.Byte = payload[0]

	case ShapeString:
		v.Kind = KindByteString
		v.Bytes = bytes.Clone(payload)

	default:
		v.Kind = KindUnknown
	}

	return v, nil
}

// Telemetry is the full content of one telemetry register frame.
type Telemetry struct {
	Voltage float32
	Current float32
	Power   float32
}

// DecodeTelemetry extracts all three values of a telemetry frame at once.
func DecodeTelemetry(buf []byte) (Telemetry, error) {
	var t Telemetry
	for _, f := range []Field{FieldVoltage, FieldCurrent, FieldPower} {
		v, err := Decode(buf, f)
		if err != nil {
			return Telemetry{}, err
		}
		if v.Register != RegTelemetry {
			return Telemetry{}, fmt.Errorf("decode telemetry: got %s", RegisterName(v.Register))
		}
		switch f {
		case FieldVoltage:
			t.Voltage = v.Float
		case FieldCurrent:
			t.Current = v.Float
		case FieldPower:
			t.Power = v.Float
		}
	}
	return t, nil
}

// Result bundles a decode with its integrity flag.
type Result struct {
	Value      Value
	Err        error
	ChecksumOK bool
}

// Inspect decodes buf and verifies its checksum in one call.
// A checksum failure sets ChecksumOK=false but leaves Value intact.
func Inspect(buf []byte, field Field) Result {
	v, err := Decode(buf, field)
	return Result{
		Value:      v,
		Err:        err,
		ChecksumOK: VerifyChecksum(buf),
	}
}

func float32At(p []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p[off : off+4]))
}
