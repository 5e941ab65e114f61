// internal/protocol/registers.go
package protocol

import "fmt"

// ---- REGISTERS ----

const (
	RegVoltageSet   byte = 193
	RegCurrentSet   byte = 194
	RegTelemetry    byte = 195 // voltage, current, power
	RegOVP          byte = 209
	RegOCP          byte = 210
	RegMetering     byte = 216
	RegOutputEnable byte = 219
	RegModelName    byte = 222
	RegHardwareVer  byte = 223
	RegFirmwareVer  byte = 224
)

// Shape is the payload layout of a register.
type Shape uint8

const (
	ShapeFloat  Shape = iota + 1 // one float32, little-endian
	ShapeTriple                  // voltage, current, power as three float32
	ShapeByte                    // one raw byte
	ShapeString                  // ASCII run, length from the LEN byte
)

// Size returns the minimum payload size a shape needs.
// ShapeString has no fixed size and returns 0.
func (s Shape) Size() int {
	switch s {
	case ShapeFloat:
		return 4
	case ShapeTriple:
		return 12
	case ShapeByte:
		return 1
	default:
		return 0
	}
}

func (s Shape) String() string {
	switch s {
	case ShapeFloat:
		return "float"
	case ShapeTriple:
		return "triple"
	case ShapeByte:
		return "byte"
	case ShapeString:
		return "string"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// RegisterInfo describes how a register's payload is interpreted.
type RegisterInfo struct {
	Name  string
	Shape Shape
	// Kind is what a ShapeFloat register surfaces.
	Kind Kind
}

// registers is the decode table. Adding a register is a table entry,
// not a new branch.
var registers = map[byte]RegisterInfo{
	RegVoltageSet:   {Name: "voltage_set", Shape: ShapeFloat, Kind: KindVoltage},
	RegCurrentSet:   {Name: "current_set", Shape: ShapeFloat, Kind: KindCurrent},
	RegTelemetry:    {Name: "telemetry", Shape: ShapeTriple},
	RegOVP:          {Name: "ovp", Shape: ShapeByte},
	RegOCP:          {Name: "ocp", Shape: ShapeByte},
	RegMetering:     {Name: "metering", Shape: ShapeByte},
	RegOutputEnable: {Name: "output_enable", Shape: ShapeByte},
	RegModelName:    {Name: "model_name", Shape: ShapeString},
	RegHardwareVer:  {Name: "hardware_version", Shape: ShapeString},
	RegFirmwareVer:  {Name: "firmware_version", Shape: ShapeString},
}

// Lookup returns the table entry for a register.
func Lookup(register byte) (RegisterInfo, bool) {
	info, ok := registers[register]
	return info, ok
}

// RegisterName returns a human-readable register name.
func RegisterName(register byte) string {
	if info, ok := registers[register]; ok {
		return info.Name
	}
	return fmt.Sprintf("register(%d)", register)
}
