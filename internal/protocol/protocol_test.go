// internal/protocol/protocol_test.go
package protocol

import (
	"encoding/binary"
	"bytes"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// response builds a device->host GET frame.
func response(register byte, payload []byte) []byte {
	return Encode(HeaderInput, CmdGet, register, payload)
}

func floats(vs ...float32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func TestEncode_Layout(t *testing.T) {
	tests := []struct {
		name      string
		direction byte
		command   byte
		register  byte
		payload   []byte
		want      []byte
	}{
		{
			name:      "empty payload query",
			direction: HeaderOutput,
			command:   CmdGet,
			register:  RegModelName,
			payload:   nil,
			want:      []byte{0xF1, 0xA1, 222, 0, 222},
		},
		{
			name:      "single byte",
			direction: HeaderOutput,
			command:   CmdSet,
			register:  RegOutputEnable,
			payload:   []byte{1},
			want:      []byte{0xF1, 0xB1, 219, 1, 1, 221},
		},
		{
			name:      "wraps modulo 256",
			direction: HeaderOutput,
			command:   CmdSet,
			register:  0xFF,
			payload:   []byte{0xFF, 0xFF},
			want:      []byte{0xF1, 0xB1, 0xFF, 2, 0xFF, 0xFF, 0xFF}, // 0xFF+2+0xFF+0xFF = 0x2FF
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.direction, tt.command, tt.register, tt.payload)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.payload)+Overhead)
		})
	}
}

func TestEncode_MaxPayload(t *testing.T) {
	payload := make([]byte, MaxPayload)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame := Encode(HeaderOutput, CmdSet, 1, payload)
	require.Len(t, frame, MaxFrameSize)
	assert.Equal(t, byte(MaxPayload), frame[3])
	assert.True(t, VerifyChecksum(frame))

	assert.Panics(t, func() {
		Encode(HeaderOutput, CmdSet, 1, make([]byte, MaxPayload+1))
	})
}

func TestHandshakeFrames(t *testing.T) {
	assert.Equal(t, []byte{0xF1, 0xC1, 0, 1, 1, 2}, EncodeConnect())
	assert.Equal(t, []byte{0xF1, 0xB0, 0, 1, 4, 5}, EncodeBaudRate(BaudIndex115200))
	assert.Equal(t, []byte{0xF1, 0xC1, 0, 0, 0}, EncodeDisconnect())

	idx, ok := BaudIndex(115200)
	require.True(t, ok)
	assert.Equal(t, BaudIndex115200, idx)

	_, ok = BaudIndex(1200)
	assert.False(t, ok)
}

func TestEncodeBool(t *testing.T) {
	assert.Equal(t, EncodeByte(RegOVP, 1), EncodeBool(RegOVP, true))
	assert.Equal(t, EncodeByte(RegOCP, 0), EncodeBool(RegOCP, false))
}

func TestRoundTrip_RegisterAndPayload(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x00},
		{0x01, 0x02, 0x03},
		[]byte("DPS-150"),
		make([]byte, MaxPayload),
	}
	commands := []byte{CmdGet, CmdSet, CmdBaudRate, CmdSession}
	directions := []byte{HeaderInput, HeaderOutput}

	for _, dir := range directions {
		for _, cmd := range commands {
			for reg := 0; reg < 256; reg += 37 {
				for _, p := range payloads {
					raw := Encode(dir, cmd, byte(reg), p)

					fr, err := ParseFrame(raw)
					require.NoError(t, err)
					assert.Equal(t, dir, fr.Direction)
					assert.Equal(t, cmd, fr.Command)
					assert.Equal(t, byte(reg), fr.Register)
					assert.Equal(t, len(p), len(fr.Payload))
					if len(p) > 0 {
						assert.Equal(t, p, fr.Payload)
					}
					assert.True(t, fr.Valid())
					assert.Equal(t, raw, Encode(fr.Direction, fr.Command, fr.Register, fr.Payload))
				}
			}
		}
	}
}

func TestChecksum_OrderIndependent(t *testing.T) {
	payload := []byte{0x10, 0x80, 0xFE, 0x03, 0x7F}
	want := Checksum(RegTelemetry, byte(len(payload)), payload)

	for i := 0; i < len(payload); i++ {
		for j := i + 1; j < len(payload); j++ {
			swapped := append([]byte(nil), payload...)
			swapped[i], swapped[j] = swapped[j], swapped[i]
			assert.Equal(t, want, Checksum(RegTelemetry, byte(len(swapped)), swapped),
				"swap %d<->%d", i, j)
		}
	}
}

func TestFloatRoundTrip_BitExact(t *testing.T) {
	values := []float32{
		0, 1, 5.0, 12.34, 30.0, 0.001, 1.5,
		math.SmallestNonzeroFloat32, math.MaxFloat32,
		float32(math.Inf(1)), -0.0,
	}

	for _, reg := range []byte{RegVoltageSet, RegCurrentSet} {
		for _, v := range values {
			cmd := EncodeFloat(reg, v)
			require.Len(t, cmd, 4+Overhead)
			assert.Equal(t, HeaderOutput, cmd[0])
			assert.Equal(t, CmdSet, cmd[1])

			// The device echoes the same payload on a GET.
			got, err := Decode(response(reg, cmd[4:8]), FieldVoltage)
			require.NoError(t, err)
			assert.Equal(t, math.Float32bits(v), math.Float32bits(got.Float), "value %v", v)
		}
	}
}

func TestDecode_SingleFloatKinds(t *testing.T) {
	v, err := Decode(response(RegVoltageSet, floats(5.5)), FieldPower)
	require.NoError(t, err)
	assert.Equal(t, KindVoltage, v.Kind)
	assert.Equal(t, float32(5.5), v.Float)

	v, err = Decode(response(RegCurrentSet, floats(0.25)), FieldVoltage)
	require.NoError(t, err)
	assert.Equal(t, KindCurrent, v.Kind)
	assert.Equal(t, float32(0.25), v.Float)
}

func TestDecode_Telemetry(t *testing.T) {
	buf := response(RegTelemetry, floats(12.34, 1.500, 18.51))

	tests := []struct {
		field Field
		kind  Kind
		want  float32
	}{
		{FieldVoltage, KindVoltage, 12.34},
		{FieldCurrent, KindCurrent, 1.500},
		{FieldPower, KindPower, 18.51},
	}

	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			v, err := Decode(buf, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, tt.want, v.Float)
			assert.Equal(t, RegTelemetry, v.Register)
		})
	}

	all, err := DecodeTelemetry(buf)
	require.NoError(t, err)
	assert.Equal(t, Telemetry{Voltage: 12.34, Current: 1.5, Power: 18.51}, all)
}

func TestDecodeTelemetry_WrongRegister(t *testing.T) {
	_, err := DecodeTelemetry(response(RegVoltageSet, floats(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voltage_set")
}

func TestDecode_NotAResponse(t *testing.T) {
	valid := response(RegTelemetry, floats(1, 2, 3))

	wrongDir := append([]byte(nil), valid...)
	wrongDir[0] = HeaderOutput

	wrongCmd := append([]byte(nil), valid...)
	wrongCmd[1] = CmdSet

	for reg := 0; reg < 256; reg++ {
		short := response(byte(reg), []byte{0x01})[:6]
		for _, buf := range [][]byte{nil, {}, short, wrongDir, wrongCmd} {
			if len(buf) > 2 {
				buf = append([]byte(nil), buf...)
				buf[2] = byte(reg)
			}
			for _, f := range []Field{FieldVoltage, FieldCurrent, FieldPower} {
				_, err := Decode(buf, f)
				require.ErrorIs(t, err, ErrNotAResponse, "reg=%d len=%d", reg, len(buf))
			}
		}
	}
}

func TestDecode_Truncated(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{
			name: "declared length past buffer",
			buf:  []byte{0xF0, 0xA1, RegModelName, 20, 'A', 'B', 'C', 'D'},
		},
		{
			name: "telemetry shorter than three floats",
			buf:  response(RegTelemetry, floats(1, 2)),
		},
		{
			name: "float register with one byte",
			buf:  []byte{0xF0, 0xA1, RegVoltageSet, 1, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "telemetry cut mid-payload",
			buf:  response(RegTelemetry, floats(1, 2, 3))[:10],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf, FieldCurrent)
			require.ErrorIs(t, err, ErrTruncated)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.buf[2], de.Register)
		})
	}
}

func TestDecode_UnknownRegister(t *testing.T) {
	v, err := Decode(response(0x42, []byte{1, 2, 3}), FieldVoltage)
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, v.Kind)
	assert.Equal(t, byte(0x42), v.Register)
}

func TestDecode_ByteRegisters(t *testing.T) {
	for _, reg := range []byte{RegOutputEnable, RegOVP, RegOCP, RegMetering} {
		v, err := Decode(response(reg, []byte{1, 0, 0}), FieldVoltage)
		require.NoError(t, err)
		assert.Equal(t, KindByte, v.Kind)
		assert.Equal(t, byte(1), v.Byte)
	}
}

func TestDecode_IdentityString(t *testing.T) {
	payload := []byte("ABC\x00EF")
	buf := response(RegModelName, payload)
	// trailing garbage past the frame must not leak into the value
	buf = append(buf, 'Z', 'Z', 'Z')

	v, err := Decode(buf, FieldVoltage)
	require.NoError(t, err)
	assert.Equal(t, KindByteString, v.Kind)
	assert.Len(t, v.Bytes, 6)
	assert.Equal(t, payload, v.Bytes)
	assert.Equal(t, "ABCEF", v.Printable())
}

func TestDecode_IdentityStringNotTerminated(t *testing.T) {
	for _, reg := range []byte{RegModelName, RegHardwareVer, RegFirmwareVer} {
		buf := []byte{0xF0, 0xA1, reg, 4, 'V', '1', '.', '2', 0xFF}
		v, err := Decode(buf, FieldVoltage)
		require.NoError(t, err)
		assert.Equal(t, "V1.2", v.Printable())
	}
}

func TestDecode_DoesNotAliasBuffer(t *testing.T) {
	buf := response(RegFirmwareVer, []byte("V1.0"))
	v, err := Decode(buf, FieldVoltage)
	require.NoError(t, err)

	buf[4] = 'X'
	assert.Equal(t, "V1.0", v.Printable())
}

func TestChecksumMismatch_DoesNotBlockDecode(t *testing.T) {
	buf := response(RegTelemetry, floats(12.34, 1.5, 18.51))
	buf[len(buf)-1]++

	assert.False(t, VerifyChecksum(buf))

	err := CheckChecksum(buf)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	var ce *ChecksumError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ce.Expected+1, ce.Actual)

	v, err := Decode(buf, FieldPower)
	require.NoError(t, err)
	assert.Equal(t, float32(18.51), v.Float)

	res := Inspect(buf, FieldCurrent)
	require.NoError(t, res.Err)
	assert.False(t, res.ChecksumOK)
	assert.Equal(t, float32(1.5), res.Value.Float)
}

func TestVerifyChecksum(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want bool
	}{
		{"valid response", response(RegModelName, []byte("DPS")), true},
		{"valid host frame", EncodeFloat(RegVoltageSet, 5), true},
		{"too short", []byte{0xF0, 0xA1, 1}, false},
		{"missing trailer", []byte{0xF0, 0xA1, 1, 2, 0, 0}, false},
		{"corrupted payload", func() []byte {
			b := response(RegModelName, []byte("DPS"))
			b[5] = 'X'
			return b
		}(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyChecksum(tt.buf))
			if tt.want {
				assert.NoError(t, CheckChecksum(tt.buf))
			} else {
				assert.ErrorIs(t, CheckChecksum(tt.buf), ErrChecksumMismatch)
			}
		})
	}
}

func TestParseFrame_Truncated(t *testing.T) {
	_, err := ParseFrame([]byte{0xF1, 0xA1})
	require.ErrorIs(t, err, ErrTruncated)

	_, err = ParseFrame([]byte{0xF1, 0xB1, RegVoltageSet, 4, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(RegTelemetry)
	require.True(t, ok)
	assert.Equal(t, ShapeTriple, info.Shape)
	assert.Equal(t, 12, info.Shape.Size())

	_, ok = Lookup(0)
	assert.False(t, ok)
	assert.Equal(t, "register(0)", RegisterName(0))
	assert.Equal(t, "model_name", RegisterName(RegModelName))
}

func BenchmarkDecodeTelemetry(b *testing.B) {
	buf := response(RegTelemetry, floats(12.34, 1.5, 18.51))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(buf, FieldPower)
	}
}

func TestSplit(t *testing.T) {
	a := response(RegTelemetry, floats(1, 2, 3))
	b := response(RegModelName, []byte("DPS-150"))
	partial := response(RegFirmwareVer, []byte("V1.0"))[:6]

	buf := append(append(append([]byte(nil), a...), b...), partial...)
	frames := Split(buf)

	require.Len(t, frames, 2)
	assert.Equal(t, a, frames[0])
	assert.Equal(t, b, frames[1])

	assert.Empty(t, Split(nil))
	assert.Empty(t, Split([]byte{0xF0, 0xA1}))
}

func TestCodec_ConcurrentUse(t *testing.T) {
	shared := response(RegTelemetry, floats(12.34, 1.5, 18.51))
	pristine := bytes.Clone(shared)
	bad := bytes.Clone(shared)
	bad[len(bad)-1] ^= 0xFF

	want := map[Field]float32{FieldVoltage: 12.34, FieldCurrent: 1.5, FieldPower: 18.51}

	const workers = 16
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				field := Field((w + i) % 3)

				frame := EncodeFloat(RegVoltageSet, float32(i))
				assert.True(t, VerifyChecksum(frame))

				v, err := Decode(shared, field)
				assert.NoError(t, err)
				assert.Equal(t, want[field], v.Float)

				assert.True(t, VerifyChecksum(shared))
				assert.False(t, VerifyChecksum(bad))

				r := Inspect(bad, field)
				assert.NoError(t, r.Err)
				assert.False(t, r.ChecksumOK)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, pristine, shared, "shared input must not be mutated")
}
