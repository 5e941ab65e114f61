// internal/writer/device_status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svenk123/dps150tool/internal/status"
)

func statusPlan(name string) Plan {
	return Plan{
		Endpoint: "status-endpoint",
		Status: &StatusPlan{
			UnitID:     1,
			BaseSlot:   1,
			DeviceName: name,
		},
	}
}

func TestStatusWriter_DisabledWithoutPlan(t *testing.T) {
	_, enabled := NewDeviceStatusWriter(Plan{}, &fakeEndpointClient{})
	assert.False(t, enabled)
}

func TestDeviceNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}

	sw, enabled := NewDeviceStatusWriter(statusPlan("DEV-01"), cli)
	require.True(t, enabled)

	// ---- first write: FULL ASSERT ----
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK}))
	require.Len(t, cli.lastRegs, status.SlotsPerDevice)
	assert.Equal(t, uint16(status.SlotsPerDevice), cli.lastRegsAddr)

	want := status.EncodeName("DEV-01")
	assert.Equal(t, want, cli.lastRegs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1])

	// ---- second write: INCREMENTAL ONLY ----
	require.NoError(t, sw.WriteStatus(status.Snapshot{
		Health:         status.HealthError,
		LastErrorCode:  status.CodeTransport,
		SecondsInError: 1,
	}))
	assert.Len(t, cli.lastRegs, 1, "device name should not be rewritten on incremental update")
	assert.Len(t, cli.writes, 4)
}

func TestSecondsInErrorResetOnRecovery(t *testing.T) {
	cli := &fakeEndpointClient{}

	sw, _ := NewDeviceStatusWriter(statusPlan("DEV-01"), cli)

	require.NoError(t, sw.WriteStatus(status.Snapshot{
		Health:         status.HealthError,
		LastErrorCode:  42,
		SecondsInError: 3,
	}))
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK}))

	wantAddr := uint16(1*status.SlotsPerDevice + status.SlotSecondsInError)
	assert.Equal(t, wantAddr, cli.lastRegsAddr)
	assert.Equal(t, []uint16{0}, cli.lastRegs)
}

func TestStatusWriter_FailureForcesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, _ := NewDeviceStatusWriter(statusPlan("DEV-01"), cli)

	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK}))

	cli.failRegs = errors.New("timeout")
	assert.Error(t, sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 2}))

	cli.failRegs = nil
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 2}))
	assert.Len(t, cli.lastRegs, status.SlotsPerDevice)
}

func TestStatusWriter_ChecksumFailuresSlot(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, _ := NewDeviceStatusWriter(statusPlan("DEV-01"), cli)

	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK}))
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK, ChecksumFailures: 5}))

	assert.Equal(t, uint16(status.SlotsPerDevice+status.SlotChecksumFailures), cli.lastRegsAddr)
	assert.Equal(t, []uint16{5}, cli.lastRegs)
}

func TestStatusWriter_DeviceNameFromModel(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, _ := NewDeviceStatusWriter(statusPlan(""), cli)

	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthUnknown}))
	assert.Equal(t, make([]uint16, status.SlotDeviceNameSlots),
		cli.lastRegs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1])

	sw.SetDeviceName("DPS-150")
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthUnknown}))
	require.Len(t, cli.lastRegs, status.SlotsPerDevice, "name change re-asserts the block")
	assert.Equal(t, status.EncodeName("DPS-150"),
		cli.lastRegs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1])

	// unchanged name: no re-assert
	sw.SetDeviceName("DPS-150")
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK}))
	assert.Len(t, cli.lastRegs, 1)
}

func TestStatusWriter_ConfiguredNameWins(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, _ := NewDeviceStatusWriter(statusPlan("bench-1"), cli)

	require.NoError(t, sw.WriteStatus(status.Snapshot{}))
	sw.SetDeviceName("DPS-150")
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK}))

	assert.Len(t, cli.lastRegs, 1)
}
