package faultmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2cell/cellctrl/faultbits"
)

type broadcastCall struct {
	owner   CrioSubsystem
	bus     faultbits.PowerSystemType
	summary faultbits.Bits
	changed faultbits.Bits
}

func newTestMgr(calls *[]broadcastCall) *Mgr {
	return New(func(owner CrioSubsystem, bus faultbits.PowerSystemType, summary, changed faultbits.Bits) {
		*calls = append(*calls, broadcastCall{owner, bus, summary, changed})
	})
}

func TestUpdatePowerFaultsBroadcastsOnChange(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	var status faultbits.Bits
	status = status.Set(faultbits.MotorOverCurrent, true)
	m.UpdatePowerFaults(faultbits.Motor, status)

	require.Len(t, calls, 1)
	assert.Equal(t, PowerSubsystem, calls[0].owner)
	assert.True(t, calls[0].summary.Get(faultbits.MotorOverCurrent))
	assert.True(t, m.PowerSummary(faultbits.Motor).Get(faultbits.MotorOverCurrent))
}

func TestUpdatePowerFaultsIsolatesBuses(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	var status faultbits.Bits
	status = status.Set(faultbits.MotorOverCurrent, true)
	m.UpdatePowerFaults(faultbits.Motor, status)

	assert.False(t, m.PowerSummary(faultbits.Comm).Get(faultbits.MotorOverCurrent))
}

func TestUpdatePowerFaultsNoChangeDoesNotBroadcast(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	m.UpdatePowerFaults(faultbits.Motor, 0)
	assert.Empty(t, calls, "an all-clear status with nothing previously set must not broadcast")
}

func TestResetFaultsClearsLatchedBit(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	var status faultbits.Bits
	status = status.Set(faultbits.MotorOverCurrent, true)
	m.UpdatePowerFaults(faultbits.Motor, status)
	require.True(t, m.PowerSummary(faultbits.Motor).Get(faultbits.MotorOverCurrent))

	var mask faultbits.Bits
	mask = mask.Set(faultbits.MotorOverCurrent, true)
	m.ResetFaults(faultbits.Motor, mask)

	assert.False(t, m.PowerSummary(faultbits.Motor).Get(faultbits.MotorOverCurrent))
}

func TestReportComConnectionCountRaisesAndClearsCrioCommFault(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	m.ReportComConnectionCount(0)
	assert.True(t, m.SystemSummary().Get(faultbits.CrioCommFault))

	m.ReportComConnectionCount(3)
	assert.False(t, m.SystemSummary().Get(faultbits.CrioCommFault))
}

func TestCheckForPowerSubsystemFaultsMatchesMask(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	var status faultbits.Bits
	status = status.Set(faultbits.MotorOverCurrent, true)
	m.UpdatePowerFaults(faultbits.Motor, status)

	var mask faultbits.Bits
	mask = mask.Set(faultbits.MotorOverCurrent, true)
	assert.True(t, m.CheckForPowerSubsystemFaults(faultbits.Motor, mask))

	var otherMask faultbits.Bits
	otherMask = otherMask.Set(faultbits.CommOverCurrent, true)
	assert.False(t, m.CheckForPowerSubsystemFaults(faultbits.Motor, otherMask))
}

func TestUpdateTelemetryFaultsBroadcastsUnderTelemetryOwner(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	var status faultbits.Bits
	status = status.Set(faultbits.ActuatorFault, true)
	m.UpdateTelemetryFaults(status)

	require.Len(t, calls, 1)
	assert.Equal(t, TelemetryLogger, calls[0].owner)
	assert.True(t, m.TelemetrySummary().Get(faultbits.ActuatorFault))
}

func TestEnableFaultsInMaskExpandsEnableMask(t *testing.T) {
	var calls []broadcastCall
	m := newTestMgr(&calls)

	var extra faultbits.Bits
	extra = extra.Set(faultbits.CrioCommFault, true)
	got := m.EnableFaultsInMask(faultbits.Motor, extra)
	assert.True(t, got.Get(faultbits.CrioCommFault))
}

func TestNewWithNilBroadcastNeverPanics(t *testing.T) {
	m := New(nil)
	assert.NotPanics(t, func() {
		var status faultbits.Bits
		status = status.Set(faultbits.MotorOverCurrent, true)
		m.UpdatePowerFaults(faultbits.Motor, status)
	})
}
