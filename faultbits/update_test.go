package faultbits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateFaultStatusClearsSetFaultBitOnNextCall(t *testing.T) {
	affectedFault := setAll(MotorOverCurrent)
	affectedWarnInfo := setAll(MotorVoltageWarn)
	enable := MaskFaults() | MaskWarn()

	// First call raises the fault bit.
	summary, changed := UpdateFaultStatus(0, enable, setAll(MotorOverCurrent), affectedWarnInfo, affectedFault)
	assert.True(t, summary.Get(MotorOverCurrent))
	assert.True(t, changed.Get(MotorOverCurrent))

	// A subsequent call with newStatus no longer set clears the fault bit:
	// summary ^ (newStatus | summary) is zero for a set fault bit.
	summary2, changed2 := UpdateFaultStatus(summary, enable, 0, affectedWarnInfo, affectedFault)
	assert.False(t, summary2.Get(MotorOverCurrent), "a set fault bit is cleared by the next call")
	assert.False(t, changed2.Get(MotorOverCurrent), "a cleared bit is not reported as changed")
}

func TestUpdateFaultStatusWarnInfoBitPersistsWhenStatusClears(t *testing.T) {
	affectedFault := setAll(MotorOverCurrent)
	affectedWarnInfo := setAll(MotorVoltageWarn)
	enable := MaskFaults() | MaskWarn()

	summary, changed := UpdateFaultStatus(0, enable, setAll(MotorVoltageWarn), affectedWarnInfo, affectedFault)
	assert.True(t, summary.Get(MotorVoltageWarn))
	assert.True(t, changed.Get(MotorVoltageWarn))

	// A warning bit becomes summary XOR newStatus: a clear newStatus keeps it.
	summary2, _ := UpdateFaultStatus(summary, enable, 0, affectedWarnInfo, affectedFault)
	assert.True(t, summary2.Get(MotorVoltageWarn))
}

func TestUpdateFaultStatusDisabledBitsNeverReportChanged(t *testing.T) {
	affectedFault := setAll(MotorOverCurrent)
	var affectedWarnInfo Bits
	// enableMask deliberately excludes MotorOverCurrent.
	enable := Bits(0)

	_, changed := UpdateFaultStatus(0, enable, setAll(MotorOverCurrent), affectedWarnInfo, affectedFault)
	assert.Equal(t, Bits(0), changed, "a bit outside enableMask must never appear in changedBits")
}

func TestMaskComposition(t *testing.T) {
	// Closed-loop-allowed faults are a subset of open-loop-allowed, which
	// is a subset of telemetry-only-allowed, which is a subset of the
	// full faults mask.
	assert.Equal(t, MaskClosedLoopControl(), MaskClosedLoopControl()&MaskOpenLoopControl())
	assert.Equal(t, MaskOpenLoopControl(), MaskOpenLoopControl()&MaskTelemetryOnlyControl())
	assert.Equal(t, MaskTelemetryOnlyControl(), MaskTelemetryOnlyControl()&MaskFaults())
}

func TestMaskPowerSubsystemFaultsDistinguishesBus(t *testing.T) {
	assert.NotEqual(t, MaskPowerSubsystemFaults(Motor), MaskPowerSubsystemFaults(Comm))
	assert.True(t, MaskPowerSubsystemFaults(Motor).Get(MotorOverCurrent))
	assert.False(t, MaskPowerSubsystemFaults(Motor).Get(CommOverCurrent))
}

func TestEnumStringAndSetEnums(t *testing.T) {
	b := setAll(MotorOverCurrent, CommOverCurrent)
	assert.Equal(t, "MOTOR_OVER_CURRENT,COMM_OVER_CURRENT", b.SetEnums())
	assert.Equal(t, "", EnumString(-1))
	assert.Equal(t, "", EnumString(64))
	assert.Equal(t, "SPARE", EnumString(40))
}
