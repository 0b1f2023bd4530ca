package simhw

import (
	"testing"
	"time"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/power"
	"github.com/m2cell/cellctrl/sysinfo"
	"github.com/stretchr/testify/assert"
)

func TestSimulatorMotorPowerOnReachesNominal(t *testing.T) {
	s := NewSimulator()
	var out bits.OutputPortBits
	assert.NoError(t, out.Set(bits.MotorPowerOn, true))
	s.StageOutput(out)

	now := time.Now()
	var snap sysinfo.SysInfo
	for i := 0; i < 2000; i++ {
		now = now.Add(5 * time.Millisecond)
		snap = s.Tick(5*time.Millisecond, now)
	}

	assert.InDelta(t, power.MotorConfig().NominalVoltage, snap.MotorVoltage, 0.5)
	assert.True(t, snap.MotorBreakerClosed)
}

func TestSimulatorOffStaysAtOffLevel(t *testing.T) {
	s := NewSimulator()
	now := time.Now()
	snap := s.Tick(0, now)
	assert.Equal(t, power.MotorConfig().VoltageOffLevel, snap.MotorVoltage)
	assert.False(t, snap.MotorBreakerClosed)
}

func TestSimulatorForcedOverCurrent(t *testing.T) {
	s := NewSimulator()
	var out bits.OutputPortBits
	assert.NoError(t, out.Set(bits.MotorPowerOn, true))
	s.StageOutput(out)
	s.ForceFault(power.Motor, OverCurrent)

	now := time.Now()
	snap := s.Tick(10*time.Millisecond, now)
	assert.Greater(t, snap.MotorCurrent, power.MotorConfig().MaxCurrent)
}
