package power

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/faultmgr"
	"github.com/m2cell/cellctrl/sysinfo"
)

func newTestSubsystem(t *testing.T, bus Bus) (*Subsystem, *[]string) {
	t.Helper()
	var transitions []string
	faults := faultmgr.New(nil)
	s := NewSubsystem(bus, faults, bits.MotorPowerOn, bits.ResetMotorBreakers,
		[3]int{bits.J1W9_1MtrPwrBrkrOK, bits.J2W10_1MtrPwrBrkrOK, bits.J3W11_1MtrPwrBrkrOK},
		func(b Bus, actual, target State) {
			transitions = append(transitions, actual.String())
		})
	return s, &transitions
}

func TestSubsystemPowerOnReachesOnWhenBreakerCloses(t *testing.T) {
	s, transitions := newTestSubsystem(t, Motor)
	out := bits.NewOutputPortBits()
	now := time.Now()

	s.PowerOn(out, now)
	assert.Equal(t, TurningOn, s.Actual())
	assert.True(t, out.Get(bits.MotorPowerOn))

	snap := sysinfo.SysInfo{MotorVoltage: 24, MotorCurrent: 5, MotorBreakerClosed: true}
	s.ProcessDAQ(out, snap, now.Add(10*time.Millisecond), 0)

	assert.Equal(t, On, s.Actual())
	assert.Contains(t, *transitions, "ON")
}

func TestSubsystemPowerOnTimesOutIntoResettingWhenBreakersNotOK(t *testing.T) {
	s, _ := newTestSubsystem(t, Motor)
	out := bits.NewOutputPortBits()
	now := time.Now()

	s.PowerOn(out, now)
	snap := sysinfo.SysInfo{MotorVoltage: 12, MotorCurrent: 0, MotorBreakerClosed: false}
	s.ProcessDAQ(out, snap, now.Add(2*time.Second), 0)

	assert.Equal(t, Resetting, s.Actual(), "a timed-out TurningOn with breakers not OK must drive to Resetting")
	assert.True(t, out.Get(bits.ResetMotorBreakers))
}

func TestSubsystemPowerOnRaisesFaultAfterDeadlineWhenBreakersOK(t *testing.T) {
	s, _ := newTestSubsystem(t, Motor)
	out := bits.NewOutputPortBits()
	now := time.Now()

	s.PowerOn(out, now)
	snap := sysinfo.SysInfo{MotorVoltage: 12, MotorCurrent: 0, MotorBreakerClosed: false}
	_ = snap.Input.Set(bits.J1W9_1MtrPwrBrkrOK, true)
	_ = snap.Input.Set(bits.J2W10_1MtrPwrBrkrOK, true)
	_ = snap.Input.Set(bits.J3W11_1MtrPwrBrkrOK, true)
	s.ProcessDAQ(out, snap, now.Add(2*time.Second), 0)

	assert.Equal(t, TurningOn, s.Actual(), "stays in TurningOn rather than silently reverting when breakers are OK")
	summary := s.Faults.PowerSummary(Motor)
	assert.True(t, summary.Get(faultbits.PowerRelayOpenFault))
}

func TestSubsystemPowerOffIsIdempotentWhileOff(t *testing.T) {
	s, transitions := newTestSubsystem(t, Motor)
	out := bits.NewOutputPortBits()
	now := time.Now()

	s.PowerOff(out, now)
	assert.Equal(t, Off, s.Actual())
	assert.Empty(t, *transitions, "no transition fires for an already-Off subsystem")
}

func TestSubsystemResetBreakersTransitionsThroughResetting(t *testing.T) {
	s, _ := newTestSubsystem(t, Motor)
	out := bits.NewOutputPortBits()
	now := time.Now()

	s.ResetBreakers(out, now)
	require.Equal(t, Resetting, s.Actual())
	assert.True(t, out.Get(bits.ResetMotorBreakers))

	s.ProcessDAQ(out, sysinfo.SysInfo{}, now.Add(s.Config.ResetBreakerPulseWidth+time.Millisecond), 0)
	assert.Equal(t, Off, s.Actual())
}

func TestSubsystemOverVoltageRaisesFaultAndTripsToTurningOff(t *testing.T) {
	s, _ := newTestSubsystem(t, Motor)
	out := bits.NewOutputPortBits()
	now := time.Now()
	s.PowerOn(out, now)
	s.ProcessDAQ(out, sysinfo.SysInfo{MotorVoltage: 24, MotorBreakerClosed: true}, now, 0)

	s.ProcessDAQ(out, sysinfo.SysInfo{MotorVoltage: 30, MotorCurrent: 5, MotorBreakerClosed: true}, now.Add(time.Millisecond), 0)
	summary := s.Faults.PowerSummary(Motor)
	assert.True(t, summary.Get(faultbits.MotorVoltageFault))
	assert.Equal(t, TurningOff, s.Actual(), "a bus On outside its voltage fault window must trip to TurningOff")
}

func TestSubsystemOverCurrentRaisesFaultAndTripsToTurningOff(t *testing.T) {
	s, _ := newTestSubsystem(t, Motor)
	out := bits.NewOutputPortBits()
	now := time.Now()
	s.PowerOn(out, now)
	s.ProcessDAQ(out, sysinfo.SysInfo{MotorVoltage: 24, MotorBreakerClosed: true}, now, 0)

	s.ProcessDAQ(out, sysinfo.SysInfo{MotorVoltage: 24, MotorCurrent: 25, MotorBreakerClosed: true}, now.Add(time.Millisecond), 0)
	summary := s.Faults.PowerSummary(Motor)
	assert.True(t, summary.Get(faultbits.MotorOverCurrent))
	assert.Equal(t, TurningOff, s.Actual(), "current above max must trip On to TurningOff")
}

func TestDecodeBreakerGroup(t *testing.T) {
	tests := []struct {
		pattern uint8
		want    BreakerStatus
	}{
		{0b111, BreakerOK},
		{0b011, BreakerWarning},
		{0b101, BreakerWarning},
		{0b110, BreakerWarning},
		{0b000, BreakerFault},
		{0b001, BreakerFault},
		{0b010, BreakerFault},
		{0b100, BreakerFault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decodeBreakerGroup(tt.pattern), "pattern %03b", tt.pattern)
	}
}

func TestCheckBreakerStatusDecodesWiredPositions(t *testing.T) {
	s, _ := newTestSubsystem(t, Motor)
	in := bits.NewInputPortBits()
	_ = in.Set(bits.J1W9_1MtrPwrBrkrOK, true)
	_ = in.Set(bits.J2W10_1MtrPwrBrkrOK, true)
	_ = in.Set(bits.J3W11_1MtrPwrBrkrOK, true)
	assert.Equal(t, BreakerOK, s.CheckBreakerStatus(in))
}

func TestConfigForReturnsPerBusConstants(t *testing.T) {
	assert.Equal(t, 20.0, MotorConfig().MaxCurrent)
	assert.Equal(t, 10.0, CommConfig().MaxCurrent)
	assert.Equal(t, MotorConfig(), ConfigFor(Motor))
	assert.Equal(t, CommConfig(), ConfigFor(Comm))
}
