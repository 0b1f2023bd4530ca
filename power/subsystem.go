package power

import (
	"time"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/faultmgr"
	"github.com/m2cell/cellctrl/sysinfo"
)

// Subsystem is the per-bus (MOTOR or COMM) power state machine. It owns
// its target/actual State and its timed-phase deadline, and reports its
// fault status into the shared faultmgr.Mgr under its own Bus.
//
// Subsystem is not safe for concurrent use on its own; power.System
// serializes all calls to ProcessDAQ through its single event-queue
// goroutine, the same way a CIA's Update is only ever called from a
// single emulator tick loop.
type Subsystem struct {
	Bus    Bus
	Config SubsystemConfig
	Faults *faultmgr.Mgr

	target State
	actual State

	phaseDeadline time.Time

	powerOnBit      int
	resetBreakerBit int
	breakerBits     [3]int // three breaker feed group bit positions

	onStateChange func(bus Bus, actual, target State)
}

// NewSubsystem constructs a Subsystem for bus, reading powerOnBit from
// OutputPortBits to drive the relay and resetBreakerBit to pulse a breaker
// reset, and decoding the three named breakerBits from InputPortBits.
func NewSubsystem(bus Bus, faults *faultmgr.Mgr, powerOnBit, resetBreakerBit int, breakerBits [3]int, onStateChange func(Bus, State, State)) *Subsystem {
	return &Subsystem{
		Bus:             bus,
		Config:          ConfigFor(bus),
		Faults:          faults,
		powerOnBit:      powerOnBit,
		resetBreakerBit: resetBreakerBit,
		breakerBits:     breakerBits,
		onStateChange:   onStateChange,
	}
}

// Actual returns the subsystem's current actual power state.
func (s *Subsystem) Actual() State { return s.actual }

// Target returns the subsystem's commanded power state.
func (s *Subsystem) Target() State { return s.target }

// PowerOn requests the bus be switched on, starting the Off→TurningOn
// sequence on the next ProcessDAQ call. It is idempotent while already On
// or TurningOn.
func (s *Subsystem) PowerOn(out *bits.OutputPortBits, now time.Time) {
	if s.target == On {
		return
	}
	s.target = On
	_ = out.Set(s.powerOnBit, true)
	if s.actual == Off {
		s.setActual(TurningOn, now)
	}
}

// PowerOff requests the bus be switched off, starting the
// On→TurningOff→Off sequence.
func (s *Subsystem) PowerOff(out *bits.OutputPortBits, now time.Time) {
	if s.target == Off {
		return
	}
	s.target = Off
	_ = out.Set(s.powerOnBit, false)
	if s.actual == On || s.actual == Resetting {
		s.setActual(TurningOff, now)
	}
}

func (s *Subsystem) setActual(next State, now time.Time) {
	prev := s.actual
	s.actual = next
	switch next {
	case TurningOn:
		s.phaseDeadline = now.Add(s.Config.OutputOnMaxDelay())
	case TurningOff:
		s.phaseDeadline = now.Add(s.Config.OutputOffMaxDelay())
	case Resetting:
		s.phaseDeadline = now.Add(s.Config.ResetBreakerPulseWidth)
	default:
		s.phaseDeadline = time.Time{}
	}
	if prev != next && s.onStateChange != nil {
		s.onStateChange(s.Bus, next, s.target)
	}
}

// CheckBreakerStatus decodes the three breaker feed positions into a
// synthesized 3-bit pattern and returns the resulting status.
func (s *Subsystem) CheckBreakerStatus(in *bits.InputPortBits) BreakerStatus {
	var pattern uint8
	for i, pos := range s.breakerBits {
		if in.Get(pos) {
			pattern |= 1 << uint(i)
		}
	}
	return decodeBreakerGroup(pattern)
}

// ProcessDAQ advances the subsystem's state machine given the latest I/O
// snapshot, and folds any observed fault condition (including healthFaults,
// computed once per tick by System and shared across both buses) into its
// fault manager. out is threaded through so a stuck TurningOn phase can
// assert the breaker-reset output bit without a back-reference to System.
func (s *Subsystem) ProcessDAQ(out *bits.OutputPortBits, snap sysinfo.SysInfo, now time.Time, healthFaults faultbits.Bits) {
	voltage, current, breakerClosed := s.readings(snap)

	var stateFaults faultbits.Bits
	switch s.actual {
	case Off:
		// nothing to advance; PowerOn drives the transition out of Off.
	case TurningOn:
		stateFaults = s.processPoweringOn(out, &snap.Input, now, breakerClosed)
	case Resetting:
		s.processResetting(out, now)
	case On:
		s.processOn(now, voltage, current)
	case TurningOff:
		s.processPoweringOff(now, voltage)
	}

	s.updateFaults(voltage, current, healthFaults|stateFaults)
}

func (s *Subsystem) readings(snap sysinfo.SysInfo) (voltage, current float64, breakerClosed bool) {
	if s.Bus == Comm {
		return snap.CommVoltage, snap.CommCurrent, snap.CommBreakerClosed
	}
	return snap.MotorVoltage, snap.MotorCurrent, snap.MotorBreakerClosed
}

func (s *Subsystem) processPoweringOn(out *bits.OutputPortBits, in *bits.InputPortBits, now time.Time, breakerClosed bool) faultbits.Bits {
	var status faultbits.Bits
	if breakerClosed {
		s.setActual(On, now)
		return status
	}
	if now.After(s.phaseDeadline) {
		if s.CheckBreakerStatus(in) != BreakerOK {
			s.ResetBreakers(out, now)
			return status
		}
		status = status.Set(faultbits.PowerRelayOpenFault, true)
	}
	return status
}

func (s *Subsystem) processResetting(out *bits.OutputPortBits, now time.Time) {
	if now.After(s.phaseDeadline) {
		_ = out.Set(s.resetBreakerBit, false)
		s.setActual(Off, now)
		if s.target == On {
			s.setActual(TurningOn, now)
		}
	}
}

func (s *Subsystem) processOn(now time.Time, voltage, current float64) {
	if voltage < s.Config.MinVoltageFault || voltage > s.Config.MaxVoltageFault || current > s.Config.MaxCurrent {
		s.setActual(TurningOff, now)
	}
}

func (s *Subsystem) processPoweringOff(now time.Time, voltage float64) {
	if voltage <= s.Config.VoltageOffLevel || now.After(s.phaseDeadline) {
		s.setActual(Off, now)
	}
}

// ResetBreakers transitions to Resetting, pulsing the breaker-reset output
// bit for Config.ResetBreakerPulseWidth.
func (s *Subsystem) ResetBreakers(out *bits.OutputPortBits, now time.Time) {
	_ = out.Set(s.resetBreakerBit, true)
	s.setActual(Resetting, now)
}

func (s *Subsystem) voltageFaultBit() int {
	if s.Bus == Comm {
		return faultbits.CommVoltageFault
	}
	return faultbits.MotorVoltageFault
}

func (s *Subsystem) overCurrentBit() int {
	if s.Bus == Comm {
		return faultbits.CommOverCurrent
	}
	return faultbits.MotorOverCurrent
}

// updateFaults merges this bus's own voltage/current fault bits with
// healthFaults (System's shared health faults, computed once per tick and
// passed to both buses, plus any fault the state handler raised this tick)
// into a single UpdatePowerFaults call, since Mgr.SetCurrent
// overwrites rather than accumulates across multiple calls within one tick.
func (s *Subsystem) updateFaults(voltage, current float64, healthFaults faultbits.Bits) {
	status := healthFaults
	if voltage < s.Config.MinVoltageFault || voltage > s.Config.MaxVoltageFault {
		status = status.Set(s.voltageFaultBit(), true)
	} else if voltage < s.Config.MinVoltageWarn || voltage > s.Config.MaxVoltageWarn {
		if s.Bus == Comm {
			status = status.Set(faultbits.CommVoltageWarn, true)
		} else {
			status = status.Set(faultbits.MotorVoltageWarn, true)
		}
	}
	if current > s.Config.MaxCurrent {
		status = status.Set(s.overCurrentBit(), true)
	}
	s.Faults.UpdatePowerFaults(s.Bus, status)
}
