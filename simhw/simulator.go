// Package simhw implements the simulated digital/analog I/O backend used
// in place of the real FPGA-backed cRIO I/O card — in production the same
// power.Reader interface would be satisfied by a PeriphInputBank-backed
// reader, in tests and demo mode by Simulator.
package simhw

import (
	"math"
	"sync"
	"time"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/power"
	"github.com/m2cell/cellctrl/sysinfo"
)

// ForcedFault names an analog condition a test can force onto a bus,
// independent of the staged output bits, to exercise fault detection.
type ForcedFault int

const (
	NoForcedFault ForcedFault = iota
	OverVoltage
	UnderVoltage
	OverCurrent
)

type busModel struct {
	voltage       float64
	current       float64
	breakerClosed bool
	forced        ForcedFault
}

// Simulator advances a simple analog model for both power buses: voltage
// approaches the configured nominal (or off-level) exponentially, current
// is proportional to voltage while the breaker is closed, and the breaker
// itself closes after a bus-specific delay once the output relay bit is
// set.
type Simulator struct {
	mu     sync.Mutex
	output bits.OutputPortBits
	input  bits.InputPortBits
	motor  busModel
	comm   busModel

	iterations uint64
	lastTick   time.Time
}

// NewSimulator returns a Simulator with both buses initialized off, at the
// nominal off-level voltage.
func NewSimulator() *Simulator {
	s := &Simulator{lastTick: time.Now()}
	s.motor.voltage = power.MotorConfig().VoltageOffLevel
	s.comm.voltage = power.CommConfig().VoltageOffLevel
	return s
}

// StageOutput applies a full OutputPortBits write, as produced by
// power.System acting on operator commands.
func (s *Simulator) StageOutput(out bits.OutputPortBits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = out
}

// ForceFault overrides bus's analog model with a forced condition, for
// exercising fault-detection paths in tests. Passing NoForcedFault
// restores normal simulation.
func (s *Simulator) ForceFault(bus power.Bus, fault ForcedFault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bus == power.Comm {
		s.comm.forced = fault
	} else {
		s.motor.forced = fault
	}
}

// Tick advances the analog model by dt and returns the resulting
// snapshot. Called by the embedding Read() on every poll, or directly by
// tests wanting explicit control over simulated time.
func (s *Simulator) Tick(dt time.Duration, now time.Time) sysinfo.SysInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advance(&s.motor, power.MotorConfig(), s.output.Get(bits.MotorPowerOn), dt)
	s.advance(&s.comm, power.CommConfig(), s.output.Get(bits.IlcCommPowerOn), dt)

	_ = s.input.Set(bits.J1W9_1MtrPwrBrkrOK, s.motor.breakerClosed)
	_ = s.input.Set(bits.J2W10_1MtrPwrBrkrOK, s.motor.breakerClosed)
	_ = s.input.Set(bits.J3W11_1MtrPwrBrkrOK, s.motor.breakerClosed)
	_ = s.input.Set(bits.J1W12_1CommPwrBrkrOK, s.comm.breakerClosed)
	_ = s.input.Set(bits.J1W12_2CommPwrBrkrOK, s.comm.breakerClosed)
	_ = s.input.Set(bits.J2W13_1CommPwrBrkrOK, s.comm.breakerClosed)

	s.iterations++
	s.lastTick = now

	return sysinfo.SysInfo{
		Timestamp:          now,
		Output:             s.output,
		Input:              s.input,
		MotorVoltage:       s.motor.voltage,
		MotorCurrent:       s.motor.current,
		MotorBreakerClosed: s.motor.breakerClosed,
		CommVoltage:        s.comm.voltage,
		CommCurrent:        s.comm.current,
		CommBreakerClosed:  s.comm.breakerClosed,
		Iterations:         s.iterations,
	}
}

// Read advances the model by the real elapsed time since the last read
// and returns the new snapshot; it implements power.Reader.
func (s *Simulator) Read() sysinfo.SysInfo {
	now := time.Now()
	s.mu.Lock()
	dt := now.Sub(s.lastTick)
	s.mu.Unlock()
	return s.Tick(dt, now)
}

func (s *Simulator) advance(m *busModel, cfg power.SubsystemConfig, relayClosed bool, dt time.Duration) {
	target := cfg.VoltageOffLevel
	tau := cfg.VoltageFallTime
	if relayClosed {
		target = cfg.NominalVoltage
		tau = cfg.VoltageSettlingTime
		if !m.breakerClosed && m.voltage >= cfg.BreakerOperatingVoltage {
			m.breakerClosed = true
		}
	} else {
		m.breakerClosed = false
	}

	switch m.forced {
	case OverVoltage:
		target = cfg.MaxVoltageFault + 1
	case UnderVoltage:
		target = cfg.MinVoltageFault - 1
	}

	if tau <= 0 {
		m.voltage = target
	} else {
		alpha := 1 - math.Exp(-float64(dt)/float64(tau))
		m.voltage += (target - m.voltage) * alpha
	}

	switch {
	case m.forced == OverCurrent:
		m.current = cfg.MaxCurrent + 1
	case m.breakerClosed:
		m.current = m.voltage / cfg.NominalVoltage * (cfg.MaxCurrent * 0.5)
	default:
		m.current = 0
	}
}
