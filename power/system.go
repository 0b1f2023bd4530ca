package power

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-microbatch"
	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/faultmgr"
	"github.com/m2cell/cellctrl/internal/calog"
	"github.com/m2cell/cellctrl/sysinfo"
)

// SysInfoTimeout is the maximum age a SysInfo snapshot may reach before
// System escalates it to a POWER_SYSTEM_TIMEOUT fault.
const SysInfoTimeout = 1500 * time.Millisecond

// Reader is satisfied by whatever produces SysInfo snapshots — the
// simulator in tests and demo mode, or an FPGA-backed reader in
// production.
type Reader interface {
	Read() sysinfo.SysInfo
}

// System owns both power buses and the single event-queue goroutine that
// serializes every DAQ-read and timeout-check task posted to it, per the
// "no concurrent state mutation" rule of the concurrency model. Posted
// tasks are coalesced through a microbatch.Batcher so a burst of
// near-simultaneous postings collapses into one processing pass.
type System struct {
	Motor *Subsystem
	Comm  *Subsystem

	reader Reader
	output *bits.OutputPortBits
	log    *calog.Log

	batcher *microbatch.Batcher[func()]

	lastSnap   atomic.Pointer[sysinfo.SysInfo]
	run        atomic.Bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	faultsMgr  *faultmgr.Mgr
}

// NewSystem constructs a System wired to reader for snapshots and out for
// staged output bit writes, with both bus subsystems configured per the
// standard motor/comm bit-position wiring.
//
// onBusStateChange fires on every per-bus actual-state transition (used by
// telemetry, which reports each bus independently). onSystemStateChange
// fires alongside it but is additionally handed both buses' current
// actual/target state, since reconciling into the top-level system state
// requires knowing about MOTOR and COMM together, not just the bus that
// just changed.
func NewSystem(reader Reader, out *bits.OutputPortBits, faults *faultmgr.Mgr, log *calog.Log, onBusStateChange func(Bus, State, State), onSystemStateChange func(motorActual, motorTarget, commActual, commTarget State)) *System {
	s := &System{
		reader:    reader,
		output:    out,
		log:       log,
		faultsMgr: faults,
	}
	wrap := func(bus Bus, actual, target State) {
		if onBusStateChange != nil {
			onBusStateChange(bus, actual, target)
		}
		if onSystemStateChange != nil {
			onSystemStateChange(s.Motor.Actual(), s.Motor.Target(), s.Comm.Actual(), s.Comm.Target())
		}
	}
	s.Motor = NewSubsystem(Motor, faults, bits.MotorPowerOn, bits.ResetMotorBreakers,
		[3]int{bits.J1W9_1MtrPwrBrkrOK, bits.J2W10_1MtrPwrBrkrOK, bits.J3W11_1MtrPwrBrkrOK}, wrap)
	s.Comm = NewSubsystem(Comm, faults, bits.IlcCommPowerOn, bits.ResetCommBreakers,
		[3]int{bits.J1W12_1CommPwrBrkrOK, bits.J1W12_2CommPwrBrkrOK, bits.AlwaysHigh}, wrap)

	s.batcher = microbatch.NewBatcher[func()](&microbatch.BatcherConfig{
		MaxSize:       8,
		FlushInterval: 10 * time.Millisecond,
	}, func(_ context.Context, tasks []func()) error {
		for _, t := range tasks {
			t()
		}
		return nil
	})
	return s
}

// Start launches the DAQ-read producer loop (ticking at period) and the
// 1Hz timeout-poster loop.
func (s *System) Start(period time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.run.Store(true)

	s.wg.Add(2)
	go s.daqLoop(ctx, period)
	go s.timeoutLoop(ctx)
}

// Stop cancels both loops and closes the event batcher, joining in LIFO
// order relative to Start (timeout loop and DAQ loop both observe the
// same context cancellation).
func (s *System) Stop() {
	if !s.run.CompareAndSwap(true, false) {
		return
	}
	s.cancel()
	s.wg.Wait()
	_ = s.batcher.Shutdown(context.Background())
}

func (s *System) daqLoop(ctx context.Context, period time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.QueueDAQInfoRead(ctx)
		}
	}
}

func (s *System) timeoutLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.QueueTimeoutCheck(ctx)
		}
	}
}

// QueueDAQInfoRead posts a task to read the latest snapshot and advance
// both subsystems' state machines, in COMM-before-MOTOR order: COMM
// carries the command/telemetry link, so its health is assessed first.
//
// It also derives the shared power-supply health faults from the
// redundancy/load-share input bits and applies the same bits to both
// buses, and enforces the MOTOR-requires-COMM backstop: if MOTOR_POWER_ON
// is latched on the output side but ILC_COMM_POWER_ON is not, MOTOR is
// forced off on this tick rather than waiting for the next PowerMotor call.
func (s *System) QueueDAQInfoRead(ctx context.Context) {
	_, _ = s.batcher.Submit(ctx, func() {
		snap := s.reader.Read()
		s.lastSnap.Store(&snap)
		now := snap.Timestamp

		health := s.healthFaults(&snap.Input)

		s.Comm.ProcessDAQ(s.output, snap, now, health)
		s.Motor.ProcessDAQ(s.output, snap, now, health)

		if s.output.Get(bits.MotorPowerOn) && !s.output.Get(bits.IlcCommPowerOn) {
			s.log.Warning().Str("bus", "motor").Log("motor power on without comm power, forcing motor off")
			s.Motor.PowerOff(s.output, now)
		}
	})
}

// healthFaults derives POWER_HEALTH_FAULT and POWER_SUPPLY_LOAD_SHARE_ERR
// from the power-supply redundancy/load-distribution input bits. Both
// buses share a single power-supply pair, so the same result is folded
// into both subsystems' fault status on every tick.
func (s *System) healthFaults(in *bits.InputPortBits) faultbits.Bits {
	var status faultbits.Bits
	if !in.Get(bits.PowerSupply1DCOK) || !in.Get(bits.PowerSupply2DCOK) {
		status = status.Set(faultbits.PowerHealthFault, true)
	}
	if !in.Get(bits.RedundancyOK) || !in.Get(bits.LoadDistributionOK) {
		status = status.Set(faultbits.PowerSupplyLoadShareErr, true)
	}
	return status
}

// QueueTimeoutCheck posts a task to check the age of the last snapshot
// against SysInfoTimeout, raising POWER_SYSTEM_TIMEOUT on both power
// buses' fault managers if it has gone stale.
func (s *System) QueueTimeoutCheck(ctx context.Context) {
	_, _ = s.batcher.Submit(ctx, func() {
		last := s.lastSnap.Load()
		if last == nil {
			return
		}
		if time.Since(last.Timestamp) > SysInfoTimeout {
			s.log.Warning().Str("bus", "system").Log("sysinfo stale, raising power system timeout")
			var status faultbits.Bits
			status = status.Set(faultbits.PowerSystemTimeout, true)
			s.faultsMgr.UpdatePowerFaults(Motor, status)
			s.faultsMgr.UpdatePowerFaults(Comm, status)
		}
	})
}

// PowerMotor commands the MOTOR bus on or off. Turning MOTOR on is refused
// while COMM is not actually On: MOTOR power depends on the ILC comm link
// being up, so commanding it on without COMM risks exactly the fault
// QueueDAQInfoRead's backstop exists to catch.
func (s *System) PowerMotor(on bool) error {
	now := time.Now()
	if on {
		if s.Comm.Actual() != On {
			return fmt.Errorf("power: refusing motor on: comm actual state is %s, not On", s.Comm.Actual())
		}
		s.Motor.PowerOn(s.output, now)
		return nil
	}
	s.Motor.PowerOff(s.output, now)
	return nil
}

// PowerComm commands the COMM bus on or off. Powering COMM off forces
// MOTOR off first, since MOTOR cannot be safely left on without the comm
// link that its power depends on.
func (s *System) PowerComm(on bool) error {
	now := time.Now()
	if on {
		s.Comm.PowerOn(s.output, now)
		return nil
	}
	s.Motor.PowerOff(s.output, now)
	s.Comm.PowerOff(s.output, now)
	return nil
}

// LastSnapshot returns the most recently published SysInfo, or the zero
// value if none has been read yet.
func (s *System) LastSnapshot() sysinfo.SysInfo {
	if p := s.lastSnap.Load(); p != nil {
		return *p
	}
	return sysinfo.SysInfo{}
}
