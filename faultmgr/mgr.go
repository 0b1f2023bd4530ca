package faultmgr

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/m2cell/cellctrl/faultbits"
)

// BroadcastFunc is called whenever a fault manager's summary changes, with
// the owning subsystem, the new summary, and the bits that changed. The
// telemetry package registers one of these to forward changes onto the
// summaryFaultsStatus telemetry item.
type BroadcastFunc func(owner CrioSubsystem, bus faultbits.PowerSystemType, summary, changedBits faultbits.Bits)

// Mgr owns one BasicFaultMgr per logical subsystem: the system controller,
// each power bus, and telemetry. Every exported method is safe for
// concurrent use; each guard serializes access to its own manager
// independently so a slow MOTOR-bus fault update never blocks a COMM-bus
// one.
type Mgr struct {
	system    guard
	motor     guard
	comm      guard
	telemetry guard

	broadcast BroadcastFunc
	limiter   *catrate.Limiter
}

// New returns a Mgr with freshly constructed, independent fault managers
// for every owner.
func New(broadcast BroadcastFunc) *Mgr {
	m := &Mgr{
		system:    guard{mgr: NewBasicFaultMgr()},
		motor:     guard{mgr: NewPowerFaultMgr()},
		comm:      guard{mgr: NewPowerFaultMgr()},
		telemetry: guard{mgr: NewTelemetryFaultMgr()},
		broadcast: broadcast,
		// A single flapping bit should not be reported more than a few
		// times a second; this bounds broadcast volume independent of
		// how often the owning subsystem recomputes its summary.
		limiter: catrate.NewLimiter(map[time.Duration]int{time.Second: 10}),
	}
	return m
}

func (m *Mgr) guardFor(bus faultbits.PowerSystemType) *guard {
	if bus == faultbits.Comm {
		return &m.comm
	}
	return &m.motor
}

// UpdatePowerFaults stages a newly observed fault status for bus and
// recomputes its summary, broadcasting the change (subject to rate
// limiting) if anything changed.
func (m *Mgr) UpdatePowerFaults(bus faultbits.PowerSystemType, current faultbits.Bits) {
	g := m.guardFor(bus)
	g.mu.Lock()
	g.mgr.SetCurrent(current)
	changed, changedBits := g.mgr.UpdateFaults()
	summary := g.mgr.Summary()
	g.mu.Unlock()

	if changed {
		m.emit(PowerSubsystem, bus, summary, changedBits)
	}
}

// SystemSummary returns the system controller's current fault summary.
func (m *Mgr) SystemSummary() faultbits.Bits {
	m.system.mu.Lock()
	defer m.system.mu.Unlock()
	return m.system.mgr.Summary()
}

// PowerSummary returns bus's current fault summary.
func (m *Mgr) PowerSummary(bus faultbits.PowerSystemType) faultbits.Bits {
	g := m.guardFor(bus)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mgr.Summary()
}

// ReportComConnectionCount folds a cRIO COMM connectivity observation into
// the system controller's summary: zero connections raises CrioCommFault,
// any positive count clears it.
func (m *Mgr) ReportComConnectionCount(count int) {
	m.system.mu.Lock()
	var bit faultbits.Bits
	bit = bit.Set(faultbits.CrioCommFault, true)
	if count == 0 {
		m.system.mgr.SetMaskComm(bit)
	} else {
		m.system.mgr.ResetFaults(bit)
	}
	summary := m.system.mgr.Summary()
	m.system.mu.Unlock()

	m.emit(SystemController, faultbits.Motor, summary, bit)
}

// ResetFaults clears mask from bus's fault manager.
func (m *Mgr) ResetFaults(bus faultbits.PowerSystemType, mask faultbits.Bits) {
	g := m.guardFor(bus)
	g.mu.Lock()
	g.mgr.ResetFaults(mask)
	g.mu.Unlock()
}

// ResetSystemFaults clears mask from the system controller's fault
// manager.
func (m *Mgr) ResetSystemFaults(mask faultbits.Bits) {
	m.system.mu.Lock()
	m.system.mgr.ResetFaults(mask)
	m.system.mu.Unlock()
}

// CheckForPowerSubsystemFaults reports whether bus's summary has any bit
// set within mask.
func (m *Mgr) CheckForPowerSubsystemFaults(bus faultbits.PowerSystemType, mask faultbits.Bits) bool {
	return m.PowerSummary(bus)&mask != 0
}

// EnableFaultsInMask ORs mask into bus's enable mask and returns the
// resulting enable mask.
func (m *Mgr) EnableFaultsInMask(bus faultbits.PowerSystemType, mask faultbits.Bits) faultbits.Bits {
	g := m.guardFor(bus)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mgr.enableMask |= mask
	return g.mgr.enableMask
}

// TelemetrySummary returns the telemetry fault manager's current summary.
func (m *Mgr) TelemetrySummary() faultbits.Bits {
	m.telemetry.mu.Lock()
	defer m.telemetry.mu.Unlock()
	return m.telemetry.mgr.Summary()
}

// UpdateTelemetryFaults stages and recomputes the telemetry fault
// manager's summary, mirroring UpdatePowerFaults for the telemetry owner.
func (m *Mgr) UpdateTelemetryFaults(current faultbits.Bits) {
	m.telemetry.mu.Lock()
	m.telemetry.mgr.SetCurrent(current)
	changed, changedBits := m.telemetry.mgr.UpdateFaults()
	summary := m.telemetry.mgr.Summary()
	m.telemetry.mu.Unlock()

	if changed {
		m.emit(TelemetryLogger, faultbits.Motor, summary, changedBits)
	}
}

func (m *Mgr) emit(owner CrioSubsystem, bus faultbits.PowerSystemType, summary, changedBits faultbits.Bits) {
	if m.broadcast == nil {
		return
	}
	if changedBits == 0 {
		m.broadcast(owner, bus, summary, changedBits)
		return
	}
	if _, ok := m.limiter.Allow(owner.String()); !ok {
		return
	}
	m.broadcast(owner, bus, summary, changedBits)
}
