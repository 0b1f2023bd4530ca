// Package faultmgr aggregates the per-subsystem fault managers (system
// controller, MOTOR bus, COMM bus, telemetry) that each own a summary of
// the 64-bit fault/warning/info bitmap and recompute it via the pure
// faultbits.UpdateFaultStatus algorithm.
package faultmgr

import (
	"sync"
	"time"

	"github.com/m2cell/cellctrl/faultbits"
)

// CrioSubsystem names the owning subsystem of a BasicFaultMgr instance,
// used only for diagnostics and log tagging.
type CrioSubsystem int

const (
	SystemController CrioSubsystem = iota
	FaultManager
	PowerSubsystem
	CellController
	TelemetryLogger
	NetworkInterface
	MotionEngine
)

func (s CrioSubsystem) String() string {
	switch s {
	case SystemController:
		return "SYSTEM_CONTROLLER"
	case FaultManager:
		return "FAULT_MANAGER"
	case PowerSubsystem:
		return "POWER_SUBSYSTEM"
	case CellController:
		return "CELL_CONTROLLER"
	case TelemetryLogger:
		return "TELEMETRY_LOGGER"
	case NetworkInterface:
		return "NETWORK_INTERFACE"
	case MotionEngine:
		return "MOTION_ENGINE"
	default:
		return "UNKNOWN_SUBSYSTEM"
	}
}

// BasicFaultMgr tracks a running fault/warning/info summary for one
// logical owner (the system controller, a power bus, or telemetry).
// It is not safe for concurrent use; callers serialize access (faultmgr.Mgr
// does this with one mutex per instance).
type BasicFaultMgr struct {
	summary faultbits.Bits
	prev    faultbits.Bits
	current faultbits.Bits

	enableMask  faultbits.Bits
	defaultMask faultbits.Bits

	affectedFault    faultbits.Bits
	affectedWarnInfo faultbits.Bits

	timestamp time.Time
}

// NewBasicFaultMgr returns a manager whose enable/default masks are the
// full faults mask, matching the original's default construction.
func NewBasicFaultMgr() *BasicFaultMgr {
	return &BasicFaultMgr{
		enableMask:  faultbits.MaskFaults(),
		defaultMask: faultbits.MaskFaults(),
		timestamp:   time.Now(),
	}
}

// SetAffectedMasks configures which bits this manager is responsible for
// raising. Power and telemetry fault managers call this at construction
// time with their respective affected masks; the system controller's
// manager leaves both at zero, so UpdateFaults raises no bit on it and
// clears its summary.
func (m *BasicFaultMgr) SetAffectedMasks(affectedFault, affectedWarnInfo faultbits.Bits) {
	m.affectedFault = affectedFault
	m.affectedWarnInfo = affectedWarnInfo
}

// Summary returns the current latched fault/warning/info summary.
func (m *BasicFaultMgr) Summary() faultbits.Bits { return m.summary }

// EnableMask returns the mask of bits this manager currently allows to be
// raised.
func (m *BasicFaultMgr) EnableMask() faultbits.Bits { return m.enableMask }

// SetCurrent stages a freshly observed status bitmap, to be folded into
// the summary on the next UpdateFaults call.
func (m *BasicFaultMgr) SetCurrent(status faultbits.Bits) { m.current = status }

// UpdateFaults runs the pure recomputation if, and only if, the staged
// current status differs from the previous one within the enabled mask.
// It returns whether the summary changed, and the bits that changed.
func (m *BasicFaultMgr) UpdateFaults() (changed bool, changedBits faultbits.Bits) {
	diff := (m.prev ^ m.current) & m.enableMask
	if diff == 0 {
		return false, 0
	}
	m.prev = m.summary

	updated, cb := faultbits.UpdateFaultStatus(m.summary, m.enableMask, m.current, m.affectedWarnInfo, m.affectedFault)
	m.summary = updated
	m.timestamp = time.Now()
	return true, cb
}

// ResetFaults clears every bit in mask from the summary, current, and
// previous bitmaps — used by operator-issued fault resets.
func (m *BasicFaultMgr) ResetFaults(mask faultbits.Bits) {
	notMask := ^mask
	m.summary &= notMask
	m.current &= notMask
	m.prev &= notMask
	m.timestamp = time.Now()
}

// UpdateSummary overwrites the summary directly with a pre-computed
// status, keeping the old summary as the previous one.
func (m *BasicFaultMgr) UpdateSummary(newSummary faultbits.Bits) {
	m.prev = m.summary
	m.summary = newSummary
	m.current = m.summary
}

// SetMaskComm folds newFaultMask into the enable mask, affected-fault
// mask, and current/summary state in one step — used to report a cRIO
// COMM disconnect fault, which carries its own single-bit mask.
func (m *BasicFaultMgr) SetMaskComm(newFaultMask faultbits.Bits) {
	m.enableMask |= newFaultMask
	m.affectedFault |= newFaultMask
	m.prev = m.current
	m.current = newFaultMask
	m.summary = (m.summary & m.defaultMask) | m.current
	m.current = m.summary
	m.timestamp = time.Now()
}

// Timestamp returns when the summary was last recomputed.
func (m *BasicFaultMgr) Timestamp() time.Time { return m.timestamp }

// NewPowerFaultMgr returns a BasicFaultMgr configured with the
// power-subsystem affected fault/warn masks, per PowerFaultMgr's
// constructor.
func NewPowerFaultMgr() *BasicFaultMgr {
	m := NewBasicFaultMgr()
	m.SetAffectedMasks(
		faultbits.PowerSubsystemFaultManagerAffectedFaultMask(),
		faultbits.PowerSubsystemFaultManagerAffectedWarningMask(),
	)
	return m
}

// NewTelemetryFaultMgr returns a BasicFaultMgr configured with the
// telemetry fault manager's affected fault/warn masks. Its enable mask
// also admits STALE_DATA_WARN and STALE_DATA_FAULT, which motion.Engine
// raises when its StaleDataBitsEnabled config is set.
func NewTelemetryFaultMgr() *BasicFaultMgr {
	m := NewBasicFaultMgr()
	m.enableMask = m.enableMask.Set(faultbits.StaleDataWarn, true).Set(faultbits.StaleDataFault, true)
	m.SetAffectedMasks(
		faultbits.TelemetryFaultManagerAffectedFaultMask(),
		faultbits.TelemetryFaultManagerAffectedWarningMask(),
	)
	return m
}

// guard pairs a BasicFaultMgr with the mutex that serializes access to it,
// since faultmgr.Mgr exposes several independent managers to multiple
// goroutines (power buses, the command dispatcher, telemetry).
type guard struct {
	mu  sync.Mutex
	mgr *BasicFaultMgr
}
