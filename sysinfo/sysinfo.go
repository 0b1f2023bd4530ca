// Package sysinfo defines the immutable snapshot of digital I/O and
// per-bus analog readings that flows from the I/O layer to everything
// that reacts to it.
package sysinfo

import (
	"time"

	"github.com/m2cell/cellctrl/bits"
)

// SysInfo is a point-in-time snapshot of the cell's digital and analog
// I/O. Once constructed it is never mutated; callers that need an updated
// view take a fresh snapshot instead of patching an old one, so a SysInfo
// can be safely read from multiple goroutines without synchronization.
type SysInfo struct {
	Timestamp time.Time

	Output bits.OutputPortBits
	Input  bits.InputPortBits

	MotorVoltage       float64
	MotorCurrent       float64
	MotorBreakerClosed bool

	CommVoltage       float64
	CommCurrent       float64
	CommBreakerClosed bool

	// Iterations counts how many read cycles have produced a snapshot.
	Iterations uint64
}

// Clone returns a value copy of s, safe to hand to a caller that might
// otherwise alias the producer's internal state.
func (s SysInfo) Clone() SysInfo { return s }

// Age reports how long ago the snapshot was taken.
func (s SysInfo) Age(now time.Time) time.Duration { return now.Sub(s.Timestamp) }
