// Package motion implements the minimal MotionEngine shell this control
// core carries: a staleness watchdog over the last-seen telemetry
// timestamp, checked by a single ticker goroutine. Trajectory planning
// and closed-loop force math are explicitly out of scope.
package motion

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/faultmgr"
	"github.com/m2cell/cellctrl/model"
)

// Config configures the staleness thresholds.
type Config struct {
	WarnAfter  time.Duration
	FaultAfter time.Duration
	// StaleDataBitsEnabled gates whether staleness ever raises bits at
	// all. Defaults to enabled: see the Open Question decision recorded
	// in DESIGN.md.
	StaleDataBitsEnabled bool
}

// DefaultConfig returns the standard staleness thresholds.
func DefaultConfig() Config {
	return Config{
		WarnAfter:            500 * time.Millisecond,
		FaultAfter:           2 * time.Second,
		StaleDataBitsEnabled: true,
	}
}

// Engine is the motion subsystem's staleness watchdog: it tracks when
// telemetry was last observed and escalates staleness into faults and, on
// fault, a safe-mode request.
type Engine struct {
	cfg    Config
	faults *faultmgr.Mgr
	sysMdl *model.Model

	lastSeen atomic.Int64 // unix nanos

	run    atomic.Bool
	cancel func()
	wg     sync.WaitGroup
}

// NewEngine constructs an Engine using cfg's thresholds, reporting into
// faults and requesting safe mode via sysMdl when staleness escalates to
// a fault.
func NewEngine(cfg Config, faults *faultmgr.Mgr, sysMdl *model.Model) *Engine {
	e := &Engine{cfg: cfg, faults: faults, sysMdl: sysMdl}
	e.Touch(time.Now())
	return e
}

// Touch records that telemetry was observed at t, used by whatever
// produces motion telemetry (a command handler, a telemetry tick) to
// reset the staleness clock.
func (e *Engine) Touch(t time.Time) { e.lastSeen.Store(t.UnixNano()) }

// Start launches the timeout-poster loop at the given poll interval.
func (e *Engine) Start(pollInterval time.Duration) {
	done := make(chan struct{})
	e.cancel = func() { close(done) }
	e.run.Store(true)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				e.checkStaleness()
			}
		}
	}()
}

// Stop halts the poller.
func (e *Engine) Stop() {
	if !e.run.CompareAndSwap(true, false) {
		return
	}
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) checkStaleness() {
	if !e.cfg.StaleDataBitsEnabled {
		return
	}
	age := time.Since(time.Unix(0, e.lastSeen.Load()))

	var status faultbits.Bits
	switch {
	case age >= e.cfg.FaultAfter:
		status = status.Set(faultbits.StaleDataFault, true)
		e.faults.UpdateTelemetryFaults(status)
		e.sysMdl.SafeModeRequest()
	case age >= e.cfg.WarnAfter:
		status = status.Set(faultbits.StaleDataWarn, true)
		e.faults.UpdateTelemetryFaults(status)
	default:
		e.faults.UpdateTelemetryFaults(0)
	}
}
