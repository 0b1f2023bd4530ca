// Package model implements the top-level system state machine that
// reconciles power-bus state changes and operator commands into one
// supervisory SystemState, dispatching events through a state table the
// same way a bubbletea Model reduces UI messages into a new Model via
// Update.
package model

import (
	"sync"

	"github.com/m2cell/cellctrl/power"
)

// SystemState is the top-level operational state of the cell controller.
type SystemState int

const (
	Startup SystemState = iota
	Standby
	Idle
	InMotion
	Pause
	Offline
)

func (s SystemState) String() string {
	switch s {
	case Startup:
		return "STARTUP"
	case Standby:
		return "STANDBY"
	case Idle:
		return "IDLE"
	case InMotion:
		return "IN_MOTION"
	case Pause:
		return "PAUSE"
	case Offline:
		return "OFFLINE"
	default:
		return "UNKNOWN"
	}
}

// event names the inputs the state table dispatches on.
type event int

const (
	evCtrlReady event = iota
	evPowerBusOn
	evPowerBusOff
	evStartMotion
	evPauseMotion
	evResumeMotion
	evStopMotion
	evSafeModeRequest
	evShutdown
)

// Model is the supervisory state machine. It is safe for concurrent use:
// every transition is serialized behind a single mutex, matching the
// "one authoritative copy of SystemState" invariant of the concurrency
// model.
type Model struct {
	mu    sync.Mutex
	state SystemState

	onChange func(prev, next SystemState)
}

// New returns a Model starting in Startup.
func New(onChange func(prev, next SystemState)) *Model {
	return &Model{state: Startup, onChange: onChange}
}

// State returns the current system state.
func (m *Model) State() SystemState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

var transitions = map[SystemState]map[event]SystemState{
	Startup: {
		evCtrlReady: Standby,
		evShutdown:  Offline,
	},
	Standby: {
		evPowerBusOn:      Idle,
		evSafeModeRequest: Standby,
		evShutdown:        Offline,
	},
	Idle: {
		evStartMotion:     InMotion,
		evPowerBusOff:     Standby,
		evSafeModeRequest: Standby,
		evShutdown:        Offline,
	},
	InMotion: {
		evPauseMotion:     Pause,
		evStopMotion:      Idle,
		evPowerBusOff:     Standby,
		evSafeModeRequest: Standby,
		evShutdown:        Offline,
	},
	Pause: {
		evResumeMotion:    InMotion,
		evStopMotion:      Idle,
		evPowerBusOff:     Standby,
		evSafeModeRequest: Standby,
		evShutdown:        Offline,
	},
	Offline: {},
}

func (m *Model) dispatch(ev event) SystemState {
	m.mu.Lock()
	next, ok := transitions[m.state][ev]
	if !ok {
		m.mu.Unlock()
		return m.State()
	}
	prev := m.state
	m.state = next
	m.mu.Unlock()

	if m.onChange != nil && prev != next {
		m.onChange(prev, next)
	}
	return next
}

// CtrlReady signals that startup self-checks have completed.
func (m *Model) CtrlReady() SystemState { return m.dispatch(evCtrlReady) }

// StartMotion requests a transition from Idle to InMotion.
func (m *Model) StartMotion() SystemState { return m.dispatch(evStartMotion) }

// PauseMotion requests a transition from InMotion to Pause.
func (m *Model) PauseMotion() SystemState { return m.dispatch(evPauseMotion) }

// ResumeMotion requests a transition from Pause back to InMotion.
func (m *Model) ResumeMotion() SystemState { return m.dispatch(evResumeMotion) }

// StopMotion requests a transition to Idle from InMotion or Pause.
func (m *Model) StopMotion() SystemState { return m.dispatch(evStopMotion) }

// SafeModeRequest forces a transition to Standby from any active state,
// used by fault escalation (e.g. motion.Engine on stale telemetry).
func (m *Model) SafeModeRequest() SystemState { return m.dispatch(evSafeModeRequest) }

// Shutdown requests a transition to Offline.
func (m *Model) Shutdown() SystemState { return m.dispatch(evShutdown) }

// ReportPowerSystemStateChange is the central reconciler between the power
// system and the top-level state: it is called with both buses' current
// actual/target state on every power-bus transition, never just the bus
// that changed, since advancing Standby→Idle requires MOTOR and COMM to
// both be On — not either one alone — and dropping back to Standby must
// fire as soon as either bus leaves On.
func (m *Model) ReportPowerSystemStateChange(motorActual, motorTarget, commActual, commTarget power.State) {
	bothOn := motorActual == power.On && motorTarget == power.On && commActual == power.On && commTarget == power.On
	switch {
	case bothOn:
		m.dispatch(evPowerBusOn)
	case motorActual != power.On || commActual != power.On:
		m.dispatch(evPowerBusOff)
	}
}
