package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2cell/cellctrl/power"
)

type transitionRecord struct {
	prev, next SystemState
}

func newTestModel(records *[]transitionRecord) *Model {
	return New(func(prev, next SystemState) {
		*records = append(*records, transitionRecord{prev, next})
	})
}

func TestModelStartsInStartup(t *testing.T) {
	m := New(nil)
	assert.Equal(t, Startup, m.State())
}

func TestModelFullHappyPathTransitions(t *testing.T) {
	var records []transitionRecord
	m := newTestModel(&records)

	assert.Equal(t, Standby, m.CtrlReady())
	m.ReportPowerSystemStateChange(power.On, power.On, power.On, power.On)
	assert.Equal(t, Idle, m.State())

	assert.Equal(t, InMotion, m.StartMotion())
	assert.Equal(t, Pause, m.PauseMotion())
	assert.Equal(t, InMotion, m.ResumeMotion())
	assert.Equal(t, Idle, m.StopMotion())

	require.Len(t, records, 6)
	assert.Equal(t, SystemState(Startup), records[0].prev)
	assert.Equal(t, SystemState(Standby), records[0].next)
}

func TestModelStartMotionRejectedFromStandbyRequiresPowerOnFirst(t *testing.T) {
	m := New(nil)
	m.CtrlReady()
	// Still Standby: power bus has not come on, so StartMotion is a no-op.
	assert.Equal(t, Standby, m.StartMotion())
}

func TestModelSafeModeRequestForcesStandbyFromActiveStates(t *testing.T) {
	for _, seed := range []func(*Model){
		func(m *Model) {
			m.CtrlReady()
			m.ReportPowerSystemStateChange(power.On, power.On, power.On, power.On)
		},
		func(m *Model) {
			m.CtrlReady()
			m.ReportPowerSystemStateChange(power.On, power.On, power.On, power.On)
			m.StartMotion()
		},
		func(m *Model) {
			m.CtrlReady()
			m.ReportPowerSystemStateChange(power.On, power.On, power.On, power.On)
			m.StartMotion()
			m.PauseMotion()
		},
	} {
		m := New(nil)
		seed(m)
		assert.Equal(t, Standby, m.SafeModeRequest())
	}
}

func TestModelPowerBusOffFallsBackToStandbyFromIdle(t *testing.T) {
	m := New(nil)
	m.CtrlReady()
	m.ReportPowerSystemStateChange(power.On, power.On, power.On, power.On)
	require.Equal(t, Idle, m.State())

	m.ReportPowerSystemStateChange(power.Off, power.Off, power.On, power.On)
	assert.Equal(t, Standby, m.State(), "either bus leaving On drops the system back to Standby")
}

func TestModelReportPowerSystemStateChangeIgnoresTransientStates(t *testing.T) {
	m := New(nil)
	m.CtrlReady()
	m.ReportPowerSystemStateChange(power.TurningOn, power.On, power.On, power.On)
	assert.Equal(t, Standby, m.State(), "an in-flight transition must not move the system state")
}

func TestModelReportPowerSystemStateChangeRequiresBothBusesOnToAdvance(t *testing.T) {
	m := New(nil)
	m.CtrlReady()
	// COMM reaches On first, per the mandated startup order, while MOTOR is
	// still Off: advancing to Idle on this event alone would be premature.
	m.ReportPowerSystemStateChange(power.Off, power.Off, power.On, power.On)
	assert.Equal(t, Standby, m.State(), "comm alone reaching On must not advance the system state")

	m.ReportPowerSystemStateChange(power.On, power.On, power.On, power.On)
	assert.Equal(t, Idle, m.State(), "both buses On together must advance the system state")
}

func TestModelShutdownReachesOfflineFromStandby(t *testing.T) {
	m := New(nil)
	m.CtrlReady()
	assert.Equal(t, Offline, m.Shutdown())
}

func TestModelOnChangeSkippedOnNoOpTransition(t *testing.T) {
	var records []transitionRecord
	m := newTestModel(&records)
	m.CtrlReady()
	records = nil

	// Standby's self-targeting evSafeModeRequest entry is a same-state
	// transition and must not fire onChange.
	m.SafeModeRequest()
	assert.Empty(t, records)
}

func TestModelOfflineIsTerminal(t *testing.T) {
	m := New(nil)
	m.CtrlReady()
	m.Shutdown()
	require.Equal(t, Offline, m.State())

	assert.Equal(t, Offline, m.StartMotion())
	assert.Equal(t, Offline, m.SafeModeRequest())
}
