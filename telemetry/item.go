// Package telemetry implements the ~20Hz named-item broadcast: a fixed
// schema of telemetry items serialized over each connected client's JSON
// stream, plus a small push-back channel clients can use to submit values
// back (e.g. operator overrides), batched via longpoll.Channel.
package telemetry

import (
	"time"

	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/model"
	"github.com/m2cell/cellctrl/power"
)

// Item is one named telemetry payload. Name matches the wire item name
// exactly (camelCase, per the welcome-message sequence).
type Item struct {
	Name      string      `json:"name"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// AxialForce carries the 72-element LUT gravity compensation vector. It is
// the canonical large-fixed-array item, encoded through jsonenc rather
// than encoding/json's reflective path.
type AxialForce struct {
	LutGravity [72]float64 `json:"lutGravity"`
}

// TangentForce carries the 6-element tangent actuator force vector.
type TangentForce struct {
	Measured [6]float64 `json:"measured"`
}

// PowerSystemState is the per-bus power status item, posted synchronously
// by power.System via a registered callback whenever a bus's actual state
// changes, strictly before the next telemetry tick.
type PowerSystemState struct {
	PowerType string `json:"powerType"`
	State     string `json:"state"`
	Status    string `json:"status"`
}

func powerSystemStateOf(bus power.Bus, actual power.State, breaker power.BreakerStatus) PowerSystemState {
	name := "MOTOR"
	if bus == power.Comm {
		name = "COMM"
	}
	return PowerSystemState{PowerType: name, State: actual.String(), Status: breaker.String()}
}

// SummaryFaultsStatus mirrors a faultmgr.Mgr summary, broken out by owner.
type SummaryFaultsStatus struct {
	Owner      string `json:"owner"`
	Summary    uint64 `json:"summary"`
	EnumsSet   string `json:"enumsSet"`
	ChangedBit uint64 `json:"changedBit,omitempty"`
}

func summaryFaultsStatusOf(owner string, summary, changed faultbits.Bits) SummaryFaultsStatus {
	return SummaryFaultsStatus{
		Owner:      owner,
		Summary:    uint64(summary),
		EnumsSet:   summary.SetEnums(),
		ChangedBit: uint64(changed),
	}
}

// SystemStateItem mirrors model.Model's current SystemState.
type SystemStateItem struct {
	State string `json:"state"`
}

func systemStateItemOf(s model.SystemState) SystemStateItem { return SystemStateItem{State: s.String()} }

// DigitalIO mirrors the raw input/output bitmaps, for operator debugging.
type DigitalIO struct {
	Output string `json:"output"`
	Input  string `json:"input"`
}
