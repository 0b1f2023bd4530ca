package command

import (
	"encoding/json"
	"fmt"
)

// ackCommand always succeeds, used by clients to test connectivity and
// confirm the ack/final handshake.
type ackCommand struct{}

func (ackCommand) Validate(json.RawMessage) error { return nil }
func (ackCommand) Execute(*Context, json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}

// noackCommand intentionally fails Validate, exercising the no-ack branch
// of the protocol from a recognized command name (as opposed to an
// unknown one).
type noackCommand struct{}

func (noackCommand) Validate(json.RawMessage) error { return fmt.Errorf("noack: always rejected") }
func (noackCommand) Execute(*Context, json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}

type echoParams struct {
	Msg string `json:"msg"`
}

// echoCommand returns whatever msg the client sent back to it, through
// ctx.Echo, reported in the final response's "msg" field.
type echoCommand struct{}

func (echoCommand) Validate(json.RawMessage) error { return nil }

func (echoCommand) Execute(ctx *Context, params json.RawMessage) (json.RawMessage, error) {
	if ctx.Echo == nil {
		return nil, nil
	}
	msg, err := ctx.Echo(params)
	if err != nil {
		return nil, err
	}
	result, err := json.Marshal(echoParams{Msg: msg})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type powerParams struct {
	PowerType int  `json:"powerType"`
	Status    bool `json:"status"`
}

const (
	powerTypeMotor = 1
	powerTypeComm  = 2
)

// powerCommand drives a named bus (1=MOTOR, 2=COMM) on or off. Execute
// reports the underlying refusal (e.g. MOTOR on while COMM is not On) as
// a failed command, rather than silently accepting it.
type powerCommand struct{}

func (powerCommand) Validate(params json.RawMessage) error {
	var p powerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	if p.PowerType != powerTypeMotor && p.PowerType != powerTypeComm {
		return fmt.Errorf("powerType must be 1 (motor) or 2 (comm), got %d", p.PowerType)
	}
	return nil
}

func (powerCommand) Execute(ctx *Context, params json.RawMessage) (json.RawMessage, error) {
	var p powerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	switch p.PowerType {
	case powerTypeMotor:
		return nil, ctx.PowerMotor(p.Status)
	case powerTypeComm:
		return nil, ctx.PowerComm(p.Status)
	}
	return nil, fmt.Errorf("powerType must be 1 (motor) or 2 (comm), got %d", p.PowerType)
}

// shutdownCommand requests an orderly process shutdown.
type shutdownCommand struct{}

func (shutdownCommand) Validate(json.RawMessage) error { return nil }

func (shutdownCommand) Execute(ctx *Context, _ json.RawMessage) (json.RawMessage, error) {
	if ctx.Shutdown != nil {
		ctx.Shutdown()
	}
	return nil, nil
}

// resetBreakersCommand is a supplement pulled from the original command
// set (NetCommandDefs.h); it is accepted and acked but currently a no-op,
// since breaker-reset sequencing is driven by power.Subsystem.ResetBreakers
// directly rather than by an independent command in this implementation.
type resetBreakersCommand struct{}

func (resetBreakersCommand) Validate(json.RawMessage) error { return nil }
func (resetBreakersCommand) Execute(*Context, json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}

type switchCommandSourceParams struct {
	IsRemote bool `json:"isRemote"`
}

// switchCommandSourceCommand records whether this connection is the
// remote (DDS) command source or the local one; the command layer only
// notifies ctx.SwitchCommandSource, since arbitrating between command
// sources is an operator-facing concern outside this core.
type switchCommandSourceCommand struct{}

func (switchCommandSourceCommand) Validate(params json.RawMessage) error {
	var p switchCommandSourceParams
	return json.Unmarshal(params, &p)
}

func (switchCommandSourceCommand) Execute(ctx *Context, params json.RawMessage) (json.RawMessage, error) {
	var p switchCommandSourceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if ctx.SwitchCommandSource != nil {
		ctx.SwitchCommandSource(p.IsRemote)
	}
	return nil, nil
}
