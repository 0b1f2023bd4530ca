// Package command implements the line-delimited JSON command protocol:
// clients submit {"id":..., "sequence_id":..., ...} lines terminated by
// \r\n, and receive a two-phase ack-then-final response for each.
package command

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire shape of an inbound command line. Params holds the
// whole line as received, since command-specific fields sit at the top
// level beside id and sequence_id.
type Envelope struct {
	ID         string          `json:"id"`
	SequenceID int64           `json:"sequence_id"`
	Params     json.RawMessage `json:"-"`
}

// Response is the wire shape of an outbound ack or final response. ID
// carries the literal "ack"/"noack"/"success"/"fail" outcome, never the
// echoed command name. UserInfo carries the human-readable message that
// accompanies an ack or a noack.
type Response struct {
	ID         string `json:"id"`
	SequenceID int64  `json:"sequence_id"`
	UserInfo   string `json:"user_info,omitempty"`
}

// Context is handed to a Command's Execute, carrying whatever subsystem
// handles touch it needs; command_test.go and cmd/ctrlsrv construct the
// concrete Context this package's commands expect.
type Context struct {
	PowerMotor          func(on bool) error
	PowerComm           func(on bool) error
	Shutdown            func()
	Echo                func(params json.RawMessage) (string, error)
	SwitchCommandSource func(isRemote bool)
}

// Command is one recognized command's validate/execute pair.
type Command interface {
	// Validate reports whether params are acceptable; a non-nil error
	// makes Factory.Parse fail, so the command is answered with a noack
	// and never executed.
	Validate(params json.RawMessage) error
	// Execute runs the command against ctx and returns the extra result
	// fields (if any) to merge into the final response, plus the
	// command's outcome: a non-nil error produces a "fail" final with
	// no error text on the wire, per the protocol's plain fail envelope.
	Execute(ctx *Context, params json.RawMessage) (json.RawMessage, error)
}

// Factory maps command names to constructors, and enforces the
// sequence_id monotonicity rule across an entire connection's lifetime.
type Factory struct {
	commands   map[string]Command
	lastSeqSet bool
	lastSeq    int64
}

// NewFactory returns a Factory with the standard command set registered.
func NewFactory() *Factory {
	f := &Factory{commands: make(map[string]Command)}
	f.Register("cmd_ack", ackCommand{})
	f.Register("cmd_noack", noackCommand{})
	f.Register("cmd_echo", echoCommand{})
	f.Register("cmd_power", powerCommand{})
	f.Register("cmd_systemShutdown", shutdownCommand{})
	f.Register("cmd_resetBreakers", resetBreakersCommand{})
	f.Register("cmd_switchCommandSource", switchCommandSourceCommand{})
	return f
}

// Register adds or replaces the Command for name.
func (f *Factory) Register(name string, cmd Command) { f.commands[name] = cmd }

// Parse decodes line as an Envelope, looks up its Command, and validates
// its params and sequence_id. A returned error means the command must be
// answered with a noack rather than executed, per §7's protocol-error
// handling — the connection stays open. The returned Envelope is always
// non-nil except when line itself could not be unmarshaled at all, so a
// caller can echo back the sequence_id (and, when unknown, the id) in the
// noack it writes.
func (f *Factory) Parse(line []byte) (*Envelope, Command, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, nil, fmt.Errorf("command: malformed json: %w", err)
	}
	env.Params = append(json.RawMessage(nil), line...)
	if env.ID == "" {
		return &env, nil, fmt.Errorf("command: missing id")
	}
	cmd, ok := f.commands[env.ID]
	if !ok {
		return &env, nil, fmt.Errorf("command: unknown id %q", env.ID)
	}
	if f.lastSeqSet && env.SequenceID <= f.lastSeq {
		return &env, nil, fmt.Errorf("command: sequence_id %d not greater than last seen %d", env.SequenceID, f.lastSeq)
	}
	if err := cmd.Validate(env.Params); err != nil {
		return &env, nil, fmt.Errorf("command: invalid params for %q: %w", env.ID, err)
	}
	f.lastSeq = env.SequenceID
	f.lastSeqSet = true
	return &env, cmd, nil
}
