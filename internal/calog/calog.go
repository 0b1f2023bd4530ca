// Package calog wraps github.com/joeycumines/logiface, backed by
// github.com/rs/zerolog via the izerolog adapter, as the structured
// logging facade used throughout this module. Every subsystem gets its
// own child Log tagged with its name, so every line can be attributed to
// its emitting component without string-parsing the message.
package calog

import (
	"io"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Level aliases logiface's syslog-style level enum, matching the LOGLVL
// environment variable's 0-5 scale (trace..critical) used at startup.
type Level = logiface.Level

const (
	LevelCritical      = logiface.LevelCritical
	LevelError         = logiface.LevelError
	LevelWarning       = logiface.LevelWarning
	LevelInformational = logiface.LevelInformational
	LevelDebug         = logiface.LevelDebug
	LevelTrace         = logiface.LevelTrace
)

// Log is a thin handle around a *logiface.Logger[*izerolog.Event],
// scoped to one subsystem name.
type Log struct {
	l *logiface.Logger[*izerolog.Event]
}

// New constructs a root Log writing JSON lines to w at the given level.
func New(w io.Writer, level Level) *Log {
	zl := zerolog.New(w).With().Timestamp().Logger()
	l := logiface.New[*izerolog.Event](
		izerolog.L.WithZerolog(zl),
		izerolog.L.WithLevel(level),
	)
	return &Log{l: l}
}

// With returns a child Log tagged subsystem=name, used so every call site
// need not repeat its own component tag.
func (log *Log) With(name string) *Log {
	ctx := log.l.Clone().Str("subsystem", name)
	return &Log{l: ctx.Logger()}
}

func (log *Log) Emerg() *logiface.Builder[*izerolog.Event]   { return log.l.Emerg() }
func (log *Log) Crit() *logiface.Builder[*izerolog.Event]    { return log.l.Crit() }
func (log *Log) Err() *logiface.Builder[*izerolog.Event]     { return log.l.Err() }
func (log *Log) Warning() *logiface.Builder[*izerolog.Event] { return log.l.Warning() }
func (log *Log) Notice() *logiface.Builder[*izerolog.Event]  { return log.l.Notice() }
func (log *Log) Info() *logiface.Builder[*izerolog.Event]    { return log.l.Info() }
func (log *Log) Debug() *logiface.Builder[*izerolog.Event]   { return log.l.Debug() }
func (log *Log) Trace() *logiface.Builder[*izerolog.Event]   { return log.l.Trace() }

// LevelFromEnv maps the LOGLVL environment variable's integer scale
// (0=trace .. 5=critical) onto a Level. Values outside [0,5] default to
// LevelInformational.
func LevelFromEnv(v int) Level {
	switch v {
	case 0:
		return LevelTrace
	case 1:
		return LevelDebug
	case 2:
		return LevelInformational
	case 3:
		return LevelWarning
	case 4:
		return LevelError
	case 5:
		return LevelCritical
	default:
		return LevelInformational
	}
}
