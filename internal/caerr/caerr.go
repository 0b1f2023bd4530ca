// Package caerr implements the error taxonomy used across this module:
// Bug (a broken invariant, fatal), ConfigError (a bad startup
// configuration, fatal), and plain errors for protocol-level failures
// that are reported to the caller but never fatal.
package caerr

import "fmt"

// Bug indicates a broken internal invariant. It carries the call site so
// a log line reporting it can point straight at the offending code, the
// way the original's util::Bug does via ERR_LOC.
type Bug struct {
	File string
	Line int
	Msg  string
}

func (b *Bug) Error() string {
	return fmt.Sprintf("bug at %s:%d: %s", b.File, b.Line, b.Msg)
}

// NewBug constructs a Bug tagged with the caller's file/line.
func NewBug(file string, line int, format string, args ...any) *Bug {
	return &Bug{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// ConfigError wraps a missing or invalid configuration value, detected at
// startup before any subsystem is running.
type ConfigError struct {
	Key string
	Err error
}

func (c *ConfigError) Error() string {
	return fmt.Sprintf("config error for %q: %s", c.Key, c.Err)
}

func (c *ConfigError) Unwrap() error { return c.Err }

// NewConfigError wraps err as a ConfigError for the named key.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{Key: key, Err: err}
}
