// Package config defines the typed configuration values this module
// needs at startup. Parsing a YAML file into this struct is explicitly
// out of scope (see spec.md's Non-goals) — callers construct a Config
// directly, e.g. from flags or hardcoded defaults, and tests override
// individual fields with Default().Override(...).
package config

import "time"

// Config holds every tunable named in the command/telemetry wire
// interface and the staleness/timeout watchdogs.
type Config struct {
	ServerPort    int
	ServerThreads int

	CellTemperatureDelta float64
	InclinometerDelta    float64

	TimeoutSAL  time.Duration
	TimeoutCRIO time.Duration
	TimeoutILC  time.Duration

	TelemetryRate time.Duration

	StaleDataBitsEnabled bool
}

// Default returns the baseline configuration used when no override is
// supplied.
func Default() Config {
	return Config{
		ServerPort:           50000,
		ServerThreads:        1,
		CellTemperatureDelta: 1.0,
		InclinometerDelta:    0.5,
		TimeoutSAL:           5 * time.Second,
		TimeoutCRIO:          2 * time.Second,
		TimeoutILC:           2 * time.Second,
		TelemetryRate:        50 * time.Millisecond,
		StaleDataBitsEnabled: true,
	}
}

// Override applies fn to a copy of c and returns the result, for
// constructing test-specific variants without mutating a shared value.
func (c Config) Override(fn func(*Config)) Config {
	fn(&c)
	return c
}
