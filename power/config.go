// Package power implements the per-bus power subsystem state machines
// (Subsystem) and the event-driven supervisor that owns both buses and
// the shared timeout watchdog (System).
package power

import (
	"time"

	"github.com/m2cell/cellctrl/faultbits"
)

// Bus names the MOTOR or COMM power subsystem.
type Bus = faultbits.PowerSystemType

const (
	Motor = faultbits.Motor
	Comm  = faultbits.Comm
)

// SubsystemConfig holds the timing, voltage, and current constants for one
// bus. Values are exact per-bus constants; MOTOR and COMM differ because
// MOTOR alone has an interlock relay in its on/off signal path.
type SubsystemConfig struct {
	RelayCloseDelay         time.Duration
	BreakerOnTime           time.Duration
	InterlockOutputOnDelay  time.Duration // zero for COMM
	RelayOpenDelay          time.Duration
	InterlockOutputOffDelay time.Duration // zero for COMM
	ResetBreakerPulseWidth  time.Duration

	BreakerOperatingVoltage        float64
	NominalVoltage                 float64
	MinVoltageWarn                 float64
	MaxVoltageWarn                 float64
	MinVoltageFault                float64
	MaxVoltageFault                float64
	BreakerOperatingVoltageRiseTime time.Duration
	VoltageSettlingTime             time.Duration
	VoltageFallTime                 time.Duration
	VoltageOffLevel                 float64
	MaxCurrent                      float64
}

// OutputOnMaxDelay is the worst-case time from "power on" commanded to the
// bus reporting On.
func (c SubsystemConfig) OutputOnMaxDelay() time.Duration {
	return c.RelayCloseDelay + c.BreakerOnTime + c.InterlockOutputOnDelay
}

// OutputOffMaxDelay is the worst-case time from "power off" commanded to
// the bus reporting Off.
func (c SubsystemConfig) OutputOffMaxDelay() time.Duration {
	return c.RelayOpenDelay + c.InterlockOutputOffDelay
}

// MotorConfig returns the MOTOR bus's configuration constants, exact per
// the hardware's PowerSubsystemCommonConfig/MotorPowerBusConfigurationParameters.
func MotorConfig() SubsystemConfig {
	return SubsystemConfig{
		RelayCloseDelay:                 50 * time.Millisecond,
		BreakerOnTime:                   500 * time.Millisecond,
		InterlockOutputOnDelay:          50 * time.Millisecond,
		RelayOpenDelay:                  30 * time.Millisecond,
		InterlockOutputOffDelay:         50 * time.Millisecond,
		ResetBreakerPulseWidth:          400 * time.Millisecond,
		BreakerOperatingVoltage:         19,
		NominalVoltage:                  24,
		MinVoltageWarn:                  24 * 0.95,
		MaxVoltageWarn:                  24 * 1.05,
		MinVoltageFault:                 24 * 0.90,
		MaxVoltageFault:                 24 * 1.10,
		BreakerOperatingVoltageRiseTime: 85 * time.Millisecond,
		VoltageSettlingTime:             20 * time.Millisecond,
		VoltageFallTime:                 300 * time.Millisecond,
		VoltageOffLevel:                 12,
		MaxCurrent:                      20,
	}
}

// CommConfig returns the COMM bus's configuration constants, exact per the
// hardware's PowerSubsystemCommonConfig/CommPowerBusConfigurationParameters.
// COMM has no interlock relay stage, and its rise/settling/fall times and
// max current differ from MOTOR's.
func CommConfig() SubsystemConfig {
	return SubsystemConfig{
		RelayCloseDelay:                 50 * time.Millisecond,
		BreakerOnTime:                   500 * time.Millisecond,
		InterlockOutputOnDelay:          0,
		RelayOpenDelay:                  30 * time.Millisecond,
		InterlockOutputOffDelay:         0,
		ResetBreakerPulseWidth:          400 * time.Millisecond,
		BreakerOperatingVoltage:         19,
		NominalVoltage:                  24,
		MinVoltageWarn:                  24 * 0.95,
		MaxVoltageWarn:                  24 * 1.05,
		MinVoltageFault:                 24 * 0.90,
		MaxVoltageFault:                 24 * 1.10,
		BreakerOperatingVoltageRiseTime: 30 * time.Millisecond,
		VoltageSettlingTime:             10 * time.Millisecond,
		VoltageFallTime:                 50 * time.Millisecond,
		VoltageOffLevel:                 12,
		MaxCurrent:                      10,
	}
}

// ConfigFor returns the default configuration for bus.
func ConfigFor(bus Bus) SubsystemConfig {
	if bus == Comm {
		return CommConfig()
	}
	return MotorConfig()
}
