package faultbits

import "sync"

// PowerSystemType discriminates the MOTOR and COMM power buses.
type PowerSystemType int

const (
	Motor PowerSystemType = iota
	Comm
)

func (t PowerSystemType) String() string {
	switch t {
	case Motor:
		return "MOTOR"
	case Comm:
		return "COMM"
	default:
		return "UNKNOWN"
	}
}

func setAll(positions ...int) Bits {
	var b Bits
	for _, p := range positions {
		b = b.Set(p, true)
	}
	return b
}

var (
	closedLoopControl = sync.OnceValue(func() Bits {
		return 0
	})

	openLoopControl = sync.OnceValue(func() Bits {
		return closedLoopControl() | setAll(
			ActuatorLimitCL,
			InclinometerWLut,
			CrioTimingFault,
			InclinometerRangeErr,
			MirrorTempSensorFault,
			ElevationAngleDiffFault,
		)
	})

	telemetryOnlyControl = sync.OnceValue(func() Bits {
		return openLoopControl() | setAll(
			ActuatorFault,
			ExcessiveForce,
			MotorVoltageFault,
			MotorOverCurrent,
			MotorMultiBreakerFault,
			AxialActuatorEncoderRangeFault,
			TangentActuatorEncoderRangeFault,
			IlcStateTransitionFault,
		)
	})

	faultsMask = sync.OnceValue(func() Bits {
		return telemetryOnlyControl() | setAll(
			CommVoltageFault,
			CommOverCurrent,
			PowerRelayOpenFault,
			PowerHealthFault,
			CommMultiBreakerFault,
			PowerSupplyLoadShareErr,
			InterlockFault,
			TangentLoadCellFault,
			LossOfTMACommOnEnableFault,
			CrioCommFault,
			UserGeneratedFault,
			ParameterFileReadFault,
			PowerSystemTimeout,
		)
	})

	warnMask = sync.OnceValue(func() Bits {
		return setAll(
			ActuatorLimitOL,
			InclinometerWOLut,
			MotorVoltageWarn,
			CommVoltageWarn,
			SingleBreakerTrip,
			CrioTimingWarn,
			DisplacementSensorRangeErr,
			MirrorTempSensorWarn,
			CellTempWarn,
			TempDiffWarn,
			LossOfTMAWarn,
			MonitorIlcReadWarn,
		)
	})

	infoMask = sync.OnceValue(func() Bits {
		return setAll(
			BroadcastErr,
			MotorRelay,
			CommRelay,
			HardwareFault,
			StaleDataWarn,
			StaleDataFault,
		)
	})

	telemetryAffectedFault = sync.OnceValue(func() Bits {
		return setAll(
			ActuatorLimitCL,
			InclinometerWLut,
			InclinometerRangeErr,
			MirrorTempSensorFault,
			ElevationAngleDiffFault,
			ActuatorFault,
			ExcessiveForce,
			AxialActuatorEncoderRangeFault,
			TangentActuatorEncoderRangeFault,
			TangentLoadCellFault,
		)
	})

	telemetryAffectedWarnInfo = sync.OnceValue(func() Bits {
		return setAll(
			MonitorIlcReadWarn,
			ActuatorLimitOL,
			InclinometerWOLut,
			DisplacementSensorRangeErr,
			MirrorTempSensorWarn,
			CellTempWarn,
			BroadcastErr,
			StaleDataWarn,
			StaleDataFault,
		)
	})

	powerAffectedFault = sync.OnceValue(func() Bits {
		return setAll(
			MotorVoltageFault,
			MotorOverCurrent,
			MotorMultiBreakerFault,
			CommVoltageFault,
			CommOverCurrent,
			PowerRelayOpenFault,
			PowerHealthFault,
			CommMultiBreakerFault,
			PowerSupplyLoadShareErr,
			InterlockFault,
			PowerSystemTimeout,
		)
	})

	powerAffectedWarnInfo = sync.OnceValue(func() Bits {
		return setAll(
			MotorVoltageWarn,
			CommVoltageWarn,
			SingleBreakerTrip,
			MotorRelay,
			CommRelay,
			HardwareFault,
		)
	})

	subsystemCommFault = sync.OnceValue(func() Bits {
		return setAll(
			CommVoltageFault,
			CommOverCurrent,
			PowerRelayOpenFault,
			CommMultiBreakerFault,
		)
	})

	subsystemMotorFault = sync.OnceValue(func() Bits {
		return setAll(
			MotorVoltageFault,
			MotorOverCurrent,
			PowerRelayOpenFault,
			MotorMultiBreakerFault,
		)
	})

	healthFaultMask = sync.OnceValue(func() Bits {
		return setAll(PowerHealthFault, PowerSupplyLoadShareErr)
	})
)

// MaskClosedLoopControl returns the faults allowed during closed-loop
// control: none.
func MaskClosedLoopControl() Bits { return closedLoopControl() }

// MaskOpenLoopControl returns the faults allowed during open-loop control.
func MaskOpenLoopControl() Bits { return openLoopControl() }

// MaskTelemetryOnlyControl returns the faults allowed while only
// telemetry (no control) is permitted.
func MaskTelemetryOnlyControl() Bits { return telemetryOnlyControl() }

// MaskFaults returns every bit classified as a fault.
func MaskFaults() Bits { return faultsMask() }

// MaskWarn returns every bit classified as a warning.
func MaskWarn() Bits { return warnMask() }

// MaskInfo returns every bit classified as informational.
func MaskInfo() Bits { return infoMask() }

// TelemetryFaultManagerAffectedFaultMask returns the fault bits the
// telemetry fault manager tracks.
func TelemetryFaultManagerAffectedFaultMask() Bits { return telemetryAffectedFault() }

// TelemetryFaultManagerAffectedWarningMask returns the warn/info bits the
// telemetry fault manager tracks.
func TelemetryFaultManagerAffectedWarningMask() Bits { return telemetryAffectedWarnInfo() }

// PowerSubsystemFaultManagerAffectedFaultMask returns the fault bits a
// PowerFaultMgr tracks, regardless of bus.
func PowerSubsystemFaultManagerAffectedFaultMask() Bits { return powerAffectedFault() }

// PowerSubsystemFaultManagerAffectedWarningMask returns the warn/info bits
// a PowerFaultMgr tracks, regardless of bus.
func PowerSubsystemFaultManagerAffectedWarningMask() Bits { return powerAffectedWarnInfo() }

// MaskPowerSubsystemFaults returns the fault bits specific to sysType's bus.
func MaskPowerSubsystemFaults(sysType PowerSystemType) Bits {
	switch sysType {
	case Comm:
		return subsystemCommFault()
	case Motor:
		return subsystemMotorFault()
	default:
		return 0
	}
}

// MaskHealthFaults returns the power-supply health fault bits.
func MaskHealthFaults() Bits { return healthFaultMask() }
