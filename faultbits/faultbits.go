// Package faultbits implements the 64-bit fault/warning/info bitmap shared
// by the system controller, the power subsystems, and the telemetry fault
// manager, and the pure fault-status update algorithm they all use.
package faultbits

import "strings"

// Named bit positions. Numbering must match the hardware's
// Faults-WarningsEnum control exactly; changing these values would
// misinterpret live bits.
const (
	StaleDataWarn                     = 0
	StaleDataFault                    = 1
	BroadcastErr                      = 2
	ActuatorFault                     = 3
	ExcessiveForce                    = 4
	ActuatorLimitOL                   = 5
	ActuatorLimitCL                   = 6
	InclinometerWLut                  = 7
	InclinometerWOLut                 = 8
	MotorVoltageFault                 = 9
	MotorVoltageWarn                  = 10
	CommVoltageFault                  = 11
	CommVoltageWarn                   = 12
	MotorOverCurrent                  = 13
	CommOverCurrent                   = 14
	PowerRelayOpenFault               = 15
	PowerHealthFault                  = 16
	CommMultiBreakerFault             = 17
	MotorMultiBreakerFault            = 18
	SingleBreakerTrip                 = 19
	PowerSupplyLoadShareErr           = 20
	DisplacementSensorRangeErr        = 21
	InclinometerRangeErr              = 22
	MirrorTempSensorFault             = 23
	MirrorTempSensorWarn              = 24
	CellTempWarn                      = 25
	AxialActuatorEncoderRangeFault    = 26
	TangentActuatorEncoderRangeFault  = 27
	MotorRelay                        = 28
	CommRelay                         = 29
	HardwareFault                     = 30
	InterlockFault                    = 31
	TangentLoadCellFault              = 32
	ElevationAngleDiffFault           = 33
	MonitorIlcReadWarn                = 34
	PowerSystemTimeout                = 35
	// 36..54 reserved/spare.

	ParameterFileReadFault     = 55
	IlcStateTransitionFault    = 56
	CrioCommFault              = 57
	LossOfTMAWarn              = 58
	LossOfTMACommOnEnableFault = 59
	TempDiffWarn               = 60
	CrioTimingFault            = 61
	CrioTimingWarn             = 62
	UserGeneratedFault         = 63
)

// Bits is the 64-bit fault/warning/info bitmap.
type Bits uint64

// Get reports whether the bit at pos is set. Out-of-range positions read
// as unset.
func (b Bits) Get(pos int) bool {
	if pos < 0 || pos > 63 {
		return false
	}
	return b&(1<<uint(pos)) != 0
}

// Set returns b with the bit at pos written to val. Out-of-range positions
// are a no-op, mirroring the hardware enum's fixed width.
func (b Bits) Set(pos int, val bool) Bits {
	if pos < 0 || pos > 63 {
		return b
	}
	if val {
		return b | (1 << uint(pos))
	}
	return b &^ (1 << uint(pos))
}

// GetBitsSetInMask returns the bits of b that are also set in mask.
func (b Bits) GetBitsSetInMask(mask Bits) Bits { return b & mask }

// GetBitsSetOutOfMask returns the set bits of b that fall outside mask.
func (b Bits) GetBitsSetOutOfMask(mask Bits) Bits { return b &^ mask }

var bitNames = map[int]string{
	StaleDataWarn:                    "STALE_DATA_WARN",
	StaleDataFault:                   "STALE_DATA_FAULT",
	BroadcastErr:                     "BROADCAST_ERR",
	ActuatorFault:                    "ACTUATOR_FAULT",
	ExcessiveForce:                   "EXCESSIVE_FORCE",
	ActuatorLimitOL:                  "ACTUATOR_LIMIT_OL",
	ActuatorLimitCL:                  "ACTUATOR_LIMIT_CL",
	InclinometerWLut:                 "INCLINOMETER_W_LUT",
	InclinometerWOLut:                "INCLINOMETER_WO_LUT",
	MotorVoltageFault:                "MOTOR_VOLTAGE_FAULT",
	MotorVoltageWarn:                 "MOTOR_VOLTAGE_WARN",
	CommVoltageFault:                 "COMM_VOLTAGE_FAULT",
	CommVoltageWarn:                  "COMM_VOLTAGE_WARN",
	MotorOverCurrent:                 "MOTOR_OVER_CURRENT",
	CommOverCurrent:                  "COMM_OVER_CURRENT",
	PowerRelayOpenFault:              "POWER_RELAY_OPEN_FAULT",
	PowerHealthFault:                 "POWER_HEALTH_FAULT",
	CommMultiBreakerFault:            "COMM_MULTI_BREAKER_FAULT",
	MotorMultiBreakerFault:           "MOTOR_MULTI_BREAKER_FAULT",
	SingleBreakerTrip:                "SINGLE_BREAKER_TRIP",
	PowerSupplyLoadShareErr:          "POWER_SUPPLY_LOAD_SHARE_ERR",
	DisplacementSensorRangeErr:       "DISPLACEMENT_SENSOR_RANGE_ERR",
	InclinometerRangeErr:             "INCLINOMETER_RANGE_ERR",
	MirrorTempSensorFault:            "MIRROR_TEMP_SENSOR_FAULT",
	MirrorTempSensorWarn:             "MIRROR_TEMP_SENSOR_WARN",
	CellTempWarn:                     "CELL_TEMP_WARN",
	AxialActuatorEncoderRangeFault:   "AXIAL_ACTUATOR_ENCODER_RANGE_FAULT",
	TangentActuatorEncoderRangeFault: "TANGENT_ACTUATOR_ENCODER_RANGE_FAULT",
	MotorRelay:                       "MOTOR_RELAY",
	CommRelay:                        "COMM_RELAY",
	HardwareFault:                    "HARDWARE_FAULT",
	InterlockFault:                   "INTERLOCK_FAULT",
	TangentLoadCellFault:             "TANGENT_LOAD_CELL_FAULT",
	ElevationAngleDiffFault:          "ELEVATION_ANGLE_DIFF_FAULT",
	MonitorIlcReadWarn:               "MONITOR_ILC_READ_WARN",
	PowerSystemTimeout:               "POWER_SYSTEM_TIMEOUT",
	ParameterFileReadFault:           "PARAMETER_FILE_READ_FAULT",
	IlcStateTransitionFault:          "ILC_STATE_TRANSITION_FAULT",
	CrioCommFault:                    "CRIO_COMM_FAULT",
	LossOfTMAWarn:                    "LOSS_OF_TMA_WARN",
	LossOfTMACommOnEnableFault:       "LOSS_OF_TMA_COMM_ON_ENABLE_FAULT",
	TempDiffWarn:                     "TEMP_DIFF_WARN",
	CrioTimingFault:                  "CRIO_TIMING_FAULT",
	CrioTimingWarn:                   "CRIO_TIMING_WARN",
	UserGeneratedFault:               "USER_GENERATED_FAULT",
}

// EnumString returns the symbolic name for pos, or "SPARE" for reserved
// positions, or "" if out of range.
func EnumString(pos int) string {
	if pos < 0 || pos > 63 {
		return ""
	}
	if name, ok := bitNames[pos]; ok {
		return name
	}
	return "SPARE"
}

// SetEnums returns the symbolic names of every bit set in b, in ascending
// bit-position order, comma-joined as the original diagnostic dumps do.
func (b Bits) SetEnums() string {
	var parts []string
	for pos := 0; pos < 64; pos++ {
		if b.Get(pos) {
			parts = append(parts, EnumString(pos))
		}
	}
	return strings.Join(parts, ",")
}
