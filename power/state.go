package power

// State is a PowerSubsystem's power state.
type State int

const (
	Off State = iota
	TurningOn
	Resetting
	On
	TurningOff
)

func (s State) String() string {
	switch s {
	case Off:
		return "OFF"
	case TurningOn:
		return "TURNING_ON"
	case Resetting:
		return "RESETTING"
	case On:
		return "ON"
	case TurningOff:
		return "TURNING_OFF"
	default:
		return "UNKNOWN"
	}
}

// BreakerStatus is the decoded health of a single breaker feed group.
type BreakerStatus int

const (
	BreakerOK BreakerStatus = iota
	BreakerWarning
	BreakerFault
)

func (b BreakerStatus) String() string {
	switch b {
	case BreakerOK:
		return "OK"
	case BreakerWarning:
		return "WARNING"
	case BreakerFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// decodeBreakerGroup maps a 3-bit breaker feed pattern to a status. 7 (all
// three feed-ok bits set) is OK; {3,5,6} (any two of three set) is a
// Warning (single breaker trip, degraded but still delivering power);
// everything else ({0,1,2,4}, i.e. zero or exactly one bit set) is a
// Fault. On the COMM bus, bit 2 of the synthesized pattern does not
// correspond to any physical feed line: NewSystem wires it to
// bits.AlwaysHigh, so it is always 1 there. This
// table is carried over unchanged from the hardware's documented decode,
// with no invented justification for that asymmetry.
func decodeBreakerGroup(pattern uint8) BreakerStatus {
	switch pattern & 0x7 {
	case 7:
		return BreakerOK
	case 3, 5, 6:
		return BreakerWarning
	default:
		return BreakerFault
	}
}
