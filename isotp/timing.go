package isotp

import "time"

// Timing holds the session-layer budgets the engine enforces. Defaults
// match the values spec.md calls out. The UDS client does not change
// these values: an ECU's SessionControl positive response updates the
// client's own uds.P2Timing instead.
type Timing struct {
	NAs time.Duration // bound on a single frame send (driver ack)
	NBs time.Duration // bound on waiting for the first Flow Control
	NCr time.Duration // bound on waiting for a Consecutive Frame while receiving
	NCs time.Duration // bound on waiting for confirmation of a sent Consecutive Frame
	P2  time.Duration
	P2S time.Duration
}

// DefaultTiming returns the ISO 15765-2 / ISO 14229-1 default budgets.
func DefaultTiming() Timing {
	return Timing{
		NAs: 1000 * time.Millisecond,
		NBs: 1000 * time.Millisecond,
		NCr: 1000 * time.Millisecond,
		NCs: 1000 * time.Millisecond,
		P2:  50 * time.Millisecond,
		P2S: 5000 * time.Millisecond,
	}
}

// SeparationDelay converts a raw ST_min byte into a sleep duration, per
// ISO 15765-2 table 5: 0x00..0x7F are milliseconds, 0xF1..0xF9 are
// 100..900 microseconds, anything else is treated as 0.
func SeparationDelay(stMin byte) time.Duration {
	switch {
	case stMin <= 0x7F:
		return time.Duration(stMin) * time.Millisecond
	case stMin >= 0xF1 && stMin <= 0xF9:
		return time.Duration(100*(int(stMin)-0xF0)) * time.Microsecond
	default:
		return 0
	}
}
