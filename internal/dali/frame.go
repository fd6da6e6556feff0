package dali

import "time"

// EdgeDirection is the reported direction of a bus level transition.
type EdgeDirection int

const (
	// FallingEdge is a high to low transition.
	FallingEdge EdgeDirection = iota
	// RisingEdge is a low to high transition.
	RisingEdge
)

// String returns a short name for logging.
func (d EdgeDirection) String() string {
	if d == RisingEdge {
		return "rising"
	}
	return "falling"
}

// EdgeEvent is a single bus level transition as reported by the GPIO
// backend. Timestamp is monotonic with microsecond resolution; only
// differences between timestamps are meaningful.
//
// Events are consumed synchronously by the receiver and never stored.
type EdgeEvent struct {
	Direction EdgeDirection
	Timestamp time.Duration
}

// Frame is one decoded bus message. Frames are variable length; the bus has
// no length field, so Bits records how many bits were accumulated before the
// silence timeout. A frame with zero bits is legal and comes from partial
// traffic or noise.
//
// Faulted is set when any pulse in the frame failed timing classification or
// hit a protocol error in the transition table. The accumulated value is
// still reported; see ErrorPolicy.
type Frame struct {
	Value   uint32
	Bits    int
	Faulted bool
}

// Pulse is one timed output level.
type Pulse struct {
	High     bool
	Duration time.Duration
}

// PulseTemplate is an ordered pulse sequence forming one canonical waveform.
// Templates are built once at transmitter initialization and reused,
// unmodified, for every frame.
type PulseTemplate []Pulse

// Waveforms returns the four canonical waveform templates for half-bit
// period te:
//
//	start: low te, high te   (bus takeover, logical framing start)
//	stop:  high 4*te         (idle-level hold before releasing the bus)
//	bit0:  high te, low te
//	bit1:  low te, high te
func Waveforms(te time.Duration) (start, stop, bit0, bit1 PulseTemplate) {
	start = PulseTemplate{{High: false, Duration: te}, {High: true, Duration: te}}
	stop = PulseTemplate{{High: true, Duration: 4 * te}}
	bit0 = PulseTemplate{{High: true, Duration: te}, {High: false, Duration: te}}
	bit1 = PulseTemplate{{High: false, Duration: te}, {High: true, Duration: te}}
	return start, stop, bit0, bit1
}
