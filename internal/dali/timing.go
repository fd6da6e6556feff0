// Package dali implements the physical-layer codec for a Manchester-coded
// DALI lighting-control bus: classifying sub-millisecond pulse widths,
// reconstructing frames from edge timings, and synthesizing hardware pulse
// trains for transmission. The package has no hardware dependencies; the
// GPIO/timing backend is injected through narrow interfaces.
package dali

import "time"

// Width classifies a measured pulse duration against the bit-timing windows.
type Width int

const (
	// WidthInvalid is a duration outside both timing windows.
	WidthInvalid Width = iota
	// WidthHalf is one half-bit period (~TE).
	WidthHalf
	// WidthFull is one full-bit period (~2*TE), two identical half-bits
	// merged because the mid-bit transition was absent.
	WidthFull
)

// String returns a short name for logging.
func (w Width) String() string {
	switch w {
	case WidthHalf:
		return "half"
	case WidthFull:
		return "full"
	}
	return "invalid"
}

// TE is the nominal Manchester half-bit period (834us bit time / 2).
const TE = 417 * time.Microsecond

// Default tolerance windows around TE and 2*TE.
const (
	DefaultHalfMin = 350 * time.Microsecond
	DefaultHalfMax = 490 * time.Microsecond
	DefaultFullMin = 760 * time.Microsecond
	DefaultFullMax = 900 * time.Microsecond
)

// DefaultSilence is the bus-idle duration that terminates a frame: two
// full-bit periods with no edge activity.
const DefaultSilence = 1800 * time.Microsecond

// Classifier decides whether a measured pulse duration is a half-bit unit,
// a full-bit unit, or invalid. It is pure and stateless, and is the single
// source of truth for all timing decisions in the decoder.
type Classifier struct {
	HalfMin, HalfMax time.Duration
	FullMin, FullMax time.Duration
}

// NewClassifier returns a Classifier with the default tolerance windows.
func NewClassifier() Classifier {
	return Classifier{
		HalfMin: DefaultHalfMin,
		HalfMax: DefaultHalfMax,
		FullMin: DefaultFullMin,
		FullMax: DefaultFullMax,
	}
}

// Classify maps a pulse duration to a Width. The half-bit window is closed
// at its lower bound and open at its upper bound; the full-bit window is
// open at both bounds. The windows must not overlap.
func (c Classifier) Classify(d time.Duration) Width {
	switch {
	case d >= c.HalfMin && d < c.HalfMax:
		return WidthHalf
	case d > c.FullMin && d < c.FullMax:
		return WidthFull
	}
	return WidthInvalid
}
