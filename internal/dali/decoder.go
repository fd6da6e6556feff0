package dali

import "time"

// ErrorPolicy decides what happens to a frame that accumulated a timing or
// protocol error by the time the bus went silent.
type ErrorPolicy int

const (
	// ContinueOnError keeps accumulating after an error and delivers the
	// (possibly garbage) frame at silence timeout, with Frame.Faulted set.
	// This matches the behavior observed on the reference bus hardware.
	ContinueOnError ErrorPolicy = iota

	// AbortOnError suppresses delivery of faulted frames. State still
	// resets at silence timeout, so the next frame starts clean.
	AbortOnError
)

// Decoder reconstructs a bit stream from alternating bus edges, one edge at
// a time, with no lookahead. It classifies each edge as falling or rising
// purely by the parity of an internal edge counter; upstream glitch
// filtering guarantees true alternation, so the reported level is not
// trusted for decoding.
//
// Decoder is not safe for concurrent use. Receiver serializes access.
type Decoder struct {
	classifier Classifier

	edges       int
	prevHalf    uint32 // previous half-bit value, 0 or 1
	code        uint32
	bits        int
	pendingHigh time.Duration
	faulted     bool
}

// NewDecoder returns a Decoder using the given timing classifier.
func NewDecoder(c Classifier) *Decoder {
	return &Decoder{classifier: c}
}

// Edge consumes the elapsed time since the previous edge. The first two
// edges of a frame form the start condition: they produce no output bits and
// only initialize the previous half-bit to 1. After that, an even-parity
// (falling) edge latches the high period that just ended, and an odd-parity
// (rising) edge combines it with the low period to decode.
func (d *Decoder) Edge(sinceLast time.Duration) {
	if d.edges < 2 {
		d.prevHalf = 1
		d.edges++
		return
	}
	if d.edges%2 == 0 {
		d.pendingHigh = sinceLast
	} else {
		d.decode(d.pendingHigh, sinceLast)
	}
	d.edges++
}

// decode applies one (high, low) period pair to the shift register. The
// 3-bit selector is prevHalf<<2 | longLow<<1 | longHigh:
//
//	sel  low,high (prev)   action
//	 0   half,half (0)     shift 0
//	 1   half,full (0)     protocol error
//	 2   full,half (0)     shift 0,1
//	 3   full,full (0)     protocol error
//	 4   half,half (1)     shift 1
//	 5   half,full (1)     shift 0
//	 6   full,half (1)     protocol error
//	 7   full,full (1)     shift 0,1
//
// An invalid duration sets the fault flag and classifies as not-full, and a
// protocol error still shifts the register once: faults mark the frame but
// do not abort accumulation. Delivery of faulted frames is the receiver's
// ErrorPolicy decision.
func (d *Decoder) decode(high, low time.Duration) {
	sel := d.prevHalf << 2
	switch d.classifier.Classify(high) {
	case WidthFull:
		sel |= 1
	case WidthInvalid:
		d.faulted = true
	}
	switch d.classifier.Classify(low) {
	case WidthFull:
		sel |= 2
	case WidthInvalid:
		d.faulted = true
	}

	d.code <<= 1
	d.bits++

	switch sel {
	case 1, 3, 6:
		// A mid-bit transition was present where none was possible, or
		// missing where one was required.
		d.faulted = true
	case 2, 7:
		d.code = d.code<<1 | 1
		d.bits++
		d.prevHalf = 1
	case 4:
		d.code |= 1
		d.prevHalf = 1
	default: // 0, 5
		d.prevHalf = 0
	}
}

// Silence captures the accumulated frame and resets the decoder for the
// next one. Called when the watchdog declares the bus idle; the expiry
// itself emits no bits. A zero-bit frame is still returned.
func (d *Decoder) Silence() Frame {
	f := Frame{Value: d.code, Bits: d.bits, Faulted: d.faulted}
	d.edges = 0
	d.prevHalf = 0
	d.code = 0
	d.bits = 0
	d.pendingHigh = 0
	d.faulted = false
	return f
}
