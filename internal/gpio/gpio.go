// Package gpio provides the GPIO/timing backend for the DALI codec.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/dali-phy/internal/dali"
)

// Pin defaults (BCM numbering), matching the monitor board wiring.
const (
	DefaultPinRX = 23
	DefaultPinTX = 22
)

// DefaultGlitchFilter suppresses pulses shorter than this before they reach
// the decoder. The hardware-watchdog monitor variant ran 150us; the
// software-timer variant ran 50us.
const DefaultGlitchFilter = 150 * time.Microsecond

// EdgeSource delivers bus edge events from the receive pin.
type EdgeSource interface {
	// Subscribe starts edge delivery to handler. The handler runs on the
	// backend's event goroutine; delivery for a single pin is serialized.
	Subscribe(handler func(dali.EdgeEvent)) error

	// Close stops edge delivery and releases the pin.
	Close() error
}

// SoftTimer is a single-shot, rearmable silence timer backed by
// time.AfterFunc. Arm cancels any pending expiry before starting the new
// one, so at most one expiry is outstanding.
type SoftTimer struct {
	mu sync.Mutex
	t  *time.Timer
}

// NewSoftTimer returns an unarmed timer.
func NewSoftTimer() *SoftTimer {
	return &SoftTimer{}
}

// Arm schedules expire to run after d, replacing any pending expiry.
func (s *SoftTimer) Arm(d time.Duration, expire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t != nil {
		s.t.Stop()
	}
	s.t = time.AfterFunc(d, expire)
}

// Cancel stops any pending expiry.
func (s *SoftTimer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t != nil {
		s.t.Stop()
		s.t = nil
	}
}
