// Package status provides a thread-safe status tracker for the dali-monitor
// daemon. It feeds heartbeat and lifecycle payloads; the codec itself has no
// built-in observability, so counting happens here at the caller layer.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dali-phy/internal/dali"
)

// Counts tracks receive-path totals since startup.
type Counts struct {
	Frames  int // frames delivered by the decoder
	Faulted int // delivered frames carrying the fault flag
	Empty   int // degenerate zero-bit frames
	Dropped int // frames dropped because the publish queue was full
}

// Config contains daemon configuration for display in status payloads.
type Config struct {
	RXPin     int
	TEUs      int64
	SilenceUs int64
	GlitchUs  int64
	Broker    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Counts        Counts
	LastFrame     dali.Frame
	LastFrameAt   time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordFrame counts a delivered frame. Called from the frame pipeline on
// every decode.
func (t *Tracker) RecordFrame(f dali.Frame, at time.Time) {
	t.mu.Lock()
	t.snap.Counts.Frames++
	if f.Faulted {
		t.snap.Counts.Faulted++
	}
	if f.Bits == 0 {
		t.snap.Counts.Empty++
	}
	t.snap.LastFrame = f
	t.snap.LastFrameAt = at
	t.mu.Unlock()
}

// RecordDropped counts a frame lost to a full publish queue.
func (t *Tracker) RecordDropped() {
	t.mu.Lock()
	t.snap.Counts.Dropped++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
