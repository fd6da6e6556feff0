package gpio

import (
	"errors"
	"sync"
	"time"

	"github.com/sweeney/dali-phy/internal/dali"
)

// FakeEdgeSource is a test double that replays scripted edge events.
type FakeEdgeSource struct {
	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Closed tracks if Close was called.
	Closed bool

	mu      sync.Mutex
	handler func(dali.EdgeEvent)
}

// NewFakeEdgeSource creates an idle FakeEdgeSource.
func NewFakeEdgeSource() *FakeEdgeSource {
	return &FakeEdgeSource{}
}

// Subscribe records the handler for Emit to call.
func (f *FakeEdgeSource) Subscribe(handler func(dali.EdgeEvent)) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
	return nil
}

// Emit delivers one edge event to the subscribed handler, synchronously,
// mimicking the serialized delivery of the real backend.
func (f *FakeEdgeSource) Emit(ev dali.EdgeEvent) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// EmitIntervals delivers a sequence of edges separated by the given
// intervals, alternating falling/rising starting from idle high.
func (f *FakeEdgeSource) EmitIntervals(intervals []time.Duration) {
	var tick time.Duration
	dir := dali.FallingEdge
	for _, iv := range intervals {
		tick += iv
		f.Emit(dali.EdgeEvent{Direction: dir, Timestamp: tick})
		if dir == dali.FallingEdge {
			dir = dali.RisingEdge
		} else {
			dir = dali.FallingEdge
		}
	}
}

// Close marks the source as closed.
func (f *FakeEdgeSource) Close() error {
	f.Closed = true
	return nil
}

// FakeTimer is a manually fired SilenceTimer for tests.
type FakeTimer struct {
	Armed    bool
	Duration time.Duration
	Arms     int
	Cancels  int

	expire func()
}

// Arm records the expiry for Fire to call.
func (f *FakeTimer) Arm(d time.Duration, expire func()) {
	f.Armed = true
	f.Arms++
	f.Duration = d
	f.expire = expire
}

// Cancel disarms the timer.
func (f *FakeTimer) Cancel() {
	f.Armed = false
	f.Cancels++
}

// Fire runs the pending expiry, if armed.
func (f *FakeTimer) Fire() {
	if !f.Armed || f.expire == nil {
		return
	}
	f.Armed = false
	f.expire()
}

// SubmittedChain is one chain recorded by FakeWaveBackend.
type SubmittedChain struct {
	Handles []dali.WaveHandle
	Repeats int
}

// FakeWaveBackend records waveform registrations and chain submissions.
type FakeWaveBackend struct {
	// Waves maps handles to their registered templates.
	Waves map[dali.WaveHandle]dali.PulseTemplate

	// Chains contains every submitted chain in order.
	Chains []SubmittedChain

	// Deleted contains released handles.
	Deleted []dali.WaveHandle

	// BusyPolls is how many TxBusy calls report true before idle.
	BusyPolls int

	// CreateError and SubmitError, if set, are returned by the
	// corresponding methods.
	CreateError error
	SubmitError error

	next dali.WaveHandle
}

// NewFakeWaveBackend creates an empty FakeWaveBackend.
func NewFakeWaveBackend() *FakeWaveBackend {
	return &FakeWaveBackend{Waves: make(map[dali.WaveHandle]dali.PulseTemplate)}
}

// CreateWave registers the template under a fresh handle.
func (f *FakeWaveBackend) CreateWave(t dali.PulseTemplate) (dali.WaveHandle, error) {
	if f.CreateError != nil {
		return 0, f.CreateError
	}
	h := f.next
	f.next++
	f.Waves[h] = append(dali.PulseTemplate(nil), t...)
	return h, nil
}

// SubmitChain records the chain.
func (f *FakeWaveBackend) SubmitChain(chain []dali.WaveHandle, repeats int) error {
	if f.SubmitError != nil {
		return f.SubmitError
	}
	for _, h := range chain {
		if _, ok := f.Waves[h]; !ok {
			return errors.New("unknown wave handle")
		}
	}
	f.Chains = append(f.Chains, SubmittedChain{
		Handles: append([]dali.WaveHandle(nil), chain...),
		Repeats: repeats,
	})
	return nil
}

// TxBusy counts down BusyPolls.
func (f *FakeWaveBackend) TxBusy() bool {
	if f.BusyPolls > 0 {
		f.BusyPolls--
		return true
	}
	return false
}

// DeleteWave records the release.
func (f *FakeWaveBackend) DeleteWave(h dali.WaveHandle) error {
	if _, ok := f.Waves[h]; !ok {
		return errors.New("unknown wave handle")
	}
	delete(f.Waves, h)
	f.Deleted = append(f.Deleted, h)
	return nil
}

// Flatten expands a submitted chain back into its pulse sequence, for
// asserting on the exact waveform a frame would produce.
func (f *FakeWaveBackend) Flatten(c SubmittedChain) []dali.Pulse {
	var pulses []dali.Pulse
	for _, h := range c.Handles {
		pulses = append(pulses, f.Waves[h]...)
	}
	return pulses
}
