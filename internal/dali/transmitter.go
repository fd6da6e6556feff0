package dali

import (
	"fmt"
	"time"
)

// WaveHandle identifies a waveform registered with a WaveBackend.
type WaveHandle int

// WaveBackend is the hardware pulse-playback capability the transmitter
// drives. Implementations register immutable waveforms once, then play
// chains of them as one atomic, hardware-timed unit.
type WaveBackend interface {
	// CreateWave registers a waveform and returns its handle.
	CreateWave(t PulseTemplate) (WaveHandle, error)

	// SubmitChain starts playback of the referenced waveforms in order,
	// repeated repeats times. It returns without waiting for completion.
	SubmitChain(chain []WaveHandle, repeats int) error

	// TxBusy reports whether a submitted chain is still playing.
	TxBusy() bool

	// DeleteWave releases a registered waveform.
	DeleteWave(h WaveHandle) error
}

// DefaultTxPoll is the interval at which Send polls the backend busy flag.
// The backend exposes only a poll-based flag, so this is a deliberate
// busy-wait rather than an event subscription.
const DefaultTxPoll = 100 * time.Millisecond

// TransmitterConfig configures a Transmitter. Zero values select the
// defaults.
type TransmitterConfig struct {
	// TE is the half-bit period. Default TE.
	TE time.Duration

	// Gap is the intended inter-frame gap. It is accepted for
	// compatibility with existing deployments but currently not applied
	// to chain timing; pacing between frames is the caller's concern.
	Gap time.Duration

	// Poll is the busy-poll interval for Send. Default DefaultTxPoll.
	Poll time.Duration
}

// Transmitter synthesizes Manchester-coded frames and plays them through a
// WaveBackend. The four canonical waveforms are registered once at
// construction and never mutated; each Send builds a fresh chain of
// references to them.
type Transmitter struct {
	backend WaveBackend
	poll    time.Duration
	gap     time.Duration

	start, stop, bit0, bit1 WaveHandle
}

// NewTransmitter registers the waveform templates with the backend and
// returns a ready transmitter. On failure, any already-registered waveforms
// are released.
func NewTransmitter(backend WaveBackend, cfg TransmitterConfig) (*Transmitter, error) {
	te := cfg.TE
	if te == 0 {
		te = TE
	}
	poll := cfg.Poll
	if poll == 0 {
		poll = DefaultTxPoll
	}

	t := &Transmitter{backend: backend, poll: poll, gap: cfg.Gap}

	start, stop, bit0, bit1 := Waveforms(te)
	var created []WaveHandle
	register := func(name string, tmpl PulseTemplate, dst *WaveHandle) error {
		h, err := backend.CreateWave(tmpl)
		if err != nil {
			for _, c := range created {
				backend.DeleteWave(c)
			}
			return fmt.Errorf("create %s wave: %w", name, err)
		}
		created = append(created, h)
		*dst = h
		return nil
	}
	if err := register("start", start, &t.start); err != nil {
		return nil, err
	}
	if err := register("stop", stop, &t.stop); err != nil {
		return nil, err
	}
	if err := register("bit0", bit0, &t.bit0); err != nil {
		return nil, err
	}
	if err := register("bit1", bit1, &t.bit1); err != nil {
		return nil, err
	}
	return t, nil
}

// Send transmits code as a bits-wide Manchester frame, MSB first, with the
// whole chain repeated repeats times. It validates its arguments before
// touching hardware and then blocks until the backend reports the transmit
// hardware idle.
func (t *Transmitter) Send(code uint32, bits, repeats int) error {
	if bits < 1 || bits > 32 {
		return fmt.Errorf("bit count %d out of range [1,32]", bits)
	}
	if repeats < 1 {
		return fmt.Errorf("repeat count %d must be at least 1", repeats)
	}

	chain := make([]WaveHandle, 0, bits+2)
	chain = append(chain, t.start)
	for mask := uint32(1) << (bits - 1); mask != 0; mask >>= 1 {
		if code&mask != 0 {
			chain = append(chain, t.bit1)
		} else {
			chain = append(chain, t.bit0)
		}
	}
	chain = append(chain, t.stop)

	if err := t.backend.SubmitChain(chain, repeats); err != nil {
		return fmt.Errorf("submit chain: %w", err)
	}

	for t.backend.TxBusy() {
		time.Sleep(t.poll)
	}
	return nil
}

// Close releases the registered waveforms.
func (t *Transmitter) Close() error {
	var errs []error
	for _, h := range []WaveHandle{t.start, t.stop, t.bit0, t.bit1} {
		if err := t.backend.DeleteWave(h); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("release waveforms: %v", errs)
	}
	return nil
}
