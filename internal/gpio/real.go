//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/dali-phy/internal/dali"
)

const chipName = "gpiochip0"

// RealEdgeSource reads bus edges from actual hardware using the Linux GPIO
// character device. The kernel debounce period acts as the glitch filter,
// and kernel event timestamps give the microsecond-resolution monotonic
// clock the decoder needs.
type RealEdgeSource struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	pin    int
	glitch time.Duration
}

// NewRealEdgeSource opens the GPIO chip for the given receive pin. Edge
// delivery starts on Subscribe.
func NewRealEdgeSource(pin int, glitch time.Duration) (*RealEdgeSource, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealEdgeSource{chip: chip, pin: pin, glitch: glitch}, nil
}

// Subscribe requests the line with both-edge detection and starts delivering
// events to handler. The character device serializes event delivery per
// line, which is the single-writer guarantee the receiver relies on.
func (s *RealEdgeSource) Subscribe(handler func(dali.EdgeEvent)) error {
	if s.line != nil {
		return fmt.Errorf("rx pin %d already subscribed", s.pin)
	}

	eh := func(evt gpiocdev.LineEvent) {
		dir := dali.FallingEdge
		if evt.Type == gpiocdev.LineEventRisingEdge {
			dir = dali.RisingEdge
		}
		handler(dali.EdgeEvent{Direction: dir, Timestamp: evt.Timestamp})
	}

	line, err := s.chip.RequestLine(s.pin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(s.glitch),
		gpiocdev.WithEventHandler(eh))
	if err != nil {
		return fmt.Errorf("request rx pin %d: %w", s.pin, err)
	}
	s.line = line
	return nil
}

// Close stops edge delivery and releases GPIO resources.
func (s *RealEdgeSource) Close() error {
	var errs []error
	if s.line != nil {
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rx pin: %w", err))
		}
		s.line = nil
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		s.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWaveBackend plays pulse chains on an output line. The character
// device has no hardware wave engine, so playback is software-timed: one
// goroutine walks the flattened pulse list with sleeps and an atomic busy
// flag. Timing granularity is the scheduler's, which the 417us half-bit
// period tolerates on an idle system but a loaded one may not.
type RealWaveBackend struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int

	mu    sync.Mutex
	waves map[dali.WaveHandle]dali.PulseTemplate
	next  dali.WaveHandle

	busy atomic.Bool
}

// NewRealWaveBackend opens the transmit pin as an output, driven high (bus
// idle), with bias disabled to leave the external driver in charge.
func NewRealWaveBackend(pin int) (*RealWaveBackend, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin,
		gpiocdev.AsOutput(1),
		gpiocdev.WithBiasDisabled)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request tx pin %d: %w", pin, err)
	}

	return &RealWaveBackend{
		chip:  chip,
		line:  line,
		pin:   pin,
		waves: make(map[dali.WaveHandle]dali.PulseTemplate),
	}, nil
}

// CreateWave registers a waveform for later chaining.
func (b *RealWaveBackend) CreateWave(t dali.PulseTemplate) (dali.WaveHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.next
	b.next++
	b.waves[h] = append(dali.PulseTemplate(nil), t...)
	return h, nil
}

// SubmitChain flattens the chain into one pulse list and plays it repeats
// times on a background goroutine. Only one chain may play at a time.
func (b *RealWaveBackend) SubmitChain(chain []dali.WaveHandle, repeats int) error {
	b.mu.Lock()
	var pulses []dali.Pulse
	for _, h := range chain {
		t, ok := b.waves[h]
		if !ok {
			b.mu.Unlock()
			return fmt.Errorf("unknown wave handle %d", h)
		}
		pulses = append(pulses, t...)
	}
	b.mu.Unlock()

	if !b.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("tx pin %d busy", b.pin)
	}

	go b.play(pulses, repeats)
	return nil
}

func (b *RealWaveBackend) play(pulses []dali.Pulse, repeats int) {
	defer b.busy.Store(false)

	for i := 0; i < repeats; i++ {
		for _, p := range pulses {
			v := 0
			if p.High {
				v = 1
			}
			if err := b.line.SetValue(v); err != nil {
				return
			}
			time.Sleep(p.Duration)
		}
	}
	// Release the bus to idle.
	b.line.SetValue(1)
}

// TxBusy reports whether a chain is still playing.
func (b *RealWaveBackend) TxBusy() bool {
	return b.busy.Load()
}

// DeleteWave releases a registered waveform. An in-flight chain is
// unaffected: playback works on a flattened copy.
func (b *RealWaveBackend) DeleteWave(h dali.WaveHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.waves[h]; !ok {
		return fmt.Errorf("unknown wave handle %d", h)
	}
	delete(b.waves, h)
	return nil
}

// Close waits for any in-flight chain, returns the line to input (the safe
// boot-default state for the bus interface board), and releases resources.
func (b *RealWaveBackend) Close() error {
	for b.busy.Load() {
		time.Sleep(time.Millisecond)
	}

	var errs []error
	if b.line != nil {
		if err := b.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure tx pin: %w", err))
		}
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close tx pin: %w", err))
		}
		b.line = nil
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
