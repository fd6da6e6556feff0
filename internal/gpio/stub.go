//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/dali-phy/internal/dali"
)

var errNotLinux = errors.New("gpio: not supported on this platform (requires Linux)")

// RealEdgeSource is not available on non-Linux platforms.
type RealEdgeSource struct{}

// NewRealEdgeSource returns an error on non-Linux platforms.
func NewRealEdgeSource(pin int, glitch time.Duration) (*RealEdgeSource, error) {
	return nil, errNotLinux
}

// Subscribe is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Subscribe(handler func(dali.EdgeEvent)) error {
	return errNotLinux
}

// Close is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Close() error {
	return nil
}

// RealWaveBackend is not available on non-Linux platforms.
type RealWaveBackend struct{}

// NewRealWaveBackend returns an error on non-Linux platforms.
func NewRealWaveBackend(pin int) (*RealWaveBackend, error) {
	return nil, errNotLinux
}

// CreateWave is not implemented on non-Linux platforms.
func (b *RealWaveBackend) CreateWave(t dali.PulseTemplate) (dali.WaveHandle, error) {
	return 0, errNotLinux
}

// SubmitChain is not implemented on non-Linux platforms.
func (b *RealWaveBackend) SubmitChain(chain []dali.WaveHandle, repeats int) error {
	return errNotLinux
}

// TxBusy is not implemented on non-Linux platforms.
func (b *RealWaveBackend) TxBusy() bool {
	return false
}

// DeleteWave is not implemented on non-Linux platforms.
func (b *RealWaveBackend) DeleteWave(h dali.WaveHandle) error {
	return errNotLinux
}

// Close is not implemented on non-Linux platforms.
func (b *RealWaveBackend) Close() error {
	return nil
}
