package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/dali-phy/internal/dali"
	"github.com/sweeney/dali-phy/internal/gpio"
	"github.com/sweeney/dali-phy/internal/mqtt"
)

// frameIntervals renders a frame through the canonical waveforms and
// converts it into edge-to-edge intervals, the way a bus receiver would
// see it after a long idle period. The trailing high run ends in silence
// rather than an edge, so it is omitted.
func frameIntervals(t *testing.T, value uint32, bits int) []time.Duration {
	t.Helper()

	start, stop, bit0, bit1 := dali.Waveforms(dali.TE)
	pulses := append([]dali.Pulse(nil), start...)
	for i := bits - 1; i >= 0; i-- {
		if value>>uint(i)&1 == 1 {
			pulses = append(pulses, bit1...)
		} else {
			pulses = append(pulses, bit0...)
		}
	}
	pulses = append(pulses, stop...)

	return pulseIntervals(pulses)
}

// TestIntegrationReceiveToPublish tests the complete receive flow from
// edge events to MQTT payload using fakes.
func TestIntegrationReceiveToPublish(t *testing.T) {
	edges := gpio.NewFakeEdgeSource()
	timer := &gpio.FakeTimer{}
	publisher := mqtt.NewFakePublisher()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	receiver := dali.NewReceiver(timer, func(f dali.Frame) {
		if err := publisher.PublishFrame(mqtt.FrameEvent{Timestamp: at, Frame: f}); err != nil {
			t.Errorf("publish error: %v", err)
		}
	}, dali.ReceiverConfig{})
	defer receiver.Close()

	if err := edges.Subscribe(receiver.HandleEdge); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	edges.EmitIntervals(frameIntervals(t, 0xFF08, 16))
	timer.Fire()

	if len(publisher.FrameEvents) != 1 {
		t.Fatalf("expected 1 frame event, got %d", len(publisher.FrameEvents))
	}
	got := publisher.FrameEvents[0].Frame
	if got.Value != 0xFF08 || got.Bits != 16 || got.Faulted {
		t.Errorf("frame = %+v, want value=0xff08 bits=16 clean", got)
	}

	var parsed mqtt.FramePayload
	if err := json.Unmarshal(publisher.FramePayloads[0], &parsed); err != nil {
		t.Fatalf("payload invalid JSON: %v", err)
	}
	if parsed.Dali.Frame != "0xff08" {
		t.Errorf("payload frame = %q, want 0xff08", parsed.Dali.Frame)
	}
	if parsed.Dali.Bits != 16 {
		t.Errorf("payload bits = %d, want 16", parsed.Dali.Bits)
	}
	if parsed.Dali.Timestamp == "" {
		t.Error("payload missing timestamp")
	}
}

// TestIntegrationTransmitReceiveRoundTrip plays a frame through the
// transmitter's wave backend, converts the recorded pulses back into edge
// intervals, and feeds them to a receiver: the decoded frame must match
// what was sent.
func TestIntegrationTransmitReceiveRoundTrip(t *testing.T) {
	frames := []struct {
		value uint32
		bits  int
	}{
		{0x0, 8},
		{0xFF, 8},
		{0x01A1, 16},
		{0xFE00, 16},
		{0xA5C3F0, 24},
	}

	for _, tt := range frames {
		backend := gpio.NewFakeWaveBackend()
		tx, err := dali.NewTransmitter(backend, dali.TransmitterConfig{})
		if err != nil {
			t.Fatalf("%#x: new transmitter: %v", tt.value, err)
		}

		if err := tx.Send(tt.value, tt.bits, 1); err != nil {
			t.Fatalf("%#x: send: %v", tt.value, err)
		}
		if len(backend.Chains) != 1 {
			t.Fatalf("%#x: %d chains submitted, want 1", tt.value, len(backend.Chains))
		}
		pulses := backend.Flatten(backend.Chains[0])

		// Re-run the transmitted waveform through a receiver.
		timer := &gpio.FakeTimer{}
		var got []dali.Frame
		receiver := dali.NewReceiver(timer, func(f dali.Frame) {
			got = append(got, f)
		}, dali.ReceiverConfig{})

		edges := gpio.NewFakeEdgeSource()
		if err := edges.Subscribe(receiver.HandleEdge); err != nil {
			t.Fatalf("%#x: subscribe: %v", tt.value, err)
		}
		edges.EmitIntervals(pulseIntervals(pulses))
		timer.Fire()

		if len(got) != 1 {
			t.Fatalf("%#x: decoded %d frames, want 1", tt.value, len(got))
		}
		if got[0].Value != tt.value || got[0].Bits != tt.bits || got[0].Faulted {
			t.Errorf("round trip %#x/%d: got %+v", tt.value, tt.bits, got[0])
		}

		if err := tx.Close(); err != nil {
			t.Errorf("%#x: close: %v", tt.value, err)
		}
	}
}

// pulseIntervals merges a pulse sequence into edge intervals, with idle
// time ahead of the first edge and the trailing high run dropped.
func pulseIntervals(pulses []dali.Pulse) []time.Duration {
	intervals := []time.Duration{10 * time.Millisecond}
	runLevel := pulses[0].High
	runDur := pulses[0].Duration
	for _, p := range pulses[1:] {
		if p.High == runLevel {
			runDur += p.Duration
			continue
		}
		intervals = append(intervals, runDur)
		runLevel = p.High
		runDur = p.Duration
	}
	return intervals
}

// TestIntegrationFaultedFrameDropped verifies the abort policy keeps bad
// frames away from the publisher while clean frames still flow.
func TestIntegrationFaultedFrameDropped(t *testing.T) {
	edges := gpio.NewFakeEdgeSource()
	timer := &gpio.FakeTimer{}
	publisher := mqtt.NewFakePublisher()

	receiver := dali.NewReceiver(timer, func(f dali.Frame) {
		publisher.PublishFrame(mqtt.FrameEvent{Timestamp: time.Now(), Frame: f})
	}, dali.ReceiverConfig{Policy: dali.AbortOnError})
	defer receiver.Close()

	if err := edges.Subscribe(receiver.HandleEdge); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// A 600us run sits between the half-bit and full-bit windows.
	edges.EmitIntervals([]time.Duration{
		10 * time.Millisecond,
		dali.TE,
		dali.TE,
		600 * time.Microsecond,
		dali.TE,
	})
	timer.Fire()

	if len(publisher.FrameEvents) != 0 {
		t.Fatalf("faulted frame published, got %d events", len(publisher.FrameEvents))
	}

	// The receiver must be clean for the next frame.
	edges.EmitIntervals(frameIntervals(t, 0x2A, 8))
	timer.Fire()

	if len(publisher.FrameEvents) != 1 {
		t.Fatalf("expected 1 clean frame after fault, got %d", len(publisher.FrameEvents))
	}
	if got := publisher.FrameEvents[0].Frame; got.Value != 0x2A || got.Bits != 8 || got.Faulted {
		t.Errorf("frame after fault = %+v, want value=0x2a bits=8 clean", got)
	}
}
