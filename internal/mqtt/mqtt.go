// Package mqtt publishes decoded bus frames and daemon lifecycle events,
// with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/dali-phy/internal/dali"
)

// TopicFrames is the MQTT topic for decoded bus frames.
const TopicFrames = "lighting/dali/monitor/frames"

// TopicSystem is the MQTT topic for daemon lifecycle events.
const TopicSystem = "lighting/dali/monitor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishFrame sends a decoded frame to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishFrame(event FrameEvent) error

	// PublishSystem sends a daemon lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// FrameEvent is one decoded frame with its wall-clock arrival time.
type FrameEvent struct {
	Timestamp time.Time
	Frame     dali.Frame
}

// SystemEvent represents a daemon lifecycle event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// FramePayload is the MQTT message payload for a decoded frame.
type FramePayload struct {
	Dali DaliPayload `json:"dali"`
}

// DaliPayload contains the frame details. Frame is the value in hex for
// human consumers; Value and Bits carry the raw decode.
type DaliPayload struct {
	Timestamp string `json:"timestamp"`
	Frame     string `json:"frame"`
	Value     uint32 `json:"value"`
	Bits      int    `json:"bits"`
	Faulted   bool   `json:"faulted,omitempty"`
}

// FormatFramePayload creates the JSON payload for a frame event.
func FormatFramePayload(event FrameEvent) ([]byte, error) {
	payload := FramePayload{
		Dali: DaliPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Frame:     fmt.Sprintf("%#x", event.Frame.Value),
			Value:     event.Frame.Value,
			Bits:      event.Frame.Bits,
			Faulted:   event.Frame.Faulted,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message payload for simple system events that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
