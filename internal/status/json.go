package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// statusEvent is the full-snapshot system payload published at startup,
// shutdown, and heartbeat.
type statusEvent struct {
	System systemBlock `json:"system"`
}

type systemBlock struct {
	Timestamp     string      `json:"timestamp"`
	Event         string      `json:"event"`
	Reason        string      `json:"reason,omitempty"`
	UptimeSeconds int64       `json:"uptime_s"`
	MQTTConnected bool        `json:"mqtt_connected"`
	Counts        countsBlock `json:"counts"`
	LastFrame     *frameBlock `json:"last_frame,omitempty"`
	Config        configBlock `json:"config"`
}

type countsBlock struct {
	Frames  int `json:"frames"`
	Faulted int `json:"faulted"`
	Empty   int `json:"empty"`
	Dropped int `json:"dropped"`
}

type frameBlock struct {
	Frame     string `json:"frame"`
	Bits      int    `json:"bits"`
	Faulted   bool   `json:"faulted,omitempty"`
	Timestamp string `json:"timestamp"`
}

type configBlock struct {
	RXPin     int    `json:"rx_pin"`
	TEUs      int64  `json:"te_us"`
	SilenceUs int64  `json:"silence_us"`
	GlitchUs  int64  `json:"glitch_us"`
	Broker    string `json:"broker"`
}

// FormatStatusEvent renders a snapshot as the system event payload.
func FormatStatusEvent(s Snapshot, event, reason string) []byte {
	ev := statusEvent{
		System: systemBlock{
			Timestamp:     s.Now.UTC().Format(time.RFC3339),
			Event:         event,
			Reason:        reason,
			UptimeSeconds: int64(s.Uptime().Seconds()),
			MQTTConnected: s.MQTTConnected,
			Counts: countsBlock{
				Frames:  s.Counts.Frames,
				Faulted: s.Counts.Faulted,
				Empty:   s.Counts.Empty,
				Dropped: s.Counts.Dropped,
			},
			Config: configBlock{
				RXPin:     s.Config.RXPin,
				TEUs:      s.Config.TEUs,
				SilenceUs: s.Config.SilenceUs,
				GlitchUs:  s.Config.GlitchUs,
				Broker:    s.Config.Broker,
			},
		},
	}

	if !s.LastFrameAt.IsZero() {
		ev.System.LastFrame = &frameBlock{
			Frame:     fmt.Sprintf("%#x", s.LastFrame.Value),
			Bits:      s.LastFrame.Bits,
			Faulted:   s.LastFrame.Faulted,
			Timestamp: s.LastFrameAt.UTC().Format(time.RFC3339),
		}
	}

	// Marshal of a plain struct cannot fail.
	payload, _ := json.Marshal(ev)
	return payload
}
