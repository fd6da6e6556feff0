package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Bus.TE() != 417*time.Microsecond {
		t.Errorf("default TE = %v", cfg.Bus.TE())
	}
	if cfg.Bus.Silence() != 1800*time.Microsecond {
		t.Errorf("default silence = %v", cfg.Bus.Silence())
	}
	if cfg.Monitor.Heartbeat() != 15*time.Minute {
		t.Errorf("default heartbeat = %v", cfg.Monitor.Heartbeat())
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
bus:
  rx_pin: 6
  silence_us: 3000
  glitch_us: 50
mqtt:
  broker: tcp://192.168.1.200:1883
monitor:
  heartbeat_s: 60
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Bus.RXPin != 6 {
		t.Errorf("rx_pin = %d, want 6", cfg.Bus.RXPin)
	}
	if cfg.Bus.Silence() != 3*time.Millisecond {
		t.Errorf("silence = %v, want 3ms", cfg.Bus.Silence())
	}
	if cfg.Bus.Glitch() != 50*time.Microsecond {
		t.Errorf("glitch = %v, want 50us", cfg.Bus.Glitch())
	}
	// Untouched values keep their defaults.
	if cfg.Bus.TEUs != 417 {
		t.Errorf("te_us = %d, want default 417", cfg.Bus.TEUs)
	}
	if cfg.MQTT.ClientID != "dali-monitor" {
		t.Errorf("client_id = %q, want default", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("broker = %q", cfg.MQTT.Broker)
	}
	if cfg.Monitor.Heartbeat() != time.Minute {
		t.Errorf("heartbeat = %v, want 1m", cfg.Monitor.Heartbeat())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "bus: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative rx pin", func(c *Config) { c.Bus.RXPin = -1 }},
		{"zero te", func(c *Config) { c.Bus.TEUs = 0 }},
		{"silence below full bit", func(c *Config) { c.Bus.SilenceUs = 500 }},
		{"negative glitch", func(c *Config) { c.Bus.GlitchUs = -10 }},
		{"empty broker", func(c *Config) { c.MQTT.Broker = "" }},
		{"negative heartbeat", func(c *Config) { c.Monitor.HeartbeatS = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
