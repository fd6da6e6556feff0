// Package config loads dali-monitor daemon configuration from YAML.
// All values have defaults, so the daemon runs without a config file;
// command-line flags override whatever the file provides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the monitor daemon.
type Config struct {
	Bus     BusConfig     `yaml:"bus"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// BusConfig contains the physical bus parameters.
type BusConfig struct {
	// RXPin is the receive pin (BCM numbering).
	RXPin int `yaml:"rx_pin"`

	// TEUs is the Manchester half-bit period in microseconds.
	TEUs int64 `yaml:"te_us"`

	// SilenceUs is the bus-idle duration in microseconds that terminates
	// a frame. Deployed variants run 2000 and 3000.
	SilenceUs int64 `yaml:"silence_us"`

	// GlitchUs is the input glitch-filter period in microseconds.
	// Deployed variants run 150 and 50.
	GlitchUs int64 `yaml:"glitch_us"`

	// AbortOnError drops frames that failed timing or protocol checks
	// instead of delivering them faulted.
	AbortOnError bool `yaml:"abort_on_error"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// MonitorConfig contains daemon behavior settings.
type MonitorConfig struct {
	// HeartbeatS is the heartbeat interval in seconds; 0 disables.
	HeartbeatS int64 `yaml:"heartbeat_s"`
}

// Default returns the configuration the daemon runs with when no file is
// given.
func Default() Config {
	return Config{
		Bus: BusConfig{
			RXPin:     23,
			TEUs:      417,
			SilenceUs: 1800,
			GlitchUs:  150,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "dali-monitor",
		},
		Monitor: MonitorConfig{
			HeartbeatS: 900,
		},
	}
}

// Load reads YAML from path, over the defaults, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Bus.RXPin < 0 {
		return fmt.Errorf("bus.rx_pin %d must not be negative", c.Bus.RXPin)
	}
	if c.Bus.TEUs <= 0 {
		return fmt.Errorf("bus.te_us %d must be positive", c.Bus.TEUs)
	}
	if c.Bus.SilenceUs < 2*c.Bus.TEUs {
		return fmt.Errorf("bus.silence_us %d must cover at least one full bit (%d)", c.Bus.SilenceUs, 2*c.Bus.TEUs)
	}
	if c.Bus.GlitchUs < 0 {
		return fmt.Errorf("bus.glitch_us %d must not be negative", c.Bus.GlitchUs)
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker must not be empty")
	}
	if c.Monitor.HeartbeatS < 0 {
		return fmt.Errorf("monitor.heartbeat_s %d must not be negative", c.Monitor.HeartbeatS)
	}
	return nil
}

// TE returns the half-bit period as a duration.
func (c BusConfig) TE() time.Duration {
	return time.Duration(c.TEUs) * time.Microsecond
}

// Silence returns the frame-terminating idle duration.
func (c BusConfig) Silence() time.Duration {
	return time.Duration(c.SilenceUs) * time.Microsecond
}

// Glitch returns the glitch-filter period.
func (c BusConfig) Glitch() time.Duration {
	return time.Duration(c.GlitchUs) * time.Microsecond
}

// Heartbeat returns the heartbeat interval; zero means disabled.
func (c MonitorConfig) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatS) * time.Second
}
