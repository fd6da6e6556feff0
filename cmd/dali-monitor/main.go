// Command dali-monitor watches a DALI bus pin, decodes frames, and publishes
// them to MQTT.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/dali-phy/internal/config"
	"github.com/sweeney/dali-phy/internal/dali"
	"github.com/sweeney/dali-phy/internal/gpio"
	"github.com/sweeney/dali-phy/internal/mqtt"
	"github.com/sweeney/dali-phy/internal/status"
)

// frameQueueSize bounds frames waiting for publish. The decoder callback
// must never block, so overflow drops frames instead of stalling edges.
const frameQueueSize = 16

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	rxPin := flag.Int("rx-pin", gpio.DefaultPinRX, "BCM pin number for bus receive")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	silence := flag.Duration("silence", dali.DefaultSilence, "bus-idle duration that ends a frame")
	glitch := flag.Duration("glitch", gpio.DefaultGlitchFilter, "input glitch filter period")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	abortOnError := flag.Bool("abort-on-error", false, "drop faulted frames instead of delivering them")

	flag.Parse()

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyFlagOverrides(&cfg, flagsSeen(), *rxPin, *broker, *silence, *glitch, *heartbeat, *abortOnError)

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// flagsSeen returns the set of flags explicitly given on the command line.
func flagsSeen() map[string]bool {
	seen := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	return seen
}

// resolveConfig loads the config file if one was given, else defaults.
func resolveConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyFlagOverrides lets explicit flags win over file values.
func applyFlagOverrides(cfg *config.Config, seen map[string]bool, rxPin int, broker string, silence, glitch, heartbeat time.Duration, abortOnError bool) {
	if seen["rx-pin"] {
		cfg.Bus.RXPin = rxPin
	}
	if seen["broker"] {
		cfg.MQTT.Broker = broker
	}
	if seen["silence"] {
		cfg.Bus.SilenceUs = silence.Microseconds()
	}
	if seen["glitch"] {
		cfg.Bus.GlitchUs = glitch.Microseconds()
	}
	if seen["heartbeat"] {
		cfg.Monitor.HeartbeatS = int64(heartbeat.Seconds())
	}
	if seen["abort-on-error"] {
		cfg.Bus.AbortOnError = abortOnError
	}
}

func run(cfg config.Config) error {
	edges, err := gpio.NewRealEdgeSource(cfg.Bus.RXPin, cfg.Bus.Glitch())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer edges.Close()

	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	startTime := time.Now()
	tracker := status.NewTracker(startTime, status.Config{
		RXPin:     cfg.Bus.RXPin,
		TEUs:      cfg.Bus.TEUs,
		SilenceUs: cfg.Bus.SilenceUs,
		GlitchUs:  cfg.Bus.GlitchUs,
		Broker:    cfg.MQTT.Broker,
	})

	policy := dali.ContinueOnError
	if cfg.Bus.AbortOnError {
		policy = dali.AbortOnError
	}

	frames := make(chan mqtt.FrameEvent, frameQueueSize)
	receiver := dali.NewReceiver(gpio.NewSoftTimer(), frameHandler(frames, tracker, time.Now), dali.ReceiverConfig{
		Classifier: classifierFor(cfg.Bus.TE()),
		Silence:    cfg.Bus.Silence(),
		Policy:     policy,
	})
	defer receiver.Close()

	if err := edges.Subscribe(receiver.HandleEdge); err != nil {
		return fmt.Errorf("subscribe edges: %w", err)
	}

	// Publish startup event with full status snapshot.
	tracker.SetMQTTConnected(publisher.IsConnected())
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	log.Printf("started: rx-pin=%d te=%v silence=%v glitch=%v broker=%s heartbeat=%v",
		cfg.Bus.RXPin, cfg.Bus.TE(), cfg.Bus.Silence(), cfg.Bus.Glitch(), cfg.MQTT.Broker, cfg.Monitor.Heartbeat())

	var tick <-chan time.Time
	if hb := cfg.Monitor.Heartbeat(); hb > 0 {
		ticker := time.NewTicker(hb)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(publisher, publisher, tracker, frames, time.Now, tick, sigCh)
}

// classifierFor scales the default tolerance windows to a non-standard
// half-bit period. At the nominal TE this yields exactly the defaults.
func classifierFor(te time.Duration) dali.Classifier {
	c := dali.NewClassifier()
	if te == dali.TE {
		return c
	}
	scale := func(d time.Duration) time.Duration {
		return time.Duration(int64(d) * int64(te) / int64(dali.TE))
	}
	return dali.Classifier{
		HalfMin: scale(c.HalfMin),
		HalfMax: scale(c.HalfMax),
		FullMin: scale(c.FullMin),
		FullMax: scale(c.FullMax),
	}
}

// frameHandler returns the receiver callback: a non-blocking handoff into
// the publish queue. Runs on the watchdog goroutine, so it must not wait.
func frameHandler(frames chan<- mqtt.FrameEvent, tracker *status.Tracker, now func() time.Time) dali.FrameFunc {
	return func(f dali.Frame) {
		select {
		case frames <- mqtt.FrameEvent{Timestamp: now(), Frame: f}:
		default:
			tracker.RecordDropped()
		}
	}
}

func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, frames <-chan mqtt.FrameEvent, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case ev := <-frames:
			tracker.RecordFrame(ev.Frame, ev.Timestamp)
			log.Printf("frame: %#x bits=%d faulted=%v", ev.Frame.Value, ev.Frame.Bits, ev.Frame.Faulted)
			if err := publisher.PublishFrame(ev); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure.
			}

		case <-tick:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v frames=%d faulted=%d empty=%d dropped=%d",
				snap.Uptime().Round(time.Second), snap.Counts.Frames, snap.Counts.Faulted, snap.Counts.Empty, snap.Counts.Dropped)

			event := mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}
