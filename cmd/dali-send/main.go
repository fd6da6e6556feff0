// Command dali-send transmits a single Manchester-coded frame on a DALI
// bus pin, optionally repeated. It is a one-shot tool: open the pin, play
// the frame, release the bus, exit.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/sweeney/dali-phy/internal/dali"
	"github.com/sweeney/dali-phy/internal/gpio"
)

func main() {
	pin := flag.Int("pin", gpio.DefaultPinTX, "BCM pin number for bus transmit")
	code := flag.String("code", "", "frame value to send (hex with 0x prefix, or decimal)")
	bits := flag.Int("bits", 16, "frame length in bits (1-32)")
	repeat := flag.Int("repeat", 1, "number of times to send the frame")
	te := flag.Duration("te", dali.TE, "half-bit period")
	gap := flag.Duration("gap", 0, "intended inter-frame gap")
	poll := flag.Duration("poll", dali.DefaultTxPoll, "busy-poll interval")
	query := flag.Int("query", -1, "send a status query to this short address (0-63) instead of -code")

	flag.Parse()

	value, nbits, err := resolveFrame(*query, *code, *bits)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(*pin, value, nbits, *repeat, *te, *gap, *poll); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// resolveFrame picks the frame to send: a status query built from a short
// address, or an explicit code.
func resolveFrame(query int, code string, bits int) (uint32, int, error) {
	if query >= 0 {
		if query > 63 {
			return 0, 0, fmt.Errorf("query address %d out of range 0-63", query)
		}
		return queryStatusFrame(query), 16, nil
	}
	if code == "" {
		return 0, 0, fmt.Errorf("one of -code or -query is required")
	}
	value, err := parseCode(code)
	if err != nil {
		return 0, 0, err
	}
	return value, bits, nil
}

// queryStatusFrame builds the 16-bit status query forward frame for a
// short address: the address byte (short addressing, command follows)
// followed by the query opcode.
func queryStatusFrame(addr int) uint32 {
	return 0x01A1 | uint32(addr&0x3F)<<9
}

// parseCode accepts hex (0x prefix) or decimal frame values.
func parseCode(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid frame code %q: %w", s, err)
	}
	return uint32(v), nil
}

func run(pin int, code uint32, bits, repeat int, te, gap, poll time.Duration) error {
	backend, err := gpio.NewRealWaveBackend(pin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer backend.Close()

	tx, err := dali.NewTransmitter(backend, dali.TransmitterConfig{
		TE:   te,
		Gap:  gap,
		Poll: poll,
	})
	if err != nil {
		return fmt.Errorf("init transmitter: %w", err)
	}
	defer tx.Close()

	log.Printf("sending: code=%#x bits=%d repeat=%d pin=%d te=%v", code, bits, repeat, pin, te)
	if err := tx.Send(code, bits, repeat); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	log.Printf("done")

	return nil
}
