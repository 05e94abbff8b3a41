// Package bridge relays frames between the display controller (ALLS) and
// the touch sensor controller (ADX).
//
// In relay mode every display frame is forwarded to the sensor and, for
// configuration frames, the sensor's reply is forwarded back. A {STAT}
// command starts a streaming session in which the latest touch sample is
// written to the display as fast as the link accepts it until {HALT}.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banshee-data/touchbridge/internal/command"
	"github.com/banshee-data/touchbridge/internal/frame"
	"github.com/banshee-data/touchbridge/internal/link"
	"github.com/banshee-data/touchbridge/internal/monitoring"
	"github.com/banshee-data/touchbridge/internal/touchstate"
)

const (
	ModeRelay     = "relay"
	ModeStreaming = "streaming"
)

// Config wires a Bridge to its links and collaborators.
type Config struct {
	// Display is the ALLS link ({} frames).
	Display *link.Link
	// Sensor is the ADX link (() frames).
	Sensor *link.Link
	// NewSlot creates the touch slot for each streaming session. Nil selects
	// the packed slot.
	NewSlot func() touchstate.Slot
	// Logger receives bridge events. The zero value logs nothing.
	Logger zerolog.Logger
	// Metrics records bridge counters. Nil creates a private set.
	Metrics *monitoring.Metrics
}

// Bridge runs the relay loop between two links.
type Bridge struct {
	display *link.Link
	sensor  *link.Link
	newSlot func() touchstate.Slot
	log     zerolog.Logger
	metrics *monitoring.Metrics
	tap     *Tap
	started time.Time

	mu          sync.Mutex
	mode        string
	sessions    uint64
	lastCommand string
}

// New creates a Bridge. Display and Sensor must be set.
func New(cfg Config) *Bridge {
	if cfg.Display == nil || cfg.Sensor == nil {
		panic("bridge: display and sensor links are required")
	}
	newSlot := cfg.NewSlot
	if newSlot == nil {
		newSlot = func() touchstate.Slot { return touchstate.NewPacked() }
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	return &Bridge{
		display: cfg.Display,
		sensor:  cfg.Sensor,
		newSlot: newSlot,
		log:     cfg.Logger,
		metrics: metrics,
		tap:     NewTap(),
		started: time.Now(),
		mode:    ModeRelay,
	}
}

// Tap returns the feed of relayed frames and session transitions.
func (b *Bridge) Tap() *Tap { return b.tap }

// Run drains the sensor once and then relays frames until an I/O error
// occurs or ctx is cancelled. Cancelling ctx closes both links so that a
// pending read returns; Run then reports ctx.Err().
func (b *Bridge) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		b.display.Close()
		b.sensor.Close()
	})
	defer stop()
	defer b.tap.Close()

	if err := b.DrainAndReset(); err != nil {
		return b.ioError(ctx, "startup drain", err)
	}

	// At startup the ADX is in config mode: the ALLS sends it messages and
	// it answers each one until streaming is enabled.
	b.log.Info().Msg("Read loop started")

	commands := frame.NewReader(b.display.Reader(), frame.Display)
	replies := frame.NewReader(b.sensor.Reader(), frame.Sensor)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.relay(commands, replies); err != nil {
			return b.ioError(ctx, "relay", err)
		}
	}
}

// relay handles one display frame.
func (b *Bridge) relay(commands, replies *frame.Reader) error {
	cmd, err := commands.Next()
	if err != nil {
		return fmt.Errorf("read %s frame: %w", b.display, err)
	}
	if err := b.sensor.WriteFrame(cmd); err != nil {
		return err
	}
	b.metrics.FramesRelayed.WithLabelValues("display_to_sensor").Inc()

	kind := command.Classify(cmd)
	b.metrics.Commands.WithLabelValues(kind.String()).Inc()
	b.setLastCommand(cmd)
	b.log.Info().Str("frame", string(cmd)).Msg("From ALLS")
	b.tap.Publish(fmt.Sprintf("ALLS> %q", cmd))

	switch kind {
	case command.Config:
		reply, err := replies.Next()
		if err != nil {
			return fmt.Errorf("read %s reply: %w", b.sensor, err)
		}
		b.log.Info().Str("frame", string(reply)).Msg("From ADX")
		b.tap.Publish(fmt.Sprintf("ADX> %q", reply))
		if err := b.display.WriteFrame(reply); err != nil {
			return err
		}
		b.metrics.FramesRelayed.WithLabelValues("sensor_to_display").Inc()
	case command.Stat:
		return b.stream()
	case command.Halt, command.Reset:
		// already forwarded
	}
	return nil
}

func (b *Bridge) ioError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Status is a snapshot of the bridge state for the debug page.
type Status struct {
	Mode        string `json:"mode"`
	Sessions    uint64 `json:"sessions"`
	LastCommand string `json:"last_command,omitempty"`
	Display     string `json:"display"`
	Sensor      string `json:"sensor"`
	Uptime      string `json:"uptime"`
}

// Status returns the current bridge state.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Mode:        b.mode,
		Sessions:    b.sessions,
		LastCommand: b.lastCommand,
		Display:     b.display.Name(),
		Sensor:      b.sensor.Name(),
		Uptime:      time.Since(b.started).Round(time.Second).String(),
	}
}

func (b *Bridge) setLastCommand(cmd []byte) {
	b.mu.Lock()
	b.lastCommand = string(cmd)
	b.mu.Unlock()
}

func (b *Bridge) setMode(mode string) {
	b.mu.Lock()
	b.mode = mode
	if mode == ModeStreaming {
		b.sessions++
	}
	b.mu.Unlock()
}
