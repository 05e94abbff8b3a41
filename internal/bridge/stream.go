package bridge

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/banshee-data/touchbridge/internal/command"
	"github.com/banshee-data/touchbridge/internal/frame"
	"github.com/banshee-data/touchbridge/internal/touchstate"
)

// haltFlag is the shutdown signal of one streaming session. It starts out
// running and is set to halted at most once, by the watcher.
type haltFlag struct {
	halted atomic.Bool
}

func (f *haltFlag) running() bool { return !f.halted.Load() }

func (f *haltFlag) halt() { f.halted.Store(true) }

// session is the state shared by the goroutines of one streaming session.
type session struct {
	id   string
	log  zerolog.Logger
	slot touchstate.Slot
	flag *haltFlag
}

// stream runs one streaming session: a producer publishes sensor samples
// into the slot, a publisher writes the slot to the display and a watcher
// waits for {HALT}. Each goroutine owns exactly one link direction. Once
// all three have returned the sensor is drained and reset.
//
// The flag is only checked between frames, so the producer and watcher
// notice a halt after their current frame read completes.
func (b *Bridge) stream() error {
	s := &session{
		id:   uuid.NewString(),
		slot: b.newSlot(),
		flag: &haltFlag{},
	}
	s.log = b.log.With().Str("session", s.id).Logger()

	s.log.Info().Msg("Streaming mode")
	b.tap.Publish("session " + s.id + " started")
	b.setMode(ModeStreaming)
	b.metrics.Streaming.Set(1)
	start := time.Now()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, activity := range []func(*session) error{b.produce, b.publish, b.watch} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = activity(s)
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	b.metrics.Streaming.Set(0)
	b.metrics.Sessions.Inc()
	b.metrics.SessionDuration.Observe(elapsed.Seconds())
	s.log.Info().Dur("elapsed", elapsed).Msg("Streaming stopped")
	b.tap.Publish("session " + s.id + " stopped")

	drainErr := b.DrainAndReset()
	b.setMode(ModeRelay)

	if err := errors.Join(append(errs, drainErr)...); err != nil {
		return fmt.Errorf("streaming session %s: %w", s.id, err)
	}
	return nil
}

// produce reads touch samples from the sensor into the slot.
func (b *Bridge) produce(s *session) error {
	samples := frame.NewReader(b.sensor.Reader(), frame.Sensor)
	for s.flag.running() {
		sample, err := samples.Next()
		if err != nil {
			s.log.Error().Err(err).Msg("touch sample read failed")
			return fmt.Errorf("read touch sample: %w", err)
		}
		if !s.slot.Publish(sample) {
			s.log.Warn().
				Int("len", len(sample)).
				Int("expected", touchstate.SampleSize).
				Msg("Couldn't forward touch packet")
			b.metrics.TouchSamples.WithLabelValues("dropped").Inc()
			continue
		}
		b.metrics.TouchSamples.WithLabelValues("published").Inc()
	}
	return nil
}

// publish writes the latest sample to the display, flushing every write.
func (b *Bridge) publish(s *session) error {
	sample := make([]byte, 0, touchstate.SampleSize)
	for s.flag.running() {
		sample = s.slot.Observe(sample)
		if err := b.display.WriteFrame(sample); err != nil {
			s.log.Error().Err(err).Msg("touch sample write failed")
			return fmt.Errorf("write touch sample: %w", err)
		}
		b.metrics.TouchWrites.Inc()
	}
	return nil
}

// watch waits for {HALT} on the display and then halts the session. A read
// error halts the session too.
func (b *Bridge) watch(s *session) error {
	commands := frame.NewReader(b.display.Reader(), frame.Display)
	for {
		cmd, err := commands.Next()
		if err != nil {
			s.flag.halt()
			return fmt.Errorf("watch for halt: %w", err)
		}
		kind := command.Classify(cmd)
		b.metrics.Commands.WithLabelValues(kind.String()).Inc()
		if kind == command.Halt {
			s.log.Info().Msg("HALT command in streaming mode")
			b.setLastCommand(cmd)
			s.flag.halt()
			return nil
		}
		s.log.Debug().Str("frame", string(cmd)).Msg("ignoring command while streaming")
	}
}
