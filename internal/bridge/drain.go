package bridge

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/banshee-data/touchbridge/internal/command"
	"github.com/banshee-data/touchbridge/internal/frame"
	"github.com/banshee-data/touchbridge/internal/link"
)

// DrainAndReset puts the sensor back into configuration mode: it sends
// {RSET} and {HALT}, then discards sensor output until one read times out.
// A quiet link for one timeout interval means the sensor has stopped.
func (b *Bridge) DrainAndReset() error {
	b.log.Info().Msg("Halting and clearing ADX read buffer")

	if _, err := b.sensor.Write(command.Reset.Frame()); err != nil {
		return fmt.Errorf("send reset: %w", err)
	}
	if _, err := b.sensor.Write(command.Halt.Frame()); err != nil {
		return fmt.Errorf("send halt: %w", err)
	}
	if err := b.sensor.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", b.sensor, err)
	}

	r := b.sensor.Reader()
	drained := 0
	for {
		chunk, err := r.ReadSlice(frame.Sensor.Close)
		switch {
		case err == nil:
			drained++
			b.log.Debug().Int("bytes", len(chunk)).Msg("drained sensor frame")
		case errors.Is(err, bufio.ErrBufferFull):
			// keep discarding
		case link.IsTimeout(err):
			b.metrics.DrainedFrames.Add(float64(drained))
			b.log.Info().Int("frames", drained).Msg("ADX drained")
			return nil
		default:
			return fmt.Errorf("drain %s: %w", b.sensor, err)
		}
	}
}
