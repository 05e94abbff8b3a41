// Package command classifies display-link frames.
package command

import "bytes"

// Reserved display-link commands. Anything else is a configuration frame.
const (
	HaltFrame  = "{HALT}"
	StatFrame  = "{STAT}"
	ResetFrame = "{RSET}"
)

// MaxSize is the length of the reserved commands, used to size frame buffers.
const MaxSize = 6

// Kind is the classification of a display-link frame.
type Kind int

const (
	// Config is an opaque configuration frame relayed to the sensor, whose
	// reply is relayed back.
	Config Kind = iota
	// Halt stops streaming.
	Halt
	// Stat starts streaming.
	Stat
	// Reset resets the sensor controller.
	Reset
)

var (
	haltBytes  = []byte(HaltFrame)
	statBytes  = []byte(StatFrame)
	resetBytes = []byte(ResetFrame)
)

// Classify matches frame byte for byte against the reserved commands.
// Case, length and trailing bytes all matter: "{halt}" and "{HALT}x" are Config.
func Classify(frame []byte) Kind {
	switch {
	case bytes.Equal(frame, haltBytes):
		return Halt
	case bytes.Equal(frame, statBytes):
		return Stat
	case bytes.Equal(frame, resetBytes):
		return Reset
	default:
		return Config
	}
}

// Frame returns a fresh copy of the wire literal for k, or nil for Config.
func (k Kind) Frame() []byte {
	switch k {
	case Halt:
		return []byte(HaltFrame)
	case Stat:
		return []byte(StatFrame)
	case Reset:
		return []byte(ResetFrame)
	default:
		return nil
	}
}

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Halt:
		return "halt"
	case Stat:
		return "stat"
	case Reset:
		return "reset"
	default:
		return "unknown"
	}
}
