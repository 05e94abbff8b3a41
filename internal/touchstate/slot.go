// Package touchstate holds the most recent touch sample during a streaming
// session. One producer publishes, any number of observers read; the latest
// value wins and a reader never sees a half-written sample.
package touchstate

import "fmt"

// SampleSize is the length of a touch sample: '(' + 7 payload bytes + ')'.
const SampleSize = 9

// payloadSize is the number of bytes between the delimiters.
const payloadSize = SampleSize - 2

// Slot names accepted by New.
const (
	KindPacked = "packed"
	KindLocked = "locked"
)

// Slot is a single-value store for the latest touch sample. Neither method
// blocks waiting for a new value.
type Slot interface {
	// Publish stores sample and reports whether it was accepted. Samples
	// that are not exactly SampleSize bytes leave the slot unchanged.
	Publish(sample []byte) bool
	// Observe appends the current sample to dst[:0]. Before the first
	// publish the sample carries an all-zero payload between '(' and ')',
	// the same bytes for both forms.
	Observe(dst []byte) []byte
}

// New returns a Slot of the named kind. The empty name selects the packed
// form.
func New(kind string) (Slot, error) {
	switch kind {
	case "", KindPacked:
		return NewPacked(), nil
	case KindLocked:
		return NewLocked(), nil
	default:
		return nil, fmt.Errorf("unknown touch slot %q: expected %q or %q", kind, KindPacked, KindLocked)
	}
}
