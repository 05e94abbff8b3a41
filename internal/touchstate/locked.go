package touchstate

import (
	"sync"

	"github.com/banshee-data/touchbridge/internal/frame"
)

// Locked keeps the sample in a fixed array behind a RWMutex. Locks are held
// only for the copy; a busy writer may starve readers and vice versa.
type Locked struct {
	mu     sync.RWMutex
	sample [SampleSize]byte
}

// NewLocked returns an empty locked slot.
func NewLocked() *Locked {
	l := &Locked{}
	l.sample[0] = frame.Sensor.Open
	l.sample[SampleSize-1] = frame.Sensor.Close
	return l
}

// Publish implements Slot.
func (l *Locked) Publish(sample []byte) bool {
	if len(sample) != SampleSize {
		return false
	}
	l.mu.Lock()
	copy(l.sample[:], sample)
	l.mu.Unlock()
	return true
}

// Observe implements Slot.
func (l *Locked) Observe(dst []byte) []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append(dst[:0], l.sample[:]...)
}
