package touchstate

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/banshee-data/touchbridge/internal/frame"
)

// Packed stores the seven payload bytes in one atomic 64-bit word, so
// publish and observe are single loads and stores with no lock.
type Packed struct {
	word atomic.Uint64
}

// NewPacked returns an empty packed slot.
func NewPacked() *Packed {
	return &Packed{}
}

// Publish implements Slot.
func (p *Packed) Publish(sample []byte) bool {
	if len(sample) != SampleSize {
		return false
	}
	p.word.Store(Pack(sample))
	return true
}

// Observe implements Slot.
func (p *Packed) Observe(dst []byte) []byte {
	return Unpack(p.word.Load(), dst)
}

// Pack folds the payload of a SampleSize sample into a word, most
// significant byte first. The low byte of the result is always zero.
func Pack(sample []byte) uint64 {
	var w uint64
	for _, b := range sample[1 : 1+payloadSize] {
		w |= uint64(b)
		w <<= 8
	}
	return w
}

// Unpack rebuilds the sample for w into dst[:0].
func Unpack(w uint64, dst []byte) []byte {
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], w)
	return frame.Sensor.Wrap(dst, be[:payloadSize])
}
