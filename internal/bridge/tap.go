package bridge

import (
	"sync"

	"github.com/google/uuid"
)

// tapBuffer is how many lines a slow subscriber may fall behind before
// lines are dropped for it.
const tapBuffer = 16

// Tap fans out a text line for every relayed frame and session transition
// to any number of subscribers. Publishing never blocks the bridge.
type Tap struct {
	mu          sync.Mutex
	subscribers map[string]chan string
	closing     bool
}

// NewTap returns an empty Tap.
func NewTap() *Tap {
	return &Tap{subscribers: make(map[string]chan string)}
}

// Subscribe creates a new channel for receiving tap lines. The ID is used to
// identify the channel when unsubscribing.
func (t *Tap) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, tapBuffer)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		// If already closing, return a closed channel so callers don't block.
		close(ch)
		return id, ch
	}
	t.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (t *Tap) Unsubscribe(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.subscribers[id]; ok {
		close(ch)
		delete(t.subscribers, id)
	}
}

// Publish sends line to every subscriber that has room for it.
func (t *Tap) Publish(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subscribers {
		select {
		case ch <- line:
		default:
			// if the channel is full skip so as not to block the bridge
		}
	}
}

// Close closes every subscriber channel. Later subscribers get a closed
// channel.
func (t *Tap) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closing = true
	for id, ch := range t.subscribers {
		close(ch)
		delete(t.subscribers, id)
	}
}
