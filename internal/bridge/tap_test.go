package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTap_PublishReachesSubscribers(t *testing.T) {
	tap := NewTap()
	_, a := tap.Subscribe()
	_, b := tap.Subscribe()

	tap.Publish("ALLS> \"{STAT}\"")

	assert.Equal(t, "ALLS> \"{STAT}\"", <-a)
	assert.Equal(t, "ALLS> \"{STAT}\"", <-b)
}

func TestTap_Unsubscribe(t *testing.T) {
	tap := NewTap()
	id, ch := tap.Subscribe()

	tap.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	// unknown and repeated ids are ignored
	tap.Unsubscribe(id)
	tap.Unsubscribe("missing")
	tap.Publish("after")
}

func TestTap_SlowSubscriberDropsLines(t *testing.T) {
	tap := NewTap()
	_, ch := tap.Subscribe()

	for i := range tapBuffer + 5 {
		tap.Publish(string(rune('a' + i)))
	}

	require.Len(t, ch, tapBuffer)
	assert.Equal(t, "a", <-ch)
}

func TestTap_Close(t *testing.T) {
	tap := NewTap()
	id, ch := tap.Subscribe()

	tap.Close()
	_, ok := <-ch
	assert.False(t, ok)

	// safe after close
	tap.Unsubscribe(id)
	tap.Publish("ignored")

	_, late := tap.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing after close returns a closed channel")
}
