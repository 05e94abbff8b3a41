package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/touchbridge/internal/config"
	"github.com/banshee-data/touchbridge/internal/link"
	"github.com/banshee-data/touchbridge/internal/touchstate"
)

// fakeOpener hands out scripted ports by path.
type fakeOpener struct {
	ports  map[string]*link.TestablePort
	opened []string
	err    map[string]error
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		ports: map[string]*link.TestablePort{
			"/dev/alls": link.NewTestablePort(),
			"/dev/adx":  link.NewTestablePort(),
		},
		err: map[string]error{},
	}
}

func (f *fakeOpener) open(path string, opts link.PortOptions) (link.TimeoutPort, error) {
	if err := f.err[path]; err != nil {
		return nil, err
	}
	f.opened = append(f.opened, path)
	return f.ports[path], nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ALLS.Path = "/dev/alls"
	cfg.ADX.Path = "/dev/adx"
	cfg.ALLS.ReadTimeout = 5 * time.Millisecond
	cfg.ADX.ReadTimeout = 5 * time.Millisecond
	return cfg
}

func TestRun_RelaysUntilCancelled(t *testing.T) {
	opener := newFakeOpener()
	display, sensor := opener.ports["/dev/alls"], opener.ports["/dev/adx"]
	display.AddReadData([]byte("{cfg1}"))
	sensor.OnWrite = func(p []byte) {
		if bytes.Contains(p, []byte("{cfg1}")) {
			sensor.AddReadData([]byte("(ack)"))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testConfig(), opener.open, zerolog.New(zerolog.NewTestWriter(t)))
	}()

	require.Eventually(t, func() bool {
		return string(display.Written()) == "(ack)"
	}, 3*time.Second, 2*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err, "cancellation is a clean shutdown")
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	assert.Equal(t, []string{"/dev/alls", "/dev/adx"}, opener.opened)
	assert.Equal(t, "{RSET}{HALT}{cfg1}", string(sensor.Written()))
	assert.True(t, display.Closed)
	assert.True(t, sensor.Closed)
	assert.Equal(t, 5*time.Millisecond, sensor.ReadTimeout)
}

func TestRun_OpenFailureClosesOpenedPorts(t *testing.T) {
	opener := newFakeOpener()
	boom := errors.New("no such device")
	opener.err["/dev/adx"] = boom

	err := run(context.Background(), testConfig(), opener.open, zerolog.Nop())

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ADX")
	assert.True(t, opener.ports["/dev/alls"].Closed)
}

func TestRun_IOErrorIsReturned(t *testing.T) {
	opener := newFakeOpener()
	boom := errors.New("device unplugged")
	opener.ports["/dev/alls"].AddReadError(boom)

	err := run(context.Background(), testConfig(), opener.open, zerolog.Nop())

	require.ErrorIs(t, err, boom)
}

func TestRun_RejectsUnknownSlot(t *testing.T) {
	opener := newFakeOpener()
	cfg := testConfig()
	cfg.Slot = "ring"

	err := run(context.Background(), cfg, opener.open, zerolog.Nop())

	require.Error(t, err)
	assert.Empty(t, opener.opened)
}

func TestSlotFactory(t *testing.T) {
	tests := []struct {
		kind string
		want touchstate.Slot
	}{
		{"", &touchstate.Packed{}},
		{touchstate.KindPacked, &touchstate.Packed{}},
		{touchstate.KindLocked, &touchstate.Locked{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			newSlot, err := slotFactory(tt.kind)
			require.NoError(t, err)

			// every session gets its own non-nil slot
			first, second := newSlot(), newSlot()
			require.NotNil(t, first)
			assert.IsType(t, tt.want, first)
			assert.NotSame(t, first, second)
		})
	}

	newSlot, err := slotFactory("ring")
	require.Error(t, err)
	assert.Nil(t, newSlot)
}
