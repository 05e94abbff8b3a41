package link

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// ErrPortClosed is returned by TestablePort once Close has been called.
var ErrPortClosed = errors.New("serial port closed")

// readStep is one scripted Read outcome. A step with neither data nor err
// is a timed-out read.
type readStep struct {
	data []byte
	err  error
}

// TestablePort implements TimeoutPort with configurable behaviour for testing.
// Reads follow a script of data chunks, errors and timeouts; once the script
// is exhausted the port either repeats Repeat forever or behaves like an idle
// serial line and returns (0, nil) after ReadTimeout.
type TestablePort struct {
	mu sync.Mutex

	script    []readStep
	repeat    []byte
	repeatOff int

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// WriteLatency adds a delay to each Write call
	WriteLatency time.Duration

	// WriteError is returned by the next Write call if set
	WriteError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// WriteCalls records the number of Write calls
	WriteCalls int

	// ReadTimeout is how long an idle Read waits before timing out
	ReadTimeout time.Duration

	// OnWrite, if set, is called after every successful Write with a copy
	// of the written bytes. It runs without the port lock held, so it may
	// script replies with AddReadData or SetRepeat.
	OnWrite func(p []byte)
}

// NewTestablePort creates a new TestablePort with a short idle timeout.
func NewTestablePort() *TestablePort {
	return &TestablePort{
		WriteBuffer: bytes.NewBuffer(nil),
		ReadTimeout: 2 * time.Millisecond,
	}
}

// Read returns the next scripted chunk, repeat data, or a timed-out read.
func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	t.ReadCalls++

	if t.Closed {
		t.mu.Unlock()
		return 0, ErrPortClosed
	}

	if len(t.script) > 0 {
		step := t.script[0]
		if step.err != nil || len(step.data) == 0 {
			t.script = t.script[1:]
			t.mu.Unlock()
			return 0, step.err
		}
		n := copy(p, step.data)
		if n < len(step.data) {
			t.script[0].data = step.data[n:]
		} else {
			t.script = t.script[1:]
		}
		t.mu.Unlock()
		return n, nil
	}

	if len(t.repeat) > 0 {
		n := 0
		for n < len(p) {
			c := copy(p[n:], t.repeat[t.repeatOff:])
			n += c
			t.repeatOff = (t.repeatOff + c) % len(t.repeat)
		}
		t.mu.Unlock()
		return n, nil
	}

	wait := t.ReadTimeout
	t.mu.Unlock()

	time.Sleep(wait)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Closed {
		return 0, ErrPortClosed
	}
	return 0, nil
}

// Write writes to the write buffer, optionally simulating latency and errors.
func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	t.WriteCalls++

	if t.Closed {
		t.mu.Unlock()
		return 0, ErrPortClosed
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		t.mu.Unlock()
		return 0, err
	}

	if t.WriteLatency > 0 {
		t.mu.Unlock()
		time.Sleep(t.WriteLatency)
		t.mu.Lock()
	}

	n, err := t.WriteBuffer.Write(p)
	hook := t.OnWrite
	t.mu.Unlock()

	if hook != nil && err == nil {
		hook(bytes.Clone(p))
	}
	return n, err
}

// Close marks the port as closed.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	return t.CloseError
}

// SetReadTimeout implements TimeoutPort.
func (t *TestablePort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	return nil
}

// AddReadData appends a chunk to the read script.
func (t *TestablePort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.script = append(t.script, readStep{data: bytes.Clone(data)})
}

// AddReadError appends a failing read to the read script.
func (t *TestablePort) AddReadError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.script = append(t.script, readStep{err: err})
}

// AddTimeout appends an immediately timed-out read to the read script.
func (t *TestablePort) AddTimeout() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.script = append(t.script, readStep{})
}

// SetRepeat makes reads past the end of the script cycle through data.
// Passing nil returns the port to idle timeouts.
func (t *TestablePort) SetRepeat(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.repeat = bytes.Clone(data)
	t.repeatOff = 0
}

// Written returns a copy of all data written to the port.
func (t *TestablePort) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return bytes.Clone(t.WriteBuffer.Bytes())
}
