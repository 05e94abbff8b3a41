package link

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// ErrWriteFailed is returned when the port accepts fewer bytes than it was
// given without reporting an error.
var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// checkedWriter turns a silent short write on the port into ErrWriteFailed.
type checkedWriter struct {
	w io.Writer
}

func (c checkedWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err == nil && n != len(p) {
		return n, ErrWriteFailed
	}
	return n, err
}

// Link is one side of the bridge: a named port with a buffered reader and a
// buffered writer. The reader and the writer may be used from different
// goroutines, but each of them must have a single owner at a time.
type Link struct {
	name string
	port Port
	r    *bufio.Reader
	w    *bufio.Writer

	closeOnce sync.Once
	closeErr  error
}

// New wraps port as a Link. Reads that time out surface as ErrTimeout.
func New(name string, port Port) *Link {
	return &Link{
		name: name,
		port: port,
		r:    bufio.NewReader(timeoutReader{r: port}),
		w:    bufio.NewWriter(checkedWriter{w: port}),
	}
}

// Name returns the label the link was created with ("ALLS", "ADX").
func (l *Link) Name() string { return l.name }

func (l *Link) String() string { return l.name }

// Reader returns the buffered reader shared by every consumer of this link.
func (l *Link) Reader() *bufio.Reader { return l.r }

// Write buffers p for the port. Call Flush to push it out.
func (l *Link) Write(p []byte) (int, error) { return l.w.Write(p) }

// Flush pushes buffered bytes to the port.
func (l *Link) Flush() error { return l.w.Flush() }

// WriteFrame writes one complete frame and flushes it.
func (l *Link) WriteFrame(frame []byte) error {
	if _, err := l.Write(frame); err != nil {
		return fmt.Errorf("write to %s: %w", l.name, err)
	}
	if err := l.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", l.name, err)
	}
	return nil
}

// Close closes the underlying port. It is safe to call more than once; a
// blocked read on the port fails once it returns.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.port.Close()
	})
	return l.closeErr
}
