// Package link wraps the two serial connections the bridge talks to. A Link
// pairs a buffered reader and a buffered writer over one open port and turns
// the port's read timeouts into a distinguishable error.
package link

import (
	"io"
	"time"
)

// Port defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type Port interface {
	io.ReadWriter
	io.Closer
}

// TimeoutPort is a Port whose reads give up after a fixed interval.
// go.bug.st/serial ports satisfy it directly.
type TimeoutPort interface {
	Port
	// SetReadTimeout sets the read timeout for the serial port.
	SetReadTimeout(timeout time.Duration) error
}
