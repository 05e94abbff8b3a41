package link

import (
	"errors"
	"io"
	"os"
)

// ErrTimeout is returned by a Link reader when the port read timeout expired
// before any byte arrived. It is a retry signal, not a failure.
var ErrTimeout error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string { return "link: read timed out" }
func (timeoutError) Timeout() bool { return true }

// IsTimeout reports whether err means "no data within the read timeout".
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// timeoutReader reports an empty read as ErrTimeout. go.bug.st/serial returns
// (0, nil) when the read timeout elapses, which bufio would otherwise turn
// into io.ErrNoProgress after enough retries.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n == 0 && err == nil && len(p) > 0 {
		return 0, ErrTimeout
	}
	return n, err
}
