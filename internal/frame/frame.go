// Package frame extracts delimiter-bounded frames from a serial byte stream.
//
// Both controllers wrap every message in a fixed pair of delimiter bytes and
// may emit noise between messages. A frame is returned only once both
// delimiters have been seen; read timeouts inside a frame are retried so a
// slow peer never produces a partial frame.
package frame

import (
	"bufio"
	"errors"

	"github.com/banshee-data/touchbridge/internal/link"
)

// Delimiter is the open/close byte pair that bounds frames on one link.
type Delimiter struct {
	Open  byte
	Close byte
}

var (
	// Display frames look like {STAT}.
	Display = Delimiter{Open: '{', Close: '}'}
	// Sensor frames look like (1234567).
	Sensor = Delimiter{Open: '(', Close: ')'}
)

// Wrap returns payload enclosed in the delimiters, appended to dst[:0].
func (d Delimiter) Wrap(dst, payload []byte) []byte {
	dst = append(dst[:0], d.Open)
	dst = append(dst, payload...)
	return append(dst, d.Close)
}

// Read discards input up to and including the next d.Open and then returns
// everything up to and including the next d.Close, seeded into buf[:0].
// Timeouts are retried at both stages. Any other error is returned together
// with an empty slice that keeps buf's capacity; partial frames are dropped.
func Read(r *bufio.Reader, d Delimiter, buf []byte) ([]byte, error) {
	buf = append(buf[:0], d.Open)

	if err := skipUntil(r, d.Open); err != nil {
		return buf[:0], err
	}

	for {
		chunk, err := r.ReadSlice(d.Close)
		buf = append(buf, chunk...)
		if err == nil {
			return buf, nil
		}
		if !retryable(err) {
			return buf[:0], err
		}
	}
}

func skipUntil(r *bufio.Reader, delim byte) error {
	for {
		_, err := r.ReadSlice(delim)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}
}

// retryable covers timeouts and a full bufio buffer without a delimiter;
// in both cases the consumed bytes are already accounted for.
func retryable(err error) bool {
	return errors.Is(err, bufio.ErrBufferFull) || link.IsTimeout(err)
}

// Reader reads successive frames from one link, reusing a single buffer.
type Reader struct {
	r     *bufio.Reader
	delim Delimiter
	buf   []byte
}

// NewReader returns a Reader for frames bounded by d.
func NewReader(r *bufio.Reader, d Delimiter) *Reader {
	return &Reader{r: r, delim: d, buf: make([]byte, 0, 16)}
}

// Next returns the next complete frame. The slice is only valid until the
// following call to Next.
func (fr *Reader) Next() ([]byte, error) {
	var err error
	fr.buf, err = Read(fr.r, fr.delim, fr.buf)
	if err != nil {
		return nil, err
	}
	return fr.buf, nil
}
