// Package link provides the serial transport carrying frames from the host
// to the display device.
package link

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultBaud is the default serial baud rate.
const DefaultBaud = 115200

var (
	// ErrTimeout indicates no input arrived within the wait bound.
	ErrTimeout = errors.New("timeout")
	// ErrUnsupported indicates serial ports are not supported on this platform.
	ErrUnsupported = errors.New("serial port not supported on this platform")
)

// Config specifies a serial port.
type Config struct {
	// Device is the path of the tty, e.g. /dev/ttyACM0.
	Device string
	// Baud is the line speed, DefaultBaud when zero.
	Baud int
}

func (c Config) baud() int {
	if c.Baud == 0 {
		return DefaultBaud
	}
	return c.Baud
}

// ConfigError is returned when a port can't be opened or configured.
type ConfigError struct {
	Device string
	Op     string
	Err    error
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configure %s: %s: %v", e.Device, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Waiter waits until input is readable.
type Waiter interface {
	// WaitReadable blocks up to timeout and reports whether input is ready.
	// End of stream counts as ready so the following read observes it.
	WaitReadable(timeout time.Duration) (bool, error)
}

// MaxLineLength bounds a line. Longer input without a terminator is
// returned as is so the caller discards it as malformed.
const MaxLineLength = 1024

// LineReader reads newline terminated lines.
// Bytes of an unfinished line are kept across calls.
// Without a Waiter, ReadLine blocks until a line or end of stream arrives
// and never reports ErrTimeout.
type LineReader struct {
	r       io.Reader
	waiter  Waiter
	pending []byte
	buf     []byte
}

// NewLineReader creates a LineReader. waiter may be nil.
func NewLineReader(r io.Reader, waiter Waiter) *LineReader {
	return &LineReader{r: r, waiter: waiter, buf: make([]byte, 256)}
}

// Precise indicates ReadLine honors the timeout.
func (l *LineReader) Precise() bool {
	return l.waiter != nil
}

// ReadLine reads the next line including its terminator.
// It returns ErrTimeout when no complete line arrived within timeout and
// io.EOF when the peer closed the stream.
func (l *LineReader) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if line, ok := l.takeLine(); ok {
			return line, nil
		}
		if l.waiter != nil {
			remain := time.Until(deadline)
			if remain <= 0 {
				return "", ErrTimeout
			}
			ready, err := l.waiter.WaitReadable(remain)
			if err != nil {
				return "", err
			}
			if !ready {
				return "", ErrTimeout
			}
		}
		n, err := l.r.Read(l.buf)
		l.pending = append(l.pending, l.buf[:n]...)
		switch {
		case err == io.EOF:
			if line, ok := l.takeLine(); ok {
				return line, nil
			}
			if len(l.pending) > 0 {
				line := string(l.pending)
				l.pending = l.pending[:0]
				return line, nil
			}
			return "", io.EOF
		case err != nil:
			return "", err
		}
	}
}

func (l *LineReader) takeLine() (string, bool) {
	n := bytes.IndexByte(l.pending, '\n') + 1
	if n == 0 {
		if len(l.pending) < MaxLineLength {
			return "", false
		}
		n = len(l.pending)
	}
	line := string(l.pending[:n])
	l.pending = append(l.pending[:0], l.pending[n:]...)
	return line, true
}
