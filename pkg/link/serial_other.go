//go:build !linux

package link

import (
	"os"
	"time"
)

// Port is not available on this platform.
type Port struct{}

// Open always fails on this platform.
func Open(c Config) (*Port, error) {
	return nil, &ConfigError{Device: c.Device, Op: "open", Err: ErrUnsupported}
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) { return 0, ErrUnsupported }

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) { return 0, ErrUnsupported }

// WaitReadable implements Waiter.
func (p *Port) WaitReadable(time.Duration) (bool, error) { return false, ErrUnsupported }

// Close implements io.Closer.
func (p *Port) Close() error { return nil }

// File wraps an already opened file as a link input.
type File struct {
	*os.File
}

// Stdio wraps f.
func Stdio(f *os.File) (*File, error) {
	return &File{File: f}, nil
}

// WaitReadable implements Waiter. Bounded waits are not supported here.
func (f *File) WaitReadable(time.Duration) (bool, error) {
	return false, ErrUnsupported
}
