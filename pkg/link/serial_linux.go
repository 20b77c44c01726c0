//go:build linux

package link

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

var baudRates = map[int]uint32{
	1200:    unix.B1200,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

// Port is an opened serial port in raw mode.
// The descriptor stays non-blocking so Close interrupts a pending
// Read or WaitReadable.
type Port struct {
	file  *os.File
	fd    int
	saved *unix.Termios
}

// Open opens and configures a serial port: raw mode, the configured speed,
// no echo, local line (no modem control) and no hardware flow control.
// The previous line settings are restored by Close.
func Open(c Config) (*Port, error) {
	speed, ok := baudRates[c.baud()]
	if !ok {
		return nil, &ConfigError{Device: c.Device, Op: "baud", Err: unix.EINVAL}
	}
	fd, err := unix.Open(c.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &ConfigError{Device: c.Device, Op: "open", Err: err}
	}
	p := &Port{fd: fd}
	if err = p.configure(speed); err != nil {
		unix.Close(fd)
		return nil, &ConfigError{Device: c.Device, Op: "termios", Err: err}
	}
	p.file = os.NewFile(uintptr(fd), c.Device)
	glog.V(2).Infof("port %s opened at %d bps", c.Device, c.baud())
	return p, nil
}

func (p *Port) configure(speed uint32) error {
	saved, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t := *saved
	makeRaw(&t, speed)
	if err = unix.IoctlSetTermios(p.fd, unix.TCSETS, &t); err != nil {
		return err
	}
	p.saved = saved
	return nil
}

func makeRaw(t *unix.Termios, speed uint32) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | speed
	t.Ispeed, t.Ospeed = speed, speed
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	return p.file.Read(b)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

// WaitReadable implements Waiter.
func (p *Port) WaitReadable(timeout time.Duration) (bool, error) {
	return waitReadable(p.file, timeout)
}

// Close restores the saved line settings and closes the port.
func (p *Port) Close() error {
	restoreErr := control(p.file, func(fd int) error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, p.saved)
	})
	if restoreErr != nil {
		glog.Warningf("restore %s settings: %v", p.file.Name(), restoreErr)
	}
	if err := p.file.Close(); err != nil {
		return err
	}
	return restoreErr
}

// File wraps an already opened file (e.g. stdin) as a link input.
// It reads from a non-blocking duplicate of the descriptor so Close
// interrupts a pending Read or WaitReadable without closing the original.
type File struct {
	*os.File
	orig *os.File
}

// Stdio wraps f. Blocking mode is restored by Close.
func Stdio(f *os.File) (*File, error) {
	var dup int
	err := control(f, func(fd int) (err error) {
		dup, err = unix.Dup(fd)
		return err
	})
	if err != nil {
		return nil, &ConfigError{Device: f.Name(), Op: "dup", Err: err}
	}
	unix.CloseOnExec(dup)
	if err = unix.SetNonblock(dup, true); err != nil {
		unix.Close(dup)
		return nil, &ConfigError{Device: f.Name(), Op: "nonblock", Err: err}
	}
	return &File{File: os.NewFile(uintptr(dup), f.Name()), orig: f}, nil
}

// WaitReadable implements Waiter.
func (f *File) WaitReadable(timeout time.Duration) (bool, error) {
	return waitReadable(f.File, timeout)
}

// Close closes the duplicate, then restores blocking mode which the
// original descriptor shares.
func (f *File) Close() error {
	err := f.File.Close()
	restoreErr := control(f.orig, func(fd int) error {
		return unix.SetNonblock(fd, false)
	})
	if restoreErr != nil {
		glog.V(2).Infof("restore %s blocking mode: %v", f.orig.Name(), restoreErr)
	}
	return err
}

func control(f *os.File, fn func(fd int) error) error {
	raw, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var fnErr error
	if err = raw.Control(func(fd uintptr) { fnErr = fn(int(fd)) }); err != nil {
		return err
	}
	return fnErr
}

// pollSlice bounds a single poll on descriptors the runtime can't watch.
const pollSlice = 100 * time.Millisecond

// waitReadable waits in the runtime poller when f supports deadlines,
// otherwise polls in short slices. Either way it returns once f is closed.
func waitReadable(f *os.File, timeout time.Duration) (bool, error) {
	raw, err := f.SyscallConn()
	if err != nil {
		return false, err
	}
	err = f.SetReadDeadline(time.Now().Add(timeout))
	if errors.Is(err, os.ErrNoDeadline) {
		return pollSliced(raw, timeout)
	}
	if err != nil {
		return false, err
	}
	defer f.SetReadDeadline(time.Time{})

	var ready bool
	var pollErr error
	err = raw.Read(func(fd uintptr) bool {
		ready, pollErr = pollReadable(int(fd), 0)
		return ready || pollErr != nil
	})
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return false, nil
	case err != nil:
		return false, err
	}
	return ready, pollErr
}

func pollSliced(raw syscall.RawConn, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		slice := time.Until(deadline)
		if slice > pollSlice {
			slice = pollSlice
		}
		var ready bool
		var pollErr error
		err := raw.Control(func(fd uintptr) {
			ready, pollErr = pollReadable(int(fd), slice)
		})
		switch {
		case err != nil:
			return false, err
		case pollErr != nil || ready:
			return ready, pollErr
		case !time.Now().Before(deadline):
			return false, nil
		}
	}
}

func pollReadable(fd int, timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	deadline := time.Now().Add(timeout)
	for {
		ms := int(time.Until(deadline) / time.Millisecond)
		if ms < 0 {
			ms = 0
		}
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}
