//go:build linux

package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	fx "github.com/robotalks/thermlink/pkg/framework"
)

func TestStdioWaitReadable(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	in, err := Stdio(r)
	require.NoError(t, err)
	defer in.Close()
	l := NewLineReader(in, in)

	start := time.Now()
	_, err = l.ReadLine(50 * time.Millisecond)
	require.Equal(t, ErrTimeout, err)
	require.True(t, time.Since(start) >= 40*time.Millisecond)

	_, err = w.Write([]byte("x86_pkg_temp:45.3\n"))
	require.NoError(t, err)
	line, err := l.ReadLine(time.Second)
	require.NoError(t, err)
	require.Equal(t, "x86_pkg_temp:45.3\n", line)

	require.NoError(t, w.Close())
	_, err = l.ReadLine(time.Second)
	require.Equal(t, io.EOF, err)
}

func TestStdioPartialLineTimesOut(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	in, err := Stdio(r)
	require.NoError(t, err)
	defer in.Close()
	l := NewLineReader(in, in)

	_, err = w.Write([]byte("x86_pkg_temp:45"))
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() {
		_, err := l.ReadLine(200 * time.Millisecond)
		errCh <- err
	}()
	select {
	case err = <-errCh:
		require.Equal(t, ErrTimeout, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine blocked on a partial line")
	}

	_, err = w.Write([]byte(".3\n"))
	require.NoError(t, err)
	line, err := l.ReadLine(time.Second)
	require.NoError(t, err)
	require.Equal(t, "x86_pkg_temp:45.3\n", line)
}

func TestStdioCloseUnblocks(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	for _, precise := range []bool{false, true} {
		in, err := Stdio(r)
		require.NoError(t, err)
		var waiter Waiter
		if precise {
			waiter = in
		}
		l := NewLineReader(in, waiter)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- fx.RunWithContextCloser(ctx, in, func() error {
				_, err := l.ReadLine(time.Hour)
				return err
			})
		}()
		time.Sleep(50 * time.Millisecond)
		cancel()
		select {
		case err = <-done:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatalf("reader not interrupted by close, precise=%v", precise)
		}
	}

	// the original descriptor is left open.
	_, err = w.Write([]byte("acpitz:27.8\n"))
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "acpitz:27.8\n", string(buf[:n]))
}

func openPTY(t *testing.T) (master *os.File, slave string) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		t.Skipf("no pty support: %v", err)
	}
	fd := int(master.Fd())
	if err = unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		t.Skipf("unlock pty: %v", err)
	}
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		t.Skipf("pty number: %v", err)
	}
	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func TestOpenConfiguresRawAndRestores(t *testing.T) {
	master, slave := openPTY(t)
	defer master.Close()

	before := getTermios(t, slave)
	require.NotZero(t, before.Lflag&unix.ECHO)

	port, err := Open(Config{Device: slave, Baud: 115200})
	require.NoError(t, err)

	raw, err := unix.IoctlGetTermios(port.fd, unix.TCGETS)
	require.NoError(t, err)
	require.Zero(t, raw.Lflag&(unix.ECHO|unix.ICANON))
	require.Zero(t, raw.Oflag&unix.OPOST)
	require.Zero(t, raw.Cflag&unix.CRTSCTS)
	require.NotZero(t, raw.Cflag&unix.CLOCAL)
	require.Equal(t, uint32(unix.CS8), raw.Cflag&unix.CSIZE)

	_, err = port.Write([]byte("x86_pkg_temp:45.3\n"))
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, err := master.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "x86_pkg_temp:45.3\n", string(buf[:n]))

	readErr := make(chan error, 1)
	go func() {
		_, err := port.Read(buf)
		readErr <- err
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, port.Close())
	select {
	case err = <-readErr:
		require.ErrorIs(t, err, os.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Read not interrupted by Close")
	}

	after := getTermios(t, slave)
	require.Equal(t, before.Lflag, after.Lflag)
	require.Equal(t, before.Oflag, after.Oflag)
}

func getTermios(t *testing.T, dev string) *unix.Termios {
	fd, err := unix.Open(dev, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	require.NoError(t, err)
	defer unix.Close(fd)
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	require.NoError(t, err)
	return tio
}

func TestOpenFailures(t *testing.T) {
	_, err := Open(Config{Device: "/dev/does-not-exist"})
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "open", ce.Op)

	_, err = Open(Config{Device: "/dev/null", Baud: 12345})
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "baud", ce.Op)

	_, err = Open(Config{Device: "/dev/null"})
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "termios", ce.Op)
}
