package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/thermlink/pkg/frame"
	"github.com/robotalks/thermlink/pkg/link"
	"github.com/robotalks/thermlink/pkg/metrics"
)

// DefaultRetryInterval is the back off after the peer closed the stream.
const DefaultRetryInterval = time.Second

// Receiver is the device loop: it reads frames from the link and drives
// the Monitor and the Machine from a single goroutine.
type Receiver struct {
	Lines   *link.LineReader
	Monitor *Monitor
	Machine *Machine
	// RetryInterval is waited after end of stream before reading again.
	RetryInterval time.Duration
	// ExitOnClose stops the receiver when the peer closes the stream.
	ExitOnClose bool
	// Now returns the current time, time.Now by default.
	Now func() time.Time
}

// NewReceiver creates a Receiver. The Monitor honors timeouts only when
// both the capabilities and the transport support them.
func NewReceiver(lines *link.LineReader, machine *Machine, timeout time.Duration, caps Capabilities) *Receiver {
	return &Receiver{
		Lines:         lines,
		Monitor:       NewMonitor(timeout, caps.HasPreciseTimeout && lines.Precise()),
		Machine:       machine,
		RetryInterval: DefaultRetryInterval,
		Now:           time.Now,
	}
}

// Name implements framework.Named.
func (r *Receiver) Name() string {
	return "receiver"
}

// Run implements framework.Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	r.Monitor.Start(r.now())
	r.Machine.Start()
	if err := r.Machine.Err(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		closed, err := r.Step()
		if err != nil {
			return err
		}
		if !closed {
			continue
		}
		if r.ExitOnClose {
			glog.Info("link closed, exiting")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.RetryInterval):
		}
	}
}

// Step reads at most one line and applies the outcome. It reports whether
// the peer closed the stream. The wait is bounded by what is left of the
// freshness window, so input which never decodes can't hold the link fresh.
func (r *Receiver) Step() (closed bool, err error) {
	closed, err = r.step()
	if err == nil {
		if err = r.Machine.Err(); err != nil {
			err = fmt.Errorf("display: %w", err)
		}
	}
	return closed, err
}

func (r *Receiver) step() (bool, error) {
	wait := r.Monitor.Window
	if r.Monitor.Precise {
		if wait = r.Monitor.Remaining(r.now()); wait <= 0 {
			r.timeout()
			return false, nil
		}
	}
	line, err := r.Lines.ReadLine(wait)
	switch {
	case err == nil:
		r.handleLine(line)
		return false, nil
	case errors.Is(err, link.ErrTimeout):
		r.timeout()
		return false, nil
	case errors.Is(err, io.EOF):
		if ev, ok := r.Monitor.OnClose(); ok {
			r.stale(ev)
		}
		return true, nil
	}
	return false, err
}

func (r *Receiver) timeout() {
	if ev, ok := r.Monitor.OnTimeout(); ok {
		r.stale(ev)
	}
}

func (r *Receiver) handleLine(line string) {
	reading, err := frame.Decode(line)
	if err != nil {
		var de *frame.DecodeError
		if errors.As(err, &de) {
			metrics.FramesMalformed.WithLabelValues(de.Kind.String()).Inc()
		}
		glog.Warningf("discard: %v", err)
		return
	}
	glog.V(4).Infof("frame %s", strings.TrimSpace(line))
	metrics.FramesReceived.Inc()
	metrics.Temperature.WithLabelValues(reading.Label).Set(reading.Celsius)
	r.Machine.Handle(r.Monitor.OnFrame(reading, r.now()))
}

func (r *Receiver) stale(ev Event) {
	if se, ok := ev.(StaleEvent); ok {
		glog.Warningf("link stale: %s", se.Cause)
		metrics.StaleEpisodes.WithLabelValues(se.Cause.String()).Inc()
	}
	r.Machine.Handle(ev)
}

func (r *Receiver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
