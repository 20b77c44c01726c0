package display

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/thermlink/pkg/link"
	"github.com/robotalks/thermlink/pkg/metrics"
	"github.com/robotalks/thermlink/pkg/thermal"
)

type recorder struct {
	ops []string
}

func (r *recorder) DrawPlaceholder(msg string) {
	r.ops = append(r.ops, "placeholder "+msg)
}

func (r *recorder) DrawStatic(title, label string) {
	r.ops = append(r.ops, "static "+title+" "+label)
}

func (r *recorder) DrawValue(text string, c Color) {
	r.ops = append(r.ops, "value "+text+" "+c.String())
}

func (r *recorder) SetIndicator(c Color) {
	r.ops = append(r.ops, "led "+c.String())
}

func (r *recorder) sleep(d time.Duration) {
	r.ops = append(r.ops, "sleep "+d.String())
}

func (r *recorder) take() []string {
	ops := r.ops
	r.ops = nil
	return ops
}

type fakeWaiter struct {
	ready []bool
}

func (w *fakeWaiter) WaitReadable(time.Duration) (bool, error) {
	if len(w.ready) == 0 {
		return true, nil
	}
	r := w.ready[0]
	w.ready = w.ready[1:]
	return r, nil
}

func newTestReceiver(input string, ready ...bool) (*Receiver, *recorder) {
	rec := &recorder{}
	m := NewMachine(rec, Capabilities{HasIndicator: true})
	m.Sleep = rec.sleep
	lines := link.NewLineReader(newLineFeed(input), &fakeWaiter{ready: ready})
	r := NewReceiver(lines, m, time.Second, Capabilities{HasPreciseTimeout: true, HasIndicator: true})
	r.Now = func() time.Time { return time.Unix(1000, 0) }
	r.Monitor.Start(r.Now())
	m.Start()
	rec.take()
	return r, rec
}

// lineFeed returns one line per read so no line is buffered ahead of a wait.
type lineFeed struct {
	lines []string
}

func newLineFeed(input string) *lineFeed {
	return &lineFeed{lines: strings.SplitAfter(input, "\n")}
}

func (f *lineFeed) Read(b []byte) (int, error) {
	for len(f.lines) > 0 && f.lines[0] == "" {
		f.lines = f.lines[1:]
	}
	if len(f.lines) == 0 {
		return 0, io.EOF
	}
	n := copy(b, f.lines[0])
	f.lines[0] = f.lines[0][n:]
	return n, nil
}

type failingSink struct {
	recorder
	err error
}

func (s *failingSink) Err() error {
	return s.err
}

func steps(t *testing.T, r *Receiver, n int) {
	for i := 0; i < n; i++ {
		closed, err := r.Step()
		require.NoError(t, err)
		require.False(t, closed)
	}
}

func TestMonitor(t *testing.T) {
	m := NewMonitor(0, true)
	require.Equal(t, DefaultTimeout, m.Window)
	require.Equal(t, Listening, m.State())

	ev, ok := m.OnTimeout()
	require.True(t, ok)
	require.Equal(t, StaleEvent{Cause: CauseTimeout}, ev)
	require.Equal(t, Stale, m.State())

	_, ok = m.OnTimeout()
	require.False(t, ok)
	_, ok = m.OnClose()
	require.False(t, ok)

	at := time.Unix(10, 0)
	r := thermal.Reading{Label: "acpitz", Celsius: 40}
	require.Equal(t, FreshEvent{Reading: r, At: at}, m.OnFrame(r, at))
	require.Equal(t, Listening, m.State())
	require.Equal(t, at, m.LastFrame())

	ev, ok = m.OnClose()
	require.True(t, ok)
	require.Equal(t, StaleEvent{Cause: CauseClosed}, ev)
	require.Equal(t, m.Window, m.Remaining(at.Add(time.Hour)))

	m.Start(at)
	require.Equal(t, Listening, m.State())
	require.Equal(t, 2*time.Second, m.Remaining(at.Add(time.Second)))
	require.True(t, m.Remaining(at.Add(4*time.Second)) < 0)
}

func TestMonitorImprecise(t *testing.T) {
	m := NewMonitor(time.Second, false)
	for i := 0; i < 3; i++ {
		_, ok := m.OnTimeout()
		require.False(t, ok)
	}
	require.Equal(t, Listening, m.State())
	_, ok := m.OnClose()
	require.True(t, ok)
}

func TestMachineStart(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, Capabilities{HasIndicator: true})
	m.Start()
	require.Equal(t, []string{"led off", "placeholder No data..."}, rec.ops)
	require.Equal(t, Uninitialized, m.Session().State)
}

func TestSteadyNormalReadings(t *testing.T) {
	r, rec := newTestReceiver("x86_pkg_temp:45.3\nx86_pkg_temp:46.1\n")
	steps(t, r, 2)
	require.Equal(t, []string{
		"static MONITOR LINUX X86_PKG_TEMP",
		"value 45.3 C green",
		"value 46.1 C green",
	}, rec.ops)
	s := r.Machine.Session()
	require.Equal(t, ShowingValue, s.State)
	require.Equal(t, "x86_pkg_temp", s.Label)
	require.Equal(t, time.Unix(1000, 0), s.LastReading)
}

func TestCriticalReadingPulsesAfterRedraw(t *testing.T) {
	r, rec := newTestReceiver("x86_pkg_temp:82.0\n")
	steps(t, r, 1)
	require.Equal(t, []string{
		"static MONITOR LINUX X86_PKG_TEMP",
		"value 82.0 C red",
		"led red",
		"sleep 100ms",
		"led off",
	}, rec.ops)
}

func TestWarnReadingIsYellow(t *testing.T) {
	r, rec := newTestReceiver("acpitz:60.0\n")
	steps(t, r, 1)
	require.Equal(t, "value 60.0 C yellow", rec.ops[len(rec.ops)-1])
}

func TestTimeoutPulsesBeforePlaceholder(t *testing.T) {
	r, rec := newTestReceiver("x86_pkg_temp:45.3\n", true, false)
	steps(t, r, 1)
	rec.take()
	before := testutil.ToFloat64(metrics.StaleEpisodes.WithLabelValues("timeout"))

	steps(t, r, 1)
	require.Equal(t, []string{
		"led blue",
		"sleep 100ms",
		"led off",
		"placeholder No data...",
	}, rec.ops)
	require.Equal(t, Uninitialized, r.Machine.Session().State)
	require.Empty(t, r.Machine.Session().Label)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.StaleEpisodes.WithLabelValues("timeout")))
}

func TestRepeatedTimeoutsPulseOnce(t *testing.T) {
	r, rec := newTestReceiver("", false, false, false, false, false)
	steps(t, r, 5)
	require.Equal(t, 1, strings.Count(strings.Join(rec.ops, ","), "led blue"))
	require.Equal(t, Stale, r.Monitor.State())
}

func TestUndecodableInputDoesNotKeepLinkFresh(t *testing.T) {
	r, rec := newTestReceiver(strings.Repeat("garbage\n", 5))
	start := time.Unix(1000, 0)
	calls := 0
	r.Now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * 400 * time.Millisecond)
	}
	r.Monitor.Start(start)

	steps(t, r, 5)
	require.Equal(t, 1, strings.Count(strings.Join(rec.ops, ","), "led blue"))
	require.Equal(t, Stale, r.Monitor.State())
}

func TestSinkErrorStopsReceiver(t *testing.T) {
	sink := &failingSink{}
	m := NewMachine(sink, Capabilities{})
	lines := link.NewLineReader(strings.NewReader("x86_pkg_temp:45.3\nx86_pkg_temp:46.1\n"), nil)
	r := NewReceiver(lines, m, time.Second, Capabilities{})

	closed, err := r.Step()
	require.NoError(t, err)
	require.False(t, closed)

	sink.err = io.ErrClosedPipe
	_, err = r.Step()
	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.ErrorIs(t, r.Run(context.Background()), io.ErrClosedPipe)
}

func TestLabelRelearnedAfterStale(t *testing.T) {
	r, rec := newTestReceiver("x86_pkg_temp:45.3\nacpitz:30.0\n", true, false, true)
	steps(t, r, 3)
	require.Equal(t, []string{
		"static MONITOR LINUX X86_PKG_TEMP",
		"value 45.3 C green",
		"led blue",
		"sleep 100ms",
		"led off",
		"placeholder No data...",
		"static MONITOR LINUX ACPITZ",
		"value 30.0 C green",
	}, rec.ops)
}

func TestMalformedLineIsDiscarded(t *testing.T) {
	r, rec := newTestReceiver("x86_pkg_temp45.3\nx86_pkg_temp:45.3\n")
	before := testutil.ToFloat64(metrics.FramesMalformed.WithLabelValues("separator"))

	steps(t, r, 1)
	require.Empty(t, rec.ops)
	require.Equal(t, Uninitialized, r.Machine.Session().State)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.FramesMalformed.WithLabelValues("separator")))

	steps(t, r, 1)
	require.Equal(t, []string{
		"static MONITOR LINUX X86_PKG_TEMP",
		"value 45.3 C green",
	}, rec.ops)
}

func TestNoIndicator(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, Capabilities{})
	m.Sleep = rec.sleep
	m.Start()
	m.Handle(FreshEvent{Reading: thermal.Reading{Label: "cpu", Celsius: 95}})
	m.Handle(StaleEvent{Cause: CauseTimeout})
	require.Equal(t, []string{
		"placeholder No data...",
		"static MONITOR LINUX CPU",
		"value 95.0 C red",
		"placeholder No data...",
	}, rec.ops)
}

func TestRunExitsOnClose(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, Capabilities{HasIndicator: true})
	m.Sleep = rec.sleep
	lines := link.NewLineReader(strings.NewReader("x86_pkg_temp:45.3\n"), &fakeWaiter{})
	r := NewReceiver(lines, m, time.Second, Capabilities{HasPreciseTimeout: true, HasIndicator: true})
	r.ExitOnClose = true

	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, []string{
		"led off",
		"placeholder No data...",
		"static MONITOR LINUX X86_PKG_TEMP",
		"value 45.3 C green",
		"led blue",
		"sleep 100ms",
		"led off",
		"placeholder No data...",
	}, rec.ops)
}

func TestRunStopsOnCancel(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec, Capabilities{HasIndicator: true})
	m.Sleep = rec.sleep
	lines := link.NewLineReader(strings.NewReader(""), nil)
	r := NewReceiver(lines, m, time.Second, Capabilities{})
	r.RetryInterval = time.Hour
	require.False(t, r.Monitor.Precise)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop")
	}
}

func TestConfig(t *testing.T) {
	c := NewConfig()
	require.Equal(t, DefaultTimeout, c.Timeout)
	require.Equal(t, DefaultTitle, c.Title)
	require.Equal(t, Capabilities{HasPreciseTimeout: true, HasIndicator: true}, c.Capabilities())
	require.Equal(t, link.DefaultBaud, c.LinkConfig().Baud)

	c.PreciseTimeout = false
	require.False(t, c.Capabilities().HasPreciseTimeout)
	require.True(t, Default().PreciseTimeout)
}
