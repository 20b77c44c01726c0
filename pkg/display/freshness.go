package display

import (
	"time"

	"github.com/robotalks/thermlink/pkg/thermal"
)

// DefaultTimeout is the window after which a silent link is stale.
const DefaultTimeout = 3 * time.Second

// FreshnessState is the state of a Monitor.
type FreshnessState int

const (
	// Listening means data arrived within the window, or the monitor just
	// started and the first window hasn't expired yet.
	Listening FreshnessState = iota
	// Stale means the window expired or the link closed since the last frame.
	Stale
)

// String implements fmt.Stringer.
func (s FreshnessState) String() string {
	if s == Stale {
		return "STALE"
	}
	return "LISTENING"
}

// Monitor tells arriving data apart from an idle or closed link.
// A StaleEvent is emitted only on the Listening to Stale edge, so a long
// silence produces exactly one event.
type Monitor struct {
	// Window is the single timeout governing Listening to Stale.
	Window time.Duration
	// Precise is false for transports which can't bound a wait; timeouts
	// are then ignored and only OnClose turns the link stale.
	Precise bool

	state     FreshnessState
	lastFrame time.Time
}

// NewMonitor creates a Monitor in the Listening state.
func NewMonitor(window time.Duration, precise bool) *Monitor {
	if window <= 0 {
		window = DefaultTimeout
	}
	return &Monitor{Window: window, Precise: precise}
}

// Start arms the first window at the given time.
func (m *Monitor) Start(at time.Time) {
	m.state, m.lastFrame = Listening, at
}

// Remaining returns how long input may still be awaited before the window
// expires. Valid frames re-arm the window, any other input doesn't.
// A stale link waits a full window at a time.
func (m *Monitor) Remaining(now time.Time) time.Duration {
	if m.state == Stale || m.lastFrame.IsZero() {
		return m.Window
	}
	return m.Window - now.Sub(m.lastFrame)
}

// State returns the current state.
func (m *Monitor) State() FreshnessState {
	return m.state
}

// LastFrame returns when the last frame was observed.
func (m *Monitor) LastFrame() time.Time {
	return m.lastFrame
}

// OnFrame records a decoded reading and re-arms the window.
func (m *Monitor) OnFrame(r thermal.Reading, at time.Time) Event {
	m.state, m.lastFrame = Listening, at
	return FreshEvent{Reading: r, At: at}
}

// OnTimeout reports the window expired without input.
func (m *Monitor) OnTimeout() (Event, bool) {
	if !m.Precise {
		return nil, false
	}
	return m.enterStale(CauseTimeout)
}

// OnClose reports the peer closed the stream.
func (m *Monitor) OnClose() (Event, bool) {
	return m.enterStale(CauseClosed)
}

func (m *Monitor) enterStale(cause StaleCause) (Event, bool) {
	if m.state == Stale {
		return nil, false
	}
	m.state = Stale
	return StaleEvent{Cause: cause}, true
}
