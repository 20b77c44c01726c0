package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/thermlink/pkg/thermal"
)

// Defaults of the Machine.
const (
	DefaultTitle         = "MONITOR LINUX"
	DefaultPlaceholder   = "No data..."
	DefaultPulseDuration = 100 * time.Millisecond
)

// DisplayState is the state of a Machine.
type DisplayState int

const (
	// Uninitialized means the placeholder is shown and no chrome is drawn.
	Uninitialized DisplayState = iota
	// ShowingValue means the chrome is drawn and the last value displayed.
	ShowingValue
)

// String implements fmt.Stringer.
func (s DisplayState) String() string {
	if s == ShowingValue {
		return "SHOWING_VALUE"
	}
	return "UNINITIALIZED"
}

// Capabilities select the behavior of a device variant.
type Capabilities struct {
	// HasPreciseTimeout is true when the transport can bound waits for input.
	HasPreciseTimeout bool
	// HasIndicator is true when a status LED is attached.
	HasIndicator bool
}

// Session is the device side view of the link. It is rebuilt on start.
type Session struct {
	State       DisplayState
	Label       string
	LastReading time.Time
}

// Machine turns events into panel and indicator commands, repainting only
// the value region on each reading.
type Machine struct {
	Title         string
	Placeholder   string
	PulseDuration time.Duration
	// Sleep blocks during an indicator pulse.
	Sleep func(time.Duration)

	sink      Sink
	indicator Indicator
	session   Session
}

// NewMachine creates a Machine. The sink also drives the indicator when
// caps.HasIndicator is set and it implements Indicator.
func NewMachine(sink Sink, caps Capabilities) *Machine {
	var indicator Indicator
	if caps.HasIndicator {
		indicator, _ = sink.(Indicator)
	}
	return &Machine{
		Title:         DefaultTitle,
		Placeholder:   DefaultPlaceholder,
		PulseDuration: DefaultPulseDuration,
		Sleep:         time.Sleep,
		sink:          sink,
		indicator:     indicator,
	}
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session {
	return m.session
}

// Err returns the first error of the sink, if it reports one.
func (m *Machine) Err() error {
	if s, ok := m.sink.(interface{ Err() error }); ok {
		return s.Err()
	}
	return nil
}

// Start resets the session and shows the placeholder.
func (m *Machine) Start() {
	m.session = Session{}
	if m.indicator != nil {
		m.indicator.SetIndicator(Off)
	}
	m.sink.DrawPlaceholder(m.Placeholder)
}

// Handle applies an event. Every transition completes synchronously.
func (m *Machine) Handle(ev Event) {
	switch e := ev.(type) {
	case FreshEvent:
		m.showReading(e)
	case StaleEvent:
		m.goStale(e)
	}
}

func (m *Machine) showReading(e FreshEvent) {
	if m.session.State == Uninitialized {
		m.sink.DrawStatic(m.Title, strings.ToUpper(e.Reading.Label))
		m.session.State = ShowingValue
		m.session.Label = e.Reading.Label
	}
	m.session.LastReading = e.At
	severity := e.Reading.Severity()
	m.sink.DrawValue(FormatValue(e.Reading.Celsius), ColorOf(severity))
	// the alert follows the redraw so both never contend for the color channel.
	if severity == thermal.Critical {
		m.pulse(Red)
	}
}

func (m *Machine) goStale(e StaleEvent) {
	glog.V(2).Infof("link stale (%s), label %q forgotten", e.Cause, m.session.Label)
	m.pulse(Blue)
	m.sink.DrawPlaceholder(m.Placeholder)
	m.session = Session{}
}

func (m *Machine) pulse(c Color) {
	if m.indicator == nil {
		return
	}
	m.indicator.SetIndicator(c)
	m.Sleep(m.PulseDuration)
	m.indicator.SetIndicator(Off)
}

// FormatValue formats a temperature for the value region.
func FormatValue(celsius float64) string {
	return fmt.Sprintf("%.1f C", celsius)
}

// ColorOf maps a severity to the value color.
func ColorOf(s thermal.Severity) Color {
	switch s {
	case thermal.Critical:
		return Red
	case thermal.Warn:
		return Yellow
	}
	return Green
}
