package display

import (
	"time"

	"github.com/robotalks/thermlink/pkg/thermal"
)

// Event is consumed by the Machine. It is either FreshEvent or StaleEvent.
type Event interface {
	isEvent()
}

// FreshEvent carries a successfully decoded reading.
type FreshEvent struct {
	Reading thermal.Reading
	At      time.Time
}

// StaleCause tells why the link went stale.
type StaleCause int

const (
	// CauseTimeout means nothing arrived within the timeout window.
	CauseTimeout StaleCause = iota
	// CauseClosed means the peer closed the stream.
	CauseClosed
)

// String implements fmt.Stringer.
func (c StaleCause) String() string {
	if c == CauseClosed {
		return "closed"
	}
	return "timeout"
}

// StaleEvent signals the transition into the stale state.
type StaleEvent struct {
	Cause StaleCause
}

func (FreshEvent) isEvent() {}
func (StaleEvent) isEvent() {}
