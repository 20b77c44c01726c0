// Package display implements the receiving side of the link: freshness
// detection and the state machine driving the panel and indicator.
package display

import "fmt"

// Color is an RGB color understood by panels and indicators.
type Color struct {
	R, G, B uint8
}

// Predefined colors.
var (
	Off    = Color{}
	White  = Color{255, 255, 255}
	Cyan   = Color{0, 255, 255}
	Green  = Color{0, 255, 0}
	Yellow = Color{255, 255, 0}
	Red    = Color{255, 0, 0}
	Blue   = Color{0, 0, 255}
)

// String implements fmt.Stringer.
func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case White:
		return "white"
	case Cyan:
		return "cyan"
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case Red:
		return "red"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Sink renders the panel. It holds no telemetry state.
type Sink interface {
	// DrawPlaceholder clears the panel and shows a waiting message.
	DrawPlaceholder(message string)
	// DrawStatic clears the panel and draws the chrome: title and zone label.
	DrawStatic(title, label string)
	// DrawValue clears the whole value region, to the full panel width,
	// and writes text in color.
	DrawValue(text string, color Color)
}

// Indicator drives a status LED.
type Indicator interface {
	SetIndicator(Color)
}
