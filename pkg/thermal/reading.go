// Package thermal reads CPU thermal zones and classifies temperatures.
package thermal

import "sort"

// Reading is one sampled temperature of a thermal zone.
type Reading struct {
	// Zone is the sysfs identifier (e.g. thermal_zone0), used for ordering.
	Zone string `json:"zone,omitempty"`
	// Label is the sensor type reported by the zone (e.g. x86_pkg_temp).
	Label string `json:"label"`
	// Celsius is the temperature in degrees Celsius.
	Celsius float64 `json:"celsius"`
}

// Severity classifies a temperature.
type Severity int

const (
	// Normal is below WarnThreshold.
	Normal Severity = iota
	// Warn is within [WarnThreshold, CriticalThreshold).
	Warn
	// Critical is at or above CriticalThreshold.
	Critical
)

// Thresholds in degrees Celsius.
const (
	WarnThreshold     = 60.0
	CriticalThreshold = 80.0
)

// Classify computes the severity of a temperature.
func Classify(celsius float64) Severity {
	switch {
	case celsius >= CriticalThreshold:
		return Critical
	case celsius >= WarnThreshold:
		return Warn
	}
	return Normal
}

// Severity computes the severity of the reading.
func (r Reading) Severity() Severity {
	return Classify(r.Celsius)
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Warn:
		return "WARN"
	case Critical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// Reader reads all available thermal zones.
type Reader interface {
	// Read returns readings sorted by zone. Unavailable zones are omitted.
	Read() []Reading
}

// ReaderFunc is the func form of Reader.
type ReaderFunc func() []Reading

// Read implements Reader.
func (f ReaderFunc) Read() []Reading {
	return f()
}

// Find looks up the reading of a zone.
func Find(readings []Reading, zone string) (Reading, bool) {
	for _, r := range readings {
		if r.Zone == zone {
			return r, true
		}
	}
	return Reading{}, false
}

// SortByZone sorts readings by zone index, falling back to name order.
func SortByZone(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return zoneLess(readings[i].Zone, readings[j].Zone)
	})
}
