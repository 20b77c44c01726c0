package display

import (
	"flag"
	"time"

	"github.com/robotalks/thermlink/pkg/link"
)

// Config defines the options of the device side.
type Config struct {
	TTY            string
	Baud           int
	Timeout        time.Duration
	PreciseTimeout bool
	Indicator      bool
	Title          string
	ExitOnClose    bool
	MetricsAddr    string
}

var defaultConfig = Config{
	Baud:           link.DefaultBaud,
	Timeout:        DefaultTimeout,
	PreciseTimeout: true,
	Indicator:      true,
	Title:          DefaultTitle,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.TTY, "tty", defaultConfig.TTY, "Serial port to read frames from, stdin if empty.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate of the serial port.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Silence after which the link is stale.")
	flag.BoolVar(&defaultConfig.PreciseTimeout, "precise-timeout", defaultConfig.PreciseTimeout, "Bound waits for input, otherwise only end of stream turns the link stale.")
	flag.BoolVar(&defaultConfig.Indicator, "indicator", defaultConfig.Indicator, "Drive the status indicator.")
	flag.StringVar(&defaultConfig.Title, "title", defaultConfig.Title, "Panel title.")
	flag.BoolVar(&defaultConfig.ExitOnClose, "exit-on-close", defaultConfig.ExitOnClose, "Exit when the peer closes the stream.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Address to serve Prometheus metrics on.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Capabilities derives the device capabilities.
func (c *Config) Capabilities() Capabilities {
	return Capabilities{HasPreciseTimeout: c.PreciseTimeout, HasIndicator: c.Indicator}
}

// LinkConfig is the serial configuration.
func (c *Config) LinkConfig() link.Config {
	return link.Config{Device: c.TTY, Baud: c.Baud}
}
