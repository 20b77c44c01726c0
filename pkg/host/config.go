// Package host implements the sending side: it samples thermal zones,
// writes the selected zone to the link and keeps a live zone table.
package host

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/thermlink/pkg/link"
	"github.com/robotalks/thermlink/pkg/thermal"
)

// Config defines the options of the sender.
type Config struct {
	TTY         string
	Baud        int
	Zone        int
	ZoneID      string
	Source      string
	Interval    time.Duration
	SysfsRoot   string
	MQTTURL     string
	HostID      string
	MetricsAddr string
}

// Sensor sources.
const (
	SourceSysfs = "sysfs"
	SourceHwmon = "hwmon"
)

var defaultConfig = Config{
	Baud:      link.DefaultBaud,
	Zone:      -1,
	Source:    SourceSysfs,
	Interval:  time.Second,
	SysfsRoot: thermal.DefaultSysfsRoot,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.TTY, "tty", defaultConfig.TTY, "Serial port to send readings to, e.g. /dev/ttyUSB0.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate of the serial port.")
	flag.IntVar(&defaultConfig.Zone, "zone", defaultConfig.Zone, "Index of the thermal zone to send, -1 for terminal only.")
	flag.StringVar(&defaultConfig.ZoneID, "zone-id", defaultConfig.ZoneID, "Zone identifier to send, overrides -zone, e.g. hwmon_coretemp_package_id_0.")
	flag.StringVar(&defaultConfig.Source, "source", defaultConfig.Source, "Sensor source: sysfs or hwmon.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Sampling interval.")
	flag.StringVar(&defaultConfig.SysfsRoot, "sysfs", defaultConfig.SysfsRoot, "Root of the thermal zones.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker to mirror readings to, e.g. mqtt://localhost:1883/thermlink/.")
	flag.StringVar(&defaultConfig.HostID, "host-id", defaultConfig.HostID, "Host id in MQTT topics, machine id by default.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Address to serve Prometheus metrics on.")
}

// ApplyEnv overrides the defaults from THERM_TTY, THERM_BAUD and
// THERM_MQTT_URL. It must run before flag.Parse so flags still win.
func ApplyEnv() error {
	if val := os.Getenv("THERM_TTY"); val != "" {
		defaultConfig.TTY = val
	}
	if val := os.Getenv("THERM_BAUD"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("THERM_BAUD: %w", err)
		}
		defaultConfig.Baud = baud
	}
	if val := os.Getenv("THERM_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	return nil
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

// Transmits tells whether a port and a zone were both given.
func (c *Config) Transmits() bool {
	return c.TTY != "" && c.ZoneName() != ""
}

// ZoneName is the identifier of the selected zone.
func (c *Config) ZoneName() string {
	if c.ZoneID != "" {
		return c.ZoneID
	}
	if c.Zone < 0 {
		return ""
	}
	return thermal.ZoneName(c.Zone)
}

// Reader creates the sensor reader of the configured source.
func (c *Config) Reader() (thermal.Reader, error) {
	switch c.Source {
	case SourceSysfs, "":
		return &thermal.SysfsReader{Root: c.SysfsRoot}, nil
	case SourceHwmon:
		return thermal.NewHwmonReader(), nil
	}
	return nil, fmt.Errorf("unknown sensor source %q", c.Source)
}

// LinkConfig is the serial configuration.
func (c *Config) LinkConfig() link.Config {
	return link.Config{Device: c.TTY, Baud: c.Baud}
}

// Status is the footer of the zone table.
func (c *Config) Status() string {
	if c.Transmits() {
		return fmt.Sprintf("SENDING TO %s @ %dbps", c.TTY, c.Baud)
	}
	return MonitoringStatus
}
