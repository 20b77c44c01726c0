// Package link exposes thermal zone and serial link commands to the shell.
package link

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/thermlink/pkg/cli/sh"
	"github.com/robotalks/thermlink/pkg/frame"
	"github.com/robotalks/thermlink/pkg/thermal"
)

// Decoded is the result of the decode command.
type Decoded struct {
	Reading  *thermal.Reading `json:"reading,omitempty"`
	Severity string           `json:"severity,omitempty"`
	Error    string           `json:"error,omitempty"`
	Kind     string           `json:"kind,omitempty"`
}

// FormatReading prints a reading for display.
func FormatReading(r thermal.Reading) string {
	return fmt.Sprintf("%-15s %-25s %6.1f %s", r.Zone, r.Label, r.Celsius, r.Severity())
}

// DecodeLine decodes a frame for the decode command.
func DecodeLine(line string) Decoded {
	r, err := frame.Decode(line)
	if err != nil {
		d := Decoded{Error: err.Error()}
		var de *frame.DecodeError
		if errors.As(err, &de) {
			d.Kind = de.Kind.String()
		}
		return d
	}
	return Decoded{Reading: &r, Severity: r.Severity().String()}
}

// SendZone writes the reading of zone index to the open port.
func SendZone(s *sh.Shell, index int) (thermal.Reading, error) {
	zone := thermal.ZoneName(index)
	r, ok := thermal.Find(s.Reader.Read(), zone)
	if !ok {
		return r, fmt.Errorf("%s not available", zone)
	}
	if err := frame.NewWriter(s.Port).WriteReading(r); err != nil {
		return r, err
	}
	return r, nil
}

var (
	// ZonesCmd lists readable thermal zones.
	ZonesCmd = ishell.Cmd{
		Name:    "zones",
		Aliases: []string{"z"},
		Help:    "",
		Func: func(c *ishell.Context) {
			readings := sh.ShellFrom(c).Reader.Read()
			if readings == nil {
				readings = []thermal.Reading{}
			}
			lines := make([]string, 0, len(readings))
			for _, r := range readings {
				lines = append(lines, FormatReading(r))
			}
			if len(lines) == 0 {
				lines = append(lines, "No thermal zones found")
			}
			sh.Print(c, readings, strings.Join(lines, "\n"))
		},
	}

	// SendCmd sends one frame of a zone.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "ZONE_INDEX",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ZONE_INDEX required"))
				return
			}
			index, err := strconv.Atoi(c.Args[0])
			if err != nil || index < 0 {
				c.Err(fmt.Errorf("invalid ZONE_INDEX %q", c.Args[0]))
				return
			}
			r, err := SendZone(sh.ShellFrom(c), index)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, r, strings.TrimSpace(string(frame.Encode(r))))
		}),
	}

	// DecodeCmd decodes a frame without a port.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"d"},
		Help:    "LINE",
		Func: func(c *ishell.Context) {
			d := DecodeLine(strings.Join(c.Args, " "))
			if d.Reading == nil {
				sh.Print(c, d, fmt.Sprintf("malformed (%s): %s", d.Kind, d.Error))
				return
			}
			sh.Print(c, d, fmt.Sprintf("%s %.1f %s", d.Reading.Label, d.Reading.Celsius, d.Severity))
		},
	}
)

func init() {
	sh.AddCmds(
		&ZonesCmd,
		&SendCmd,
		&DecodeCmd,
	)
}
