package host

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	fx "github.com/robotalks/thermlink/pkg/framework"
	"github.com/robotalks/thermlink/pkg/thermal"
)

// Column widths of the zone table.
const (
	ZoneWidth   = 15
	SensorWidth = 25
	TempWidth   = 10

	tempCol    = ZoneWidth + 1 + SensorWidth + 1 + 1
	tableWidth = ZoneWidth + SensorWidth + TempWidth + 2
	firstRow   = 3
)

// Footer messages.
const (
	MonitoringStatus = "THERMAL ZONE MONITORING"
	ClosingMessage   = "END THERMAL ZONE MONITORING..."
)

// Spinner is cycled in the footer, one frame per tick.
const Spinner = `/-\|`

// Table keeps a live table of all zones on a terminal. Rows are laid out
// from the first snapshot and later ticks only repaint temperature cells
// and the spinner.
type Table struct {
	Out    io.Writer
	Status string
	// Highlight is the zone rendered in reverse video.
	Highlight string
	NoColor   bool

	rows      map[string]int
	statusRow int
	err       error
}

// NewTable creates a Table.
func NewTable(out io.Writer, status string) *Table {
	return &Table{Out: out, Status: status}
}

// AddToLoop implements framework.LoopAdder.
func (t *Table) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvPostProc, t)
}

// Control implements framework.Controller.
func (t *Table) Control(cc fx.ControlContext) error {
	if snapshot := thermal.SnapshotFrom(cc); snapshot != nil {
		t.Update(snapshot.Readings, cc.Tick())
	}
	return t.err
}

// Update repaints the table with readings of a loop tick, drawing the
// layout first if needed.
func (t *Table) Update(readings []thermal.Reading, tick uint64) {
	if t.rows == nil {
		t.drawLayout(readings)
	}
	for _, r := range readings {
		row, ok := t.rows[r.Zone]
		if !ok {
			continue
		}
		t.moveTo(row, tempCol)
		cell := fmt.Sprintf("%*.1f", TempWidth, r.Celsius)
		if r.Zone == t.Highlight {
			t.print(t.colorize(color.ReverseVideo), cell)
		} else {
			t.write(cell)
		}
	}
	t.moveTo(t.statusRow, len(t.Status)+3)
	t.write(string(Spinner[tick%uint64(len(Spinner))]))
}

// Close parks the cursor below the table and prints the closing message.
func (t *Table) Close() error {
	if t.rows != nil {
		t.moveTo(t.statusRow+2, 1)
	}
	t.write(ClosingMessage + "\n")
	return t.err
}

func (t *Table) drawLayout(readings []thermal.Reading) {
	t.rows = make(map[string]int, len(readings))
	var sb strings.Builder
	sb.WriteString("\x1b[2J\x1b[H")
	fmt.Fprintf(&sb, "%-*s %-*s %*s\n", ZoneWidth, "ZONE", SensorWidth, "SENSOR", TempWidth, "TEMP (°C)")
	sb.WriteString(strings.Repeat("-", tableWidth) + "\n")
	for i, r := range readings {
		t.rows[r.Zone] = firstRow + i
		fmt.Fprintf(&sb, "%-*s %-*s %*s\n", ZoneWidth, r.Zone, SensorWidth, r.Label, TempWidth, "")
	}
	sb.WriteString(strings.Repeat("-", tableWidth) + "\n")
	fmt.Fprintf(&sb, "%s [ ]\n", t.Status)
	t.statusRow = firstRow + len(readings) + 1
	t.write(sb.String())
}

func (t *Table) colorize(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

func (t *Table) moveTo(row, col int) {
	t.write(fmt.Sprintf("\x1b[%d;%dH", row, col))
}

func (t *Table) write(s string) {
	if t.err == nil {
		_, t.err = io.WriteString(t.Out, s)
	}
}

func (t *Table) print(c *color.Color, s string) {
	if t.err == nil {
		_, t.err = c.Fprint(t.Out, s)
	}
}
