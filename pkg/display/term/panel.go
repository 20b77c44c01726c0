// Package term renders the display panel on an ANSI terminal.
package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/robotalks/thermlink/pkg/display"
)

// Panel layout.
const (
	DefaultWidth = 32

	TitleRow = 1
	LabelRow = 3
	ValueRow = 5
)

// Panel implements display.Sink and display.Indicator on a terminal.
type Panel struct {
	Out     io.Writer
	Width   int
	NoColor bool

	err error
}

// NewPanel creates a Panel writing to out.
func NewPanel(out io.Writer) *Panel {
	return &Panel{Out: out, Width: DefaultWidth}
}

// Err returns the first write error.
func (p *Panel) Err() error {
	return p.err
}

// DrawPlaceholder implements display.Sink.
func (p *Panel) DrawPlaceholder(msg string) {
	p.clear()
	p.moveTo(LabelRow, 1)
	p.print(p.colorize(fgAttrs[display.White]...), msg)
}

// DrawStatic implements display.Sink.
func (p *Panel) DrawStatic(title, label string) {
	p.clear()
	p.moveTo(TitleRow, 1)
	p.print(p.colorize(color.FgCyan, color.Bold), title)
	p.moveTo(LabelRow, 1)
	p.print(p.colorize(fgAttrs[display.White]...), label)
}

// DrawValue implements display.Sink.
func (p *Panel) DrawValue(text string, c display.Color) {
	p.moveTo(ValueRow, 1)
	p.write(strings.Repeat(" ", p.width()))
	p.moveTo(ValueRow, 1)
	p.print(p.colorize(fgAttrs[c]...), text)
}

// SetIndicator implements display.Indicator as a block in the top right corner.
func (p *Panel) SetIndicator(c display.Color) {
	p.moveTo(TitleRow, p.width()-1)
	if c == display.Off {
		p.write("  ")
		return
	}
	if p.NoColor {
		p.write("[]")
		return
	}
	p.print(p.colorize(bgAttrs[c]...), "  ")
}

var fgAttrs = map[display.Color][]color.Attribute{
	display.White:  {color.FgWhite},
	display.Cyan:   {color.FgCyan},
	display.Green:  {color.FgHiGreen, color.Bold},
	display.Yellow: {color.FgHiYellow, color.Bold},
	display.Red:    {color.FgHiRed, color.Bold},
	display.Blue:   {color.FgHiBlue},
}

var bgAttrs = map[display.Color][]color.Attribute{
	display.White:  {color.BgWhite},
	display.Cyan:   {color.BgCyan},
	display.Green:  {color.BgGreen},
	display.Yellow: {color.BgYellow},
	display.Red:    {color.BgRed},
	display.Blue:   {color.BgBlue},
}

func (p *Panel) colorize(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

func (p *Panel) width() int {
	if p.Width > 0 {
		return p.Width
	}
	return DefaultWidth
}

func (p *Panel) clear() {
	p.write("\x1b[2J\x1b[H")
}

func (p *Panel) moveTo(row, col int) {
	p.write(fmt.Sprintf("\x1b[%d;%dH", row, col))
}

func (p *Panel) write(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.Out, s)
	}
}

func (p *Panel) print(c *color.Color, s string) {
	if p.err == nil {
		_, p.err = c.Fprint(p.Out, s)
	}
}
