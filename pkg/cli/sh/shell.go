// Package sh provides the interactive shell of thermcli.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/thermlink/pkg/link"
	"github.com/robotalks/thermlink/pkg/thermal"
)

// Shell provides ishell backed interactive shell over a serial port.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Reader thermal.Reader
	// Open opens the port, link.Open by default.
	Open func(link.Config) (io.WriteCloser, error)

	Port       io.WriteCloser
	PortConfig link.Config
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	sysfsRoot  = thermal.DefaultSysfsRoot

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&sysfsRoot, "sysfs", sysfsRoot, "Root of the thermal zones.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

func openPort(conf link.Config) (io.WriteCloser, error) {
	port, err := link.Open(conf)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// New creates a new shell.
func New(reader thermal.Reader) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Reader:      reader,
		Open:        openPort,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requiring an open port.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Port == nil {
			c.Err(fmt.Errorf("port not open"))
			return
		}
		fn(c)
	}
}

// Print writes v as JSON when requested, otherwise text.
func Print(c *ishell.Context, v interface{}, text string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// OpenPort opens and configures a serial port, closing the current one.
func (s *Shell) OpenPort(conf link.Config) error {
	port, err := s.Open(conf)
	if err != nil {
		return err
	}
	s.ClosePort()
	s.Port, s.PortConfig = port, conf
	s.setPrompt(fmt.Sprintf("%s > ", conf.Device))
	return nil
}

// ClosePort closes the current port, restoring its settings.
func (s *Shell) ClosePort() error {
	if s.Port == nil {
		return nil
	}
	err := s.Port.Close()
	s.Port = nil
	s.setPrompt(closedPrompt)
	return err
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.ClosePort()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens a serial port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "DEVICE [BAUD]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DEVICE required"))
				return
			}
			conf := link.Config{Device: c.Args[0], Baud: link.DefaultBaud}
			if len(c.Args) > 1 {
				baud, err := strconv.Atoi(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("invalid BAUD: %v", err))
					return
				}
				conf.Baud = baud
			}
			if err := ShellFrom(c).OpenPort(conf); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the serial port.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).ClosePort(); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(&thermal.SysfsReader{Root: sysfsRoot}).Run(flag.Args()...)
}
