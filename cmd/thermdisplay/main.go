package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/robotalks/thermlink/pkg/display"
	"github.com/robotalks/thermlink/pkg/display/term"
	fx "github.com/robotalks/thermlink/pkg/framework"
	"github.com/robotalks/thermlink/pkg/link"
	"github.com/robotalks/thermlink/pkg/metrics"
)

func init() {
	display.SetupFlags()
}

type input interface {
	io.ReadCloser
	link.Waiter
}

func openInput(conf *display.Config) (input, error) {
	if conf.TTY == "" {
		return link.Stdio(os.Stdin)
	}
	return link.Open(conf.LinkConfig())
}

func run(conf *display.Config) error {
	in, err := openInput(conf)
	if err != nil {
		return err
	}
	var waiter link.Waiter
	if conf.PreciseTimeout {
		waiter = in
	}

	panel := term.NewPanel(os.Stdout)
	panel.NoColor = color.NoColor
	caps := conf.Capabilities()
	machine := display.NewMachine(panel, caps)
	machine.Title = conf.Title
	recv := display.NewReceiver(link.NewLineReader(in, waiter), machine, conf.Timeout, caps)
	recv.ExitOnClose = conf.ExitOnClose

	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	defer cancel()
	runner.GoWith(ctx, fx.NamedRun(recv.Name(), fx.RunFunc(func(ctx context.Context) error {
		defer cancel()
		return fx.RunWithContextCloser(ctx, in, func() error {
			return recv.Run(ctx)
		})
	})))
	if conf.MetricsAddr != "" {
		runner.GoWith(ctx, &metrics.Server{Addr: conf.MetricsAddr})
	}
	return runner.Wait()
}

func main() {
	if err := godotenv.Load(); err != nil {
		glog.V(2).Infof("no .env loaded: %v", err)
	}
	flag.Parse()

	if err := run(display.NewConfig()); err != nil {
		log.Fatalln(err)
	}
}
