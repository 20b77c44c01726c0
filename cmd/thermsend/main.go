package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/robotalks/thermlink/pkg/env"
	fx "github.com/robotalks/thermlink/pkg/framework"
	"github.com/robotalks/thermlink/pkg/host"
	"github.com/robotalks/thermlink/pkg/link"
	"github.com/robotalks/thermlink/pkg/metrics"
	"github.com/robotalks/thermlink/pkg/mqtt"
	"github.com/robotalks/thermlink/pkg/thermal"
)

func init() {
	host.SetupFlags()
}

func run(conf *host.Config) error {
	reader, err := conf.Reader()
	if err != nil {
		return err
	}
	loop := fx.NewLoop()
	loop.Interval = conf.Interval
	loop.Add(thermal.NewSampler(reader))

	table := host.NewTable(os.Stdout, conf.Status())
	table.NoColor = color.NoColor

	if conf.Transmits() {
		fmt.Printf("Configuring %s to %dbps, raw, -echo, clocal, -crtscts...\n", conf.TTY, conf.Baud)
		port, err := link.Open(conf.LinkConfig())
		if err != nil {
			return err
		}
		defer func() {
			port.Close()
			fmt.Println("Port closed.")
		}()
		loop.Add(host.NewSender(conf.ZoneName(), port))
		table.Highlight = conf.ZoneName()
	} else {
		fmt.Println("No TTY port or zone specified. Running in only terminal mode.")
	}

	if conf.MQTTURL != "" {
		hostID := env.HostID(conf.HostID)
		q, err := mqtt.NewQueueFromURL(conf.MQTTURL, "thermsend-"+hostID)
		if err != nil {
			return err
		}
		if err := q.Connect(); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer q.Close()
		loop.Add(&mqtt.Mirror{Publisher: q, HostID: hostID})
	}

	loop.Add(&metrics.Server{Addr: conf.MetricsAddr}, table)
	defer table.Close()

	return fx.NewRunner().HandleSignals().Go(loop).Wait()
}

func main() {
	if err := godotenv.Load(); err != nil {
		glog.V(2).Infof("no .env loaded: %v", err)
	}
	if err := host.ApplyEnv(); err != nil {
		log.Fatalln(err)
	}
	flag.Parse()

	if err := run(host.NewConfig()); err != nil {
		log.Fatalln(err)
	}
}
