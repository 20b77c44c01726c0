package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	fx "github.com/robotalks/thermlink/pkg/framework"
	"github.com/robotalks/thermlink/pkg/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/thermlink/"
)

func init() {
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	godotenv.Load()
	if val := os.Getenv("THERM_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL, "")
	if err != nil {
		log.Fatalln(err)
	}
	mqtt.Watch(q, func(s mqtt.Sample) {
		log.Printf("%s/%s: %s %.1f %s", s.Host, s.Reading.Zone, s.Reading.Label, s.Reading.Celsius, s.Reading.Severity())
	})
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	err = fx.NewRunner().HandleSignals().Go(fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})).Wait()
	if err != nil {
		log.Fatalln(err)
	}
}
