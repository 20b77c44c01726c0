package thermal

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/shirou/gopsutil/v3/host"
)

// HwmonZonePrefix prefixes the zone of hwmon sensors.
const HwmonZonePrefix = "hwmon_"

const hwmonReadTimeout = 5 * time.Second

// HwmonReader reads hwmon temperature sensors through gopsutil, for hosts
// whose thermal zones don't cover the CPU package.
type HwmonReader struct {
	// Sensors lists the sensors, host.SensorsTemperaturesWithContext by default.
	Sensors func(context.Context) ([]host.TemperatureStat, error)
}

// NewHwmonReader creates a HwmonReader.
func NewHwmonReader() *HwmonReader {
	return &HwmonReader{Sensors: host.SensorsTemperaturesWithContext}
}

// Read implements Reader. Sensors are named hwmon_<sensor key>.
func (h *HwmonReader) Read() []Reading {
	ctx, cancel := context.WithTimeout(context.Background(), hwmonReadTimeout)
	defer cancel()
	stats, err := h.Sensors(ctx)
	if err != nil {
		// partial results come with warnings.
		if len(stats) == 0 {
			glog.Errorf("read hwmon sensors: %v", err)
			return nil
		}
		glog.V(2).Infof("hwmon sensors: %v", err)
	}
	readings := make([]Reading, 0, len(stats))
	for _, s := range stats {
		label := strings.NewReplacer(":", "_", " ", "_").Replace(s.SensorKey)
		if label == "" {
			continue
		}
		readings = append(readings, Reading{
			Zone:    HwmonZonePrefix + label,
			Label:   label,
			Celsius: s.Temperature,
		})
	}
	SortByZone(readings)
	return readings
}
