package thermal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// DefaultSysfsRoot is where the kernel exposes thermal zones.
const DefaultSysfsRoot = "/sys/class/thermal"

const zonePrefix = "thermal_zone"

// SysfsReader reads thermal zones from sysfs.
type SysfsReader struct {
	Root string
}

// NewSysfsReader creates a SysfsReader on the default root.
func NewSysfsReader() *SysfsReader {
	return &SysfsReader{Root: DefaultSysfsRoot}
}

// ZoneName returns the zone identifier for an index.
func ZoneName(index int) string {
	return fmt.Sprintf("%s%d", zonePrefix, index)
}

// Read implements Reader.
func (s *SysfsReader) Read() []Reading {
	root := s.Root
	if root == "" {
		root = DefaultSysfsRoot
	}
	dirs, err := filepath.Glob(filepath.Join(root, zonePrefix+"*"))
	if err != nil {
		glog.Errorf("glob thermal zones: %v", err)
		return nil
	}
	readings := make([]Reading, 0, len(dirs))
	for _, dir := range dirs {
		r, err := readZone(dir)
		if err != nil {
			glog.V(2).Infof("zone %s unavailable: %v", filepath.Base(dir), err)
			continue
		}
		readings = append(readings, r)
	}
	SortByZone(readings)
	return readings
}

func readZone(dir string) (r Reading, err error) {
	r.Zone = filepath.Base(dir)
	typ, err := os.ReadFile(filepath.Join(dir, "type"))
	if err != nil {
		return
	}
	r.Label = strings.TrimSpace(string(typ))
	raw, err := os.ReadFile(filepath.Join(dir, "temp"))
	if err != nil {
		return
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return
	}
	r.Celsius = float64(milli) / 1000
	return
}

func zoneIndex(zone string) (int, bool) {
	if !strings.HasPrefix(zone, zonePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(zone[len(zonePrefix):])
	return n, err == nil
}

func zoneLess(a, b string) bool {
	ia, oka := zoneIndex(a)
	ib, okb := zoneIndex(b)
	if oka && okb {
		return ia < ib
	}
	if oka != okb {
		return oka
	}
	return a < b
}
