// Package env resolves the identity of the host publishing readings.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID keys the protected machine id so the raw id never leaves the host.
const AppID = "thermlink"

// HostIDLen is the length of the published id.
const HostIDLen = 12

// MachineID returns a short, stable id derived from the machine id.
func MachineID() (string, error) {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		return "", err
	}
	if len(id) > HostIDLen {
		id = id[:HostIDLen]
	}
	return id, nil
}

// HostID returns override when set, otherwise the machine id, falling
// back to the hostname.
func HostID(override string) string {
	if override != "" {
		return override
	}
	id, err := MachineID()
	if err == nil {
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "unknown"
}
