package printing

import (
	"strings"
	"time"
	"unicode"
)

// Default placeholder reported when the spooler cannot be queried at all.
const (
	PlaceholderDeviceName        = "default"
	PlaceholderDeviceDescription = "Default printer"
)

// MaxDeviceNameLength is the longest queue name CUPS accepts
const MaxDeviceNameLength = 127

// ValidateDeviceName rejects names that could be read as a command-line flag
// or that CUPS would never accept as a queue name.
func ValidateDeviceName(name string) error {
	switch {
	case name == "":
		return NewValidationError("printer is required")
	case len(name) > MaxDeviceNameLength:
		return NewValidationError("printer name is too long")
	case strings.HasPrefix(name, "-"):
		return NewValidationError("printer name must not start with '-'")
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '/' || r == '#' {
			return NewValidationError("printer name contains invalid characters")
		}
	}
	return nil
}

// Device describes one printer known to the spooler
type Device struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	RawStatus   string      `json:"status"`
	State       DeviceState `json:"state"`
}

// PlaceholderDevice is returned in place of a device list when listing fails to execute
func PlaceholderDevice() Device {
	return Device{
		Name:        PlaceholderDeviceName,
		Description: PlaceholderDeviceDescription,
		RawStatus:   string(DeviceStateUnknown),
		State:       DeviceStateUnknown,
	}
}

// DeviceOption is one configurable printer option, e.g. PageSize or Duplex
type DeviceOption struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Values  []string `json:"values"`
	Default string   `json:"default,omitempty"`
}

// StatusSnapshot is an immutable point-in-time view of daemon liveness and devices.
// Build one with NewStatusSnapshot; never modify a published snapshot.
type StatusSnapshot struct {
	DaemonOnline bool
	Devices      []Device
	OnlineCount  int
	CapturedAt   time.Time
}

// NewStatusSnapshot builds a snapshot, copying devices and computing OnlineCount
func NewStatusSnapshot(daemonOnline bool, devices []Device, capturedAt time.Time) *StatusSnapshot {
	copied := make([]Device, len(devices))
	copy(copied, devices)

	online := 0
	for _, d := range copied {
		if d.State.IsOnline() {
			online++
		}
	}

	return &StatusSnapshot{
		DaemonOnline: daemonOnline,
		Devices:      copied,
		OnlineCount:  online,
		CapturedAt:   capturedAt,
	}
}

// OfflineSnapshot is the conservative snapshot served before any refresh has completed
func OfflineSnapshot() *StatusSnapshot {
	return &StatusSnapshot{Devices: []Device{}}
}

// TotalDevices returns the number of devices in the snapshot
func (s *StatusSnapshot) TotalDevices() int {
	return len(s.Devices)
}

// IsCaptured reports whether the snapshot came from a completed refresh
func (s *StatusSnapshot) IsCaptured() bool {
	return !s.CapturedAt.IsZero()
}

// DaemonState returns the liveness state the snapshot represents
func (s *StatusSnapshot) DaemonState() DaemonState {
	switch {
	case !s.IsCaptured():
		return DaemonStateUnknown
	case s.DaemonOnline:
		return DaemonStateLive
	default:
		return DaemonStateDown
	}
}

// Device returns the named device, if present
func (s *StatusSnapshot) Device(name string) (Device, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}
