package printing

import "strings"

// ColorMode represents the color mode a job is printed with
type ColorMode string

const (
	ColorModeColor      ColorMode = "color"
	ColorModeMonochrome ColorMode = "monochrome"
)

// IsValid checks if the ColorMode is a valid value
func (c ColorMode) IsValid() bool {
	switch c {
	case ColorModeColor, ColorModeMonochrome:
		return true
	}
	return false
}

// String returns the string representation of ColorMode
func (c ColorMode) String() string {
	return string(c)
}

// Orientation represents the page orientation for printing
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}

// Quality represents the requested print quality.
// The zero value means "not specified".
type Quality string

const (
	QualityDraft  Quality = "draft"
	QualityNormal Quality = "normal"
	QualityHigh   Quality = "high"
)

// IsValid checks if the Quality is a valid value. Empty is valid.
func (q Quality) IsValid() bool {
	switch q {
	case "", QualityDraft, QualityNormal, QualityHigh:
		return true
	}
	return false
}

// Effective returns the quality that is sent to the spooler.
// Unset or unrecognized values map to normal.
func (q Quality) Effective() Quality {
	switch q {
	case QualityDraft, QualityHigh:
		return q
	default:
		return QualityNormal
	}
}

// String returns the string representation of Quality
func (q Quality) String() string {
	return string(q)
}

// PaperSize is the media name passed to the spooler, e.g. "A4" or "Letter".
// The spooler owns the list of supported media, so any well-formed name is accepted.
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"
	PaperSizeA5     PaperSize = "A5"
	PaperSizeA3     PaperSize = "A3"
	PaperSizeLetter PaperSize = "Letter"
	PaperSizeLegal  PaperSize = "Legal"
)

// IsValid checks that the PaperSize is a plausible media token
func (p PaperSize) IsValid() bool {
	if p == "" || len(p) > 64 {
		return false
	}
	for _, r := range string(p) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// AllPaperSizes returns the commonly offered PaperSize values
func AllPaperSizes() []PaperSize {
	return []PaperSize{
		PaperSizeA4, PaperSizeA5, PaperSizeA3, PaperSizeLetter, PaperSizeLegal,
	}
}

func commonPaperSizes() string {
	sizes := AllPaperSizes()
	names := make([]string, len(sizes))
	for i, p := range sizes {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

// DeviceState is the normalized state of a printer as reported by the spooler
type DeviceState string

const (
	DeviceStateIdle     DeviceState = "idle"
	DeviceStatePrinting DeviceState = "printing"
	DeviceStateOffline  DeviceState = "offline"
	DeviceStateUnknown  DeviceState = "unknown"
)

// IsOnline reports whether a device in this state can accept jobs
func (s DeviceState) IsOnline() bool {
	return s == DeviceStateIdle || s == DeviceStatePrinting
}

// String returns the string representation of DeviceState
func (s DeviceState) String() string {
	return string(s)
}

// NormalizeDeviceState maps a raw spooler status word onto a DeviceState
func NormalizeDeviceState(raw string) DeviceState {
	switch strings.ToLower(strings.TrimRight(strings.TrimSpace(raw), ".,")) {
	case "idle":
		return DeviceStateIdle
	case "printing", "processing":
		return DeviceStatePrinting
	case "disabled", "stopped", "offline":
		return DeviceStateOffline
	default:
		return DeviceStateUnknown
	}
}

// DaemonState is the liveness state of the spooler daemon.
type DaemonState string

const (
	DaemonStateUnknown DaemonState = "unknown"
	DaemonStateLive    DaemonState = "live"
	DaemonStateDown    DaemonState = "down"
)

// String returns the string representation of DaemonState
func (s DaemonState) String() string {
	return string(s)
}
