package spooler

import (
	"regexp"
	"strings"

	"github.com/spoolgate/backend/internal/domain/printing"
)

var (
	// printer HP_LaserJet is idle.  enabled since ...
	lpstatPrinterPattern = regexp.MustCompile(`printer\s+(\S+)\s+is\s+(\S+)`)
	// printer HP_LaserJet now printing HP_LaserJet-42.  enabled since ...
	// printer HP_LaserJet disabled since ...
	lpstatActivityPattern = regexp.MustCompile(`printer\s+(\S+)\s+(now printing|disabled)`)
	// network ipp
	lpinfoDevicePattern = regexp.MustCompile(`^(\S+)\s+(.+)$`)
	// PageSize/Media Size: Letter *A4 Legal
	lpoptionsPattern = regexp.MustCompile(`^(\S+)/([^:]+):\s*(.+)$`)
	// request id is HP_LaserJet-123 (1 file(s))
	requestIDPattern = regexp.MustCompile(`request id is (\S+)`)
)

// parseLpstat extracts one device per "printer <name> is <status>" line
func parseLpstat(output string) []printing.Device {
	var devices []printing.Device
	for _, line := range splitLines(output) {
		m := lpstatPrinterPattern.FindStringSubmatch(line)
		if m == nil {
			m = lpstatActivityPattern.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}
		raw := strings.TrimPrefix(strings.TrimRight(m[2], ".,"), "now ")
		devices = append(devices, printing.Device{
			Name:      m[1],
			RawStatus: raw,
			State:     printing.NormalizeDeviceState(raw),
		})
	}
	return devices
}

// parseLpinfo extracts name/description pairs; lpinfo reports no state
func parseLpinfo(output string) []printing.Device {
	var devices []printing.Device
	for _, line := range splitLines(output) {
		m := lpinfoDevicePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		devices = append(devices, printing.Device{
			Name:        m[1],
			Description: strings.TrimSpace(m[2]),
			RawStatus:   string(printing.DeviceStateUnknown),
			State:       printing.DeviceStateUnknown,
		})
	}
	return devices
}

// parseLpoptions parses "Key/Label: v1 *v2 v3" lines. The starred value is the default.
func parseLpoptions(output string) []printing.DeviceOption {
	var options []printing.DeviceOption
	for _, line := range splitLines(output) {
		m := lpoptionsPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		opt := printing.DeviceOption{
			Key:   m[1],
			Label: strings.TrimSpace(m[2]),
		}
		for _, v := range strings.Fields(m[3]) {
			if strings.HasPrefix(v, "*") {
				v = strings.TrimPrefix(v, "*")
				opt.Default = v
			}
			opt.Values = append(opt.Values, v)
		}
		options = append(options, opt)
	}
	return options
}

// parseJobID extracts the request id, or UnknownJobID when lp did not report one
func parseJobID(output string) string {
	if m := requestIDPattern.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	return printing.UnknownJobID
}

func splitLines(output string) []string {
	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
