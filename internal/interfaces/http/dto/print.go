package dto

import (
	"time"

	"github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
)

// SubmitJobRequest is the body of POST /print/jobs
type SubmitJobRequest struct {
	Handle  string                 `json:"handle" binding:"required"`
	Printer string                 `json:"printer" binding:"required,max=127"`
	Options *printing.PrintOptions `json:"options" binding:"required"`
}

// PreviewQuery selects the document to preview
type PreviewQuery struct {
	File string `form:"file" binding:"required"`
}

// PrinterResponse is one entry of the status printer list
type PrinterResponse struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// StatusResponse is the body of GET /print/status
type StatusResponse struct {
	CUPSOnline     bool              `json:"cupsOnline"`
	DaemonOnline   bool              `json:"daemonOnline"`
	Printers       []PrinterResponse `json:"printers"`
	TotalPrinters  int               `json:"totalPrinters"`
	OnlinePrinters int               `json:"onlinePrinters"`
	CapturedAt     *time.Time        `json:"capturedAt,omitempty"`
}

// PrintersResponse is the body of GET /print/printers
type PrintersResponse struct {
	Printers []printing.Device `json:"printers"`
}

// OptionsResponse is the body of GET /print/printers/:name/options
type OptionsResponse struct {
	Printer string                  `json:"printer"`
	Options []printing.DeviceOption `json:"options"`
}

// SweepResponse reports an on-demand sweep
type SweepResponse struct {
	Scanned int    `json:"scanned"`
	Removed int    `json:"removed"`
	Failed  int    `json:"failed"`
	Skipped bool   `json:"skipped"`
	MaxAge  string `json:"maxAge"`
}

// NewStatusResponse flattens a snapshot. Devices report their normalized
// state; the raw spooler text is not exposed here.
func NewStatusResponse(s *printing.StatusSnapshot) StatusResponse {
	printers := make([]PrinterResponse, 0, len(s.Devices))
	for _, d := range s.Devices {
		state := d.State
		if state == "" {
			state = printing.DeviceStateUnknown
		}
		printers = append(printers, PrinterResponse{
			Name:        d.Name,
			Status:      state.String(),
			Description: d.Description,
		})
	}

	resp := StatusResponse{
		CUPSOnline:     s.DaemonOnline,
		DaemonOnline:   s.DaemonOnline,
		Printers:       printers,
		TotalPrinters:  s.TotalDevices(),
		OnlinePrinters: s.OnlineCount,
	}
	if s.IsCaptured() {
		at := s.CapturedAt
		resp.CapturedAt = &at
	}
	return resp
}

// NewPrintersResponse wraps a device list, never encoding null
func NewPrintersResponse(devices []printing.Device) PrintersResponse {
	if devices == nil {
		devices = []printing.Device{}
	}
	return PrintersResponse{Printers: devices}
}

// NewSweepResponse converts a sweep result
func NewSweepResponse(r *storage.SweepResult) SweepResponse {
	return SweepResponse{
		Scanned: r.Scanned,
		Removed: r.Removed,
		Failed:  r.Failed,
		Skipped: r.Skipped,
		MaxAge:  r.MaxAge.String(),
	}
}

// DiscardResponse confirms a discarded document
type DiscardResponse struct {
	Handle  string `json:"handle"`
	Deleted bool   `json:"deleted"`
}
