package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/interfaces/http/dto"
)

// SnapshotSource supplies the cached spooler snapshot
type SnapshotSource interface {
	Snapshot() *domain.StatusSnapshot
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	status    SnapshotSource
	name      string
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(status SnapshotSource, name, version string) *SystemHandler {
	return &SystemHandler{
		status:    status,
		name:      name,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Uptime    string `json:"uptime"`
	Spooler   string `json:"spooler"`
	Time      string `json:"time"`
}

// Health reports process health together with the cached daemon state.
// An offline daemon does not make the gateway unhealthy.
func (h *SystemHandler) Health(c *gin.Context) {
	snapshot := h.status.Snapshot()
	h.Success(c, HealthResponse{
		Status:    "healthy",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Spooler:   snapshot.DaemonState().String(),
		Time:      time.Now().Format(time.RFC3339),
	})
}

// Live always answers while the process serves requests
func (h *SystemHandler) Live(c *gin.Context) {
	h.Success(c, gin.H{"status": "alive"})
}

// Ready answers 200 once the first spooler snapshot has been captured
func (h *SystemHandler) Ready(c *gin.Context) {
	if !h.status.Snapshot().IsCaptured() {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSpoolerOffline, "Spooler status not captured yet")
		return
	}
	h.Success(c, gin.H{"status": "ready"})
}
