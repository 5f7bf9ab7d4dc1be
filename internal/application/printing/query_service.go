package printing

import (
	"context"

	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/spooler"
)

// QueryService answers read-only printer questions
type QueryService struct {
	status  StatusSource
	adapter spooler.Adapter
}

// NewQueryService creates a new query service
func NewQueryService(status StatusSource, adapter spooler.Adapter) *QueryService {
	return &QueryService{status: status, adapter: adapter}
}

// Status returns the cached snapshot; it never touches the spooler
func (s *QueryService) Status() *domain.StatusSnapshot {
	return s.status.Snapshot()
}

// Devices returns the devices of the cached snapshot
func (s *QueryService) Devices() []domain.Device {
	return s.status.Snapshot().Devices
}

// DeviceOptions lists the driver options of a device. Unlike Status it
// queries the spooler directly, since options are not part of the snapshot.
func (s *QueryService) DeviceOptions(ctx context.Context, device string) ([]domain.DeviceOption, error) {
	if err := domain.ValidateDeviceName(device); err != nil {
		return nil, err
	}
	return s.adapter.QueryDeviceOptions(ctx, device), nil
}
