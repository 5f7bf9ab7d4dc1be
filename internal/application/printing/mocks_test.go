package printing_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) QueryDevices(ctx context.Context) []domain.Device {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Device)
}

func (m *MockAdapter) QueryDaemonLive(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockAdapter) Submit(ctx context.Context, path, device string, opts domain.PrintOptions) (string, error) {
	args := m.Called(ctx, path, device, opts)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) QueryDeviceOptions(ctx context.Context, device string) []domain.DeviceOption {
	args := m.Called(ctx, device)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.DeviceOption)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Store(ctx context.Context, req *storage.StoreRequest) (*domain.DocumentHandle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentHandle), args.Error(1)
}

func (m *MockDocumentStore) Lookup(ctx context.Context, id string) (*domain.DocumentHandle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentHandle), args.Error(1)
}

func (m *MockDocumentStore) Open(ctx context.Context, id string) (*storage.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Document), args.Error(1)
}

func (m *MockDocumentStore) Path(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentStore) Sweep(ctx context.Context, maxAge time.Duration) (*storage.SweepResult, error) {
	args := m.Called(ctx, maxAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SweepResult), args.Error(1)
}

// staticStatus serves a fixed snapshot
type staticStatus struct {
	snapshot *domain.StatusSnapshot
}

func (s staticStatus) Snapshot() *domain.StatusSnapshot {
	return s.snapshot
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func onlineStatus() staticStatus {
	return staticStatus{domain.NewStatusSnapshot(true, []domain.Device{
		{Name: "HP1", RawStatus: "idle", State: domain.DeviceStateIdle},
	}, fixedTime)}
}

func offlineStatus() staticStatus {
	return staticStatus{domain.NewStatusSnapshot(false, []domain.Device{domain.PlaceholderDevice()}, fixedTime)}
}
