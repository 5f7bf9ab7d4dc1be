// Package printing holds the print gateway's application services: the cached
// spooler status, job submission and the document lifecycle around it.
package printing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/scheduler"
	"github.com/spoolgate/backend/internal/infrastructure/spooler"
	"github.com/spoolgate/backend/internal/infrastructure/telemetry"
)

// Refresh interval bounds
const (
	DefaultRefreshInterval = 15 * time.Second
	MinRefreshInterval     = 10 * time.Second
	MaxRefreshInterval     = 30 * time.Second
)

// StatusSource serves the latest spooler status without blocking
type StatusSource interface {
	Snapshot() *domain.StatusSnapshot
}

// ClampRefreshInterval applies the default to an unset interval and bounds the rest
func ClampRefreshInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultRefreshInterval
	case d < MinRefreshInterval:
		return MinRefreshInterval
	case d > MaxRefreshInterval:
		return MaxRefreshInterval
	default:
		return d
	}
}

// StatusMonitorConfig configures a StatusMonitor
type StatusMonitorConfig struct {
	// Interval between refreshes, clamped with ClampRefreshInterval
	Interval time.Duration
	Logger   *zap.Logger
	Metrics  *telemetry.SpoolerMetrics
	// Now overrides the clock in tests
	Now func() time.Time
}

// StatusMonitor periodically queries the spooler and caches the result as an
// immutable snapshot. Readers never wait on a refresh.
type StatusMonitor struct {
	adapter  spooler.Adapter
	logger   *zap.Logger
	metrics  *telemetry.SpoolerMetrics
	now      func() time.Time
	interval time.Duration

	current   atomic.Pointer[domain.StatusSnapshot]
	refreshMu sync.Mutex
	task      *scheduler.IntervalTask
}

// NewStatusMonitor creates a monitor serving the offline snapshot until the first refresh
func NewStatusMonitor(adapter spooler.Adapter, config StatusMonitorConfig) (*StatusMonitor, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	m := &StatusMonitor{
		adapter:  adapter,
		logger:   logger,
		metrics:  config.Metrics,
		now:      now,
		interval: ClampRefreshInterval(config.Interval),
	}
	m.current.Store(domain.OfflineSnapshot())

	task, err := scheduler.NewIntervalTask(func(ctx context.Context) error {
		m.Refresh(ctx)
		return nil
	}, logger, scheduler.IntervalTaskConfig{
		Name:       "spooler-status",
		Enabled:    true,
		Interval:   m.interval,
		RunOnStart: true,
	})
	if err != nil {
		return nil, err
	}
	m.task = task
	return m, nil
}

// Interval returns the effective refresh interval
func (m *StatusMonitor) Interval() time.Duration {
	return m.interval
}

// Snapshot returns the latest published snapshot
func (m *StatusMonitor) Snapshot() *domain.StatusSnapshot {
	return m.current.Load()
}

// Refresh queries liveness and devices concurrently and publishes a new snapshot.
// Concurrent calls are serialized so snapshots are published in capture order.
func (m *StatusMonitor) Refresh(ctx context.Context) *domain.StatusSnapshot {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	var (
		live    bool
		devices []domain.Device
		g       errgroup.Group
	)
	g.Go(func() error {
		live = m.adapter.QueryDaemonLive(ctx)
		return nil
	})
	g.Go(func() error {
		devices = m.adapter.QueryDevices(ctx)
		return nil
	})
	_ = g.Wait()

	next := domain.NewStatusSnapshot(live, devices, m.now())
	prev := m.current.Swap(next)

	m.logTransitions(prev, next)
	m.metrics.RecordStatus(ctx, next.DaemonOnline, next.TotalDevices(), next.OnlineCount)
	return next
}

// Start launches the refresh loop; the first refresh runs immediately
func (m *StatusMonitor) Start(ctx context.Context) error {
	m.logger.Info("Starting spooler status monitor", zap.Duration("interval", m.interval))
	return m.task.Start(ctx)
}

// Stop ends the refresh loop, waiting for an in-flight refresh
func (m *StatusMonitor) Stop(ctx context.Context) error {
	return m.task.Stop(ctx)
}

func (m *StatusMonitor) logTransitions(prev, next *domain.StatusSnapshot) {
	if prev.DaemonState() != next.DaemonState() {
		fields := []zap.Field{
			zap.String("from", string(prev.DaemonState())),
			zap.String("to", string(next.DaemonState())),
			zap.Int("devices", next.TotalDevices()),
			zap.Int("online", next.OnlineCount),
		}
		if next.DaemonOnline {
			m.logger.Info("Spooler daemon state changed", fields...)
		} else {
			m.logger.Warn("Spooler daemon state changed", fields...)
		}
	}

	for _, d := range next.Devices {
		old, ok := prev.Device(d.Name)
		switch {
		case !ok && prev.IsCaptured():
			m.logger.Info("Printer appeared", zap.String("printer", d.Name), zap.String("state", string(d.State)))
		case ok && old.State != d.State:
			m.logger.Info("Printer state changed",
				zap.String("printer", d.Name),
				zap.String("from", string(old.State)),
				zap.String("to", string(d.State)),
			)
		}
	}
	for _, d := range prev.Devices {
		if _, ok := next.Device(d.Name); !ok {
			m.logger.Info("Printer disappeared", zap.String("printer", d.Name))
		}
	}
}

var _ StatusSource = (*StatusMonitor)(nil)
