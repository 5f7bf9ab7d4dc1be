package printing

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/infrastructure/scheduler"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
	"github.com/spoolgate/backend/internal/infrastructure/telemetry"
)

// Sweep defaults: uploads that were never printed are removed after an hour
const (
	DefaultSweepInterval = time.Hour
	DefaultSweepMaxAge   = time.Hour
)

// UploadRequest carries one uploaded file
type UploadRequest = storage.StoreRequest

// DocumentService manages uploaded documents between upload and submission
type DocumentService struct {
	store   storage.DocumentStore
	logger  *zap.Logger
	metrics *telemetry.SpoolerMetrics
}

// NewDocumentService creates a new document service
func NewDocumentService(store storage.DocumentStore, logger *zap.Logger, metrics *telemetry.SpoolerMetrics) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{store: store, logger: logger, metrics: metrics}
}

// Upload stores a document and returns its handle
func (s *DocumentService) Upload(ctx context.Context, req *UploadRequest) (*domain.DocumentHandle, error) {
	log := logger.Enrich(ctx, s.logger)
	handle, err := s.store.Store(ctx, req)
	if err != nil {
		log.Info("Upload rejected",
			zap.String("file_name", req.OriginalName),
			zap.String("media_type", req.MediaType),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordUpload(ctx, handle.MediaType, handle.Size)
	log.Info("Document uploaded",
		zap.String("handle", handle.ID),
		zap.String("media_type", handle.MediaType),
		zap.Int64("size", handle.Size),
	)
	return handle, nil
}

// Open opens a stored document for preview. The caller must close it.
func (s *DocumentService) Open(ctx context.Context, id string) (*storage.Document, error) {
	return s.store.Open(ctx, id)
}

// Lookup returns the handle of a stored document
func (s *DocumentService) Lookup(ctx context.Context, id string) (*domain.DocumentHandle, error) {
	return s.store.Lookup(ctx, id)
}

// Discard removes a document the client no longer wants to print
func (s *DocumentService) Discard(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Enrich(ctx, s.logger).Debug("Document discarded", zap.String("handle", id))
	return nil
}

// Sweep removes documents older than maxAge
func (s *DocumentService) Sweep(ctx context.Context, maxAge time.Duration) (result *storage.SweepResult, err error) {
	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelOperation: "storage.sweep",
	}, func(ctx context.Context) {
		result, err = s.store.Sweep(ctx, maxAge)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSweep(ctx, result.Removed)
	return result, nil
}

// SweeperConfig configures the background sweep
type SweeperConfig struct {
	Enabled  bool
	Interval time.Duration
	MaxAge   time.Duration
}

// NewSweeper returns a task that sweeps stale uploads on an interval
func NewSweeper(docs *DocumentService, logger *zap.Logger, config SweeperConfig) (*scheduler.IntervalTask, error) {
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	maxAge := config.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultSweepMaxAge
	}

	return scheduler.NewIntervalTask(func(ctx context.Context) error {
		_, err := docs.Sweep(ctx, maxAge)
		return err
	}, logger, scheduler.IntervalTaskConfig{
		Name:     "upload-sweeper",
		Enabled:  config.Enabled,
		Interval: interval,
		// one sweep can hold the lock for at most one interval
		Timeout: interval,
	})
}
