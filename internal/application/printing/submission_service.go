package printing

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/infrastructure/spooler"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
	"github.com/spoolgate/backend/internal/infrastructure/telemetry"
)

// discardTimeout bounds the delete that follows every spooler attempt
const discardTimeout = 5 * time.Second

// SubmitRequest asks for a stored document to be printed
type SubmitRequest struct {
	HandleID string
	Device   string
	Options  *domain.PrintOptions
}

// SubmissionServiceConfig configures a SubmissionService
type SubmissionServiceConfig struct {
	// Timeout bounds the spooler call once the request has been handed off
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *telemetry.SpoolerMetrics
	Now     func() time.Time
}

// SubmissionService hands stored documents to the spooler. A document that
// reaches the spooler is deleted afterwards whatever the outcome; requests
// refused before that keep the document so the client can retry.
type SubmissionService struct {
	store   storage.DocumentStore
	adapter spooler.Adapter
	status  StatusSource
	timeout time.Duration
	logger  *zap.Logger
	metrics *telemetry.SpoolerMetrics
	now     func() time.Time
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	store storage.DocumentStore,
	adapter spooler.Adapter,
	status StatusSource,
	config SubmissionServiceConfig,
) *SubmissionService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = spooler.DefaultCommandTimeout
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &SubmissionService{
		store:   store,
		adapter: adapter,
		status:  status,
		timeout: timeout,
		logger:  logger,
		metrics: config.Metrics,
		now:     now,
	}
}

// Submit validates the request, checks the cached daemon state and hands the
// document to the spooler. It never retries.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*domain.JobResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "print.submit", attribute.String("device", req.Device))
	defer span.End()
	log := logger.Enrich(ctx, s.logger).With(
		zap.String("handle", req.HandleID),
		zap.String("printer", req.Device),
	)

	if err := validateSubmit(req); err != nil {
		s.metrics.RecordSubmission(ctx, req.Device, telemetry.SubmitOutcomeRejected, 0)
		return nil, err
	}

	if !s.status.Snapshot().DaemonOnline {
		s.metrics.RecordSubmission(ctx, req.Device, telemetry.SubmitOutcomeOffline, 0)
		log.Warn("Print refused, spooler offline")
		return nil, domain.ErrSpoolerOffline
	}

	path, err := s.store.Path(ctx, req.HandleID)
	if err != nil {
		outcome := telemetry.SubmitOutcomeFailed
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPathEscape) {
			outcome = telemetry.SubmitOutcomeNotFound
		}
		s.metrics.RecordSubmission(ctx, req.Device, outcome, 0)
		return nil, err
	}

	start := s.now()
	jobID, submitErr := s.submit(ctx, path, req)
	elapsed := s.now().Sub(start)

	s.discard(ctx, req.HandleID, log)

	if submitErr != nil {
		telemetry.RecordError(span, submitErr)
		outcome := telemetry.SubmitOutcomeFailed
		msg := "Print job failed"
		if spooler.IsTimeout(submitErr) {
			outcome = telemetry.SubmitOutcomeTimeout
			msg = "Print job timed out"
		}
		s.metrics.RecordSubmission(ctx, req.Device, outcome, elapsed)
		log.Error(msg, zap.Duration("elapsed", elapsed), zap.Error(submitErr))
		return nil, submitErr
	}

	s.metrics.RecordSubmission(ctx, req.Device, telemetry.SubmitOutcomeSuccess, elapsed)
	log.Info("Print job submitted",
		zap.String("job_id", jobID),
		zap.Int("copies", req.Options.Copies),
	)

	return &domain.JobResult{
		JobID:       jobID,
		Device:      req.Device,
		SubmittedAt: s.now(),
	}, nil
}

// submit runs the spooler call. The job is ours once lp starts, so a client
// hanging up must not abort it.
func (s *SubmissionService) submit(ctx context.Context, path string, req SubmitRequest) (jobID string, err error) {
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	telemetry.WithProfilingLabels(submitCtx, map[string]string{
		telemetry.ProfilingLabelOperation: "print.submit",
		telemetry.ProfilingLabelDevice:    req.Device,
	}, func(ctx context.Context) {
		jobID, err = s.adapter.Submit(ctx, path, req.Device, *req.Options)
	})
	return jobID, err
}

// discard deletes an attempted document. It gets its own deadline: the
// spooler call may have used up the submit timeout.
func (s *SubmissionService) discard(ctx context.Context, id string, log *zap.Logger) {
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := s.store.Delete(deleteCtx, id); err != nil {
		log.Error("Failed to delete printed document", zap.Error(err))
	}
}

func validateSubmit(req SubmitRequest) error {
	if req.HandleID == "" {
		return domain.NewValidationError("file is required")
	}
	if err := domain.ValidateDeviceName(req.Device); err != nil {
		return err
	}
	if req.Options == nil {
		return domain.NewValidationError("print options are required")
	}
	return req.Options.Validate()
}
