package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SpoolerMetrics records print gateway metrics: submissions, daemon health,
// device counts and upload sweeps. A nil *SpoolerMetrics is valid and records
// nothing.
type SpoolerMetrics struct {
	logger *zap.Logger

	submissionsTotal *Counter
	submitDuration   *Histogram
	uploadsTotal     *Counter
	uploadBytes      *Counter
	sweptTotal       *Counter

	daemonUp      *Gauge
	devicesTotal  *Gauge
	devicesOnline *Gauge
}

// SpoolerMetricsConfig holds configuration for spooler metrics.
type SpoolerMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// SubmitOutcome labels the result of a submission attempt.
type SubmitOutcome string

const (
	SubmitOutcomeSuccess  SubmitOutcome = "success"
	SubmitOutcomeRejected SubmitOutcome = "rejected"
	SubmitOutcomeOffline  SubmitOutcome = "offline"
	SubmitOutcomeNotFound SubmitOutcome = "not_found"
	SubmitOutcomeFailed   SubmitOutcome = "failed"
	SubmitOutcomeTimeout  SubmitOutcome = "timeout"
)

// Spooler attribute keys
var (
	AttrSubmitOutcome = attribute.Key("outcome")
	AttrDevice        = attribute.Key("device")
	AttrMediaType     = attribute.Key("media_type")
)

// SubmitDurationBuckets covers lp round trips, which are bounded by the command timeout (seconds).
var SubmitDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// NewSpoolerMetrics creates a new SpoolerMetrics instance.
func NewSpoolerMetrics(cfg SpoolerMetricsConfig) (*SpoolerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SpoolerMetrics{logger: logger}

	var err error
	if sm.submissionsTotal, err = NewCounter(cfg.Meter,
		"spoolgate_submissions_total", "Print submissions by outcome", "{submissions}"); err != nil {
		return nil, err
	}
	if sm.submitDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "spoolgate_submit_duration_seconds",
		Description: "Time spent handing a job to the spooler",
		Unit:        "s",
		Boundaries:  SubmitDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if sm.uploadsTotal, err = NewCounter(cfg.Meter,
		"spoolgate_uploads_total", "Documents accepted for printing", "{documents}"); err != nil {
		return nil, err
	}
	if sm.uploadBytes, err = NewCounter(cfg.Meter,
		"spoolgate_upload_bytes_total", "Bytes of documents accepted for printing", "By"); err != nil {
		return nil, err
	}
	if sm.sweptTotal, err = NewCounter(cfg.Meter,
		"spoolgate_swept_files_total", "Stale uploads removed by the sweeper", "{files}"); err != nil {
		return nil, err
	}
	if sm.daemonUp, err = NewGauge(cfg.Meter,
		"spoolgate_daemon_up", "1 when the spooler daemon answered the last check", "1"); err != nil {
		return nil, err
	}
	if sm.devicesTotal, err = NewGauge(cfg.Meter,
		"spoolgate_devices_total", "Devices reported by the spooler", "{devices}"); err != nil {
		return nil, err
	}
	if sm.devicesOnline, err = NewGauge(cfg.Meter,
		"spoolgate_devices_online", "Devices that are idle or printing", "{devices}"); err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordSubmission records one submission attempt and, when the spooler was
// actually invoked, how long it took.
func (sm *SpoolerMetrics) RecordSubmission(ctx context.Context, device string, outcome SubmitOutcome, d time.Duration) {
	if sm == nil {
		return
	}
	sm.submissionsTotal.Inc(ctx, AttrSubmitOutcome.String(string(outcome)))
	if d > 0 {
		sm.submitDuration.RecordDuration(ctx, d,
			AttrDevice.String(device),
			AttrSubmitOutcome.String(string(outcome)),
		)
	}
}

// RecordUpload records an accepted upload.
func (sm *SpoolerMetrics) RecordUpload(ctx context.Context, mediaType string, size int64) {
	if sm == nil {
		return
	}
	sm.uploadsTotal.Inc(ctx, AttrMediaType.String(mediaType))
	sm.uploadBytes.Add(ctx, size, AttrMediaType.String(mediaType))
}

// RecordSweep records files removed by one sweep.
func (sm *SpoolerMetrics) RecordSweep(ctx context.Context, removed int) {
	if sm == nil || removed <= 0 {
		return
	}
	sm.sweptTotal.Add(ctx, int64(removed))
}

// RecordStatus records the daemon and device gauges from one status refresh.
func (sm *SpoolerMetrics) RecordStatus(ctx context.Context, daemonOnline bool, total, online int) {
	if sm == nil {
		return
	}
	up := int64(0)
	if daemonOnline {
		up = 1
	}
	sm.daemonUp.Record(ctx, up)
	sm.devicesTotal.Record(ctx, int64(total))
	sm.devicesOnline.Record(ctx, int64(online))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSpoolerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
