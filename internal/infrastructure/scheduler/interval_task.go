// Package scheduler runs recurring background work independently of request traffic.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFunc is one execution of a recurring task
type TaskFunc func(ctx context.Context) error

// IntervalTaskConfig holds configuration for an IntervalTask
type IntervalTaskConfig struct {
	// Name identifies the task in logs
	Name string

	// Enabled determines if the task is active
	Enabled bool

	// Interval between runs; a tick missed by a slow run is dropped
	Interval time.Duration

	// RunOnStart executes the task immediately when started
	RunOnStart bool

	// Timeout bounds a single run (0 means no bound beyond the task's own)
	Timeout time.Duration
}

// IntervalTask runs a TaskFunc on a fixed interval until stopped.
// Runs never overlap; a panic in a run is logged and the loop continues.
type IntervalTask struct {
	fn        TaskFunc
	logger    *zap.Logger
	config    IntervalTaskConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	runs      int64
}

// NewIntervalTask creates a new interval task
func NewIntervalTask(fn TaskFunc, logger *zap.Logger, config IntervalTaskConfig) (*IntervalTask, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: task function is required", ErrInvalidConfig)
	}
	if config.Enabled && config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, config.Interval)
	}
	if config.Name == "" {
		config.Name = "interval-task"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalTask{
		fn:     fn,
		logger: logger.With(zap.String("task", config.Name)),
		config: config,
	}, nil
}

// Start launches the loop. Starting a disabled task is a no-op.
func (t *IntervalTask) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}
	if !t.config.Enabled {
		t.mu.Unlock()
		t.logger.Info("Scheduled task is disabled")
		return nil
	}
	t.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.loop(ctx)

	t.logger.Info("Scheduled task started",
		zap.Duration("interval", t.config.Interval),
		zap.Bool("run_on_start", t.config.RunOnStart),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to finish, or for ctx to expire
func (t *IntervalTask) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Scheduled task stopped gracefully")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Scheduled task stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the loop is active
func (t *IntervalTask) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

// Runs returns how many executions have completed
func (t *IntervalTask) Runs() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

func (t *IntervalTask) loop(ctx context.Context) {
	defer t.wg.Done()

	if t.config.RunOnStart {
		t.execute(ctx)
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("Scheduled task loop stopping")
			return
		case <-ticker.C:
			t.execute(ctx)
		}
	}
}

func (t *IntervalTask) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx := ctx
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Scheduled task panicked", zap.Any("panic", r))
		}
		t.mu.Lock()
		t.runs++
		t.mu.Unlock()
	}()

	start := time.Now()
	if err := t.fn(runCtx); err != nil {
		t.logger.Error("Scheduled task failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}
	t.logger.Debug("Scheduled task completed", zap.Duration("duration", time.Since(start)))
}
