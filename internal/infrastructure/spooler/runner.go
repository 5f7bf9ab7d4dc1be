package spooler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/spoolgate/backend/internal/infrastructure/spooler"

// Output holds the captured streams of a finished command
type Output struct {
	Stdout string
	Stderr string
}

// Runner executes an external command and captures its output.
// Implementations must honor ctx for cancellation.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Output, error)
}

// ExecRunnerConfig contains configuration for ExecRunner
type ExecRunnerConfig struct {
	// Timeout bounds every invocation (default 5s)
	Timeout time.Duration
	// Env is appended to the process environment, e.g. CUPS_SERVER=printhost:631
	Env []string
	// Logger for debug output
	Logger *zap.Logger
}

// ExecRunner runs commands with os/exec, never through a shell
type ExecRunner struct {
	timeout time.Duration
	env     []string
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewExecRunner creates a new ExecRunner
func NewExecRunner(config *ExecRunnerConfig) *ExecRunner {
	if config == nil {
		config = &ExecRunnerConfig{}
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		timeout: timeout,
		env:     config.Env,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Timeout returns the per-invocation timeout
func (r *ExecRunner) Timeout() time.Duration {
	return r.timeout
}

// Run executes name with args. A non-zero exit, a missing binary and an
// expired timeout are all reported as *CommandError.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Output, error) {
	command := filepath.Base(name)
	ctx, span := r.tracer.Start(ctx, "spooler.exec "+command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("spooler.command", command),
			attribute.Int("spooler.args", len(args)),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("executing spooler command",
		zap.String("binary", name),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}
	span.SetAttributes(attribute.Int64("spooler.duration_ms", time.Since(start).Milliseconds()))

	if err == nil {
		return out, nil
	}

	cmdErr := r.classify(ctx, command, err)
	cmdErr.Stderr = strings.TrimSpace(out.Stderr)
	span.RecordError(cmdErr)
	span.SetStatus(codes.Error, cmdErr.Code)

	r.logger.Debug("spooler command failed",
		zap.String("binary", name),
		zap.String("code", cmdErr.Code),
		zap.String("stderr", cmdErr.Stderr),
		zap.Error(err))

	return out, cmdErr
}

func (r *ExecRunner) classify(ctx context.Context, command string, err error) *CommandError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewCommandError(ErrCodeCommandTimeout, command,
			fmt.Sprintf("timed out after %v", r.timeout), err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return NewCommandError(ErrCodeCommandFailed, command, "cancelled", err)
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return NewCommandError(ErrCodeBinaryNotFound, command, "binary not found", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return NewCommandError(ErrCodeCommandFailed, command,
			fmt.Sprintf("exited with status %d", exitErr.ExitCode()), err)
	}
	return NewCommandError(ErrCodeCommandFailed, command, "execution failed", err)
}

// Ensure ExecRunner implements Runner
var _ Runner = (*ExecRunner)(nil)
