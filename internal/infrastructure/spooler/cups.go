package spooler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spoolgate/backend/internal/domain/printing"
)

const (
	// DefaultCommandTimeout bounds every spooler invocation
	DefaultCommandTimeout = 5 * time.Second

	defaultLpPath        = "lp"
	defaultLpstatPath    = "lpstat"
	defaultLpinfoPath    = "lpinfo"
	defaultLpoptionsPath = "lpoptions"
)

// Adapter is the typed view of the spooler. It is the only component that
// shells out; callers depend on parsed results, never on raw text.
type Adapter interface {
	// QueryDevices lists devices. It never fails: when listing cannot run at
	// all a single placeholder device is returned.
	QueryDevices(ctx context.Context) []printing.Device
	// QueryDaemonLive reports whether the spooler daemon answers
	QueryDaemonLive(ctx context.Context) bool
	// Submit queues the file at path on device and returns the job id
	Submit(ctx context.Context, path, device string, opts printing.PrintOptions) (string, error)
	// QueryDeviceOptions lists the configurable options of a device
	QueryDeviceOptions(ctx context.Context, device string) []printing.DeviceOption
}

// CUPSConfig contains configuration for the CUPS command-line adapter
type CUPSConfig struct {
	LpPath        string
	LpstatPath    string
	LpinfoPath    string
	LpoptionsPath string
	// Runner overrides command execution; nil uses an ExecRunner
	Runner Runner
	// Timeout for the default ExecRunner (default 5s)
	Timeout time.Duration
	// Server, when set, is exported to the commands as CUPS_SERVER
	Server string
	Logger *zap.Logger
}

// CUPSAdapter drives CUPS through lp, lpstat, lpinfo and lpoptions
type CUPSAdapter struct {
	config *CUPSConfig
	runner Runner
	logger *zap.Logger
}

// NewCUPSAdapter creates a new CUPS adapter
func NewCUPSAdapter(config *CUPSConfig) *CUPSAdapter {
	if config == nil {
		config = &CUPSConfig{}
	}

	if config.LpPath == "" {
		config.LpPath = defaultLpPath
	}
	if config.LpstatPath == "" {
		config.LpstatPath = defaultLpstatPath
	}
	if config.LpinfoPath == "" {
		config.LpinfoPath = defaultLpinfoPath
	}
	if config.LpoptionsPath == "" {
		config.LpoptionsPath = defaultLpoptionsPath
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	runner := config.Runner
	if runner == nil {
		var env []string
		if config.Server != "" {
			env = append(env, "CUPS_SERVER="+config.Server)
		}
		runner = NewExecRunner(&ExecRunnerConfig{
			Timeout: config.Timeout,
			Env:     env,
			Logger:  logger,
		})
	}

	return &CUPSAdapter{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// QueryDevices runs `lpstat -p -d`. If that reports no printers it falls back
// to `lpinfo -v`; the first non-empty result wins. If neither command can be
// run the placeholder device is returned.
func (a *CUPSAdapter) QueryDevices(ctx context.Context) []printing.Device {
	out, err := a.runner.Run(ctx, a.config.LpstatPath, "-p", "-d")
	// lpstat may exit non-zero for a single bad queue and still list the rest.
	if hasOutput(out) {
		if devices := parseLpstat(out.Stdout); len(devices) > 0 {
			return devices
		}
	}
	primaryFailed := err != nil
	if primaryFailed {
		a.logger.Warn("failed to list printers", zap.Error(err))
	}

	info, err := a.runner.Run(ctx, a.config.LpinfoPath, "-v")
	if err != nil {
		// lpinfo is optional; a host without it only loses the fallback
		if IsBinaryNotFound(err) {
			a.logger.Debug("lpinfo not installed, no device fallback")
		} else {
			a.logger.Warn("lpinfo fallback failed", zap.Error(err))
		}
		if primaryFailed {
			return []printing.Device{printing.PlaceholderDevice()}
		}
		return []printing.Device{}
	}

	devices := parseLpinfo(info.Stdout)
	if devices == nil {
		devices = []printing.Device{}
	}
	return devices
}

// QueryDaemonLive runs `lpstat -r`; the daemon is live iff it exits 0
func (a *CUPSAdapter) QueryDaemonLive(ctx context.Context) bool {
	_, err := a.runner.Run(ctx, a.config.LpstatPath, "-r")
	if err != nil {
		a.logger.Debug("spooler daemon not reachable", zap.Error(err))
		return false
	}
	return true
}

// Submit runs lp. The job id is parsed from "request id is <id>"; a
// successful run without one yields UnknownJobID. Any execution failure is a
// SUBMIT_FAILED domain error carrying lp's diagnostic text.
func (a *CUPSAdapter) Submit(ctx context.Context, path, device string, opts printing.PrintOptions) (string, error) {
	args := BuildSubmitArgs(path, device, opts)

	out, err := a.runner.Run(ctx, a.config.LpPath, args...)
	if err != nil {
		detail := err.Error()
		var ce *CommandError
		if errors.As(err, &ce) {
			detail = ce.Detail()
		}
		a.logger.Error("lp failed",
			zap.String("printer", device),
			zap.String("detail", detail),
			zap.Error(err))
		return "", printing.NewSubmitFailedError(detail, err)
	}

	jobID := parseJobID(out.Stdout)
	a.logger.Info("print job submitted",
		zap.String("printer", device),
		zap.String("job_id", jobID),
		zap.Int("copies", opts.Copies))
	return jobID, nil
}

// QueryDeviceOptions runs `lpoptions -p <device> -l`. Failures yield no options.
func (a *CUPSAdapter) QueryDeviceOptions(ctx context.Context, device string) []printing.DeviceOption {
	out, err := a.runner.Run(ctx, a.config.LpoptionsPath, "-p", device, "-l")
	if err != nil {
		a.logger.Warn("failed to get printer options", zap.String("printer", device), zap.Error(err))
		return []printing.DeviceOption{}
	}
	options := parseLpoptions(out.Stdout)
	if options == nil {
		options = []printing.DeviceOption{}
	}
	return options
}

// Requirements lists the binaries this adapter invokes
func (a *CUPSAdapter) Requirements() []Requirement {
	return []Requirement{
		{Name: "lp", Command: a.config.LpPath, Description: "Submits print jobs"},
		{Name: "lpstat", Command: a.config.LpstatPath, Description: "Reports scheduler and printer state"},
		{Name: "lpinfo", Command: a.config.LpinfoPath, Description: "Discovers devices when no queues exist", Optional: true},
		{Name: "lpoptions", Command: a.config.LpoptionsPath, Description: "Lists printer options", Optional: true},
	}
}

func hasOutput(out *Output) bool {
	return out != nil && out.Stdout != ""
}

// Ensure CUPSAdapter implements Adapter
var _ Adapter = (*CUPSAdapter)(nil)
