package spooler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spoolgate/backend/internal/domain/printing"
)

type fakeResponse struct {
	out *Output
	err error
}

// fakeRunner answers by "name args..." key and records every call.
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]fakeResponse)}
}

func (f *fakeRunner) on(cmdline string, stdout string, err error) {
	f.responses[cmdline] = fakeResponse{out: &Output{Stdout: stdout}, err: err}
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (*Output, error) {
	key := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)

	if r, ok := f.responses[key]; ok {
		return r.out, r.err
	}
	if r, ok := f.responses[name]; ok {
		return r.out, r.err
	}
	return nil, NewCommandError(ErrCodeBinaryNotFound, name, "binary not found", errors.New("not stubbed"))
}

func (f *fakeRunner) called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func newTestAdapter(r Runner) *CUPSAdapter {
	return NewCUPSAdapter(&CUPSConfig{Runner: r})
}

func TestCUPSAdapter_QueryDevices(t *testing.T) {
	ctx := context.Background()

	t.Run("lpstat result wins", func(t *testing.T) {
		r := newFakeRunner()
		r.on("lpstat -p -d", "printer HP1 is idle.  enabled since now\n", nil)
		r.on("lpinfo -v", "network ipp\n", nil)

		devices := newTestAdapter(r).QueryDevices(ctx)
		require.Len(t, devices, 1)
		assert.Equal(t, "HP1", devices[0].Name)
		assert.False(t, r.called("lpinfo"), "fallback must not run when lpstat lists printers")
	})

	t.Run("falls back to lpinfo when lpstat lists nothing", func(t *testing.T) {
		r := newFakeRunner()
		r.on("lpstat -p -d", "", nil)
		r.on("lpinfo -v", "network ipp\ndirect usb://HP\n", nil)

		devices := newTestAdapter(r).QueryDevices(ctx)
		require.Len(t, devices, 2)
		assert.Equal(t, "network", devices[0].Name)
		assert.Equal(t, "ipp", devices[0].Description)
		assert.Equal(t, printing.DeviceStateUnknown, devices[1].State)
	})

	t.Run("empty when daemon lists nothing anywhere", func(t *testing.T) {
		r := newFakeRunner()
		r.on("lpstat -p -d", "", nil)
		r.on("lpinfo -v", "", nil)

		devices := newTestAdapter(r).QueryDevices(ctx)
		assert.NotNil(t, devices)
		assert.Empty(t, devices)
	})

	t.Run("lpinfo failure after empty lpstat is empty, not placeholder", func(t *testing.T) {
		r := newFakeRunner()
		r.on("lpstat -p -d", "", nil)

		devices := newTestAdapter(r).QueryDevices(ctx)
		assert.Empty(t, devices)
	})

	t.Run("placeholder when nothing can run", func(t *testing.T) {
		devices := newTestAdapter(newFakeRunner()).QueryDevices(ctx)
		require.Len(t, devices, 1)
		assert.Equal(t, printing.PlaceholderDevice(), devices[0])
	})

	t.Run("lpstat failing with partial output still lists", func(t *testing.T) {
		r := newFakeRunner()
		r.on("lpstat -p -d", "printer HP1 is idle.\n", NewCommandError(ErrCodeCommandFailed, "lpstat", "exited with status 1", nil))

		devices := newTestAdapter(r).QueryDevices(ctx)
		require.Len(t, devices, 1)
		assert.Equal(t, "HP1", devices[0].Name)
	})
}

func TestCUPSAdapter_QueryDevices_LpinfoFailureLogging(t *testing.T) {
	ctx := context.Background()

	t.Run("missing lpinfo is quiet", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		r := newFakeRunner()
		r.on("lpstat -p -d", "", nil)

		NewCUPSAdapter(&CUPSConfig{Runner: r, Logger: zap.New(core)}).QueryDevices(ctx)
		assert.Zero(t, logs.Len())
	})

	t.Run("failing lpinfo warns", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		r := newFakeRunner()
		r.on("lpstat -p -d", "", nil)
		r.on("lpinfo -v", "", NewCommandError(ErrCodeCommandFailed, "lpinfo", "exited with status 1", nil))

		devices := NewCUPSAdapter(&CUPSConfig{Runner: r, Logger: zap.New(core)}).QueryDevices(ctx)
		assert.Empty(t, devices)
		assert.Equal(t, 1, logs.FilterMessage("lpinfo fallback failed").Len())
	})
}

func TestCUPSAdapter_QueryDaemonLive(t *testing.T) {
	ctx := context.Background()

	r := newFakeRunner()
	r.on("lpstat -r", "scheduler is running\n", nil)
	assert.True(t, newTestAdapter(r).QueryDaemonLive(ctx))

	r = newFakeRunner()
	r.on("lpstat -r", "", NewCommandError(ErrCodeCommandFailed, "lpstat", "exited with status 1", nil))
	assert.False(t, newTestAdapter(r).QueryDaemonLive(ctx))

	assert.False(t, newTestAdapter(newFakeRunner()).QueryDaemonLive(ctx))
}

func TestCUPSAdapter_Submit(t *testing.T) {
	ctx := context.Background()
	opts := printing.PrintOptions{
		Copies: 2, ColorMode: printing.ColorModeMonochrome,
		PaperSize: printing.PaperSizeA4, Orientation: printing.OrientationPortrait,
	}

	t.Run("parses request id", func(t *testing.T) {
		r := newFakeRunner()
		r.on("lp", "request id is HP1-17 (1 file(s))\n", nil)

		jobID, err := newTestAdapter(r).Submit(ctx, "/spool/a.pdf", "HP1", opts)
		require.NoError(t, err)
		assert.Equal(t, "HP1-17", jobID)
		assert.True(t, r.called("lp -d HP1 -n 2 -o ColorMode=Monochrome -o media=A4 -o print-quality=normal /spool/a.pdf"))
	})

	t.Run("missing request id is tentative success", func(t *testing.T) {
		r := newFakeRunner()
		r.on("lp", "", nil)

		jobID, err := newTestAdapter(r).Submit(ctx, "/spool/a.pdf", "HP1", opts)
		require.NoError(t, err)
		assert.Equal(t, printing.UnknownJobID, jobID)
	})

	t.Run("failure carries stderr", func(t *testing.T) {
		cmdErr := NewCommandError(ErrCodeCommandFailed, "lp", "exited with status 1", errors.New("exit status 1"))
		cmdErr.Stderr = "lp: The printer or class does not exist."
		r := newFakeRunner()
		r.responses["lp"] = fakeResponse{out: &Output{}, err: cmdErr}

		_, err := newTestAdapter(r).Submit(ctx, "/spool/a.pdf", "nope", opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, printing.ErrSubmitFailed)
		assert.Contains(t, err.Error(), "The printer or class does not exist")
	})

	t.Run("timeout is a submit failure", func(t *testing.T) {
		r := newFakeRunner()
		r.responses["lp"] = fakeResponse{err: NewCommandError(ErrCodeCommandTimeout, "lp", "timed out after 5s", context.DeadlineExceeded)}

		_, err := newTestAdapter(r).Submit(ctx, "/spool/a.pdf", "HP1", opts)
		assert.ErrorIs(t, err, printing.ErrSubmitFailed)
		assert.True(t, IsTimeout(err))
	})
}

func TestCUPSAdapter_QueryDeviceOptions(t *testing.T) {
	ctx := context.Background()

	r := newFakeRunner()
	r.on("lpoptions -p HP1 -l", "PageSize/Media Size: Letter *A4\n", nil)
	options := newTestAdapter(r).QueryDeviceOptions(ctx, "HP1")
	require.Len(t, options, 1)
	assert.Equal(t, "A4", options[0].Default)

	options = newTestAdapter(newFakeRunner()).QueryDeviceOptions(ctx, "HP1")
	assert.NotNil(t, options)
	assert.Empty(t, options)
}

func TestCUPSAdapter_Requirements(t *testing.T) {
	a := NewCUPSAdapter(&CUPSConfig{LpPath: "/opt/cups/bin/lp"})
	reqs := a.Requirements()
	require.Len(t, reqs, 4)
	assert.Equal(t, "/opt/cups/bin/lp", reqs[0].Command)
	assert.Equal(t, "lpstat", reqs[1].Command)
	assert.False(t, reqs[1].Optional)
	assert.True(t, reqs[2].Optional)
}
