package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	printingapp "github.com/spoolgate/backend/internal/application/printing"
	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/auth"
	"github.com/spoolgate/backend/internal/infrastructure/config"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
	"github.com/spoolgate/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSpooler stands in for the CUPS adapter
type fakeSpooler struct {
	mu        sync.Mutex
	live      bool
	devices   []domain.Device
	options   []domain.DeviceOption
	submitted []submission
}

type submission struct {
	path   string
	device string
	opts   domain.PrintOptions
}

func (f *fakeSpooler) QueryDevices(context.Context) []domain.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices
}

func (f *fakeSpooler) QueryDaemonLive(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

func (f *fakeSpooler) Submit(_ context.Context, path, device string, opts domain.PrintOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, submission{path: path, device: device, opts: opts})
	return "HP1-17", nil
}

func (f *fakeSpooler) QueryDeviceOptions(context.Context, string) []domain.DeviceOption {
	return f.options
}

func (f *fakeSpooler) submissions() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submission(nil), f.submitted...)
}

type testEnv struct {
	server  *Server
	spooler *fakeSpooler
	monitor *printingapp.StatusMonitor
	root    string
}

func newTestEnv(t *testing.T, spooler *fakeSpooler) *testEnv {
	t.Helper()
	return newTestEnvWith(t, spooler, nil)
}

func newTestEnvWith(t *testing.T, spooler *fakeSpooler, configure func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Root = t.TempDir()
	cfg.HTTP.RateLimitEnabled = false
	if configure != nil {
		configure(cfg)
	}

	store, err := storage.NewFileSystemStorage(&storage.FileSystemStorageConfig{
		Root:        cfg.Storage.Root,
		MaxFileSize: cfg.Storage.MaxFileSize,
	})
	require.NoError(t, err)

	monitor, err := printingapp.NewStatusMonitor(spooler, printingapp.StatusMonitorConfig{})
	require.NoError(t, err)

	adminHash, err := auth.HashPassword("admin-pass")
	require.NoError(t, err)
	operatorHash, err := auth.HashPassword("operator-pass")
	require.NoError(t, err)
	credentials, err := auth.NewCredentialStore([]auth.User{
		{Username: "admin", Password: adminHash, Role: auth.RoleAdmin},
		{Username: "desk", Password: operatorHash, Role: auth.RoleOperator},
	})
	require.NoError(t, err)
	identity := auth.NewIdentityProvider(auth.NewJWTService(cfg.Auth), credentials, nil, nil)

	documents := printingapp.NewDocumentService(store, nil, nil)
	srv, err := New(cfg, Services{
		Identity:  identity,
		Documents: documents,
		Queries:   printingapp.NewQueryService(monitor, spooler),
		Jobs:      printingapp.NewSubmissionService(store, spooler, monitor, printingapp.SubmissionServiceConfig{}),
		Sweeper:   documents,
		Status:    monitor,
	}, Options{})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, spooler: spooler, monitor: monitor, root: store.Root()}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.server.Engine().ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(dto.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := e.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data dto.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func authorized(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func uploadRequest(t *testing.T, name, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/print/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) upload(t *testing.T, token string) domain.DocumentHandle {
	t.Helper()
	w := e.do(t, authorized(uploadRequest(t, "a.pdf", "application/pdf", bytes.Repeat([]byte("%"), 10240)), token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data domain.DocumentHandle `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func jobRequest(t *testing.T, handle string) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"handle":  handle,
		"printer": "HP1",
		"options": map[string]any{
			"copies":      2,
			"color":       "monochrome",
			"paperSize":   "A4",
			"orientation": "portrait",
		},
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/print/jobs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func liveSpooler() *fakeSpooler {
	return &fakeSpooler{
		live: true,
		devices: []domain.Device{
			{Name: "HP1", RawStatus: "idle", State: domain.DeviceStateIdle},
			{Name: "Lab", RawStatus: "disabled", State: domain.DeviceStateOffline},
		},
	}
}

func TestUploadPreviewPrintFlow(t *testing.T) {
	env := newTestEnv(t, liveSpooler())
	env.monitor.Refresh(context.Background())
	token := env.login(t, "desk", "operator-pass")

	handle := env.upload(t, token)
	assert.Equal(t, int64(10240), handle.Size)
	assert.Equal(t, "application/pdf", handle.MediaType)
	assert.Equal(t, "a.pdf", handle.DisplayName)
	assert.NotContains(t, handle.ID, string(filepath.Separator))

	preview := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/print/preview?file="+handle.ID, nil)
		return env.do(t, authorized(req, token))
	}

	w := preview()
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, 10240, w.Body.Len())

	w = env.do(t, authorized(jobRequest(t, handle.ID), token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var job struct {
		Data domain.JobResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "HP1-17", job.Data.JobID)
	assert.Equal(t, "HP1", job.Data.Device)

	subs := env.spooler.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, 2, subs[0].opts.Copies)
	assert.True(t, subs[0].opts.IsMonochrome())
	assert.Equal(t, domain.PaperSizeA4, subs[0].opts.PaperSize)

	w = preview()
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode(t, w).Error.Code)
}

func TestSubmitWhileOffline(t *testing.T) {
	env := newTestEnv(t, &fakeSpooler{live: false})
	env.monitor.Refresh(context.Background())
	token := env.login(t, "desk", "operator-pass")
	handle := env.upload(t, token)

	w := env.do(t, authorized(jobRequest(t, handle.ID), token))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeSpoolerOffline, decode(t, w).Error.Code)

	assert.Empty(t, env.spooler.submissions())
	_, err := os.Stat(filepath.Join(env.root, handle.ID))
	assert.NoError(t, err, "refused submission must keep the file")
}

func TestStatusWithNoDevices(t *testing.T) {
	env := newTestEnv(t, &fakeSpooler{live: true})
	token := env.login(t, "desk", "operator-pass")

	status := func() dto.StatusResponse {
		w := env.do(t, authorized(httptest.NewRequest(http.MethodGet, "/api/v1/print/status", nil), token))
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data dto.StatusResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Data
	}

	before := status()
	assert.False(t, before.CUPSOnline)
	assert.Nil(t, before.CapturedAt)

	env.monitor.Refresh(context.Background())
	after := status()
	assert.True(t, after.CUPSOnline)
	assert.Equal(t, 0, after.TotalPrinters)
	assert.Equal(t, 0, after.OnlinePrinters)
	assert.NotNil(t, after.Printers)
	assert.NotNil(t, after.CapturedAt)
}

func TestPrintersAndOptions(t *testing.T) {
	spooler := liveSpooler()
	spooler.options = []domain.DeviceOption{{Key: "PageSize", Label: "Media Size", Values: []string{"A4", "Letter"}, Default: "A4"}}
	env := newTestEnv(t, spooler)
	env.monitor.Refresh(context.Background())
	token := env.login(t, "desk", "operator-pass")

	w := env.do(t, authorized(httptest.NewRequest(http.MethodGet, "/api/v1/print/printers", nil), token))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)

	w = env.do(t, authorized(httptest.NewRequest(http.MethodGet, "/api/v1/print/printers/HP1/options", nil), token))
	require.Equal(t, http.StatusOK, w.Code)
	var opts struct {
		Data dto.OptionsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, "HP1", opts.Data.Printer)
	require.Len(t, opts.Data.Options, 1)
	assert.Equal(t, "A4", opts.Data.Options[0].Default)
}

func TestUploadRejections(t *testing.T) {
	env := newTestEnv(t, liveSpooler())
	token := env.login(t, "desk", "operator-pass")

	w := env.do(t, authorized(uploadRequest(t, "notes.txt", "text/plain", []byte("hello")), token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeUnsupportedType, decode(t, w).Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/print/upload", bytes.NewReader(nil))
	w = env.do(t, authorized(req, token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)

	entries, err := os.ReadDir(env.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPreviewHidesPathEscape(t *testing.T) {
	env := newTestEnv(t, liveSpooler())
	token := env.login(t, "desk", "operator-pass")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/print/preview?file=../../etc/passwd", nil)
	w := env.do(t, authorized(req, token))
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, dto.MessageFileUnavailable, resp.Error.Message)
}

func TestDiscardIsIdempotent(t *testing.T) {
	env := newTestEnv(t, liveSpooler())
	token := env.login(t, "desk", "operator-pass")
	handle := env.upload(t, token)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/print/files/"+handle.ID, nil)
		w := env.do(t, authorized(req, token))
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	_, err := os.Stat(filepath.Join(env.root, handle.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestAuthBoundary(t *testing.T) {
	env := newTestEnv(t, liveSpooler())

	t.Run("unauthenticated", func(t *testing.T) {
		w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/print/status", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad password", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"username":"desk","password":"nope"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		w := env.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login sets cookie", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"username":"desk","password":"operator-pass"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		w := env.do(t, req)
		require.Equal(t, http.StatusOK, w.Code)

		var cookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == "auth-token" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		me := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		me.AddCookie(cookie)
		w = env.do(t, me)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data dto.IdentityResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "desk", resp.Data.Username)
		assert.False(t, resp.Data.IsAdmin)
	})

	t.Run("operator cannot sweep", func(t *testing.T) {
		token := env.login(t, "desk", "operator-pass")
		w := env.do(t, authorized(httptest.NewRequest(http.MethodPost, "/api/v1/admin/sweep", nil), token))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin sweeps", func(t *testing.T) {
		token := env.login(t, "admin", "admin-pass")
		w := env.do(t, authorized(httptest.NewRequest(http.MethodPost, "/api/v1/admin/sweep", nil), token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Data dto.SweepResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "1h0m0s", resp.Data.MaxAge)
	})

	t.Run("logout revokes token", func(t *testing.T) {
		token := env.login(t, "desk", "operator-pass")
		w := env.do(t, authorized(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), token))
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, authorized(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), token))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, liveSpooler())

	assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)

	env.monitor.Refresh(context.Background())
	assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t, liveSpooler())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCORSConfigFromHTTPConfig(t *testing.T) {
	cfg := config.Default().HTTP

	cors := corsConfig(cfg)
	assert.Equal(t, []string{"http://localhost:3000"}, cors.AllowOrigins)
	assert.Equal(t, cfg.CORSAllowMethods, cors.AllowMethods)
	assert.Contains(t, cors.ExposeHeaders, "Content-Disposition")
	assert.Contains(t, cors.ExposeHeaders, "X-Request-ID")
	assert.True(t, cors.AllowCredentials)

	cfg.CORSAllowMethods = nil
	assert.NotEmpty(t, corsConfig(cfg).AllowMethods, "defaults fill unset methods")
}

func TestCORSPreflightFromConfiguredOrigin(t *testing.T) {
	env := newTestEnv(t, liveSpooler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/print/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := env.do(t, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSwaggerDocs(t *testing.T) {
	t.Run("served when enabled", func(t *testing.T) {
		env := newTestEnv(t, liveSpooler())

		w := env.do(t, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var doc struct {
			Swagger  string                    `json:"swagger"`
			BasePath string                    `json:"basePath"`
			Paths    map[string]map[string]any `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), w.Body.String())
		assert.Equal(t, "2.0", doc.Swagger)
		assert.Equal(t, "/api/v1", doc.BasePath)
		assert.Contains(t, doc.Paths["/print/jobs"], "post")
		assert.Contains(t, doc.Paths["/print/files/{id}"], "delete")
		assert.Contains(t, doc.Paths["/admin/sweep"], "post")

		assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)).Code)
	})

	t.Run("absent when disabled", func(t *testing.T) {
		env := newTestEnvWith(t, liveSpooler(), func(cfg *config.Config) {
			cfg.HTTP.SwaggerEnabled = false
		})

		assert.Equal(t, http.StatusNotFound, env.do(t, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)).Code)
	})
}

func TestProfilingLabelsDoNotChangeResponses(t *testing.T) {
	env := newTestEnvWith(t, liveSpooler(), func(cfg *config.Config) {
		cfg.Telemetry.Profiling.Enabled = true
	})
	token := env.login(t, "desk", "operator-pass")

	w := env.do(t, authorized(httptest.NewRequest(http.MethodGet, "/api/v1/print/printers", nil), token))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
}
