package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/spoolgate/backend/internal/domain/printing"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"spooler offline", domain.ErrSpoolerOffline, http.StatusServiceUnavailable, dto.ErrCodeSpoolerOffline, domain.ErrSpoolerOffline.Message},
		{"path escape is hidden", domain.ErrPathEscape, http.StatusNotFound, dto.ErrCodeNotFound, dto.MessageFileUnavailable},
		{"wrapped not found", fmt.Errorf("lookup: %w", domain.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound, domain.ErrNotFound.Message},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge, domain.ErrFileTooLarge.Message},
		{"unsupported", domain.ErrUnsupportedType, http.StatusBadRequest, dto.ErrCodeUnsupportedType, domain.ErrUnsupportedType.Message},
		{"validation", domain.NewValidationError("copies must be at least 1"), http.StatusBadRequest, dto.ErrCodeValidation, "copies must be at least 1"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(logger.GinRequestIDKey, "req-7")

			var h BaseHandler
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Equal(t, "req-7", resp.Error.RequestID)
		})
	}
}

func TestHandleErrorRecordsCause(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	cause := errors.New("lp: exit status 1")
	var h BaseHandler
	h.HandleError(c, domain.NewSubmitFailedError("printer rejected the job", cause))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeSubmitFailed, decodeResponse(t, w).Error.Code)
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, cause)
}

type staticSnapshot struct {
	snapshot *domain.StatusSnapshot
}

func (s staticSnapshot) Snapshot() *domain.StatusSnapshot { return s.snapshot }

func TestSystemHandler(t *testing.T) {
	serve := func(h *SystemHandler, path string) *httptest.ResponseRecorder {
		engine := gin.New()
		RegisterSystemRoutes(engine, h)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("before first refresh", func(t *testing.T) {
		h := NewSystemHandler(staticSnapshot{domain.OfflineSnapshot()}, "spoolgate", "1.2.3")

		w := serve(h, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Data.Status)
		assert.Equal(t, "1.2.3", resp.Data.Version)
		assert.Equal(t, domain.DaemonStateUnknown.String(), resp.Data.Spooler)

		assert.Equal(t, http.StatusOK, serve(h, "/health/live").Code)

		w = serve(h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeSpoolerOffline, decodeResponse(t, w).Error.Code)
	})

	t.Run("daemon down is still healthy", func(t *testing.T) {
		h := NewSystemHandler(staticSnapshot{domain.NewStatusSnapshot(false, nil, time.Now())}, "spoolgate", "1.2.3")

		w := serve(h, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.DaemonStateDown.String(), resp.Data.Spooler)

		assert.Equal(t, http.StatusOK, serve(h, "/health/ready").Code)
	})
}
