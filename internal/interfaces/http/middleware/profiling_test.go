package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func profiledEngine(cfg ProfilingConfig, seen map[string]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Profiling(cfg))
	record := func(c *gin.Context) {
		for _, key := range []string{"route", "method"} {
			if v, ok := pprof.Label(c.Request.Context(), key); ok {
				seen[key] = v
			}
		}
		c.Status(http.StatusOK)
	}
	r.GET("/api/v1/print/printers/:name/options", record)
	r.GET("/health/live", record)
	r.GET("/swagger/*any", record)
	return r
}

func TestProfiling_LabelsRoutePattern(t *testing.T) {
	seen := map[string]string{}
	r := profiledEngine(DefaultProfilingConfig(), seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/print/printers/office/options", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/print/printers/:name/options", seen["route"])
	assert.Equal(t, http.MethodGet, seen["method"])
}

func TestProfiling_SkipsConfiguredPaths(t *testing.T) {
	for _, path := range []string{"/health/live", "/swagger/index.html"} {
		t.Run(path, func(t *testing.T) {
			seen := map[string]string{}
			r := profiledEngine(DefaultProfilingConfig(), seen)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, seen)
		})
	}
}

func TestProfiling_Disabled(t *testing.T) {
	seen := map[string]string{}
	r := profiledEngine(ProfilingConfig{}, seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/print/printers/office/options", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, seen)
}
