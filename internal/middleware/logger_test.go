package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter() (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	handle := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/v1/ping", handle)
	r.GET("/api/v1/logs/stream", handle)
	return r, logs
}

func TestLoggerRecordsRequests(t *testing.T) {
	r, logs := newLoggedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping?q=1", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/v1/ping?q=1" {
		t.Errorf("path = %v, want query included", fields["path"])
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Errorf("status = %v", fields["status"])
	}
}

func TestLoggerSkipsLogStream(t *testing.T) {
	r, logs := newLoggedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs/stream", nil))

	if n := logs.Len(); n != 0 {
		t.Errorf("stream request logged %d entries, want 0", n)
	}
}
