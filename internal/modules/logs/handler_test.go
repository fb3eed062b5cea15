package logs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestHandler(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	svc := NewService(dir, nil, nil)
	h := NewHandler(svc, 30)

	r := gin.New()
	allow := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(r.Group("/api/v1"), allow)
	return r, dir
}

func TestHandlerListAndTail(t *testing.T) {
	r, dir := newTestHandler(t)
	if err := os.WriteFile(filepath.Join(dir, "site_1-1-24.log"), []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listBody struct {
		Success bool       `json:"success"`
		Data    []FileInfo `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listBody); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listBody.Data) != 1 || listBody.Data[0].Name != "site_1-1-24.log" {
		t.Errorf("list = %+v", listBody.Data)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs/site_1-1-24.log?lines=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("tail status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"c"`) || strings.Contains(w.Body.String(), `"a"`) {
		t.Errorf("tail body = %s", w.Body.String())
	}
}

func TestHandlerDelete(t *testing.T) {
	r, dir := newTestHandler(t)
	path := filepath.Join(dir, "gone.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/logs/gone.log", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file survived delete")
	}
}

func TestHandlerCleanup(t *testing.T) {
	r, dir := newTestHandler(t)
	old := filepath.Join(dir, "old.log")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stale := time.Now().Add(-60 * 24 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs/cleanup", strings.NewReader(`{"days":30}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cleanup status = %d: %s", w.Code, w.Body.String())
	}

	var report CleanupReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Deleted != 1 {
		t.Errorf("report = %+v, want 1 deleted", report)
	}
}

func TestHandlerRejectsTraversalName(t *testing.T) {
	r, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs/..%2Fescape.log", nil))
	if w.Code != http.StatusBadRequest && w.Code != http.StatusNotFound {
		t.Errorf("traversal status = %d, want rejection", w.Code)
	}
}
