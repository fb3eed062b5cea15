package spamguard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubProvider struct {
	result *Result
	err    error
}

func (s *stubProvider) Verify(ctx context.Context, form *FormConfig, fields map[string]interface{}, remoteIP string) (*Result, error) {
	return s.result, s.err
}

func newTestRouter(t *testing.T, providers map[string]Provider, dev bool) (*gin.Engine, *Result) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := loadTestRegistry(t)
	captured := &Result{}

	r := gin.New()
	r.Use(Middleware(reg, providers, dev, nil))
	handle := func(c *gin.Context) {
		if result, ok := ResultFrom(c); ok {
			*captured = *result
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
	r.POST("/submit", handle)
	r.GET("/submit", handle)
	return r, captured
}

func postForm(r *gin.Engine, form url.Values, referer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestMiddlewarePassesNonPOST(t *testing.T) {
	r, _ := newTestRouter(t, nil, false)

	req := httptest.NewRequest(http.MethodGet, "/submit", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200 passthrough", w.Code)
	}
}

func TestMiddlewareConfigResolutionFailure(t *testing.T) {
	r, _ := newTestRouter(t, nil, false)

	w := postForm(r, url.Values{"name": {"Alice"}}, "https://example.com/unknown")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	body := decodeEnvelope(t, w)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error_code"] != CodeConfigResolution {
		t.Errorf("error_code = %v, want %q", body["error_code"], CodeConfigResolution)
	}
	if body["timestamp"] == nil {
		t.Errorf("timestamp missing from envelope")
	}
}

func TestMiddlewareDisabledFormAlwaysPasses(t *testing.T) {
	r, captured := newTestRouter(t, nil, false)

	// The newsletter form disables screening; a filled decoy must still
	// pass.
	w := postForm(r, url.Values{
		"config_path":        {"newsletter"},
		"business_name_info": {"definitely a bot"},
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !captured.OK || captured.Meta["reason"] != "disabled" {
		t.Errorf("attached result = %+v, want pass with reason disabled", captured)
	}
}

func TestMiddlewareHoneypotRejection(t *testing.T) {
	r, _ := newTestRouter(t, nil, false)

	w := postForm(r, url.Values{
		"config_path":        {"contact"},
		"business_name_info": {"x"},
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	body := decodeEnvelope(t, w)
	if body["error_code"] != CodeHoneypotField {
		t.Errorf("error_code = %v, want %q", body["error_code"], CodeHoneypotField)
	}
	if _, ok := body["debug"]; ok {
		t.Errorf("debug payload must not leak outside development")
	}
}

func TestMiddlewareDevModeIncludesDebug(t *testing.T) {
	r, _ := newTestRouter(t, nil, true)

	w := postForm(r, url.Values{
		"config_path":        {"contact"},
		"business_name_info": {"x"},
	}, "")
	body := decodeEnvelope(t, w)
	debug, ok := body["debug"].(map[string]interface{})
	if !ok {
		t.Fatalf("debug payload missing in development mode: %v", body)
	}
	if debug["field"] != "business_name_info" {
		t.Errorf("debug field = %v", debug["field"])
	}
}

func TestMiddlewareHoneypotSuccessAttachesResult(t *testing.T) {
	r, captured := newTestRouter(t, nil, false)

	w := postForm(r, url.Values{
		"config_path": {"contact"},
		"name":        {"Alice"},
		"message":     {"hello"},
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !captured.OK || captured.Meta["provider"] != ProviderHoneypot {
		t.Errorf("attached result = %+v, want honeypot pass", captured)
	}
}

func TestMiddlewareDelegatesToNamedProvider(t *testing.T) {
	providers := map[string]Provider{
		"turnstile": &stubProvider{result: Pass(map[string]interface{}{"provider": "turnstile"})},
	}
	r, captured := newTestRouter(t, providers, false)

	w := postForm(r, url.Values{"config_path": {"guarded"}}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if captured.Meta["provider"] != "turnstile" {
		t.Errorf("provider result not attached verbatim: %+v", captured)
	}
}

func TestMiddlewareProviderRejectionTrustedAsIs(t *testing.T) {
	providers := map[string]Provider{
		"turnstile": &stubProvider{result: Reject(CodeProviderError, "nope", nil)},
	}
	r, _ := newTestRouter(t, providers, false)

	w := postForm(r, url.Values{"config_path": {"guarded"}}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error_code"] != CodeProviderError {
		t.Errorf("error_code = %v, want %q", body["error_code"], CodeProviderError)
	}
}

func TestMiddlewareProviderTransportErrorFailsClosed(t *testing.T) {
	providers := map[string]Provider{
		"turnstile": &stubProvider{err: errors.New("connection refused")},
	}
	r, _ := newTestRouter(t, providers, false)

	w := postForm(r, url.Values{"config_path": {"guarded"}}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["error_code"] != CodeProviderError {
		t.Errorf("error_code = %v, want %q", body["error_code"], CodeProviderError)
	}
}

func TestMiddlewareAttachesFieldsForJSONBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := loadTestRegistry(t)

	var seen map[string]interface{}
	r := gin.New()
	r.Use(Middleware(reg, nil, false, nil))
	r.POST("/submit", func(c *gin.Context) {
		fields, ok := FieldsFrom(c)
		if !ok {
			t.Errorf("parsed fields not attached to context")
		}
		seen = fields
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	payload := `{"config_path":"contact","name":"Alice","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if seen["name"] != "Alice" || seen["message"] != "hello" {
		t.Errorf("downstream fields = %v, want the screened JSON body", seen)
	}
}

func TestMiddlewareAttachesFieldsForFormBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := loadTestRegistry(t)

	var seen map[string]interface{}
	r := gin.New()
	r.Use(Middleware(reg, nil, false, nil))
	r.POST("/submit", func(c *gin.Context) {
		seen, _ = FieldsFrom(c)
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit",
		strings.NewReader(url.Values{"config_path": {"contact"}, "name": {"Bob"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if seen["name"] != "Bob" {
		t.Errorf("downstream fields = %v, want the screened form body", seen)
	}
}

func TestMiddlewareUnknownProviderFailsResolution(t *testing.T) {
	r, _ := newTestRouter(t, map[string]Provider{}, false)

	w := postForm(r, url.Values{"config_path": {"guarded"}}, "")
	body := decodeEnvelope(t, w)
	if body["error_code"] != CodeConfigResolution {
		t.Errorf("error_code = %v, want %q", body["error_code"], CodeConfigResolution)
	}
}
