package spamguard

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/etherbrian/etherbrian.github.io/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware screens POST submissions before they reach the form handler.
// Non-POST requests pass through unconditionally. Every failure is terminal
// for the request: a 400 JSON envelope, never retried.
func Middleware(reg *Registry, providers map[string]Provider, dev bool, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		fields, err := parseBodyFields(c)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "unreadable request body", CodeConfigResolution)
			return
		}

		form, err := reg.Resolve(stringValue(fields["config_path"]), c.GetHeader("Referer"))
		if err != nil {
			log.Warn("form config resolution failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("referer", c.GetHeader("Referer")),
				zap.Error(err),
			)
			response.Fail(c, http.StatusBadRequest, "form configuration could not be resolved", CodeConfigResolution)
			return
		}

		result := screen(c, form, providers, fields, log)

		if !result.OK {
			log.Info("submission rejected",
				zap.String("form", form.Name),
				zap.String("code", result.ErrorCode),
				zap.String("ip", c.ClientIP()),
			)
			if dev {
				response.FailDebug(c, http.StatusBadRequest, result.Error, result.ErrorCode, result.Meta)
			} else {
				response.Fail(c, http.StatusBadRequest, result.Error, result.ErrorCode)
			}
			return
		}

		c.Set(ContextKeyResult, result)
		c.Set(ContextKeyFields, fields)
		c.Next()
	}
}

// ResultFrom retrieves the screening result attached by the middleware.
func ResultFrom(c *gin.Context) (*Result, bool) {
	v, ok := c.Get(ContextKeyResult)
	if !ok {
		return nil, false
	}
	result, ok := v.(*Result)
	return result, ok
}

// FieldsFrom retrieves the parsed submission fields attached by the
// middleware.
func FieldsFrom(c *gin.Context) (map[string]interface{}, bool) {
	v, ok := c.Get(ContextKeyFields)
	if !ok {
		return nil, false
	}
	fields, ok := v.(map[string]interface{})
	return fields, ok
}

func screen(c *gin.Context, form *FormConfig, providers map[string]Provider, fields map[string]interface{}, log *zap.Logger) *Result {
	if !form.SpamProtection.IsEnabled() {
		return Pass(map[string]interface{}{"reason": "disabled"})
	}

	name := strings.TrimSpace(form.SpamProtection.Provider)
	if name == "" || name == ProviderHoneypot {
		return EvaluateHoneypot(fields, time.Now())
	}

	provider, ok := providers[name]
	if !ok {
		log.Warn("unknown spam provider", zap.String("form", form.Name), zap.String("provider", name))
		return Reject(CodeConfigResolution, "form configuration could not be resolved",
			map[string]interface{}{"provider": name})
	}

	result, err := provider.Verify(c.Request.Context(), form, fields, c.ClientIP())
	if err != nil {
		// Unreachable provider fails the submission closed.
		log.Warn("spam provider error", zap.String("provider", name), zap.Error(err))
		return Reject(CodeProviderError, "verification service unavailable",
			map[string]interface{}{"provider": name})
	}
	return result
}

// parseBodyFields extracts submitted fields from either a form-encoded or a
// JSON body, leaving the body re-readable for downstream handlers.
func parseBodyFields(c *gin.Context) (map[string]interface{}, error) {
	contentType := c.ContentType()

	if strings.Contains(contentType, "application/json") {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		fields := map[string]interface{}{}
		if len(bytes.TrimSpace(raw)) == 0 {
			return fields, nil
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		return fields, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	if strings.Contains(contentType, "multipart/form-data") {
		// 10 MiB in-memory cap, same default gin uses.
		if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
			return nil, err
		}
	}

	fields := map[string]interface{}{}
	for key, values := range c.Request.PostForm {
		if len(values) == 1 {
			fields[key] = values[0]
		} else {
			fields[key] = values
		}
	}
	if c.Request.MultipartForm != nil {
		for key, values := range c.Request.MultipartForm.Value {
			if len(values) == 1 {
				fields[key] = values[0]
			} else {
				fields[key] = values
			}
		}
	}
	return fields, nil
}
