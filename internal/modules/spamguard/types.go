package spamguard

import "context"

// ContextKeyResult is the gin context key the screening result is attached
// under for downstream handlers.
const ContextKeyResult = "spamguard_result"

// ContextKeyFields is the gin context key the parsed submission fields are
// attached under. Downstream handlers read these instead of re-parsing the
// body, which keeps JSON and form submissions on one path.
const ContextKeyFields = "spamguard_fields"

// Error codes carried in the JSON error envelope. All map to HTTP 400 and
// are terminal for the request.
const (
	CodeConfigResolution = "config_resolution_failed"
	CodeHoneypotField    = "honeypot_triggered"
	CodeHoneypotTiming   = "honeypot_timing"
	CodeHoneypotJS       = "honeypot_js_check"
	CodeProviderError    = "provider_error"
)

// ProviderHoneypot is the default in-process strategy.
const ProviderHoneypot = "honeypot"

// Result is the outcome of screening one submission. Immutable once
// produced.
type Result struct {
	OK        bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	ErrorCode string                 `json:"error_code,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// Pass builds a success result.
func Pass(meta map[string]interface{}) *Result {
	return &Result{OK: true, Meta: meta}
}

// Reject builds a failure result.
func Reject(code, message string, meta map[string]interface{}) *Result {
	return &Result{Error: message, ErrorCode: code, Meta: meta}
}

// SpamProtection is the per-form screening configuration.
type SpamProtection struct {
	Enabled  *bool  `yaml:"enabled"`
	Provider string `yaml:"provider"`
	Secret   string `yaml:"secret"`
}

// IsEnabled defaults to true when the flag is omitted.
func (p SpamProtection) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// FormConfig describes one registered form.
type FormConfig struct {
	Name           string         `yaml:"-"`
	Referers       []string       `yaml:"referers"`
	SpamProtection SpamProtection `yaml:"spam_protection"`
}

// Provider verifies a submission through an external CAPTCHA-style service.
// The returned result is trusted as-is.
type Provider interface {
	Verify(ctx context.Context, form *FormConfig, fields map[string]interface{}, remoteIP string) (*Result, error)
}
