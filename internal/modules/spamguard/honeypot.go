package spamguard

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// minFillDuration is the minimum believable time between form render
	// and submit. Faster submissions are treated as bot traffic.
	minFillDuration = 2000 * time.Millisecond

	fieldFormLoadedAt = "form_loaded_at"
	fieldJSCheck      = "js_check"
	jsCheckSentinel   = "no-js"

	triggerSampleLen = 50
)

// honeypotFields are decoy input names. A correct form never renders them
// as visible inputs, so any filled value marks the submission.
var honeypotFields = []string{
	"business_name_info",
	"company_website_url",
	"contact_email_confirm",
	"phone_number_alt",
	"address_line_4",
	"fax_number",
	"your_nickname",
	"message_subject_copy",
}

// EvaluateHoneypot runs the in-process checks against submitted fields, in
// order: decoy fill, timing, script sentinel. The first failure wins.
func EvaluateHoneypot(fields map[string]interface{}, now time.Time) *Result {
	if r := checkDecoyFields(fields); r != nil {
		return r
	}
	if r := checkTiming(fields, now); r != nil {
		return r
	}
	if r := checkJS(fields); r != nil {
		return r
	}
	return Pass(map[string]interface{}{"provider": ProviderHoneypot})
}

func checkDecoyFields(fields map[string]interface{}) *Result {
	for _, name := range honeypotFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		value := strings.TrimSpace(stringValue(raw))
		if value == "" {
			continue
		}
		sample := value
		if runes := []rune(sample); len(runes) > triggerSampleLen {
			sample = string(runes[:triggerSampleLen])
		}
		return Reject(CodeHoneypotField, "submission rejected", map[string]interface{}{
			"provider": ProviderHoneypot,
			"field":    name,
			"value":    sample,
		})
	}
	return nil
}

func checkTiming(fields map[string]interface{}, now time.Time) *Result {
	raw, ok := fields[fieldFormLoadedAt]
	if !ok {
		return nil
	}
	loadedMillis, err := int64Value(raw)
	if err != nil {
		return nil
	}

	elapsed := now.Sub(time.UnixMilli(loadedMillis))
	if elapsed < minFillDuration {
		return Reject(CodeHoneypotTiming, "submission rejected", map[string]interface{}{
			"provider":     ProviderHoneypot,
			"elapsed_ms":   elapsed.Milliseconds(),
			"threshold_ms": minFillDuration.Milliseconds(),
		})
	}
	return nil
}

func checkJS(fields map[string]interface{}) *Result {
	raw, ok := fields[fieldJSCheck]
	if !ok {
		return nil
	}
	if strings.TrimSpace(stringValue(raw)) == jsCheckSentinel {
		return Reject(CodeHoneypotJS, "submission rejected", map[string]interface{}{
			"provider": ProviderHoneypot,
			"field":    fieldJSCheck,
		})
	}
	return nil
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []string:
		if len(s) == 0 {
			return ""
		}
		return s[0]
	default:
		return fmt.Sprintf("%v", s)
	}
}

func int64Value(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	case []string:
		if len(n) == 0 {
			return 0, fmt.Errorf("empty value")
		}
		return strconv.ParseInt(strings.TrimSpace(n[0]), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
