package spamguard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPProvider delegates verification to a CAPTCHA-style endpoint speaking
// the common siteverify shape: POST form {secret, response, remoteip},
// JSON reply {success, error-codes}.
type HTTPProvider struct {
	name     string
	endpoint string
	client   *http.Client
}

// NewHTTPProvider builds a provider for the given verification endpoint.
func NewHTTPProvider(name, endpoint string) *HTTPProvider {
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the submission's captcha token to the provider and maps the
// reply onto a Result. The provider's verdict is trusted as-is.
func (p *HTTPProvider) Verify(ctx context.Context, form *FormConfig, fields map[string]interface{}, remoteIP string) (*Result, error) {
	token := strings.TrimSpace(stringValue(fields["captcha_response"]))

	payload := url.Values{}
	payload.Set("secret", form.SpamProtection.Secret)
	payload.Set("response", token)
	if remoteIP != "" {
		payload.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", p.name, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s verification request: %w", p.name, err)
	}
	defer resp.Body.Close()

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s verification response: %w", p.name, err)
	}

	meta := map[string]interface{}{"provider": p.name}
	if body.Success {
		return Pass(meta), nil
	}
	if len(body.ErrorCodes) > 0 {
		meta["provider_errors"] = body.ErrorCodes
	}
	return Reject(CodeProviderError, "submission rejected by "+p.name, meta), nil
}
