package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 60 * time.Second

const maxErrorBody = 512

// NewHTTPClient returns a client with the per-call timeout applied.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// PostJSON sends payload as JSON with a bearer token and decodes a 2xx body
// into out. Failures come back as *TransportError, *StatusError or
// ErrMalformedResponse.
func PostJSON(ctx context.Context, client *http.Client, provider, endpoint, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Provider: provider, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		if len(detail) > maxErrorBody {
			detail = detail[:maxErrorBody]
		}
		return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: detail}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %v", provider, ErrMalformedResponse, err)
	}
	return nil
}
