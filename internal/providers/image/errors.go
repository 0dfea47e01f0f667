package image

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredentials indicates the provider settings cannot authenticate a call.
	ErrMissingCredentials = errors.New("image: provider credentials are missing")
	// ErrMalformedResponse indicates a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("image: malformed provider response")
	// ErrNoImage indicates a well-formed response that carried no image.
	ErrNoImage = errors.New("image: provider returned no image")
)

// StatusError reports a non-success HTTP status from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// TransportError reports a network failure or timeout before a response arrived.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: http request: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request was cut off by a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// IsRetryable classifies err as transient. Credential and decoding failures
// are permanent until an operator intervenes.
func IsRetryable(err error) bool {
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500
	}
	return false
}
