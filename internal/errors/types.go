package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// MissingCredentialError reports that a provider cannot be constructed because
// its API key is absent. It is fatal for that provider for the whole run.
type MissingCredentialError struct {
	Provider string
	EnvVar   string
}

func (e *MissingCredentialError) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("provider %s: credential not configured (%s)", e.Provider, e.EnvVar)
	}
	return fmt.Sprintf("provider %s: credential not configured", e.Provider)
}

// UnsupportedProviderError reports a provider name outside the closed set.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.Name)
}

// ProviderError reports a failed provider invocation: transport failure,
// non-2xx status, or a malformed response body. It is transient by nature and
// triggers the mock fallback rather than propagating to callers.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode > 0:
		return fmt.Sprintf("provider %s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("provider %s: status %d", e.Provider, e.StatusCode)
	default:
		return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a provider invocation failure.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// NewProviderStatusError builds a provider failure from an HTTP status and the
// upstream error body.
func NewProviderStatusError(provider string, statusCode int, body string) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: statusCode, Message: strings.TrimSpace(body)}
}

// IsMissingCredential reports whether err is a credential construction failure.
func IsMissingCredential(err error) bool {
	var target *MissingCredentialError
	return errors.As(err, &target)
}

// IsUnsupportedProvider reports whether err names a provider outside the closed set.
func IsUnsupportedProvider(err error) bool {
	var target *UnsupportedProviderError
	return errors.As(err, &target)
}

// IsProviderError reports whether err is a provider invocation failure.
func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}

// IsRetryableStatus reports whether an HTTP status is worth retrying.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsTimeout reports whether err is a network timeout or deadline expiry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded")
}
