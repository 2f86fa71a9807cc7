package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestProviderErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewProviderError("openai", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if !IsProviderError(fmt.Errorf("call failed: %w", err)) {
		t.Fatal("expected IsProviderError through wrapping")
	}
}

func TestProviderStatusErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewProviderStatusError("qianwen", http.StatusTooManyRequests, "quota exceeded\n")
	want := "provider qianwen: status 429: quota exceeded"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestClassificationHelpers(t *testing.T) {
	t.Parallel()

	missing := &MissingCredentialError{Provider: "claude", EnvVar: "CLAUDE_API_KEY"}
	unsupported := &UnsupportedProviderError{Name: "gemini"}

	if !IsMissingCredential(missing) || IsMissingCredential(unsupported) {
		t.Fatal("IsMissingCredential misclassified")
	}
	if !IsUnsupportedProvider(unsupported) || IsUnsupportedProvider(missing) {
		t.Fatal("IsUnsupportedProvider misclassified")
	}
	if IsProviderError(missing) {
		t.Fatal("construction failures are not provider invocation failures")
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{429, 500, 502, 503, 504} {
		if !IsRetryableStatus(code) {
			t.Fatalf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404} {
		if IsRetryableStatus(code) {
			t.Fatalf("status %d should not be retryable", code)
		}
	}
}

func TestIsTimeout(t *testing.T) {
	t.Parallel()

	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatal("context.DeadlineExceeded is a timeout")
	}
	if IsTimeout(errors.New("bad request")) {
		t.Fatal("plain errors are not timeouts")
	}
}
