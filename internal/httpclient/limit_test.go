package httpclient

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadBodyWithinLimit(t *testing.T) {
	t.Parallel()

	payload := []byte("hello")
	got, err := ReadBody(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestReadBodyOversized(t *testing.T) {
	t.Parallel()

	_, err := ReadBody(strings.NewReader("hello world"), 5)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if !strings.Contains(err.Error(), "5 bytes") {
		t.Fatalf("error should name the cap, got %q", err.Error())
	}
}

func TestReadBodyUnbounded(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("x"), 4096)
	got, err := ReadBody(bytes.NewReader(payload), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("got %d bytes, want %d", len(got), len(payload))
	}
}
