package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lingo/internal/config"
	lingoerrors "lingo/internal/errors"
	"lingo/internal/httpclient"
	"lingo/internal/logging"
)

func asProviderError(err error, target **lingoerrors.ProviderError) bool {
	return errors.As(err, target)
}

func newOpenAITestClient(t *testing.T, handler http.Handler) Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAI(config.ProviderCredentials{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, 5*time.Second, logging.Nop())
	if err != nil {
		t.Fatalf("construct client: %v", err)
	}
	return p
}

func TestOpenAITranslateSuccess(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.URL.Path; got != "/chat/completions" {
			t.Fatalf("unexpected path: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("expected Authorization header, got %q", got)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Fatalf("unexpected model: %v", payload["model"])
		}
		if payload["stream"] != false {
			t.Fatalf("blocking call must not request streaming")
		}
		messages := payload["messages"].([]any)
		content := messages[0].(map[string]any)["content"].(string)
		if !strings.Contains(content, "你好") || !strings.Contains(content, "英文") {
			t.Fatalf("prompt should name text and target language, got %q", content)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"  Hello  "}}]}`)
	}))

	got, err := p.Translate(context.Background(), "你好", "中文", "英文")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("got %q, want trimmed %q", got, "Hello")
	}
}

func TestOpenAISummarizePrompt(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		content := payload["messages"].([]any)[0].(map[string]any)["content"].(string)
		if !strings.Contains(content, "总结") {
			t.Fatalf("summarize prompt missing instruction, got %q", content)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"summary"}}]}`)
	}))

	got, err := p.Summarize(context.Background(), "long text")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "summary" {
		t.Fatalf("got %q", got)
	}
}

func TestOpenAIBadStatus(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))

	_, err := p.Translate(context.Background(), "text", "中文", "英文")
	if !lingoerrors.IsProviderError(err) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	var perr *lingoerrors.ProviderError
	if !asProviderError(err, &perr) || perr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 in error, got %v", err)
	}
}

func TestOpenAIMalformedBody(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": [`)
	}))

	_, err := p.Translate(context.Background(), "text", "中文", "英文")
	if !lingoerrors.IsProviderError(err) {
		t.Fatalf("expected ProviderError for malformed body, got %v", err)
	}
}

func TestOpenAIOversizedResponse(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(bytes.Repeat([]byte("a"), maxResponseBodyBytes+1))
	}))

	_, err := p.Translate(context.Background(), "text", "中文", "英文")
	if !lingoerrors.IsProviderError(err) {
		t.Fatalf("expected ProviderError for oversized body, got %v", err)
	}
	if !errors.Is(err, httpclient.ErrBodyTooLarge) {
		t.Fatalf("oversized body should be classified, got %v", err)
	}
}

func TestOpenAIEmptyChoices(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))

	_, err := p.Summarize(context.Background(), "text")
	if !lingoerrors.IsProviderError(err) {
		t.Fatalf("expected ProviderError for empty choices, got %v", err)
	}
}

func TestOpenAIMissingCredential(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAI(config.ProviderCredentials{Model: "m"}, time.Second, logging.Nop())
	if !lingoerrors.IsMissingCredential(err) {
		t.Fatalf("expected MissingCredentialError, got %v", err)
	}
}

func TestOpenAIStreamDeltas(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["stream"] != true {
			t.Fatalf("stream call must request streaming")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, delta := range []string{"Hel", "lo", " world"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))

	fragments, err := p.StreamTranslate(context.Background(), "你好", "中文", "英文")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}

	var sb strings.Builder
	for f := range fragments {
		if f.Err != nil {
			t.Fatalf("unexpected error fragment: %v", f.Err)
		}
		sb.WriteString(f.Content)
	}
	if sb.String() != "Hello world" {
		t.Fatalf("reassembled %q", sb.String())
	}
}

func TestOpenAIStreamOpenFailure(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))

	_, err := p.StreamSummarize(context.Background(), "text")
	if !lingoerrors.IsProviderError(err) {
		t.Fatalf("expected ProviderError when stream cannot open, got %v", err)
	}
}

func TestOpenAIStreamTruncationYieldsErrorFragment(t *testing.T) {
	t.Parallel()

	p := newOpenAITestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		flusher.Flush()
		// Server ends without [DONE]: a truncated stream.
	}))

	fragments, err := p.StreamTranslate(context.Background(), "text", "中文", "英文")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}

	var got []Fragment
	for f := range fragments {
		got = append(got, f)
	}
	if len(got) != 2 {
		t.Fatalf("expected partial fragment plus error terminator, got %d fragments", len(got))
	}
	if got[0].Content != "partial" {
		t.Fatalf("fragments before failure must be delivered, got %q", got[0].Content)
	}
	if got[1].Err == nil || !lingoerrors.IsProviderError(got[1].Err) {
		t.Fatalf("truncation must end with an explicit error fragment, got %+v", got[1])
	}
}

func TestQianwenSharesChatWire(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/chat/completions" {
			t.Fatalf("unexpected path: %s", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"好的"}}]}`)
	}))
	t.Cleanup(server.Close)

	p, err := NewQianwen(config.ProviderCredentials{APIKey: "qw-key", BaseURL: server.URL, Model: "qwen-turbo"}, time.Second, logging.Nop())
	if err != nil {
		t.Fatalf("construct qianwen: %v", err)
	}
	if p.Name() != "qianwen" {
		t.Fatalf("got name %q", p.Name())
	}

	got, err := p.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "好的" {
		t.Fatalf("got %q", got)
	}
}
