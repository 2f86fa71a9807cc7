package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lingo/internal/config"
	lingoerrors "lingo/internal/errors"
	"lingo/internal/httpclient"
	"lingo/internal/logging"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	anthropicVersion     = "2023-06-01"
	claudeMaxTokens      = 1000
)

// claudeClient speaks the Anthropic Messages API.
type claudeClient struct {
	model        string
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	logger       logging.Logger
}

// NewClaude constructs the Claude adapter. The credential is required.
func NewClaude(creds config.ProviderCredentials, timeout time.Duration, logger logging.Logger) (Provider, error) {
	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, &lingoerrors.MissingCredentialError{Provider: "claude", EnvVar: "CLAUDE_API_KEY"}
	}
	baseURL := strings.TrimRight(creds.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	scoped := logging.WithComponent(logger, "claude")
	return &claudeClient{
		model:        creds.Model,
		apiKey:       creds.APIKey,
		baseURL:      baseURL,
		httpClient:   httpclient.New(timeout, scoped),
		streamClient: httpclient.NewStreaming(scoped),
		logger:       scoped,
	}, nil
}

func (c *claudeClient) Name() string { return "claude" }

func (c *claudeClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return c.complete(ctx, translatePrompt(text, sourceLang, targetLang))
}

func (c *claudeClient) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, summarizePrompt(text))
}

func (c *claudeClient) StreamTranslate(ctx context.Context, text, sourceLang, targetLang string) (<-chan Fragment, error) {
	return c.stream(ctx, translatePrompt(text, sourceLang, targetLang))
}

func (c *claudeClient) StreamSummarize(ctx context.Context, text string) (<-chan Fragment, error) {
	return c.stream(ctx, summarizePrompt(text))
}

func (c *claudeClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.post(ctx, c.httpClient, prompt, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := httpclient.ReadBody(resp.Body, maxResponseBodyBytes)
	if err != nil {
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return "", lingoerrors.NewProviderError("claude", err)
		}
		return "", lingoerrors.NewProviderError("claude", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("error response body: %s", respBody)
		return "", lingoerrors.NewProviderStatusError("claude", resp.StatusCode, string(respBody))
	}

	var msgResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return "", lingoerrors.NewProviderError("claude", fmt.Errorf("decode response: %w", err))
	}
	if msgResp.Error != nil && msgResp.Error.Message != "" {
		return "", lingoerrors.NewProviderStatusError("claude", resp.StatusCode, msgResp.Error.Message)
	}
	if len(msgResp.Content) == 0 {
		return "", lingoerrors.NewProviderError("claude", errors.New("empty response content"))
	}

	var out strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func (c *claudeClient) stream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	resp, err := c.post(ctx, c.streamClient, prompt, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := httpclient.ReadBody(resp.Body, maxResponseBodyBytes)
		_ = resp.Body.Close()
		return nil, lingoerrors.NewProviderStatusError("claude", resp.StatusCode, string(respBody))
	}

	fragments := make(chan Fragment)
	go func() {
		defer close(fragments)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, streamScanBufferSize), streamScanBufferMax)

		for scanner.Scan() {
			payload, ok := ssePayload(scanner.Text())
			if !ok {
				continue
			}

			var event struct {
				Type  string `json:"type"`
				Delta struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"delta"`
				Error *struct {
					Type    string `json:"type"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				c.logger.Debug("skipping undecodable stream event: %v", err)
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Text == "" {
					continue
				}
				if !emit(ctx, fragments, Fragment{Content: event.Delta.Text}) {
					return
				}
			case "message_stop":
				return
			case "error":
				msg := "stream error"
				if event.Error != nil {
					msg = event.Error.Message
				}
				emit(ctx, fragments, Fragment{Err: lingoerrors.NewProviderError("claude", errors.New(msg))})
				return
			}
		}

		if err := scanner.Err(); err != nil {
			emit(ctx, fragments, Fragment{Err: lingoerrors.NewProviderError("claude", fmt.Errorf("read stream: %w", err))})
			return
		}
		// EOF before message_stop: the provider dropped the stream mid-way.
		emit(ctx, fragments, Fragment{Err: lingoerrors.NewProviderError("claude", errors.New("stream ended before completion"))})
	}()
	return fragments, nil
}

func (c *claudeClient) post(ctx context.Context, client *http.Client, prompt string, stream bool) (*http.Response, error) {
	payload := map[string]any{
		"model":      c.model,
		"max_tokens": claudeMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if stream {
		payload["stream"] = true
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, lingoerrors.NewProviderError("claude", fmt.Errorf("marshal request: %w", err))
	}

	endpoint := c.baseURL + "/v1/messages"
	c.logger.Debug("POST %s model=%s stream=%t", endpoint, c.model, stream)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, lingoerrors.NewProviderError("claude", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, lingoerrors.NewProviderError("claude", err)
	}
	return resp, nil
}
