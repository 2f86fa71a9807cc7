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
	defaultTemperature   = 0.3
	maxResponseBodyBytes = 4 * 1024 * 1024
	streamScanBufferSize = 64 * 1024
	streamScanBufferMax  = 2 * 1024 * 1024
)

// chatClient speaks the OpenAI-compatible chat completions API. It backs both
// the openai and qianwen variants; they differ only in name, endpoint, and
// credential source.
type chatClient struct {
	name         string
	model        string
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	logger       logging.Logger
}

// NewOpenAI constructs the OpenAI-compatible adapter. The credential is
// required: absence is a construction failure, not a runtime one.
func NewOpenAI(creds config.ProviderCredentials, timeout time.Duration, logger logging.Logger) (Provider, error) {
	return newChatClient("openai", "OPENAI_API_KEY", creds, timeout, logger)
}

// NewQianwen constructs the Qianwen adapter via DashScope's OpenAI-compatible
// mode, so it shares the chat completions wire format.
func NewQianwen(creds config.ProviderCredentials, timeout time.Duration, logger logging.Logger) (Provider, error) {
	return newChatClient("qianwen", "QIANWEN_API_KEY", creds, timeout, logger)
}

func newChatClient(name, envVar string, creds config.ProviderCredentials, timeout time.Duration, logger logging.Logger) (Provider, error) {
	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, &lingoerrors.MissingCredentialError{Provider: name, EnvVar: envVar}
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	scoped := logging.WithComponent(logger, name)
	return &chatClient{
		name:         name,
		model:        creds.Model,
		apiKey:       creds.APIKey,
		baseURL:      strings.TrimRight(creds.BaseURL, "/"),
		httpClient:   httpclient.New(timeout, scoped),
		streamClient: httpclient.NewStreaming(scoped),
		logger:       scoped,
	}, nil
}

func (c *chatClient) Name() string { return c.name }

func (c *chatClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return c.complete(ctx, translatePrompt(text, sourceLang, targetLang))
}

func (c *chatClient) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, summarizePrompt(text))
}

func (c *chatClient) StreamTranslate(ctx context.Context, text, sourceLang, targetLang string) (<-chan Fragment, error) {
	return c.stream(ctx, translatePrompt(text, sourceLang, targetLang))
}

func (c *chatClient) StreamSummarize(ctx context.Context, text string) (<-chan Fragment, error) {
	return c.stream(ctx, summarizePrompt(text))
}

func (c *chatClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.post(ctx, c.httpClient, prompt, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := httpclient.ReadBody(resp.Body, maxResponseBodyBytes)
	if err != nil {
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return "", lingoerrors.NewProviderError(c.name, err)
		}
		return "", lingoerrors.NewProviderError(c.name, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("error response body: %s", respBody)
		return "", lingoerrors.NewProviderStatusError(c.name, resp.StatusCode, string(respBody))
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", lingoerrors.NewProviderError(c.name, fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != nil && chatResp.Error.Message != "" {
		return "", lingoerrors.NewProviderStatusError(c.name, resp.StatusCode, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", lingoerrors.NewProviderError(c.name, errors.New("no choices in response"))
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

func (c *chatClient) stream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	resp, err := c.post(ctx, c.streamClient, prompt, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := httpclient.ReadBody(resp.Body, maxResponseBodyBytes)
		_ = resp.Body.Close()
		return nil, lingoerrors.NewProviderStatusError(c.name, resp.StatusCode, string(respBody))
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
			if payload == sseDoneMarker {
				// Normal completion. Anything else is a truncated stream.
				return
			}

			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				c.logger.Debug("skipping undecodable stream chunk: %v", err)
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !emit(ctx, fragments, Fragment{Content: chunk.Choices[0].Delta.Content}) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			emit(ctx, fragments, Fragment{Err: lingoerrors.NewProviderError(c.name, fmt.Errorf("read stream: %w", err))})
			return
		}
		// EOF before [DONE]: the provider dropped the stream mid-way.
		emit(ctx, fragments, Fragment{Err: lingoerrors.NewProviderError(c.name, errors.New("stream ended before completion"))})
	}()
	return fragments, nil
}

func (c *chatClient) post(ctx context.Context, client *http.Client, prompt string, stream bool) (*http.Response, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": defaultTemperature,
		"stream":      stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, lingoerrors.NewProviderError(c.name, fmt.Errorf("marshal request: %w", err))
	}

	endpoint := c.baseURL + "/chat/completions"
	c.logger.Debug("POST %s model=%s stream=%t", endpoint, c.model, stream)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, lingoerrors.NewProviderError(c.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, lingoerrors.NewProviderError(c.name, err)
	}
	return resp, nil
}

// emit delivers a fragment unless the consumer is gone.
func emit(ctx context.Context, out chan<- Fragment, f Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
