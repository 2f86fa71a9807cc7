package httpclient

import (
	"net"
	"net/http"
	"time"

	"lingo/internal/logging"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultMaxIdleConns   = 32
)

// New builds an HTTP client for outbound provider calls. The total timeout
// covers connect, request, and body read so a stalled upstream cannot pin a
// task forever.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	dialer := &net.Dialer{Timeout: defaultConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingRoundTripper{base: transport, logger: logging.OrNop(logger)},
	}
}

// NewStreaming builds an HTTP client without a total timeout, for SSE streams
// whose lifetime is unbounded. Connect and TLS handshake remain bounded;
// callers cancel via context.
func NewStreaming(logger logging.Logger) *http.Client {
	client := New(0, logger)
	client.Timeout = 0
	return client
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logging.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(started)
	if err != nil {
		t.logger.Debug("%s %s failed after %s: %v", req.Method, req.URL.Host, elapsed.Round(time.Millisecond), err)
		return nil, err
	}
	t.logger.Debug("%s %s -> %d in %s", req.Method, req.URL.Host, resp.StatusCode, elapsed.Round(time.Millisecond))
	return resp, nil
}
