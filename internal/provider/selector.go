package provider

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"lingo/internal/config"
	lingoerrors "lingo/internal/errors"
	"lingo/internal/logging"
)

const selectorCacheSize = 8

// Selector resolves a provider name from the closed set {openai, claude,
// qianwen} and constructs the adapter, caching one instance per name.
// Fallback to the mock on failure is owned by the orchestrator, not here.
type Selector struct {
	cfg    config.AIConfig
	logger logging.Logger

	credLogOnce sync.Once

	mu    sync.Mutex
	cache *lru.Cache[string, Provider]
}

// NewSelector builds a selector over the configured credentials.
func NewSelector(cfg config.AIConfig, logger logging.Logger) *Selector {
	cache, err := lru.New[string, Provider](selectorCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Selector{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "selector"),
		cache:  cache,
	}
}

// Select resolves name (falling back to the configured default when empty)
// and returns the adapter for it. The credential presence report is logged at
// most once per process regardless of concurrency.
func (s *Selector) Select(name string) (Provider, error) {
	s.credLogOnce.Do(s.logCredentialStatus)

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(s.cfg.Provider))
	}

	switch name {
	case "openai", "claude", "qianwen":
	default:
		return nil, &lingoerrors.UnsupportedProviderError{Name: name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.cache.Get(name); ok {
		return p, nil
	}

	var (
		p   Provider
		err error
	)
	switch name {
	case "openai":
		p, err = NewOpenAI(s.cfg.OpenAI, s.cfg.Timeout(), s.logger)
	case "claude":
		p, err = NewClaude(s.cfg.Claude, s.cfg.Timeout(), s.logger)
	case "qianwen":
		p, err = NewQianwen(s.cfg.Qianwen, s.cfg.Timeout(), s.logger)
	}
	if err != nil {
		return nil, err
	}

	s.cache.Add(name, p)
	return p, nil
}

// logCredentialStatus reports which credentials are present. Keys are
// suffix-truncated; full secrets never reach the log.
func (s *Selector) logCredentialStatus() {
	s.logger.Info("configured provider: %s", s.cfg.Provider)
	s.logCredential("openai", s.cfg.OpenAI.APIKey)
	s.logCredential("claude", s.cfg.Claude.APIKey)
	s.logCredential("qianwen", s.cfg.Qianwen.APIKey)
}

func (s *Selector) logCredential(name, key string) {
	if strings.TrimSpace(key) == "" {
		s.logger.Warn("%s api key: not configured", name)
		return
	}
	s.logger.Info("%s api key: configured (%s)", name, truncateSecret(key))
}

// truncateSecret keeps only the last few characters of a secret.
func truncateSecret(key string) string {
	const keep = 8
	runes := []rune(key)
	if len(runes) <= keep {
		return "..." + strings.Repeat("*", len(runes))
	}
	return "..." + string(runes[len(runes)-keep:])
}
