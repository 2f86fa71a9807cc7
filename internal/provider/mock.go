package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lingo/internal/textproc"
)

const (
	mockCompleteDelay = 200 * time.Millisecond
	mockFragmentDelay = 50 * time.Millisecond
	mockSummaryHead   = 50
)

// Mock is the deterministic offline backend. It stands in whenever no real
// provider is configured or a real provider call fails, so callers always get
// a well-formed answer.
type Mock struct {
	completeDelay time.Duration
	fragmentDelay time.Duration
}

// NewMock returns a mock with the standard short delays.
func NewMock() *Mock {
	return &Mock{completeDelay: mockCompleteDelay, fragmentDelay: mockFragmentDelay}
}

// NewMockWithDelays returns a mock with caller-chosen delays. Tests pass zero.
func NewMockWithDelays(complete, fragment time.Duration) *Mock {
	return &Mock{completeDelay: complete, fragmentDelay: fragment}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if err := m.wait(ctx, m.completeDelay); err != nil {
		return "", err
	}
	return mockTranslation(text, sourceLang, targetLang), nil
}

func (m *Mock) Summarize(ctx context.Context, text string) (string, error) {
	if err := m.wait(ctx, m.completeDelay); err != nil {
		return "", err
	}
	return mockSummary(text), nil
}

func (m *Mock) StreamTranslate(ctx context.Context, text, sourceLang, targetLang string) (<-chan Fragment, error) {
	return m.streamWords(ctx, mockTranslation(text, sourceLang, targetLang)), nil
}

func (m *Mock) StreamSummarize(ctx context.Context, text string) (<-chan Fragment, error) {
	return m.streamWords(ctx, mockSummary(text)), nil
}

// streamWords splits the result into word-sized fragments, preserving order,
// with a fixed small delay between each.
func (m *Mock) streamWords(ctx context.Context, result string) <-chan Fragment {
	fragments := make(chan Fragment)
	go func() {
		defer close(fragments)
		for _, word := range strings.Fields(result) {
			if err := m.wait(ctx, m.fragmentDelay); err != nil {
				return
			}
			if !emit(ctx, fragments, Fragment{Content: word + " "}) {
				return
			}
		}
	}()
	return fragments
}

func (m *Mock) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func mockTranslation(text, sourceLang, targetLang string) string {
	switch {
	case sourceLang == "中文" && targetLang == "英文":
		return "[模拟EN] " + text
	case sourceLang == "英文" && targetLang == "中文":
		return "[模拟中文] " + text
	default:
		return fmt.Sprintf("[模拟%s] %s", targetLang, text)
	}
}

func mockSummary(text string) string {
	return "模拟总结: " + textproc.Truncate(text, mockSummaryHead, "...")
}
