// Package provider unifies the AI backends (openai, claude, qianwen, mock)
// behind one capability set: translate, summarize, and their streaming forms.
package provider

import (
	"context"
	"fmt"
)

// Fragment is one incremental piece of streamed output. Exactly one of
// Content or Err is set; a fragment carrying Err terminates the sequence.
type Fragment struct {
	Content string
	Err     error
}

// Provider is the closed capability contract every backend implements.
// Streaming methods return an error when the stream cannot be opened;
// mid-stream failures surface as a terminal error Fragment before the
// channel closes. Fragment sequences are not restartable.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	StreamTranslate(ctx context.Context, text, sourceLang, targetLang string) (<-chan Fragment, error)
	StreamSummarize(ctx context.Context, text string) (<-chan Fragment, error)
}

// Prompt construction is shared by every real backend so sync, async, and
// streaming paths produce identical requests.

func translatePrompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf("请将以下%s文本翻译成%s，只返回翻译结果：\n\n%s", sourceLang, targetLang, text)
}

func summarizePrompt(text string) string {
	return fmt.Sprintf("请对以下文本进行简洁的总结：\n\n%s", text)
}
