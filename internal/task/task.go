// Package task holds the task record, its persistence over the KV store, and
// the orchestrator that drives submitted work through the lifecycle
// pending -> processing -> {completed | failed}.
package task

import (
	"time"
)

// Status is one of the four lifecycle states. Completed and failed are
// terminal; no transition skips processing or leaves a terminal state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Kind names the operation a task performs.
type Kind string

const (
	KindTranslate Kind = "translation"
	KindSummarize Kind = "summary"
)

// Request is one unit of work. SourceLang and TargetLang apply to
// translation; MaxLength applies to summarization. Provider optionally names
// a backend, overriding the configured default.
type Request struct {
	Kind       Kind
	Text       string
	SourceLang string
	TargetLang string
	MaxLength  int
	Provider   string
}

// Task is the persisted record callers poll. The JSON shape is the wire
// format stored in the KV store and returned verbatim by the poll endpoint.
type Task struct {
	ID          string     `json:"task_id"`
	Status      Status     `json:"status"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
