package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lingo/internal/async"
	lingoerrors "lingo/internal/errors"
	"lingo/internal/logging"
	"lingo/internal/metrics"
	"lingo/internal/provider"
	"lingo/internal/textproc"
)

// ErrQueueFull reports that the background queue cannot accept more work.
// Callers should retry later or use the synchronous path.
var ErrQueueFull = errors.New("task queue full")

// providerSelector is the slice of provider.Selector the orchestrator needs.
type providerSelector interface {
	Select(name string) (provider.Provider, error)
}

type job struct {
	task *Task
	req  Request
}

// Orchestrator drives tasks through the lifecycle state machine. Submission
// hands work to a fixed pool of workers over a bounded queue; execution
// resolves the requested provider and falls back to the mock on any provider
// error, so callers always receive a well-formed answer.
type Orchestrator struct {
	selector providerSelector
	mock     provider.Provider
	tasks    *Store
	logger   logging.Logger
	metrics  *metrics.Metrics

	queue chan job
	group errgroup.Group

	now func() time.Time
}

// NewOrchestrator builds an orchestrator over the given selector and task
// store. workers and queueSize bound execution concurrency and backpressure.
func NewOrchestrator(selector providerSelector, tasks *Store, workers, queueSize int, logger logging.Logger, m *metrics.Metrics) *Orchestrator {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	o := &Orchestrator{
		selector: selector,
		mock:     provider.NewMock(),
		tasks:    tasks,
		logger:   logging.WithComponent(logger, "orchestrator"),
		metrics:  m,
		queue:    make(chan job, queueSize),
		now:      time.Now,
	}
	for i := 0; i < workers; i++ {
		o.group.Go(func() error {
			o.work()
			return nil
		})
	}
	return o
}

// work consumes jobs until the queue is closed. A panic in one job must not
// take the worker down, so each job gets its own recovery scope.
func (o *Orchestrator) work() {
	for j := range o.queue {
		o.run(j)
	}
}

func (o *Orchestrator) run(j job) {
	defer async.Recover(o.logger, "task "+j.task.ID)
	o.execute(context.Background(), j.task, j.req)
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (o *Orchestrator) Close() {
	close(o.queue)
	_ = o.group.Wait()
}

// Submit writes a pending record and enqueues the work, returning the record
// immediately. A full queue is reported as ErrQueueFull rather than blocking
// the caller.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Task, error) {
	t := &Task{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: o.now(),
	}
	if err := o.tasks.Save(ctx, t); err != nil {
		return nil, err
	}

	// The worker gets its own copy; the caller's record is never mutated
	// concurrently.
	owned := *t
	select {
	case o.queue <- job{task: &owned, req: req}:
	default:
		// The record was never handed to a worker; drop it so a rejected
		// submission does not linger as pending until the TTL fires.
		if err := o.tasks.Delete(ctx, t.ID); err != nil {
			o.logger.Warn("task %s: drop rejected record: %v", t.ID, err)
		}
		return nil, ErrQueueFull
	}

	o.metrics.TaskSubmitted()
	o.logger.Info("task %s submitted (%s)", t.ID, req.Kind)
	return t, nil
}

// Poll returns the current persisted record, or ErrNotFound for unknown or
// expired ids.
func (o *Orchestrator) Poll(ctx context.Context, id string) (*Task, error) {
	return o.tasks.Get(ctx, id)
}

// Count reports how many task records are currently live.
func (o *Orchestrator) Count(ctx context.Context) (int, error) {
	return o.tasks.Count(ctx)
}

// execute advances one task from pending to a terminal state. Store write
// failures on the way in are terminal for the task but never panic a worker.
func (o *Orchestrator) execute(ctx context.Context, t *Task, req Request) {
	o.metrics.TaskStarted()

	t.Status = StatusProcessing
	if err := o.tasks.Save(ctx, t); err != nil {
		o.logger.Error("task %s: mark processing: %v", t.ID, err)
	}

	result, err := o.resolve(ctx, req)
	done := o.now()
	t.CompletedAt = &done
	if err != nil {
		t.Status = StatusFailed
		t.Error = err.Error()
		o.logger.Error("task %s failed: %v", t.ID, err)
	} else {
		t.Status = StatusCompleted
		t.Result = result
		o.logger.Info("task %s completed", t.ID)
	}
	o.metrics.TaskFinished(string(t.Status))

	if err := o.tasks.Save(ctx, t); err != nil {
		o.logger.Error("task %s: persist terminal state: %v", t.ID, err)
	}
}

// RunSync executes the request inline, with no task record, and returns the
// result directly.
func (o *Orchestrator) RunSync(ctx context.Context, req Request) (string, error) {
	return o.resolve(ctx, req)
}

// resolve sanitizes the text, dispatches to the selected provider, and falls
// back to the mock on any provider error. Only mock failures (cancellation)
// propagate.
func (o *Orchestrator) resolve(ctx context.Context, req Request) (string, error) {
	text := textproc.Sanitize(req.Text)

	p, err := o.selector.Select(req.Provider)
	if err != nil {
		o.logger.Warn("provider unavailable, using mock: %v", err)
		o.metrics.MockFallback(req.Provider)
		return o.invoke(ctx, o.mock, text, req)
	}

	result, err := o.invoke(ctx, p, text, req)
	if err == nil {
		o.metrics.ProviderRequest(p.Name(), string(req.Kind), "ok")
		return result, nil
	}
	o.metrics.ProviderRequest(p.Name(), string(req.Kind), failureOutcome(err))
	if ctx.Err() != nil {
		// Cancellation is the caller's doing, not a provider fault.
		return "", err
	}

	o.logger.Warn("%s %s failed, using mock: %v", p.Name(), req.Kind, err)
	o.metrics.MockFallback(p.Name())
	return o.invoke(ctx, o.mock, text, req)
}

// failureOutcome classifies a provider failure for the outcome metric label.
// Timeouts and retryable upstream statuses are labeled separately so dashboards
// can tell transient pressure from hard faults.
func failureOutcome(err error) string {
	if lingoerrors.IsTimeout(err) {
		return "timeout"
	}
	var perr *lingoerrors.ProviderError
	if errors.As(err, &perr) && lingoerrors.IsRetryableStatus(perr.StatusCode) {
		return "retryable"
	}
	return "error"
}

func (o *Orchestrator) invoke(ctx context.Context, p provider.Provider, text string, req Request) (string, error) {
	switch req.Kind {
	case KindTranslate:
		return p.Translate(ctx, text, req.SourceLang, req.TargetLang)
	case KindSummarize:
		return p.Summarize(ctx, text)
	default:
		return "", fmt.Errorf("unknown task kind %q", req.Kind)
	}
}

// RunStream opens a live fragment stream for the request. Open failures fall
// back to the mock stream; mid-stream failures surface as a terminal error
// fragment on the returned channel. Nothing is persisted.
func (o *Orchestrator) RunStream(ctx context.Context, req Request) (<-chan provider.Fragment, error) {
	text := textproc.Sanitize(req.Text)

	p, err := o.selector.Select(req.Provider)
	if err != nil {
		o.logger.Warn("provider unavailable, streaming from mock: %v", err)
		o.metrics.MockFallback(req.Provider)
		return o.openStream(ctx, o.mock, text, req)
	}

	fragments, err := o.openStream(ctx, p, text, req)
	if err == nil {
		o.metrics.ProviderRequest(p.Name(), string(req.Kind)+"_stream", "ok")
		return fragments, nil
	}
	o.metrics.ProviderRequest(p.Name(), string(req.Kind)+"_stream", failureOutcome(err))
	if ctx.Err() != nil {
		return nil, err
	}

	o.logger.Warn("%s stream open failed, streaming from mock: %v", p.Name(), err)
	o.metrics.MockFallback(p.Name())
	return o.openStream(ctx, o.mock, text, req)
}

func (o *Orchestrator) openStream(ctx context.Context, p provider.Provider, text string, req Request) (<-chan provider.Fragment, error) {
	switch req.Kind {
	case KindTranslate:
		return p.StreamTranslate(ctx, text, req.SourceLang, req.TargetLang)
	case KindSummarize:
		return p.StreamSummarize(ctx, text)
	default:
		return nil, fmt.Errorf("unknown task kind %q", req.Kind)
	}
}
