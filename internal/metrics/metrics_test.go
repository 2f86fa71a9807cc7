package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := MustNew(reg)

	m.TaskSubmitted()
	m.TaskStarted()
	m.TaskFinished("completed")
	m.ProviderRequest("openai", "translate", "ok")
	m.MockFallback("openai")

	if got := testutil.ToFloat64(m.tasksSubmitted); got != 1 {
		t.Fatalf("submitted = %v", got)
	}
	if got := testutil.ToFloat64(m.tasksActive); got != 0 {
		t.Fatalf("active gauge should return to zero, got %v", got)
	}
	if got := testutil.ToFloat64(m.tasksFinished.WithLabelValues("completed")); got != 1 {
		t.Fatalf("finished = %v", got)
	}
	if got := testutil.ToFloat64(m.mockFallbacks.WithLabelValues("openai")); got != 1 {
		t.Fatalf("fallbacks = %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.TaskSubmitted()
	m.TaskStarted()
	m.TaskFinished("failed")
	m.ProviderRequest("claude", "summarize", "error")
	m.MockFallback("claude")
	m.StreamFragment()
}

func TestDefaultIsSingleton(t *testing.T) {
	t.Parallel()

	if Default() != Default() {
		t.Fatal("Default must return one shared instance")
	}
}
