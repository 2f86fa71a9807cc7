// Package metrics exposes Prometheus collectors for task and provider activity.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	tasksSubmitted   prometheus.Counter
	tasksFinished    *prometheus.CounterVec
	tasksActive      prometheus.Gauge
	providerRequests *prometheus.CounterVec
	mockFallbacks    *prometheus.CounterVec
	streamFragments  prometheus.Counter
}

var (
	defaultOnce   sync.Once
	sharedMetrics *Metrics
)

// Default returns the package-level metrics instance registered with the
// global Prometheus registry. Collectors are created once so repeated
// construction (tests, restarts inside one process) does not panic on
// duplicate registration.
func Default() *Metrics {
	defaultOnce.Do(func() {
		sharedMetrics = MustNew(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNew constructs a Metrics instance using the provided registerer. Pass a
// fresh registry in tests that need isolated collectors. Registration errors
// panic, mirroring promauto semantics.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	tasksSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lingo",
		Subsystem: "task",
		Name:      "submitted_total",
		Help:      "Total tasks accepted for background execution.",
	})
	tasksFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lingo",
		Subsystem: "task",
		Name:      "finished_total",
		Help:      "Total tasks that reached a terminal state.",
	}, []string{"status"})
	tasksActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lingo",
		Subsystem: "task",
		Name:      "active",
		Help:      "Tasks currently being executed.",
	})
	providerRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lingo",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Outbound provider calls by provider, mode, and outcome.",
	}, []string{"provider", "mode", "outcome"})
	mockFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lingo",
		Subsystem: "provider",
		Name:      "mock_fallbacks_total",
		Help:      "Calls answered by the mock after a real provider failed.",
	}, []string{"provider"})
	streamFragments := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lingo",
		Subsystem: "provider",
		Name:      "stream_fragments_total",
		Help:      "Fragments delivered over streaming responses.",
	})

	collectors := []prometheus.Collector{
		tasksSubmitted, tasksFinished, tasksActive,
		providerRequests, mockFallbacks, streamFragments,
	}
	for _, c := range collectors {
		reg.MustRegister(c)
	}

	return &Metrics{
		tasksSubmitted:   tasksSubmitted,
		tasksFinished:    tasksFinished,
		tasksActive:      tasksActive,
		providerRequests: providerRequests,
		mockFallbacks:    mockFallbacks,
		streamFragments:  streamFragments,
	}
}

func (m *Metrics) TaskSubmitted() {
	if m == nil {
		return
	}
	m.tasksSubmitted.Inc()
}

func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.tasksActive.Inc()
}

func (m *Metrics) TaskFinished(status string) {
	if m == nil {
		return
	}
	m.tasksActive.Dec()
	m.tasksFinished.WithLabelValues(status).Inc()
}

func (m *Metrics) ProviderRequest(provider, mode, outcome string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, mode, outcome).Inc()
}

func (m *Metrics) MockFallback(provider string) {
	if m == nil {
		return
	}
	m.mockFallbacks.WithLabelValues(provider).Inc()
}

func (m *Metrics) StreamFragment() {
	if m == nil {
		return
	}
	m.streamFragments.Inc()
}
