// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "litreview"

// Metrics holds the counters and histograms for review runs. Each Metrics
// owns its registry, so several instances can coexist in one process.
// All Record/Observe methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// ReviewsStarted counts review runs started, labeled by mode (live, demo).
	ReviewsStarted *prometheus.CounterVec

	// ReviewsCompleted counts review runs that produced a review.
	ReviewsCompleted *prometheus.CounterVec

	// ReviewsFailed counts review runs aborted by an error, labeled by stage.
	ReviewsFailed *prometheus.CounterVec

	// StageDuration observes stage durations in seconds, labeled by stage.
	StageDuration *prometheus.HistogramVec

	// AgentRequests counts model API requests, labeled by status
	// (ok, error, rate_limited).
	AgentRequests *prometheus.CounterVec

	// AgentSteps observes how many steps each agent task used.
	AgentSteps prometheus.Histogram

	// ToolCalls counts tool invocations, labeled by tool and outcome.
	ToolCalls *prometheus.CounterVec

	// ExtractionTier counts which extraction tier produced search results.
	ExtractionTier *prometheus.CounterVec

	// PapersFound counts papers built by the search stage.
	PapersFound prometheus.Counter

	// PapersRetained counts papers kept by the filter stage.
	PapersRetained prometheus.Counter

	// PersistFailures counts review runs whose results could not be saved.
	PersistFailures prometheus.Counter
}

// NewMetrics registers all metrics on a fresh registry under namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ReviewsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_started_total",
			Help:      "Total number of review runs started",
		}, []string{"mode"}),
		ReviewsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_completed_total",
			Help:      "Total number of review runs that produced a review",
		}, []string{"mode"}),
		ReviewsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_failed_total",
			Help:      "Total number of review runs aborted by an error",
		}, []string{"stage"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of review stages in seconds",
			Buckets:   []float64{0.1, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"stage"}),
		AgentRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_requests_total",
			Help:      "Total number of model API requests",
		}, []string{"status"}),
		AgentSteps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_steps",
			Help:      "Steps used per agent task",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 12, 15, 20},
		}),
		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of agent tool invocations",
		}, []string{"tool", "outcome"}),
		ExtractionTier: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_tier_total",
			Help:      "Extraction cascade tier that produced search results",
		}, []string{"tier"}),
		PapersFound: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_found_total",
			Help:      "Total number of papers built by the search stage",
		}),
		PapersRetained: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_retained_total",
			Help:      "Total number of papers kept by the filter stage",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Total number of review runs whose results could not be saved",
		}),
	}
}

// RecordReviewStarted increments the started counter for mode.
func (m *Metrics) RecordReviewStarted(mode string) {
	if m == nil {
		return
	}
	m.ReviewsStarted.WithLabelValues(mode).Inc()
}

// RecordReviewCompleted increments the completed counter for mode.
func (m *Metrics) RecordReviewCompleted(mode string) {
	if m == nil {
		return
	}
	m.ReviewsCompleted.WithLabelValues(mode).Inc()
}

// RecordReviewFailed increments the failure counter for the stage that failed.
func (m *Metrics) RecordReviewFailed(stage string) {
	if m == nil {
		return
	}
	m.ReviewsFailed.WithLabelValues(stage).Inc()
}

// ObserveStage records how long stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordAgentRequest counts one model API request.
func (m *Metrics) RecordAgentRequest(status string) {
	if m == nil {
		return
	}
	m.AgentRequests.WithLabelValues(status).Inc()
}

// ObserveAgentSteps records the number of steps one task used.
func (m *Metrics) ObserveAgentSteps(steps int) {
	if m == nil {
		return
	}
	m.AgentSteps.Observe(float64(steps))
}

// RecordToolCall counts one tool invocation.
func (m *Metrics) RecordToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordExtractionTier counts the tier that produced search results.
func (m *Metrics) RecordExtractionTier(tier string) {
	if m == nil {
		return
	}
	m.ExtractionTier.WithLabelValues(tier).Inc()
}

// RecordPapers adds to the found and retained counters.
func (m *Metrics) RecordPapers(found, retained int) {
	if m == nil {
		return
	}
	m.PapersFound.Add(float64(found))
	m.PapersRetained.Add(float64(retained))
}

// RecordPersistFailure counts one failed save.
func (m *Metrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// WriteTextfile writes the current metric values to path in the Prometheus
// text exposition format, suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
