package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModelCallDuration tracks generative-model calls by gateway operation.
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_model_call_duration_seconds",
			Help:    "Generative model call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"operation", "status"},
	)

	// BriefingRefreshCount counts briefing refresh outcomes.
	BriefingRefreshCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_briefing_refresh_total",
			Help: "Total number of briefing refreshes",
		},
		[]string{"status"}, // success, failed
	)

	// DraftCount counts draft requests per action kind and outcome.
	DraftCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_draft_total",
			Help: "Total number of draft requests",
		},
		[]string{"kind", "status"}, // status: success, failed, rejected
	)

	// DispatchStageCount counts simulated dispatch transitions.
	DispatchStageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_dispatch_stage_total",
			Help: "Total number of dispatch stage transitions",
		},
		[]string{"stage"}, // sent, delivered, opened
	)

	// HTTPRequestDuration tracks API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordModelCall records one gateway call.
func RecordModelCall(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ModelCallDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// IncrementBriefingRefresh counts a refresh outcome.
func IncrementBriefingRefresh(status string) {
	BriefingRefreshCount.WithLabelValues(status).Inc()
}

// IncrementDraft counts a draft outcome.
func IncrementDraft(kind, status string) {
	DraftCount.WithLabelValues(kind, status).Inc()
}

// IncrementDispatchStage counts a dispatch transition.
func IncrementDispatchStage(stage string) {
	DispatchStageCount.WithLabelValues(stage).Inc()
}

// RecordHTTPRequestDuration records one HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
