package util

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vishal-official/Email-Assistant/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// WithRequestLog emits a structured log and a latency observation for each
// HTTP request. It must wrap the ServeMux directly so the matched route
// pattern is visible after dispatch; unmatched requests are labelled
// "unmatched" to keep metric cardinality bounded.
func WithRequestLog(service string, next http.Handler) http.Handler {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "unknown"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(status), elapsed)
		LoggerFromContext(r.Context()).Info(
			"http_request",
			"service", service,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", RequestIDFromRequest(r),
		)
	})
}
