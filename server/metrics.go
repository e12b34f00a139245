package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/foliolens/foliolens/analyze"
	"github.com/foliolens/foliolens/scrape"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foliolens_http_requests_total",
			Help: "Total number of HTTP requests by path and status code",
		},
		[]string{"path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "foliolens_http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"path"},
	)

	pipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foliolens_pipeline_errors_total",
			Help: "Total number of pipeline failures by operation and error kind",
		},
		[]string{"operation", "kind"},
	)
)

// recordRequestError counts a pipeline failure under its taxonomy kind.
func recordRequestError(operation string, err error) {
	pipelineErrors.WithLabelValues(operation, errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case IsValidationError(err):
		return "validation"
	case scrape.IsFetchError(err):
		return "fetch"
	case analyze.IsGenerationError(err):
		return "generation"
	default:
		return "internal"
	}
}
