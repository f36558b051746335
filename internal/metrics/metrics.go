// Package metrics exposes Prometheus collectors for the report labeler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal                  *prometheus.CounterVec
	stageFailuresTotal         *prometheus.CounterVec
	stageDurationSeconds       *prometheus.HistogramVec
	pagesLabeledTotal          prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reportlabeler_runs_total",
				Help: "Total number of labeling runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		stageFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reportlabeler_stage_failures_total",
				Help: "Total number of runs that failed, labeled by stage and failure kind.",
			},
			[]string{"stage", "kind"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reportlabeler_stage_duration_seconds",
				Help:    "Histogram of pipeline stage latencies, labeled by stage.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"stage"},
		)

		pagesLabeledTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reportlabeler_pages_labeled_total",
				Help: "Total number of pages stamped with a label.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	Init()
	stageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun counts a finished run. An empty kind means success.
func ObserveRun(stage, kind string) {
	Init()
	if kind == "" {
		runsTotal.WithLabelValues("success").Inc()
		return
	}
	runsTotal.WithLabelValues("failure").Inc()
	stageFailuresTotal.WithLabelValues(stage, kind).Inc()
}

// ObservePages counts pages that were labeled.
func ObservePages(n int) {
	Init()
	if n > 0 {
		pagesLabeledTotal.Add(float64(n))
	}
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
