package daemon

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus collectors. Each Metrics value has
// its own registry so servers created in tests do not collide.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	evaluations *prometheus.CounterVec
	submissions *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the daemon collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codingsam_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codingsam_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15},
			},
			[]string{"method", "route"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codingsam_evaluations_total",
				Help: "Submit evaluations by narrative source and outcome",
			},
			[]string{"fallback", "solved"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codingsam_submissions_total",
				Help: "Recorded problem submissions",
			},
			[]string{"solved"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codingsam_runs_total",
				Help: "Code runs by executor, language and result",
			},
			[]string{"executor", "language", "ok"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codingsam_run_duration_seconds",
				Help:    "Duration of code runs",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"executor", "language"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.evaluations,
		m.submissions,
		m.runs,
		m.runDuration,
	)
	return m
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records one code run. Its signature matches runner.Observer.
func (m *Metrics) ObserveRun(executor, language string, ok bool, elapsed time.Duration) {
	m.runs.WithLabelValues(executor, language, strconv.FormatBool(ok)).Inc()
	m.runDuration.WithLabelValues(executor, language).Observe(elapsed.Seconds())
}

// ObserveEvaluation records one submit evaluation
func (m *Metrics) ObserveEvaluation(fallback, solved bool) {
	m.evaluations.WithLabelValues(strconv.FormatBool(fallback), strconv.FormatBool(solved)).Inc()
}

// ObserveSubmission records one lifecycle submission
func (m *Metrics) ObserveSubmission(solved bool) {
	m.submissions.WithLabelValues(strconv.FormatBool(solved)).Inc()
}

// middleware counts requests by their matched route pattern so that path
// parameters do not explode label cardinality.
func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
