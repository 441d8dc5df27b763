// Package metrics exposes benchmark session progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"benchcore/internal/benchmark"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Scrape endpoint metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Benchmark metrics
	RunsCompleted    *prometheus.CounterVec
	SessionsAborted  *prometheus.CounterVec
	AdjustedRealTime *prometheus.GaugeVec
	AdjustedCPUTime  *prometheus.GaugeVec
	Iterations       *prometheus.GaugeVec
	ItemsPerSecond   *prometheus.GaugeVec
	RunThreads       prometheus.Histogram
}

// NewMetrics creates all metrics and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.RunsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchcore_runs_completed_total",
			Help: "Total number of completed benchmark instantiations",
		},
		[]string{"status"},
	)

	m.SessionsAborted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchcore_sessions_aborted_total",
			Help: "Total number of sessions stopped by a contract violation",
		},
		[]string{"benchmark"},
	)

	m.AdjustedRealTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchcore_adjusted_real_time",
			Help: "Real time per iteration of the latest run, in the run's unit",
		},
		[]string{"benchmark", "unit"},
	)

	m.AdjustedCPUTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchcore_adjusted_cpu_time",
			Help: "CPU time per iteration of the latest run, in the run's unit",
		},
		[]string{"benchmark", "unit"},
	)

	m.Iterations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchcore_iterations",
			Help: "Iterations of the latest run",
		},
		[]string{"benchmark"},
	)

	m.ItemsPerSecond = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchcore_items_per_second",
			Help: "Item throughput of the latest run",
		},
		[]string{"benchmark"},
	)

	m.RunThreads = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchcore_run_threads",
			Help:    "Thread counts of completed runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RunsCompleted,
		m.SessionsAborted,
		m.AdjustedRealTime,
		m.AdjustedCPUTime,
		m.Iterations,
		m.ItemsPerSecond,
		m.RunThreads,
	)

	return m
}

// RunCompleted records a finished run.
func (m *Metrics) RunCompleted(r benchmark.Run) {
	if r.ErrorOccurred {
		m.RunsCompleted.WithLabelValues("error").Inc()
		return
	}
	m.RunsCompleted.WithLabelValues("ok").Inc()

	name := r.Name()
	unit := r.TimeUnit.String()
	m.AdjustedRealTime.WithLabelValues(name, unit).Set(r.AdjustedRealTime())
	m.AdjustedCPUTime.WithLabelValues(name, unit).Set(r.AdjustedCPUTime())
	m.Iterations.WithLabelValues(name).Set(float64(r.Iterations))
	if v := r.ItemsPerSecond(); v > 0 {
		m.ItemsPerSecond.WithLabelValues(name).Set(v)
	}
	m.RunThreads.Observe(float64(r.Threads))
}

// SessionAborted records a session stopped while running the named benchmark.
func (m *Metrics) SessionAborted(name string, _ error) {
	m.SessionsAborted.WithLabelValues(name).Inc()
}

// Middleware for tracking HTTP requests
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Registry returns the registry all metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler, wrapped in request tracking.
func (m *Metrics) Handler() http.Handler {
	return m.RequestTrackingMiddleware(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}
