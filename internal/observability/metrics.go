package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	gradeReportsTotal    *prometheus.CounterVec
	registrationsTotal   *prometheus.CounterVec
	reportCacheHitsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors of the academic API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academic_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "academic_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		gradeReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academic_grade_reports_total",
			Help: "Grade reports computed, by grading policy and outcome.",
		}, []string{"policy", "outcome"})

		registrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academic_registrations_total",
			Help: "Registrations accepted, by entity kind.",
		}, []string{"kind"})

		reportCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "academic_report_cache_hits_total",
			Help: "Grade reports served from the cache.",
		})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, gradeReportsTotal, registrationsTotal, reportCacheHitsTotal)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// GradeReports exposes the counter of computed grade reports.
func GradeReports() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeReportsTotal
}

// Registrations exposes the counter of accepted registrations.
func Registrations() *prometheus.CounterVec {
	RegisterMetrics()
	return registrationsTotal
}

// ReportCacheHits exposes the counter of cached report reads.
func ReportCacheHits() prometheus.Counter {
	RegisterMetrics()
	return reportCacheHitsTotal
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
}
