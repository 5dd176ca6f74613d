// Package metrics exposes Prometheus collectors for the lead engine.
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
	jobsTotal                  *prometheus.CounterVec
	leadsScrapedTotal          *prometheus.CounterVec
	adapterFailuresTotal       *prometheus.CounterVec
	enrichmentOutcomesTotal    *prometheus.CounterVec
	activeJobs                 prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		jobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgen_jobs_total",
				Help: "Total number of scraping jobs, labeled by terminal status.",
			},
			[]string{"status"},
		)

		leadsScrapedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgen_leads_scraped_total",
				Help: "Total number of retained leads, labeled by source adapter.",
			},
			[]string{"source"},
		)

		adapterFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgen_adapter_failures_total",
				Help: "Total number of source adapter call failures, labeled by adapter.",
			},
			[]string{"source"},
		)

		enrichmentOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadgen_enrichment_outcomes_total",
				Help: "Total enrichment stage outcomes, labeled by status.",
			},
			[]string{"status"},
		)

		activeJobs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadgen_active_jobs",
				Help: "Number of jobs currently being driven by a worker.",
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

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadgen_rate_limit_delays_seconds",
				Help:    "Histogram of per-domain rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob increments the job counter for the given terminal status.
func ObserveJob(status string) {
	if jobsTotal == nil {
		return
	}
	jobsTotal.WithLabelValues(status).Inc()
}

// ObserveLeads adds retained leads for a source adapter.
func ObserveLeads(source string, count int) {
	if leadsScrapedTotal == nil || count <= 0 {
		return
	}
	leadsScrapedTotal.WithLabelValues(source).Add(float64(count))
}

// ObserveAdapterFailure increments the failure counter for an adapter.
func ObserveAdapterFailure(source string) {
	if adapterFailuresTotal == nil {
		return
	}
	adapterFailuresTotal.WithLabelValues(source).Inc()
}

// ObserveEnrichment increments the enrichment outcome counter.
func ObserveEnrichment(status string) {
	if enrichmentOutcomesTotal == nil {
		return
	}
	enrichmentOutcomesTotal.WithLabelValues(status).Inc()
}

// IncActiveJobs increments the active jobs gauge.
func IncActiveJobs() {
	if activeJobs != nil {
		activeJobs.Inc()
	}
}

// DecActiveJobs decrements the active jobs gauge.
func DecActiveJobs() {
	if activeJobs != nil {
		activeJobs.Dec()
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	if rateLimitDelaysSeconds == nil {
		return
	}
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
