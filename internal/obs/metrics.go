// Copyright 2025 James Ross
package obs

import (
	"fmt"
	"net/http"

	"github.com/flyingrobots/videoapi/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsAdmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobs_admitted_total",
		Help: "Total number of generation requests that passed admission",
	})
	JobsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_rejected_total",
		Help: "Total number of generation requests rejected at admission, by reason",
	}, []string{"reason"})
	JobsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobs_completed_total",
		Help: "Total number of successfully completed jobs",
	})
	JobsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobs_failed_total",
		Help: "Total number of failed jobs",
	})
	JobsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobs_cancelled_total",
		Help: "Total number of cancelled jobs",
	})
	JobProcessingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "job_processing_duration_seconds",
		Help:    "Histogram of job processing durations",
		Buckets: prometheus.DefBuckets,
	})
	QueueLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_length",
		Help: "Current length of each priority queue",
	}, []string{"priority"})
	RateLimitDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_decisions_total",
		Help: "Rate limit check outcomes",
	}, []string{"allowed"})
	RateLimitDegraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rate_limit_degraded",
		Help: "1 when the rate limiter is running against the in-process fallback store",
	})
	GeneratorBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "generator_breaker_state",
		Help: "0 Closed, 1 HalfOpen, 2 Open",
	})
	DashboardClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_clients",
		Help: "Number of connected dashboard WebSocket clients",
	})
)

func init() {
	prometheus.MustRegister(
		JobsAdmitted, JobsRejected, JobsCompleted, JobsFailed, JobsCancelled,
		JobProcessingDuration, QueueLength, RateLimitDecisions, RateLimitDegraded,
		GeneratorBreakerState, DashboardClients,
	)
}

// StartMetricsServer exposes /metrics on its own port, for deployments that
// keep metrics off the main API listener.
func StartMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Observability.MetricsPort), Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
