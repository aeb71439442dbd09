package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sync job outcomes used as the outcome label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// SyncMetrics records storefront and ad platform sync runs. The last success
// gauge is what freshness alerts key on: reports are only as current as it.
type SyncMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_job_duration_seconds",
		Help:    "Duration of sync job runs in seconds.",
		Buckets: []float64{.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_job_runs_total",
		Help: "Sync job runs by outcome.",
	}, []string{"job", "outcome"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sync_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run per sync job.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, lastSuccess)
	return &SyncMetrics{
		duration:    duration,
		runs:        runs,
		lastSuccess: lastSuccess,
	}
}

// ObserveRun records one finished run. Skipped runs carry no duration.
func (s *SyncMetrics) ObserveRun(job, outcome string, duration time.Duration) {
	if s == nil || s.runs == nil {
		return
	}
	job = normalizeLabel(job)
	s.runs.WithLabelValues(job, normalizeLabel(outcome)).Inc()
	if outcome != OutcomeSkipped {
		s.duration.WithLabelValues(job).Observe(duration.Seconds())
	}
}

// MarkSuccess stamps the last successful completion time for a job.
func (s *SyncMetrics) MarkSuccess(job string, at time.Time) {
	if s == nil || s.lastSuccess == nil {
		return
	}
	s.lastSuccess.WithLabelValues(normalizeLabel(job)).Set(float64(at.Unix()))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
