package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuoteMetrics tracks quote latency, failures and batch outcomes.
type QuoteMetrics struct {
	duration   *prometheus.HistogramVec
	failures   *prometheus.CounterVec
	batchItems *prometheus.CounterVec
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_duration_seconds",
		Help:    "Duration of quote resolution in seconds.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"mode"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_failures_total",
		Help: "Quotes that failed, by error code.",
	}, []string{"code"})
	batchItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_batch_items_total",
		Help: "Batch quote items by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, failures, batchItems)
	return &QuoteMetrics{
		duration:   duration,
		failures:   failures,
		batchItems: batchItems,
	}
}

// ObserveDuration records how long a quote in the given mode took.
func (q *QuoteMetrics) ObserveDuration(mode string, duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.WithLabelValues(normalizeLabel(mode)).Observe(duration.Seconds())
}

// IncFailure counts a failed quote.
func (q *QuoteMetrics) IncFailure(code string) {
	if q == nil || q.failures == nil {
		return
	}
	q.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncBatchItem counts one batch item; outcome is "ok" or "error".
func (q *QuoteMetrics) IncBatchItem(outcome string) {
	if q == nil || q.batchItems == nil {
		return
	}
	q.batchItems.WithLabelValues(normalizeLabel(outcome)).Inc()
}
