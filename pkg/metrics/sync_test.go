package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)
	job := "sync-shopify-orders"
	m.ObserveRun(job, OutcomeSuccess, 3*time.Second)
	m.ObserveRun(job, OutcomeFailure, time.Second)
	m.ObserveRun(job, OutcomeSkipped, 0)
	m.MarkSuccess(job, time.Unix(1767225600, 0))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for _, outcome := range []string{OutcomeSuccess, OutcomeFailure, OutcomeSkipped} {
		got, err := fetchCounterValue(mfs, "sync_job_runs_total", "outcome", outcome)
		if err != nil {
			t.Fatalf("fetch %s: %v", outcome, err)
		}
		if got != 1 {
			t.Fatalf("expected %s=1, got %f", outcome, got)
		}
	}

	count, err := fetchHistogramCount(mfs, "sync_job_duration_seconds", "job", job)
	if err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected skipped run to be left out of the histogram, got %d samples", count)
	}

	mf := findMetricFamily(mfs, "sync_job_last_success_timestamp_seconds")
	if mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 1767225600 {
		t.Fatalf("unexpected last success gauge %v", mf)
	}
}

func TestSyncMetricsNilSafe(t *testing.T) {
	var m *SyncMetrics
	m.ObserveRun("job", OutcomeSuccess, time.Second)
	m.MarkSuccess("job", time.Now())

	NewSyncMetrics(nil).ObserveRun("job", OutcomeFailure, time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func fetchHistogramCount(mfs []*dto.MetricFamily, name, label, value string) (uint64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleCount(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
