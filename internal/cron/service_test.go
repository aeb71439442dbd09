package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/cogsdesk-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	holder   string
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

func (f *fakeLock) Holder(context.Context) (string, error) { return f.holder, nil }

type testJob struct {
	name string
	deps []string
	err  error
	runs int
	ctx  context.Context
}

func (t *testJob) Name() string        { return t.name }
func (t *testJob) DependsOn() []string { return t.deps }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	t.ctx = ctx
	return t.err
}

func newTestService(t *testing.T, lock Lock, timeout time.Duration, jobs ...Job) *Service {
	t.Helper()
	registry := NewRegistry()
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			t.Fatalf("register %s: %v", job.Name(), err)
		}
	}
	service, err := NewService(ServiceParams{
		Logger:     quietLogger(),
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewSyncMetrics(prometheus.NewRegistry()),
		JobTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleContinuesPastIndependentFailures(t *testing.T) {
	spend := &testJob{name: AdSpendJobName, err: errors.New("graph api down")}
	variants := &testJob{name: ShopifyVariantsJobName}
	service := newTestService(t, &fakeLock{}, 0, spend, variants)

	report, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if spend.runs != 1 || variants.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", spend.runs, variants.runs)
	}
	if len(report.Failed) != 1 || report.Failed[0] != AdSpendJobName {
		t.Fatalf("unexpected failed list %v", report.Failed)
	}
	if len(report.Succeeded) != 1 || report.Succeeded[0] != ShopifyVariantsJobName {
		t.Fatalf("unexpected succeeded list %v", report.Succeeded)
	}
}

func TestRunCycleSkipsDependentsOfFailedJobs(t *testing.T) {
	variants := &testJob{name: ShopifyVariantsJobName, err: errors.New("401")}
	orders := &testJob{name: ShopifyOrdersJobName, deps: []string{ShopifyVariantsJobName}}
	service := newTestService(t, &fakeLock{}, 0, variants, orders)

	report, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if orders.runs != 0 {
		t.Fatal("expected orders sync to be skipped after the variants sync failed")
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != ShopifyOrdersJobName {
		t.Fatalf("unexpected skipped list %v", report.Skipped)
	}
}

func TestRunCycleDoesNothingWhenLockHeldElsewhere(t *testing.T) {
	job := &testJob{name: AdSpendJobName}
	service := newTestService(t, &fakeLock{acquired: true, holder: "worker.2"}, 0, job)

	report, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Locked || job.runs != 0 {
		t.Fatalf("expected no work without the lock, report=%+v runs=%d", report, job.runs)
	}
}

func TestRunCycleAppliesJobTimeout(t *testing.T) {
	job := &testJob{name: AdSpendJobName}
	service := newTestService(t, &fakeLock{}, time.Minute, job)

	if _, err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if _, ok := job.ctx.Deadline(); !ok {
		t.Fatal("expected job context to carry a deadline")
	}
}
