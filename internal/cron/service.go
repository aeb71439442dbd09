package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/metrics"
)

const defaultInterval = time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.SyncMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run; zero leaves runs unbounded.
	JobTimeout time.Duration
}

// CycleReport lists job names by what happened to them in one cycle.
type CycleReport struct {
	Succeeded []string
	Failed    []string
	Skipped   []string
	// Locked is false when another instance held the lock and nothing ran.
	Locked bool
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.SyncMetrics
	interval   time.Duration
	jobTimeout time.Duration
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   interval,
		jobTimeout: params.JobTimeout,
		now:        time.Now,
	}, nil
}

// Run executes a cycle immediately and then once per interval until the
// context is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.runAndLog(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Service) runAndLog(ctx context.Context) {
	report, err := s.RunCycle(ctx)
	if err != nil {
		s.logg.Error(ctx, "cron.cycle.failed", err)
		return
	}
	if !report.Locked {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	}), "cron.cycle.completed")
}

// RunCycle takes the lock and runs every registered job once in order. A job
// whose prerequisite failed or was skipped is itself skipped.
func (s *Service) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		holder, herr := s.lock.Holder(ctx)
		if herr != nil {
			holder = "unknown"
		}
		s.logg.Info(s.logg.WithField(ctx, "holder", holder), "cron.cycle.locked_elsewhere")
		return report, nil
	}
	report.Locked = true
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "cron.lock.release_failed", relErr)
		}
	}()

	notOK := map[string]bool{}
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if blocker := firstBlocked(dependenciesOf(job), notOK); blocker != "" {
			notOK[job.Name()] = true
			report.Skipped = append(report.Skipped, job.Name())
			s.metrics.ObserveRun(job.Name(), metrics.OutcomeSkipped, 0)
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "blocked_by": blocker}), "cron.job.skipped")
			continue
		}
		if s.runJob(ctx, job) {
			report.Succeeded = append(report.Succeeded, job.Name())
			continue
		}
		notOK[job.Name()] = true
		report.Failed = append(report.Failed, job.Name())
	}
	return report, nil
}

func firstBlocked(deps []string, notOK map[string]bool) string {
	for _, dep := range deps {
		if notOK[dep] {
			return dep
		}
	}
	return ""
}

func (s *Service) runJob(ctx context.Context, job Job) bool {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, s.jobTimeout)
		defer cancel()
	}

	s.logg.Info(jobCtx, "cron.job.started")
	start := s.now()
	err := job.Run(jobCtx)
	duration := s.now().Sub(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())

	if err != nil {
		s.metrics.ObserveRun(job.Name(), metrics.OutcomeFailure, duration)
		s.logg.Error(jobCtx, "cron.job.failed", err)
		return false
	}
	s.metrics.ObserveRun(job.Name(), metrics.OutcomeSuccess, duration)
	s.metrics.MarkSuccess(job.Name(), s.now())
	s.logg.Info(jobCtx, "cron.job.completed")
	return true
}
