package cron

import (
	"context"
	"fmt"
)

// Job names as they appear in logs and metrics.
const (
	ShopifyVariantsJobName = "sync-shopify-variants"
	ShopifyOrdersJobName   = "sync-shopify-orders"
	AdSpendJobName         = "sync-ad-spend"
)

// Job represents a scheduled task that runs inside the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Dependent is implemented by jobs that must be skipped in a cycle where any
// named prerequisite failed or was skipped.
type Dependent interface {
	DependsOn() []string
}

// Registry tracks registered cron jobs in run order.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// Register appends a job. Names must be unique and prerequisites must already
// be registered, so registration order is always a valid run order.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	for _, dep := range dependenciesOf(job) {
		if _, ok := r.names[dep]; !ok {
			return fmt.Errorf("job %q depends on unregistered job %q", name, dep)
		}
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

func dependenciesOf(job Job) []string {
	if dep, ok := job.(Dependent); ok {
		return dep.DependsOn()
	}
	return nil
}
