// Package scheduler runs a small set of independent periodic jobs on
// ticker-driven loops, one goroutine per job, until the context is
// cancelled.
package scheduler

import (
	"context"
	"time"

	"drachma/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Job is a named periodic task. Errors are logged and do not stop the loop.
type Job struct {
	Name       string
	Every      time.Duration
	RunOnStart bool
	Fn         func(ctx context.Context) error
}

// Scheduler owns a set of jobs.
type Scheduler struct {
	jobs []Job
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a job. Must be called before Run.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run blocks until the context is cancelled, running every registered job on
// its own ticker.
func (s *Scheduler) Run(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)

	for _, job := range s.jobs {
		g.Go(func() error {
			s.runJob(ctx, job)
			return nil
		})
	}

	_ = g.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	log := logger.Get()

	if job.RunOnStart {
		s.invoke(ctx, job)
	}

	ticker := time.NewTicker(job.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infow("scheduler job stopped", "job", job.Name)
			return
		case <-ticker.C:
			s.invoke(ctx, job)
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Fn(ctx); err != nil {
		logger.Get().Errorw("scheduler job failed",
			"job", job.Name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	logger.Get().Infow("scheduler job completed",
		"job", job.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
