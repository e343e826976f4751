// Package scheduler runs the daily and monthly jobs on wall-clock
// triggers. A one-minute ticker compares the current local time against
// each job's "HH:MM" trigger; a job fires at most once per day.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job struct {
	Name string
	// At is the local trigger time in "HH:MM".
	At string
	// DayOfMonth restricts the job to one calendar day; 0 means daily.
	DayOfMonth int
	Run        func(ctx context.Context) error
}

type jobObserver interface {
	ObserveJob(job string, duration time.Duration, err error)
}

// Scheduler drives registered jobs from a minute ticker.
type Scheduler struct {
	jobs      []Job
	loc       *time.Location
	metrics   jobObserver
	logger    *zap.Logger
	lastFired map[string]string
}

// New constructs a scheduler in the given location.
func New(loc *time.Location, metrics jobObserver, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		loc:       loc,
		metrics:   metrics,
		logger:    logger,
		lastFired: make(map[string]string),
	}
}

// Register adds a job. Call before Start.
func (s *Scheduler) Register(job Job) error {
	if _, err := time.Parse("15:04", job.At); err != nil {
		return fmt.Errorf("job %s: bad trigger time %q: %w", job.Name, job.At, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start runs the ticker loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.tick(ctx, now.In(s.loc))
		}
	}
}

// tick starts the due jobs without blocking; a slow job running through
// another job's trigger minute must not make that trigger go unseen.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	for _, job := range s.dueJobs(now) {
		go s.runJob(ctx, job)
	}
}

// dueJobs returns the jobs whose trigger matches now and that have not
// already fired today. Matching on the whole minute tolerates ticker
// drift within it.
func (s *Scheduler) dueJobs(now time.Time) []Job {
	day := now.Format("2006-01-02")
	var due []Job
	for _, job := range s.jobs {
		if now.Format("15:04") != job.At {
			continue
		}
		if job.DayOfMonth > 0 && now.Day() != job.DayOfMonth {
			continue
		}
		if s.lastFired[job.Name] == day {
			continue
		}
		s.lastFired[job.Name] = day
		due = append(due, job)
	}
	return due
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	start := time.Now()
	s.logger.Info("job starting", zap.String("job", job.Name))

	err := job.Run(ctx)
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveJob(job.Name, duration, err)
	}
	if err != nil {
		s.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("job completed",
		zap.String("job", job.Name),
		zap.Duration("duration", duration),
	)
}
