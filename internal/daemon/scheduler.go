package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// Scheduler wraps a gocron scheduler. Jobs run in singleton mode: a run that
// is still in progress when the next tick fires causes that tick to be
// skipped instead of starting a second run.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler and waits for running jobs.
func (s *Scheduler) Stop(context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval and returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func(), immediately bool) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	return s.newJob(name, gocron.DurationJob(interval), task, immediately)
}

// ScheduleCron runs task on a crontab schedule and returns the job ID.
func (s *Scheduler) ScheduleCron(name, expr string, task func(), immediately bool) (string, error) {
	return s.newJob(name, gocron.CronJob(expr, false), task, immediately)
}

func (s *Scheduler) newJob(name string, def gocron.JobDefinition, task func(), immediately bool) (string, error) {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(def, gocron.NewTask(task), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

// Remove deletes a job by ID.
func (s *Scheduler) Remove(id string) error {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", id, err)
	}
	return s.scheduler.RemoveJob(jobID)
}

// NextRun returns when the job runs next.
func (s *Scheduler) NextRun(id string) (time.Time, error) {
	for _, job := range s.scheduler.Jobs() {
		if job.ID().String() == id {
			return job.NextRun()
		}
	}
	return time.Time{}, fmt.Errorf("job %s not found", id)
}
