// Package daemon runs manager tasks unattended, on a schedule or when the
// library files change.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// Task is a unit of scheduled work.
type Task func(ctx context.Context) error

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
	ctx       context.Context
}

// NewScheduler creates a new scheduler instance. Runs of the same job never
// overlap.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithGlobalJobOptions(
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	))
	if err != nil {
		return nil, derrors.InternalError("failed to create gocron scheduler", err)
	}

	return &Scheduler{
		scheduler: s,
		ctx:       context.Background(),
	}, nil
}

// Start begins the scheduler. ctx is handed to every task.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting scheduler")
	s.ctx = ctx
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval and returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task Task) (string, error) {
	if interval <= 0 {
		return "", derrors.ValidationFailed("schedule.every", "interval must be positive")
	}
	return s.schedule(name, gocron.DurationJob(interval), task)
}

// ScheduleCron runs task on a five field cron expression.
func (s *Scheduler) ScheduleCron(name, expression string, task Task) (string, error) {
	return s.schedule(name, gocron.CronJob(expression, false), task)
}

func (s *Scheduler) schedule(name string, def gocron.JobDefinition, task Task) (string, error) {
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(s.execute, name, task),
		gocron.WithName(name),
	)
	if err != nil {
		return "", derrors.ValidationFailed("schedule", fmt.Sprintf("cannot schedule %s: %v", name, err))
	}
	return job.ID().String(), nil
}

// execute is called by gocron to run a scheduled task.
func (s *Scheduler) execute(name string, task Task) {
	start := time.Now()
	slog.Info("Executing scheduled task", logfields.ScheduleName(name))
	if err := task(s.ctx); err != nil {
		slog.Error("Scheduled task failed", logfields.ScheduleName(name), logfields.Error(err))
		return
	}
	slog.Info("Scheduled task finished", logfields.ScheduleName(name), logfields.Duration(time.Since(start)))
}
