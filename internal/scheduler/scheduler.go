// Package scheduler runs scantrack's periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/erazemk/scantrack/internal/store"
)

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler. Jobs run only after Start.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("starting scheduler", "jobs", len(s.scheduler.Jobs()))
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval, starting immediately once the
// scheduler is started. Overlapping runs of the same job are skipped.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("job %s: interval must be positive, got %s", name, interval)
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create job %s: %w", name, err)
	}
	return job.ID().String(), nil
}

// Refresher reloads an in-memory view from the database.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ScheduleRefresh periodically reloads r so that changes made outside the
// change feed (another process, manual edits) become visible.
func (s *Scheduler) ScheduleRefresh(ctx context.Context, r Refresher, interval time.Duration) error {
	_, err := s.ScheduleEvery("snapshot-refresh", interval, func() {
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			slog.Error("scheduled refresh failed", "error", err)
		}
	})
	return err
}

// ScheduleTokenPurge periodically deletes revocations of expired tokens.
func (s *Scheduler) ScheduleTokenPurge(ctx context.Context, db *sql.DB, interval time.Duration) error {
	_, err := s.ScheduleEvery("revoked-token-purge", interval, func() {
		n, err := store.PurgeExpiredTokens(ctx, db, time.Now())
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("failed to purge revoked tokens", "error", err)
			}
			return
		}
		if n > 0 {
			slog.Info("purged revoked tokens", "count", n)
		}
	})
	return err
}
