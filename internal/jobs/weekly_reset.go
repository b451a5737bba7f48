package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const weeklyResetJob = "weekly_kills_reset"

type weeklyResetter interface {
	ResetWeeklyKills(ctx context.Context) error
}

type runRecorder interface {
	JobRun(job string, err error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	resetter weeklyResetter
	recorder runRecorder
	timeout  time.Duration
}

func NewScheduler(resetter weeklyResetter, recorder runRecorder) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		resetter: resetter,
		recorder: recorder,
		timeout:  time.Minute,
	}
}

// ScheduleWeeklyReset registers the weekly kills reset with a standard
// five-field cron spec.
func (s *Scheduler) ScheduleWeeklyReset(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunWeeklyReset); err != nil {
		return fmt.Errorf("schedule %s: %w", weeklyResetJob, err)
	}
	slog.Info("job scheduled", "job", weeklyResetJob, "spec", spec)
	return nil
}

func (s *Scheduler) RunWeeklyReset() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	err := s.resetter.ResetWeeklyKills(ctx)
	if s.recorder != nil {
		s.recorder.JobRun(weeklyResetJob, err)
	}
	if err != nil {
		slog.Error("job failed", "job", weeklyResetJob, "error", err)
		return
	}
	slog.Info("job completed", "job", weeklyResetJob, "duration_ms", time.Since(started).Milliseconds())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}
