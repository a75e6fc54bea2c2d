package correlate

import (
	"context"
	"log/slog"
	"time"
)

// JanitorJob expires unclaimed correlation mappings on a cron schedule.
// A mapping still unclaimed after MaxAge means the provider never delivered
// (or the delivery was lost); keeping it forever would leak entries.
type JanitorJob struct {
	Store        Sweeper
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default hourly
}

// Name implements cron.Job.
func (j *JanitorJob) Name() string { return "correlation_janitor" }

// Schedule implements cron.Job.
func (j *JanitorJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run implements cron.Job.
func (j *JanitorJob) Run(_ context.Context) error {
	removed := j.Store.Sweep(j.MaxAge)
	if removed > 0 {
		j.Logger.Warn("correlate: expired unclaimed bulk jobs",
			"count", removed,
			"max_age", j.MaxAge,
		)
	}
	return nil
}
