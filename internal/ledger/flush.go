package ledger

import (
	"context"
	"log/slog"
)

// FlushJob periodically persists the ledger counter so that a crash loses
// at most one flush interval of usage.
type FlushJob struct {
	Ledger       *FileLedger
	Logger       *slog.Logger
	ScheduleExpr string // empty = default every 5 minutes
}

// Name implements cron.Job.
func (j *FlushJob) Name() string { return "ledger_flush" }

// Schedule implements cron.Job.
func (j *FlushJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run implements cron.Job.
func (j *FlushJob) Run(_ context.Context) error {
	if err := j.Ledger.Flush(); err != nil {
		j.Logger.Error("ledger: flush failed", "error", err)
		return err
	}
	return nil
}
