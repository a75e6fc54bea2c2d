package correlate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestJanitorSweepsExpired(t *testing.T) {
	s := NewMemoryStore()
	current := time.Now()
	s.now = func() time.Time { return current }

	_ = s.Record("stale", Target{Channel: "telegram", ChatID: "1"})
	current = current.Add(2 * time.Hour)
	_ = s.Record("live", Target{Channel: "telegram", ChatID: "2"})

	j := &JanitorJob{
		Store:  s,
		MaxAge: time.Hour,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s.Pending() != 1 {
		t.Errorf("Pending() = %d after sweep, want 1", s.Pending())
	}
}

func TestJanitorSchedule(t *testing.T) {
	j := &JanitorJob{}
	if got := j.Schedule(); got != "0 * * * *" {
		t.Errorf("default Schedule() = %q", got)
	}
	j.ScheduleExpr = "*/10 * * * *"
	if got := j.Schedule(); got != "*/10 * * * *" {
		t.Errorf("Schedule() = %q, want override", got)
	}
}
