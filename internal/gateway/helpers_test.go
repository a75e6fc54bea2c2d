package gateway

import (
	"bytes"
	"log/slog"

	"github.com/mailvet/mailvet/internal/correlate"
	"github.com/mailvet/mailvet/internal/ledger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// fakeStore reports a fixed pending count for health/status tests.
type fakeStore struct {
	pending int
}

func (s *fakeStore) Record(string, correlate.Target) error { return nil }
func (s *fakeStore) Claim(string) (correlate.Target, error) {
	return correlate.Target{}, correlate.ErrNotFound
}
func (s *fakeStore) Pending() int { return s.pending }

var _ correlate.Store = (*fakeStore)(nil)

// fakeLedger reports fixed usage for status tests.
type fakeLedger struct {
	used, limit int64
}

func (l *fakeLedger) Reserve(int64) error { return nil }
func (l *fakeLedger) Used() int64         { return l.used }
func (l *fakeLedger) Limit() int64        { return l.limit }

var _ ledger.Ledger = (*fakeLedger)(nil)
