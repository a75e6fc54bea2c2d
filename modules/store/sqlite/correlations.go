package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mailvet/mailvet/internal/correlate"
)

// correlationStore implements correlate.Store backed by SQLite. Claim
// atomicity comes from the database itself: a single DELETE ... RETURNING
// removes and returns the row, so racing callbacks cannot both win.
type correlationStore struct {
	db *sql.DB

	// now is overridable in tests.
	now func() time.Time
}

func (s *correlationStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Record implements correlate.Store.
func (s *correlationStore) Record(key string, target correlate.Target) error {
	res, err := s.db.ExecContext(context.TODO(), `
		INSERT OR IGNORE INTO correlations (key, channel, chat_id, recorded_at)
		VALUES (?, ?, ?, ?)`,
		key, target.Channel, target.ChatID, s.clock().Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record correlation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: record correlation: %w", err)
	}
	if n == 0 {
		return correlate.ErrDuplicateKey
	}
	return nil
}

// Claim implements correlate.Store.
func (s *correlationStore) Claim(key string) (correlate.Target, error) {
	var target correlate.Target
	err := s.db.QueryRowContext(context.TODO(), `
		DELETE FROM correlations WHERE key = ?
		RETURNING channel, chat_id`,
		key,
	).Scan(&target.Channel, &target.ChatID)
	if errors.Is(err, sql.ErrNoRows) {
		return correlate.Target{}, correlate.ErrNotFound
	}
	if err != nil {
		return correlate.Target{}, fmt.Errorf("sqlite: claim correlation: %w", err)
	}
	return target, nil
}

// Pending implements correlate.Store.
func (s *correlationStore) Pending() int {
	var n int
	if err := s.db.QueryRowContext(context.TODO(), "SELECT count(*) FROM correlations").Scan(&n); err != nil {
		return 0
	}
	return n
}

// Sweep implements correlate.Sweeper.
func (s *correlationStore) Sweep(maxAge time.Duration) int {
	cutoff := s.clock().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(context.TODO(),
		"DELETE FROM correlations WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
