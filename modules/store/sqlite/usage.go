package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mailvet/mailvet/internal/ledger"
)

// usageLedger implements ledger.Ledger backed by the single-row usage
// counter. Each Reserve is one conditional UPDATE, so admission and debit
// are atomic and every granted credit is already durable. No flush job is
// needed for this implementation.
type usageLedger struct {
	db    *sql.DB
	limit int64
}

// Reserve implements ledger.Ledger.
func (l *usageLedger) Reserve(n int64) error {
	if n <= 0 {
		return fmt.Errorf("ledger: reserve count must be positive, got %d", n)
	}

	res, err := l.db.ExecContext(context.TODO(), `
		UPDATE usage SET used = used + ?1
		WHERE id = 1 AND (?2 <= 0 OR used + ?1 <= ?2)`,
		n, l.limit,
	)
	if err != nil {
		return fmt.Errorf("sqlite: reserve credits: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reserve credits: %w", err)
	}
	if affected == 0 {
		return ledger.ErrCreditExceeded
	}
	return nil
}

// Used implements ledger.Ledger.
func (l *usageLedger) Used() int64 {
	var used int64
	if err := l.db.QueryRowContext(context.TODO(), "SELECT used FROM usage WHERE id = 1").Scan(&used); err != nil {
		return 0
	}
	return used
}

// Limit implements ledger.Ledger.
func (l *usageLedger) Limit() int64 { return l.limit }
