// Package ledger tracks validation credit consumption. Every email sent to
// the provider costs one credit; once the configured limit is reached the
// bot refuses further work instead of silently running up the bill.
package ledger

import "errors"

// ErrCreditExceeded is returned by Reserve when granting the request would
// push usage past the configured limit. The counter is left untouched.
var ErrCreditExceeded = errors.New("ledger: credit limit exceeded")

// Ledger is the admission gate for provider calls. Reserve is the single
// primitive: checking and incrementing happen atomically, so two requests
// racing for the last credits cannot both be admitted.
type Ledger interface {
	// Reserve debits n credits, or returns ErrCreditExceeded without
	// changing the counter.
	Reserve(n int64) error

	// Used reports the credits consumed so far.
	Used() int64

	// Limit reports the configured ceiling. Zero means unlimited.
	Limit() int64
}
