// Package correlate maps in-flight bulk validation jobs to the chat that
// must receive their eventual results. The mapping is write-once,
// read-once: a callback claims its job exactly once, and the entry is gone.
package correlate

import (
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrDuplicateKey indicates Record was called with a key that is
	// already present. Callers must not reuse correlation keys.
	ErrDuplicateKey = errors.New("correlate: duplicate correlation key")

	// ErrNotFound indicates Claim found no mapping — either the key was
	// never recorded, it was already claimed, or the janitor expired it.
	ErrNotFound = errors.New("correlate: correlation key not found")
)

// Target identifies the conversation a job's results must be delivered to.
type Target struct {
	Channel string
	ChatID  string
}

// Store is the correlation mapping. Implementations must make Claim atomic:
// when two callbacks race on the same key, exactly one receives the target
// and the other receives ErrNotFound.
type Store interface {
	// Record inserts a new mapping from correlation key to delivery target.
	// Returns ErrDuplicateKey if the key is already present.
	Record(key string, target Target) error

	// Claim atomically removes and returns the mapping for key.
	// Returns ErrNotFound if no mapping is present.
	Claim(key string) (Target, error)

	// Pending returns the number of unclaimed mappings.
	Pending() int
}

// Sweeper is optionally implemented by stores that support expiring
// unclaimed mappings. The janitor calls it periodically.
type Sweeper interface {
	// Sweep removes mappings recorded longer than maxAge ago and returns
	// how many were removed.
	Sweep(maxAge time.Duration) int
}
