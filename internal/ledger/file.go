package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FileLedger persists the usage counter as a single decimal integer in a
// text file. Writes go through a temp-file rename so a crash mid-flush
// cannot truncate the counter. Reserve updates only the in-memory value;
// call Flush (or run a FlushJob) to persist, and Close on shutdown.
type FileLedger struct {
	path  string
	limit int64

	mu    sync.Mutex
	used  int64
	dirty bool
}

var _ Ledger = (*FileLedger)(nil)

// OpenFileLedger loads the counter from path, creating parent directories
// as needed. A missing file means zero usage. limit <= 0 means unlimited.
func OpenFileLedger(path string, limit int64) (*FileLedger, error) {
	l := &FileLedger{path: path, limit: limit}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read ledger file: %w", err)
	default:
		used, perr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("parse ledger file %s: %w", path, perr)
		}
		if used < 0 {
			return nil, fmt.Errorf("parse ledger file %s: negative counter %d", path, used)
		}
		l.used = used
	}
	return l, nil
}

// Reserve implements Ledger.
func (l *FileLedger) Reserve(n int64) error {
	if n <= 0 {
		return fmt.Errorf("ledger: reserve of %d credits", n)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limit > 0 && l.used+n > l.limit {
		return ErrCreditExceeded
	}
	l.used += n
	l.dirty = true
	return nil
}

// Used implements Ledger.
func (l *FileLedger) Used() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

// Limit implements Ledger.
func (l *FileLedger) Limit() int64 { return l.limit }

// Flush writes the counter to disk if it changed since the last flush.
func (l *FileLedger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return nil
	}

	tmp := l.path + ".tmp"
	payload := strconv.FormatInt(l.used, 10) + "\n"
	if err := os.WriteFile(tmp, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	l.dirty = false
	return nil
}

// Close flushes any pending counter update.
func (l *FileLedger) Close() error {
	return l.Flush()
}
