// Package sqlite implements a persistent SQLite-backed store module
// providing durable job correlation and credit accounting. It uses
// modernc.org/sqlite (pure Go, no CGO) with WAL mode, so both survive a
// restart: in-flight bulk jobs can still deliver their results, and the
// credit counter never resets.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mailvet/mailvet/internal/core"
	"github.com/mailvet/mailvet/internal/correlate"
	"github.com/mailvet/mailvet/internal/ledger"
	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite" // SQLite driver registration
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ correlate.Store   = (*correlationStore)(nil)
	_ correlate.Sweeper = (*correlationStore)(nil)
	_ ledger.Ledger     = (*usageLedger)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module implements a SQLite-backed store module providing both the
// correlation store and the credit ledger backed by a single database.
type Module struct {
	config       Config
	db           *sql.DB
	logger       *slog.Logger
	correlations *correlationStore
	usage        *usageLedger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "store.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	if dir := filepath.Dir(m.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", m.config.Path)
	if err != nil {
		return fmt.Errorf("sqlite: open %s: %w", m.config.Path, err)
	}

	// SQLite handles one writer at a time; limit pool to 1 connection
	// so PRAGMAs apply consistently.
	db.SetMaxOpenConns(1)

	if m.config.walEnabled() {
		if _, err := db.ExecContext(context.TODO(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}

	if _, err := db.ExecContext(context.TODO(), fmt.Sprintf("PRAGMA busy_timeout=%d", m.config.BusyTimeout)); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return err
	}

	m.db = db
	m.correlations = &correlationStore{db: db}
	m.usage = &usageLedger{db: db, limit: m.config.CreditLimit}

	ctx.RegisterService("correlate.store", m.correlations)
	ctx.RegisterService("ledger", m.usage)

	m.logger.Info("sqlite store module provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
		"credit_limit", m.config.CreditLimit,
	)

	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}

	if err := m.db.PingContext(context.TODO()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}

	var n int
	if err := m.db.QueryRowContext(context.TODO(), "SELECT count(*) FROM correlations").Scan(&n); err != nil {
		return fmt.Errorf("sqlite: correlations table not available: %w", err)
	}

	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("sqlite store module stopping")
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Correlations returns the correlation store implementation.
func (m *Module) Correlations() correlate.Store {
	return m.correlations
}

// Ledger returns the credit ledger implementation.
func (m *Module) Ledger() ledger.Ledger {
	return m.usage
}
