package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// schemaStep is one forward-only schema change. Steps are applied in order
// and recorded in PRAGMA user_version.
type schemaStep struct {
	note  string
	stmts []string
}

// ledgerMigrations build a tenant's journal database.
var ledgerMigrations = []schemaStep{
	{
		note: "Journal entries and correction history",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS journal_entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				date DATETIME NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				amount REAL NOT NULL DEFAULT 0,
				debit_account TEXT NOT NULL,
				credit_account TEXT NOT NULL,
				confidence REAL NOT NULL DEFAULT 0,
				reason TEXT NOT NULL DEFAULT '',
				reviewed INTEGER NOT NULL DEFAULT 0,
				source_path TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries(date)`,
			`CREATE TABLE IF NOT EXISTS correction_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				entry_id INTEGER NOT NULL,
				old_debit TEXT NOT NULL DEFAULT '',
				old_credit TEXT NOT NULL DEFAULT '',
				new_debit TEXT NOT NULL,
				new_credit TEXT NOT NULL,
				reason TEXT NOT NULL DEFAULT '',
				reviewer TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (entry_id) REFERENCES journal_entries(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_correction_history_entry ON correction_history(entry_id)`,
		},
	},
	{
		note: "Chart of accounts",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS accounts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT UNIQUE NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				code TEXT NOT NULL DEFAULT ''
			)`,
		},
	},
}

// directoryMigrations build the master database that lists tenants.
var directoryMigrations = []schemaStep{
	{
		note: "Tenant directory",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS tenants (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				code TEXT UNIQUE NOT NULL,
				access_key TEXT UNIQUE NOT NULL,
				base_folder TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
}

// migrate brings db up to the latest step. Step n (1-based) sets
// user_version to n; an up-to-date database is left untouched.
func migrate(ctx context.Context, db *sql.DB, steps []schemaStep, label string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	version, err := userVersion(ctx, db)
	if err != nil {
		return err
	}
	if version > len(steps) {
		return fmt.Errorf("%s schema version %d is newer than this binary (%d)", label, version, len(steps))
	}

	for n := version + 1; n <= len(steps); n++ {
		if err := applyStep(ctx, db, n, steps[n-1]); err != nil {
			return fmt.Errorf("%s schema step %d: %w", label, n, err)
		}
		slog.Debug("Schema step applied", "database", label, "version", n, "note", steps[n-1].note)
	}
	return nil
}

func userVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func applyStep(ctx context.Context, db *sql.DB, n int, step schemaStep) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range step.stmts {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", n)); err != nil {
		return err
	}
	return tx.Commit()
}
