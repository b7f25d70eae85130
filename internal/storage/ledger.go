package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// Ledger is one tenant's journal database.
type Ledger struct {
	db         *sql.DB
	tenantCode string
	dbPath     string
}

var _ service.LedgerStore = (*Ledger)(nil)

// OpenLedger opens (and migrates) the ledger at dbPath for tenantCode.
func OpenLedger(ctx context.Context, tenantCode, dbPath string) (*Ledger, error) {
	if err := ValidateTenantCode(tenantCode); err != nil {
		return nil, err
	}

	db, err := openSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	if err := migrate(ctx, db, ledgerMigrations, tenantCode); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Ledger{db: db, tenantCode: tenantCode, dbPath: dbPath}, nil
}

// TenantCode returns the owning tenant.
func (l *Ledger) TenantCode() string {
	return l.tenantCode
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// CreateEntry inserts entry and fills in its ID.
func (l *Ledger) CreateEntry(ctx context.Context, entry *model.JournalEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	result, err := l.db.ExecContext(ctx, `
		INSERT INTO journal_entries (
			date, summary, amount, debit_account, credit_account,
			confidence, reason, reviewed, source_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Date, entry.Summary, entry.Amount, entry.DebitAccount, entry.CreditAccount,
		entry.Confidence, entry.Reason, entry.Reviewed, nullString(entry.SourcePath), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read journal entry id: %w", err)
	}
	entry.ID = id
	entry.TenantCode = l.tenantCode

	return nil
}

// GetEntry returns the entry with id, or common.ErrNotFound.
func (l *Ledger) GetEntry(ctx context.Context, id int64) (*model.JournalEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return l.getEntryTx(ctx, l.db, id)
}

func (l *Ledger) getEntryTx(ctx context.Context, q queryable, id int64) (*model.JournalEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, date, summary, amount, debit_account, credit_account,
		       confidence, reason, reviewed, source_path, created_at
		FROM journal_entries
		WHERE id = ?
	`, id)

	entry, err := l.scanEntry(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("journal entry %d", id))
	}
	return entry, nil
}

// ListEntries returns the newest entries first. A non-positive limit returns all of them.
func (l *Ledger) ListEntries(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, date, summary, amount, debit_account, credit_account,
		       confidence, reason, reviewed, source_path, created_at
		FROM journal_entries
		ORDER BY date DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.JournalEntry
	for rows.Next() {
		entry, err := l.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// DeleteEntry removes an entry and its correction history.
func (l *Ledger) DeleteEntry(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := l.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, fmt.Sprintf("journal entry %d", id))
	}
	return nil
}

// ApplyCorrection records a reviewer override. The history row, the reviewed
// flag and the new accounts are written in one transaction.
func (l *Ledger) ApplyCorrection(ctx context.Context, req service.CorrectionRequest) (*model.JournalEntry, *model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, nil, err
	}
	if err := validateCorrection(req); err != nil {
		return nil, nil, err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	entry, err := l.getEntryTx(ctx, tx, req.EntryID)
	if err != nil {
		return nil, nil, err
	}

	correction := &model.Correction{
		EntryID:   entry.ID,
		OldDebit:  entry.DebitAccount,
		OldCredit: entry.CreditAccount,
		NewDebit:  req.NewDebit,
		NewCredit: req.NewCredit,
		Reason:    req.Reason,
		Reviewer:  req.Reviewer,
		CreatedAt: time.Now(),
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO correction_history (
			entry_id, old_debit, old_credit, new_debit, new_credit, reason, reviewer, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		correction.EntryID, correction.OldDebit, correction.OldCredit,
		correction.NewDebit, correction.NewCredit, correction.Reason, correction.Reviewer, correction.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert correction: %w", err)
	}
	if correction.ID, err = result.LastInsertId(); err != nil {
		return nil, nil, fmt.Errorf("failed to read correction id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE journal_entries
		SET debit_account = ?, credit_account = ?, reviewed = 1
		WHERE id = ?
	`, req.NewDebit, req.NewCredit, entry.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to update journal entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit correction: %w", err)
	}

	entry.DebitAccount = req.NewDebit
	entry.CreditAccount = req.NewCredit
	entry.Reviewed = true

	return entry, correction, nil
}

// GetCorrections returns an entry's correction history, oldest first.
func (l *Ledger) GetCorrections(ctx context.Context, entryID int64) ([]model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, entry_id, old_debit, old_credit, new_debit, new_credit, reason, reviewer, created_at
		FROM correction_history
		WHERE entry_id = ?
		ORDER BY id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var corrections []model.Correction
	for rows.Next() {
		var c model.Correction
		if err := rows.Scan(&c.ID, &c.EntryID, &c.OldDebit, &c.OldCredit,
			&c.NewDebit, &c.NewCredit, &c.Reason, &c.Reviewer, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, c)
	}

	return corrections, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (l *Ledger) scanEntry(row rowScanner) (*model.JournalEntry, error) {
	var (
		entry      model.JournalEntry
		sourcePath sql.NullString
		createdAt  sql.NullTime
	)
	if err := row.Scan(
		&entry.ID, &entry.Date, &entry.Summary, &entry.Amount,
		&entry.DebitAccount, &entry.CreditAccount, &entry.Confidence, &entry.Reason,
		&entry.Reviewed, &sourcePath, &createdAt,
	); err != nil {
		return nil, err
	}
	entry.SourcePath = sourcePath.String
	entry.CreatedAt = createdAt.Time
	entry.TenantCode = l.tenantCode
	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
