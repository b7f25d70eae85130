package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/kaikei/internal/model"
)

// ListAccounts returns the tenant's chart of accounts ordered by code then name.
func (l *Ledger) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, category, code FROM accounts ORDER BY code, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Category, &a.Code); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SaveAccount creates the account or updates the one with the same name.
func (l *Ledger) SaveAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	err := l.db.QueryRowContext(ctx, `
		INSERT INTO accounts (name, category, code) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET category = excluded.category, code = excluded.code
		RETURNING id
	`, account.Name, account.Category, account.Code).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// DeleteAccount removes the named account.
func (l *Ledger) DeleteAccount(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	result, err := l.db.ExecContext(ctx, `DELETE FROM accounts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound(sql.ErrNoRows, fmt.Sprintf("account %q", name))
	}
	return nil
}
