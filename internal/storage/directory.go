package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// accessKeyBytes is the entropy of a generated access key before encoding.
const accessKeyBytes = 24

// Directory is the master registry of tenants.
type Directory struct {
	db *sql.DB
}

var _ service.TenantDirectory = (*Directory)(nil)

// OpenDirectory opens (and migrates) the tenant directory at dbPath.
func OpenDirectory(ctx context.Context, dbPath string) (*Directory, error) {
	db, err := openSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	if err := migrate(ctx, db, directoryMigrations, "directory"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Directory{db: db}, nil
}

// Close closes the database connection.
func (d *Directory) Close() error {
	return d.db.Close()
}

// Register creates a tenant with a freshly generated access key.
func (d *Directory) Register(ctx context.Context, name, code, baseFolder string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := ValidateTenantCode(code); err != nil {
		return nil, err
	}

	key, err := newAccessKey()
	if err != nil {
		return nil, err
	}

	tenant := &model.Tenant{
		Name:       strings.TrimSpace(name),
		Code:       code,
		AccessKey:  key,
		BaseFolder: strings.TrimSpace(baseFolder),
		CreatedAt:  time.Now(),
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO tenants (name, code, access_key, base_folder, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, tenant.Name, tenant.Code, tenant.AccessKey, tenant.BaseFolder, tenant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("tenant %q: %w", code, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to register tenant: %w", err)
	}

	if tenant.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read tenant id: %w", err)
	}

	return tenant, nil
}

// ByAccessKey resolves an access key. Unknown keys yield common.ErrUnauthorized.
func (d *Directory) ByAccessKey(ctx context.Context, key string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, common.ErrUnauthorized
	}

	tenant, err := d.getTenant(ctx, "access_key", key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	return tenant, nil
}

// ByCode returns the tenant with code. Unknown codes yield common.ErrUnknownTenant.
func (d *Directory) ByCode(ctx context.Context, code string) (*model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tenant, err := d.getTenant(ctx, "code", code)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%q: %w", code, common.ErrUnknownTenant)
		}
		return nil, err
	}
	return tenant, nil
}

// List returns every tenant ordered by code.
func (d *Directory) List(ctx context.Context) ([]model.Tenant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, code, access_key, base_folder, created_at
		FROM tenants
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.AccessKey, &t.BaseFolder, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Delete removes the tenant from the directory. Its ledger file is left on disk.
func (d *Directory) Delete(ctx context.Context, code string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := d.db.ExecContext(ctx, `DELETE FROM tenants WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", code, common.ErrUnknownTenant)
	}
	return nil
}

func (d *Directory) getTenant(ctx context.Context, column, value string) (*model.Tenant, error) {
	var t model.Tenant
	// column is one of two constants above, never caller input.
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, code, access_key, base_folder, created_at
		FROM tenants
		WHERE `+column+` = ?
	`, value).Scan(&t.ID, &t.Name, &t.Code, &t.AccessKey, &t.BaseFolder, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "tenant")
	}
	return &t, nil
}

func newAccessKey() (string, error) {
	buf := make([]byte, accessKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
