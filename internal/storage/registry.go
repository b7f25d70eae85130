package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/kaikei/internal/service"
)

// Registry maps tenant codes to ledger handles. Each ledger is opened and
// migrated on first use and shared by every later caller.
type Registry struct {
	ledgers map[string]*Ledger
	dir     string
	mu      sync.Mutex
	closed  bool
}

var _ service.LedgerProvider = (*Registry)(nil)

// ErrRegistryClosed is returned once Close has run.
var ErrRegistryClosed = errors.New("ledger registry closed")

// NewRegistry creates a registry storing ledgers as <dir>/<code>.db.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:     dir,
		ledgers: make(map[string]*Ledger),
	}
}

// Path returns the database file for a tenant code.
func (r *Registry) Path(code string) string {
	return filepath.Join(r.dir, code+".db")
}

// Ledger implements service.LedgerProvider.
func (r *Registry) Ledger(ctx context.Context, code string) (service.LedgerStore, error) {
	return r.Open(ctx, code)
}

// Open returns the memoized ledger for code, opening it if needed.
func (r *Registry) Open(ctx context.Context, code string) (*Ledger, error) {
	if err := ValidateTenantCode(code); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if ledger, ok := r.ledgers[code]; ok {
		return ledger, nil
	}

	ledger, err := OpenLedger(ctx, code, r.Path(code))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger for %s: %w", code, err)
	}
	r.ledgers[code] = ledger

	slog.Debug("Opened tenant ledger", "tenant", code, "path", ledger.dbPath)
	return ledger, nil
}

// Evict closes and forgets a tenant's handle. Unknown codes are ignored.
func (r *Registry) Evict(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, ok := r.ledgers[code]
	if !ok {
		return nil
	}
	delete(r.ledgers, code)
	return ledger.Close()
}

// Archive closes a tenant's ledger and renames its files to
// <code>.deleted-<unix>.db so a later tenant registered under the same code
// starts from an empty journal. It returns the archived path, or "" when
// the tenant never had a ledger.
func (r *Registry) Archive(code string) (string, error) {
	if err := ValidateTenantCode(code); err != nil {
		return "", err
	}
	if err := r.Evict(code); err != nil {
		return "", fmt.Errorf("close ledger for %s: %w", code, err)
	}

	src := r.Path(code)
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	dst := filepath.Join(r.dir, fmt.Sprintf("%s.deleted-%d.db", code, time.Now().UnixNano()))
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("archive ledger for %s: %w", code, err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(src+suffix, dst+suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return dst, fmt.Errorf("archive ledger for %s: %w", code, err)
		}
	}
	return dst, nil
}

// Close closes every open ledger.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for code, ledger := range r.ledgers {
		if err := ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", code, err))
		}
	}
	r.ledgers = make(map[string]*Ledger)
	r.closed = true

	return errors.Join(errs...)
}
