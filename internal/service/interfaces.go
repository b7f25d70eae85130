// Package service defines the contracts shared between the pipeline and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/kaikei/internal/model"
)

// Classifier suggests an account pair for a normalized transaction.
// Implementations never fail; they degrade to model.Neutral instead.
type Classifier interface {
	Classify(ctx context.Context, tenant model.Tenant, txn model.Transaction) model.Suggestion
}

// LedgerStore is one tenant's journal. Every method is scoped to that tenant.
type LedgerStore interface {
	CreateEntry(ctx context.Context, entry *model.JournalEntry) error
	GetEntry(ctx context.Context, id int64) (*model.JournalEntry, error)
	ListEntries(ctx context.Context, limit int) ([]model.JournalEntry, error)
	DeleteEntry(ctx context.Context, id int64) error

	// ApplyCorrection writes the correction row, flips reviewed and overwrites
	// the accounts in one transaction. It returns common.ErrNotFound for an unknown entry.
	ApplyCorrection(ctx context.Context, req CorrectionRequest) (*model.JournalEntry, *model.Correction, error)
	GetCorrections(ctx context.Context, entryID int64) ([]model.Correction, error)

	ListAccounts(ctx context.Context) ([]model.Account, error)
	SaveAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, name string) error
}

// LedgerProvider resolves a tenant code to its isolated ledger.
type LedgerProvider interface {
	Ledger(ctx context.Context, tenantCode string) (LedgerStore, error)
}

// TenantDirectory is the registry of tenants.
type TenantDirectory interface {
	Register(ctx context.Context, name, code, baseFolder string) (*model.Tenant, error)
	ByAccessKey(ctx context.Context, key string) (*model.Tenant, error)
	ByCode(ctx context.Context, code string) (*model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
	Delete(ctx context.Context, code string) error
}

// ExampleStore holds each tenant's few-shot examples, most recent first.
type ExampleStore interface {
	Examples(ctx context.Context, tenantCode string) ([]model.Example, error)
	PrependExample(ctx context.Context, tenantCode string, example model.Example) error
}

// ProcessedStore remembers which source documents already produced a committed entry.
type ProcessedStore interface {
	IsProcessed(ctx context.Context, tenantCode, key string) (bool, error)
	MarkProcessed(ctx context.Context, tenantCode, key string) error
}

// CorrectionRequest describes a reviewer override of an entry's accounts.
type CorrectionRequest struct {
	NewDebit  string
	NewCredit string
	Reason    string
	Reviewer  string
	EntryID   int64
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
