package model

import "time"

// JournalEntry is a single debit/credit posting in a tenant's ledger.
type JournalEntry struct {
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
	Summary       string    `json:"summary"`
	DebitAccount  string    `json:"debit_account"`
	CreditAccount string    `json:"credit_account"`
	Reason        string    `json:"reason"`
	SourcePath    string    `json:"source_path,omitempty"`
	TenantCode    string    `json:"tenant"`
	ID            int64     `json:"id"`
	Amount        float64   `json:"amount"`
	Confidence    float64   `json:"confidence"`
	Reviewed      bool      `json:"reviewed"`
}

// Correction is an immutable record of a reviewer overriding an entry's accounts.
type Correction struct {
	CreatedAt time.Time `json:"created_at"`
	OldDebit  string    `json:"old_debit"`
	OldCredit string    `json:"old_credit"`
	NewDebit  string    `json:"new_debit"`
	NewCredit string    `json:"new_credit"`
	Reason    string    `json:"reason"`
	Reviewer  string    `json:"reviewer"`
	ID        int64     `json:"id"`
	EntryID   int64     `json:"entry_id"`
}

// Account is a named account in a tenant's chart of accounts.
type Account struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	ID       int64  `json:"id" yaml:"-"`
}
