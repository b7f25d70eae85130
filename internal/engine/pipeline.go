package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// Outcome is the result of running one transaction through the pipeline.
// Entry is set only when the transaction was committed.
type Outcome struct {
	Entry      *model.JournalEntry
	Suggestion model.Suggestion
	Committed  bool
}

// Pipeline classifies transactions for a tenant and posts the confident ones.
type Pipeline struct {
	classifier service.Classifier
	ledgers    service.LedgerProvider
	examples   service.ExampleStore
	now        func() time.Time
	threshold  float64
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(p *Pipeline) { p.threshold = threshold }
}

// WithClock sets the clock used for created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline wires a classifier to the tenant ledgers and example sets.
func NewPipeline(classifier service.Classifier, ledgers service.LedgerProvider, examples service.ExampleStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classifier,
		ledgers:    ledgers,
		examples:   examples,
		threshold:  DefaultThreshold,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Threshold returns the gate threshold in use.
func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// Suggest classifies txn without touching the ledger.
func (p *Pipeline) Suggest(ctx context.Context, tenant model.Tenant, txn model.Transaction) model.Suggestion {
	return p.classifier.Classify(ctx, tenant, txn)
}

// Process classifies txn and, when the gate allows it, inserts an unreviewed
// journal entry into the tenant's ledger.
func (p *Pipeline) Process(ctx context.Context, tenant model.Tenant, txn model.Transaction) (Outcome, error) {
	suggestion := p.classifier.Classify(ctx, tenant, txn)
	outcome := Outcome{Suggestion: suggestion}

	if Decide(suggestion, p.threshold) == Pending {
		slog.Debug("Suggestion held for review",
			"tenant", tenant.Code,
			"summary", txn.Summary,
			"source", suggestion.Source,
			"confidence", suggestion.Confidence)
		return outcome, nil
	}

	ledger, err := p.ledgers.Ledger(ctx, tenant.Code)
	if err != nil {
		return outcome, fmt.Errorf("failed to open ledger for %s: %w", tenant.Code, err)
	}

	entry := &model.JournalEntry{
		Date:          txn.Date,
		Summary:       txn.Summary,
		Amount:        txn.Amount,
		DebitAccount:  suggestion.DebitAccount,
		CreditAccount: suggestion.CreditAccount,
		Confidence:    suggestion.Confidence,
		Reason:        suggestion.Reason,
		SourcePath:    txn.SourcePath,
		TenantCode:    tenant.Code,
		CreatedAt:     p.now(),
	}
	if err := ledger.CreateEntry(ctx, entry); err != nil {
		return outcome, fmt.Errorf("failed to commit journal entry: %w", err)
	}

	slog.Info("Journal entry committed",
		"tenant", tenant.Code,
		"entry_id", entry.ID,
		"debit", entry.DebitAccount,
		"credit", entry.CreditAccount,
		"confidence", entry.Confidence)

	outcome.Entry = entry
	outcome.Committed = true
	return outcome, nil
}

// ProcessOnce runs Process for a source document identified by key and
// records the key only after a commit, so pending documents are retried.
// It reports skipped=true when the key was already processed.
func (p *Pipeline) ProcessOnce(ctx context.Context, processed service.ProcessedStore, tenant model.Tenant, key string, txn model.Transaction) (outcome Outcome, skipped bool, err error) {
	done, err := processed.IsProcessed(ctx, tenant.Code, key)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("failed to check processed key: %w", err)
	}
	if done {
		return Outcome{}, true, nil
	}

	outcome, err = p.Process(ctx, tenant, txn)
	if err != nil {
		return outcome, false, err
	}

	if outcome.Committed {
		if err := processed.MarkProcessed(ctx, tenant.Code, key); err != nil {
			return outcome, false, fmt.Errorf("failed to mark %s processed: %w", key, err)
		}
	}
	return outcome, false, nil
}

// RecordCorrection applies a reviewer override to an entry and feeds it back
// as a few-shot example. An unknown entry is logged and ignored: it returns
// (nil, nil) and changes nothing.
func (p *Pipeline) RecordCorrection(ctx context.Context, tenant model.Tenant, req service.CorrectionRequest) (*model.Correction, error) {
	if strings.TrimSpace(req.Reviewer) == "" {
		req.Reviewer = "user"
	}

	ledger, err := p.ledgers.Ledger(ctx, tenant.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger for %s: %w", tenant.Code, err)
	}

	entry, correction, err := ledger.ApplyCorrection(ctx, req)
	if errors.Is(err, common.ErrNotFound) {
		slog.Warn("Correction for unknown entry ignored",
			"tenant", tenant.Code,
			"entry_id", req.EntryID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply correction: %w", err)
	}

	example := model.Example{
		Summary:        entry.Summary,
		CorrectedTo:    [2]string{req.NewDebit, req.NewCredit},
		ReviewerReason: req.Reason,
	}
	if err := p.examples.PrependExample(ctx, tenant.Code, example); err != nil {
		return correction, fmt.Errorf("correction saved but example update failed: %w", err)
	}

	slog.Info("Correction recorded",
		"tenant", tenant.Code,
		"entry_id", entry.ID,
		"old_debit", correction.OldDebit,
		"new_debit", correction.NewDebit,
		"reviewer", correction.Reviewer)

	return correction, nil
}
