// Package importer runs batches of feed transactions through the pipeline,
// skipping rows that already produced an entry.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/kaikei/internal/engine"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/normalize"
	"github.com/Veraticus/kaikei/internal/ofx"
	"github.com/Veraticus/kaikei/internal/plaid"
	"github.com/Veraticus/kaikei/internal/service"
)

// Pending is a transaction the gate held back, with its suggestion.
type Pending struct {
	Transaction model.Transaction
	Suggestion  model.Suggestion
}

// Result summarizes an import.
type Result struct {
	Pending   []Pending
	Total     int
	Committed int
	Skipped   int
	Failed    int
}

// Importer feeds transactions to a pipeline with processed-set deduplication.
type Importer struct {
	pipeline  *engine.Pipeline
	processed service.ProcessedStore
	// Progress, if set, is called once per transaction handled.
	Progress func()
}

// New creates an importer.
func New(pipeline *engine.Pipeline, processed service.ProcessedStore) *Importer {
	return &Importer{pipeline: pipeline, processed: processed}
}

// Key is the processed-set key for txn: its source key, or a content
// fingerprint when the source supplied none.
func Key(txn model.Transaction) string {
	if txn.SourceKey != "" {
		return txn.SourceKey
	}
	return "fp:" + txn.Fingerprint()
}

// Import processes txns in order. Individual failures are logged and
// counted; only context cancellation stops the batch early.
func (i *Importer) Import(ctx context.Context, tenant model.Tenant, txns []model.Transaction) (Result, error) {
	result := Result{Total: len(txns)}

	for _, txn := range txns {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, skipped, err := i.pipeline.ProcessOnce(ctx, i.processed, tenant, Key(txn), txn)
		switch {
		case err != nil:
			result.Failed++
			slog.Error("Failed to import transaction",
				"tenant", tenant.Code,
				"key", Key(txn),
				"summary", txn.Summary,
				"error", err)
		case skipped:
			result.Skipped++
		case outcome.Committed:
			result.Committed++
		default:
			result.Pending = append(result.Pending, Pending{Transaction: txn, Suggestion: outcome.Suggestion})
		}

		if i.Progress != nil {
			i.Progress()
		}
	}

	slog.Info("Import complete",
		"tenant", tenant.Code,
		"total", result.Total,
		"committed", result.Committed,
		"pending", len(result.Pending),
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

// FromStatement normalizes every row of an OFX statement.
func FromStatement(n normalize.Normalizer, stmt ofx.Statement) []model.Transaction {
	txns := make([]model.Transaction, 0, stmt.Len())
	for _, row := range stmt.Bank {
		txns = append(txns, n.Bank(row))
	}
	for _, row := range stmt.Card {
		txns = append(txns, n.Card(row))
	}
	return txns
}

// FromBankRows normalizes bank feed rows.
func FromBankRows(n normalize.Normalizer, rows []normalize.BankRow) []model.Transaction {
	txns := make([]model.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, n.Bank(row))
	}
	return txns
}

// FromFetcher pulls bank rows posted between from and to and normalizes them.
func FromFetcher(ctx context.Context, n normalize.Normalizer, fetcher plaid.RowFetcher, from, to time.Time) ([]model.Transaction, error) {
	rows, err := fetcher.FetchRows(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch bank rows: %w", err)
	}
	return FromBankRows(n, rows), nil
}
