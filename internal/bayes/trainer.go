package bayes

import (
	"context"
	"fmt"

	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// SamplesFromEntries converts journal entries into training samples.
// Entries without a complete account pair are skipped.
func SamplesFromEntries(entries []model.JournalEntry) []Sample {
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		if e.DebitAccount == "" || e.CreditAccount == "" || e.Summary == "" {
			continue
		}
		samples = append(samples, Sample{Summary: e.Summary, Debit: e.DebitAccount, Credit: e.CreditAccount})
	}
	return samples
}

// TrainFromLedger trains on every entry in ledger and writes the model files.
func TrainFromLedger(ctx context.Context, ledger service.LedgerStore, modelPath, vectorizerPath string) (*Model, int, error) {
	entries, err := ledger.ListEntries(ctx, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load training entries: %w", err)
	}

	samples := SamplesFromEntries(entries)
	m, err := Train(samples, DefaultVectorizer)
	if err != nil {
		return nil, len(samples), err
	}

	if err := m.Save(modelPath, vectorizerPath); err != nil {
		return nil, len(samples), err
	}
	return m, len(samples), nil
}
