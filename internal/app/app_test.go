package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/config"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:   t.TempDir(),
		Threshold: 0.7,
		Classifier: config.ClassifierConfig{
			Strategy: model.StrategyRule,
		},
		Poll:    config.PollConfig{Interval: time.Minute},
		Logging: config.LoggingConfig{Level: "info"},
	}
}

func TestOpen_RuleStrategyEndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, testConfig(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close()) }()

	tenant, err := a.Directory.Register(ctx, "Acme", "acme", "")
	require.NoError(t, err)

	outcome, err := a.Pipeline.Process(ctx, *tenant, model.Transaction{
		Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Summary: "セブンイレブン", Amount: 235,
	})
	require.NoError(t, err)
	require.True(t, outcome.Committed)

	correction, err := a.Pipeline.RecordCorrection(ctx, *tenant, service.CorrectionRequest{
		EntryID: outcome.Entry.ID, NewDebit: "会議費", NewCredit: "現金", Reason: "meeting snacks",
	})
	require.NoError(t, err)
	require.NotNil(t, correction)

	examples, err := a.State.Examples(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, examples, 1)
}

func TestOpen_InvalidStrategyClosesEverything(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.Strategy = "oracle"

	_, err := Open(context.Background(), cfg)
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	// The state file lock must have been released.
	cfg.Classifier.Strategy = model.StrategyRule
	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestApp_DeleteTenant(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, testConfig(t))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	_, err = a.Directory.Register(ctx, "Acme", "acme", "")
	require.NoError(t, err)
	require.NoError(t, a.State.MarkProcessed(ctx, "acme", "acme|/x.xml"))

	require.NoError(t, a.DeleteTenant(ctx, "acme"))

	_, err = a.Tenant(ctx, "acme")
	assert.ErrorIs(t, err, common.ErrUnknownTenant)

	done, err := a.State.IsProcessed(ctx, "acme", "acme|/x.xml")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestApp_ReRegisteredCodeGetsEmptyLedger(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, testConfig(t))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	old, err := a.Directory.Register(ctx, "Old Co", "acme", "")
	require.NoError(t, err)
	outcome, err := a.Pipeline.Process(ctx, *old, model.Transaction{
		Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Summary: "セブンイレブン", Amount: 235,
	})
	require.NoError(t, err)
	require.True(t, outcome.Committed)

	require.NoError(t, a.DeleteTenant(ctx, "acme"))
	matches, err := filepath.Glob(filepath.Join(a.Config.LedgerDir(), "acme.deleted-*.db"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = a.Directory.Register(ctx, "New Co", "acme", "")
	require.NoError(t, err)
	ledger, err := a.Ledgers.Open(ctx, "acme")
	require.NoError(t, err)
	entries, err := ledger.ListEntries(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
