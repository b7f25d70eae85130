package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// createTestLedger opens a migrated ledger in a temp directory.
func createTestLedger(t *testing.T, code string) *Ledger {
	t.Helper()

	ledger, err := OpenLedger(context.Background(), code, filepath.Join(t.TempDir(), code+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	return ledger
}

func testEntry(summary string, amount float64) *model.JournalEntry {
	return &model.JournalEntry{
		Date:          time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Summary:       summary,
		Amount:        amount,
		DebitAccount:  "消耗品費",
		CreditAccount: "現金",
		Confidence:    0.92,
		Reason:        "convenience store",
	}
}

func TestLedger_CreateAndGetEntry(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	entry := testEntry("セブンイレブン 235円", 235)
	entry.SourcePath = "/scans/acme/r1.xml"
	require.NoError(t, ledger.CreateEntry(ctx, entry))
	assert.Positive(t, entry.ID)
	assert.Equal(t, "acme", entry.TenantCode)

	got, err := ledger.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "セブンイレブン 235円", got.Summary)
	assert.InDelta(t, 235.0, got.Amount, 0.0001)
	assert.False(t, got.Reviewed)
	assert.Equal(t, "/scans/acme/r1.xml", got.SourcePath)
	assert.True(t, entry.Date.Equal(got.Date))
}

func TestLedger_CreateEntryValidation(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	tests := []struct {
		mutate func(*model.JournalEntry)
		name   string
	}{
		{name: "missing debit", mutate: func(e *model.JournalEntry) { e.DebitAccount = "" }},
		{name: "missing credit", mutate: func(e *model.JournalEntry) { e.CreditAccount = " " }},
		{name: "zero date", mutate: func(e *model.JournalEntry) { e.Date = time.Time{} }},
		{name: "confidence above one", mutate: func(e *model.JournalEntry) { e.Confidence = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := testEntry("x", 1)
			tt.mutate(entry)
			err := ledger.CreateEntry(ctx, entry)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}

	assert.ErrorIs(t, ledger.CreateEntry(ctx, nil), common.ErrInvalidInput)
}

func TestLedger_GetEntryNotFound(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	_, err := ledger.GetEntry(context.Background(), 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLedger_ListEntries(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	for i, day := range []int{3, 1, 2} {
		entry := testEntry("entry", float64(i))
		entry.Date = time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)
		require.NoError(t, ledger.CreateEntry(ctx, entry))
	}

	all, err := ledger.ListEntries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Date.Day())
	assert.Equal(t, 1, all[2].Date.Day())

	limited, err := ledger.ListEntries(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLedger_ApplyCorrection(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	entry := testEntry("タクシー", 1800)
	require.NoError(t, ledger.CreateEntry(ctx, entry))

	updated, correction, err := ledger.ApplyCorrection(ctx, service.CorrectionRequest{
		EntryID:   entry.ID,
		NewDebit:  "旅費交通費",
		NewCredit: "現金",
		Reason:    "duplicate receipt",
		Reviewer:  "user",
	})
	require.NoError(t, err)

	assert.True(t, updated.Reviewed)
	assert.Equal(t, "消耗品費", correction.OldDebit)
	assert.Equal(t, "現金", correction.OldCredit)
	assert.Equal(t, "旅費交通費", correction.NewDebit)

	stored, err := ledger.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Reviewed)
	assert.Equal(t, correction.NewDebit, stored.DebitAccount)
	assert.Equal(t, correction.NewCredit, stored.CreditAccount)

	history, err := ledger.GetCorrections(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "duplicate receipt", history[0].Reason)
	assert.Equal(t, "user", history[0].Reviewer)
}

func TestLedger_ApplyCorrectionTwiceAppendsHistory(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	entry := testEntry("Amazon", 3980)
	require.NoError(t, ledger.CreateEntry(ctx, entry))

	for _, debit := range []string{"通信費", "消耗品費"} {
		_, _, err := ledger.ApplyCorrection(ctx, service.CorrectionRequest{
			EntryID: entry.ID, NewDebit: debit, NewCredit: "未払金", Reviewer: "user",
		})
		require.NoError(t, err)
	}

	history, err := ledger.GetCorrections(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "通信費", history[1].OldDebit)

	stored, err := ledger.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Reviewed)
	assert.Equal(t, "消耗品費", stored.DebitAccount)
}

func TestLedger_ApplyCorrectionUnknownEntry(t *testing.T) {
	ledger := createTestLedger(t, "acme")

	for _, id := range []int64{42, 0, -1} {
		_, _, err := ledger.ApplyCorrection(context.Background(), service.CorrectionRequest{
			EntryID: id, NewDebit: "a", NewCredit: "b",
		})
		assert.ErrorIs(t, err, common.ErrNotFound, "entry %d", id)
	}
}

func TestLedger_ConcurrentCorrectionsDoNotInterleave(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	entry := testEntry("Suica チャージ", 5000)
	require.NoError(t, ledger.CreateEntry(ctx, entry))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := ledger.ApplyCorrection(ctx, service.CorrectionRequest{
				EntryID: entry.ID, NewDebit: "旅費交通費", NewCredit: "現金", Reviewer: "user",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := ledger.GetCorrections(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, history, workers)

	// Each correction must observe the state the previous one left behind.
	for _, c := range history[1:] {
		assert.Equal(t, "旅費交通費", c.OldDebit)
	}
}

func TestLedger_DeleteEntryCascades(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	entry := testEntry("x", 1)
	require.NoError(t, ledger.CreateEntry(ctx, entry))
	_, _, err := ledger.ApplyCorrection(ctx, service.CorrectionRequest{EntryID: entry.ID, NewDebit: "a", NewCredit: "b"})
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteEntry(ctx, entry.ID))
	assert.ErrorIs(t, ledger.DeleteEntry(ctx, entry.ID), common.ErrNotFound)

	history, err := ledger.GetCorrections(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLedger_Accounts(t *testing.T) {
	ledger := createTestLedger(t, "acme")
	ctx := context.Background()

	require.NoError(t, ledger.SaveAccount(ctx, &model.Account{Name: "現金", Category: "資産", Code: "100"}))
	require.NoError(t, ledger.SaveAccount(ctx, &model.Account{Name: "旅費交通費", Category: "費用", Code: "600"}))
	require.NoError(t, ledger.SaveAccount(ctx, &model.Account{Name: "現金", Category: "資産", Code: "101"}))

	accounts, err := ledger.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "101", accounts[0].Code)

	require.NoError(t, ledger.DeleteAccount(ctx, "現金"))
	assert.ErrorIs(t, ledger.DeleteAccount(ctx, "現金"), common.ErrNotFound)
	assert.ErrorIs(t, ledger.SaveAccount(ctx, &model.Account{}), common.ErrInvalidInput)
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.db")
	ctx := context.Background()

	first, err := OpenLedger(ctx, "acme", path)
	require.NoError(t, err)
	require.NoError(t, first.CreateEntry(ctx, testEntry("keep me", 1)))
	require.NoError(t, first.Close())

	second, err := OpenLedger(ctx, "acme", path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	require.NoError(t, migrate(ctx, second.db, ledgerMigrations, "acme"))

	entries, err := second.ListEntries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMigrate_RefusesNewerSchema(t *testing.T) {
	ctx := context.Background()
	db, err := openSQLite(ctx, filepath.Join(t.TempDir(), "future.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, "PRAGMA user_version = 99")
	require.NoError(t, err)

	err = migrate(ctx, db, ledgerMigrations, "future")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than this binary")
}
