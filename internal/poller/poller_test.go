package poller

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kaikei/internal/engine"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/state"
	"github.com/Veraticus/kaikei/internal/storage"
)

type staticTenants []model.Tenant

func (s staticTenants) List(context.Context) ([]model.Tenant, error) { return s, nil }

// keywordClassifier is confident only for summaries containing "confident".
type keywordClassifier struct {
	seen []string
	mu   sync.Mutex
}

func (k *keywordClassifier) Classify(_ context.Context, tenant model.Tenant, txn model.Transaction) model.Suggestion {
	k.mu.Lock()
	k.seen = append(k.seen, tenant.Code+":"+txn.Summary)
	k.mu.Unlock()

	if strings.Contains(txn.Summary, "confident") {
		return model.Suggestion{DebitAccount: "消耗品費", CreditAccount: "現金", Confidence: 0.9}
	}
	return model.Suggestion{DebitAccount: "消耗品費", CreditAccount: "現金", Confidence: 0.3}
}

type fixture struct {
	registry   *storage.Registry
	state      *state.Store
	classifier *keywordClassifier
	pipeline   *engine.Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	st, err := state.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	registry := storage.NewRegistry(filepath.Join(dir, "ledgers"))
	t.Cleanup(func() {
		_ = registry.Close()
		_ = st.Close()
	})

	c := &keywordClassifier{}
	return &fixture{
		registry:   registry,
		state:      st,
		classifier: c,
		pipeline:   engine.NewPipeline(c, registry, st),
	}
}

func writeDoc(t *testing.T, dir, name, vendor string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := "<Receipt><Date>2024/04/01</Date><Vendor>" + vendor + "</Vendor><Amount>¥1,200</Amount><TaxIncluded>yes</TaxIncluded></Receipt>"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (f *fixture) entries(t *testing.T, code string) []model.JournalEntry {
	t.Helper()
	ledger, err := f.registry.Ledger(context.Background(), code)
	require.NoError(t, err)
	entries, err := ledger.ListEntries(context.Background(), 0)
	require.NoError(t, err)
	return entries
}

func TestPoller_RunOnceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	folder := t.TempDir()
	writeDoc(t, folder, "a.xml", "confident store")
	writeDoc(t, folder, "b.xml", "unsure store")
	require.NoError(t, os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("ignored"), 0o600))

	p := New(staticTenants{{Code: "acme", BaseFolder: folder}}, f.pipeline, f.state, Config{})
	ctx := context.Background()

	stats, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 2, Committed: 1, Pending: 1}, stats)

	stats, err = p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 2, Skipped: 1, Pending: 1}, stats)

	entries := f.entries(t, "acme")
	require.Len(t, entries, 1)
	assert.Equal(t, "confident store", entries[0].Summary)
	assert.Equal(t, 1200.0, entries[0].Amount)

	abs, err := ResolvePath(filepath.Join(folder, "a.xml"))
	require.NoError(t, err)
	assert.Equal(t, abs, entries[0].SourcePath)

	done, err := f.state.IsProcessed(ctx, "acme", Key("acme", abs))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestPoller_ProcessedSetSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	folder := t.TempDir()
	writeDoc(t, folder, "a.xml", "confident store")
	tenants := staticTenants{{Code: "acme", BaseFolder: folder}}
	registry := storage.NewRegistry(filepath.Join(dir, "ledgers"))
	defer func() { _ = registry.Close() }()

	run := func() Stats {
		st, err := state.Open(filepath.Join(dir, "state.db"))
		require.NoError(t, err)
		defer func() { _ = st.Close() }()

		p := New(tenants, engine.NewPipeline(&keywordClassifier{}, registry, st), st, Config{})
		stats, err := p.RunOnce(context.Background())
		require.NoError(t, err)
		return stats
	}

	assert.Equal(t, 1, run().Committed)
	assert.Equal(t, 1, run().Skipped)
}

func TestPoller_ItemFailureDoesNotStopCycle(t *testing.T) {
	f := newFixture(t)
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "0-broken.xml"), []byte("<Receipt><Vendor>"), 0o600))
	writeDoc(t, folder, "1-good.xml", "confident store")

	p := New(staticTenants{{Code: "acme", BaseFolder: folder}}, f.pipeline, f.state, Config{})

	stats, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Committed)
	assert.Len(t, f.entries(t, "acme"), 1)
}

func TestPoller_TenantFolders(t *testing.T) {
	f := newFixture(t)
	acmeBase := t.TempDir()
	acmeOverride := t.TempDir()
	globexBase := t.TempDir()

	writeDoc(t, acmeBase, "a.xml", "confident base")
	writeDoc(t, acmeOverride, "a.xml", "confident override")
	writeDoc(t, globexBase, "a.xml", "confident globex")

	tenants := staticTenants{
		{Code: "acme", BaseFolder: acmeBase},
		{Code: "globex", BaseFolder: globexBase},
		{Code: "initech"},
	}
	p := New(tenants, f.pipeline, f.state, Config{Folders: map[string]string{"acme": acmeOverride}})

	assert.Equal(t, acmeOverride, p.Folder(tenants[0]))
	assert.Equal(t, globexBase, p.Folder(tenants[1]))
	assert.Empty(t, p.Folder(tenants[2]))

	stats, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Committed)

	acme := f.entries(t, "acme")
	require.Len(t, acme, 1)
	assert.Equal(t, "confident override", acme[0].Summary)

	globex := f.entries(t, "globex")
	require.Len(t, globex, 1)
	assert.Equal(t, "confident globex", globex[0].Summary)
}

func TestPoller_MissingFolderIsSkipped(t *testing.T) {
	f := newFixture(t)
	p := New(staticTenants{{Code: "acme", BaseFolder: filepath.Join(t.TempDir(), "nope")}}, f.pipeline, f.state, Config{})

	stats, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	p := New(staticTenants{}, f.pipeline, f.state, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
}

func TestPoller_ProcessDocumentSharesCycleKey(t *testing.T) {
	f := newFixture(t)
	folder := t.TempDir()
	path := writeDoc(t, folder, "a.xml", "confident store")
	tenant := model.Tenant{Code: "acme", BaseFolder: folder}
	p := New(staticTenants{tenant}, f.pipeline, f.state, Config{})
	ctx := context.Background()

	outcome, skipped, err := p.ProcessDocument(ctx, tenant, path)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.True(t, outcome.Committed)

	_, skipped, err = p.ProcessDocument(ctx, tenant, path)
	require.NoError(t, err)
	assert.True(t, skipped)

	stats, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 1, Skipped: 1}, stats)
	assert.Len(t, f.entries(t, "acme"), 1)
}

func TestPoller_SymlinkedFolderSharesKeys(t *testing.T) {
	f := newFixture(t)
	target := t.TempDir()
	path := writeDoc(t, target, "a.xml", "confident store")
	link := filepath.Join(t.TempDir(), "inbox")
	require.NoError(t, os.Symlink(target, link))

	tenant := model.Tenant{Code: "acme", BaseFolder: link}
	p := New(staticTenants{tenant}, f.pipeline, f.state, Config{})
	ctx := context.Background()

	outcome, skipped, err := p.ProcessDocument(ctx, tenant, path)
	require.NoError(t, err)
	require.False(t, skipped)
	require.True(t, outcome.Committed)

	stats, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 1, Skipped: 1}, stats)

	_, skipped, err = p.ProcessDocument(ctx, tenant, filepath.Join(link, "a.xml"))
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Len(t, f.entries(t, "acme"), 1)
}

func TestDocuments_CollapsesLinkedFiles(t *testing.T) {
	folder := t.TempDir()
	writeDoc(t, folder, "a.xml", "store")
	require.NoError(t, os.Symlink(filepath.Join(folder, "a.xml"), filepath.Join(folder, "copy.xml")))

	docs, err := documents(folder)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.xml", filepath.Base(docs[0]))
}
