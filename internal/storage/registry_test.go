package storage

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kaikei/internal/common"
)

func TestRegistry_MemoizesHandles(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()

	first, err := reg.Open(ctx, "acme")
	require.NoError(t, err)
	second, err := reg.Open(ctx, "acme")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = os.Stat(reg.Path("acme"))
	assert.NoError(t, err)
}

func TestRegistry_ConcurrentFirstOpen(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	t.Cleanup(func() { _ = reg.Close() })

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		handles = map[*Ledger]struct{}{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger, err := reg.Open(context.Background(), "acme")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			handles[ledger] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, handles, 1)
}

func TestRegistry_TenantIsolation(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()

	a, err := reg.Open(ctx, "tenant-a")
	require.NoError(t, err)
	b, err := reg.Open(ctx, "tenant-b")
	require.NoError(t, err)

	require.NoError(t, a.CreateEntry(ctx, testEntry("only in a", 100)))

	entriesB, err := b.ListEntries(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entriesB)

	entriesA, err := a.ListEntries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entriesA, 1)
	assert.Equal(t, "tenant-a", entriesA[0].TenantCode)
}

func TestRegistry_EvictAndClose(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	ctx := context.Background()

	first, err := reg.Open(ctx, "acme")
	require.NoError(t, err)
	require.NoError(t, reg.Evict("acme"))
	require.NoError(t, reg.Evict("unknown"))

	reopened, err := reg.Open(ctx, "acme")
	require.NoError(t, err)
	assert.NotSame(t, first, reopened)

	require.NoError(t, reg.Close())
	_, err = reg.Open(ctx, "acme")
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistry_RejectsBadCodes(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	t.Cleanup(func() { _ = reg.Close() })

	_, err := reg.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRegistry_ArchiveStartsFreshLedger(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir)
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()

	old, err := reg.Open(ctx, "acme")
	require.NoError(t, err)
	require.NoError(t, old.CreateEntry(ctx, testEntry("セブンイレブン", 235)))

	archived, err := reg.Archive("acme")
	require.NoError(t, err)
	require.NotEmpty(t, archived)
	assert.FileExists(t, archived)
	assert.NoFileExists(t, reg.Path("acme"))

	fresh, err := reg.Open(ctx, "acme")
	require.NoError(t, err)
	entries, err := fresh.ListEntries(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	none, err := reg.Archive("ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
}
