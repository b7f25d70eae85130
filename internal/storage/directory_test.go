package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kaikei/internal/common"
)

func createTestDirectory(t *testing.T) *Directory {
	t.Helper()

	dir, err := OpenDirectory(context.Background(), filepath.Join(t.TempDir(), "kaikei.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	return dir
}

func TestDirectory_RegisterAndLookup(t *testing.T) {
	dir := createTestDirectory(t)
	ctx := context.Background()

	tenant, err := dir.Register(ctx, "Acme 株式会社", "acme", "/scans/acme")
	require.NoError(t, err)
	assert.NotEmpty(t, tenant.AccessKey)
	assert.Positive(t, tenant.ID)

	byKey, err := dir.ByAccessKey(ctx, tenant.AccessKey)
	require.NoError(t, err)
	assert.Equal(t, "acme", byKey.Code)
	assert.Equal(t, "/scans/acme", byKey.BaseFolder)

	byCode, err := dir.ByCode(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.AccessKey, byCode.AccessKey)
}

func TestDirectory_UniqueCodesAndKeys(t *testing.T) {
	dir := createTestDirectory(t)
	ctx := context.Background()

	a, err := dir.Register(ctx, "A", "a", "")
	require.NoError(t, err)
	b, err := dir.Register(ctx, "B", "b", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.AccessKey, b.AccessKey)

	_, err = dir.Register(ctx, "A again", "a", "")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestDirectory_RegisterValidation(t *testing.T) {
	dir := createTestDirectory(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		tenant   string
		code     string
	}{
		{name: "empty name", tenant: "", code: "ok"},
		{name: "path traversal code", tenant: "x", code: "../etc"},
		{name: "empty code", tenant: "x", code: ""},
		{name: "space in code", tenant: "x", code: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dir.Register(ctx, tt.tenant, tt.code, "")
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestDirectory_UnknownLookups(t *testing.T) {
	dir := createTestDirectory(t)
	ctx := context.Background()

	_, err := dir.ByAccessKey(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = dir.ByAccessKey(ctx, "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = dir.ByCode(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrUnknownTenant)

	assert.ErrorIs(t, dir.Delete(ctx, "ghost"), common.ErrUnknownTenant)
}

func TestDirectory_ListAndDelete(t *testing.T) {
	dir := createTestDirectory(t)
	ctx := context.Background()

	for _, code := range []string{"beta", "alpha"} {
		_, err := dir.Register(ctx, code, code, "")
		require.NoError(t, err)
	}

	tenants, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "alpha", tenants[0].Code)

	require.NoError(t, dir.Delete(ctx, "alpha"))
	tenants, err = dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "beta", tenants[0].Code)
}
