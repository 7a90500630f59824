package storagebackend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	b, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	return b
}

func TestLocalBackend_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.PutBytes(ctx, "sources/orders/data.parquet", []byte("payload")))

	got, err := b.GetBytes(ctx, "sources/orders/data.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	exists, err := b.Exists(ctx, "sources/orders/data.parquet")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalBackend_GetBytes_NotFound(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	_, err := b.GetBytes(ctx, "missing")
	require.Error(t, err)
	assert.True(t, snaperr.Is(err, snaperr.KindNotFound))
}

func TestLocalBackend_PutIfAbsent_ClaimsOnce(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	ok1, err := b.PutIfAbsent(ctx, "sources/orders/v1/.claim", []byte{})
	require.NoError(t, err)
	assert.True(t, ok1)

	ok2, err := b.PutIfAbsent(ctx, "sources/orders/v1/.claim", []byte{})
	require.NoError(t, err)
	assert.False(t, ok2, "second claim of the same key must lose the race")
}

func TestLocalBackend_ListPrefix_Ordered(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.PutBytes(ctx, "sources/orders/b.txt", []byte("b")))
	require.NoError(t, b.PutBytes(ctx, "sources/orders/a.txt", []byte("a")))
	require.NoError(t, b.PutBytes(ctx, "sources/users/c.txt", []byte("c")))

	keys, err := b.ListPrefix(ctx, "sources/orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"sources/orders/a.txt", "sources/orders/b.txt"}, keys)
}

func TestLocalBackend_OpenWriter_InvisibleUntilClose(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	w, err := b.OpenWriter(ctx, "sources/orders/data.parquet")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)

	exists, err := b.Exists(ctx, "sources/orders/data.parquet")
	require.NoError(t, err)
	assert.False(t, exists, "partial write must not be visible before Close")

	require.NoError(t, w.Close())

	got, err := b.GetBytes(ctx, "sources/orders/data.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("streamed"), got)
}

func TestLocalBackend_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.PutBytes(ctx, "sources/orders/v1/data.parquet", []byte("x")))
	require.NoError(t, b.DeletePrefix(ctx, "sources/orders/v1"))

	exists, err := b.Exists(ctx, "sources/orders/v1/data.parquet")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalBackend_PathEscapeIsContained(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "ws")
	b, err := NewLocalBackend(root)
	require.NoError(t, err)

	// filepath.Clean("/" + key) collapses ".." segments before joining with
	// root, so callers cannot escape the workspace root via the key alone.
	require.NoError(t, b.PutBytes(ctx, "../outside", []byte("x")))
	got, err := b.GetBytes(ctx, "../outside")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
	assert.True(t, filepathHasPrefix(b.path("../outside"), root))
}

func filepathHasPrefix(p, prefix string) bool {
	rel, err := filepath.Rel(prefix, p)
	if err != nil {
		return false
	}
	return rel == "." || (len(rel) > 0 && rel[0] != '.')
}
