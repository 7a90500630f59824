package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/snapstore"
	"github.com/snapbase/snapbase/internal/storagebackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *snapstore.Store {
	t.Helper()
	backend, err := storagebackend.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	store, err := snapstore.New(backend, 16)
	require.NoError(t, err)
	return store
}

func sampleTable() *columnar.Table {
	return &columnar.Table{
		Schema: columnar.Schema{Columns: []columnar.Column{
			{Name: "id", Type: columnar.TypeBigInt, Position: 0},
			{Name: "name", Type: columnar.TypeVarchar, Position: 1},
		}},
		Rows: []columnar.Row{{int64(1), "apple"}, {int64(2), "banana"}},
	}
}

func commit(t *testing.T, store *snapstore.Store, source, name string, ts time.Time) {
	t.Helper()
	ctx := context.Background()
	h, err := store.Create(ctx, source, name, ts, "csv")
	require.NoError(t, err)
	table := sampleTable()
	meta := snapstore.MetadataFromTable(name, source, "csv", 10, ts, table, 0)
	require.NoError(t, store.Finalize(ctx, h, table, meta))
}

func TestExport_WritesCSV(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	commit(t, store, "orders.csv", "v1", time.Now())

	out := filepath.Join(t.TempDir(), "out.csv")
	result, err := Export(ctx, store, "orders.csv", "v1", out, Options{})
	require.NoError(t, err)
	assert.True(t, result.Wrote)
	assert.Equal(t, 2, result.RowCount)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "apple")
}

func TestExport_RefusesOverwriteWithoutForce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	commit(t, store, "orders.csv", "v1", time.Now())

	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(out, []byte("existing"), 0o644))

	_, err := Export(ctx, store, "orders.csv", "v1", out, Options{})
	require.Error(t, err)

	_, err = Export(ctx, store, "orders.csv", "v1", out, Options{Force: true})
	require.NoError(t, err)
}

func TestExport_DryRunDoesNotWrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	commit(t, store, "orders.csv", "v1", time.Now())

	out := filepath.Join(t.TempDir(), "out.csv")
	result, err := Export(ctx, store, "orders.csv", "v1", out, Options{DryRun: true})
	require.NoError(t, err)
	assert.False(t, result.Wrote)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStatus_ComparesAgainstCurrentFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	commit(t, store, "data.csv", "baseline", time.Now())

	current := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(current, []byte("id,name\n1,apple\n2,blueberry\n3,cherry\n"), 0o644))

	record, err := Status(ctx, store, "data.csv", "baseline", current)
	require.NoError(t, err)
	assert.Len(t, record.Rows.Modified, 1)
	assert.Len(t, record.Rows.Added, 1)
}
