package query

import (
	"context"
	"testing"
	"time"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/snapstore"
	"github.com/snapbase/snapbase/internal/storagebackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewName(t *testing.T) {
	assert.Equal(t, "orders_csv", ViewName("orders.csv"))
	assert.Equal(t, "ecommerce_users", ViewName("ecommerce/users"))
}

func TestGlobMatch(t *testing.T) {
	assert.True(t, globMatch("v*", "v1"))
	assert.True(t, globMatch("*", "anything"))
	assert.False(t, globMatch("v1", "v2"))
	assert.True(t, globMatch("v?", "v1"))
}

func TestFilterPartitions(t *testing.T) {
	parts := []snapstore.Partition{
		{Name: "v1", Timestamp: time.Unix(1, 0)},
		{Name: "v2", Timestamp: time.Unix(2, 0)},
		{Name: "v3", Timestamp: time.Unix(3, 0)},
	}

	all, err := filterPartitions(parts, "*")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := filterPartitions(parts, "latest")
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "v3", latest[0].Name)

	glob, err := filterPartitions(parts, "v?")
	require.NoError(t, err)
	assert.Len(t, glob, 3)

	literal, err := filterPartitions(parts, "v2")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "v2", literal[0].Name)
}

type fakeEngine struct {
	loaded map[string]*columnar.Table
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{loaded: map[string]*columnar.Table{}}
}

func (f *fakeEngine) LoadTable(ctx context.Context, tableName string, table *columnar.Table) error {
	f.loaded[tableName] = table
	return nil
}

func (f *fakeEngine) Query(ctx context.Context, query string) (*columnar.Table, error) {
	return &columnar.Table{}, nil
}

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

func TestBindSource_UnionsPartitionsAndExposesShorthand(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Now().UTC().Truncate(time.Second)

	for _, name := range []string{"v1", "v2"} {
		h, err := store.Create(ctx, "orders.csv", name, base, "csv")
		require.NoError(t, err)
		table := sampleTable()
		meta := snapstore.MetadataFromTable(name, "orders.csv", "csv", 10, base, table, 0)
		require.NoError(t, store.Finalize(ctx, h, table, meta))
		base = base.Add(time.Minute)
	}

	eng := newFakeEngine()
	binder := New(store, eng)
	err := binder.BindSource(ctx, Source{Key: "orders.csv"}, "*", true)
	require.NoError(t, err)

	view, ok := eng.loaded["orders_csv"]
	require.True(t, ok)
	assert.Len(t, view.Rows, 4) // 2 rows x 2 partitions
	assert.Equal(t, "snapshot_name", view.Schema.Columns[len(view.Schema.Columns)-2].Name)

	shorthand, ok := eng.loaded["data"]
	require.True(t, ok)
	assert.Equal(t, view, shorthand)
}
