package engine

import (
	"context"
	"testing"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTableAndQuery(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx)
	require.NoError(t, err)
	defer e.Close()

	table := &columnar.Table{
		Schema: columnar.Schema{Columns: []columnar.Column{
			{Name: "id", Type: columnar.TypeBigInt, Position: 0},
			{Name: "name", Type: columnar.TypeVarchar, Position: 1},
		}},
		Rows: []columnar.Row{{int64(1), "apple"}, {int64(2), "banana"}},
	}
	require.NoError(t, e.LoadTable(ctx, "orders_csv", table))

	result, err := e.Query(ctx, `SELECT COUNT(*) AS n FROM "orders_csv"`)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(2), result.Rows[0][0])
}

func TestQuery_InvalidSQLReturnsQueryFailed(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Query(ctx, "SELECT FROM nowhere")
	require.Error(t, err)
	assert.True(t, snaperr.Is(err, snaperr.KindQueryFailed))
}
