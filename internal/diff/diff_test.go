package diff

import (
	"testing"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaOf(names ...string) columnar.Schema {
	cols := make([]columnar.Column, len(names))
	for i, n := range names {
		cols[i] = columnar.Column{Name: n, Type: columnar.TypeVarchar, Position: i}
	}
	return columnar.Schema{Columns: cols}
}

func TestDiffSchema_AdditionAndTypeChange(t *testing.T) {
	from := columnar.Schema{Columns: []columnar.Column{
		{Name: "id", Type: columnar.TypeBigInt, Position: 0},
		{Name: "name", Type: columnar.TypeVarchar, Position: 1},
		{Name: "phone", Type: columnar.TypeVarchar, Position: 2},
	}}
	to := columnar.Schema{Columns: []columnar.Column{
		{Name: "id", Type: columnar.TypeBigInt, Position: 0},
		{Name: "name", Type: columnar.TypeVarchar, Position: 1},
		{Name: "phone", Type: columnar.TypeBigInt, Position: 2},
		{Name: "email", Type: columnar.TypeVarchar, Position: 3},
	}}

	changes := DiffSchema(from, to)
	require.Len(t, changes.Added, 1)
	assert.Equal(t, "email", changes.Added[0].Name)
	require.Len(t, changes.TypeChanges, 1)
	assert.Equal(t, "phone", changes.TypeChanges[0].Column)
	assert.Empty(t, changes.Removed)
	assert.Empty(t, changes.Renamed)
}

func TestDiffSchema_OrderChange(t *testing.T) {
	from := schemaOf("a", "b", "c")
	to := schemaOf("b", "a", "c")

	changes := DiffSchema(from, to)
	assert.True(t, changes.OrderChanged)
	assert.Equal(t, []string{"a", "b", "c"}, changes.OrderBefore)
	assert.Equal(t, []string{"b", "a", "c"}, changes.OrderAfter)
}

func TestDiffSchema_Rename(t *testing.T) {
	from := columnar.Schema{Columns: []columnar.Column{
		{Name: "id", Type: columnar.TypeBigInt, Position: 0},
		{Name: "phone", Type: columnar.TypeVarchar, Position: 1},
	}}
	to := columnar.Schema{Columns: []columnar.Column{
		{Name: "id", Type: columnar.TypeBigInt, Position: 0},
		{Name: "mobile", Type: columnar.TypeVarchar, Position: 1},
	}}

	changes := DiffSchema(from, to)
	require.Len(t, changes.Renamed, 1)
	assert.Equal(t, "phone", changes.Renamed[0].From)
	assert.Equal(t, "mobile", changes.Renamed[0].To)
	assert.Empty(t, changes.Added)
	assert.Empty(t, changes.Removed)
}

func productsTable(rows ...columnar.Row) *columnar.Table {
	return &columnar.Table{
		Schema: columnar.Schema{Columns: []columnar.Column{
			{Name: "id", Type: columnar.TypeBigInt, Position: 0},
			{Name: "name", Type: columnar.TypeVarchar, Position: 1},
			{Name: "price", Type: columnar.TypeVarchar, Position: 2},
		}},
		Rows: rows,
	}
}

func TestDiffRows_ScenarioA(t *testing.T) {
	v1 := productsTable(
		columnar.Row{int64(1), "apple", "1.00"},
		columnar.Row{int64(2), "banana", "0.50"},
		columnar.Row{int64(3), "cherry", "2.00"},
	)
	v2 := productsTable(
		columnar.Row{int64(1), "apple", "1.20"},
		columnar.Row{int64(2), "banana", "0.50"},
		columnar.Row{int64(4), "date", "3.00"},
	)

	changes := DiffRows(v1, v2, nil)

	require.Len(t, changes.Modified, 1)
	assert.Equal(t, "1.00", changes.Modified[0].Changes["price"].Before)
	assert.Equal(t, "1.20", changes.Modified[0].Changes["price"].After)

	require.Len(t, changes.Added, 1)
	assert.Equal(t, int64(4), changes.Added[0].Data["id"])

	require.Len(t, changes.Removed, 1)
	assert.Equal(t, int64(3), changes.Removed[0].Data["id"])
}

func TestDiffRows_Positional(t *testing.T) {
	from := &columnar.Table{
		Schema: schemaOf("name"),
		Rows:   []columnar.Row{{"apple"}, {"banana"}},
	}
	to := &columnar.Table{
		Schema: schemaOf("name"),
		Rows:   []columnar.Row{{"apple"}, {"cherry"}, {"date"}},
	}

	changes := DiffRows(from, to, nil)
	require.Len(t, changes.Modified, 1)
	assert.Equal(t, 1, changes.Modified[0].RowIndex)
	require.Len(t, changes.Added, 1)
	assert.Equal(t, 2, changes.Added[0].RowIndex)
	assert.Empty(t, changes.Removed)
}
