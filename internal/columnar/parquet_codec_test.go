package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{Columns: []Column{
		{Name: "id", Type: TypeBigInt, Position: 0},
		{Name: "name", Type: TypeVarchar, Position: 1},
		{Name: "price", Type: TypeDouble, Position: 2},
		{Name: "active", Type: TypeBoolean, Position: 3, Nullable: true},
	}}
}

func TestWriteReadParquet_RoundTrip(t *testing.T) {
	schema := testSchema()
	table := &Table{
		Schema: schema,
		Rows: []Row{
			{int64(1), "apple", 1.0, true},
			{int64(2), "banana", 0.5, nil},
		},
	}

	data, err := WriteParquet(table)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := ReadParquet(data, schema)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)

	assert.Equal(t, int64(1), got.Rows[0][0])
	assert.Equal(t, "apple", got.Rows[0][1])
	assert.Equal(t, 1.0, got.Rows[0][2])
	assert.Equal(t, true, got.Rows[0][3])
	assert.Nil(t, got.Rows[1][3])
}

func TestWriteParquet_EmptyTable(t *testing.T) {
	schema := testSchema()
	table := &Table{Schema: schema}

	data, err := WriteParquet(table)
	require.NoError(t, err)

	got, err := ReadParquet(data, schema)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RowCount())
}

func TestSchema_HasIDColumn(t *testing.T) {
	assert.True(t, testSchema().HasIDColumn())
	noID := Schema{Columns: []Column{{Name: "name", Type: TypeVarchar}}}
	assert.False(t, noID.HasIDColumn())
}
