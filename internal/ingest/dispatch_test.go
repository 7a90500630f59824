package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile_CSV(t *testing.T) {
	path := writeTemp(t, "orders.csv", "id,name\n1,apple\n2,banana\n")
	table, format, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, int64(1), table.Rows[0][0])
}

func TestReadFile_CSVWithTabDelimiterSniffed(t *testing.T) {
	path := writeTemp(t, "orders.csv", "id\tname\n1\tapple\n2\tbanana\n")
	table, format, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)
	require.Len(t, table.Schema.Columns, 2)
	assert.Equal(t, "name", table.Schema.Columns[1].Name)
}

func TestReadFile_NDJSON(t *testing.T) {
	path := writeTemp(t, "events.ndjson", "{\"id\":1}\n{\"id\":2}\n")
	table, format, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatNDJSON, format)
	assert.Len(t, table.Rows, 2)
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "notes.txt", "hello")
	_, _, err := ReadFile(path)
	require.Error(t, err)
}
