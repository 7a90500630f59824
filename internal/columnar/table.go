// Package columnar defines Snapbase's canonical in-memory representation of
// a dataset: an ordered Schema plus Rows. Every ingestion format converges
// on a Table before it is written to data.parquet; the change-detection and
// export components operate on Table values read back from storage.
package columnar

import "fmt"

// DataType is spelled in the analytic engine's canonical type vocabulary.
type DataType string

const (
	TypeVarchar   DataType = "VARCHAR"
	TypeBigInt    DataType = "BIGINT"
	TypeDouble    DataType = "DOUBLE"
	TypeBoolean   DataType = "BOOLEAN"
	TypeDate      DataType = "DATE"
	TypeTimestamp DataType = "TIMESTAMP"
)

// Column describes one field of a Schema.
type Column struct {
	Name     string
	Type     DataType
	Nullable bool
	Position int
}

// Schema is the ordered list of columns for one snapshot.
type Schema struct {
	Columns []Column
}

// IndexOf returns the position of the named column, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasIDColumn reports whether the schema contains a column literally named
// "id", which selects the id-based row-identity policy.
func (s Schema) HasIDColumn() bool {
	return s.IndexOf("id") >= 0
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s Schema) String() string {
	return fmt.Sprintf("Schema(%d columns)", len(s.Columns))
}

// Row is one record, positionally aligned with Schema.Columns. Values are
// typed Go values (string, int64, float64, bool, or nil for NULL).
type Row []interface{}

// Table is Snapbase's canonical columnar payload: a schema plus the rows it
// describes, exactly what is serialized to data.parquet and read back for
// diff, query and export.
type Table struct {
	Schema Schema
	Rows   []Row
}

// RowCount returns the number of rows in the table.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// AsMap converts row i into a column-name -> value map, the shape change
// records use for added/removed row payloads.
func (t *Table) AsMap(i int) map[string]interface{} {
	row := t.Rows[i]
	m := make(map[string]interface{}, len(t.Schema.Columns))
	for idx, c := range t.Schema.Columns {
		if idx < len(row) {
			m[c.Name] = row[idx]
		}
	}
	return m
}
