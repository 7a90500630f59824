// Package snapstore lays out partitioned snapshot artifacts, enforces
// (source, snapshot_name) uniqueness via the claim-marker protocol, and
// resolves snapshot references ("latest", a glob, a date, or a literal
// name) to the partition the query and diff components read from.
package snapstore

import (
	"encoding/json"
	"time"

	"github.com/snapbase/snapbase/internal/columnar"
)

// SourceInfo is the "source" object inside metadata.json.
type SourceInfo struct {
	Key       string `json:"key"`
	Format    string `json:"format"`
	ByteSize  uint64 `json:"byte_size"`
	RowCount  uint64 `json:"row_count"`
	HasIDCol  bool   `json:"has_id_column"`
}

// ColumnMetadata is one entry of the "schema" array in metadata.json.
type ColumnMetadata struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
	Position uint32 `json:"position"`
}

// Metadata is the full metadata.json document written last during
// finalize, after data.parquet, so a reader that finds no metadata.json
// treats the partition as uncommitted.
type Metadata struct {
	SnapshotName string           `json:"snapshot_name"`
	CreatedUTC   time.Time        `json:"created_utc"`
	Source       SourceInfo       `json:"source"`
	Schema       []ColumnMetadata `json:"schema"`
	// CompressedByteCount supplements the base schema with the zstd
	// size estimate of data.parquet (its raw byte size when the estimate
	// fails), useful for cleanup/compaction accounting; it is
	// not part of the type-identity contract callers rely on.
	CompressedByteCount uint64 `json:"compressed_byte_count,omitempty"`
}

// ToColumnarSchema converts the persisted column list back into a
// columnar.Schema for reading data.parquet.
func (m Metadata) ToColumnarSchema() columnar.Schema {
	cols := make([]columnar.Column, len(m.Schema))
	for i, c := range m.Schema {
		cols[i] = columnar.Column{
			Name:     c.Name,
			Type:     columnar.DataType(c.DataType),
			Nullable: c.Nullable,
			Position: int(c.Position),
		}
	}
	return columnar.Schema{Columns: cols}
}

// MetadataFromTable builds a Metadata record for a freshly ingested table.
func MetadataFromTable(name, sourceKey, format string, byteSize uint64, createdUTC time.Time, table *columnar.Table, compressedSize uint64) Metadata {
	schema := make([]ColumnMetadata, len(table.Schema.Columns))
	for i, c := range table.Schema.Columns {
		schema[i] = ColumnMetadata{Name: c.Name, DataType: string(c.Type), Nullable: c.Nullable, Position: uint32(c.Position)}
	}
	return Metadata{
		SnapshotName: name,
		CreatedUTC:   createdUTC.UTC(),
		Source: SourceInfo{
			Key:      sourceKey,
			Format:   format,
			ByteSize: byteSize,
			RowCount: uint64(table.RowCount()),
			HasIDCol: table.Schema.HasIDColumn(),
		},
		Schema:              schema,
		CompressedByteCount: compressedSize,
	}
}

func (m Metadata) marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func unmarshalMetadata(data []byte) (Metadata, error) {
	var m Metadata
	err := json.Unmarshal(data, &m)
	return m, err
}
