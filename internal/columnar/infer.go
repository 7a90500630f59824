package columnar

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ReadParquetInferSchema reads a raw Parquet file (e.g. a tracked .parquet
// source being ingested fresh, as opposed to a snapshot's data.parquet
// whose schema is already known from metadata.json) and derives a Schema
// from the file's own column definitions.
func ReadParquetInferSchema(data []byte) (*Table, error) {
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	fields := file.Schema().Fields()
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{
			Name:     f.Name(),
			Type:     dataTypeForKind(f.Type().Kind()),
			Nullable: f.Optional(),
			Position: i,
		}
	}
	schema := Schema{Columns: cols}
	return ReadParquet(data, schema)
}

func dataTypeForKind(kind parquet.Kind) DataType {
	switch kind {
	case parquet.Boolean:
		return TypeBoolean
	case parquet.Int32, parquet.Int64:
		return TypeBigInt
	case parquet.Float, parquet.Double:
		return TypeDouble
	default: // ByteArray, FixedLenByteArray, Int96 and anything else
		return TypeVarchar
	}
}
