package columnar

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/parquet-go/parquet-go"
)

// goTypeFor returns the physical Go type used to store a column's values.
// DATE and TIMESTAMP are stored as their textual (RFC3339 / date-only)
// representation: the canonical data_type recorded in metadata.json is
// what callers rely on for type identity, so the parquet physical layout
// only needs to round-trip bytes faithfully, not carry its own logical
// date/timestamp annotation.
func goTypeFor(t DataType) reflect.Type {
	switch t {
	case TypeBigInt:
		return reflect.TypeOf(int64(0))
	case TypeDouble:
		return reflect.TypeOf(float64(0))
	case TypeBoolean:
		return reflect.TypeOf(false)
	default: // VARCHAR, DATE, TIMESTAMP
		return reflect.TypeOf("")
	}
}

// rowStructType builds a struct type with one exported field per schema
// column, tagged so parquet-go derives the on-disk schema from it.
// Nullable columns use pointer fields so a NULL round-trips as a nil
// pointer rather than a zero value.
func rowStructType(schema Schema) reflect.Type {
	fields := make([]reflect.StructField, len(schema.Columns))
	for i, col := range schema.Columns {
		fieldType := goTypeFor(col.Type)
		tag := col.Name
		if col.Nullable {
			fieldType = reflect.PointerTo(fieldType)
			tag += ",optional"
		}
		fields[i] = reflect.StructField{
			Name: fmt.Sprintf("Col%d", i),
			Type: fieldType,
			Tag:  reflect.StructTag(fmt.Sprintf(`parquet:"%s"`, tag)),
		}
	}
	return reflect.StructOf(fields)
}

// WriteParquet serializes table to Parquet bytes using a struct type
// derived from its schema, so the physical file carries column names and
// nullability without requiring a compile-time Go type per source.
func WriteParquet(table *Table) ([]byte, error) {
	structType := rowStructType(table.Schema)
	schema := parquet.SchemaOf(reflect.New(structType).Interface())

	var buf bytes.Buffer
	writer := parquet.NewWriter(&buf, schema)

	for _, row := range table.Rows {
		rv := reflect.New(structType).Elem()
		for i, col := range table.Schema.Columns {
			if err := setFieldValue(rv.Field(i), col, row); err != nil {
				return nil, fmt.Errorf("column %q row value: %w", col.Name, err)
			}
		}
		if _, err := writer.Write(rv.Addr().Interface()); err != nil {
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize parquet file: %w", err)
	}
	return buf.Bytes(), nil
}

func setFieldValue(field reflect.Value, col Column, row Row) error {
	var value interface{}
	if col.Position < len(row) {
		value = row[col.Position]
	}

	if value == nil {
		if !col.Nullable {
			return fmt.Errorf("nil value for non-nullable column %q", col.Name)
		}
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	base := goTypeFor(col.Type)
	converted, err := convertTo(value, base)
	if err != nil {
		return err
	}

	if col.Nullable {
		ptr := reflect.New(base)
		ptr.Elem().Set(converted)
		field.Set(ptr)
	} else {
		field.Set(converted)
	}
	return nil
}

func convertTo(value interface{}, target reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(value)
	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("value %v (%T) is not convertible to %s", value, value, target)
}

// ReadParquet deserializes Parquet bytes written by WriteParquet back into
// a Table matching schema. schema must be the one recorded in the
// snapshot's metadata.json — Parquet files carry their own schema, but
// Snapbase treats metadata.json as the authoritative source for column
// order, nullability and canonical type, consistent with §3's ownership
// rule.
func ReadParquet(data []byte, schema Schema) (*Table, error) {
	structType := rowStructType(schema)
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	reader := parquet.NewReader(file, parquet.SchemaOf(reflect.New(structType).Interface()))
	defer reader.Close()

	table := &Table{Schema: schema}
	for {
		rowPtr := reflect.New(structType)
		if err := reader.Read(rowPtr.Interface()); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read parquet row: %w", err)
		}
		rv := rowPtr.Elem()
		row := make(Row, len(schema.Columns))
		for i := range schema.Columns {
			row[i] = extractFieldValue(rv.Field(i))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func extractFieldValue(field reflect.Value) interface{} {
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return nil
		}
		return field.Elem().Interface()
	}
	return field.Interface()
}
