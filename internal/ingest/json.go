package ingest

import (
	"bufio"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/snapbase/snapbase/internal/columnar"
)

// ReadJSON reads either a single JSON document (an array of objects, or one
// object treated as a single row) or newline-delimited JSON records,
// flattening nested objects with "." separators and inferring a schema
// from the union of keys seen across all rows.
//
// encoding/json is used for the same reason as encoding/csv: no
// third-party JSON library appears anywhere in the retrieved pack.
func ReadJSON(r io.Reader, ndjson bool) (*columnar.Table, error) {
	var records []map[string]interface{}

	if ndjson {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				return nil, err
			}
			records = append(records, obj)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	} else {
		dec := json.NewDecoder(r)
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return &columnar.Table{}, nil
			}
			return nil, err
		}
		switch v := raw.(type) {
		case []interface{}:
			for _, item := range v {
				if obj, ok := item.(map[string]interface{}); ok {
					records = append(records, obj)
				}
			}
		case map[string]interface{}:
			records = append(records, v)
		}
	}

	flat := make([]map[string]interface{}, len(records))
	columnSet := map[string]bool{}
	var columnOrder []string
	for i, rec := range records {
		f := map[string]interface{}{}
		flattenInto(f, "", rec)
		flat[i] = f
		for k := range f {
			if !columnSet[k] {
				columnSet[k] = true
				columnOrder = append(columnOrder, k)
			}
		}
	}
	sort.Strings(columnOrder)

	cols := make([]columnar.Column, len(columnOrder))
	for i, name := range columnOrder {
		cols[i] = columnar.Column{Name: name, Type: inferJSONType(flat, name), Nullable: true, Position: i}
	}
	schema := columnar.Schema{Columns: cols}

	table := &columnar.Table{Schema: schema}
	for _, f := range flat {
		row := make(columnar.Row, len(cols))
		for i, col := range cols {
			row[i] = coerceJSONValue(f[col.Name], col.Type)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// flattenInto recursively flattens nested objects with "." separators.
// Arrays are left as-is (stored via their JSON value) since they don't
// have a natural single-column flattening.
func flattenInto(out map[string]interface{}, prefix string, obj map[string]interface{}) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

func inferJSONType(rows []map[string]interface{}, column string) columnar.DataType {
	sawInt, sawFloat, sawBool, sawString, sawValue := true, true, true, true, false
	for _, row := range rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		sawValue = true
		switch v.(type) {
		case bool:
			sawInt, sawFloat, sawString = false, false, false
		case float64:
			sawBool, sawString = false, false
			if f := v.(float64); f != float64(int64(f)) {
				sawInt = false
			}
		case string:
			sawInt, sawFloat, sawBool = false, false, false
		default:
			sawInt, sawFloat, sawBool, sawString = false, false, false, false
		}
	}
	switch {
	case !sawValue:
		return columnar.TypeVarchar
	case sawBool:
		return columnar.TypeBoolean
	case sawInt:
		return columnar.TypeBigInt
	case sawFloat:
		return columnar.TypeDouble
	case sawString:
		return columnar.TypeVarchar
	default:
		return columnar.TypeVarchar
	}
}

func coerceJSONValue(v interface{}, dataType columnar.DataType) interface{} {
	if v == nil {
		return nil
	}
	switch dataType {
	case columnar.TypeBigInt:
		if f, ok := v.(float64); ok {
			return int64(f)
		}
	case columnar.TypeDouble:
		if f, ok := v.(float64); ok {
			return f
		}
	case columnar.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b
		}
	}
	if s, ok := v.(string); ok {
		return s
	}
	// Fallback for values that don't fit the inferred column type (mixed
	// arrays of objects, nested arrays left unflattened): serialize back
	// to JSON text rather than dropping data.
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}
