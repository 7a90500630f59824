package ingest

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/xuri/excelize/v2"
)

// ReadSpreadsheet reads the active sheet of an XLS/XLSX workbook, treating
// the first row as the header, and reuses the same type-inference pass as
// ReadCSV since a spreadsheet's cells are exposed by excelize as strings.
func ReadSpreadsheet(path string) (*columnar.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &columnar.Table{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &columnar.Table{}, nil
	}

	header := rows[0]
	dataRows := rows[1:]

	schema := inferCSVSchema(header, dataRows)
	table := &columnar.Table{Schema: schema}
	for _, record := range dataRows {
		row := make(columnar.Row, len(schema.Columns))
		for i, col := range schema.Columns {
			var raw string
			if i < len(record) {
				raw = record[i]
			}
			row[i] = coerceCSVValue(raw, col.Type)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
