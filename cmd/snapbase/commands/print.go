package commands

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/export"
)

// printChangeRecord renders a schema+row diff in the compact summary form
// used by both diff and status.
func printChangeRecord(record *export.ChangeRecord) {
	schema := record.Schema
	if schema.Empty() {
		fmt.Println("schema: unchanged")
	} else {
		fmt.Println("schema:")
		for _, c := range schema.Added {
			fmt.Printf("  + %s (%s)\n", c.Name, c.DataType)
		}
		for _, c := range schema.Removed {
			fmt.Printf("  - %s (%s)\n", c.Name, c.DataType)
		}
		for _, r := range schema.Renamed {
			fmt.Printf("  ~ %s -> %s\n", r.From, r.To)
		}
		for _, tc := range schema.TypeChanges {
			fmt.Printf("  ~ %s: %s -> %s\n", tc.Column, tc.From, tc.To)
		}
		if schema.OrderChanged {
			fmt.Printf("  order changed: %v -> %v\n", schema.OrderBefore, schema.OrderAfter)
		}
	}

	rows := record.Rows
	fmt.Printf("rows: %d added, %d removed, %d modified\n", len(rows.Added), len(rows.Removed), len(rows.Modified))
	for _, a := range rows.Added {
		fmt.Printf("  + [%d] %v\n", a.RowIndex, a.Data)
	}
	for _, r := range rows.Removed {
		fmt.Printf("  - [%d] %v\n", r.RowIndex, r.Data)
	}
	for _, m := range rows.Modified {
		fmt.Printf("  ~ [%d] %v\n", m.RowIndex, m.Changes)
	}
}
