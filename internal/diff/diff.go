// Package diff computes the structured change record between two
// snapshots of the same source: a schema diff over column definitions and
// a row diff over cell values, using either id-column or positional row
// identity.
package diff

import (
	"fmt"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/logging"
)

// ColumnAdded describes a column present only in "to".
type ColumnAdded struct {
	Name     string
	DataType columnar.DataType
	Position int
	Nullable bool
}

// ColumnRemoved describes a column present only in "from".
type ColumnRemoved struct {
	Name     string
	DataType columnar.DataType
	Position int
	Nullable bool
}

// ColumnRenamed describes a column that kept its position and type but
// changed name between from and to.
type ColumnRenamed struct {
	From string
	To   string
}

// TypeChange describes a column whose data type changed between snapshots.
type TypeChange struct {
	Column string
	From   columnar.DataType
	To     columnar.DataType
}

// SchemaChanges is the full structured schema diff. OrderChanged is false
// and OrderBefore/OrderAfter are nil unless both snapshots share the same
// column-name set in a different order.
type SchemaChanges struct {
	OrderBefore []string
	OrderAfter  []string
	OrderChanged bool
	Added       []ColumnAdded
	Removed     []ColumnRemoved
	Renamed     []ColumnRenamed
	TypeChanges []TypeChange
}

func (s SchemaChanges) Empty() bool {
	return !s.OrderChanged && len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Renamed) == 0 && len(s.TypeChanges) == 0
}

// DiffSchema aligns from/to by column name and position, per §4.6.1's
// matching policy: a name present only in "to" paired with a name present
// only in "from" at the same position and a compatible type is a rename;
// otherwise each is an independent add/remove.
func DiffSchema(from, to columnar.Schema) SchemaChanges {
	fromByName := map[string]columnar.Column{}
	for _, c := range from.Columns {
		fromByName[c.Name] = c
	}
	toByName := map[string]columnar.Column{}
	for _, c := range to.Columns {
		toByName[c.Name] = c
	}

	var onlyFrom, onlyTo []columnar.Column
	for _, c := range from.Columns {
		if _, ok := toByName[c.Name]; !ok {
			onlyFrom = append(onlyFrom, c)
		}
	}
	for _, c := range to.Columns {
		if _, ok := fromByName[c.Name]; !ok {
			onlyTo = append(onlyTo, c)
		}
	}

	var changes SchemaChanges
	matchedFrom := map[string]bool{}
	matchedTo := map[string]bool{}
	for _, f := range onlyFrom {
		for _, t := range onlyTo {
			if matchedTo[t.Name] {
				continue
			}
			if f.Position == t.Position && f.Type == t.Type {
				changes.Renamed = append(changes.Renamed, ColumnRenamed{From: f.Name, To: t.Name})
				matchedFrom[f.Name] = true
				matchedTo[t.Name] = true
				break
			}
		}
	}
	for _, f := range onlyFrom {
		if !matchedFrom[f.Name] {
			changes.Removed = append(changes.Removed, ColumnRemoved{Name: f.Name, DataType: f.Type, Position: f.Position, Nullable: f.Nullable})
		}
	}
	for _, t := range onlyTo {
		if !matchedTo[t.Name] {
			changes.Added = append(changes.Added, ColumnAdded{Name: t.Name, DataType: t.Type, Position: t.Position, Nullable: t.Nullable})
		}
	}

	for name, fc := range fromByName {
		tc, ok := toByName[name]
		if !ok {
			continue
		}
		if fc.Position == tc.Position && fc.Type != tc.Type {
			changes.TypeChanges = append(changes.TypeChanges, TypeChange{Column: name, From: fc.Type, To: tc.Type})
		}
	}

	if sameColumnSet(from, to) && !sameOrder(from, to) {
		changes.OrderChanged = true
		changes.OrderBefore = from.Names()
		changes.OrderAfter = to.Names()
	}

	return changes
}

func sameColumnSet(from, to columnar.Schema) bool {
	if len(from.Columns) != len(to.Columns) {
		return false
	}
	names := map[string]bool{}
	for _, c := range from.Columns {
		names[c.Name] = true
	}
	for _, c := range to.Columns {
		if !names[c.Name] {
			return false
		}
	}
	return true
}

func sameOrder(from, to columnar.Schema) bool {
	for i := range from.Columns {
		if from.Columns[i].Name != to.Columns[i].Name {
			return false
		}
	}
	return true
}

// RowModified is a row present in both snapshots with at least one
// changed cell.
type RowModified struct {
	RowIndex int
	Changes  map[string]CellChange
}

// CellChange is one column's before/after value.
type CellChange struct {
	Before interface{}
	After  interface{}
}

// RowAdded is a row present only in "to".
type RowAdded struct {
	RowIndex int
	Data     map[string]interface{}
}

// RowRemoved is a row present only in "from".
type RowRemoved struct {
	RowIndex int
	Data     map[string]interface{}
}

// RowChanges is the full row diff, each list ordered by row_index
// ascending.
type RowChanges struct {
	Modified []RowModified
	Added    []RowAdded
	Removed  []RowRemoved
}

// DiffRows aligns from/to rows by id column when both schemas have one (per
// Schema.HasIDColumn), otherwise positionally, and classifies each aligned pair
// as modified/added/removed. Columns added or removed at the schema level
// are excluded from cell changes; they belong to the schema diff only.
func DiffRows(from, to *columnar.Table, logger *logging.Logger) RowChanges {
	shared := sharedColumns(from.Schema, to.Schema)

	idCol := ""
	if from.Schema.HasIDColumn() && to.Schema.HasIDColumn() {
		idCol = "id"
	}

	var changes RowChanges
	if idCol != "" {
		changes = diffByID(from, to, shared, idCol, logger)
	} else {
		changes = diffPositional(from, to, shared)
	}
	return changes
}

func sharedColumns(from, to columnar.Schema) []string {
	toSet := map[string]bool{}
	for _, c := range to.Columns {
		toSet[c.Name] = true
	}
	var out []string
	for _, c := range from.Columns {
		if toSet[c.Name] {
			out = append(out, c.Name)
		}
	}
	return out
}

func rowMap(table *columnar.Table, rowIdx int) map[string]interface{} {
	return table.AsMap(rowIdx)
}

func diffPositional(from, to *columnar.Table, shared []string) RowChanges {
	var changes RowChanges
	max := len(from.Rows)
	if len(to.Rows) > max {
		max = len(to.Rows)
	}
	for i := 0; i < max; i++ {
		switch {
		case i >= len(from.Rows):
			changes.Added = append(changes.Added, RowAdded{RowIndex: i, Data: rowMap(to, i)})
		case i >= len(to.Rows):
			changes.Removed = append(changes.Removed, RowRemoved{RowIndex: i, Data: rowMap(from, i)})
		default:
			if cellChanges := diffCells(from.AsMap(i), to.AsMap(i), shared); len(cellChanges) > 0 {
				changes.Modified = append(changes.Modified, RowModified{RowIndex: i, Changes: cellChanges})
			}
		}
	}
	return changes
}

func diffByID(from, to *columnar.Table, shared []string, idCol string, logger *logging.Logger) RowChanges {
	idIdx := from.Schema.IndexOf(idCol)
	toIDIdx := to.Schema.IndexOf(idCol)

	fromByID := map[interface{}]int{}
	for i, row := range from.Rows {
		id := row[idIdx]
		if _, dup := fromByID[id]; dup && logger != nil {
			logger.Warn(fmt.Sprintf("duplicate id %v in baseline snapshot; later row wins", id))
		}
		fromByID[id] = i
	}
	toByID := map[interface{}]int{}
	for i, row := range to.Rows {
		id := row[toIDIdx]
		if _, dup := toByID[id]; dup && logger != nil {
			logger.Warn(fmt.Sprintf("duplicate id %v in target snapshot; later row wins", id))
		}
		toByID[id] = i
	}

	var changes RowChanges
	for id, toIdx := range toByID {
		if fromIdx, ok := fromByID[id]; ok {
			if cellChanges := diffCells(from.AsMap(fromIdx), to.AsMap(toIdx), shared); len(cellChanges) > 0 {
				changes.Modified = append(changes.Modified, RowModified{RowIndex: toIdx, Changes: cellChanges})
			}
		} else {
			changes.Added = append(changes.Added, RowAdded{RowIndex: toIdx, Data: rowMap(to, toIdx)})
		}
	}
	for id, fromIdx := range fromByID {
		if _, ok := toByID[id]; !ok {
			changes.Removed = append(changes.Removed, RowRemoved{RowIndex: fromIdx, Data: rowMap(from, fromIdx)})
		}
	}

	sortRowChanges(&changes)
	return changes
}

func diffCells(fromRow, toRow map[string]interface{}, shared []string) map[string]CellChange {
	out := map[string]CellChange{}
	for _, col := range shared {
		fv := fromRow[col]
		tv := toRow[col]
		if !cellEqual(fv, tv) {
			out[col] = CellChange{Before: fv, After: tv}
		}
	}
	return out
}

// cellEqual compares under canonical types: textual null and empty string
// are distinct, and floats compare bit-equal (no epsilon tolerance).
func cellEqual(a, b interface{}) bool {
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}

func sortRowChanges(changes *RowChanges) {
	insertionSortModified(changes.Modified)
	insertionSortAdded(changes.Added)
	insertionSortRemoved(changes.Removed)
}

func insertionSortModified(rows []RowModified) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].RowIndex < rows[j-1].RowIndex; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func insertionSortAdded(rows []RowAdded) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].RowIndex < rows[j-1].RowIndex; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func insertionSortRemoved(rows []RowRemoved) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].RowIndex < rows[j-1].RowIndex; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}
