// Package query binds each requested source of a workspace to a logical SQL
// view over the union of its snapshot partitions, then executes arbitrary
// SQL against the embedded analytic engine. Since the engine is a plain
// SQLite connection rather than a format with native external-partition
// views, binding here means materializing the union as one table per
// source — behaviorally the same "union of partitions with snapshot_name
// and snapshot_timestamp columns" contract, built the way the embedded
// engine actually supports it.
package query

import (
	"context"
	"strings"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/engine"
	"github.com/snapbase/snapbase/internal/snaperr"
	"github.com/snapbase/snapbase/internal/snapstore"
)

// dataViewName is the shorthand view name exposed when a query binds
// exactly one source.
const dataViewName = "data"

// ViewName derives the logical view name for a source: path separators and
// the extension dot both become underscores, e.g. "orders.csv" ->
// "orders_csv", "ecommerce/users" -> "ecommerce_users". For sources with no
// extension (database tables, extensionless SQL scripts) the result is
// exactly the separator-joined key.
func ViewName(sourceKey string) string {
	return strings.NewReplacer("/", "_", ".", "_").Replace(sourceKey)
}

// Engine is the subset of internal/engine.Engine the binder needs, kept as
// an interface so binder tests can substitute a fake without spinning up a
// real SQLite connection.
type Engine interface {
	LoadTable(ctx context.Context, tableName string, table *columnar.Table) error
	Query(ctx context.Context, query string) (*columnar.Table, error)
}

// Source describes one workspace source available for query binding.
type Source struct {
	Key string
}

// Binder materializes each source's snapshot union into its engine and
// executes SQL against the resulting tables.
type Binder struct {
	store *snapstore.Store
	eng   Engine
}

// New creates a Binder over store (for reading committed partitions) and
// eng (the analytic engine instance the tables are loaded into;
// workspace.Query opens a fresh one per call).
func New(store *snapstore.Store, eng Engine) *Binder {
	return &Binder{store: store, eng: eng}
}

// BindSource loads sourceKey's matching partitions into the engine under
// its derived view name, appending snapshot_name/snapshot_timestamp to
// every row. singleSource additionally exposes the table under the "data"
// shorthand, per the single-source query convenience.
func (b *Binder) BindSource(ctx context.Context, src Source, snapshotFilter string, singleSource bool) error {
	partitions, err := b.store.IterPartitions(ctx, src.Key)
	if err != nil {
		return err
	}
	selected, err := filterPartitions(partitions, snapshotFilter)
	if err != nil {
		return err
	}

	combined, err := b.unionPartitions(ctx, src.Key, selected)
	if err != nil {
		return err
	}

	viewName := ViewName(src.Key)
	if err := b.eng.LoadTable(ctx, viewName, combined); err != nil {
		return err
	}
	if singleSource {
		if err := b.eng.LoadTable(ctx, dataViewName, combined); err != nil {
			return err
		}
	}
	return nil
}

func (b *Binder) unionPartitions(ctx context.Context, sourceKey string, partitions []snapstore.Partition) (*columnar.Table, error) {
	var combined *columnar.Table
	for _, p := range partitions {
		snap, err := b.store.Resolve(ctx, sourceKey, p.Name)
		if err != nil {
			return nil, err
		}
		table, err := b.store.ReadData(ctx, snap)
		if err != nil {
			return nil, err
		}
		withPartitionCols := appendPartitionColumns(table, p)
		if combined == nil {
			combined = withPartitionCols
			continue
		}
		combined.Rows = append(combined.Rows, withPartitionCols.Rows...)
	}
	if combined == nil {
		combined = &columnar.Table{Schema: columnar.Schema{Columns: []columnar.Column{
			{Name: "snapshot_name", Type: columnar.TypeVarchar, Position: 0},
			{Name: "snapshot_timestamp", Type: columnar.TypeTimestamp, Position: 1},
		}}}
	}
	return combined, nil
}

func appendPartitionColumns(table *columnar.Table, p snapstore.Partition) *columnar.Table {
	cols := make([]columnar.Column, len(table.Schema.Columns)+2)
	copy(cols, table.Schema.Columns)
	nameIdx := len(table.Schema.Columns)
	tsIdx := nameIdx + 1
	cols[nameIdx] = columnar.Column{Name: "snapshot_name", Type: columnar.TypeVarchar, Position: nameIdx}
	cols[tsIdx] = columnar.Column{Name: "snapshot_timestamp", Type: columnar.TypeTimestamp, Position: tsIdx}

	out := &columnar.Table{Schema: columnar.Schema{Columns: cols}}
	for _, row := range table.Rows {
		newRow := make(columnar.Row, len(row)+2)
		copy(newRow, row)
		newRow[nameIdx] = p.Name
		newRow[tsIdx] = p.Timestamp.UTC().Format("2006-01-02T15:04:05Z")
		out.Rows = append(out.Rows, newRow)
	}
	return out
}

// filterPartitions restricts partitions per the snapshot_filter contract:
// absent or "*" -> all; literal name -> exactly one; "latest" -> the most
// recent; glob (contains * or ?) -> every matching name.
func filterPartitions(partitions []snapstore.Partition, filter string) ([]snapstore.Partition, error) {
	if filter == "" || filter == "*" {
		return partitions, nil
	}
	if filter == "latest" {
		if len(partitions) == 0 {
			return nil, nil
		}
		return partitions[len(partitions)-1:], nil
	}
	if strings.ContainsAny(filter, "*?") {
		var out []snapstore.Partition
		for _, p := range partitions {
			if globMatch(filter, p.Name) {
				out = append(out, p)
			}
		}
		return out, nil
	}
	for _, p := range partitions {
		if p.Name == filter {
			return []snapstore.Partition{p}, nil
		}
	}
	return nil, nil
}

func globMatch(pattern, name string) bool {
	return globMatchRunes([]rune(pattern), []rune(name))
}

func globMatchRunes(pattern, name []rune) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	switch pattern[0] {
	case '*':
		if globMatchRunes(pattern[1:], name) {
			return true
		}
		for i := 0; i < len(name); i++ {
			if globMatchRunes(pattern[1:], name[i+1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(name) == 0 {
			return false
		}
		return globMatchRunes(pattern[1:], name[1:])
	default:
		if len(name) == 0 || name[0] != pattern[0] {
			return false
		}
		return globMatchRunes(pattern[1:], name[1:])
	}
}

// Execute binds every source, then runs sql against the resulting tables.
func (b *Binder) Execute(ctx context.Context, sources []Source, sql, snapshotFilter string) (*columnar.Table, error) {
	if len(sql) == 0 {
		return nil, snaperr.NewConfigInvalid("query text must not be empty")
	}
	singleSource := len(sources) == 1
	for _, src := range sources {
		if err := b.BindSource(ctx, src, snapshotFilter, singleSource); err != nil {
			return nil, err
		}
	}
	return b.eng.Query(ctx, sql)
}
