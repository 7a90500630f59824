// Package engine wraps the embedded columnar analytic engine shared by
// ingestion, query and export: each Open creates a private instance, used
// to execute arbitrary SQL over tables loaded from snapshot partitions.
// workspace.Query opens one per call; no instance is shared across a
// workspace's operations.
//
// DuckDB is the engine named by the retrieved pack's go.mod manifests for
// this role, but no Go DuckDB binding was found anywhere in the retrieved
// pack or its dependency lists. modernc.org/sqlite is substituted instead:
// it is a real dependency declared by a repo in the pack
// (kasuganosora-sqlexec), it is pure Go (no cgo, so it stays portable
// across the same targets the rest of this module supports), and it gives
// every workspace a real embedded SQL engine rather than a hand-rolled
// query interpreter.
package engine

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/logging"
	"github.com/snapbase/snapbase/internal/snaperr"
)

// Engine owns one in-memory SQLite connection used to materialize
// snapshot partitions as tables and run workspace queries against them.
type Engine struct {
	db     *sql.DB
	logger *logging.Logger
}

// Open creates a new engine instance backed by a private in-memory
// database. Each workspace operation that needs to query gets its own
// Engine so that concurrent read queries never contend on table
// definitions from another operation. The DSN deliberately omits
// cache=shared: that mode keys its in-memory database by URI, so any two
// Engine instances opened with the same shared URI would see each other's
// loaded tables instead of getting isolated instances.
func Open(ctx context.Context) (*Engine, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open embedded engine: %w", err)
	}
	db.SetMaxOpenConns(1) // in-memory SQLite is single-connection safe
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping embedded engine: %w", err)
	}
	return &Engine{db: db, logger: logging.GetLogger("engine")}, nil
}

// Close releases the underlying connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

func sqliteType(t columnar.DataType) string {
	switch t {
	case columnar.TypeBigInt:
		return "INTEGER"
	case columnar.TypeDouble:
		return "REAL"
	case columnar.TypeBoolean:
		return "INTEGER"
	default: // VARCHAR, DATE, TIMESTAMP
		return "TEXT"
	}
}

// LoadTable creates tableName (dropping any prior definition) and bulk
// inserts every row of table into it, within a single transaction so
// concurrent readers never see a partially loaded table.
func (e *Engine) LoadTable(ctx context.Context, tableName string, table *columnar.Table) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, tableName)); err != nil {
		return fmt.Errorf("drop existing %q: %w", tableName, err)
	}

	var ddl string
	for i, col := range table.Schema.Columns {
		if i > 0 {
			ddl += ", "
		}
		ddl += fmt.Sprintf(`"%s" %s`, col.Name, sqliteType(col.Type))
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE "%s" (%s)`, tableName, ddl)); err != nil {
		return fmt.Errorf("create table %q: %w", tableName, err)
	}

	if len(table.Rows) > 0 {
		placeholders := ""
		for i := range table.Schema.Columns {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
		}
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO "%s" VALUES (%s)`, tableName, placeholders))
		if err != nil {
			return fmt.Errorf("prepare insert into %q: %w", tableName, err)
		}
		defer stmt.Close()

		for _, row := range table.Rows {
			args := make([]interface{}, len(row))
			copy(args, row)
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert row into %q: %w", tableName, err)
			}
		}
	}

	return tx.Commit()
}

// Query runs sql against whatever tables have been loaded and returns the
// result as a columnar.Table, inferring the result schema from the
// driver's reported column types.
func (e *Engine) Query(ctx context.Context, query string) (*columnar.Table, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, snaperr.NewQueryFailed(err, err.Error())
	}
	defer rows.Close()

	return RowsToTable(rows)
}

// RowsToTable drains a *sql.Rows into a columnar.Table, shared by the
// embedded engine and by live-database ingestion so both paths agree on
// how SQL result types map onto the canonical type vocabulary.
func RowsToTable(rows *sql.Rows) (*columnar.Table, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, snaperr.NewQueryFailed(err, "inspect result column types")
	}
	schema := columnar.Schema{Columns: make([]columnar.Column, len(colTypes))}
	for i, ct := range colTypes {
		nullable, _ := ct.Nullable()
		schema.Columns[i] = columnar.Column{
			Name:     ct.Name(),
			Type:     canonicalType(ct.DatabaseTypeName()),
			Nullable: nullable,
			Position: i,
		}
	}

	table := &columnar.Table{Schema: schema}
	scanDest := make([]interface{}, len(colTypes))
	scanVals := make([]interface{}, len(colTypes))
	for i := range scanDest {
		scanDest[i] = &scanVals[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, snaperr.NewQueryFailed(err, "scan result row")
		}
		row := make(columnar.Row, len(scanVals))
		for i, v := range scanVals {
			row[i] = normalizeScanned(v, schema.Columns[i].Type)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, snaperr.NewQueryFailed(err, "iterate result rows")
	}
	return table, nil
}

func canonicalType(driverType string) columnar.DataType {
	switch driverType {
	case "INTEGER", "INT", "BIGINT", "INT8":
		return columnar.TypeBigInt
	case "REAL", "DOUBLE", "FLOAT", "NUMERIC", "DECIMAL":
		return columnar.TypeDouble
	case "BOOLEAN", "BOOL":
		return columnar.TypeBoolean
	case "DATE":
		return columnar.TypeDate
	case "TIMESTAMP", "DATETIME":
		return columnar.TypeTimestamp
	default:
		return columnar.TypeVarchar
	}
}

func normalizeScanned(v interface{}, dataType columnar.DataType) interface{} {
	if v == nil {
		return nil
	}
	switch b := v.(type) {
	case []byte:
		s := string(b)
		switch dataType {
		case columnar.TypeBigInt:
			var i int64
			if _, err := fmt.Sscanf(s, "%d", &i); err == nil {
				return i
			}
		case columnar.TypeDouble:
			var f float64
			if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
				return f
			}
		}
		return s
	default:
		return v
	}
}
