package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	"github.com/snapbase/snapbase/internal/columnar"
	"github.com/snapbase/snapbase/internal/engine"
	"github.com/snapbase/snapbase/internal/resolver"
	"github.com/snapbase/snapbase/internal/snaperr"
	"golang.org/x/sync/errgroup"
)

var dbTokenPattern = regexp.MustCompile(`\{DB_[A-Z_]+\}`)

// substituteDBTokens replaces {DB_HOST}, {DB_USER}, {DB_PASSWORD},
// {DB_NAME} and any other {DB_*} token with the matching environment
// variable, per the SQL-script ingestion contract.
func substituteDBTokens(script string) string {
	return dbTokenPattern.ReplaceAllStringFunc(script, func(tok string) string {
		envVar := strings.TrimSuffix(strings.TrimPrefix(tok, "{"), "}")
		return os.Getenv(envVar)
	})
}

// OpenDatabase connects to the database declared by cfg. Only the
// "postgres" driver is wired: lib/pq is the only SQL driver declared
// anywhere in the retrieved pack's manifests alongside a genuinely
// generic database/sql usage pattern, so it is the one this module
// exercises; other driver types are rejected with UnsupportedFormat
// rather than silently mis-dialing.
func OpenDatabase(ctx context.Context, cfg resolver.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.ConnectionString
	if dsn == "" {
		password := ""
		if cfg.PasswordEnv != "" {
			password = os.Getenv(cfg.PasswordEnv)
		}
		dsn = fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.Database, cfg.Username, password)
	}

	switch cfg.Type {
	case "postgres", "postgresql", "":
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, snaperr.NewStorageUnavailable(err, "open database connection")
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, snaperr.NewStorageUnavailable(err, "connect to database")
		}
		return db, nil
	default:
		return nil, snaperr.NewUnsupportedFormat("unsupported databases.*.type %q", cfg.Type)
	}
}

// ReadSQLScript substitutes {DB_*} environment tokens into script, executes
// every statement against db in order, and captures the final statement's
// result set. A script with no SELECT as its last statement yields
// SchemaMismatch since there is no result set to snapshot.
func ReadSQLScript(ctx context.Context, db *sql.DB, script string) (*columnar.Table, error) {
	substituted := substituteDBTokens(script)
	statements := splitStatements(substituted)
	if len(statements) == 0 {
		return nil, snaperr.NewSchemaMismatch("SQL script contains no statements")
	}

	for _, stmt := range statements[:len(statements)-1] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, snaperr.NewQueryFailed(err, fmt.Sprintf("executing statement: %s", stmt))
		}
	}

	last := statements[len(statements)-1]
	rows, err := db.QueryContext(ctx, last)
	if err != nil {
		return nil, snaperr.NewSchemaMismatch("final statement produced no result set: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, snaperr.NewQueryFailed(err, "inspect final statement result")
	}
	if len(cols) == 0 {
		return nil, snaperr.NewSchemaMismatch("final statement produced no result set")
	}
	return engine.RowsToTable(rows)
}

func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// TableSnapshot pairs a database table name with the Table read from it.
type TableSnapshot struct {
	TableName string
	Table     *columnar.Table
}

// ReadDatabaseTables lists db's tables (honoring includeTables/excludeTables
// wildcard-free exact-match filters), then reads each selected table's full
// contents in parallel via a SELECT *, producing one Table per table — the
// resolved interpretation of the one-snapshot-per-table open question.
func ReadDatabaseTables(ctx context.Context, db *sql.DB, includeTables, excludeTables []string) ([]TableSnapshot, error) {
	names, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}
	selected := filterTables(names, includeTables, excludeTables)
	if len(selected) == 0 {
		return nil, snaperr.NewUnsupportedFormat("no tables selected after include/exclude filtering")
	}

	results := make([]TableSnapshot, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range selected {
		i, name := i, name
		g.Go(func() error {
			rows, err := db.QueryContext(gctx, fmt.Sprintf(`SELECT * FROM %s`, name))
			if err != nil {
				return snaperr.NewQueryFailed(err, fmt.Sprintf("reading table %s", name))
			}
			defer rows.Close()
			table, err := engine.RowsToTable(rows)
			if err != nil {
				return err
			}
			results[i] = TableSnapshot{TableName: name, Table: table}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`)
	if err != nil {
		return nil, snaperr.NewQueryFailed(err, "list tables")
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, snaperr.NewQueryFailed(err, "scan table name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func filterTables(all, include, exclude []string) []string {
	excludeSet := map[string]bool{}
	for _, t := range exclude {
		excludeSet[t] = true
	}
	includeSet := map[string]bool{}
	for _, t := range include {
		includeSet[t] = true
	}

	var out []string
	for _, t := range all {
		if len(includeSet) > 0 && !includeSet[t] {
			continue
		}
		if excludeSet[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}
