package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteDBTokens(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "orders")
	out := substituteDBTokens("SELECT * FROM {DB_NAME} WHERE host = '{DB_HOST}'")
	assert.Equal(t, "SELECT * FROM orders WHERE host = 'db.internal'", out)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE t (a int); INSERT INTO t VALUES (1);  SELECT * FROM t ")
	assert.Equal(t, []string{"CREATE TABLE t (a int)", "INSERT INTO t VALUES (1)", "SELECT * FROM t"}, stmts)
}

func TestFilterTables(t *testing.T) {
	all := []string{"orders", "customers", "audit_log"}

	assert.Equal(t, all, filterTables(all, nil, nil))
	assert.Equal(t, []string{"orders", "customers"}, filterTables(all, nil, []string{"audit_log"}))
	assert.Equal(t, []string{"orders"}, filterTables(all, []string{"orders"}, nil))
}
