package engine

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newSQLiteExecutor backs the executor with an in-memory SQLite database,
// which reports declared column types the same way the engine driver does.
func newSQLiteExecutor(t *testing.T) *Executor {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE supplier (
			s_suppkey   BIGINT,
			s_name      VARCHAR,
			s_nationkey BIGINT,
			s_acctbal   DOUBLE
		);
		INSERT INTO supplier VALUES (10, 'Supplier#000000010', 24, 3891.91);
		INSERT INTO supplier VALUES (24, 'Supplier#000000024', 0, 9170.71);
	`)
	require.NoError(t, err)

	exec := NewExecutor(db, zaptest.NewLogger(t))
	t.Cleanup(func() { exec.Close() })
	return exec
}

func TestExecuteQuery_ReadsTypedRows(t *testing.T) {
	exec := newSQLiteExecutor(t)

	result, err := exec.ExecuteQuery(context.Background(),
		"SELECT s_suppkey, s_name, s_acctbal FROM supplier ORDER BY s_suppkey")
	require.NoError(t, err)

	require.Len(t, result.Columns, 3)
	assert.Equal(t, "s_suppkey", result.Columns[0].Name)
	assert.Equal(t, "bigint", result.Columns[0].Type.Base)
	assert.Equal(t, "double", result.Columns[2].Type.Base)

	require.Equal(t, 2, result.RowsCount())
	assert.Equal(t, []any{int64(10), "Supplier#000000010", 3891.91}, result.Row(0))
	assert.Equal(t, []any{int64(24), "Supplier#000000024", 9170.71}, result.Row(1))
	assert.Equal(t, 1, result.ColumnIndex("S_NAME"))
	assert.Equal(t, -1, result.ColumnIndex("missing"))
}

func TestExecuteQuery_EmptyResult(t *testing.T) {
	exec := newSQLiteExecutor(t)

	result, err := exec.ExecuteQuery(context.Background(),
		"SELECT s_suppkey FROM supplier WHERE s_suppkey = -1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RowsCount())
	assert.Len(t, result.Columns, 1)
}

func TestExecuteQuery_ErrorIsQueryError(t *testing.T) {
	exec := newSQLiteExecutor(t)

	_, err := exec.ExecuteQuery(context.Background(), "SELECT * FROM no_such_table")
	require.Error(t, err)
	assert.True(t, IsQueryError(err))

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "SELECT * FROM no_such_table", qe.SQL)
}

func TestOptions_DSN(t *testing.T) {
	dsn, err := Options{
		ServerURI: "http://test@localhost:8080",
		Source:    "prodtest",
		Catalog:   "cassandra",
		Schema:    "test",
	}.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "localhost:8080")
	assert.Contains(t, dsn, "catalog=cassandra")
	assert.Contains(t, dsn, "schema=test")
}

func TestOptions_DSNRequiresServer(t *testing.T) {
	_, err := Options{}.DSN()
	assert.Error(t, err)
}
