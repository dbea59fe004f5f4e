package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodtest/internal/engine"
)

func TestResult(t *testing.T) {
	r := Result([]string{"intkey integer", "tuplekey row(integer, varchar, real)"}, []any{int32(1), nil})

	require.Len(t, r.Columns, 2)
	assert.Equal(t, "intkey", r.Columns[0].Name)
	assert.Equal(t, "integer", r.Columns[0].Type.Base)
	assert.True(t, r.Columns[1].Type.IsRow())
	assert.Equal(t, 1, r.RowsCount())
}

func TestFakeEngine_Script(t *testing.T) {
	ctx := context.Background()
	first := Result([]string{"n bigint"})
	second := Result([]string{"n bigint"}, []any{int64(1)})
	f := NewFakeEngine().On("SELECT n", first, second)

	r, err := f.ExecuteQuery(ctx, "SELECT n")
	require.NoError(t, err)
	assert.Same(t, first, r)

	for i := 0; i < 2; i++ {
		r, err = f.ExecuteQuery(ctx, "SELECT n")
		require.NoError(t, err)
		assert.Same(t, second, r)
	}
	assert.Equal(t, 3, f.Count("SELECT n"))

	_, err = f.ExecuteQuery(ctx, "SELECT other")
	assert.True(t, engine.IsQueryError(err))
}

func TestFakeEngine_Fail(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeEngine().Fail("SELECT 1", boom)
	_, err := f.ExecuteQuery(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, boom)
}

func TestFakeStore_TableLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewFakeStore()
	s.ColumnOrder["test.t"] = []string{"k", "v"}

	require.NoError(t, s.Execute(ctx, "CREATE TABLE test.t (k int PRIMARY KEY, v text)"))
	exists, err := s.TableExists(ctx, "test", "t")
	require.NoError(t, err)
	assert.True(t, exists)

	cols, err := s.TableColumns(ctx, "test", "t")
	require.NoError(t, err)
	n, err := s.InsertRows(ctx, "test", "t", cols, func(yield func([]any) error) error {
		return yield([]any{1, "a"})
	}, LoadOptionsForTest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := s.CountRows(ctx, "test", "t")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.Execute(ctx, "DROP TABLE IF EXISTS test.t"))
	exists, _ = s.TableExists(ctx, "test", "t")
	assert.False(t, exists)
	assert.Len(t, s.Statements(), 3)
}

func TestFakeStore_FailOn(t *testing.T) {
	boom := errors.New("unavailable")
	s := NewFakeStore()
	s.FailOn("DROP TABLE IF EXISTS test.t", boom)
	assert.ErrorIs(t, s.Execute(context.Background(), "DROP TABLE IF EXISTS test.t"), boom)
}
