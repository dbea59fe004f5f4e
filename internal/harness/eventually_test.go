package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodtest/internal/engine"
	"github.com/roach88/prodtest/internal/testutil"
)

var fastPolling = Polling{Interval: time.Millisecond, Timeout: time.Second}

func TestContainsEventually_SucceedsOnceVisible(t *testing.T) {
	empty := testutil.Result([]string{"table_name varchar"})
	ready := testutil.Result([]string{"table_name varchar"}, []any{"supplier"}, []any{"clustering_mv"})
	eng := testutil.NewFakeEngine().On("SHOW TABLES", empty, empty, ready)

	query := func(ctx context.Context) (*engine.Result, error) { return eng.ExecuteQuery(ctx, "SHOW TABLES") }
	err := ContainsEventually(context.Background(), fastPolling, query, NewRow("clustering_mv"))
	require.NoError(t, err)
	assert.Equal(t, 3, eng.Count("SHOW TABLES"))
}

func TestContainsEventually_TimesOut(t *testing.T) {
	empty := testutil.Result([]string{"status_replicated boolean"}, []any{false})
	eng := testutil.NewFakeEngine().On("SELECT status", empty)
	query := func(ctx context.Context) (*engine.Result, error) { return eng.ExecuteQuery(ctx, "SELECT status") }

	err := ContainsEventually(context.Background(), Polling{Interval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond}, query, NewRow(true))
	require.Error(t, err)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 50*time.Millisecond, te.Timeout)
	assert.GreaterOrEqual(t, te.Attempts, 1)
	assert.True(t, IsAssertionError(te.Last))
	assert.False(t, IsAssertionError(err))
	assert.Equal(t, StatusError, Classify(err))
}

func TestContainsEventually_RetriesQueryErrors(t *testing.T) {
	calls := 0
	query := func(context.Context) (*engine.Result, error) {
		calls++
		if calls == 1 {
			return nil, &engine.QueryError{SQL: "SELECT status_replicated", Err: errors.New("view not found")}
		}
		return testutil.Result([]string{"status_replicated boolean"}, []any{true}), nil
	}

	err := ContainsEventually(context.Background(), fastPolling, query, NewRow(true))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestContainsEventually_QueryErrorUntilDeadline(t *testing.T) {
	boom := errors.New("catalog unavailable")
	eng := testutil.NewFakeEngine().Fail("SHOW TABLES", boom)
	query := func(ctx context.Context) (*engine.Result, error) { return eng.ExecuteQuery(ctx, "SHOW TABLES") }

	err := ContainsEventually(context.Background(), Polling{Interval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond}, query, NewRow("x"))
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, te.Last, boom)
	assert.Greater(t, eng.Count("SHOW TABLES"), 1)
	assert.Equal(t, StatusError, Classify(err))
}

func TestContainsEventually_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	query := func(context.Context) (*engine.Result, error) {
		t.Fatal("query must not run")
		return nil, nil
	}

	err := ContainsEventually(ctx, fastPolling, query, NewRow("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeoutError(err))
}

func TestPolling_Defaults(t *testing.T) {
	p := Polling{}.withDefaults()
	assert.Equal(t, DefaultPollInterval, p.Interval)
	assert.Equal(t, time.Minute, p.Timeout)
}
