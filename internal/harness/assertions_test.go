package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodtest/internal/engine"
	"github.com/roach88/prodtest/internal/testutil"
)

func TestContainsOnly(t *testing.T) {
	r := testutil.Result([]string{"s_suppkey bigint"}, []any{int64(10)}, []any{int64(11)})

	assert.NoError(t, ContainsOnly(r, NewRow(11), NewRow(10)))

	err := ContainsOnly(r, NewRow(10))
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertContainsOnly, ae.Type)
	assert.Contains(t, ae.Actual, "unexpected [(11)]")

	err = ContainsOnly(r, NewRow(10), NewRow(11), NewRow(12))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing [(12)]")
}

func TestContainsOnly_CountsDuplicates(t *testing.T) {
	r := testutil.Result([]string{"n bigint"}, []any{int64(1)}, []any{int64(1)})

	assert.Error(t, ContainsOnly(r, NewRow(1)))
	assert.NoError(t, ContainsOnly(r, NewRow(1), NewRow(1)))
}

func TestContainsOnly_EmptyResult(t *testing.T) {
	r := testutil.Result([]string{"n bigint"})
	assert.NoError(t, ContainsOnly(r))
	assert.Error(t, ContainsOnly(r, NewRow(1)))
}

func TestContains(t *testing.T) {
	r := testutil.Result([]string{"table varchar"}, []any{"supplier"}, []any{"clustering_mv"})

	assert.NoError(t, Contains(r, NewRow("clustering_mv")))
	err := Contains(r, NewRow("other_mv"))
	require.Error(t, err)
	assert.True(t, IsAssertionError(err))
	assert.Contains(t, err.Error(), `missing [("other_mv")]`)
}

func TestContainsExactlyInOrder(t *testing.T) {
	r := testutil.Result([]string{"n bigint"}, []any{int64(1)}, []any{int64(2)})

	assert.NoError(t, ContainsExactlyInOrder(r, NewRow(1), NewRow(2)))
	assert.Error(t, ContainsExactlyInOrder(r, NewRow(2), NewRow(1)))
}

func TestHasRowsCount(t *testing.T) {
	r := testutil.Result([]string{"n bigint"}, []any{int64(1)})
	assert.NoError(t, HasRowsCount(r, 1))

	err := HasRowsCount(r, 10000)
	require.Error(t, err)
	assert.Equal(t, "Assertion failed: rows_count\n  Expected: 10000 rows\n  Actual: 1 rows", err.Error())
}

func TestCellEquals(t *testing.T) {
	r := testutil.Result([]string{"a bigint", "b double"}, []any{int64(24), 9170.71})

	assert.NoError(t, CellEquals(r, 0, 0, 24))
	assert.NoError(t, CellEquals(r, 0, 1, 9170.71))
	assert.Error(t, CellEquals(r, 0, 1, 9170.72))
	assert.Error(t, CellEquals(r, 1, 0, 24))
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"int vs bigint", 10, int64(10), true},
		{"int vs integer", 1, int32(1), true},
		{"different ints", 10, int64(11), false},
		{"string vs bigint", "10", int64(10), false},
		{"real narrows expected", 1.11, float32(1.11), true},
		{"real from float32", float32(1.11), float32(1.11), true},
		{"real mismatch", 1.12, float32(1.11), false},
		{"double exact", 9170.71, 9170.71, true},
		{"double within tolerance", 4334.653, 4334.653000000001, true},
		{"double outside tolerance", 4334.653, 4334.654, false},
		{"double vs int", 55, float64(55), true},
		{"nfc strings", "caf\u00e9", "cafe\u0301", true},
		{"strings differ", "a", "b", false},
		{"bool", true, true, true},
		{"null", nil, nil, true},
		{"null vs value", nil, int64(1), false},
		{"value vs null", 1, nil, false},
		{"array", []any{1, "a"}, []any{int64(1), "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValuesEqual(tt.expected, tt.actual))
		})
	}
}

func TestValuesEqual_Composites(t *testing.T) {
	tuple := engine.NewRowBuilder().
		AddUnnamedField(int32(1)).
		AddUnnamedField("text-1").
		AddUnnamedField(float32(1.11)).
		Build()
	expectedTuple := engine.NewRowBuilder().
		AddUnnamedField(1).
		AddUnnamedField("text-1").
		AddUnnamedField(1.11).
		Build()
	assert.True(t, ValuesEqual(expectedTuple, tuple))

	udt := engine.NewRowBuilder().AddField("field1", "udt-1").Build()
	assert.True(t, ValuesEqual(engine.NewRowBuilder().AddField("FIELD1", "udt-1").Build(), udt))
	assert.False(t, ValuesEqual(engine.NewRowBuilder().AddField("x", "udt-1").Build(), udt))
	assert.False(t, ValuesEqual(engine.NewRowBuilder().AddUnnamedField("udt-1").Build(), udt))
	assert.False(t, ValuesEqual(expectedTuple, udt))
}
