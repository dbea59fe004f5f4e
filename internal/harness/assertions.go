package harness

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/prodtest/internal/engine"
)

// Assertion types.
const (
	AssertContainsOnly = "contains_only"
	AssertContains     = "contains"
	AssertInOrder      = "contains_exactly_in_order"
	AssertRowsCount    = "rows_count"
	AssertCellEquals   = "cell_equals"
)

// float64 values are equal when they differ by at most this fraction of the
// larger magnitude. Aggregates such as AVG are computed in a different order
// than the expected literal.
const relativeTolerance = 1e-9

// AssertionError is returned when a query result does not match what the
// scenario expects. A scenario that returns one is reported as failed
// rather than errored.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// IsAssertionError reports whether err wraps an AssertionError.
func IsAssertionError(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// Row is an expected result row.
type Row []any

// NewRow builds an expected row.
func NewRow(values ...any) Row {
	return Row(values)
}

// ContainsOnly checks that the result holds exactly the expected rows, in
// any order. Duplicates count.
func ContainsOnly(result *engine.Result, expected ...Row) error {
	unmatched, extra := matchRows(result.Rows, expected)
	if len(unmatched) == 0 && len(extra) == 0 {
		return nil
	}
	actual := fmt.Sprintf("rows %s", formatRows(result.Rows))
	if len(unmatched) > 0 {
		actual += fmt.Sprintf("; missing %s", formatRows(unmatched))
	}
	if len(extra) > 0 {
		actual += fmt.Sprintf("; unexpected %s", formatRows(extra))
	}
	return &AssertionError{
		Type:     AssertContainsOnly,
		Expected: fmt.Sprintf("only rows %s", formatRows(toAnyRows(expected))),
		Actual:   actual,
	}
}

// Contains checks that every expected row appears in the result. Other
// rows may be present.
func Contains(result *engine.Result, expected ...Row) error {
	unmatched, _ := matchRows(result.Rows, expected)
	if len(unmatched) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("rows including %s", formatRows(toAnyRows(expected))),
		Actual:   fmt.Sprintf("rows %s; missing %s", formatRows(result.Rows), formatRows(unmatched)),
	}
}

// ContainsExactlyInOrder checks the result rows one by one against expected.
func ContainsExactlyInOrder(result *engine.Result, expected ...Row) error {
	ok := len(result.Rows) == len(expected)
	for i := 0; ok && i < len(expected); i++ {
		ok = rowsEqual(expected[i], result.Rows[i])
	}
	if ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertInOrder,
		Expected: fmt.Sprintf("rows in order %s", formatRows(toAnyRows(expected))),
		Actual:   fmt.Sprintf("rows %s", formatRows(result.Rows)),
	}
}

// HasRowsCount checks the number of result rows.
func HasRowsCount(result *engine.Result, n int) error {
	if result.RowsCount() == n {
		return nil
	}
	return &AssertionError{
		Type:     AssertRowsCount,
		Expected: fmt.Sprintf("%d rows", n),
		Actual:   fmt.Sprintf("%d rows", result.RowsCount()),
	}
}

// CellEquals checks a single value, addressed by row and column index.
func CellEquals(result *engine.Result, row, col int, expected any) error {
	if row < 0 || row >= len(result.Rows) || col < 0 || col >= len(result.Rows[row]) {
		return &AssertionError{
			Type:     AssertCellEquals,
			Expected: fmt.Sprintf("cell (%d, %d) = %s", row, col, formatValue(expected)),
			Actual:   fmt.Sprintf("no such cell in %d rows", len(result.Rows)),
		}
	}
	actual := result.Rows[row][col]
	if ValuesEqual(expected, actual) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCellEquals,
		Expected: fmt.Sprintf("cell (%d, %d) = %s (%T)", row, col, formatValue(expected), expected),
		Actual:   fmt.Sprintf("%s (%T)", formatValue(actual), actual),
	}
}

// matchRows pairs each expected row with a distinct equal actual row. It
// returns the expected rows left without a partner and the actual rows
// nothing matched.
func matchRows(actual [][]any, expected []Row) (unmatched, extra [][]any) {
	used := make([]bool, len(actual))
	for _, want := range expected {
		found := false
		for i, got := range actual {
			if !used[i] && rowsEqual(want, got) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, want)
		}
	}
	for i, got := range actual {
		if !used[i] {
			extra = append(extra, got)
		}
	}
	return unmatched, extra
}

func rowsEqual(expected Row, actual []any) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if !ValuesEqual(expected[i], actual[i]) {
			return false
		}
	}
	return true
}

// ValuesEqual compares an expected value with a normalized engine value.
// The comparison follows the actual value's type: integers compare by
// value whatever their width, a float32 is compared with the expected value
// narrowed to float32, a float64 within a relative tolerance, strings after
// NFC normalization and composites field by field.
func ValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch a := actual.(type) {
	case int64, int32, int16, int8, int:
		av, _ := integerValue(a)
		ev, ok := integerValue(expected)
		return ok && av == ev

	case float32:
		ev, ok := floatValue(expected)
		return ok && float32(ev) == a

	case float64:
		ev, ok := floatValue(expected)
		if !ok {
			return false
		}
		if ev == a {
			return true
		}
		return math.Abs(ev-a) <= relativeTolerance*math.Max(math.Abs(ev), math.Abs(a))

	case string:
		e, ok := expected.(string)
		return ok && norm.NFC.String(e) == norm.NFC.String(a)

	case bool:
		e, ok := expected.(bool)
		return ok && e == a

	case time.Time:
		e, ok := expected.(time.Time)
		return ok && e.Equal(a)

	case engine.RowValue:
		e, ok := expected.(engine.RowValue)
		if !ok || len(e.Fields) != len(a.Fields) {
			return false
		}
		for i := range e.Fields {
			if !strings.EqualFold(e.Fields[i].Name, a.Fields[i].Name) {
				return false
			}
			if !ValuesEqual(e.Fields[i].Value, a.Fields[i].Value) {
				return false
			}
		}
		return true

	case []any:
		e, ok := expected.([]any)
		if !ok || len(e) != len(a) {
			return false
		}
		for i := range e {
			if !ValuesEqual(e[i], a[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(expected, actual)
}

func integerValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := integerValue(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toAnyRows(rows []Row) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func formatRows(rows [][]any) string {
	const limit = 20
	var buf strings.Builder
	buf.WriteByte('[')
	for i, row := range rows {
		if i == limit {
			fmt.Fprintf(&buf, ", ... %d more", len(rows)-limit)
			break
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(formatValue(v))
		}
		buf.WriteByte(')')
	}
	buf.WriteByte(']')
	return buf.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}
