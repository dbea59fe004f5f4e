package tpch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is a scalar column type of fixture data. Values are the engine's
// type names.
type Type string

const (
	BigInt  Type = "bigint"
	Integer Type = "integer"
	Varchar Type = "varchar"
	Double  Type = "double"
	Date    Type = "date"
)

const dateLayout = "2006-01-02"

// Convert coerces a generated value into the Go type used to write it to
// the store: int64, int32, string, float64 or time.Time.
// Strings are parsed, which is how dbgen ".tbl" values arrive.
func (t Type) Convert(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case BigInt:
		return toInt64(v)
	case Integer:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("value %d overflows integer", n)
		}
		return int32(n), nil
	case Double:
		return toFloat64(v)
	case Varchar:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
		return nil, fmt.Errorf("cannot convert %T to %s", v, t)
	case Date:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			parsed, err := time.Parse(dateLayout, strings.TrimSpace(d))
			if err != nil {
				return nil, fmt.Errorf("parse date %q: %w", d, err)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("cannot convert %T to %s", v, t)
	default:
		return nil, fmt.Errorf("unsupported type %q", string(t))
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("value %v is not integral", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to %s", v, BigInt)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to %s", v, Double)
}
