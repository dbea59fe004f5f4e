package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Normalize converts a driver value into the Go type for its engine type:
//
//	bigint   int64      integer  int32
//	smallint int16      tinyint  int8
//	real     float32    double   float64
//	boolean  bool       varchar, char, json, decimal, uuid  string
//	row      RowValue   array    []any
//
// Values of other types, or of unknown type, are returned unchanged.
// Nested values arrive from the driver as decoded JSON, so numbers may be
// json.Number.
func Normalize(t TypeSignature, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Base {
	case "bigint":
		return asInt(v, math.MinInt64, math.MaxInt64, func(n int64) any { return n })
	case "integer":
		return asInt(v, math.MinInt32, math.MaxInt32, func(n int64) any { return int32(n) })
	case "smallint":
		return asInt(v, math.MinInt16, math.MaxInt16, func(n int64) any { return int16(n) })
	case "tinyint":
		return asInt(v, math.MinInt8, math.MaxInt8, func(n int64) any { return int8(n) })
	case "real":
		switch x := v.(type) {
		case json.Number:
			return parseReal(x.String())
		case string:
			return parseReal(x)
		}
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case "double":
		return asFloat(v)
	case "boolean":
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("cannot read %T as boolean", v)
	case "varchar", "char", "json", "decimal", "uuid", "ipaddress":
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case json.Number:
			return s.String(), nil
		}
		return nil, fmt.Errorf("cannot read %T as %s", v, t.Base)
	case "row":
		return normalizeRow(t, v)
	case "array":
		items, ok := v.([]any)
		if !ok || len(t.Elements) != 1 {
			return v, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			n, err := Normalize(t.Elements[0], item)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}
	return v, nil
}

func normalizeRow(t TypeSignature, v any) (any, error) {
	if r, ok := v.(RowValue); ok {
		return r, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("cannot read %T as %s", v, t.Raw)
	}
	if len(items) != len(t.Fields) {
		return nil, fmt.Errorf("row has %d fields, type %s declares %d", len(items), t.Raw, len(t.Fields))
	}
	fields := make([]RowField, len(items))
	for i, item := range items {
		n, err := Normalize(t.Fields[i].Type, item)
		if err != nil {
			return nil, fmt.Errorf("row field %d: %w", i, err)
		}
		fields[i] = RowField{Name: t.Fields[i].Name, Value: n}
	}
	return RowValue{Fields: fields}, nil
}

func asInt(v any, lo, hi int64, wrap func(int64) any) (any, error) {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case int32:
		n = int64(x)
	case int16:
		n = int64(x)
	case int8:
		n = int64(x)
	case int:
		n = int64(x)
	case json.Number:
		parsed, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("read %q as integer: %w", x, err)
		}
		n = parsed
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("value %v is not integral", x)
		}
		n = int64(x)
	case string:
		parsed, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("read %q as integer: %w", x, err)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("cannot read %T as integer", v)
	}
	if n < lo || n > hi {
		return nil, fmt.Errorf("value %d out of range", n)
	}
	return wrap(n), nil
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		// the engine encodes NaN and infinities as strings
		return strconv.ParseFloat(x, 64)
	}
	return 0, fmt.Errorf("cannot read %T as floating point", v)
}

func parseReal(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, fmt.Errorf("read %q as real: %w", s, err)
	}
	return float32(f), nil
}
