package engine

import (
	"fmt"
	"strings"
)

// Column is one result column.
type Column struct {
	Name string
	Type TypeSignature
}

// Result is the tabular result of a query. Values are normalized; see
// Normalize for the Go type of each engine type.
type Result struct {
	Columns []Column
	Rows    [][]any
}

// RowsCount returns the number of rows.
func (r *Result) RowsCount() int {
	return len(r.Rows)
}

// Row returns row i. It panics when i is out of range, like a slice index.
func (r *Result) Row(i int) []any {
	return r.Rows[i]
}

// ColumnIndex returns the index of the named column, or -1.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// RowField is one field of a composite value. Name is empty for positional
// fields.
type RowField struct {
	Name  string
	Value any
}

// RowValue is a composite (row type) value. A tuple stored in the
// wide-column store comes back with positional fields, a user-defined type
// with named ones.
type RowValue struct {
	Fields []RowField
}

// Named reports whether every field carries a name.
func (r RowValue) Named() bool {
	if len(r.Fields) == 0 {
		return false
	}
	for _, f := range r.Fields {
		if f.Name == "" {
			return false
		}
	}
	return true
}

func (r RowValue) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		if f.Name != "" {
			parts[i] = fmt.Sprintf("%s=%v", f.Name, f.Value)
		} else {
			parts[i] = fmt.Sprintf("%v", f.Value)
		}
	}
	if r.Named() {
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RowBuilder assembles a RowValue field by field.
type RowBuilder struct {
	fields []RowField
}

// NewRowBuilder returns an empty builder.
func NewRowBuilder() *RowBuilder {
	return &RowBuilder{}
}

// AddField appends a named field.
func (b *RowBuilder) AddField(name string, value any) *RowBuilder {
	b.fields = append(b.fields, RowField{Name: name, Value: value})
	return b
}

// AddUnnamedField appends a positional field.
func (b *RowBuilder) AddUnnamedField(value any) *RowBuilder {
	b.fields = append(b.fields, RowField{Value: value})
	return b
}

// Build returns the composite. The builder may be reused.
func (b *RowBuilder) Build() RowValue {
	fields := make([]RowField, len(b.fields))
	copy(fields, b.fields)
	return RowValue{Fields: fields}
}
