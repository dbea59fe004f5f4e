package catalog

import (
	"context"
	"fmt"

	"github.com/roach88/prodtest/internal/tpch"
)

// DataSource describes where the rows of a fixture table come from.
type DataSource interface {
	// Validate checks the source against the number of declared columns.
	Validate(columnCount int) error

	// ExpectedRows returns the row count a loaded table must have. ok is
	// false when the count cannot be known up front.
	ExpectedRows() (rows int64, ok bool)

	// Rows produces every row in store column order.
	Rows(ctx context.Context, gen tpch.Generator, fn func(row []any) error) error

	String() string
}

// TpchDataSource loads a TPC-H table. Canonical column j of the TPC-H table
// is written to store position Mapping[j]; the store position is the
// column's index in the store's own column order. Types lists the column
// types in canonical order.
type TpchDataSource struct {
	Table       tpch.Table
	Mapping     []int
	Types       []tpch.Type
	ScaleFactor float64
}

// NewTpchDataSource copies its slice arguments.
func NewTpchDataSource(table tpch.Table, mapping []int, types []tpch.Type, scaleFactor float64) *TpchDataSource {
	return &TpchDataSource{
		Table:       table,
		Mapping:     append([]int(nil), mapping...),
		Types:       append([]tpch.Type(nil), types...),
		ScaleFactor: scaleFactor,
	}
}

// Validate implements DataSource.
func (s *TpchDataSource) Validate(columnCount int) error {
	width := len(s.Table.Columns)
	if width != columnCount {
		return fmt.Errorf("tpch %s has %d columns, table declares %d", s.Table.Name, width, columnCount)
	}
	if len(s.Types) != width {
		return fmt.Errorf("tpch %s: %d types for %d columns", s.Table.Name, len(s.Types), width)
	}
	if len(s.Mapping) != width {
		return fmt.Errorf("tpch %s: mapping has %d entries for %d columns", s.Table.Name, len(s.Mapping), width)
	}
	seen := make([]bool, width)
	for j, pos := range s.Mapping {
		if pos < 0 || pos >= width {
			return fmt.Errorf("tpch %s: mapping[%d] = %d out of range", s.Table.Name, j, pos)
		}
		if seen[pos] {
			return fmt.Errorf("tpch %s: mapping is not a permutation, position %d repeats", s.Table.Name, pos)
		}
		seen[pos] = true
	}
	if _, err := tpch.SchemaName(s.ScaleFactor); err != nil {
		return fmt.Errorf("tpch %s: %w", s.Table.Name, err)
	}
	return nil
}

// ExpectedRows implements DataSource.
func (s *TpchDataSource) ExpectedRows() (int64, bool) {
	return s.Table.Cardinality(s.ScaleFactor)
}

// Rows implements DataSource.
func (s *TpchDataSource) Rows(ctx context.Context, gen tpch.Generator, fn func(row []any) error) error {
	return gen.Rows(ctx, s.Table, s.ScaleFactor, func(canonical []any) error {
		row, err := s.Permute(canonical)
		if err != nil {
			return err
		}
		return fn(row)
	})
}

// Permute converts a canonical TPC-H row and places each value at its store
// position.
func (s *TpchDataSource) Permute(canonical []any) ([]any, error) {
	if len(canonical) != len(s.Mapping) {
		return nil, fmt.Errorf("tpch %s: row has %d values, want %d", s.Table.Name, len(canonical), len(s.Mapping))
	}
	row := make([]any, len(canonical))
	for j, v := range canonical {
		converted, err := s.Types[j].Convert(v)
		if err != nil {
			return nil, fmt.Errorf("tpch %s column %s: %w", s.Table.Name, s.Table.Columns[j].Name, err)
		}
		row[s.Mapping[j]] = converted
	}
	return row, nil
}

func (s *TpchDataSource) String() string {
	return fmt.Sprintf("tpch %s (scale %g)", s.Table.Name, s.ScaleFactor)
}
