package tpch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/prodtest/internal/engine"
)

// Generator produces the rows of a TPC-H table in canonical column order.
// fn is called once per row; returning an error stops generation.
type Generator interface {
	Rows(ctx context.Context, table Table, scaleFactor float64, fn func(row []any) error) error
}

// Querier runs a query on the engine. engine.Executor satisfies it.
type Querier interface {
	ExecuteQuery(ctx context.Context, sql string) (*engine.Result, error)
}

// EngineGenerator reads rows from the engine's tpch catalog, which
// generates them on the fly with the reference dbgen algorithm.
type EngineGenerator struct {
	Engine  Querier
	Catalog string // defaults to "tpch"
}

// Query returns the statement used to read a table at a scale factor.
func (g *EngineGenerator) Query(table Table, scaleFactor float64) (string, error) {
	schema, err := SchemaName(scaleFactor)
	if err != nil {
		return "", err
	}
	catalog := g.Catalog
	if catalog == "" {
		catalog = "tpch"
	}
	return fmt.Sprintf("SELECT %s FROM %s.%s.%s",
		strings.Join(table.ColumnNames(), ", "), catalog, schema, table.Name), nil
}

// Rows implements Generator.
func (g *EngineGenerator) Rows(ctx context.Context, table Table, scaleFactor float64, fn func(row []any) error) error {
	query, err := g.Query(table, scaleFactor)
	if err != nil {
		return err
	}
	result, err := g.Engine.ExecuteQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("read tpch %s: %w", table.Name, err)
	}
	if len(result.Columns) != len(table.Columns) {
		return fmt.Errorf("read tpch %s: got %d columns, want %d", table.Name, len(result.Columns), len(table.Columns))
	}
	for _, row := range result.Rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// FileGenerator reads dbgen output: one "<table>.tbl" file per table in Dir,
// '|' separated with a trailing separator. The files must have been generated
// at the scale factor being requested; the scale factor is not checked.
type FileGenerator struct {
	Dir string
}

// Rows implements Generator. Values are passed through as strings.
func (g *FileGenerator) Rows(ctx context.Context, table Table, scaleFactor float64, fn func(row []any) error) error {
	path := filepath.Join(g.Dir, table.Name+".tbl")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '|'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	width := len(table.Columns)
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		// dbgen terminates every line with the separator
		if len(record) == width+1 && record[width] == "" {
			record = record[:width]
		}
		if len(record) != width {
			return fmt.Errorf("%s:%d: got %d fields, want %d", path, line, len(record), width)
		}
		row := make([]any, width)
		for i, v := range record {
			row[i] = v
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
