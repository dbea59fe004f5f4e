package cassandra

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadOptions controls bulk inserts.
type LoadOptions struct {
	// BatchSize is the number of rows per unlogged batch.
	BatchSize int
	// Concurrency is the number of batches in flight.
	Concurrency int
}

// RowSource calls yield once per row. It stops and returns yield's error
// when yield fails.
type RowSource func(yield func(row []any) error) error

// InsertStatement renders a parameterized insert for the given columns.
func InsertStatement(keyspace, table string, columns []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s)",
		keyspace, table, strings.Join(columns, ", "), marks)
}

// InsertRows writes every row of src into keyspace.table. Row values must
// be in columns order. It returns the number of rows written.
func (s *Session) InsertRows(ctx context.Context, keyspace, table string, columns []string, src RowSource, opts LoadOptions) (int64, error) {
	stmt := InsertStatement(keyspace, table, columns)
	n, err := writeBatches(ctx, len(columns), src, opts, func(ctx context.Context, rows [][]any) error {
		batch := s.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
		for _, row := range rows {
			batch.Query(stmt, row...)
		}
		if err := s.session.ExecuteBatch(batch); err != nil {
			return fmt.Errorf("batch insert into %s.%s failed: %w", keyspace, table, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("rows inserted",
		zap.String("table", keyspace+"."+table),
		zap.Int64("rows", n))
	return n, nil
}

// writeBatches groups rows into batches and hands them to write, keeping
// at most opts.Concurrency writes running. The first write error cancels
// the rest.
func writeBatches(ctx context.Context, width int, src RowSource, opts LoadOptions, write func(context.Context, [][]any) error) (int64, error) {
	size := opts.BatchSize
	if size < 1 {
		size = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	var total int64
	pending := make([][]any, 0, size)
	flush := func() {
		rows := pending
		pending = make([][]any, 0, size)
		g.Go(func() error { return write(gctx, rows) })
	}

	srcErr := src(func(row []any) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		if len(row) != width {
			return fmt.Errorf("row %d has %d values, want %d", total+1, len(row), width)
		}
		pending = append(pending, row)
		total++
		if len(pending) == size {
			flush()
		}
		return nil
	})
	if srcErr == nil && len(pending) > 0 {
		flush()
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if srcErr != nil {
		return 0, srcErr
	}
	return total, nil
}
