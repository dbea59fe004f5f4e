// Package engine executes SQL on the query engine under test and returns
// normalized tabular results.
package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/trinodb/trino-go-client/trino"
	"go.uber.org/zap"
)

// DriverName is the database/sql driver registered by the engine client.
const DriverName = "trino"

// Options configures the connection to the engine.
type Options struct {
	// ServerURI includes the user, e.g. "http://test@localhost:8080".
	ServerURI         string
	Source            string
	Catalog           string
	Schema            string
	SessionProperties map[string]string
}

// DSN renders the options as a driver data source name.
func (o Options) DSN() (string, error) {
	if o.ServerURI == "" {
		return "", fmt.Errorf("engine server URI is required")
	}
	cfg := &trino.Config{
		ServerURI:         o.ServerURI,
		Source:            o.Source,
		Catalog:           o.Catalog,
		Schema:            o.Schema,
		SessionProperties: o.SessionProperties,
	}
	return cfg.FormatDSN()
}

// Executor runs statements on the engine. It is safe for concurrent use,
// though the harness only ever uses it from one goroutine.
type Executor struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to the engine described by opts.
func Open(opts Options, logger *zap.Logger) (*Executor, error) {
	dsn, err := opts.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine connection: %w", err)
	}
	return NewExecutor(db, logger), nil
}

// NewExecutor wraps an open database handle. Any database/sql driver works;
// type names reported by the driver drive value normalization.
func NewExecutor(db *sql.DB, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{db: db, logger: logger}
}

// Close releases the underlying connection pool.
func (e *Executor) Close() error {
	return e.db.Close()
}

// ExecuteQuery runs query and reads the whole result.
func (e *Executor) ExecuteQuery(ctx context.Context, query string) (*Result, error) {
	e.logger.Debug("executing on engine", zap.String("sql", query))

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{SQL: query, Err: err}
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, &QueryError{SQL: query, Err: fmt.Errorf("read column types: %w", err)}
	}

	result := &Result{Columns: make([]Column, len(colTypes))}
	for i, ct := range colTypes {
		sig, err := ParseType(ct.DatabaseTypeName())
		if err != nil {
			// keep the raw name; values pass through unconverted
			e.logger.Warn("unparseable column type",
				zap.String("column", ct.Name()),
				zap.String("type", ct.DatabaseTypeName()),
				zap.Error(err))
		}
		result.Columns[i] = Column{Name: ct.Name(), Type: sig}
	}

	values := make([]any, len(colTypes))
	ptrs := make([]any, len(colTypes))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{SQL: query, Err: fmt.Errorf("scan row: %w", err)}
		}
		row := make([]any, len(values))
		for i, v := range values {
			n, err := Normalize(result.Columns[i].Type, v)
			if err != nil {
				return nil, &QueryError{SQL: query, Err: fmt.Errorf("column %s: %w", result.Columns[i].Name, err)}
			}
			row[i] = n
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{SQL: query, Err: err}
	}

	e.logger.Debug("engine query finished",
		zap.String("sql", query),
		zap.Int("rows", len(result.Rows)))
	return result, nil
}
