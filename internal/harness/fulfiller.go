package harness

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/cassandra"
	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/tpch"
)

// FixtureStore is the part of the store session the fulfiller needs.
// *cassandra.Session implements it.
type FixtureStore interface {
	Execute(ctx context.Context, stmt string, args ...any) error
	EnsureKeyspace(ctx context.Context, keyspace string, replicationFactor int) error
	TableExists(ctx context.Context, keyspace, table string) (bool, error)
	CountRows(ctx context.Context, keyspace, table string) (int64, error)
	TableColumns(ctx context.Context, keyspace, table string) ([]string, error)
	InsertRows(ctx context.Context, keyspace, table string, columns []string, src cassandra.RowSource, opts cassandra.LoadOptions) (int64, error)
}

// Fulfillment reports how one fixture table was provided.
type Fulfillment struct {
	Instance TableInstance
	Rows     int64
	// Loaded is false when an existing table with the expected row count
	// was reused.
	Loaded bool
}

// Fulfiller materializes fixture tables in the store.
type Fulfiller struct {
	Store             FixtureStore
	Generator         tpch.Generator
	Settings          Settings
	ReplicationFactor int
	Load              cassandra.LoadOptions
	Logger            *zap.Logger
}

// Fulfill makes every table required by reqs available.
func (f *Fulfiller) Fulfill(ctx context.Context, reqs ...Requirement) ([]Fulfillment, error) {
	var out []Fulfillment
	for _, def := range Tables(reqs...) {
		ful, err := f.fulfillTable(ctx, def)
		if err != nil {
			return out, fmt.Errorf("failed to fulfill %s: %w", def, err)
		}
		out = append(out, ful)
	}
	return out, nil
}

func (f *Fulfiller) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func (f *Fulfiller) fulfillTable(ctx context.Context, def *catalog.TableDefinition) (Fulfillment, error) {
	inst := InstanceOf(def, f.Settings)
	log := f.logger().With(zap.String("table", inst.StoreName()))

	rf := f.ReplicationFactor
	if rf < 1 {
		rf = 1
	}
	if err := f.Store.EnsureKeyspace(ctx, inst.Keyspace, rf); err != nil {
		return Fulfillment{}, err
	}

	expected, exact := def.DataSource().ExpectedRows()
	exists, err := f.Store.TableExists(ctx, inst.Keyspace, inst.Name)
	if err != nil {
		return Fulfillment{}, err
	}
	if exists && exact {
		reuse, err := f.reusable(ctx, def, inst, expected, log)
		if err != nil {
			return Fulfillment{}, err
		}
		if reuse {
			log.Info("reusing fixture", zap.Int64("rows", expected))
			return Fulfillment{Instance: inst, Rows: expected}, nil
		}
	}

	if err := f.Store.Execute(ctx, "DROP TABLE IF EXISTS "+inst.StoreName()); err != nil {
		return Fulfillment{}, err
	}
	if err := f.Store.Execute(ctx, def.CreateTableDDL(inst.StoreName())); err != nil {
		return Fulfillment{}, err
	}

	columns, err := f.Store.TableColumns(ctx, inst.Keyspace, inst.Name)
	if err != nil {
		return Fulfillment{}, err
	}
	if len(columns) != len(def.Columns()) {
		return Fulfillment{}, fmt.Errorf("store reports %d columns, template declares %d", len(columns), len(def.Columns()))
	}

	log.Info("loading fixture", zap.Stringer("source", def.DataSource()), zap.Strings("columns", columns))
	src := func(yield func([]any) error) error {
		return def.DataSource().Rows(ctx, f.Generator, yield)
	}
	n, err := f.Store.InsertRows(ctx, inst.Keyspace, inst.Name, columns, src, f.Load)
	if err != nil {
		return Fulfillment{}, err
	}
	if exact && n != expected {
		return Fulfillment{}, fmt.Errorf("loaded %d rows, expected %d", n, expected)
	}
	log.Info("fixture loaded", zap.Int64("rows", n))
	return Fulfillment{Instance: inst, Rows: n, Loaded: true}, nil
}

// reusable reports whether an existing table has the template's columns and
// the expected row count.
func (f *Fulfiller) reusable(ctx context.Context, def *catalog.TableDefinition, inst TableInstance, expected int64, log *zap.Logger) (bool, error) {
	columns, err := f.Store.TableColumns(ctx, inst.Keyspace, inst.Name)
	if err != nil {
		return false, err
	}
	if !sameColumns(columns, def.Columns()) {
		log.Info("fixture schema differs, reloading", zap.Strings("columns", columns))
		return false, nil
	}
	n, err := f.Store.CountRows(ctx, inst.Keyspace, inst.Name)
	if err != nil {
		return false, err
	}
	if n != expected {
		log.Info("fixture row count differs, reloading", zap.Int64("rows", n), zap.Int64("expected", expected))
		return false, nil
	}
	return true, nil
}

// sameColumns compares column names regardless of order. The store folds
// unquoted names to lower case.
func sameColumns(store []string, declared []catalog.Column) bool {
	if len(store) != len(declared) {
		return false
	}
	names := make(map[string]bool, len(declared))
	for _, c := range declared {
		names[strings.ToLower(c.Name)] = true
	}
	for _, name := range store {
		if !names[strings.ToLower(name)] {
			return false
		}
	}
	return true
}
