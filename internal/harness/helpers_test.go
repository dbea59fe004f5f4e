package harness

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/tpch"
	"github.com/roach88/prodtest/internal/testutil"
)

var regionDef = catalog.NewBuilder("region").
	WithConnector(catalog.ConnectorName).
	WithKeyspace(catalog.Keyspace).
	WithCreateTableDDLTemplate("CREATE TABLE %NAME%(r_regionkey BIGINT, r_name VARCHAR, r_comment VARCHAR, primary key(r_regionkey))").
	WithDataSource(catalog.NewTpchDataSource(tpch.Region, []int{0, 2, 1}, []tpch.Type{tpch.BigInt, tpch.Varchar, tpch.Varchar}, 1)).
	MustBuild()

var regionNames = []string{"AFRICA", "AMERICA", "ASIA", "EUROPE", "MIDDLE EAST"}

type regionGenerator struct {
	calls int
}

func (g *regionGenerator) Rows(_ context.Context, table tpch.Table, _ float64, fn func([]any) error) error {
	g.calls++
	if table.Name != "region" {
		return fmt.Errorf("unexpected table %s", table.Name)
	}
	for i, name := range regionNames {
		if err := fn([]any{int64(i), name, "comment " + name}); err != nil {
			return err
		}
	}
	return nil
}

func newFakeStore() *testutil.FakeStore {
	s := testutil.NewFakeStore()
	s.ColumnOrder["test.region"] = []string{"r_regionkey", "r_comment", "r_name"}
	return s
}

func storeOpener(s *testutil.FakeStore) StoreOpener {
	return func(ctx context.Context) (StoreExecutor, error) {
		return s.Open(ctx)
	}
}

func newTestContext(t *testing.T, eng QueryExecutor, s *testutil.FakeStore) *Context {
	t.Helper()
	var open StoreOpener
	if s != nil {
		open = storeOpener(s)
	}
	return newContext(context.Background(), t.Name(), eng, open, Settings{}, Polling{}, zaptest.NewLogger(t))
}

type sliceGenerator struct {
	rows [][]any
}

func (g *sliceGenerator) Rows(_ context.Context, _ tpch.Table, _ float64, fn func([]any) error) error {
	for _, r := range g.rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
