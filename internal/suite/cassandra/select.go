package cassandra

import (
	"fmt"

	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/engine"
	"github.com/roach88/prodtest/internal/harness"
)

// Store object names created by the scenarios.
const (
	ClusteringViewName = "clustering_mv"
	TupleTableName     = "select_tuple_in_primary_key_table"
	UDTName            = "type_user_defined_primary_key"
	UDTTableName       = "select_udt_in_primary_key_table"
)

func selectByPrimaryKey(c *harness.Context) error {
	supplier := c.Table(catalog.CassandraSupplier)
	res, err := c.OnEngine(fmt.Sprintf("SELECT s_suppkey FROM %s WHERE s_suppkey = 10", supplier.EngineName()))
	if err != nil {
		return err
	}
	return harness.ContainsOnly(res, harness.NewRow(10))
}

func selectByRegularColumn(c *harness.Context) error {
	supplier := c.Table(catalog.CassandraSupplier)
	res, err := c.OnEngine(fmt.Sprintf("SELECT s_suppkey FROM %s WHERE s_name = 'Supplier#000000010'", supplier.EngineName()))
	if err != nil {
		return err
	}
	return harness.ContainsOnly(res, harness.NewRow(10))
}

func selectClusteringMaterializedView(c *harness.Context) error {
	supplier := c.Table(catalog.CassandraSupplier)
	ks := c.Keyspace()
	drop := fmt.Sprintf("DROP MATERIALIZED VIEW IF EXISTS %s.%s", ks, ClusteringViewName)

	if err := c.OnStore(drop); err != nil {
		return err
	}
	c.CleanupOnStore(drop)
	err := c.OnStore(fmt.Sprintf("CREATE MATERIALIZED VIEW %s.%s AS "+
		"SELECT * FROM %s "+
		"WHERE s_nationkey IS NOT NULL "+
		"PRIMARY KEY (s_nationkey, s_suppkey) "+
		"WITH CLUSTERING ORDER BY (s_nationkey DESC)",
		ks, ClusteringViewName, supplier.StoreName()))
	if err != nil {
		return err
	}

	// The view is listed before it holds every base row.
	err = c.Eventually(
		c.EngineQuery(fmt.Sprintf("SHOW TABLES FROM %s.%s", c.Connector(), ks)),
		harness.NewRow(ClusteringViewName))
	if err != nil {
		return err
	}
	err = c.Eventually(
		c.EngineQuery(fmt.Sprintf("SELECT status_replicated FROM %s.system.built_views WHERE view_name = '%s'", c.Connector(), ClusteringViewName)),
		harness.NewRow(true))
	if err != nil {
		return err
	}

	view := fmt.Sprintf("%s.%s.%s", c.Connector(), ks, ClusteringViewName)
	res, err := c.OnEngine(fmt.Sprintf("SELECT MAX(s_nationkey), SUM(s_suppkey), AVG(s_acctbal) FROM %s WHERE s_suppkey BETWEEN 1 AND 10", view))
	if err != nil {
		return err
	}
	if err := harness.ContainsOnly(res, harness.NewRow(24, 55, 4334.653)); err != nil {
		return err
	}

	res, err = c.OnEngine(fmt.Sprintf("SELECT s_nationkey, s_suppkey, s_acctbal FROM %s ORDER BY s_nationkey LIMIT 1", view))
	if err != nil {
		return err
	}
	return harness.ContainsOnly(res, harness.NewRow(0, 24, 9170.71))
}

func selectTupleInPrimaryKey(c *harness.Context) error {
	ks := c.Keyspace()
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", ks, TupleTableName)

	if err := c.OnStore(drop); err != nil {
		return err
	}
	c.CleanupOnStore(drop)
	setup := []string{
		fmt.Sprintf("CREATE TABLE %s.%s (intkey int, tuplekey frozen<tuple<int, text, float>>, PRIMARY KEY (intkey, tuplekey))", ks, TupleTableName),
		fmt.Sprintf("INSERT INTO %s.%s (intkey, tuplekey) VALUES(1, (1, 'text-1', 1.11))", ks, TupleTableName),
	}
	for _, stmt := range setup {
		if err := c.OnStore(stmt); err != nil {
			return err
		}
	}

	// The store column is a float, so the engine returns a real.
	expected := engine.NewRowBuilder().
		AddUnnamedField(1).
		AddUnnamedField("text-1").
		AddUnnamedField(float32(1.11)).
		Build()

	table := fmt.Sprintf("%s.%s.%s", c.Connector(), ks, TupleTableName)
	return assertSingleKeyedRow(c, expected,
		fmt.Sprintf("SELECT * FROM %s", table),
		fmt.Sprintf("SELECT * FROM %s WHERE intkey = 1 and tuplekey = row(1, 'text-1', 1.11)", table))
}

func selectUserDefinedTypeInPrimaryKey(c *harness.Context) error {
	ks := c.Keyspace()
	dropTable := fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", ks, UDTTableName)
	dropType := fmt.Sprintf("DROP TYPE IF EXISTS %s.%s", ks, UDTName)

	for _, stmt := range []string{dropTable, dropType} {
		if err := c.OnStore(stmt); err != nil {
			return err
		}
	}
	// cleanups run last-registered first: the table goes before its type
	c.CleanupOnStore(dropType)
	c.CleanupOnStore(dropTable)
	setup := []string{
		fmt.Sprintf("CREATE TYPE %s.%s (field1 text)", ks, UDTName),
		fmt.Sprintf("CREATE TABLE %s.%s (intkey int, udtkey frozen<%s>, PRIMARY KEY (intkey, udtkey))", ks, UDTTableName, UDTName),
		fmt.Sprintf("INSERT INTO %s.%s (intkey, udtkey) VALUES(1, {field1: 'udt-1'})", ks, UDTTableName),
	}
	for _, stmt := range setup {
		if err := c.OnStore(stmt); err != nil {
			return err
		}
	}

	expected := engine.NewRowBuilder().
		AddField("field1", "udt-1").
		Build()

	table := fmt.Sprintf("%s.%s.%s", c.Connector(), ks, UDTTableName)
	return assertSingleKeyedRow(c, expected,
		fmt.Sprintf("SELECT * FROM %s", table),
		fmt.Sprintf("SELECT * FROM %s WHERE intkey = 1 AND udtkey = CAST(ROW('udt-1') AS ROW(x VARCHAR))", table))
}

// assertSingleKeyedRow runs each query and checks it returns exactly one
// row (1, key).
func assertSingleKeyedRow(c *harness.Context, key engine.RowValue, queries ...string) error {
	for _, q := range queries {
		res, err := c.OnEngine(q)
		if err != nil {
			return err
		}
		if err := harness.HasRowsCount(res, 1); err != nil {
			return err
		}
		if err := harness.CellEquals(res, 0, 0, 1); err != nil {
			return err
		}
		if err := harness.CellEquals(res, 0, 1, key); err != nil {
			return err
		}
	}
	return nil
}
