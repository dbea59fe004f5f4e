package catalog

import "github.com/roach88/prodtest/internal/tpch"

// SupplierTypes are the supplier column types in TPC-H column order.
var SupplierTypes = []tpch.Type{
	tpch.BigInt,
	tpch.Varchar,
	tpch.Varchar,
	tpch.BigInt,
	tpch.Varchar,
	tpch.Double,
	tpch.Varchar,
}

// supplierMapping sends each TPC-H supplier column to its position in the
// store's column order: key first, then the remaining columns by name
// (s_suppkey, s_acctbal, s_address, s_comment, s_name, s_nationkey, s_phone).
var supplierMapping = []int{0, 4, 2, 5, 6, 1, 3}

// CassandraSupplier is the TPC-H supplier table at scale factor 1.
var CassandraSupplier = NewBuilder("supplier").
	WithConnector(ConnectorName).
	WithKeyspace(Keyspace).
	WithCreateTableDDLTemplate("CREATE TABLE %NAME%(" +
		"   s_suppkey     BIGINT," +
		"   s_name        VARCHAR," +
		"   s_address     VARCHAR," +
		"   s_nationkey   BIGINT," +
		"   s_phone       VARCHAR," +
		"   s_acctbal     DOUBLE," +
		"   s_comment     VARCHAR," +
		"   primary key(s_suppkey))").
	WithDataSource(NewTpchDataSource(tpch.Supplier, supplierMapping, SupplierTypes, 1.0)).
	MustBuild()

// All lists every fixture table, for tooling that loads or lists them.
func All() []*TableDefinition {
	return []*TableDefinition{CassandraSupplier}
}

// ByName returns the fixture with the given table name.
func ByName(name string) (*TableDefinition, bool) {
	for _, def := range All() {
		if def.Name() == name {
			return def, true
		}
	}
	return nil, false
}
