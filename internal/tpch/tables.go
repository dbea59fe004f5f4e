// Package tpch describes the TPC-H tables used as fixture data and produces
// their rows, either from the query engine's tpch catalog or from dbgen
// ".tbl" files.
package tpch

import (
	"fmt"
	"math"
	"strconv"
)

// Column is a TPC-H column in canonical order, named the way the engine's
// tpch catalog names it (no table prefix).
type Column struct {
	Name string
	Type Type
}

// Table describes one TPC-H table.
type Table struct {
	Name    string
	Columns []Column

	// BaseRows is the row count at scale factor 1.
	BaseRows int64

	// Scaled reports whether the row count grows linearly with the scale
	// factor. nation and region are fixed size.
	Scaled bool

	// Exact is false when BaseRows*scale is only an approximation
	// (lineitem varies per order).
	Exact bool
}

// ColumnNames returns the canonical column names.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Cardinality returns the expected row count at the given scale factor.
// ok is false when the count is approximate.
func (t Table) Cardinality(scaleFactor float64) (rows int64, ok bool) {
	if !t.Scaled {
		return t.BaseRows, true
	}
	return int64(math.Round(float64(t.BaseRows) * scaleFactor)), t.Exact
}

var (
	Customer = Table{
		Name: "customer",
		Columns: []Column{
			{"custkey", BigInt},
			{"name", Varchar},
			{"address", Varchar},
			{"nationkey", BigInt},
			{"phone", Varchar},
			{"acctbal", Double},
			{"mktsegment", Varchar},
			{"comment", Varchar},
		},
		BaseRows: 150_000,
		Scaled:   true,
		Exact:    true,
	}

	Orders = Table{
		Name: "orders",
		Columns: []Column{
			{"orderkey", BigInt},
			{"custkey", BigInt},
			{"orderstatus", Varchar},
			{"totalprice", Double},
			{"orderdate", Date},
			{"orderpriority", Varchar},
			{"clerk", Varchar},
			{"shippriority", Integer},
			{"comment", Varchar},
		},
		BaseRows: 1_500_000,
		Scaled:   true,
		Exact:    true,
	}

	LineItem = Table{
		Name: "lineitem",
		Columns: []Column{
			{"orderkey", BigInt},
			{"partkey", BigInt},
			{"suppkey", BigInt},
			{"linenumber", Integer},
			{"quantity", Double},
			{"extendedprice", Double},
			{"discount", Double},
			{"tax", Double},
			{"returnflag", Varchar},
			{"linestatus", Varchar},
			{"shipdate", Date},
			{"commitdate", Date},
			{"receiptdate", Date},
			{"shipinstruct", Varchar},
			{"shipmode", Varchar},
			{"comment", Varchar},
		},
		BaseRows: 6_001_215,
		Scaled:   true,
		Exact:    false,
	}

	Part = Table{
		Name: "part",
		Columns: []Column{
			{"partkey", BigInt},
			{"name", Varchar},
			{"mfgr", Varchar},
			{"brand", Varchar},
			{"type", Varchar},
			{"size", Integer},
			{"container", Varchar},
			{"retailprice", Double},
			{"comment", Varchar},
		},
		BaseRows: 200_000,
		Scaled:   true,
		Exact:    true,
	}

	PartSupp = Table{
		Name: "partsupp",
		Columns: []Column{
			{"partkey", BigInt},
			{"suppkey", BigInt},
			{"availqty", Integer},
			{"supplycost", Double},
			{"comment", Varchar},
		},
		BaseRows: 800_000,
		Scaled:   true,
		Exact:    true,
	}

	Supplier = Table{
		Name: "supplier",
		Columns: []Column{
			{"suppkey", BigInt},
			{"name", Varchar},
			{"address", Varchar},
			{"nationkey", BigInt},
			{"phone", Varchar},
			{"acctbal", Double},
			{"comment", Varchar},
		},
		BaseRows: 10_000,
		Scaled:   true,
		Exact:    true,
	}

	Nation = Table{
		Name: "nation",
		Columns: []Column{
			{"nationkey", BigInt},
			{"name", Varchar},
			{"regionkey", BigInt},
			{"comment", Varchar},
		},
		BaseRows: 25,
		Exact:    true,
	}

	Region = Table{
		Name: "region",
		Columns: []Column{
			{"regionkey", BigInt},
			{"name", Varchar},
			{"comment", Varchar},
		},
		BaseRows: 5,
		Exact:    true,
	}
)

// Tables lists every TPC-H table.
var Tables = []Table{Customer, Orders, LineItem, Part, PartSupp, Supplier, Nation, Region}

// TableByName looks a table up by its TPC-H name.
func TableByName(name string) (Table, error) {
	for _, t := range Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("unknown tpch table %q", name)
}

// SchemaName returns the engine tpch catalog schema holding data at the
// given scale factor: "tiny" for 0.01, otherwise "sf" followed by the scale.
func SchemaName(scaleFactor float64) (string, error) {
	if scaleFactor <= 0 || math.IsNaN(scaleFactor) || math.IsInf(scaleFactor, 0) {
		return "", fmt.Errorf("invalid scale factor %v", scaleFactor)
	}
	if scaleFactor == 0.01 {
		return "tiny", nil
	}
	return "sf" + strconv.FormatFloat(scaleFactor, 'f', -1, 64), nil
}
