package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/prodtest/internal/catalog"
)

func TestTables_FlattensAndDeduplicates(t *testing.T) {
	reqs := []Requirement{
		AllOf(ImmutableTable(catalog.CassandraSupplier), ImmutableTable(regionDef)),
		ImmutableTable(catalog.CassandraSupplier),
		nil,
	}

	tables := Tables(reqs...)
	assert.Equal(t, []*catalog.TableDefinition{catalog.CassandraSupplier, regionDef}, tables)
}

func TestInstanceOf(t *testing.T) {
	inst := InstanceOf(catalog.CassandraSupplier, Settings{})
	assert.Equal(t, "cassandra.test.supplier", inst.EngineName())
	assert.Equal(t, "test.supplier", inst.StoreName())

	inst = InstanceOf(catalog.CassandraSupplier, Settings{Connector: "cass2", Keyspace: "product"})
	assert.Equal(t, "cass2.product.supplier", inst.EngineName())
	assert.Equal(t, "product.supplier", inst.StoreName())
}

type supplierProvider struct{}

func (supplierProvider) Requirements(Settings) Requirement {
	return ImmutableTable(catalog.CassandraSupplier)
}

func TestRequirementsProvider(t *testing.T) {
	var p RequirementsProvider = supplierProvider{}
	assert.Equal(t, []*catalog.TableDefinition{catalog.CassandraSupplier}, Tables(p.Requirements(Settings{})))
}
