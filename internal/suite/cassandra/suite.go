// Package cassandra is the read-path product test suite for the engine's
// Cassandra connector. Every scenario reads the TPC-H supplier fixture
// through the engine; some also create their own objects in the store.
package cassandra

import (
	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/harness"
)

// Test groups.
const (
	GroupCassandra            = "cassandra"
	GroupProfileSpecificTests = "profile_specific_tests"
)

// Suite provides the scenarios and their shared requirement.
type Suite struct{}

var _ harness.RequirementsProvider = Suite{}

// Requirements implements harness.RequirementsProvider.
func (Suite) Requirements(harness.Settings) harness.Requirement {
	return harness.ImmutableTable(catalog.CassandraSupplier)
}

// Scenarios returns the suite in execution order.
func (s Suite) Scenarios() []*harness.Scenario {
	scenarios := []*harness.Scenario{
		{
			Name:        "select_with_more_partitioning_keys_than_limit",
			Description: "primary key equality returns the single matching supplier",
			Run:         selectByPrimaryKey,
		},
		{
			Name:        "select_with_more_partitioning_keys_than_limit_non_pk",
			Description: "equality on a regular column returns the single matching supplier",
			Run:         selectByRegularColumn,
		},
		{
			Name:        "select_clustering_materialized_view",
			Description: "a materialized view with a descending clustering key is readable once built",
			Run:         selectClusteringMaterializedView,
		},
		{
			Name:        "select_tuple_type_in_primary_key",
			Description: "a frozen tuple in the primary key reads back as an unnamed row",
			Run:         selectTupleInPrimaryKey,
		},
		{
			Name:        "select_user_defined_type_in_primary_key",
			Description: "a frozen user-defined type in the primary key reads back as a named row",
			Run:         selectUserDefinedTypeInPrimaryKey,
		},
	}
	req := s.Requirements(harness.Settings{})
	for _, sc := range scenarios {
		sc.Groups = []string{GroupCassandra, GroupProfileSpecificTests}
		sc.Requires = []harness.Requirement{req}
	}
	return scenarios
}

// Scenarios returns the suite's scenarios.
func Scenarios() []*harness.Scenario {
	return Suite{}.Scenarios()
}
