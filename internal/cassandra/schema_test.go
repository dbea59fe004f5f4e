package cassandra

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodtest/internal/config"
)

func TestOrderColumns_Supplier(t *testing.T) {
	cols := []ColumnMetadata{
		{Name: "s_name", Kind: KindRegular, Position: -1},
		{Name: "s_phone", Kind: KindRegular, Position: -1},
		{Name: "s_suppkey", Kind: KindPartitionKey, Position: 0},
		{Name: "s_acctbal", Kind: KindRegular, Position: -1},
		{Name: "s_comment", Kind: KindRegular, Position: -1},
		{Name: "s_address", Kind: KindRegular, Position: -1},
		{Name: "s_nationkey", Kind: KindRegular, Position: -1},
	}

	assert.Equal(t,
		[]string{"s_suppkey", "s_acctbal", "s_address", "s_comment", "s_name", "s_nationkey", "s_phone"},
		OrderColumns(cols))
}

func TestOrderColumns_CompositeKey(t *testing.T) {
	cols := []ColumnMetadata{
		{Name: "value", Kind: KindRegular, Position: -1},
		{Name: "b", Kind: KindClustering, Position: 1},
		{Name: "z", Kind: KindPartitionKey, Position: 0},
		{Name: "a", Kind: KindClustering, Position: 0},
		{Name: "y", Kind: KindPartitionKey, Position: 1},
		{Name: "shared", Kind: KindStatic, Position: -1},
	}

	assert.Equal(t, []string{"z", "y", "a", "b", "shared", "value"}, OrderColumns(cols))
}

func TestInsertStatement(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO test.supplier (s_suppkey, s_acctbal, s_name) VALUES (?, ?, ?)",
		InsertStatement("test", "supplier", []string{"s_suppkey", "s_acctbal", "s_name"}))
}

func TestCreateKeyspaceStatement(t *testing.T) {
	assert.Equal(t,
		"CREATE KEYSPACE IF NOT EXISTS test WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 3}",
		CreateKeyspaceStatement("test", 3))
}

func TestClusterConfig(t *testing.T) {
	cluster, err := ClusterConfig(config.Cassandra{
		Hosts:           []string{"cass-1", "cass-2"},
		Port:            9043,
		Consistency:     "local_quorum",
		ProtocolVersion: 4,
		Timeout:         5 * time.Second,
		ConnectTimeout:  2 * time.Second,
		Username:        "cassandra",
		Password:        "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"cass-1", "cass-2"}, cluster.Hosts)
	assert.Equal(t, 9043, cluster.Port)
	assert.Equal(t, gocql.LocalQuorum, cluster.Consistency)
	assert.Equal(t, 4, cluster.ProtoVersion)
	assert.Equal(t, 5*time.Second, cluster.Timeout)
	assert.Equal(t, 2*time.Second, cluster.ConnectTimeout)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "cassandra", Password: "secret"}, cluster.Authenticator)
	assert.Empty(t, cluster.Keyspace)
}

func TestClusterConfig_NoAuthWithoutUser(t *testing.T) {
	cluster, err := ClusterConfig(config.Cassandra{Hosts: []string{"localhost"}, Port: 9042, Consistency: "ONE"})
	require.NoError(t, err)
	assert.Nil(t, cluster.Authenticator)
}

func TestClusterConfig_BadConsistency(t *testing.T) {
	_, err := ClusterConfig(config.Cassandra{Hosts: []string{"localhost"}, Consistency: "SOME"})
	assert.Error(t, err)
}
