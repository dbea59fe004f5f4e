package catalog

// Names under which the wide-column store is reachable. ConnectorName is the
// engine catalog backed by the store connector; Keyspace holds every table
// the suite reads.
const (
	ConnectorName = "cassandra"
	Keyspace      = "test"
)
