package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/prodtest/internal/harness"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestFixture creates a supplier fixture record.
func createTestFixture(loaded bool) harness.Fulfillment {
	return harness.Fulfillment{
		Instance: harness.TableInstance{Connector: "cassandra", Keyspace: "test", Name: "supplier"},
		Rows:     10000,
		Loaded:   loaded,
	}
}

// createTestOutcome creates an outcome with the given status.
func createTestOutcome(name string, status harness.Status, ms int) harness.Outcome {
	return harness.Outcome{
		Scenario: name,
		Status:   status,
		Duration: time.Duration(ms) * time.Millisecond,
	}
}
