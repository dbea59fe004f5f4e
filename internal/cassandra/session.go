// Package cassandra talks to the wide-column store directly, bypassing the
// query engine. Scenarios use it for schema objects the engine cannot
// create, and the fixture loader uses it to create and fill tables.
package cassandra

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/config"
)

// Session is a store session. It is safe for concurrent use.
type Session struct {
	session *gocql.Session
	logger  *zap.Logger
}

// ClusterConfig translates the store settings into a gocql cluster config.
func ClusterConfig(cfg config.Cassandra) (*gocql.ClusterConfig, error) {
	consistency, err := gocql.ParseConsistencyWrapper(strings.ToUpper(cfg.Consistency))
	if err != nil {
		return nil, fmt.Errorf("invalid consistency: %w", err)
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Port = cfg.Port
	cluster.Consistency = consistency
	if cfg.ProtocolVersion > 0 {
		cluster.ProtoVersion = cfg.ProtocolVersion
	}
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	// statements always name their keyspace; the session is not bound to
	// one so it can create it
	cluster.Keyspace = ""
	return cluster, nil
}

// Open connects to the store.
func Open(cfg config.Cassandra, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cluster, err := ClusterConfig(cfg)
	if err != nil {
		return nil, err
	}
	s, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cassandra %v: %w", cfg.Hosts, err)
	}
	logger.Debug("store session opened", zap.Strings("hosts", cfg.Hosts), zap.Int("port", cfg.Port))
	return &Session{session: s, logger: logger}, nil
}

// Close releases the session. It is safe to call more than once.
func (s *Session) Close() error {
	if !s.session.Closed() {
		s.session.Close()
	}
	return nil
}

// Execute runs a statement that returns no rows.
func (s *Session) Execute(ctx context.Context, stmt string, args ...any) error {
	s.logger.Debug("executing on store", zap.String("cql", stmt))
	if err := s.session.Query(stmt, args...).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("store statement %q failed: %w", stmt, err)
	}
	return nil
}

// EnsureKeyspace creates keyspace with SimpleStrategy replication if it
// does not exist. The replication of an existing keyspace is left alone.
func (s *Session) EnsureKeyspace(ctx context.Context, keyspace string, replicationFactor int) error {
	return s.Execute(ctx, CreateKeyspaceStatement(keyspace, replicationFactor))
}

// CreateKeyspaceStatement renders the keyspace bootstrap statement.
func CreateKeyspaceStatement(keyspace string, replicationFactor int) string {
	return fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		keyspace, replicationFactor)
}

// TableExists reports whether keyspace.table exists.
func (s *Session) TableExists(ctx context.Context, keyspace, table string) (bool, error) {
	var name string
	err := s.session.Query(
		"SELECT table_name FROM system_schema.tables WHERE keyspace_name = ? AND table_name = ?",
		keyspace, table,
	).WithContext(ctx).Scan(&name)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s.%s: %w", keyspace, table, err)
	}
	return true, nil
}

// CountRows counts the rows of keyspace.table.
func (s *Session) CountRows(ctx context.Context, keyspace, table string) (int64, error) {
	var n int64
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", keyspace, table)
	if err := s.session.Query(stmt).WithContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s.%s: %w", keyspace, table, err)
	}
	return n, nil
}
