package cassandra

import (
	"context"
	"fmt"
	"sort"
)

// Column kinds in system_schema.columns.
const (
	KindPartitionKey = "partition_key"
	KindClustering   = "clustering"
	KindRegular      = "regular"
	KindStatic       = "static"
)

// ColumnMetadata is one row of system_schema.columns.
type ColumnMetadata struct {
	Name     string
	Kind     string
	Position int
	Type     string
}

// TableColumns returns the column names of keyspace.table in the store's
// column order.
func (s *Session) TableColumns(ctx context.Context, keyspace, table string) ([]string, error) {
	iter := s.session.Query(
		"SELECT column_name, kind, position, type FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?",
		keyspace, table,
	).WithContext(ctx).Iter()

	var cols []ColumnMetadata
	var c ColumnMetadata
	for iter.Scan(&c.Name, &c.Kind, &c.Position, &c.Type) {
		cols = append(cols, c)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s.%s: %w", keyspace, table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s.%s has no columns", keyspace, table)
	}
	return OrderColumns(cols), nil
}

// OrderColumns sorts column metadata the way the store reports a table's
// columns: partition key columns by position, then clustering columns by
// position, then every other column by name.
func OrderColumns(cols []ColumnMetadata) []string {
	sorted := make([]ColumnMetadata, len(cols))
	copy(sorted, cols)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ra, rb := kindRank(a.Kind), kindRank(b.Kind)
		if ra != rb {
			return ra < rb
		}
		if ra < 2 {
			return a.Position < b.Position
		}
		return a.Name < b.Name
	})

	names := make([]string, len(sorted))
	for i, c := range sorted {
		names[i] = c.Name
	}
	return names
}

func kindRank(kind string) int {
	switch kind {
	case KindPartitionKey:
		return 0
	case KindClustering:
		return 1
	default:
		return 2
	}
}
