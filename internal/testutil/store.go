package testutil

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/roach88/prodtest/internal/cassandra"
)

var (
	createTableRe = regexp.MustCompile(`(?is)^\s*CREATE TABLE\s+(?:IF NOT EXISTS\s+)?([\w.]+)\s*\(`)
	dropTableRe   = regexp.MustCompile(`(?is)^\s*DROP TABLE\s+(?:IF EXISTS\s+)?([\w.]+)`)
)

// FakeTable is a table held by FakeStore.
type FakeTable struct {
	Columns []string
	Rows    [][]any
}

// FakeStore records store statements and keeps just enough table state
// for fixture loading: tables appear on CREATE TABLE, vanish on DROP TABLE
// and fill up through InsertRows.
//
// Thread-safety: FakeStore is safe for concurrent use via internal mutex.
type FakeStore struct {
	mu         sync.Mutex
	statements []string
	tables     map[string]*FakeTable
	keyspaces  map[string]int
	failures   map[string]error

	// ColumnOrder gives the column order TableColumns reports, keyed by
	// "keyspace.table".
	ColumnOrder map[string][]string

	opened int
	closed int
}

// NewFakeStore returns an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		tables:      make(map[string]*FakeTable),
		keyspaces:   make(map[string]int),
		failures:    make(map[string]error),
		ColumnOrder: make(map[string][]string),
	}
}

// FailOn makes the exact statement stmt fail with err.
func (s *FakeStore) FailOn(stmt string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[stmt] = err
}

// PutTable installs a table as if it had been created and loaded earlier.
func (s *FakeStore) PutTable(name string, columns []string, rows [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = &FakeTable{Columns: columns, Rows: rows}
}

// Table returns the named table, or nil.
func (s *FakeStore) Table(name string) *FakeTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[name]
}

// Statements returns every statement received, in order.
func (s *FakeStore) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statements...)
}

// Reset forgets recorded statements.
func (s *FakeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = nil
}

// Open counts a session open and returns the store itself.
func (s *FakeStore) Open(context.Context) (*FakeStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	return s, nil
}

// Sessions returns how many sessions were opened and closed.
func (s *FakeStore) Sessions() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// Execute records stmt and applies CREATE TABLE and DROP TABLE.
func (s *FakeStore) Execute(_ context.Context, stmt string, _ ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, stmt)
	if err, ok := s.failures[stmt]; ok {
		return err
	}
	if m := createTableRe.FindStringSubmatch(stmt); m != nil {
		s.tables[m[1]] = &FakeTable{Columns: s.ColumnOrder[m[1]]}
	} else if m := dropTableRe.FindStringSubmatch(stmt); m != nil {
		delete(s.tables, m[1])
	}
	return nil
}

// Close counts a session close.
func (s *FakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// EnsureKeyspace records the keyspace bootstrap.
func (s *FakeStore) EnsureKeyspace(ctx context.Context, keyspace string, replicationFactor int) error {
	if err := s.Execute(ctx, cassandra.CreateKeyspaceStatement(keyspace, replicationFactor)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyspaces[keyspace] = replicationFactor
	return nil
}

// TableExists reports whether the table was created or put.
func (s *FakeStore) TableExists(_ context.Context, keyspace, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[keyspace+"."+table]
	return ok, nil
}

// CountRows returns the number of rows held.
func (s *FakeStore) CountRows(_ context.Context, keyspace, table string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[keyspace+"."+table]
	if !ok {
		return 0, fmt.Errorf("table %s.%s does not exist", keyspace, table)
	}
	return int64(len(t.Rows)), nil
}

// TableColumns returns the columns a table was put with, or ColumnOrder
// for tables created through Execute.
func (s *FakeStore) TableColumns(_ context.Context, keyspace, table string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := keyspace + "." + table
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", name)
	}
	if t.Columns != nil {
		return append([]string(nil), t.Columns...), nil
	}
	cols, ok := s.ColumnOrder[name]
	if !ok {
		return nil, fmt.Errorf("no column order configured for %s", name)
	}
	return append([]string(nil), cols...), nil
}

// InsertRows appends every row of src to the table.
func (s *FakeStore) InsertRows(_ context.Context, keyspace, table string, columns []string, src cassandra.RowSource, _ cassandra.LoadOptions) (int64, error) {
	name := keyspace + "." + table
	var rows [][]any
	err := src(func(row []any) error {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values, want %d", len(row), len(columns))
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return 0, fmt.Errorf("table %s does not exist", name)
	}
	t.Rows = append(t.Rows, rows...)
	s.statements = append(s.statements, fmt.Sprintf("-- %d rows into %s (%s)", len(rows), name, strings.Join(columns, ", ")))
	return int64(len(rows)), nil
}

// LoadOptionsForTest returns small load options.
func LoadOptionsForTest() cassandra.LoadOptions {
	return cassandra.LoadOptions{BatchSize: 10, Concurrency: 1}
}
