// Package testutil provides fakes and deterministic helpers for tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/prodtest/internal/engine"
)

// Result builds an engine result. Each column is "name type", for example
// "s_suppkey bigint" or "tuplekey row(integer, varchar, real)".
func Result(columns []string, rows ...[]any) *engine.Result {
	r := &engine.Result{Columns: make([]engine.Column, len(columns))}
	for i, c := range columns {
		name, typ, _ := strings.Cut(c, " ")
		sig, err := engine.ParseType(typ)
		if err != nil {
			panic(fmt.Sprintf("testutil.Result: column %q: %v", c, err))
		}
		r.Columns[i] = engine.Column{Name: name, Type: sig}
	}
	r.Rows = append(r.Rows, rows...)
	return r
}

type response struct {
	result *engine.Result
	err    error
}

// FakeEngine answers queries from a script. Each query maps to a sequence
// of responses; the last one repeats once the others are used up. A query
// with no script fails.
//
// Thread-safety: FakeEngine is safe for concurrent use via internal mutex.
type FakeEngine struct {
	mu        sync.Mutex
	responses map[string][]response
	queries   []string
}

// NewFakeEngine returns an engine with no scripted queries.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{responses: make(map[string][]response)}
}

// On scripts results for sql, returned in order.
func (f *FakeEngine) On(sql string, results ...*engine.Result) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range results {
		f.responses[sql] = append(f.responses[sql], response{result: r})
	}
	return f
}

// Fail scripts an error for sql.
func (f *FakeEngine) Fail(sql string, err error) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[sql] = append(f.responses[sql], response{err: err})
	return f
}

// ExecuteQuery implements harness.QueryExecutor.
func (f *FakeEngine) ExecuteQuery(ctx context.Context, sql string) (*engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, sql)

	queue := f.responses[sql]
	if len(queue) == 0 {
		return nil, &engine.QueryError{SQL: sql, Err: fmt.Errorf("unexpected query")}
	}
	next := queue[0]
	if len(queue) > 1 {
		f.responses[sql] = queue[1:]
	}
	return next.result, next.err
}

// Queries returns every query received, in order.
func (f *FakeEngine) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Count returns how many times sql was received.
func (f *FakeEngine) Count(sql string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if q == sql {
			n++
		}
	}
	return n
}
