package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/engine"
)

// QueryExecutor runs SQL on the query engine. *engine.Executor implements
// it.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, sql string) (*engine.Result, error)
}

// StoreExecutor runs statements directly on the store. *cassandra.Session
// implements it.
type StoreExecutor interface {
	Execute(ctx context.Context, stmt string, args ...any) error
	Close() error
}

// StoreOpener opens a store session for one scenario.
type StoreOpener func(ctx context.Context) (StoreExecutor, error)

// Context is what a scenario sees while it runs. It is not safe for
// concurrent use; scenarios run on a single goroutine.
type Context struct {
	ctx       context.Context
	scenario  string
	engine    QueryExecutor
	openStore StoreOpener
	store     StoreExecutor
	settings  Settings
	polling   Polling
	logger    *zap.Logger
	cleanups  []func(context.Context) error
}

func newContext(ctx context.Context, scenario string, eng QueryExecutor, open StoreOpener, settings Settings, polling Polling, logger *zap.Logger) *Context {
	return &Context{
		ctx:       ctx,
		scenario:  scenario,
		engine:    eng,
		openStore: open,
		settings:  settings,
		polling:   polling,
		logger:    logger.With(zap.String("scenario", scenario)),
	}
}

// Context returns the scenario's context.Context.
func (c *Context) Context() context.Context { return c.ctx }

// Logger returns a logger tagged with the scenario name.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Connector is the engine catalog name of the store connector.
func (c *Context) Connector() string {
	if c.settings.Connector != "" {
		return c.settings.Connector
	}
	return catalog.ConnectorName
}

// Keyspace is the store keyspace holding fixtures and scenario objects.
func (c *Context) Keyspace() string {
	if c.settings.Keyspace != "" {
		return c.settings.Keyspace
	}
	return catalog.Keyspace
}

// Table resolves a fixture definition to its instance.
func (c *Context) Table(def *catalog.TableDefinition) TableInstance {
	return InstanceOf(def, c.settings)
}

// OnEngine runs a query on the engine.
func (c *Context) OnEngine(sql string) (*engine.Result, error) {
	return c.engine.ExecuteQuery(c.ctx, sql)
}

// EngineQuery returns a Query for use with Eventually.
func (c *Context) EngineQuery(sql string) Query {
	return func(ctx context.Context) (*engine.Result, error) {
		return c.engine.ExecuteQuery(ctx, sql)
	}
}

// OnStore runs a statement directly on the store. The session is opened on
// first use and closed when the scenario ends.
func (c *Context) OnStore(stmt string, args ...any) error {
	return c.onStore(c.ctx, stmt, args...)
}

func (c *Context) onStore(ctx context.Context, stmt string, args ...any) error {
	if c.store == nil {
		if c.openStore == nil {
			return fmt.Errorf("no store session available")
		}
		s, err := c.openStore(ctx)
		if err != nil {
			return fmt.Errorf("failed to open store session: %w", err)
		}
		c.store = s
	}
	return c.store.Execute(ctx, stmt, args...)
}

// Eventually polls query until it contains the expected rows, using the
// run's polling settings.
func (c *Context) Eventually(query Query, expected ...Row) error {
	return ContainsEventually(c.ctx, c.polling, query, expected...)
}

// Cleanup registers fn to run when the scenario ends, whatever the
// outcome. Cleanups run in reverse registration order.
func (c *Context) Cleanup(fn func(ctx context.Context) error) {
	c.cleanups = append(c.cleanups, fn)
}

// CleanupOnStore registers a store statement as a cleanup.
func (c *Context) CleanupOnStore(stmt string) {
	c.Cleanup(func(ctx context.Context) error {
		return c.onStore(ctx, stmt)
	})
}

// close runs the cleanups and releases the store session. Cleanups still
// run when the scenario's context was cancelled.
func (c *Context) close() error {
	ctx := context.WithoutCancel(c.ctx)
	var errs []error
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		if err := c.cleanups[i](ctx); err != nil {
			c.logger.Warn("cleanup failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("cleanup: %w", err))
		}
	}
	c.cleanups = nil
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store session: %w", err))
		}
		c.store = nil
	}
	return errors.Join(errs...)
}
