// Package environment connects the harness to a configured engine and store.
package environment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/cassandra"
	"github.com/roach88/prodtest/internal/config"
	"github.com/roach88/prodtest/internal/engine"
	"github.com/roach88/prodtest/internal/harness"
	"github.com/roach88/prodtest/internal/tpch"
)

// Environment holds the connections of one prodtest invocation.
type Environment struct {
	Config *config.Config
	Engine *engine.Executor
	Logger *zap.Logger

	// store is the session used for fixture loading, opened on first use.
	store *cassandra.Session
}

// Open connects to the engine. The store is contacted only when fixtures
// are loaded or a scenario issues a store statement.
func Open(cfg *config.Config, logger *zap.Logger) (*Environment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	exec, err := engine.Open(cfg.EngineOptions(), logger.Named("engine"))
	if err != nil {
		return nil, err
	}
	return &Environment{Config: cfg, Engine: exec, Logger: logger}, nil
}

// Close releases every connection.
func (e *Environment) Close() error {
	var errs []error
	if e.store != nil {
		errs = append(errs, e.store.Close())
		e.store = nil
	}
	if e.Engine != nil {
		errs = append(errs, e.Engine.Close())
	}
	return errors.Join(errs...)
}

// Settings are the connector and keyspace fixtures resolve against.
func (e *Environment) Settings() harness.Settings {
	return harness.Settings{
		Connector: e.Config.Engine.Connector,
		Keyspace:  e.Config.Cassandra.Keyspace,
	}
}

// Polling returns the configured eventual-consistency polling.
func (e *Environment) Polling() harness.Polling {
	return harness.Polling{
		Interval: e.Config.Harness.PollInterval,
		Timeout:  e.Config.Harness.EventuallyTimeout,
	}
}

// Generator returns the TPC-H row source named by fixtures.source.
func (e *Environment) Generator() (tpch.Generator, error) {
	switch e.Config.Fixtures.Source {
	case config.SourceEngine:
		return &tpch.EngineGenerator{Engine: e.Engine, Catalog: e.Config.Engine.TpchCatalog}, nil
	case config.SourceFile:
		return &tpch.FileGenerator{Dir: e.Config.Fixtures.DataDir}, nil
	default:
		return nil, fmt.Errorf("unknown fixture source %q", e.Config.Fixtures.Source)
	}
}

// OpenStore opens a new store session. Scenarios get one each.
func (e *Environment) OpenStore(ctx context.Context) (harness.StoreExecutor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := cassandra.Open(e.Config.Cassandra, e.Logger.Named("store"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Store returns the shared session used for fixture loading.
func (e *Environment) Store() (*cassandra.Session, error) {
	if e.store == nil {
		s, err := cassandra.Open(e.Config.Cassandra, e.Logger.Named("store"))
		if err != nil {
			return nil, err
		}
		e.store = s
	}
	return e.store, nil
}

// Fulfiller returns a fixture fulfiller writing through the shared store
// session.
func (e *Environment) Fulfiller() (*harness.Fulfiller, error) {
	gen, err := e.Generator()
	if err != nil {
		return nil, err
	}
	s, err := e.Store()
	if err != nil {
		return nil, err
	}
	return &harness.Fulfiller{
		Store:             s,
		Generator:         gen,
		Settings:          e.Settings(),
		ReplicationFactor: e.Config.Cassandra.ReplicationFactor,
		Load: cassandra.LoadOptions{
			BatchSize:   e.Config.Fixtures.BatchSize,
			Concurrency: e.Config.Fixtures.LoadConcurrency,
		},
		Logger: e.Logger.Named("fixtures"),
	}, nil
}

// Runner returns a scenario runner. recorder may be nil.
func (e *Environment) Runner(recorder harness.Recorder) (*harness.Runner, error) {
	f, err := e.Fulfiller()
	if err != nil {
		return nil, err
	}
	return &harness.Runner{
		Engine:    e.Engine,
		OpenStore: e.OpenStore,
		Fixtures:  f,
		Settings:  e.Settings(),
		Polling:   e.Polling(),
		Recorder:  recorder,
		Logger:    e.Logger.Named("runner"),
	}, nil
}
