package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/config"
	"github.com/roach88/prodtest/internal/engine"
	"github.com/roach88/prodtest/internal/harness"
	"github.com/roach88/prodtest/internal/testutil"
)

const pkQuery = "SELECT s_suppkey FROM cassandra.test.supplier WHERE s_suppkey = 10"

// writeTestConfig writes a config whose ledger lives in a temp directory.
func writeTestConfig(t *testing.T) (configPath, ledgerPath string) {
	t.Helper()
	dir := t.TempDir()
	ledgerPath = filepath.Join(dir, "ledger.db")
	configPath = filepath.Join(dir, "prodtest.yaml")
	body := "ledger:\n  path: " + ledgerPath + "\nharness:\n  poll_interval: 1ms\n  eventually_timeout: 1s\n"
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))
	return configPath, ledgerPath
}

type fixedFixtures []harness.Fulfillment

func (f fixedFixtures) Fulfill(context.Context, ...harness.Requirement) ([]harness.Fulfillment, error) {
	return f, nil
}

var supplierFixture = harness.Fulfillment{
	Instance: harness.TableInstance{Connector: "cassandra", Keyspace: "test", Name: "supplier"},
	Rows:     10000,
	Loaded:   true,
}

// fakeBackend serves the run and fixtures commands from fakes.
type fakeBackend struct {
	engine   *testutil.FakeEngine
	store    *testutil.FakeStore
	fixtures harness.FixtureProvider
	closed   bool
}

// supplierColumns is the supplier column order the store reports.
var supplierColumns = []string{"s_suppkey", "s_acctbal", "s_address", "s_comment", "s_name", "s_nationkey", "s_phone"}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		engine:   testutil.NewFakeEngine(),
		store:    testutil.NewFakeStore(),
		fixtures: fixedFixtures{supplierFixture},
	}
}

func (b *fakeBackend) Runner(recorder harness.Recorder) (*harness.Runner, error) {
	return &harness.Runner{
		Engine: b.engine,
		OpenStore: func(ctx context.Context) (harness.StoreExecutor, error) {
			return b.store.Open(ctx)
		},
		Fixtures: b.fixtures,
		Polling:  harness.Polling{Interval: time.Millisecond, Timeout: time.Second},
		Recorder: recorder,
		Logger:   zap.NewNop(),
	}, nil
}

func (b *fakeBackend) Fulfiller() (*harness.Fulfiller, error) {
	return &harness.Fulfiller{
		Store:  b.store,
		Load:   testutil.LoadOptionsForTest(),
		Logger: zap.NewNop(),
	}, nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBackend) opener() func(*config.Config, *zap.Logger) (Backend, error) {
	return func(*config.Config, *zap.Logger) (Backend, error) {
		return b, nil
	}
}

func failingOpener(*config.Config, *zap.Logger) (Backend, error) {
	return nil, errors.New("connection refused")
}

func suppkeyResult(keys ...int64) *engine.Result {
	rows := make([][]any, len(keys))
	for i, k := range keys {
		rows[i] = []any{k}
	}
	return testutil.Result([]string{"s_suppkey bigint"}, rows...)
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
