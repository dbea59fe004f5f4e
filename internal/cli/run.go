package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/harness"
	"github.com/roach88/prodtest/internal/store"
	cassandrasuite "github.com/roach88/prodtest/internal/suite/cassandra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Groups      []string
	Filter      string
	ScenarioDir string
	NoLedger    bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load fixtures and run scenarios",
		Long: `Load the fixtures the selected scenarios require, then run the
scenarios one after another against the engine.

The built-in Cassandra suite always takes part; --scenarios adds the
convention scenarios (*.yaml) found in a directory. Every run is recorded
in the ledger unless --no-ledger is given or ledger.enabled is false.

Exit status is 0 when every scenario passed, 1 when any failed or
errored and 2 when the run could not be carried out.

Example:
  prodtest run
  prodtest run --group cassandra --filter 'select_*_primary_key'
  prodtest run --scenarios ./scenarios --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Groups, "group", nil, "only run scenarios in this group (repeatable)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")
	cmd.Flags().StringVar(&opts.ScenarioDir, "scenarios", "", "directory of convention scenario files")
	cmd.Flags().BoolVar(&opts.NoLedger, "no-ledger", false, "do not record the run in the ledger")

	return cmd
}

// selectScenarios gathers the built-in and convention scenarios and applies
// the group and name filters.
func selectScenarios(opts *RunOptions) ([]*harness.Scenario, error) {
	scenarios := cassandrasuite.Scenarios()
	if opts.ScenarioDir != "" {
		conv, err := harness.LoadConventionDir(opts.ScenarioDir)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, conv...)
	}
	if err := harness.Validate(scenarios); err != nil {
		return nil, err
	}
	return harness.Select(scenarios, harness.Filter{Groups: opts.Groups, Pattern: opts.Filter})
}

func runScenarios(opts *RunOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	logger := opts.logger(cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	scenarios, err := selectScenarios(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenarios, "failed to load scenarios", err)
	}
	if len(scenarios) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeScenarios, "no scenarios match the given groups and filter", nil)
	}

	backend, err := opts.openBackend(cfg, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConnect, "failed to connect", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			logger.Warn("error closing connections", zap.Error(closeErr))
		}
	}()

	var recorder harness.Recorder
	if cfg.Ledger.Enabled && !opts.NoLedger {
		st, err := store.Open(cfg.Ledger.Path)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Warn("error closing ledger", zap.Error(closeErr))
			}
		}()
		recorder = st
	}

	runner, err := backend.Runner(recorder)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConnect, "failed to prepare runner", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := runner.Run(ctx, scenarios)
	if report == nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenarios, "run did not start", runErr)
	}
	if runErr != nil {
		// outcomes recorded before the run stopped are still reported
		printReport(formatter, report)
		return formatter.Fail(ExitCommandError, ErrCodeFixtures, "run stopped", runErr)
	}

	if report.OK() {
		if formatter.JSON() {
			return formatter.Success(report)
		}
		printReport(formatter, report)
		return nil
	}
	if formatter.JSON() {
		if err := formatter.Failed(report); err != nil {
			return err
		}
	} else {
		printReport(formatter, report)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed, %d errored", report.Failed, report.Errored))
}

// printReport writes the text form of a run report.
func printReport(f *OutputFormatter, report *harness.Report) {
	for _, fx := range report.Fixtures {
		how := "reused"
		if fx.Loaded {
			how = "loaded"
		}
		f.Printf("fixture %s: %d rows (%s)\n", fx.Instance, fx.Rows, how)
	}
	for _, o := range report.Outcomes {
		f.Printf("%-6s %s (%s)\n", statusLabel(o.Status), o.Scenario, o.Duration.Round(time.Millisecond))
		if o.Message != "" && o.Status != harness.StatusPassed {
			f.Printf("       %s\n", indent(o.Message, "       "))
		}
	}
	f.Printf("run %s: %d passed, %d failed, %d errored\n", report.RunID, report.Passed, report.Failed, report.Errored)
}

func statusLabel(s harness.Status) string {
	switch s {
	case harness.StatusPassed:
		return "PASS"
	case harness.StatusFailed:
		return "FAIL"
	default:
		return "ERROR"
	}
}
