package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prodtest/internal/harness"
	"github.com/roach88/prodtest/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// RunDetail is a ledger run with its fixtures and outcomes.
type RunDetail struct {
	store.Run
	Fixtures []harness.Fulfillment `json:"fixtures"`
	Outcomes []harness.Outcome     `json:"outcomes"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded in the ledger, most recent first.

Example:
  prodtest history --limit 5
  prodtest history show 0190a1b2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistory(opts, cmd)
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show the fixtures and outcomes of one run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRun(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

// openLedger opens an existing ledger. A missing file is a command error
// rather than an empty history.
func openLedger(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if _, err := os.Stat(cfg.Ledger.Path); err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeLedger, "ledger not found", err)
	}
	st, err := store.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
	}
	return st, nil
}

func listHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := openLedger(opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to read ledger", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		formatter.Printf("no runs recorded\n")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	formatter.Writer = tw
	formatter.Printf("RUN\tSTARTED\tDURATION\tPASSED\tFAILED\tERRORED\n")
	for _, r := range runs {
		formatter.Printf("%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Started.Local().Format(time.DateTime), runDuration(r), r.Passed, r.Failed, r.Errored)
	}
	return tw.Flush()
}

func showRun(opts *RootOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := openLedger(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.GetRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", runID), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to read ledger", err)
	}
	detail := RunDetail{Run: run}
	if detail.Fixtures, err = st.RunFixtures(ctx, runID); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to read ledger", err)
	}
	if detail.Outcomes, err = st.RunOutcomes(ctx, runID); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to read ledger", err)
	}

	if formatter.JSON() {
		return formatter.Success(detail)
	}
	formatter.Printf("run %s\n", run.ID)
	formatter.Printf("started:  %s\n", run.Started.Local().Format(time.DateTime))
	formatter.Printf("duration: %s\n", runDuration(run))
	printReport(formatter, &harness.Report{
		RunID:    run.ID,
		Fixtures: detail.Fixtures,
		Outcomes: detail.Outcomes,
		Passed:   run.Passed,
		Failed:   run.Failed,
		Errored:  run.Errored,
	})
	return nil
}

func runDuration(r store.Run) string {
	if r.Finished == nil {
		return "unfinished"
	}
	return r.Finished.Sub(r.Started).Round(time.Millisecond).String()
}

// indent prefixes every line but the first of s.
func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
