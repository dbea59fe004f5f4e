package cli

import (
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/harness"
)

// FixtureInfo describes a catalog fixture as resolved by the configuration.
type FixtureInfo struct {
	Name         string   `json:"name"`
	EngineName   string   `json:"engine_name"`
	StoreName    string   `json:"store_name"`
	PrimaryKey   []string `json:"primary_key"`
	Source       string   `json:"source"`
	ExpectedRows int64    `json:"expected_rows,omitempty"`
}

// NewFixturesCommand creates the fixtures command and its subcommands.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "List or load fixture tables",
	}
	cmd.AddCommand(newFixturesListCommand(rootOpts))
	cmd.AddCommand(newFixturesLoadCommand(rootOpts))
	return cmd
}

func newFixturesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List catalog fixtures",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFixtures(rootOpts, cmd)
		},
	}
}

func newFixturesLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load every catalog fixture into the store",
		Long: `Create and fill every catalog fixture table. Tables that already
hold the expected number of rows are left alone.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return loadFixtures(rootOpts, cmd)
		},
	}
}

func listFixtures(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	settings := harness.Settings{Connector: cfg.Engine.Connector, Keyspace: cfg.Cassandra.Keyspace}

	var infos []FixtureInfo
	for _, def := range catalog.All() {
		inst := harness.InstanceOf(def, settings)
		info := FixtureInfo{
			Name:       def.Name(),
			EngineName: inst.EngineName(),
			StoreName:  inst.StoreName(),
			PrimaryKey: def.PrimaryKey(),
			Source:     def.DataSource().String(),
		}
		if n, ok := def.DataSource().ExpectedRows(); ok {
			info.ExpectedRows = n
		}
		infos = append(infos, info)
	}

	if formatter.JSON() {
		return formatter.Success(infos)
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	formatter.Writer = tw
	formatter.Printf("NAME\tENGINE NAME\tPRIMARY KEY\tSOURCE\tROWS\n")
	for _, info := range infos {
		formatter.Printf("%s\t%s\t%s\t%s\t%d\n",
			info.Name, info.EngineName, strings.Join(info.PrimaryKey, ", "), info.Source, info.ExpectedRows)
	}
	return tw.Flush()
}

func loadFixtures(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	logger := opts.logger(cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	backend, err := opts.openBackend(cfg, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConnect, "failed to connect", err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			logger.Warn("error closing connections", zap.Error(closeErr))
		}
	}()

	fulfiller, err := backend.Fulfiller()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConnect, "failed to prepare fixture loading", err)
	}

	var reqs []harness.Requirement
	for _, def := range catalog.All() {
		reqs = append(reqs, harness.ImmutableTable(def))
	}
	fixtures, err := fulfiller.Fulfill(cmd.Context(), reqs...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFixtures, "failed to load fixtures", err)
	}

	if formatter.JSON() {
		return formatter.Success(fixtures)
	}
	for _, fx := range fixtures {
		how := "reused"
		if fx.Loaded {
			how = "loaded"
		}
		formatter.Printf("%s: %d rows (%s)\n", fx.Instance, fx.Rows, how)
	}
	return nil
}
