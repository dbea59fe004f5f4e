package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/roach88/prodtest/internal/config"
	"github.com/roach88/prodtest/internal/environment"
	"github.com/roach88/prodtest/internal/harness"
	"github.com/roach88/prodtest/internal/logging"
)

// Backend is what the run and fixtures commands need from a connected
// environment. *environment.Environment implements it.
type Backend interface {
	Runner(recorder harness.Recorder) (*harness.Runner, error)
	Fulfiller() (*harness.Fulfiller, error)
	Close() error
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	// Viper holds configuration bound to flags.
	Viper *viper.Viper

	// OpenBackend connects to the engine and store (for testing).
	// If nil, defaults to environment.Open.
	OpenBackend func(cfg *config.Config, logger *zap.Logger) (Backend, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the prodtest CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "prodtest",
		Short: "prodtest - connector product tests",
		Long: `Product tests for the query engine's Cassandra connector.

prodtest loads TPC-H fixtures into Cassandra, runs read-path scenarios
through the engine and keeps a ledger of every run.

Configuration is read from prodtest.yaml (in . or etc/prodtest) and
PRODTEST_<SECTION>_<KEY> environment variables.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default: prodtest.yaml in . or etc/prodtest)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.String("server", "", "engine server URI, e.g. http://test@localhost:8080")
	flags.String("keyspace", "", "store keyspace holding fixtures")

	_ = opts.Viper.BindPFlag("engine.server_uri", flags.Lookup("server"))
	_ = opts.Viper.BindPFlag("cassandra.keyspace", flags.Lookup("keyspace"))

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewFixturesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
	}
}

// loadConfig reads the configuration. Flags bound to the viper instance
// take precedence over the file and environment.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	v := o.Viper
	if v == nil {
		v = viper.New()
	}
	return config.Load(v, o.ConfigPath)
}

// logger writes diagnostics to w, which is stderr for commands so JSON
// output stays clean.
func (o *RootOptions) logger(w io.Writer) *zap.Logger {
	return logging.New(o.Verbose, w)
}

func (o *RootOptions) openBackend(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	if o.OpenBackend != nil {
		return o.OpenBackend(cfg, logger)
	}
	env, err := environment.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	return env, nil
}
