package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/prodtest/internal/harness"
	cassandrasuite "github.com/roach88/prodtest/internal/suite/cassandra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool             `json:"valid"`
	Files  int              `json:"files"`
	Errors []FileValidation `json:"errors,omitempty"`
}

// FileValidation is the problem found in one scenario file.
type FileValidation struct {
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate convention scenario files without running them",
		Long: `Validate convention scenario files (*.yaml, *.yml) offline.

Each file is checked against the scenario schema, decoded strictly and
checked for unknown fixtures. Scenario names must be unique across the
directory and the built-in suite.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	files, err := harness.ConventionFiles(dir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read scenario directory", err)
	}
	if len(files) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no scenario files in %s", dir), nil)
	}

	result := ValidationResult{Valid: true, Files: len(files)}
	scenarios := cassandrasuite.Scenarios()
	for _, path := range files {
		if opts.Verbose {
			formatter.Printf("checking %s\n", path)
		}
		s, err := validateFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fileValidation(path, err))
			continue
		}
		scenarios = append(scenarios, s)
	}
	if len(result.Errors) == 0 {
		if err := harness.Validate(scenarios); err != nil {
			result.Errors = append(result.Errors, FileValidation{Path: dir, Message: err.Error()})
		}
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	formatter.Printf("✓ All scenarios valid (%d files)\n", result.Files)
	return nil
}

func validateFile(path string) (*harness.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cs, err := harness.ParseConventionScenario(path, data)
	if err != nil {
		return nil, err
	}
	return cs.Scenario(), nil
}

func fileValidation(path string, err error) FileValidation {
	var schemaErr *harness.SchemaError
	if errors.As(err, &schemaErr) {
		return FileValidation{Path: path, Message: "does not match the scenario schema", Problems: schemaErr.Problems}
	}
	return FileValidation{Path: path, Message: err.Error()}
}

// outputValidationErrors formats and outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		if err := formatter.Failed(result); err != nil {
			return err
		}
	} else {
		formatter.Printf("✗ %d of %d scenario file(s) invalid\n", len(result.Errors), result.Files)
		for _, e := range result.Errors {
			formatter.Printf("  %s: %s\n", e.Path, e.Message)
			for _, p := range e.Problems {
				formatter.Printf("    - %s\n", p)
			}
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d invalid scenario file(s)", len(result.Errors)))
}
