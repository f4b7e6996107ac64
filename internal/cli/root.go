// Package cli implements the hierframe command line: compile-time checks of
// study files, batch runs into a SQLite store, and read-back of stored
// tables.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Env     Env

	envErr error
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hierframe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	opts.envErr = ParseEnv(&opts.Env)

	cmd := &cobra.Command{
		Use:   "hierframe",
		Short: "Hierarchical event tables for detector studies",
		Long: `Build per-interaction and per-particle tables from nested detector
events, classify them with study-defined expressions, and store one
content-addressed table per output and batch.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envErr != nil {
				return opts.envErr
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", opts.Env.format(), "output format (json|text, or set HIERFRAME_FORMAT)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// commandError reports a command-level failure (exit code 2).
func commandError(f *OutputFormatter, code, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
