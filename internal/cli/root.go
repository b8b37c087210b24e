package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/roach88/trackcse/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogLevel  string
	LogFormat string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Environment variables that supply flag defaults.
const (
	EnvFormat    = "TRACKCSE_FORMAT"
	EnvLogLevel  = "TRACKCSE_LOG_LEVEL"
	EnvLogFormat = "TRACKCSE_LOG_FORMAT"
	EnvDatabase  = "TRACKCSE_DB"
)

// NewRootCommand creates the root command for the trackcse CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "trackcse",
		Short: "Tracked common subexpression elimination",
		Long: `Run common subexpression elimination over IR scenarios while a
tracking listener keeps a key to operation mapping consistent.

Flag defaults can be set with TRACKCSE_FORMAT, TRACKCSE_LOG_LEVEL,
TRACKCSE_LOG_FORMAT and TRACKCSE_DB.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level, err := logging.ParseLevel(opts.LogLevel)
			if err != nil {
				return err
			}
			logFormat, err := logging.ParseFormat(opts.LogFormat)
			if err != nil {
				return err
			}
			// Logs always go to stderr so JSON output on stdout stays clean.
			logging.Init(cmd.ErrOrStderr(), level, logFormat)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", env.Str(EnvFormat, "text"), "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", env.Str(EnvLogLevel, "warn"), "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", env.Str(EnvLogFormat, "text"), "log format (text|json)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDialectCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// defaultDatabase returns the database path from the environment, or
// ":memory:" when unset.
func defaultDatabase() string {
	return env.Str(EnvDatabase, ":memory:")
}
