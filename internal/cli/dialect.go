package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/trackcse/internal/compiler"
	"github.com/roach88/trackcse/internal/ir"
)

// DialectResult is the output of the dialect command.
type DialectResult struct {
	Dialects []ir.DialectSpec           `json:"dialects"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewDialectCommand creates the dialect command.
func NewDialectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialect <file.cue>",
		Short: "Compile and check a CUE dialect file",
		Long: `Compile the dialects declared in a CUE file, validate them, and list
each operation with its traits.

Example dialect:

  dialect: tensor: ops: {
    splat: effects: "none"
    fill:  effects: "write"
    yield: {effects: "none", terminator: true}
  }`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDialect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	src, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, "failed to read dialect file", err)
	}
	specs, err := compiler.CompileDialectSource(path, string(src))
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDialect, "failed to compile dialect", err)
	}

	result := DialectResult{Dialects: specs}
	for i := range specs {
		formatter.VerboseLog("Validating dialect %s", specs[i].Name)
		result.Errors = append(result.Errors, compiler.ValidateDialect(&specs[i], compiler.ValidateOptions{})...)
	}

	if len(result.Errors) > 0 {
		msg := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))
		if formatter.IsJSON() {
			if err := formatter.Failure(result.Errors[0].Code, msg, result); err != nil {
				return err
			}
		} else {
			formatter.Printf("✗ Validation failed\n\n")
			for _, e := range result.Errors {
				formatter.Printf("  %s\n", e.Error())
			}
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	for _, d := range specs {
		formatter.Printf("dialect %s\n", d.Name)
		for _, op := range d.Ops {
			formatter.Printf("  %s.%s effects=%s%s\n", d.Name, op.Name, op.Effects, opTraits(op))
		}
	}
	return nil
}

func opTraits(op ir.OpSpec) string {
	var s string
	if op.Terminator {
		s += " terminator"
	}
	if op.NonHoistable {
		s += " non_hoistable"
	}
	if op.IsolatedFromAbove {
		s += " isolated_from_above"
	}
	return s
}
