package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/trackcse/internal/harness"
	"github.com/roach88/trackcse/internal/ir"
)

// ValidationProblem is one problem found in a scenario file.
type ValidationProblem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Checked  int                 `json:"checked"`
	Problems []ValidationProblem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenarios without running them",
		Long: `Parse each scenario, compile its dialects, build its IR and verify the
IR structure. Nothing is rewritten and nothing is recorded.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result := ValidationResult{Checked: len(paths)}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		if err := validateScenarioFile(path, formatter); err != nil {
			result.Problems = append(result.Problems, ValidationProblem{Path: path, Message: err.Error()})
		}
	}
	result.Valid = len(result.Problems) == 0

	if result.Valid {
		if formatter.IsJSON() {
			return formatter.Success(result)
		}
		formatter.Printf("✓ All scenarios valid (%d checked)\n", result.Checked)
		return nil
	}

	msg := fmt.Sprintf("validation failed with %d error(s)", len(result.Problems))
	if formatter.IsJSON() {
		if err := formatter.Failure(ErrCodeInvalid, msg, result); err != nil {
			return err
		}
	} else {
		formatter.Printf("✗ Validation failed\n\n")
		for _, p := range result.Problems {
			formatter.Printf("%s\n  %s\n\n", p.Path, p.Message)
		}
	}
	return NewExitError(ExitFailure, msg)
}

// validateScenarioFile runs every check that does not rewrite the IR.
func validateScenarioFile(path string, formatter *OutputFormatter) error {
	s, err := harness.LoadScenario(path)
	if err != nil {
		return err
	}
	reg, err := harness.LoadRegistry(s.Dialects)
	if err != nil {
		return err
	}
	built, err := harness.BuildIR(s.IR)
	if err != nil {
		return fmt.Errorf("failed to build IR: %w", err)
	}
	if err := ir.Verify(built.Module.Root()); err != nil {
		return fmt.Errorf("invalid IR: %w", err)
	}

	var unregistered []string
	built.Module.Root().Walk(func(op *ir.Operation) {
		if _, ok := reg.Lookup(op.Kind()); !ok && !slices.Contains(unregistered, op.Kind()) {
			unregistered = append(unregistered, op.Kind())
		}
	})
	for _, kind := range unregistered {
		formatter.VerboseLog("  %s: unregistered kind treated as having write effects", kind)
	}
	return nil
}
