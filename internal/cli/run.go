package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/trackcse/internal/harness"
	"github.com/roach88/trackcse/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Dialects []string
	ShowIR   bool
}

// ScenarioReport is one scenario's entry in the run output.
type ScenarioReport struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path"`
	*harness.Result
}

// RunReport is the output of the run command.
type RunReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run tracked CSE over scenarios",
		Long: `Build each scenario's IR, run common subexpression elimination with
the tracking listener, and check the scenario's expectations.

Runs are recorded in the database given by --db. Without --db an
in-memory database is used and discarded on exit.

Examples:
  trackcse run testdata/scenarios/sibling_adds.yaml
  trackcse run --db ./runs.db --dialect tensor.cue scenarios/*.yaml
  trackcse run --format json scenario.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "SQLite database for handles and run logs")
	cmd.Flags().StringArrayVar(&opts.Dialects, "dialect", nil, "extra CUE dialect file (repeatable)")
	cmd.Flags().BoolVar(&opts.ShowIR, "ir", false, "print the IR after each run")

	return cmd
}

func runRun(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report := RunReport{Scenarios: []ScenarioReport{}}
	for _, path := range paths {
		s, err := harness.LoadScenario(path)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeScenario, "failed to load scenario", err)
		}
		s.Dialects = append(s.Dialects, opts.Dialects...)

		formatter.VerboseLog("Running scenario %s (%s)", s.Name, path)
		result, err := harness.RunWith(ctx, s, harness.Config{Store: st, Logger: slog.Default()})
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeScenario, fmt.Sprintf("scenario %s", s.Name), err)
		}
		slog.Info("scenario complete",
			"scenario", s.Name,
			"run", result.RunID,
			"merged", result.Stats.Merged,
			"erased_dead", result.Stats.ErasedDead,
			"pass", result.Pass)

		report.Scenarios = append(report.Scenarios, ScenarioReport{Scenario: s.Name, Path: path, Result: result})
		if result.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if formatter.IsJSON() {
		if report.Failed > 0 {
			if err := formatter.Failure(ErrCodeScenarioFailed, fmt.Sprintf("%d scenario(s) failed", report.Failed), report); err != nil {
				return err
			}
		} else if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		printRunReport(formatter, report, opts.ShowIR)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

func printRunReport(f *OutputFormatter, report RunReport, showIR bool) {
	for _, sr := range report.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		f.Printf("%s %s (visited %d, merged %d, erased dead %d)\n",
			mark, sr.Scenario, sr.Stats.Visited, sr.Stats.Merged, sr.Stats.ErasedDead)
		if sr.Precondition != "" {
			f.Printf("  precondition: %s\n", sr.Precondition)
		}
		if len(sr.Tracking) > 0 {
			f.Printf("  tracking: %s\n", strings.Join(sr.Tracking, ", "))
		}
		f.VerboseLog("  run %s", sr.RunID)
		for _, msg := range sr.Failures {
			f.Printf("\n%s\n", indent(msg, "  "))
		}
		if showIR {
			f.Printf("\n%s\n", indent(strings.TrimRight(sr.IR, "\n"), "  "))
		}
	}
	f.Printf("\n%d passed, %d failed\n", report.Passed, report.Failed)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
