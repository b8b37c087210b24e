package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/trackcse/internal/ir"
	"github.com/roach88/trackcse/internal/store"
	"github.com/roach88/trackcse/internal/tracking"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	RunID    string
	Op       int64
}

// OpHistoryResult is the output of runs --op.
type OpHistoryResult struct {
	Op     ir.OpID          `json:"op"`
	Events []tracking.Event `json:"events"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts, Op: -1}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded CSE runs",
		Long: `List the runs recorded in a database, show one run's notification
journal, or show every notification that touched an operation ID.

Examples:
  trackcse runs --db ./runs.db
  trackcse runs --db ./runs.db --run 0192f3a4-...
  trackcse runs --db ./runs.db --op 3 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "SQLite database with recorded runs")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run and its events")
	cmd.Flags().Int64Var(&opts.Op, "op", -1, "show the notification history of an operation ID")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Database == "" || opts.Database == ":memory:" {
		return fail(formatter, ExitCommandError, ErrCodeDatabase, "--db is required", errors.New("no database to inspect"))
	}
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

	switch {
	case opts.RunID != "":
		return showRun(ctx, st, opts.RunID, formatter)
	case opts.Op >= 0:
		return showOpHistory(ctx, st, ir.OpID(opts.Op), formatter)
	default:
		return listRuns(ctx, st, formatter)
	}
}

func listRuns(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeDatabase, "failed to list runs", err)
	}
	if f.IsJSON() {
		if runs == nil {
			runs = []store.RunRecord{}
		}
		return f.Success(runs)
	}
	if len(runs) == 0 {
		f.Printf("No runs recorded.\n")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "error"
		}
		f.Printf("%4d  %s  %-24s merged=%d erased_dead=%d %s\n",
			r.Seq, r.ID, r.Scenario, r.Stats.Merged, r.Stats.ErasedDead, status)
	}
	return nil
}

func showRun(ctx context.Context, st *store.Store, id string, f *OutputFormatter) error {
	rec, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return fail(f, ExitCommandError, ErrCodeNotFound, "unknown run", err)
	}
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeDatabase, "failed to read run", err)
	}
	if f.IsJSON() {
		return f.Success(rec)
	}

	f.Printf("run %s (seq %d)\n", rec.ID, rec.Seq)
	f.Printf("scenario: %s\n", rec.Scenario)
	f.Printf("module: %s\n", rec.ModuleDigest)
	f.Printf("versions: ir %s, pass %s\n", rec.IRVersion, rec.PassVersion)
	f.Printf("visited: %d merged: %d erased_dead: %d\n", rec.Stats.Visited, rec.Stats.Merged, rec.Stats.ErasedDead)
	if rec.Error != "" {
		f.Printf("error: %s\n", rec.Error)
	}
	f.Printf("events:\n")
	printEvents(f, rec.Events)
	return nil
}

func showOpHistory(ctx context.Context, st *store.Store, op ir.OpID, f *OutputFormatter) error {
	events, err := st.OpHistory(ctx, op)
	if err != nil {
		return fail(f, ExitCommandError, ErrCodeDatabase, "failed to read history", err)
	}
	if f.IsJSON() {
		if events == nil {
			events = []tracking.Event{}
		}
		return f.Success(OpHistoryResult{Op: op, Events: events})
	}
	f.Printf("history of op %d:\n", op)
	printEvents(f, events)
	return nil
}

func printEvents(f *OutputFormatter, events []tracking.Event) {
	if len(events) == 0 {
		f.Printf("  (none)\n")
		return
	}
	for _, e := range events {
		line := fmt.Sprintf("  %3d %-8s %s#%d", e.Seq, e.Kind, e.OpKind, e.Op)
		if e.Kind == tracking.EventReplaced {
			line += fmt.Sprintf(" -> #%d", e.Replacement)
		}
		f.Printf("%s\n", strings.TrimRight(line, " "))
	}
}
