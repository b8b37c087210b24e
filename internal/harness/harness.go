package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/trackcse/internal/compiler"
	"github.com/roach88/trackcse/internal/cse"
	"github.com/roach88/trackcse/internal/ir"
	"github.com/roach88/trackcse/internal/logging"
	"github.com/roach88/trackcse/internal/store"
	"github.com/roach88/trackcse/internal/tracking"
)

// Config controls where a scenario run is recorded and logged.
type Config struct {
	// Store receives the handles and the run log. Nil uses a fresh
	// in-memory database.
	Store *store.Store

	// Logger receives engine logs. Nil discards them.
	Logger *slog.Logger
}

// Run executes a scenario in a fresh in-memory database.
func Run(scenario *Scenario) (*Result, error) {
	return RunWith(context.Background(), scenario, Config{})
}

// RunWith executes a scenario and returns the result.
//
// Execution flow:
// 1. Compile extra dialects into a registry
// 2. Build the IR and load the handles into the store
// 3. Run tracked CSE against the store-backed mapping
// 4. Record the run and evaluate expectations
//
// The returned error reports a scenario that could not be set up. A run
// that fails is reported in the Result.
func RunWith(ctx context.Context, scenario *Scenario, cfg Config) (*Result, error) {
	reg, err := LoadRegistry(scenario.Dialects)
	if err != nil {
		return nil, err
	}

	built, err := BuildIR(scenario.IR)
	if err != nil {
		return nil, fmt.Errorf("failed to build IR: %w", err)
	}

	st := cfg.Store
	if st == nil {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	pairs, err := handlePairs(scenario.Handles, built)
	if err != nil {
		return nil, err
	}
	if err := st.ReplaceHandles(ctx, pairs); err != nil {
		return nil, fmt.Errorf("failed to load handles: %w", err)
	}
	mapping := st.Handles(ctx)

	opts := []cse.Option{
		cse.WithRegistry(reg),
		cse.WithEraseTriviallyDead(scenario.Options.EraseTriviallyDead),
		cse.WithLogger(logger),
	}
	if len(scenario.Options.Exclude) > 0 {
		excluded := scenario.Options.Exclude
		opts = append(opts, cse.WithExclude(func(op *ir.Operation) bool {
			return slices.Contains(excluded, op.Kind())
		}))
	}

	stats, listener, runErr := tracking.EliminateWithListener(built.Module.Root(), mapping, nil, opts...)

	result := NewResult()
	result.built = built
	result.Stats = stats
	result.Events = listener.Journal()
	result.IR = ir.Print(built.Module.Root())
	if runErr != nil {
		result.Error = runErr.Error()
		var pe *cse.Error
		if errors.As(runErr, &pe) {
			result.Precondition = string(pe.Code)
		}
		for _, c := range tracking.Codes(runErr) {
			result.Tracking = append(result.Tracking, string(c))
		}
	}

	after, err := mapping.Pairs()
	if err != nil {
		return nil, fmt.Errorf("failed to read handles: %w", err)
	}
	for _, p := range after {
		key := string(p.Key)
		result.Handles[key] = append(result.Handles[key], built.Label(p.Op))
	}
	for _, labels := range result.Handles {
		slices.Sort(labels)
	}

	result.RunID, err = st.RecordRun(ctx, store.RunRecord{
		Scenario:     scenario.Name,
		ModuleDigest: ir.ModuleDigest(built.Module).String(),
		Options:      scenario.Options.attrs(),
		Stats:        stats,
		Error:        result.Error,
		Events:       result.Events,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	if scenario.Expect != nil {
		for _, msg := range EvaluateExpect(result, built, *scenario.Expect) {
			result.AddFailure(msg)
		}
	}
	return result, nil
}

// LoadRegistry returns the builtin registry extended with the dialects in
// the given CUE files. Files may override builtin dialects.
func LoadRegistry(paths []string) (*ir.Registry, error) {
	reg := ir.BuiltinRegistry()
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read dialect file: %w", err)
		}
		specs, err := compiler.CompileDialectSource(path, string(src))
		if err != nil {
			return nil, fmt.Errorf("failed to compile dialect file: %w", err)
		}
		for i := range specs {
			verrs := compiler.ValidateDialect(&specs[i], compiler.ValidateOptions{AllowBuiltinOverride: true})
			if len(verrs) > 0 {
				return nil, fmt.Errorf("invalid dialect %s in %s: %w", specs[i].Name, path, verrs[0])
			}
			reg.Register(specs[i])
		}
	}
	return reg, nil
}

func handlePairs(handles map[string][]string, built *Built) ([]tracking.Pair, error) {
	var pairs []tracking.Pair
	for key, labels := range handles {
		for _, label := range labels {
			op, ok := built.Ops[label]
			if !ok {
				return nil, fmt.Errorf("handles[%s]: undefined label %q", key, label)
			}
			pairs = append(pairs, tracking.Pair{Key: tracking.Key(key), Op: op.ID()})
		}
	}
	tracking.SortPairs(pairs)
	return pairs, nil
}

func (o Options) attrs() ir.DictAttr {
	d := ir.DictAttr{"erase_trivially_dead": ir.BoolAttr(o.EraseTriviallyDead)}
	if len(o.Exclude) > 0 {
		arr := make(ir.ArrayAttr, len(o.Exclude))
		for i, k := range o.Exclude {
			arr[i] = ir.StringAttr(k)
		}
		d["exclude"] = arr
	}
	return d
}
