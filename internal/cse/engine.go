package cse

import (
	"fmt"
	"log/slog"

	"github.com/roach88/trackcse/internal/dominance"
	"github.com/roach88/trackcse/internal/fingerprint"
	"github.com/roach88/trackcse/internal/ir"
	"github.com/roach88/trackcse/internal/scopedtable"
)

// Stats summarizes one run.
type Stats struct {
	// Visited counts operations the traversal reached, root excluded.
	Visited int `json:"visited"`

	// Merged counts duplicates replaced by an equivalent operation.
	Merged int `json:"merged"`

	// ErasedDead counts trivially dead operations erased.
	ErasedDead int `json:"erased_dead"`
}

// Engine eliminates common subexpressions. An Engine holds configuration
// only and may be reused across runs; a single run is not safe for
// concurrent use with other mutations of the same IR.
type Engine struct {
	registry  *ir.Registry
	exclude   func(*ir.Operation) bool
	eraseDead bool
	logger    *slog.Logger
}

// New creates an Engine configured by opts.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run is shorthand for New(opts...).Run(root, dom, listener).
func Run(root *ir.Operation, dom DominanceProvider, listener Listener, opts ...Option) (Stats, error) {
	return New(opts...).Run(root, dom, listener)
}

type table = scopedtable.Table[fingerprint.Signature, *ir.Operation]

// run is the state of a single traversal.
type run struct {
	dom      DominanceProvider
	listener Listener
	policy   *Policy
	logger   *slog.Logger

	eraseDead bool
	table     *table
	dead      []*ir.Operation
	stats     Stats
}

// Run rewrites every region nested in root. A nil dom makes the engine
// compute dominance itself; a nil listener is replaced by NopListener.
//
// The returned error, if any, is a precondition failure (*Error). The IR
// may already be partially rewritten in that case.
func (e *Engine) Run(root *ir.Operation, dom DominanceProvider, listener Listener) (Stats, error) {
	if dom == nil {
		info, err := dominance.Compute(root)
		if err != nil {
			return Stats{}, &Error{
				Code:    ErrCodeDominanceUnavailable,
				Message: "cannot compute dominance",
				Op:      root.String(),
				Err:     err,
			}
		}
		dom = info
	}
	if listener == nil {
		listener = NopListener{}
	}

	r := &run{
		dom:       dom,
		listener:  listener,
		policy:    NewPolicy(e.registry, e.exclude),
		logger:    e.logger,
		eraseDead: e.eraseDead,
		table:     scopedtable.New[fingerprint.Signature, *ir.Operation](),
	}

	for _, region := range root.Regions() {
		if err := r.region(region); err != nil {
			return r.stats, err
		}
	}
	if err := r.eraseDeadOps(); err != nil {
		return r.stats, err
	}

	e.logger.Info("cse complete",
		"root", root.String(),
		"visited", r.stats.Visited,
		"merged", r.stats.Merged,
		"erased_dead", r.stats.ErasedDead,
	)
	return r.stats, nil
}

// region visits a region in dominance order.
func (r *run) region(region *ir.Region) error {
	switch region.NumBlocks() {
	case 0:
		return nil
	case 1:
		r.table.Push()
		defer r.table.Pop()
		return r.block(region.Block(0))
	}

	seen := 0
	if err := r.domSubtree(region.Block(0), &seen); err != nil {
		return err
	}
	if seen != region.NumBlocks() {
		return &Error{
			Code: ErrCodeUnreachableBlock,
			Message: fmt.Sprintf("dominator tree reaches %d of %d blocks",
				seen, region.NumBlocks()),
			Op: region.Op().String(),
		}
	}
	return nil
}

// domSubtree visits b and then the blocks it immediately dominates, each
// in a scope nested inside b's.
func (r *run) domSubtree(b *ir.Block, seen *int) error {
	*seen++
	r.table.Push()
	defer r.table.Pop()

	if err := r.block(b); err != nil {
		return err
	}
	for _, child := range r.dom.Children(b) {
		if err := r.domSubtree(child, seen); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) block(b *ir.Block) error {
	for _, op := range b.Ops() {
		if op.IsErased() {
			continue
		}
		r.stats.Visited++
		if err := r.nestedRegions(op); err != nil {
			return err
		}
		if err := r.simplify(op); err != nil {
			return err
		}
	}
	return nil
}

// nestedRegions simplifies op's regions in scopes nested under the current
// one, or in a fresh table when op is isolated from above.
func (r *run) nestedRegions(op *ir.Operation) error {
	if op.NumRegions() == 0 {
		return nil
	}
	if r.policy.IsolatedFromAbove(op) {
		outer := r.table
		r.table = scopedtable.New[fingerprint.Signature, *ir.Operation]()
		defer func() { r.table = outer }()
	}
	for _, region := range op.Regions() {
		if err := r.region(region); err != nil {
			return err
		}
	}
	return nil
}

// simplify merges op into an equivalent dominating operation, queues it for
// erasure when dead, or records it as a candidate.
func (r *run) simplify(op *ir.Operation) error {
	if r.eraseDead && r.policy.TriviallyDead(op) {
		r.dead = append(r.dead, op)
		return nil
	}
	if !r.policy.Eligible(op) {
		return nil
	}

	sig := fingerprint.Compute(op)
	canon, ok := r.table.Lookup(sig, func(c *ir.Operation) bool {
		return fingerprint.Equivalent(c, op)
	})
	if !ok {
		r.table.Insert(sig, op)
		return nil
	}
	return r.merge(op, canon, sig)
}

func (r *run) merge(op, canon *ir.Operation, sig fingerprint.Signature) error {
	if !r.dom.Dominates(canon, op) {
		return NewNonDominatingError(canon, op)
	}

	nested := fingerprint.NestedCorrespondence(op, canon)
	if err := op.ReplaceAllUsesWith(canon); err != nil {
		return NewMutationError(op, err)
	}
	for _, p := range nested {
		r.listener.NotifyOperationReplaced(p.From, p.To)
	}
	r.listener.NotifyOperationReplaced(op, canon)
	r.listener.NotifyOperationRemoved(op)

	name := op.String()
	if err := op.Erase(); err != nil {
		return NewMutationError(op, err)
	}
	r.stats.Merged++
	r.logger.Debug("merged duplicate operation",
		"op", name,
		"into", canon.String(),
		"signature", sig.Short(),
	)
	return nil
}

// eraseDeadOps erases queued dead operations in reverse visit order.
// Operations already erased with an enclosing operation are skipped.
func (r *run) eraseDeadOps() error {
	for i := len(r.dead) - 1; i >= 0; i-- {
		op := r.dead[i]
		if op.IsErased() || op.HasUses() {
			continue
		}
		r.listener.NotifyOperationRemoved(op)
		name := op.String()
		if err := op.Erase(); err != nil {
			return NewMutationError(op, err)
		}
		r.stats.ErasedDead++
		r.logger.Debug("erased dead operation", "op", name)
	}
	r.dead = nil
	return nil
}
