package cse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackcse/internal/dominance"
	"github.com/roach88/trackcse/internal/ir"
)

type event struct {
	kind        string
	op          *ir.Operation
	replacement *ir.Operation
}

// recorder captures notifications and checks that every operation is still
// attached when it is reported.
type recorder struct {
	t      *testing.T
	events []event
}

func (r *recorder) NotifyOperationReplaced(op, replacement *ir.Operation) {
	assert.False(r.t, op.IsErased(), "replaced event after erase")
	r.events = append(r.events, event{"replaced", op, replacement})
}

func (r *recorder) NotifyOperationRemoved(op *ir.Operation) {
	assert.False(r.t, op.IsErased(), "removed event after erase")
	r.events = append(r.events, event{"removed", op, nil})
}

func i32() []ir.Type { return []ir.Type{"i32"} }

func TestSiblingDuplicatesMerge(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	a1 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	a2 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	s1 := b.Op("test.sink", []*ir.Value{a1.Result(0)}, nil, nil)
	s2 := b.Op("test.sink", []*ir.Value{a2.Result(0)}, nil, nil)

	rec := &recorder{t: t}
	stats, err := Run(m.Root(), nil, rec)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Merged)
	assert.Equal(t, 5, stats.Visited)
	assert.True(t, a2.IsErased())
	assert.Same(t, a1.Result(0), s1.Operand(0))
	assert.Same(t, a1.Result(0), s2.Operand(0))
	assert.Equal(t, []event{
		{"replaced", a2, a1},
		{"removed", a2, nil},
	}, rec.events)
	require.NoError(t, ir.Verify(m.Root()))
}

func TestFirstCandidateWins(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	c1 := b.Op("arith.constant", nil, i32(), ir.DictAttr{"value": ir.IntAttr(1)})
	c2 := b.Op("arith.constant", nil, i32(), ir.DictAttr{"value": ir.IntAttr(1)})
	c3 := b.Op("arith.constant", nil, i32(), ir.DictAttr{"value": ir.IntAttr(1)})
	b.Op("test.sink", []*ir.Value{x.Result(0), c1.Result(0), c2.Result(0), c3.Result(0)}, nil, nil)

	rec := &recorder{t: t}
	stats, err := Run(m.Root(), nil, rec)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Merged)
	require.Len(t, rec.events, 4)
	assert.Same(t, c1, rec.events[0].replacement)
	assert.Same(t, c1, rec.events[2].replacement)
	assert.Equal(t, 3, c1.Result(0).NumUses())
}

func TestSideEffectingDuplicatesKept(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	e1 := b.Op("test.effect", []*ir.Value{x.Result(0)}, i32(), nil)
	e2 := b.Op("test.effect", []*ir.Value{x.Result(0)}, i32(), nil)
	l1 := b.Op("memref.load", []*ir.Value{x.Result(0)}, i32(), nil)
	l2 := b.Op("memref.load", []*ir.Value{x.Result(0)}, i32(), nil)
	u1 := b.Op("mystery.op", nil, i32(), nil)
	u2 := b.Op("mystery.op", nil, i32(), nil)
	b.Op("test.sink", []*ir.Value{e1.Result(0), e2.Result(0), l1.Result(0), l2.Result(0), u1.Result(0), u2.Result(0)}, nil, nil)

	rec := &recorder{t: t}
	stats, err := Run(m.Root(), nil, rec)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Merged)
	assert.Empty(t, rec.events)
	assert.Equal(t, 8, m.Body().NumOps())
}

func TestNonDominatingBranchesKept(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	cond := b.Op("test.source", nil, []ir.Type{"i1"}, nil)
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	r := holder.Region(0)
	entry, left, right := r.AddBlock(), r.AddBlock(), r.AddBlock()
	ir.NewBuilder(entry).Create(ir.OperationState{
		Kind: "cf.cond_br", Operands: []*ir.Value{cond.Result(0)}, Successors: []*ir.Block{left, right},
	})
	for _, blk := range []*ir.Block{left, right} {
		nb := ir.NewBuilder(blk)
		add := nb.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
		nb.Op("test.sink", []*ir.Value{add.Result(0)}, nil, nil)
		nb.Op("scf.yield", nil, nil, nil)
	}

	stats, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Merged)
	assert.Equal(t, 3, left.NumOps())
	assert.Equal(t, 3, right.NumOps())
}

func TestDominatingBlockCandidateReplacesSuccessorCopies(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	r := holder.Region(0)
	entry, next := r.AddBlock(), r.AddBlock()
	eb := ir.NewBuilder(entry)
	first := eb.Op("arith.muli", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	eb.Op("test.sink", []*ir.Value{first.Result(0)}, nil, nil)
	eb.Create(ir.OperationState{Kind: "cf.br", Successors: []*ir.Block{next}})
	nb := ir.NewBuilder(next)
	second := nb.Op("arith.muli", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	sink := nb.Op("test.sink", []*ir.Value{second.Result(0)}, nil, nil)
	nb.Op("scf.yield", nil, nil, nil)

	stats, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)
	assert.Same(t, first.Result(0), sink.Operand(0))
}

func TestNestedRegionSeesOuterCandidates(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	outer := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	holder := b.Create(ir.OperationState{Kind: "test.region", ResultTypes: i32(), Regions: 1})
	nb := ir.NewBuilder(holder.Region(0).AddBlock())
	inner := nb.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	yield := nb.Op("scf.yield", []*ir.Value{inner.Result(0)}, nil, nil)
	b.Op("test.sink", []*ir.Value{outer.Result(0), holder.Result(0)}, nil, nil)

	stats, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)
	assert.True(t, inner.IsErased())
	assert.Same(t, outer.Result(0), yield.Operand(0))
}

func TestInnerCandidatesInvisibleOutside(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	holder := b.Create(ir.OperationState{Kind: "test.region", ResultTypes: i32(), Regions: 1})
	nb := ir.NewBuilder(holder.Region(0).AddBlock())
	inner := nb.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	nb.Op("scf.yield", []*ir.Value{inner.Result(0)}, nil, nil)
	after := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	b.Op("test.sink", []*ir.Value{after.Result(0), holder.Result(0)}, nil, nil)

	stats, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Merged)
	assert.False(t, after.IsErased())
}

func TestIsolatedRegionsGetFreshTable(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	c := b.Op("arith.constant", nil, i32(), ir.DictAttr{"value": ir.IntAttr(0)})
	iso := b.Create(ir.OperationState{Kind: "test.isolated", ResultTypes: i32(), Regions: 1})
	nb := ir.NewBuilder(iso.Region(0).AddBlock())
	inner := nb.Op("arith.constant", nil, i32(), ir.DictAttr{"value": ir.IntAttr(0)})
	nb.Op("scf.yield", []*ir.Value{inner.Result(0)}, nil, nil)
	b.Op("test.sink", []*ir.Value{c.Result(0), iso.Result(0)}, nil, nil)

	stats, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Merged)
	assert.False(t, inner.IsErased())
}

func TestEquivalentRegionOpsMergeWithNestedNotifications(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	build := func() *ir.Operation {
		op := b.Create(ir.OperationState{
			Kind: "scf.execute_region", ResultTypes: i32(), Regions: 1,
		})
		nb := ir.NewBuilder(op.Region(0).AddBlock())
		sq := nb.Op("arith.muli", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
		nb.Op("scf.yield", []*ir.Value{sq.Result(0)}, nil, nil)
		return op
	}
	r1, r2 := build(), build()
	nested := r2.Region(0).Block(0).Ops()
	b.Op("test.sink", []*ir.Value{r1.Result(0), r2.Result(0)}, nil, nil)

	rec := &recorder{t: t}
	stats, err := Run(m.Root(), nil, rec)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Merged)
	canonNested := r1.Region(0).Block(0).Ops()
	assert.Equal(t, []event{
		{"replaced", nested[0], canonNested[0]},
		{"replaced", nested[1], canonNested[1]},
		{"replaced", r2, r1},
		{"removed", r2, nil},
	}, rec.events)
	assert.True(t, nested[0].IsErased())
	require.NoError(t, ir.Verify(m.Root()))
}

func TestRegionOpWithEffectsKept(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	build := func() *ir.Operation {
		op := b.Create(ir.OperationState{Kind: "scf.execute_region", ResultTypes: i32(), Regions: 1})
		nb := ir.NewBuilder(op.Region(0).AddBlock())
		v := nb.Op("test.effect", []*ir.Value{x.Result(0)}, i32(), nil)
		nb.Op("scf.yield", []*ir.Value{v.Result(0)}, nil, nil)
		return op
	}
	r1, r2 := build(), build()
	b.Op("test.sink", []*ir.Value{r1.Result(0), r2.Result(0)}, nil, nil)

	stats, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Merged)
}

func TestExcludePredicate(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	a1 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	a2 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	b.Op("test.sink", []*ir.Value{a1.Result(0), a2.Result(0)}, nil, nil)

	stats, err := Run(m.Root(), nil, nil, WithExclude(func(op *ir.Operation) bool {
		return op.Kind() == "arith.addi"
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Merged)
}

func TestCustomRegistry(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	t1 := b.Op("toy.mul", []*ir.Value{x.Result(0)}, i32(), nil)
	t2 := b.Op("toy.mul", []*ir.Value{x.Result(0)}, i32(), nil)
	b.Op("test.sink", []*ir.Value{t1.Result(0), t2.Result(0)}, nil, nil)

	reg := ir.BuiltinRegistry()
	reg.Register(ir.DialectSpec{Name: "toy", Ops: []ir.OpSpec{{Name: "mul", Effects: ir.EffectNone}}})

	stats, err := Run(m.Root(), nil, nil, WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)
}

func TestEraseTriviallyDead(t *testing.T) {
	build := func() (*ir.Module, *ir.Operation) {
		m := ir.NewModule()
		b := ir.NewBuilder(m.Body())
		x := b.Op("test.source", nil, i32(), nil)
		dead := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
		b.Op("test.effect", []*ir.Value{x.Result(0)}, i32(), nil)
		return m, dead
	}

	t.Run("disabled", func(t *testing.T) {
		m, dead := build()
		stats, err := Run(m.Root(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.ErasedDead)
		assert.False(t, dead.IsErased())
		assert.Equal(t, 3, m.Body().NumOps())
	})

	t.Run("enabled", func(t *testing.T) {
		m, dead := build()
		rec := &recorder{t: t}
		stats, err := Run(m.Root(), nil, rec, WithEraseTriviallyDead(true))
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ErasedDead)
		assert.True(t, dead.IsErased())
		assert.Equal(t, []event{{"removed", dead, nil}}, rec.events)
		assert.Equal(t, 2, m.Body().NumOps(), "effectful ops survive even when unused")
	})
}

func TestDeadRegionOpErasedOnce(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	holder := b.Create(ir.OperationState{Kind: "scf.execute_region", ResultTypes: i32(), Regions: 1})
	nb := ir.NewBuilder(holder.Region(0).AddBlock())
	unused := nb.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	used := nb.Op("arith.muli", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	nb.Op("scf.yield", []*ir.Value{used.Result(0)}, nil, nil)

	rec := &recorder{t: t}
	stats, err := Run(m.Root(), nil, rec, WithEraseTriviallyDead(true))
	require.NoError(t, err)

	// The holder is erased first; its nested dead op goes with it.
	assert.Equal(t, 1, stats.ErasedDead)
	assert.True(t, holder.IsErased())
	assert.True(t, unused.IsErased())
	assert.Equal(t, []event{{"removed", holder, nil}}, rec.events)
}

type blindDominance struct {
	info *dominance.Info
}

func (d blindDominance) Dominates(a, b *ir.Operation) bool { return false }
func (d blindDominance) Children(b *ir.Block) []*ir.Block  { return d.info.Children(b) }

func TestNonDominatingMatchIsPreconditionFailure(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	a1 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	a2 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	b.Op("test.sink", []*ir.Value{a1.Result(0), a2.Result(0)}, nil, nil)

	info, err := dominance.Compute(m.Root())
	require.NoError(t, err)

	rec := &recorder{t: t}
	_, err = Run(m.Root(), blindDominance{info}, rec)
	require.Error(t, err)
	assert.True(t, IsPreconditionError(err))
	assert.True(t, IsNonDominatingError(err))
	assert.Empty(t, rec.events, "no mutation before the assertion")
	assert.False(t, a2.IsErased())
}

func TestUnreachableBlockFailsDominance(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	r := holder.Region(0)
	ir.NewBuilder(r.AddBlock()).Op("scf.yield", nil, nil, nil)
	ir.NewBuilder(r.AddBlock()).Op("scf.yield", nil, nil, nil)

	_, err := Run(m.Root(), nil, nil)
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeDominanceUnavailable, ce.Code)
	assert.True(t, dominance.IsUnreachableError(err))
}

type shallowDominance struct{}

func (shallowDominance) Dominates(a, b *ir.Operation) bool { return true }
func (shallowDominance) Children(b *ir.Block) []*ir.Block  { return nil }

func TestProviderMissingBlocksIsPreconditionFailure(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	r := holder.Region(0)
	entry, next := r.AddBlock(), r.AddBlock()
	ir.NewBuilder(entry).Create(ir.OperationState{Kind: "cf.br", Successors: []*ir.Block{next}})
	ir.NewBuilder(next).Op("scf.yield", nil, nil, nil)

	_, err := Run(m.Root(), shallowDominance{}, nil)
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeUnreachableBlock, ce.Code)
}

// buildMixed builds IR with duplicates at several nesting levels.
func buildMixed() *ir.Module {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	x := b.Op("test.source", nil, i32(), nil)
	y := b.Op("test.source", nil, i32(), nil)
	var sinks []*ir.Value
	for i := 0; i < 3; i++ {
		sinks = append(sinks,
			b.Op("arith.addi", []*ir.Value{x.Result(0), y.Result(0)}, i32(), nil).Result(0),
			b.Op("arith.constant", nil, i32(), ir.DictAttr{"value": ir.IntAttr(int64(i % 2))}).Result(0),
		)
		holder := b.Create(ir.OperationState{Kind: "scf.execute_region", ResultTypes: i32(), Regions: 1})
		nb := ir.NewBuilder(holder.Region(0).AddBlock())
		in := nb.Op("arith.muli", []*ir.Value{x.Result(0), y.Result(0)}, i32(), nil)
		nb.Op("scf.yield", []*ir.Value{in.Result(0)}, nil, nil)
		sinks = append(sinks, holder.Result(0))
	}
	b.Op("test.sink", sinks, nil, nil)
	return m
}

func TestDeterministic(t *testing.T) {
	m1 := buildMixed()
	m2 := m1.Clone()

	s1, err := Run(m1.Root(), nil, nil)
	require.NoError(t, err)
	s2, err := Run(m2.Root(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, ir.Print(m1.Root()), ir.Print(m2.Root()))
}

func TestIdempotent(t *testing.T) {
	m := buildMixed()
	first, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Merged, "2 adds, 1 constant, 2 regions")
	before := ir.Print(m.Root())

	second, err := Run(m.Root(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Merged)
	assert.Equal(t, before, ir.Print(m.Root()))
	require.NoError(t, ir.Verify(m.Root()))
}
