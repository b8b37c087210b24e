package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackcse/internal/cse"
	"github.com/roach88/trackcse/internal/ir"
)

// assertLive checks that every pair names a live operation of mod.
func assertLive(t *testing.T, mod *ir.Module, m Mapping) {
	t.Helper()
	pairs, err := m.Pairs()
	require.NoError(t, err)
	for _, p := range pairs {
		assert.NotNil(t, mod.Op(p.Op), "key %s maps to erased op %d", p.Key, p.Op)
	}
}

func TestSiblingAddsUnderTwoKeys(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod.Body())
	x := b.Op("test.source", nil, i32(), nil)
	a1 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	a2 := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	b.Op("test.sink", []*ir.Value{a1.Result(0), a2.Result(0)}, nil, nil)

	m := NewMap()
	m.Track("K1", a1)
	m.Track("K2", a2)

	stats, err := EliminateCommonSubexpressions(mod.Root(), m, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Merged)
	pairs, err := m.Pairs()
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"K1", a1.ID()}, {"K2", a1.ID()}}, pairs)
	assertLive(t, mod, m)
}

func TestNonDominatingBranchesKeepKeys(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod.Body())
	x := b.Op("test.source", nil, i32(), nil)
	cond := b.Op("test.source", nil, []ir.Type{"i1"}, nil)
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	r := holder.Region(0)
	entry, left, right := r.AddBlock(), r.AddBlock(), r.AddBlock()
	ir.NewBuilder(entry).Create(ir.OperationState{
		Kind: "cf.cond_br", Operands: []*ir.Value{cond.Result(0)}, Successors: []*ir.Block{left, right},
	})
	var adds []*ir.Operation
	for _, blk := range []*ir.Block{left, right} {
		nb := ir.NewBuilder(blk)
		add := nb.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
		nb.Op("test.sink", []*ir.Value{add.Result(0)}, nil, nil)
		nb.Op("scf.yield", nil, nil, nil)
		adds = append(adds, add)
	}

	m := NewMap()
	m.Track("L", adds[0])
	m.Track("R", adds[1])

	stats, err := EliminateCommonSubexpressions(mod.Root(), m, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Merged)

	pairs, err := m.Pairs()
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"L", adds[0].ID()}, {"R", adds[1].ID()}}, pairs)
}

func TestSideEffectingDuplicatesKeepKeys(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod.Body())
	x := b.Op("test.source", nil, i32(), nil)
	e1 := b.Op("test.effect", []*ir.Value{x.Result(0)}, i32(), nil)
	e2 := b.Op("test.effect", []*ir.Value{x.Result(0)}, i32(), nil)

	m := NewMap()
	m.Track("E", e1, e2)

	stats, err := EliminateCommonSubexpressions(mod.Root(), m, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Merged)
	assert.Equal(t, []ir.OpID{e1.ID(), e2.ID()}, m.Ops("E"))
}

func TestNestedTrackedOpsFollowRegionMerge(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod.Body())
	x := b.Op("test.source", nil, i32(), nil)
	var inners, holders []*ir.Operation
	for i := 0; i < 2; i++ {
		h := b.Create(ir.OperationState{Kind: "scf.execute_region", ResultTypes: i32(), Regions: 1})
		nb := ir.NewBuilder(h.Region(0).AddBlock())
		in := nb.Op("arith.muli", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
		nb.Op("scf.yield", []*ir.Value{in.Result(0)}, nil, nil)
		inners = append(inners, in)
		holders = append(holders, h)
	}
	b.Op("test.sink", []*ir.Value{holders[0].Result(0), holders[1].Result(0)}, nil, nil)

	m := NewMap()
	m.Track("region", holders[1])
	m.Track("body", inners[1])

	stats, err := EliminateCommonSubexpressions(mod.Root(), m, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)
	assert.Equal(t, []ir.OpID{holders[0].ID()}, m.Ops("region"))
	assert.Equal(t, []ir.OpID{inners[0].ID()}, m.Ops("body"))
	assertLive(t, mod, m)
}

func TestTrackedDeadOpFailsClosed(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod.Body())
	x := b.Op("test.source", nil, i32(), nil)
	dead := b.Op("arith.addi", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	kept := b.Op("arith.muli", []*ir.Value{x.Result(0), x.Result(0)}, i32(), nil)
	b.Op("test.sink", []*ir.Value{kept.Result(0)}, nil, nil)

	m := NewMap()
	m.Track("dead", dead)
	m.Track("kept", kept)

	stats, err := EliminateCommonSubexpressions(mod.Root(), m, nil, cse.WithEraseTriviallyDead(true))
	require.Error(t, err)
	assert.True(t, IsErasedWithoutReplacement(err))
	assert.False(t, cse.IsPreconditionError(err))

	assert.Equal(t, 1, stats.ErasedDead)
	assert.True(t, dead.IsErased(), "the rewrite is not rolled back")
	pairs, perr := m.Pairs()
	require.NoError(t, perr)
	assert.Equal(t, []Pair{{"kept", kept.ID()}}, pairs)
	assertLive(t, mod, m)
}

func TestPreconditionFailureReturnedDirectly(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod.Body())
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	ir.NewBuilder(holder.Region(0).AddBlock()).Op("scf.yield", nil, nil, nil)
	ir.NewBuilder(holder.Region(0).AddBlock()).Op("scf.yield", nil, nil, nil)

	_, l, err := EliminateWithListener(mod.Root(), NewMap(), nil)
	require.Error(t, err)
	assert.True(t, cse.IsPreconditionError(err))
	assert.False(t, IsTrackingError(err))
	assert.Empty(t, l.Journal())
}

func TestTrackingCompletenessOnRepeatedRuns(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod.Body())
	x := b.Op("test.source", nil, i32(), nil)
	m := NewMap()
	var sinks []*ir.Value
	for i := 0; i < 4; i++ {
		c := b.Op("arith.constant", nil, i32(), ir.DictAttr{"value": ir.IntAttr(int64(i % 2))})
		a := b.Op("arith.addi", []*ir.Value{x.Result(0), c.Result(0)}, i32(), nil)
		m.Track(Key("c"), c)
		m.Track(Key("a"), a)
		sinks = append(sinks, a.Result(0))
	}
	b.Op("test.sink", sinks, nil, nil)

	stats, err := EliminateCommonSubexpressions(mod.Root(), m, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Merged)
	assert.Len(t, m.Ops("c"), 2)
	assert.Len(t, m.Ops("a"), 2)
	assertLive(t, mod, m)

	again, err := EliminateCommonSubexpressions(mod.Root(), m, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Merged)
	assert.Equal(t, 4, m.Len())
}
