package dominance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackcse/internal/ir"
)

type cfg struct {
	m      *ir.Module
	region *ir.Region
	blocks []*ir.Block
}

// newCFG creates a test.region holding n blocks and wires them with the
// given edges. Every block ends in a branch listing its successors.
func newCFG(t *testing.T, n int, edges map[int][]int) *cfg {
	t.Helper()
	m := ir.NewModule()
	holder := ir.NewBuilder(m.Body()).Create(ir.OperationState{Kind: "test.region", Regions: 1})
	r := holder.Region(0)
	blocks := make([]*ir.Block, n)
	for i := range blocks {
		blocks[i] = r.AddBlock()
	}
	for i, b := range blocks {
		var succ []*ir.Block
		for _, j := range edges[i] {
			succ = append(succ, blocks[j])
		}
		kind := "cf.br"
		if len(succ) == 0 {
			kind = "scf.yield"
		} else if len(succ) > 1 {
			kind = "cf.cond_br"
		}
		ir.NewBuilder(b).Create(ir.OperationState{Kind: kind, Successors: succ})
	}
	return &cfg{m: m, region: r, blocks: blocks}
}

func TestDiamond(t *testing.T) {
	// 0 -> 1, 2; 1 -> 3; 2 -> 3
	g := newCFG(t, 4, map[int][]int{0: {1, 2}, 1: {3}, 2: {3}})
	info, err := Compute(g.m.Root())
	require.NoError(t, err)

	b := g.blocks
	assert.Equal(t, []*ir.Block{b[1], b[2], b[3]}, info.Children(b[0]))
	assert.Empty(t, info.Children(b[1]))
	assert.Same(t, b[0], info.IDom(b[3]))
	assert.Nil(t, info.IDom(b[0]))

	assert.True(t, info.BlockDominates(b[0], b[3]))
	assert.False(t, info.BlockDominates(b[1], b[3]))
	assert.False(t, info.BlockDominates(b[1], b[2]))
	assert.True(t, info.BlockDominates(b[2], b[2]))
}

func TestLoop(t *testing.T) {
	// 0 -> 1; 1 -> 2, 3; 2 -> 1
	g := newCFG(t, 4, map[int][]int{0: {1}, 1: {2, 3}, 2: {1}})
	info, err := Compute(g.m.Root())
	require.NoError(t, err)

	b := g.blocks
	assert.Same(t, b[0], info.IDom(b[1]))
	assert.Same(t, b[1], info.IDom(b[2]))
	assert.Same(t, b[1], info.IDom(b[3]))
	assert.True(t, info.BlockDominates(b[1], b[2]))
	assert.False(t, info.BlockDominates(b[2], b[1]))
}

func TestChildrenFollowRegionOrder(t *testing.T) {
	// 0 -> 2; 2 -> 1. Block 2 dominates block 1 despite its later position.
	g := newCFG(t, 3, map[int][]int{0: {2}, 2: {1}})
	info, err := Compute(g.m.Root())
	require.NoError(t, err)

	b := g.blocks
	assert.Equal(t, []*ir.Block{b[2]}, info.Children(b[0]))
	assert.Equal(t, []*ir.Block{b[1]}, info.Children(b[2]))
	assert.True(t, info.BlockDominates(b[2], b[1]))
}

func TestUnreachableBlock(t *testing.T) {
	g := newCFG(t, 3, map[int][]int{0: {1}})
	_, err := Compute(g.m.Root())
	require.Error(t, err)
	assert.True(t, IsUnreachableError(err))

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Block)
}

func TestForeignSuccessor(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	target := holder.Region(0).AddBlock()
	ir.NewBuilder(target).Op("scf.yield", nil, nil, nil)
	b.Create(ir.OperationState{Kind: "cf.br", Successors: []*ir.Block{target}})

	_, err := Compute(m.Root())
	require.Error(t, err)

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeForeignSuccessor, de.Code)
	assert.False(t, IsUnreachableError(err))
}

func TestOperationDominance(t *testing.T) {
	m := ir.NewModule()
	b := ir.NewBuilder(m.Body())
	first := b.Op("test.source", nil, []ir.Type{"i32"}, nil)
	holder := b.Create(ir.OperationState{Kind: "test.region", Regions: 1})
	inner := ir.NewBuilder(holder.Region(0).AddBlock()).Op("test.pure", nil, []ir.Type{"i32"}, nil)
	last := b.Op("test.sink", []*ir.Value{first.Result(0)}, nil, nil)

	info, err := Compute(m.Root())
	require.NoError(t, err)

	assert.True(t, info.Dominates(first, last))
	assert.False(t, info.Dominates(last, first))
	assert.True(t, info.Dominates(first, inner), "outer op dominates ops nested after it")
	assert.False(t, info.Dominates(last, inner))
	assert.False(t, info.Dominates(inner, last), "nested values are not visible outside")
	assert.False(t, info.Dominates(holder, inner), "an op never dominates its own body")
	assert.True(t, info.Dominates(first, first))
}

func TestOperationDominanceAcrossBlocks(t *testing.T) {
	g := newCFG(t, 4, map[int][]int{0: {1, 2}, 1: {3}, 2: {3}})
	b := g.blocks
	// Terminators stand in for ordinary ops.
	info, err := Compute(g.m.Root())
	require.NoError(t, err)

	assert.True(t, info.Dominates(b[0].Op(0), b[3].Op(0)))
	assert.False(t, info.Dominates(b[1].Op(0), b[3].Op(0)))
	assert.False(t, info.Dominates(b[1].Op(0), b[2].Op(0)))
}
