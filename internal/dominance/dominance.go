// Package dominance computes block dominator trees for every region of an
// operation tree and answers operation-level dominance queries.
//
// Dominator trees use the iterative Cooper-Harvey-Kennedy algorithm
// ("A Simple, Fast Dominance Algorithm", 2001). Each tree is numbered in
// pre- and post-order so block dominance is answered in constant time.
package dominance

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/trackcse/internal/ir"
)

// Info holds the dominator trees of every region under a root operation.
// It describes the IR at the time of Compute: blocks added afterwards are
// unknown to it. Erasing operations does not invalidate it.
type Info struct {
	regions map[*ir.Region]*tree
}

type tree struct {
	idom     map[*ir.Block]*ir.Block
	children map[*ir.Block][]*ir.Block
	pre      map[*ir.Block]int
	post     map[*ir.Block]int
}

// Compute builds dominator trees for every non-empty region nested in root.
// It fails if any block is unreachable from its region's entry or if a
// branch names a block of another region.
func Compute(root *ir.Operation) (*Info, error) {
	info := &Info{regions: make(map[*ir.Region]*tree)}
	var err error
	root.Walk(func(op *ir.Operation) {
		if err != nil {
			return
		}
		for _, r := range op.Regions() {
			if r.Empty() {
				continue
			}
			t, terr := computeTree(r)
			if terr != nil {
				err = terr
				return
			}
			info.regions[r] = t
		}
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("dominance computed", "root", root.String(), "regions", len(info.regions))
	return info, nil
}

func regionName(r *ir.Region) string {
	return fmt.Sprintf("%s/%d", r.Op(), r.Index())
}

func computeTree(r *ir.Region) (*tree, error) {
	blocks := r.Blocks()
	entry := blocks[0]

	for _, b := range blocks {
		for _, s := range b.Successors() {
			if s.Parent() != r {
				return nil, &Error{
					Code:    ErrCodeForeignSuccessor,
					Message: "branch target belongs to another region",
					Region:  regionName(r),
					Block:   b.Index(),
				}
			}
		}
	}

	// Postorder over the CFG from the entry block.
	postOrder := make([]*ir.Block, 0, len(blocks))
	postIndex := make(map[*ir.Block]int, len(blocks))
	visited := make(map[*ir.Block]bool, len(blocks))
	var dfs func(b *ir.Block)
	dfs = func(b *ir.Block) {
		visited[b] = true
		for _, s := range b.Successors() {
			if !visited[s] {
				dfs(s)
			}
		}
		postIndex[b] = len(postOrder)
		postOrder = append(postOrder, b)
	}
	dfs(entry)

	if len(postOrder) != len(blocks) {
		for _, b := range blocks {
			if !visited[b] {
				return nil, &Error{
					Code:    ErrCodeUnreachableBlock,
					Message: "block is not reachable from the region entry",
					Region:  regionName(r),
					Block:   b.Index(),
				}
			}
		}
	}

	preds := make(map[*ir.Block][]*ir.Block, len(blocks))
	for _, b := range blocks {
		for _, s := range b.Successors() {
			preds[s] = append(preds[s], b)
		}
	}

	idom := map[*ir.Block]*ir.Block{entry: entry}
	intersect := func(b1, b2 *ir.Block) *ir.Block {
		for b1 != b2 {
			for postIndex[b1] < postIndex[b2] {
				b1 = idom[b1]
			}
			for postIndex[b2] < postIndex[b1] {
				b2 = idom[b2]
			}
		}
		return b1
	}

	for changed := true; changed; {
		changed = false
		for i := len(postOrder) - 1; i >= 0; i-- {
			b := postOrder[i]
			if b == entry {
				continue
			}
			var newIdom *ir.Block
			for _, p := range preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = intersect(p, newIdom)
				}
			}
			if idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	t := &tree{
		idom:     idom,
		children: make(map[*ir.Block][]*ir.Block),
		pre:      make(map[*ir.Block]int, len(blocks)),
		post:     make(map[*ir.Block]int, len(blocks)),
	}
	// Region order keeps children deterministic.
	for _, b := range blocks[1:] {
		t.children[idom[b]] = append(t.children[idom[b]], b)
	}

	var pre, post int
	var number func(b *ir.Block)
	number = func(b *ir.Block) {
		t.pre[b] = pre
		pre++
		for _, c := range t.children[b] {
			number(c)
		}
		t.post[b] = post
		post++
	}
	number(entry)
	return t, nil
}

// IDom returns the immediate dominator of b, or nil for an entry block or a
// block Compute did not see.
func (info *Info) IDom(b *ir.Block) *ir.Block {
	t := info.regions[b.Parent()]
	if t == nil || b.Index() == 0 {
		return nil
	}
	return t.idom[b]
}

// Children returns the blocks immediately dominated by b, in region order.
func (info *Info) Children(b *ir.Block) []*ir.Block {
	t := info.regions[b.Parent()]
	if t == nil {
		return nil
	}
	return slices.Clone(t.children[b])
}

// BlockDominates reports whether a dominates b. Blocks of different regions
// never dominate each other. Every block dominates itself.
func (info *Info) BlockDominates(a, b *ir.Block) bool {
	if a == b {
		return true
	}
	if a.Parent() != b.Parent() {
		return false
	}
	t := info.regions[a.Parent()]
	if t == nil {
		return false
	}
	pa, okA := t.pre[a]
	pb, okB := t.pre[b]
	if !okA || !okB {
		return false
	}
	return pa <= pb && t.post[b] <= t.post[a]
}

// Dominates reports whether the results of a are available at b: a is b,
// or a precedes b (or an ancestor of b) in the same block, or a's block
// dominates the block of b (or of b's ancestor in a's region).
// An operation never dominates the operations nested inside it.
func (info *Info) Dominates(a, b *ir.Operation) bool {
	if a == b {
		return true
	}
	ab := a.Block()
	if ab == nil {
		return false
	}
	region := ab.Parent()

	// Lift b to the ancestor that lives in a's region.
	for b.Block() == nil || b.Block().Parent() != region {
		b = b.ParentOp()
		if b == nil || b == a {
			return false
		}
	}
	if b == a {
		return false
	}

	bb := b.Block()
	if ab == bb {
		return ab.IndexOf(a) < bb.IndexOf(b)
	}
	return info.BlockDominates(ab, bb)
}
