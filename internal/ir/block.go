package ir

import (
	"fmt"
	"slices"
)

// Region is an ordered list of blocks nested in an operation.
type Region struct {
	op     *Operation
	index  int
	blocks []*Block
}

// Op returns the operation owning the region.
func (r *Region) Op() *Operation { return r.op }

// Index returns the region number within its owner.
func (r *Region) Index() int { return r.index }

// NumBlocks returns the number of blocks.
func (r *Region) NumBlocks() int { return len(r.blocks) }

// Block returns the i-th block. Block 0 is the entry block.
func (r *Region) Block(i int) *Block { return r.blocks[i] }

// Blocks returns the blocks in order.
func (r *Region) Blocks() []*Block { return slices.Clone(r.blocks) }

// Empty reports whether the region has no blocks.
func (r *Region) Empty() bool { return len(r.blocks) == 0 }

// AddBlock appends a block with arguments of the given types.
func (r *Region) AddBlock(argTypes ...Type) *Block {
	b := &Block{region: r}
	for _, t := range argTypes {
		b.AddArg(t)
	}
	r.blocks = append(r.blocks, b)
	return b
}

// Block is an ordered list of operations with typed arguments.
type Block struct {
	region *Region
	args   []*Value
	ops    []*Operation
}

// Parent returns the region containing the block.
func (b *Block) Parent() *Region { return b.region }

// ParentOp returns the operation owning the block's region.
func (b *Block) ParentOp() *Operation { return b.region.op }

// Index returns the block's position in its region.
func (b *Block) Index() int { return slices.Index(b.region.blocks, b) }

// NumArgs returns the number of block arguments.
func (b *Block) NumArgs() int { return len(b.args) }

// Arg returns the i-th argument.
func (b *Block) Arg(i int) *Value { return b.args[i] }

// Args returns the block arguments in order.
func (b *Block) Args() []*Value { return slices.Clone(b.args) }

// AddArg appends an argument of type t.
func (b *Block) AddArg(t Type) *Value {
	v := b.region.op.module.newValue(t)
	v.block = b
	v.index = len(b.args)
	b.args = append(b.args, v)
	return v
}

// NumOps returns the number of operations in the block.
func (b *Block) NumOps() int { return len(b.ops) }

// Op returns the i-th operation.
func (b *Block) Op(i int) *Operation { return b.ops[i] }

// Ops returns a snapshot of the block's operations. Erasing operations
// while ranging over the snapshot is safe.
func (b *Block) Ops() []*Operation { return slices.Clone(b.ops) }

// IndexOf returns op's position in the block, or -1.
func (b *Block) IndexOf(op *Operation) int { return slices.Index(b.ops, op) }

// Terminator returns the last operation of the block, or nil if empty.
func (b *Block) Terminator() *Operation {
	if len(b.ops) == 0 {
		return nil
	}
	return b.ops[len(b.ops)-1]
}

// Successors returns the successor blocks named by the block's operations,
// in order of appearance, without duplicates.
func (b *Block) Successors() []*Block {
	var out []*Block
	for _, op := range b.ops {
		for _, s := range op.successors {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out
}

// Append adds a detached operation at the end of the block.
// It panics if op already belongs to a block or to another module.
func (b *Block) Append(op *Operation) {
	if op.block != nil {
		panic(fmt.Sprintf("ir: %s is already in a block", op))
	}
	if op.module != b.region.op.module {
		panic(fmt.Sprintf("ir: %s belongs to another module", op))
	}
	op.block = b
	b.ops = append(b.ops, op)
}

func (b *Block) remove(op *Operation) {
	if i := slices.Index(b.ops, op); i >= 0 {
		b.ops = slices.Delete(b.ops, i, i+1)
	}
}
